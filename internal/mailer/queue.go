package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"rifa/internal/dto"
)

type Publisher interface {
	Publish(message []byte) error
}

// QueueNotifier hands ticket notifications to a message queue instead of sending them inline.
type QueueNotifier struct {
	pub Publisher
}

func NewQueueNotifier(pub Publisher) *QueueNotifier {
	return &QueueNotifier{pub: pub}
}

func (q *QueueNotifier) SendTicketEmail(ctx context.Context, recipientEmail string, ticketNumber int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("queue notification: %w", err)
	}
	payload, err := json.Marshal(dto.TicketNotification{
		Email:        recipientEmail,
		NumeroBoleto: ticketNumber,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := q.pub.Publish(payload); err != nil {
		return fmt.Errorf("queue notification: %w", err)
	}
	return nil
}
