package consumerWorker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"rifa/internal/dto"
)

type Consumer interface {
	Consume(handler func([]byte) error) error
	Cancel() error
}

type Sender interface {
	SendTicketEmail(ctx context.Context, recipientEmail string, ticketNumber int) error
}

// Reader delivers queued ticket notifications by email.
type Reader struct {
	RMQ    Consumer
	sender Sender
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq Consumer, sender Sender) *Reader {
	return &Reader{
		RMQ:    rmq,
		sender: sender,
		done:   make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("notification reader started")

	go func() {
		defer close(r.done)

		if err := r.RMQ.Consume(func(body []byte) error {
			return r.handle(cctx, body)
		}); err != nil {
			zlog.Logger.Error().Err(err).Msg("Failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("notification reader stopped by context")
	}()
}

func (r *Reader) handle(ctx context.Context, body []byte) error {
	// A delivery racing Stop is handed back to the queue untouched.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("reader stopped: %w", err)
	}

	var msg dto.TicketNotification
	if err := json.Unmarshal(body, &msg); err != nil {
		zlog.Logger.Error().
			Err(err).
			Msgf("Failed to unmarshal message: %s", string(body))
		return err
	}
	if msg.Email == "" {
		return errors.New("notification without recipient")
	}

	zlog.Logger.Info().
		Str("email", msg.Email).
		Int("ticket", msg.NumeroBoleto).
		Msg("received ticket notification")

	if err := r.sender.SendTicketEmail(ctx, msg.Email, msg.NumeroBoleto); err != nil {
		zlog.Logger.Warn().
			Err(err).
			Str("email", msg.Email).
			Msg("Failed to send ticket notification")
		return err
	}
	return nil
}

// Stop cancels the subscription before the handler context, so nothing new is taken from the
// queue while in-flight sends finish or get requeued.
func (r *Reader) Stop() {
	if r.cancel == nil {
		return
	}
	if err := r.RMQ.Cancel(); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to cancel notification consumer")
	}
	r.cancel()
	<-r.done
}
