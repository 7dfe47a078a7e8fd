package model

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
)

// Participation is one raffle entry. Field order is the order written to the data file.
type Participation struct {
	ID                    string    `json:"id"`
	FullName              string    `json:"fullName"`
	Phone                 string    `json:"phone"`
	Email                 string    `json:"email"`
	Country               string    `json:"country"`
	Raffle                string    `json:"raffle"`
	TicketsRequested      float64   `json:"ticketsRequested"`
	Status                string    `json:"status"`
	AssignedTicketNumbers []int     `json:"assignedTicketNumbers"`
	PaymentProofFilename  string    `json:"paymentProofFilename"`
	SubmittedAt           time.Time `json:"submittedAt"`
}

func (p *Participation) IsConfirmed() bool {
	return p.Status == StatusConfirmed
}
