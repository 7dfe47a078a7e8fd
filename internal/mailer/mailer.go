package mailer

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"

	"github.com/rs/zerolog"
)

const (
	ticketSubject  = "Confirmación de Participación en la Rifa"
	ticketBodyTmpl = "¡Gracias por participar en la rifa! Tu número de boleto es: %d."
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer delivers ticket notifications through an SMTP relay.
type Mailer struct {
	cfg  Config
	log  *zerolog.Logger
	send sendFunc
}

func New(cfg Config, log *zerolog.Logger) *Mailer {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &Mailer{cfg: cfg, log: log, send: smtp.SendMail}
}

func (m *Mailer) SendTicketEmail(ctx context.Context, recipientEmail string, ticketNumber int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	msg := buildMessage(m.cfg.From, recipientEmail, ticketSubject, fmt.Sprintf(ticketBodyTmpl, ticketNumber))
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, auth, m.cfg.From, []string{recipientEmail}, msg); err != nil {
		m.log.Warn().Err(err).Str("email", recipientEmail).Msg("failed to send ticket email")
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("email", recipientEmail).Int("ticket", ticketNumber).Msg("ticket email sent")
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, to, mime.QEncoding.Encode("UTF-8", subject), body,
	))
}
