package mail

import (
	"context"
	"strings"

	"cleanservice/internal/config"

	"go.uber.org/zap"
)

type Kind string

const (
	KindBookingVerification Kind = "booking_verification"
	KindBookingConfirmation Kind = "booking_confirmation"
	KindNewCustomerAlert    Kind = "new_customer_alert"
	KindNewBookingAlert     Kind = "new_booking_alert"
	KindStaffVerification   Kind = "staff_verification"
	KindStaffApproval       Kind = "staff_approval"
	KindAssignment          Kind = "assignment"
)

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Kind    Kind   `json:"kind"`
}

// Sender delivers one HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// ConsoleSender logs emails instead of sending them. Used when SMTP is not configured.
type ConsoleSender struct {
	log *zap.Logger
}

func NewConsoleSender(log *zap.Logger) *ConsoleSender {
	return &ConsoleSender{log: log}
}

func (s *ConsoleSender) Send(_ context.Context, to, subject, html string) error {
	s.log.Info("[DEV-EMAIL]",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("links", strings.Join(extractLinks(html), " ")),
	)
	return nil
}

// NewSender returns an SMTP sender when SMTP_HOST is set and a ConsoleSender otherwise.
func NewSender(cfg config.SMTPConfig, log *zap.Logger) Sender {
	if !cfg.Enabled() {
		log.Warn("SMTP_HOST not set, emails are logged instead of sent")
		return NewConsoleSender(log)
	}
	return NewSMTPSender(SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Secure:   cfg.Secure,
		Username: cfg.User,
		Password: cfg.Pass,
		From:     cfg.From,
	})
}

func extractLinks(html string) []string {
	var links []string
	rest := html
	for {
		i := strings.Index(rest, `href="`)
		if i < 0 {
			return links
		}
		rest = rest[i+len(`href="`):]
		j := strings.Index(rest, `"`)
		if j < 0 {
			return links
		}
		links = append(links, rest[:j])
		rest = rest[j:]
	}
}
