package services

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type emailService struct {
	dialer  *gomail.Dialer
	from    string
	subject string
}

// NewEmailService: Sender канала email поверх SMTP.
func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) Sender {
	return &emailService{
		dialer:  gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:    fromEmail,
		subject: "Your verification code",
	}
}

func (s *emailService) buildMessage(to, text string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", s.subject)
	m.SetBody("text/plain", text)
	return m
}

func (s *emailService) Send(_ context.Context, to, text string) error {
	if err := s.dialer.DialAndSend(s.buildMessage(to, text)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
