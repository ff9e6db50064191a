package services

import (
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendWelcomeEmail(email, registrant string) error
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	dialer mailSender
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) SendWelcomeEmail(email, registrant string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your account has been registered")

	body := fmt.Sprintf(`
		<h2>Welcome!</h2>
		<p>An account for <strong>%s</strong> has been registered by %s.</p>
		<p>Register a device with this email to start receiving status updates.</p>
	`, html.EscapeString(email), html.EscapeString(registrant))

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}
