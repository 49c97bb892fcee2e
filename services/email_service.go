package services

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"instafacts-api/config"
)

// EmailService sends the welcome mail after sign-up. It is best-effort and
// entirely optional: without SMTP configuration every send is a silent no-op.
type EmailService struct {
	config *config.Config
	dialer *gomail.Dialer
}

func NewEmailService(cfg *config.Config) *EmailService {
	service := &EmailService{config: cfg}
	if cfg.SMTPHost != "" {
		service.dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	}
	return service
}

// Enabled reports whether SMTP is configured.
func (es *EmailService) Enabled() bool {
	return es.dialer != nil
}

// SendWelcomeEmail greets a freshly registered user.
func (es *EmailService) SendWelcomeEmail(email, handle string) error {
	if !es.Enabled() {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", es.config.FromName, es.config.FromEmail))
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Welcome to InstaFacts!")
	m.SetBody("text/html", fmt.Sprintf(`
		<h2>Welcome, @%s!</h2>
		<p>Your account is ready. Publish your first post and say hello.</p>
		<p>The InstaFacts team</p>
	`, handle))

	if err := es.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send welcome email: %w", err)
	}
	return nil
}
