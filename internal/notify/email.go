package notify

import (
	"fmt"
	"net/smtp"
	"strings"
)

// EmailConfig holds SMTP credentials and the recipient.
type EmailConfig struct {
	SMTPServer string
	SMTPPort   int
	Username   string
	Password   string
	To         string
}

// Email sends messages over SMTP with plain auth.
type Email struct {
	cfg      EmailConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmail validates cfg and constructs an Email sink.
func NewEmail(cfg EmailConfig) (*Email, error) {
	if cfg.SMTPServer == "" || cfg.SMTPPort == 0 || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("missing Email configuration: SMTPServer, SMTPPort, Username, or Password is empty")
	}
	if !strings.Contains(cfg.To, "@") {
		return nil, fmt.Errorf("%w: email address %q", ErrInvalidRecipient, cfg.To)
	}
	return &Email{cfg: cfg, sendMail: smtp.SendMail}, nil
}

// Notify mails message to the recipient. The first line becomes the subject.
func (e *Email) Notify(message string) error {
	subject, _, _ := strings.Cut(message, "\n")
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n\r\n%s\r\n", e.cfg.To, subject, message))
	auth := smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.SMTPServer)
	addr := fmt.Sprintf("%s:%d", e.cfg.SMTPServer, e.cfg.SMTPPort)

	if err := e.sendMail(addr, auth, e.cfg.Username, []string{e.cfg.To}, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", e.cfg.To, err)
	}
	return nil
}
