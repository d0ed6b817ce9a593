package services

import (
	"fmt"
	"net/smtp"
	"strings"

	"listify_echo/internal/config"
)

type EmailService struct {
	cfg config.SMTPConfig
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Configured reports whether every SMTP credential is set
func (s *EmailService) Configured() bool {
	return s.cfg.Host != "" && s.cfg.Port != "" && s.cfg.User != "" && s.cfg.Password != ""
}

func (s *EmailService) SendEmail(to []string, subject, body string) error {
	if !s.Configured() {
		return fmt.Errorf("SMTP credentials not fully configured")
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

	if err := smtp.SendMail(addr, auth, s.sender(), to, buildMessage(to, subject, body)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *EmailService) sender() string {
	if s.cfg.From != "" {
		return s.cfg.From
	}
	return s.cfg.User
}

func buildMessage(to []string, subject, body string) []byte {
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", strings.Join(to, ", "), subject, body))
}
