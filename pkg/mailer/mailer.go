package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	FromName string
}

// Sender delivers mail over SMTP. A nil *Sender is valid and means SMTP is
// not configured; callers are expected to log and continue.
type Sender struct {
	config Config
	auth   smtp.Auth
}

// NewSender returns nil when no SMTP host or credentials are configured.
func NewSender(config Config) *Sender {
	if config.Host == "" || config.User == "" || config.Password == "" {
		return nil
	}
	return &Sender{
		config: config,
		auth:   smtp.PlainAuth("", config.User, config.Password, config.Host),
	}
}

func (s *Sender) SendMail(to, replyTo, subject, htmlBody, textBody string) error {
	if s == nil {
		return fmt.Errorf("smtp is not configured")
	}

	addr := fmt.Sprintf("%s:%s", s.config.Host, s.config.Port)

	fromHeader := s.config.From
	if strings.TrimSpace(s.config.FromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	headers := []string{
		fmt.Sprintf("From: %s", sanitizeHeader(fromHeader)),
		fmt.Sprintf("To: %s", sanitizeHeader(to)),
		fmt.Sprintf("Subject: %s", sanitizeHeader(subject)),
		"MIME-Version: 1.0",
	}
	if replyTo != "" {
		headers = append(headers, fmt.Sprintf("Reply-To: %s", sanitizeHeader(replyTo)))
	}

	body := htmlBody
	if body != "" {
		headers = append(headers, "Content-Type: text/html; charset=UTF-8")
	} else {
		headers = append(headers, "Content-Type: text/plain; charset=UTF-8")
		body = textBody
	}

	msg := []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body)
	return smtp.SendMail(addr, s.auth, s.config.From, []string{to}, msg)
}

func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}
