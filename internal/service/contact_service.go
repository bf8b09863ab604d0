package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/mail"

	config "github.com/quantivue/backend/configs"
	"github.com/quantivue/backend/internal/apperr"
	"github.com/quantivue/backend/internal/models"
	"github.com/quantivue/backend/internal/repository"
	"github.com/quantivue/backend/internal/transfer"
	"github.com/quantivue/backend/pkg/mailer"
)

type ContactService interface {
	Submit(ctx context.Context, r *transfer.ContactRequest) error
	Info() map[string]string
}

type contactService struct {
	cfg config.Config
	c   repository.ContactRepository
	m   *mailer.Sender
}

func NewContactService(cfg config.Config, c repository.ContactRepository, m *mailer.Sender) ContactService {
	return &contactService{
		cfg: cfg,
		c:   c,
		m:   m,
	}
}

// Submit stores the submission and forwards it to the support inbox. Both
// writes are best-effort after validation; the caller always gets success
// so a storage hiccup does not bounce a contact form.
func (s *contactService) Submit(ctx context.Context, r *transfer.ContactRequest) error {
	if r.Name == "" || r.Subject == "" || r.Message == "" {
		return apperr.Validation("name, subject and message are required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return apperr.Validation("a valid email is required")
	}

	submission := &models.ContactSubmission{
		Name:    r.Name,
		Email:   r.Email,
		Subject: r.Subject,
		Message: r.Message,
	}
	if err := s.c.Create(ctx, submission); err != nil {
		slog.Info(err.Error())
	}

	subject := fmt.Sprintf("Contact form: %s", r.Subject)
	text := fmt.Sprintf("From: %s <%s>\n\n%s", r.Name, r.Email, r.Message)
	htmlBody := fmt.Sprintf("<p>From: %s &lt;%s&gt;</p><p>%s</p>",
		html.EscapeString(r.Name), html.EscapeString(r.Email), html.EscapeString(r.Message))
	if err := s.m.SendMail(s.cfg.SupportEmail, r.Email, subject, htmlBody, text); err != nil {
		slog.Info(err.Error())
	}

	return nil
}

func (s *contactService) Info() map[string]string {
	return map[string]string{
		"email": s.cfg.SupportEmail,
	}
}
