package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/betna-immo/betna/internal/email"
)

// Mailer sends email verification links.
type Mailer struct {
	sender  email.Sender
	baseURL string
	devMode bool
}

// NewMailer creates a mailer sending through sender.
func NewMailer(sender email.Sender, baseURL string, devMode bool) *Mailer {
	return &Mailer{sender: sender, baseURL: strings.TrimRight(baseURL, "/"), devMode: devMode}
}

// VerificationLink builds the link a user follows to confirm their email.
func (m *Mailer) VerificationLink(token string) string {
	return fmt.Sprintf("%s/auth/verify?token=%s", m.baseURL, url.QueryEscape(token))
}

// SendVerification mails the verification link and returns it.
func (m *Mailer) SendVerification(ctx context.Context, to, token string) (string, error) {
	link := m.VerificationLink(token)

	if m.devMode {
		slog.Info("verification link", "email", to, "link", link)
	}

	subject := "Betna Immo : confirmez votre adresse email"
	body := fmt.Sprintf(
		"Bienvenue sur Betna Immo.\n\nConfirmez votre adresse email en ouvrant ce lien :\n\n%s\n\nCe lien expire dans 24 heures et ne peut être utilisé qu'une fois.",
		link,
	)

	if err := m.sender.Send(ctx, []string{to}, subject, body); err != nil {
		return "", fmt.Errorf("sending verification email: %w", err)
	}
	return link, nil
}
