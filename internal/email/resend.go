// Package email sends transactional mail through Resend.
package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"

	"ats-agent-go/internal/config"
	"ats-agent-go/internal/logger"
)

// ErrNotConfigured reports that no Resend API key is set. Callers surface it
// as a configuration problem, not a send failure.
var ErrNotConfigured = errors.New("email sender is not configured")

// emailAPI is the slice of the Resend client the sender needs; tests swap in
// a fake.
type emailAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Invite describes one teammate invitation.
type Invite struct {
	Email       string // recipient address
	Name        string // recipient name, shown in the greeting
	Role        string // workspace role being granted
	InviterName string // who sent the invite
}

// Sender delivers teammate invitation emails.
type Sender struct {
	api       emailAPI
	fromEmail string
	appURL    string
}

func NewSender(cfg *config.ResendConfig) *Sender {
	s := &Sender{
		fromEmail: cfg.FromEmail,
		appURL:    cfg.AppURL,
	}
	if cfg.APIKey != "" {
		s.api = resend.NewClient(cfg.APIKey).Emails
	}
	return s
}

// SendInvite emails inv.Email an invitation to join the workspace in the
// given role, with a login link into the application. It returns the
// provider's message ID.
func (s *Sender) SendInvite(ctx context.Context, inv Invite) (string, error) {
	if s.api == nil {
		return "", ErrNotConfigured
	}
	if inv.Email == "" {
		return "", fmt.Errorf("recipient email is empty")
	}

	joinURL := s.appURL
	if joinURL != "" {
		joinURL += "/login"
	}

	sent, err := s.api.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{inv.Email},
		Subject: fmt.Sprintf("You've been invited to join as a %s", inv.Role),
		Html:    inviteHTML(inv, joinURL),
		Text:    inviteText(inv, joinURL),
	})
	if err != nil {
		return "", fmt.Errorf("send invite: %w", err)
	}
	logger.Info().Str("to", inv.Email).Str("role", inv.Role).Str("message_id", sent.Id).Msg("invite sent")
	return sent.Id, nil
}

func inviteHTML(inv Invite, joinURL string) string {
	link := ""
	if joinURL != "" {
		link = fmt.Sprintf(`<p><a href="%s">Accept the invitation</a></p>`, joinURL)
	}
	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 480px;">
<h2>You've been invited</h2>
<p>Hi %s,</p>
<p>%s has invited you to join their recruiting workspace as a <strong>%s</strong>.</p>
%s
<p>If you weren't expecting this, you can ignore this email.</p>
</div>`, inv.Name, inv.InviterName, inv.Role, link)
}

func inviteText(inv Invite, joinURL string) string {
	msg := fmt.Sprintf("Hi %s,\n\n%s has invited you to join their recruiting workspace as a %s.",
		inv.Name, inv.InviterName, inv.Role)
	if joinURL != "" {
		msg += "\n\nAccept the invitation: " + joinURL
	}
	msg += "\n\nIf you weren't expecting this, you can ignore this email."
	return msg
}
