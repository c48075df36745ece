// Package handler implements the four concrete ChannelHandlers.
package handler

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/notifyhub/notifyhub/internal/dispatch"
	"github.com/notifyhub/notifyhub/internal/models"
)

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	SMTPHost string
	SMTPPort int
	Username string
	Password string
	From     string
}

// Email is the ChannelHandler for the email channel, submitting via
// net/smtp the way the teacher's EmailProvider does.
type Email struct {
	cfg EmailConfig
}

// NewEmail builds an Email handler.
func NewEmail(cfg EmailConfig) *Email { return &Email{cfg: cfg} }

func (e *Email) Channel() models.Channel { return models.ChannelEmail }

// CanHandle requires a non-empty recipient email address.
func (e *Email) CanHandle(_ context.Context, _ *models.Notification, recipient *models.User) bool {
	return recipient != nil && recipient.Email != ""
}

func (e *Email) Send(ctx context.Context, n *models.Notification, recipient *models.User) dispatch.Outcome {
	subject := n.Subject
	if subject == "" {
		subject = "Notification"
	}

	message := e.buildMessage(recipient.Email, subject, n.Content)
	addr := fmt.Sprintf("%s:%d", e.cfg.SMTPHost, e.cfg.SMTPPort)
	auth := smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.SMTPHost)

	err := smtp.SendMail(addr, auth, e.cfg.From, []string{recipient.Email}, []byte(message))
	if err == nil {
		return dispatch.Outcome{Kind: dispatch.Success}
	}
	return dispatch.Outcome{Kind: classifySMTPError(err), Reason: err.Error()}
}

func (e *Email) buildMessage(to, subject, body string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", e.cfg.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", to))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}

// classifySMTPError distinguishes a hard-bounce/malformed-address rejection
// (permanent) from a connect timeout or transient SMTP 4xx (retryable).
func classifySMTPError(err error) dispatch.OutcomeKind {
	if _, ok := err.(net.Error); ok {
		return dispatch.TransientFailure
	}
	var code int
	if _, scanErr := fmt.Sscanf(err.Error(), "%d", &code); scanErr == nil {
		if code >= 500 && code < 600 {
			return dispatch.PermanentFailure
		}
		if code >= 400 && code < 500 {
			return dispatch.TransientFailure
		}
	}
	return dispatch.TransientFailure
}
