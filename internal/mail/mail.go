// Package mail delivers transactional email for the identity flows.
package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"squadhub.org/internal/obs"
)

// SMTPDispatcher sends mail over plain SMTP with optional AUTH PLAIN.
type SMTPDispatcher struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPDispatcher configures a dispatcher against addr (host:port). When
// user is empty the dispatcher connects without authentication.
func NewSMTPDispatcher(addr, from, user, pass string) (*SMTPDispatcher, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("mail: smtp address is required")
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("mail: invalid smtp address %q: %w", addr, err)
	}
	d := &SMTPDispatcher{addr: addr, from: from}
	if user != "" {
		d.auth = smtp.PlainAuth("", user, pass, host)
	}
	return d, nil
}

// Send delivers a single plain-text message. The context is consulted before
// dialing; net/smtp itself does not take a context.
func (d *SMTPDispatcher) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := buildMessage(d.from, to, subject, body)
	if err := smtp.SendMail(d.addr, d.auth, d.from, []string{to}, msg); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// LogDispatcher writes messages to the structured log instead of the wire.
// It backs local development where no SMTP endpoint is configured.
type LogDispatcher struct{}

func (LogDispatcher) Send(ctx context.Context, to, subject, body string) error {
	obs.Info("mail dispatched", map[string]any{
		"to":      to,
		"subject": subject,
		"body":    body,
	})
	return nil
}
