package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/mwiklund/pagerd/internal/config"
)

// EmailNotifier delivers alarms by SMTP over SSL, BCC to all receivers.
type EmailNotifier struct {
	cfg config.EmailConfig
}

// NewEmail creates an EmailNotifier from the email configuration.
func NewEmail(cfg config.EmailConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

func (e *EmailNotifier) Name() string { return "email" }

// Send delivers the body to all configured receivers.
func (e *EmailNotifier) Send(ctx context.Context, body string) error {
	if len(e.cfg.Receivers) == 0 {
		return fmt.Errorf("no email receivers configured")
	}

	msg := mail.NewMsg()
	if err := msg.From(e.cfg.Sender); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := msg.Bcc(e.cfg.Receivers...); err != nil {
		return fmt.Errorf("setting receivers: %w", err)
	}
	msg.Subject(e.cfg.Subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(e.cfg.SMTPServer,
		mail.WithPort(e.cfg.SMTPPort),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(e.cfg.Sender),
		mail.WithPassword(e.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

// TestBody renders the body for a configuration test email.
func TestBody(receivers []string) string {
	var b strings.Builder
	b.WriteString("Detta är ett testmeddelande från pagerd.\n\n")
	fmt.Fprintf(&b, "Skickat till %d mottagare:\n", len(receivers))
	for i, r := range receivers {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	fmt.Fprintf(&b, "\nTidpunkt: %s", time.Now().Format("2006-01-02 15:04:05"))
	return b.String()
}
