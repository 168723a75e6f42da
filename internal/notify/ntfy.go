package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mwiklund/pagerd/internal/config"
)

// NtfyNotifier posts alarms to an ntfy topic as an alternative to email.
type NtfyNotifier struct {
	cfg    config.NtfyConfig
	client *http.Client
}

// NewNtfy creates an NtfyNotifier from the ntfy configuration.
func NewNtfy(cfg config.NtfyConfig) *NtfyNotifier {
	return &NtfyNotifier{
		cfg: cfg,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (n *NtfyNotifier) Name() string { return "ntfy" }

// Send posts the body to the configured ntfy URL.
func (n *NtfyNotifier) Send(ctx context.Context, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating ntfy request: %w", err)
	}

	req.Header.Set("Title", "POCSAG larm")
	req.Header.Set("Priority", n.cfg.Priority)
	req.Header.Set("Tags", "rotating_light")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}
	return nil
}
