// Package notify decides whether an alarm goes out and hands the rendered
// body to the configured notification transports.
package notify

import (
	"context"
	"log/slog"

	"github.com/mwiklund/pagerd/internal/dedup"
	"github.com/mwiklund/pagerd/internal/geo"
)

// Notifier is one outbound notification transport.
type Notifier interface {
	// Send delivers the rendered body. Transport mechanics, including
	// timeouts, are the implementation's responsibility.
	Send(ctx context.Context, body string) error
	// Name identifies the transport in logs.
	Name() string
}

// Dispatcher runs the notification path: dedup check, map-link enrichment,
// fan-out to transports. A transport failure is logged and does not roll
// back the dedup slot, so a transient outage cannot cause a re-delivery
// storm within the same cooldown window.
type Dispatcher struct {
	dedup     *dedup.Deduplicator
	log       *slog.Logger
	notifiers []Notifier
}

// NewDispatcher creates a Dispatcher over the given transports. A nil
// logger selects slog.Default.
func NewDispatcher(d *dedup.Deduplicator, logger *slog.Logger, notifiers ...Notifier) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{dedup: d, log: logger, notifiers: notifiers}
}

// Alert sends a notification for the given alarm content unless it is a
// duplicate within the cooldown window.
func (d *Dispatcher) Alert(ctx context.Context, content string) {
	if len(d.notifiers) == 0 {
		d.log.Debug("no notification transports configured, skipping alert")
		return
	}

	if !d.dedup.ShouldSend(content) {
		return
	}

	body := RenderBody(content)

	for _, n := range d.notifiers {
		if err := n.Send(ctx, body); err != nil {
			d.log.Error("notification failed",
				"notifier", n.Name(),
				"error", err,
				"content", content,
			)
		} else {
			d.log.Info("notification sent", "notifier", n.Name())
		}
	}
}

// RenderBody builds the outbound message body, appending an OpenStreetMap
// link when the content carries an RT90 coordinate pair. A failed
// coordinate conversion only suppresses the link, never the notification.
func RenderBody(content string) string {
	body := "Meddelande:\n\n" + content
	if link := geo.MapLink(content); link != "" {
		body += "\n\nKarta: " + link
	}
	return body
}
