package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mwiklund/pagerd/internal/dedup"
)

type fakeNotifier struct {
	name   string
	err    error
	bodies []string
}

func (f *fakeNotifier) Send(ctx context.Context, body string) error {
	f.bodies = append(f.bodies, body)
	return f.err
}

func (f *fakeNotifier) Name() string { return f.name }

func TestDispatcherSendsOnce(t *testing.T) {
	n := &fakeNotifier{name: "fake"}
	d := NewDispatcher(dedup.New(600*time.Second, time.Hour, nil), nil, n)

	d.Alert(context.Background(), "[2025-03-01 12:00:00] Brand i byggnad")
	d.Alert(context.Background(), "[2025-03-01 12:00:05] Brand i byggnad")

	if len(n.bodies) != 1 {
		t.Fatalf("sent %d notifications, want 1 (duplicate suppressed)", len(n.bodies))
	}
	if !strings.Contains(n.bodies[0], "Brand i byggnad") {
		t.Errorf("body = %q", n.bodies[0])
	}
}

func TestDispatcherFailureConsumesDedupSlot(t *testing.T) {
	n := &fakeNotifier{name: "fake", err: errors.New("transport down")}
	d := NewDispatcher(dedup.New(600*time.Second, time.Hour, nil), nil, n)

	d.Alert(context.Background(), "Brand i byggnad")
	d.Alert(context.Background(), "Brand i byggnad")

	// The failed attempt keeps its dedup slot: no re-delivery storm once
	// the transport recovers inside the same cooldown window.
	if len(n.bodies) != 1 {
		t.Fatalf("attempted %d sends, want 1", len(n.bodies))
	}
}

func TestDispatcherFansOutToAllTransports(t *testing.T) {
	a := &fakeNotifier{name: "a", err: errors.New("down")}
	b := &fakeNotifier{name: "b"}
	d := NewDispatcher(dedup.New(600*time.Second, time.Hour, nil), nil, a, b)

	d.Alert(context.Background(), "Brand i byggnad")

	if len(a.bodies) != 1 || len(b.bodies) != 1 {
		t.Errorf("sends = (%d, %d), want one each; a failure must not stop the fan-out",
			len(a.bodies), len(b.bodies))
	}
}

func TestDispatcherWithoutTransports(t *testing.T) {
	dd := dedup.New(600*time.Second, time.Hour, nil)
	d := NewDispatcher(dd, nil)

	d.Alert(context.Background(), "Brand i byggnad")

	// With no transports nothing is consumed: the same alarm must still
	// be sendable once a transport appears.
	if !dd.ShouldSend("Brand i byggnad") {
		t.Error("dedup slot consumed with no transports configured")
	}
}

func TestRenderBodyWithCoordinates(t *testing.T) {
	body := RenderBody("[2025-03-01 12:00:00] Brand X=6580994 Y=1628294 Storgatan 1")

	if !strings.HasPrefix(body, "Meddelande:\n\n") {
		t.Errorf("body = %q, missing prefix", body)
	}
	if !strings.Contains(body, "Karta: https://www.openstreetmap.org/?mlat=") {
		t.Errorf("body = %q, missing map link", body)
	}
}

func TestRenderBodyWithoutCoordinates(t *testing.T) {
	body := RenderBody("[2025-03-01 12:00:00] Brand Storgatan 1")

	if strings.Contains(body, "Karta:") {
		t.Errorf("body = %q, unexpected map link", body)
	}
	if !strings.Contains(body, "Brand Storgatan 1") {
		t.Errorf("body = %q, missing content", body)
	}
}

func TestTestBody(t *testing.T) {
	body := TestBody([]string{"a@example.com", "b@example.com"})

	if !strings.Contains(body, "2 mottagare") {
		t.Errorf("body = %q, missing receiver count", body)
	}
	if !strings.Contains(body, "1. a@example.com") || !strings.Contains(body, "2. b@example.com") {
		t.Errorf("body = %q, missing receiver list", body)
	}
}
