package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mwiklund/pagerd/internal/config"
)

func TestNtfySend(t *testing.T) {
	var gotBody, gotPriority string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotPriority = r.Header.Get("Priority")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNtfy(config.NtfyConfig{URL: srv.URL, Priority: "high"})
	if err := n.Send(context.Background(), "Meddelande:\n\nBrand i byggnad"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotBody != "Meddelande:\n\nBrand i byggnad" {
		t.Errorf("body = %q", gotBody)
	}
	if gotPriority != "high" {
		t.Errorf("priority = %q, want %q", gotPriority, "high")
	}
}

func TestNtfySendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewNtfy(config.NtfyConfig{URL: srv.URL, Priority: "high"})
	if err := n.Send(context.Background(), "body"); err == nil {
		t.Error("expected error for 5xx response")
	}
}

func TestEmailSendWithoutReceivers(t *testing.T) {
	n := NewEmail(config.EmailConfig{})
	if err := n.Send(context.Background(), "body"); err == nil {
		t.Error("expected error with no receivers configured")
	}
}
