package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Decoder.Frequency != "161.4375M" {
		t.Errorf("default frequency = %q, want %q", cfg.Decoder.Frequency, "161.4375M")
	}
	if cfg.Dedup.Cooldown.Duration != 600*time.Second {
		t.Errorf("default cooldown = %v, want %v", cfg.Dedup.Cooldown.Duration, 600*time.Second)
	}
	if cfg.Dedup.AutoCleanup.Duration != 10*time.Minute {
		t.Errorf("default auto_cleanup = %v, want %v", cfg.Dedup.AutoCleanup.Duration, 10*time.Minute)
	}
	if cfg.Restart.Enabled {
		t.Error("restart policy should be disabled by default")
	}
	if cfg.Restart.Wait.Duration != 5*time.Second {
		t.Errorf("default restart wait = %v, want 5s", cfg.Restart.Wait.Duration)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default log level = %q, want %q", cfg.Log.Level, "info")
	}
	if !cfg.Email.Enabled {
		t.Error("email should be enabled by default")
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("loading nonexistent config should return defaults, got error: %v", err)
	}
	if cfg.Decoder.Frequency != "161.4375M" {
		t.Errorf("frequency = %q, want default", cfg.Decoder.Frequency)
	}
}

func TestLoadValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[decoder]
frequency = "160.9750M"

[filter]
addresses = ["555123", "555124"]

[blacklist]
addresses = ["666000"]
words = ["prov", "test"]
case_sensitive = true

[email]
enabled = true
smtp_server = "smtp.example.com"
smtp_port = 465
sender = "pager@example.com"
receivers = ["a@example.com", "b@example.com"]

[dedup]
cooldown = "5m"
auto_cleanup = "20m"

[restart]
enabled = true
wait = "10s"
max_restarts = 5

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	if cfg.Decoder.Frequency != "160.9750M" {
		t.Errorf("frequency = %q", cfg.Decoder.Frequency)
	}
	if len(cfg.Filter.Addresses) != 2 {
		t.Errorf("filter addresses = %d, want 2", len(cfg.Filter.Addresses))
	}
	if !cfg.Blacklist.CaseSensitive {
		t.Error("case_sensitive not parsed")
	}
	if cfg.Email.SMTPPort != 465 {
		t.Errorf("smtp_port = %d", cfg.Email.SMTPPort)
	}
	if cfg.Dedup.Cooldown.Duration != 5*time.Minute {
		t.Errorf("cooldown = %v, want 5m", cfg.Dedup.Cooldown.Duration)
	}
	if cfg.Restart.MaxRestarts != 5 {
		t.Errorf("max_restarts = %d, want 5", cfg.Restart.MaxRestarts)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	// Unset sections keep their defaults.
	if cfg.Email.Subject != "Pocsag Larm - Rix" {
		t.Errorf("subject = %q, want default", cfg.Email.Subject)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Decoder.Frequency = "160.9750M"
	cfg.Blacklist.Words = []string{"prov"}
	cfg.Filter.Addresses = []string{"555123"}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Decoder.Frequency != "160.9750M" {
		t.Errorf("frequency = %q after round trip", loaded.Decoder.Frequency)
	}
	if len(loaded.Blacklist.Words) != 1 || loaded.Blacklist.Words[0] != "prov" {
		t.Errorf("blacklist words = %v after round trip", loaded.Blacklist.Words)
	}
	if len(loaded.Filter.Addresses) != 1 {
		t.Errorf("filter addresses = %v after round trip", loaded.Filter.Addresses)
	}
}

func TestDurationParsing(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("90s")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if d.Duration != 90*time.Second {
		t.Errorf("duration = %v, want 90s", d.Duration)
	}

	if err := d.UnmarshalText([]byte("banana")); err == nil {
		t.Error("expected error for invalid duration")
	}

	text, err := Duration{5 * time.Minute}.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(text) != "5m0s" {
		t.Errorf("marshaled = %q", text)
	}
}

func TestPaths(t *testing.T) {
	cfg := Default()
	cfg.Storage.DataDir = "/var/lib/pagerd"

	if got := cfg.DBPath(); got != "/var/lib/pagerd/messages.db" {
		t.Errorf("DBPath = %q", got)
	}
	if got := cfg.AllLogPath(); got != "/var/lib/pagerd/messages.txt" {
		t.Errorf("AllLogPath = %q", got)
	}
	if got := cfg.FilteredLogPath(); got != "/var/lib/pagerd/filtered.messages.txt" {
		t.Errorf("FilteredLogPath = %q", got)
	}
}
