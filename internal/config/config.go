// Package config handles TOML configuration loading with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration for pagerd.
type Config struct {
	Decoder   DecoderConfig   `toml:"decoder"`
	Filter    FilterConfig    `toml:"filter"`
	Blacklist BlacklistConfig `toml:"blacklist"`
	Email     EmailConfig     `toml:"email"`
	Ntfy      NtfyConfig      `toml:"ntfy"`
	Dedup     DedupConfig     `toml:"dedup"`
	Restart   RestartConfig   `toml:"restart"`
	Storage   StorageConfig   `toml:"storage"`
	API       APIConfig       `toml:"api"`
	Log       LogConfig       `toml:"log"`
}

// DecoderConfig selects the frequency the process pair is tuned to.
type DecoderConfig struct {
	Frequency string `toml:"frequency"`
}

// FilterConfig lists the RIC addresses promoted to the filtered log and
// eligible for notification.
type FilterConfig struct {
	Addresses []string `toml:"addresses"`
}

// BlacklistConfig discards matching messages before logging.
type BlacklistConfig struct {
	Addresses     []string `toml:"addresses"`
	Words         []string `toml:"words"`
	CaseSensitive bool     `toml:"case_sensitive"`
}

// EmailConfig controls the SMTP notification target.
type EmailConfig struct {
	Enabled    bool     `toml:"enabled"`
	SMTPServer string   `toml:"smtp_server"`
	SMTPPort   int      `toml:"smtp_port"`
	Sender     string   `toml:"sender"`
	Password   string   `toml:"password"`
	Receivers  []string `toml:"receivers"`
	Subject    string   `toml:"subject"`
}

// NtfyConfig controls the optional ntfy notification target.
type NtfyConfig struct {
	URL      string `toml:"url"`
	Priority string `toml:"priority"`
}

// DedupConfig controls notification deduplication.
type DedupConfig struct {
	Cooldown    Duration `toml:"cooldown"`
	AutoCleanup Duration `toml:"auto_cleanup"`
}

// RestartConfig is the decoder restart policy applied when the process
// pair dies without an operator stop.
type RestartConfig struct {
	Enabled     bool     `toml:"enabled"`
	Wait        Duration `toml:"wait"`
	MaxRestarts int      `toml:"max_restarts"`
}

// StorageConfig controls where logs and the message archive live.
type StorageConfig struct {
	DataDir   string   `toml:"data_dir"`
	Retention Duration `toml:"retention"`
}

// APIConfig controls the admin HTTP API.
type APIConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration wraps time.Duration for TOML string parsing (e.g. "5m", "1h").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Decoder: DecoderConfig{
			Frequency: "161.4375M",
		},
		Email: EmailConfig{
			Enabled: true,
			Subject: "Pocsag Larm - Rix",
		},
		Ntfy: NtfyConfig{
			Priority: "high",
		},
		Dedup: DedupConfig{
			Cooldown:    Duration{600 * time.Second},
			AutoCleanup: Duration{10 * time.Minute},
		},
		Restart: RestartConfig{
			Enabled:     false,
			Wait:        Duration{5 * time.Second},
			MaxRestarts: 0,
		},
		Storage: StorageConfig{
			Retention: Duration{30 * 24 * time.Hour},
		},
		API: APIConfig{
			Enabled: true,
			Listen:  "127.0.0.1:8073",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "pagerd", "config.toml")
}

// Load reads configuration from the given path, falling back to defaults
// for any unset fields. If the file does not exist, returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration back to the given path, creating parent
// directories as needed. Operator edits arriving through the admin API are
// persisted this way.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("creating config temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}

// DataDir resolves the data directory, preferring the configured value and
// falling back to $XDG_DATA_HOME/pagerd.
func (c *Config) DataDir() string {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "pagerd")
}

// DBPath returns the message archive path.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir(), "messages.db")
}

// AllLogPath returns the append-only file backing the "all messages" log.
func (c *Config) AllLogPath() string {
	return filepath.Join(c.DataDir(), "messages.txt")
}

// FilteredLogPath returns the append-only file backing the filtered log.
func (c *Config) FilteredLogPath() string {
	return filepath.Join(c.DataDir(), "filtered.messages.txt")
}
