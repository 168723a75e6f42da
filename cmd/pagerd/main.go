// pagerd supervises an rtl_fm | multimon-ng decoder pair, cleans and
// filters the POCSAG messages it emits, keeps rolling message logs, and
// sends deduplicated alarm notifications with a map link.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mwiklund/pagerd/internal/api"
	"github.com/mwiklund/pagerd/internal/config"
	"github.com/mwiklund/pagerd/internal/dedup"
	"github.com/mwiklund/pagerd/internal/filter"
	"github.com/mwiklund/pagerd/internal/notify"
	"github.com/mwiklund/pagerd/internal/router"
	"github.com/mwiklund/pagerd/internal/store"
	"github.com/mwiklund/pagerd/internal/supervisor"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "query":
			runQuery(os.Args[2:])
			return
		case "status":
			runStatus(os.Args[2:])
			return
		case "test-notify":
			runTestNotify(os.Args[2:])
			return
		case "version":
			fmt.Println("pagerd", version)
			return
		}
	}

	// Default: run daemon.
	runDaemon(os.Args[1:])
}

func runDaemon(args []string) {
	fs := flag.NewFlagSet("pagerd", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Parse(args)

	if *showVersion {
		fmt.Println("pagerd", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogging(cfg.Log.Level)

	logger.Info("pagerd starting",
		"version", version,
		"frequency", cfg.Decoder.Frequency,
	)

	if err := run(cfg, *configPath, logger); err != nil {
		logger.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Open the message archive.
	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening message archive: %w", err)
	}
	defer db.Close()

	logger.Info("message archive opened", "path", cfg.DBPath())

	// Run retention purge on startup.
	if cfg.Storage.Retention.Duration > 0 {
		purged, err := db.Purge(cfg.Storage.Retention.Duration)
		if err != nil {
			logger.Warn("failed to purge old messages", "error", err)
		} else if purged > 0 {
			logger.Info("purged old messages", "count", purged, "retention", cfg.Storage.Retention.Duration)
		}
	}

	// Notification path: dedup -> map link -> transports.
	dd := dedup.New(cfg.Dedup.Cooldown.Duration, cfg.Dedup.AutoCleanup.Duration, logger)
	go dd.Run(ctx)

	var notifiers []notify.Notifier
	if cfg.Email.Enabled && len(cfg.Email.Receivers) > 0 {
		notifiers = append(notifiers, notify.NewEmail(cfg.Email))
		logger.Info("email notifications enabled", "receivers", len(cfg.Email.Receivers))
	}
	if cfg.Ntfy.URL != "" {
		notifiers = append(notifiers, notify.NewNtfy(cfg.Ntfy))
		logger.Info("ntfy notifications enabled")
	}
	if len(notifiers) == 0 {
		logger.Warn("no notification transports configured, alarms will only be logged")
	}
	dispatcher := notify.NewDispatcher(dd, logger, notifiers...)

	// Decode pipeline: supervisor -> normalize -> blacklist -> router.
	rt := router.New(cfg.AllLogPath(), cfg.FilteredLogPath(), db, dispatcher, logger)
	bl := filter.New(filter.NewBlacklist(
		cfg.Blacklist.Addresses,
		cfg.Blacklist.Words,
		cfg.Blacklist.CaseSensitive,
	), logger)
	sup := supervisor.New(rt, bl, nil, supervisor.RestartPolicy{
		Enabled:     cfg.Restart.Enabled,
		Wait:        cfg.Restart.Wait.Duration,
		MaxRestarts: cfg.Restart.MaxRestarts,
	}, logger)
	sup.UpdateFilterAddresses(filter.NewAddressSet(cfg.Filter.Addresses))

	if err := sup.Start(cfg.Decoder.Frequency); err != nil {
		// Spawn failure is not fatal for the daemon: the admin API can
		// retry with a frequency update once the radio is available.
		logger.Error("failed to start decoder", "error", err)
	}
	defer sup.Stop()

	// Admin API.
	var apiServer *http.Server
	if cfg.API.Enabled {
		handler := api.New(rt, sup, cfg, configPath, logger).Handler()
		apiServer = &http.Server{
			Addr:              cfg.API.Listen,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("admin API listening", "addr", cfg.API.Listen)
			if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("admin API error", "error", err)
			}
		}()
	}

	logger.Info("pipeline started")

	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)

	sup.Stop()
	if apiServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("admin API shutdown", "error", err)
		}
	}
	return nil
}

// --- query subcommand ---

func runQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	last := fs.String("last", "24h", "time window (e.g. 24h, 7d, 30d)")
	address := fs.String("address", "", "filter by RIC address")
	filteredOnly := fs.Bool("filtered", false, "only messages from the filtered set")
	limit := fs.Int("limit", 50, "max messages to show")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging("error") // quiet for CLI output

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening message archive: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	since, err := parseDuration(*last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --last value %q: %v\n", *last, err)
		os.Exit(1)
	}

	messages, err := db.Query(store.Filter{
		Since:        time.Now().Add(-since),
		Address:      *address,
		FilteredOnly: *filteredOnly,
		Limit:        *limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "query error: %v\n", err)
		os.Exit(1)
	}

	if len(messages) == 0 {
		fmt.Println("No messages found.")
		return
	}

	for _, m := range messages {
		ts := m.Timestamp.Local().Format("2006-01-02 15:04:05")
		mark := " "
		if m.Filtered {
			mark = "*"
		}
		fmt.Printf("%s %s %-8s %s\n", ts, mark, m.Address, m.Body)
	}
	fmt.Printf("Total: %d message(s)\n", len(messages))
}

// --- status subcommand ---

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging("error")

	fmt.Printf("Frequency:    %s\n", cfg.Decoder.Frequency)
	fmt.Printf("Filters:      %d address(es)\n", len(cfg.Filter.Addresses))
	fmt.Printf("Blacklist:    %d address(es), %d word(s)\n",
		len(cfg.Blacklist.Addresses), len(cfg.Blacklist.Words))

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening message archive: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	lastMessages, err := db.Query(store.Filter{Limit: 1})
	if err == nil && len(lastMessages) > 0 {
		m := lastMessages[0]
		ago := time.Since(m.Timestamp).Truncate(time.Second)
		fmt.Printf("Last message: [%s] %s — %s ago\n", m.Address, m.Body, formatDuration(ago))
	} else {
		fmt.Println("Last message: none")
	}

	count, _ := db.Count()
	fmt.Printf("Archive:      %d message(s)\n", count)
	fmt.Printf("Archive path: %s\n", cfg.DBPath())
}

// --- test-notify subcommand ---

func runTestNotify(args []string) {
	fs := flag.NewFlagSet("test-notify", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Log.Level)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sent := 0
	if cfg.Email.Enabled && len(cfg.Email.Receivers) > 0 {
		body := notify.TestBody(cfg.Email.Receivers)
		if err := notify.NewEmail(cfg.Email).Send(ctx, body); err != nil {
			fmt.Fprintf(os.Stderr, "error sending test email: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Test email sent to %d receiver(s).\n", len(cfg.Email.Receivers))
		sent++
	}
	if cfg.Ntfy.URL != "" {
		if err := notify.NewNtfy(cfg.Ntfy).Send(ctx, "Test notification from pagerd"); err != nil {
			fmt.Fprintf(os.Stderr, "error sending test ntfy notification: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Test ntfy notification sent.")
		sent++
	}
	if sent == 0 {
		fmt.Fprintln(os.Stderr, "error: no notification transports configured")
		os.Exit(1)
	}
}

// --- utilities ---

func setupLogging(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseDuration extends time.ParseDuration with support for "d" (days) suffix.
func parseDuration(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		s = strings.TrimSuffix(s, "d")
		var days int
		if _, err := fmt.Sscanf(s, "%d", &days); err != nil {
			return 0, fmt.Errorf("invalid days format: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// formatDuration formats a duration in human-readable form.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", h, m)
	}
	days := int(d.Hours()) / 24
	h := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, h)
}
