// Package router owns the rolling message logs, their append-only backing
// files, and the hand-off to the notification path.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mwiklund/pagerd/internal/filter"
	"github.com/mwiklund/pagerd/internal/store"
)

// MaxEntries caps each in-memory rolling log.
const MaxEntries = 50

const timestampLayout = "[2006-01-02 15:04:05]"

// AlarmMarker delimits the human-readable alert text within a decoded
// message. Only messages carrying it reach the notification path.
const AlarmMarker = "Alpha:"

// Alerter receives the alarm content of filtered messages.
type Alerter interface {
	Alert(ctx context.Context, content string)
}

// Archive persists accepted messages for later querying. May be nil.
type Archive interface {
	Insert(m *store.Message) error
}

// Router routes each accepted message to the rolling logs, the backing
// files, the archive, and (for filtered addresses) the alerter.
type Router struct {
	allPath      string
	filteredPath string
	archive      Archive
	alerter      Alerter
	now          func() time.Time
	log          *slog.Logger

	mu         sync.Mutex
	all        []string
	filtered   []string
	lastRecord string
	counter    int
}

// New creates a Router writing to the two given backing files. archive and
// alerter may be nil to disable archiving or notification; a nil logger
// selects slog.Default.
func New(allPath, filteredPath string, archive Archive, alerter Alerter, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		allPath:      allPath,
		filteredPath: filteredPath,
		archive:      archive,
		alerter:      alerter,
		now:          time.Now,
		log:          logger,
	}
}

// Handle routes one normalized message. Messages repeating the previous
// record verbatim within the same second are dropped; the upstream decoder
// occasionally emits the same line twice for one transmission.
func (r *Router) Handle(ctx context.Context, msg, address string, filterAddresses filter.AddressSet) {
	var alarm string

	r.mu.Lock()
	ts := r.now().Format(timestampLayout)
	record := ts + " " + msg

	if record == r.lastRecord {
		r.mu.Unlock()
		return
	}
	r.lastRecord = record

	r.all = prepend(r.all, record)
	r.appendFile(r.allPath, record)

	isFiltered := filterAddresses.Contains(address)
	if isFiltered {
		r.filtered = prepend(r.filtered, record)
		r.appendFile(r.filteredPath, record)

		if _, after, found := strings.Cut(msg, AlarmMarker); found {
			alarm = ts + " " + strings.TrimSpace(after)
		}
	}

	if r.archive != nil {
		if err := r.archive.Insert(store.NewMessage(r.now(), address, msg, isFiltered)); err != nil {
			r.log.Error("failed to archive message", "error", err)
		}
	}

	r.counter++
	r.mu.Unlock()

	// The alerter may block on network I/O; never hold the lock over it.
	if alarm != "" && r.alerter != nil {
		r.alerter.Alert(ctx, alarm)
	}
}

// Clear empties both in-memory logs and truncates both backing files.
func (r *Router) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, path := range []string{r.allPath, r.filteredPath} {
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("truncating %s: %w", path, err)
			}
			r.log.Error("failed to truncate log file", "path", path, "error", err)
		}
	}

	r.all = nil
	r.filtered = nil

	r.log.Info("message logs cleared")
	return firstErr
}

// Messages returns a copy of the "all messages" rolling log, newest first.
func (r *Router) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.all...)
}

// FilteredMessages returns a copy of the filtered rolling log, newest first.
func (r *Router) FilteredMessages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.filtered...)
}

// Count returns the number of messages accepted since startup.
func (r *Router) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counter
}

// appendFile is best-effort: a failed write is logged and the message
// stays in the in-memory log.
func (r *Router) appendFile(path, record string) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		r.log.Error("failed to open log file", "path", path, "error", err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(record + "\n"); err != nil {
		r.log.Error("failed to append to log file", "path", path, "error", err)
	}
}

func prepend(log []string, record string) []string {
	log = append([]string{record}, log...)
	if len(log) > MaxEntries {
		log = log[:MaxEntries]
	}
	return log
}
