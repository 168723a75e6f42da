// Package store provides the SQLite message archive. The rolling in-memory
// logs and append-only text files are the operational view; the archive
// keeps searchable history for the query and status subcommands.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Message is one accepted, normalized message as archived.
type Message struct {
	ID        string
	Timestamp time.Time
	Address   string
	Body      string
	Filtered  bool
	Notified  bool
}

// NewMessage creates a Message with a generated UUID.
func NewMessage(ts time.Time, address, body string, filtered bool) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Timestamp: ts,
		Address:   address,
		Body:      body,
		Filtered:  filtered,
	}
}

// DB wraps an SQLite connection for message storage.
type DB struct {
	db *sql.DB
}

// Open opens or creates an SQLite database at the given path.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Single writer connection to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Insert stores a message in the archive.
func (d *DB) Insert(m *Message) error {
	_, err := d.db.Exec(`
		INSERT INTO messages (id, timestamp, address, body, filtered, notified)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.Timestamp.UTC().Format(time.RFC3339Nano),
		m.Address,
		m.Body,
		m.Filtered,
		m.Notified,
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// MarkNotified marks a message as having been handed to the notifier.
func (d *DB) MarkNotified(id string) error {
	_, err := d.db.Exec(`UPDATE messages SET notified = TRUE WHERE id = ?`, id)
	return err
}

// Filter controls which messages Query returns.
type Filter struct {
	Since        time.Time
	Until        time.Time
	Address      string
	FilteredOnly bool
	Limit        int
}

// Query returns archived messages matching the filter, newest first.
func (d *DB) Query(f Filter) ([]*Message, error) {
	query := `SELECT id, timestamp, address, body, filtered, notified
		FROM messages WHERE 1=1`
	var args []interface{}

	if !f.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, f.Since.UTC().Format(time.RFC3339Nano))
	}
	if !f.Until.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, f.Until.UTC().Format(time.RFC3339Nano))
	}
	if f.Address != "" {
		query += " AND address = ?"
		args = append(args, f.Address)
	}
	if f.FilteredOnly {
		query += " AND filtered = TRUE"
	}

	query += " ORDER BY timestamp DESC"

	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Count returns the total number of archived messages.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// Purge deletes messages older than the given retention duration.
func (d *DB) Purge(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UTC().Format(time.RFC3339Nano)
	result, err := d.db.Exec(`DELETE FROM messages WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging old messages: %w", err)
	}
	return result.RowsAffected()
}

func scanMessage(rows *sql.Rows) (*Message, error) {
	var m Message
	var tsStr string

	err := rows.Scan(&m.ID, &tsStr, &m.Address, &m.Body, &m.Filtered, &m.Notified)
	if err != nil {
		return nil, fmt.Errorf("scanning message row: %w", err)
	}

	m.Timestamp, _ = time.Parse(time.RFC3339Nano, tsStr)
	return &m, nil
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id        TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			address   TEXT NOT NULL,
			body      TEXT NOT NULL,
			filtered  BOOLEAN DEFAULT FALSE,
			notified  BOOLEAN DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_ts ON messages(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_address ON messages(address, timestamp)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}
