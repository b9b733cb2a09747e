// ABOUTME: SQLite-backed persistence using modernc.org/sqlite (pure Go)
// ABOUTME: Owns the mailbox queue, tool settings, profiles, and notes tables

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// applies the schema. WAL keeps the SSE poll loop's reads from blocking
// enqueue writes; _txlock=immediate makes every transaction take the write
// lock up front, so concurrent dequeues serialize instead of failing with
// a busy snapshot.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	// The _pragma DSN parameters make modernc.org/sqlite apply these
	// settings on every pooled connection; a plain `PRAGMA` Exec only
	// reaches the one connection that happens to run it.
	db, err := sql.Open("sqlite", "file:"+path+
		"?_txlock=immediate"+
		"&_pragma=journal_mode(WAL)"+
		"&_pragma=busy_timeout(5000)"+
		"&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	// Mailbox timestamps are unix nanoseconds so expiry comparisons are
	// numeric; the other tables keep RFC3339 strings.
	schema := `
	CREATE TABLE IF NOT EXISTS mailbox (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		correlation_id TEXT,
		payload TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_mailbox_session ON mailbox(session_id, id);
	CREATE INDEX IF NOT EXISTS idx_mailbox_expires ON mailbox(expires_at);

	CREATE TABLE IF NOT EXISTS tool_settings (
		tool_name TEXT PRIMARY KEY,
		enabled INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tool_profiles (
		name TEXT NOT NULL,
		tool_name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (name, tool_name)
	);

	CREATE TABLE IF NOT EXISTS notes (
		identity TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (identity, key)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// EnqueueMessage appends one message to the session's mailbox.
func (s *SQLiteStore) EnqueueMessage(ctx context.Context, msg *QueuedMessage) error {
	var correlation sql.NullString
	if msg.CorrelationID != nil {
		correlation = sql.NullString{String: *msg.CorrelationID, Valid: true}
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO mailbox (session_id, correlation_id, payload, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`,
		msg.SessionID, correlation, string(msg.Payload),
		msg.CreatedAt.UnixNano(), msg.ExpiresAt.UnixNano())
	if err != nil {
		return fmt.Errorf("enqueueing message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading insert id: %w", err)
	}
	msg.ID = id
	return nil
}

// DequeueMessages atomically removes and returns every unexpired message for
// the session in FIFO order. Select and delete run inside one transaction so
// two concurrent drains of the same session cannot both see a row.
func (s *SQLiteStore) DequeueMessages(ctx context.Context, sessionID string, now time.Time) ([]*QueuedMessage, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning dequeue: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, session_id, correlation_id, payload, created_at, expires_at
		FROM mailbox
		WHERE session_id = ? AND expires_at > ?
		ORDER BY id ASC`,
		sessionID, now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("selecting messages: %w", err)
	}

	var msgs []*QueuedMessage
	var ids []any
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		msgs = append(msgs, msg)
		ids = append(ids, msg.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	rows.Close()

	if len(msgs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM mailbox WHERE id IN ("+placeholders+")", ids...); err != nil {
		return nil, fmt.Errorf("deleting drained messages: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing dequeue: %w", err)
	}
	return msgs, nil
}

// SweepExpired deletes every message whose expiry has passed, across all
// sessions, and returns the number removed.
func (s *SQLiteStore) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM mailbox WHERE expires_at <= ?", now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("sweeping expired messages: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting swept messages: %w", err)
	}
	return n, nil
}

func scanMessage(rows *sql.Rows) (*QueuedMessage, error) {
	var msg QueuedMessage
	var correlation sql.NullString
	var payload string
	var createdAt, expiresAt int64

	if err := rows.Scan(&msg.ID, &msg.SessionID, &correlation, &payload, &createdAt, &expiresAt); err != nil {
		return nil, fmt.Errorf("scanning message: %w", err)
	}

	if correlation.Valid {
		msg.CorrelationID = &correlation.String
	}
	msg.Payload = []byte(payload)
	msg.CreatedAt = time.Unix(0, createdAt)
	msg.ExpiresAt = time.Unix(0, expiresAt)
	return &msg, nil
}

// ToolEnabled reports whether a tool is enabled. Tools without a persisted
// row default to enabled.
func (s *SQLiteStore) ToolEnabled(ctx context.Context, name string) (bool, error) {
	var enabled int
	err := s.db.QueryRowContext(ctx,
		"SELECT enabled FROM tool_settings WHERE tool_name = ?", name).Scan(&enabled)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading tool setting: %w", err)
	}
	return enabled != 0, nil
}

// SetToolEnabled persists the enabled flag for a tool.
func (s *SQLiteStore) SetToolEnabled(ctx context.Context, name string, enabled bool) error {
	flag := 0
	if enabled {
		flag = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tool_settings (tool_name, enabled, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(tool_name) DO UPDATE SET enabled = excluded.enabled, updated_at = excluded.updated_at`,
		name, flag, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing tool setting: %w", err)
	}
	return nil
}

// SaveProfile replaces the named profile's tool list.
func (s *SQLiteStore) SaveProfile(ctx context.Context, profile *Profile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning profile save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM tool_profiles WHERE name = ?", profile.Name); err != nil {
		return fmt.Errorf("clearing profile: %w", err)
	}

	createdAt := profile.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	for _, tool := range profile.Tools {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tool_profiles (name, tool_name, created_at) VALUES (?, ?, ?)`,
			profile.Name, tool, createdAt.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("writing profile entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing profile save: %w", err)
	}
	return nil
}

// GetProfile returns the named profile or ErrNotFound.
func (s *SQLiteStore) GetProfile(ctx context.Context, name string) (*Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tool_name, created_at FROM tool_profiles
		WHERE name = ? ORDER BY tool_name`, name)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	defer rows.Close()

	profile := &Profile{Name: name}
	for rows.Next() {
		var tool, createdAt string
		if err := rows.Scan(&tool, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning profile entry: %w", err)
		}
		profile.Tools = append(profile.Tools, tool)
		if profile.CreatedAt.IsZero() {
			if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
				profile.CreatedAt = t
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profile: %w", err)
	}

	if len(profile.Tools) == 0 {
		return nil, ErrNotFound
	}
	return profile, nil
}

// ListProfiles returns every saved profile sorted by name.
func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]*Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT name FROM tool_profiles ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning profile name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", err)
	}

	var profiles []*Profile
	for _, name := range names {
		profile, err := s.GetProfile(ctx, name)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// DeleteProfile removes the named profile. Deleting a missing profile
// returns ErrNotFound.
func (s *SQLiteStore) DeleteProfile(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM tool_profiles WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("counting deleted profile entries: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetNote upserts one note for an identity.
func (s *SQLiteStore) SetNote(ctx context.Context, note *Note) error {
	updatedAt := note.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (identity, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(identity, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		note.Identity, note.Key, note.Value, updatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing note: %w", err)
	}
	return nil
}

// GetNote returns one note or ErrNotFound.
func (s *SQLiteStore) GetNote(ctx context.Context, identity, key string) (*Note, error) {
	var note Note
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT identity, key, value, updated_at FROM notes
		WHERE identity = ? AND key = ?`, identity, key).
		Scan(&note.Identity, &note.Key, &note.Value, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading note: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		note.UpdatedAt = t
	}
	return &note, nil
}

// ListNotes returns every note for an identity sorted by key.
func (s *SQLiteStore) ListNotes(ctx context.Context, identity string) ([]*Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identity, key, value, updated_at FROM notes
		WHERE identity = ? ORDER BY key`, identity)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		var note Note
		var updatedAt string
		if err := rows.Scan(&note.Identity, &note.Key, &note.Value, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			note.UpdatedAt = t
		}
		notes = append(notes, &note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}
	return notes, nil
}

// DeleteNote removes one note. Deleting a missing note returns ErrNotFound.
func (s *SQLiteStore) DeleteNote(ctx context.Context, identity, key string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM notes WHERE identity = ? AND key = ?", identity, key)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("counting deleted notes: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
