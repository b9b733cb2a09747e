// ABOUTME: Store interfaces and data types for hearth-bridge persistence
// ABOUTME: Defines QueuedMessage, tool settings, profiles, and note records

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// QueuedMessage is one durable mailbox row: a reply produced for a session
// by one request and consumed by another. The auto-incrementing ID defines
// FIFO order within a session. Sessions themselves are not stored; the
// session id is a foreign key by value only.
type QueuedMessage struct {
	ID            int64
	SessionID     string
	CorrelationID *string // mirrors the JSON-RPC id when present
	Payload       []byte  // a full JSON-RPC envelope
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// Profile is a named saved subset of enabled tools, managed by the admin
// surface and applied wholesale to the tool settings.
type Profile struct {
	Name      string
	Tools     []string
	CreatedAt time.Time
}

// Note is a per-identity key/value record used by the builtin note tools.
type Note struct {
	Identity  string
	Key       string
	Value     string
	UpdatedAt time.Time
}

// MailboxStore is the durable per-session FIFO queue. Enqueue computes
// nothing; the caller supplies the absolute expiry. Dequeue must atomically
// select-and-delete the visible rows for a session so concurrent drains of
// the same session cannot double-deliver.
type MailboxStore interface {
	EnqueueMessage(ctx context.Context, msg *QueuedMessage) error
	DequeueMessages(ctx context.Context, sessionID string, now time.Time) ([]*QueuedMessage, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// ToolSettingsStore persists per-tool enabled flags. Tools without a
// persisted row are enabled.
type ToolSettingsStore interface {
	ToolEnabled(ctx context.Context, name string) (bool, error)
	SetToolEnabled(ctx context.Context, name string, enabled bool) error
}

// ProfileStore persists named tool profiles.
type ProfileStore interface {
	SaveProfile(ctx context.Context, profile *Profile) error
	GetProfile(ctx context.Context, name string) (*Profile, error)
	ListProfiles(ctx context.Context) ([]*Profile, error)
	DeleteProfile(ctx context.Context, name string) error
}

// NoteStore persists the builtin note tools' key/value records.
type NoteStore interface {
	SetNote(ctx context.Context, note *Note) error
	GetNote(ctx context.Context, identity, key string) (*Note, error)
	ListNotes(ctx context.Context, identity string) ([]*Note, error)
	DeleteNote(ctx context.Context, identity, key string) error
}

// Store is the full persistence interface implemented by SQLiteStore.
type Store interface {
	MailboxStore
	ToolSettingsStore
	ProfileStore
	NoteStore
	Close() error
}
