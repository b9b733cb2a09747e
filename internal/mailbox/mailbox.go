// ABOUTME: Durable per-session mailbox over the store, with TTL and kill directives
// ABOUTME: Sanitizes client-supplied session ids before they touch the database

package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/2389/hearth-bridge/internal/metrics"
	"github.com/2389/hearth-bridge/internal/rpc"
	"github.com/2389/hearth-bridge/internal/store"
)

// MaxSessionIDLength bounds sanitized session ids. UUIDs are 36 characters;
// the headroom tolerates prefixed client schemes.
const MaxSessionIDLength = 64

// SanitizeSessionID reduces a client-supplied session id to a safe lookup
// key: only ASCII letters, digits, hyphen and underscore survive, truncated
// to MaxSessionIDLength. Returns empty when nothing survives.
func SanitizeSessionID(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
		if b.Len() >= MaxSessionIDLength {
			break
		}
	}
	return b.String()
}

// killDirective is the payload written by PutKill and recognized by IsKill.
// It doubles as a JSON-RPC notification so clients that surface mailbox
// payloads verbatim still see a well-formed envelope.
var killDirective = []byte(`{"jsonrpc":"2.0","method":"` + rpc.MethodSessionKill + `"}`)

// Mailbox is the durable queue one streaming session drains. Put and Drain
// may run in different requests, or different processes sharing the
// database; the store provides the atomicity.
type Mailbox struct {
	store  store.MailboxStore
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a mailbox with the given message TTL.
func New(s store.MailboxStore, ttl time.Duration, logger *slog.Logger) *Mailbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailbox{
		store:  s,
		ttl:    ttl,
		logger: logger.With("component", "mailbox"),
	}
}

// Put enqueues one payload for a session, stamping the absolute expiry at
// write time. correlationID may be nil for notifications.
func (m *Mailbox) Put(ctx context.Context, sessionID string, correlationID *string, payload []byte) error {
	clean := SanitizeSessionID(sessionID)
	if clean == "" {
		return fmt.Errorf("invalid session id %q", sessionID)
	}

	now := time.Now()
	msg := &store.QueuedMessage{
		SessionID:     clean,
		CorrelationID: correlationID,
		Payload:       payload,
		CreatedAt:     now,
		ExpiresAt:     now.Add(m.ttl),
	}
	if err := m.store.EnqueueMessage(ctx, msg); err != nil {
		return err
	}

	metrics.MessagesEnqueued.Inc()
	m.logger.Debug("enqueued message",
		"session_id", clean,
		"message_id", msg.ID,
		"bytes", len(payload),
	)
	return nil
}

// PutKill enqueues the kill directive for a session. The stream loop treats
// a drained kill as an order to end immediately.
func (m *Mailbox) PutKill(ctx context.Context, sessionID string) error {
	return m.Put(ctx, sessionID, nil, killDirective)
}

// Drain atomically removes and returns every live message for a session,
// oldest first. An empty mailbox yields an empty slice, not an error.
func (m *Mailbox) Drain(ctx context.Context, sessionID string) ([]*store.QueuedMessage, error) {
	clean := SanitizeSessionID(sessionID)
	if clean == "" {
		return nil, fmt.Errorf("invalid session id %q", sessionID)
	}

	msgs, err := m.store.DequeueMessages(ctx, clean, time.Now())
	if err != nil {
		return nil, err
	}
	if len(msgs) > 0 {
		metrics.MessagesDrained.Add(float64(len(msgs)))
	}
	return msgs, nil
}

// SweepExpired removes every expired message across all sessions.
func (m *Mailbox) SweepExpired(ctx context.Context) (int64, error) {
	n, err := m.store.SweepExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.MessagesExpired.Add(float64(n))
		m.logger.Info("swept expired messages", "count", n)
	}
	return n, nil
}

// IsKill reports whether a drained payload is the kill directive.
func IsKill(payload []byte) bool {
	var probe struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return false
	}
	return probe.Method == rpc.MethodSessionKill
}
