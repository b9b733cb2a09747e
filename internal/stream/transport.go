// ABOUTME: The streaming transport: one SSE connection per session
// ABOUTME: Poll-driven loop with heartbeats, idle ceiling, and kill handling

package stream

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/2389/hearth-bridge/internal/mailbox"
	"github.com/2389/hearth-bridge/internal/metrics"
)

// End reasons reported in logs and metrics when a stream closes.
const (
	ReasonDisconnected = "disconnected"
	ReasonIdleTimeout  = "idle_timeout"
	ReasonKilled       = "killed"
)

// Config carries the transport's timing knobs, resolved from configuration
// at construction.
type Config struct {
	BaseURL           string // external base URL embedded in the endpoint event
	Token             string // auth token embedded in the callback URL when set
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	IdleTimeout       time.Duration
}

// Transport serves streaming sessions. Each connection gets its own session
// state on the handler's stack; nothing here is shared between connections,
// so the loop runs lock-free.
type Transport struct {
	mailbox *mailbox.Mailbox
	cfg     Config
	logger  *slog.Logger
}

// NewTransport creates a streaming transport over the given mailbox.
func NewTransport(m *mailbox.Mailbox, cfg Config, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		mailbox: m,
		cfg:     cfg,
		logger:  logger.With("component", "stream"),
	}
}

// session is the per-connection state. It lives for exactly one ServeHTTP
// call and is never touched by another goroutine.
type session struct {
	id           string
	openedAt     time.Time
	lastActivity time.Time // reset when a message is delivered
	lastOutbound time.Time // reset by any write, heartbeats included
}

// ServeHTTP runs one streaming session to completion. The connection ends on
// client disconnect, on the idle ceiling, or when a drained kill directive
// orders it closed; all paths emit a best-effort bye event first.
func (t *Transport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sess := &session{id: t.resolveSessionID(r)}
	logger := t.logger.With("session_id", sess.id)

	setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	metrics.ActiveSessions.Inc()
	defer metrics.ActiveSessions.Dec()

	// The callback address is the very first event, so the client knows
	// where to POST before anything else happens.
	if err := writeEvent(w, flusher, EventEndpoint, t.callbackURL(sess.id)); err != nil {
		logger.Warn("failed to announce endpoint", "error", err)
		return
	}

	now := time.Now()
	sess.openedAt = now
	sess.lastActivity = now
	sess.lastOutbound = now
	logger.Info("stream opened")

	reason := t.run(w, flusher, r, sess, logger)

	// Best-effort farewell; on disconnect the write fails silently.
	_ = writeEvent(w, flusher, EventBye, `{}`)

	metrics.SessionsEnded.WithLabelValues(reason).Inc()
	logger.Info("stream closed", "reason", reason, "duration", time.Since(sess.openedAt))
}

// run drives the poll loop and returns the end reason.
func (t *Transport) run(w http.ResponseWriter, flusher http.Flusher, r *http.Request, sess *session, logger *slog.Logger) string {
	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return ReasonDisconnected
		case <-ticker.C:
		}

		if idle := time.Since(sess.lastActivity); idle > t.cfg.IdleTimeout {
			logger.Info("idle ceiling exceeded", "idle", idle)
			return ReasonIdleTimeout
		}

		msgs, err := t.mailbox.Drain(r.Context(), sess.id)
		if err != nil {
			// Transient store errors leave the messages queued for the
			// next tick.
			logger.Warn("drain failed", "error", err)
			continue
		}

		for _, msg := range msgs {
			if mailbox.IsKill(msg.Payload) {
				logger.Info("kill directive received")
				return ReasonKilled
			}
			if err := writeMessageEvent(w, flusher, sess.id, msg.Payload); err != nil {
				return ReasonDisconnected
			}
			now := time.Now()
			sess.lastActivity = now
			sess.lastOutbound = now
		}

		if time.Since(sess.lastOutbound) > t.cfg.HeartbeatInterval {
			if err := writeEvent(w, flusher, EventHeartbeat, heartbeatPayload); err != nil {
				return ReasonDisconnected
			}
			sess.lastOutbound = time.Now()
			metrics.Heartbeats.Inc()
		}
	}
}

// resolveSessionID recovers the session id from the request or mints a new
// one. A standards-compliant EventSource client reconnects with only the
// Last-Event-ID header, so it is checked first; explicit clients pass the
// session_id query parameter. Hostile input is reduced by sanitization and
// replaced when nothing survives.
func (t *Transport) resolveSessionID(r *http.Request) string {
	if clean := mailbox.SanitizeSessionID(r.Header.Get("Last-Event-ID")); clean != "" {
		return clean
	}
	if clean := mailbox.SanitizeSessionID(r.URL.Query().Get("session_id")); clean != "" {
		return clean
	}
	return uuid.New().String()
}

// callbackURL builds the address announced in the endpoint event. The
// session id always rides along; the token only when configured, for
// clients that cannot set headers.
func (t *Transport) callbackURL(sessionID string) string {
	values := url.Values{}
	values.Set("session_id", sessionID)
	if t.cfg.Token != "" {
		values.Set("token", t.cfg.Token)
	}
	return fmt.Sprintf("%s/messages?%s", t.cfg.BaseURL, values.Encode())
}
