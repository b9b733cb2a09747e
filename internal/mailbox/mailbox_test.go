// ABOUTME: Tests for mailbox semantics: sanitization, TTL, ordering, kill directives
// ABOUTME: Runs against the real SQLite store in a temp directory

package mailbox

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/hearth-bridge/internal/store"
)

func newTestMailbox(t *testing.T, ttl time.Duration) *Mailbox {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, ttl, nil)
}

func TestSanitizeSessionID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean uuid", "27aa8e6c-17e1-4bfe-b343-06fc3b1a0b11", "27aa8e6c-17e1-4bfe-b343-06fc3b1a0b11"},
		{"strips path traversal", "../../etc/passwd", "etcpasswd"},
		{"strips quotes and spaces", `ses sion';--`, "session--"},
		{"keeps underscore", "agent_7", "agent_7"},
		{"all hostile", "<>!?*", ""},
		{"truncates", longID(), longID()[:MaxSessionIDLength]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeSessionID(tt.in))
		})
	}
}

func longID() string {
	s := ""
	for len(s) < 100 {
		s += "abcdefghij"
	}
	return s
}

func TestPutDrainOrdering(t *testing.T) {
	m := newTestMailbox(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "sess-1", nil, []byte(`{"id":"A"}`)))
	require.NoError(t, m.Put(ctx, "sess-1", nil, []byte(`{"id":"B"}`)))
	require.NoError(t, m.Put(ctx, "sess-1", nil, []byte(`{"id":"C"}`)))

	msgs, err := m.Drain(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, `{"id":"A"}`, string(msgs[0].Payload))
	assert.Equal(t, `{"id":"B"}`, string(msgs[1].Payload))
	assert.Equal(t, `{"id":"C"}`, string(msgs[2].Payload))

	// A second drain finds nothing.
	msgs, err = m.Drain(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestPutRejectsHostileSessionID(t *testing.T) {
	m := newTestMailbox(t, time.Minute)
	ctx := context.Background()

	err := m.Put(ctx, "<script>", nil, []byte(`{}`))
	assert.Error(t, err)

	_, err = m.Drain(ctx, "!!!")
	assert.Error(t, err)
}

func TestDrainSkipsExpired(t *testing.T) {
	m := newTestMailbox(t, 30*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "sess-1", nil, []byte(`{"id":"A"}`)))
	time.Sleep(60 * time.Millisecond)

	msgs, err := m.Drain(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSweepExpired(t *testing.T) {
	m := newTestMailbox(t, 10*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "sess-1", nil, []byte(`{}`)))
	require.NoError(t, m.Put(ctx, "sess-2", nil, []byte(`{}`)))
	time.Sleep(30 * time.Millisecond)

	n, err := m.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestKillDirective(t *testing.T) {
	m := newTestMailbox(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "sess-1", nil, []byte(`{"jsonrpc":"2.0","id":1,"result":{}}`)))
	require.NoError(t, m.PutKill(ctx, "sess-1"))

	msgs, err := m.Drain(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.False(t, IsKill(msgs[0].Payload))
	assert.True(t, IsKill(msgs[1].Payload))
}

func TestIsKillRejectsNonDirectives(t *testing.T) {
	assert.False(t, IsKill([]byte(`not json`)))
	assert.False(t, IsKill([]byte(`{"jsonrpc":"2.0","method":"tools/list"}`)))
	assert.False(t, IsKill([]byte(`{}`)))
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("* * * * *"))
	assert.NoError(t, ValidateSchedule("*/5 * * * *"))
	assert.Error(t, ValidateSchedule("not a schedule"))
	assert.Error(t, ValidateSchedule("* * * * * *"))
}
