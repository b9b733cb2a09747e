// ABOUTME: Tests for the builtin tool packs through the real dispatcher
// ABOUTME: Notes run against the SQLite store; base tools are pure

package builtins

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/hearth-bridge/internal/auth"
	"github.com/2389/hearth-bridge/internal/store"
	"github.com/2389/hearth-bridge/internal/tools"
)

func newDispatcher(t *testing.T) *tools.Dispatcher {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	registry := tools.NewRegistry(s, nil)
	RegisterBase(registry)
	RegisterNotes(registry, s)
	return tools.NewDispatcher(registry, nil)
}

func adminCtx() context.Context {
	return auth.WithIdentity(context.Background(), &auth.Identity{Name: "admin", Elevated: true})
}

func unmarshal(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestPing(t *testing.T) {
	d := newDispatcher(t)
	raw, err := d.Dispatch(adminCtx(), "ping", nil, "1")
	require.NoError(t, err)
	assert.Equal(t, "pong", unmarshal(t, raw)["reply"])
}

func TestEcho(t *testing.T) {
	d := newDispatcher(t)

	raw, err := d.Dispatch(adminCtx(), "echo", map[string]any{"message": "hi"}, "1")
	require.NoError(t, err)
	assert.Equal(t, []any{"hi"}, unmarshal(t, raw)["echo"])

	raw, err = d.Dispatch(adminCtx(), "echo", map[string]any{"message": "hi", "repeat": float64(3)}, "2")
	require.NoError(t, err)
	assert.Equal(t, []any{"hi", "hi", "hi"}, unmarshal(t, raw)["echo"])
}

func TestEchoRequiresMessage(t *testing.T) {
	d := newDispatcher(t)
	_, err := d.Dispatch(adminCtx(), "echo", map[string]any{}, "1")
	var verr *tools.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "message", verr.Field)
}

func TestCurrentTime(t *testing.T) {
	d := newDispatcher(t)
	raw, err := d.Dispatch(adminCtx(), "current_time", nil, "1")
	require.NoError(t, err)
	assert.NotEmpty(t, unmarshal(t, raw)["time"])
}

func TestNoteLifecycle(t *testing.T) {
	d := newDispatcher(t)
	ctx := adminCtx()

	_, err := d.Dispatch(ctx, "note_set", map[string]any{"key": "greeting", "value": "hello"}, "1")
	require.NoError(t, err)

	raw, err := d.Dispatch(ctx, "note_get", map[string]any{"key": "greeting"}, "2")
	require.NoError(t, err)
	assert.Equal(t, "hello", unmarshal(t, raw)["value"])

	raw, err = d.Dispatch(ctx, "note_list", nil, "3")
	require.NoError(t, err)
	assert.Equal(t, []any{"greeting"}, unmarshal(t, raw)["keys"])

	_, err = d.Dispatch(ctx, "note_delete", map[string]any{"key": "greeting"}, "4")
	require.NoError(t, err)

	_, err = d.Dispatch(ctx, "note_get", map[string]any{"key": "greeting"}, "5")
	require.Error(t, err)
}

func TestNoteWritesGatedByCapability(t *testing.T) {
	d := newDispatcher(t)
	limited := auth.WithIdentity(context.Background(), &auth.Identity{Name: "limited"})

	_, err := d.Dispatch(limited, "note_set", map[string]any{"key": "k", "value": "v"}, "1")
	assert.ErrorIs(t, err, tools.ErrPermissionDenied)

	// Reads stay open.
	_, err = d.Dispatch(limited, "note_list", nil, "2")
	assert.NoError(t, err)
}

func TestNotesScopedPerIdentity(t *testing.T) {
	d := newDispatcher(t)
	alice := auth.WithIdentity(context.Background(),
		&auth.Identity{Name: "alice", Capabilities: []string{"notes"}})
	bob := auth.WithIdentity(context.Background(),
		&auth.Identity{Name: "bob", Capabilities: []string{"notes"}})

	_, err := d.Dispatch(alice, "note_set", map[string]any{"key": "k", "value": "from-alice"}, "1")
	require.NoError(t, err)

	_, err = d.Dispatch(bob, "note_get", map[string]any{"key": "k"}, "2")
	assert.Error(t, err, "bob must not see alice's note")
}
