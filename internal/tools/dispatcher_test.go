// ABOUTME: Tests for the dispatcher's lookup, validation, and capability gate
// ABOUTME: Verifies that denied calls never reach the handler

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/hearth-bridge/internal/auth"
)

func newTestDispatcher(t *testing.T, defs ...*Definition) (*Dispatcher, *Registry) {
	t.Helper()
	r := NewRegistry(newMemSettings(), nil)
	for _, def := range defs {
		r.MustRegister(def)
	}
	return NewDispatcher(r, nil), r
}

func elevatedCtx() context.Context {
	return auth.WithIdentity(context.Background(), &auth.Identity{Name: "admin", Elevated: true})
}

func TestDispatchUnknownTool(t *testing.T) {
	d, _ := newTestDispatcher(t)
	_, err := d.Dispatch(elevatedCtx(), "ghost", nil, "1")
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestDispatchDisabledToolLooksUnknown(t *testing.T) {
	d, r := newTestDispatcher(t, &Definition{Name: "ping", Intent: IntentRead, Handler: noopHandler})
	require.NoError(t, r.SetEnabled(context.Background(), "ping", false))

	_, err := d.Dispatch(elevatedCtx(), "ping", nil, "1")
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestDispatchValidatesArguments(t *testing.T) {
	calls := 0
	d, _ := newTestDispatcher(t, &Definition{
		Name:   "greet",
		Intent: IntentRead,
		Schema: Schema{Fields: map[string]Field{
			"name": {Type: TypeString, Required: true},
		}},
		Handler: func(_ context.Context, _ string, _ map[string]any) (json.RawMessage, error) {
			calls++
			return json.RawMessage(`{}`), nil
		},
	})

	_, err := d.Dispatch(elevatedCtx(), "greet", map[string]any{}, "1")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
	assert.Zero(t, calls)

	_, err = d.Dispatch(elevatedCtx(), "greet", map[string]any{"name": "world"}, "2")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDispatchCapabilityDeniedBeforeHandler(t *testing.T) {
	calls := 0
	d, _ := newTestDispatcher(t, &Definition{
		Name:       "wipe",
		Intent:     IntentWrite,
		Capability: "destruction",
		Handler: func(_ context.Context, _ string, _ map[string]any) (json.RawMessage, error) {
			calls++
			return json.RawMessage(`{}`), nil
		},
	})

	ctx := auth.WithIdentity(context.Background(),
		&auth.Identity{Name: "limited", Capabilities: []string{"catalog"}})
	_, err := d.Dispatch(ctx, "wipe", nil, "1")
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Zero(t, calls, "handler must not run for a denied call")

	// An elevated identity passes the gate.
	_, err = d.Dispatch(elevatedCtx(), "wipe", nil, "2")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDispatchNoIdentityDeniedForGatedTool(t *testing.T) {
	d, _ := newTestDispatcher(t, &Definition{
		Name: "wipe", Intent: IntentWrite, Capability: "destruction", Handler: noopHandler,
	})

	_, err := d.Dispatch(context.Background(), "wipe", nil, "1")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestDispatchWrapsHandlerError(t *testing.T) {
	boom := errors.New("boom")
	d, _ := newTestDispatcher(t, &Definition{
		Name:   "explode",
		Intent: IntentRead,
		Handler: func(_ context.Context, _ string, _ map[string]any) (json.RawMessage, error) {
			return nil, boom
		},
	})

	_, err := d.Dispatch(elevatedCtx(), "explode", nil, "1")
	var herr *HandlerError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, "explode", herr.Tool)
	assert.ErrorIs(t, err, boom)
}

func TestDispatchPassesIdentityName(t *testing.T) {
	var got string
	d, _ := newTestDispatcher(t, &Definition{
		Name:   "whoami",
		Intent: IntentRead,
		Handler: func(_ context.Context, identity string, _ map[string]any) (json.RawMessage, error) {
			got = identity
			return json.RawMessage(`{}`), nil
		},
	})

	_, err := d.Dispatch(elevatedCtx(), "whoami", nil, "1")
	require.NoError(t, err)
	assert.Equal(t, "admin", got)
}
