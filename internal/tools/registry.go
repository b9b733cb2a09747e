// ABOUTME: Thread-safe registry of tool definitions with persisted enabled flags
// ABOUTME: Produces the enabled-only listing with intent and cost annotations

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ErrToolCollision indicates a tool name is already registered.
var ErrToolCollision = errors.New("tool name collision")

// Intent classifies what a tool does to the system it touches.
type Intent string

// Intent classifications.
const (
	IntentRead          Intent = "read"
	IntentSensitiveRead Intent = "sensitive_read"
	IntentWrite         Intent = "write"
)

// RequiresConfirmation reports whether invoking a tool of this intent needs
// explicit user confirmation. Derived 1:1 from intent: reads do not, writes
// and sensitive reads do.
func (i Intent) RequiresConfirmation() bool {
	return i == IntentWrite || i == IntentSensitiveRead
}

// Handler executes one tool call. The acting identity name is passed for
// handlers that scope their effects per caller; args have already been
// validated against the tool's schema.
type Handler func(ctx context.Context, identity string, args map[string]any) (json.RawMessage, error)

// Definition is a registered tool: static metadata plus its handler.
// The enabled flag lives in the settings store, not here, so it survives
// restarts independently of registration order.
type Definition struct {
	Name        string
	Description string
	Category    string
	Intent      Intent
	Capability  string // capability the acting identity must hold; empty means none
	Schema      Schema
	Handler     Handler
}

// Info is the listing view of a tool: definition metadata annotated with
// derived intent/confirmation fields and an estimated cost figure.
type Info struct {
	Name                 string          `json:"name"`
	Description          string          `json:"description"`
	InputSchema          json.RawMessage `json:"inputSchema"`
	Category             string          `json:"category,omitempty"`
	Intent               Intent          `json:"intent"`
	RequiresConfirmation bool            `json:"requiresConfirmation"`
	EstimatedCost        int             `json:"estimatedCost"`
}

// SettingsStore persists per-tool enabled flags. Tools without a persisted
// setting are enabled by default.
type SettingsStore interface {
	ToolEnabled(ctx context.Context, name string) (bool, error)
	SetToolEnabled(ctx context.Context, name string, enabled bool) error
}

// Registry is the single source of truth for tool metadata. Handlers register
// definitions at process start; the router and dispatcher consult it on every
// tools/list and tools/call.
type Registry struct {
	mu       sync.RWMutex
	defs     map[string]*Definition
	settings SettingsStore
	logger   *slog.Logger
}

// NewRegistry creates an empty registry backed by the given settings store.
func NewRegistry(settings SettingsStore, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		defs:     make(map[string]*Definition),
		settings: settings,
		logger:   logger.With("component", "tools"),
	}
}

// Register adds a tool definition. Returns ErrToolCollision if the name is
// already taken.
func (r *Registry) Register(def *Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("%w: %q", ErrToolCollision, def.Name)
	}
	r.defs[def.Name] = def

	r.logger.Debug("registered tool",
		"tool_name", def.Name,
		"intent", def.Intent,
		"capability", def.Capability,
	)
	return nil
}

// MustRegister registers a definition and panics on collision. Intended for
// static registration at process start, where a collision is a programming
// error.
func (r *Registry) MustRegister(def *Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get returns the definition for a tool name, or nil if not registered.
func (r *Registry) Get(name string) *Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defs[name]
}

// Enabled reports whether a tool is currently enabled. Tools with no
// persisted setting default to enabled.
func (r *Registry) Enabled(ctx context.Context, name string) (bool, error) {
	return r.settings.ToolEnabled(ctx, name)
}

// SetEnabled persists the enabled flag for a tool.
// Returns an error if the tool is not registered.
func (r *Registry) SetEnabled(ctx context.Context, name string, enabled bool) error {
	if r.Get(name) == nil {
		return fmt.Errorf("unknown tool %q", name)
	}
	return r.settings.SetToolEnabled(ctx, name, enabled)
}

// ListEnabled returns the enabled tools sorted by name, each annotated with
// its intent metadata and estimated cost. The cost figure is proportional to
// the serialized size of the name, description and schema; it exists for
// relative comparison by operators, not billing.
func (r *Registry) ListEnabled(ctx context.Context) ([]Info, error) {
	r.mu.RLock()
	defs := make([]*Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	r.mu.RUnlock()

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	infos := make([]Info, 0, len(defs))
	for _, def := range defs {
		enabled, err := r.settings.ToolEnabled(ctx, def.Name)
		if err != nil {
			return nil, fmt.Errorf("reading enabled flag for %q: %w", def.Name, err)
		}
		if !enabled {
			continue
		}
		infos = append(infos, r.describe(def))
	}
	return infos, nil
}

// ListAll returns every registered tool regardless of enabled state, for
// administrative listings.
func (r *Registry) ListAll() []Info {
	r.mu.RLock()
	defs := make([]*Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	r.mu.RUnlock()

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	infos := make([]Info, 0, len(defs))
	for _, def := range defs {
		infos = append(infos, r.describe(def))
	}
	return infos
}

// describe builds the listing view of a definition.
func (r *Registry) describe(def *Definition) Info {
	schema := def.Schema.JSONSchema()
	return Info{
		Name:                 def.Name,
		Description:          def.Description,
		InputSchema:          schema,
		Category:             def.Category,
		Intent:               def.Intent,
		RequiresConfirmation: def.Intent.RequiresConfirmation(),
		EstimatedCost:        len(def.Name) + len(def.Description) + len(schema),
	}
}
