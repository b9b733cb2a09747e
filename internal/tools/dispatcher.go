// ABOUTME: Dispatches validated tool calls to their registered handlers
// ABOUTME: Enforces schema validation and the capability gate before execution

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/hearth-bridge/internal/auth"
	"github.com/2389/hearth-bridge/internal/metrics"
)

// ErrUnknownTool indicates the requested tool is not registered or not enabled.
var ErrUnknownTool = errors.New("unknown tool")

// ErrPermissionDenied indicates the acting identity lacks the tool's capability.
var ErrPermissionDenied = errors.New("permission denied")

// HandlerError wraps a failure thrown by a tool handler. The original message
// travels as diagnostic detail; it is never a raw propagated panic.
type HandlerError struct {
	Tool string
	Err  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// Dispatcher validates and routes tool calls. It is side-effect-free apart
// from the capability check's identity read; all side effects belong to the
// handlers.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		logger:   logger.With("component", "dispatch"),
	}
}

// Dispatch executes one tool call: look up the definition, validate the
// arguments against its schema, enforce the capability requirement against
// the acting identity from ctx, then invoke the handler. The capability
// check runs before the handler so a denied call has no partial side
// effects. correlationID is used only for log correlation.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any, correlationID string) (json.RawMessage, error) {
	def := d.registry.Get(name)
	if def == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	// A disabled tool is indistinguishable from an unregistered one
	enabled, err := d.registry.Enabled(ctx, name)
	if err != nil {
		return nil, &HandlerError{Tool: name, Err: err}
	}
	if !enabled {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	if args == nil {
		args = map[string]any{}
	}
	if err := def.Schema.Validate(args); err != nil {
		metrics.ToolCalls.WithLabelValues(name, "invalid_arguments").Inc()
		return nil, err
	}

	identity := auth.FromContext(ctx)
	if def.Capability != "" && !identity.HasCapability(def.Capability) {
		d.logger.Warn("capability denied",
			"tool_name", name,
			"capability", def.Capability,
			"identity", identityName(identity),
			"request_id", correlationID,
		)
		metrics.ToolCalls.WithLabelValues(name, "denied").Inc()
		return nil, fmt.Errorf("%w: tool %q requires capability %q", ErrPermissionDenied, name, def.Capability)
	}

	d.logger.Debug("dispatching tool",
		"tool_name", name,
		"request_id", correlationID,
	)

	result, err := def.Handler(ctx, identityName(identity), args)
	if err != nil {
		d.logger.Warn("tool handler failed",
			"tool_name", name,
			"request_id", correlationID,
			"error", err,
		)
		metrics.ToolCalls.WithLabelValues(name, "error").Inc()
		return nil, &HandlerError{Tool: name, Err: err}
	}

	metrics.ToolCalls.WithLabelValues(name, "ok").Inc()
	return result, nil
}

func identityName(id *auth.Identity) string {
	if id == nil {
		return ""
	}
	return id.Name
}
