// ABOUTME: JSON-RPC method router: initialize, tools/list, tools/call, listings
// ABOUTME: Maps dispatcher failures onto the server-defined error codes

package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/2389/hearth-bridge/internal/metrics"
	"github.com/2389/hearth-bridge/internal/tools"
)

// ProtocolVersion is advertised in initialize responses.
const ProtocolVersion = "2024-11-05"

// MethodSessionKill is the session-kill notification. The router never
// executes it; the server layer writes it into the target session's mailbox
// so the stream loop ends at its next tick.
const MethodSessionKill = "notifications/session/terminate"

// InitializeResult is the result for initialize.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
}

// ServerInfo identifies the server in initialize responses.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ListToolsResult is the result for tools/list.
type ListToolsResult struct {
	Tools []tools.Info `json:"tools"`
}

// CallToolResult is the result for tools/call.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Content is one item of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// callToolParams accepts both parameter shapes clients use for tools/call:
// {name, arguments} and {tool, args}.
type callToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Tool      string         `json:"tool"`
	Args      map[string]any `json:"args"`
}

// Router routes parsed JSON-RPC requests to method handlers. It is stateless;
// every response is returned to the caller, which decides whether to write it
// inline or enqueue it for a streaming session.
type Router struct {
	registry      *tools.Registry
	dispatcher    *tools.Dispatcher
	serverName    string
	serverVersion string
	logger        *slog.Logger
}

// NewRouter creates a router over the given registry and dispatcher.
func NewRouter(registry *tools.Registry, dispatcher *tools.Dispatcher, serverName, serverVersion string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry:      registry,
		dispatcher:    dispatcher,
		serverName:    serverName,
		serverVersion: serverVersion,
		logger:        logger.With("component", "rpc"),
	}
}

// Route handles one request and returns the response to deliver, or nil for
// notifications, which never receive a reply.
func (rt *Router) Route(ctx context.Context, req *Request) *Response {
	metrics.RPCRequests.WithLabelValues(req.Method).Inc()

	switch req.Method {
	case "initialize":
		return rt.handleInitialize(req)
	case "tools/list":
		return rt.handleToolsList(ctx, req)
	case "tools/call":
		return rt.handleToolsCall(ctx, req)
	case "resources/list":
		return NewResult(req.ID, map[string]any{"resources": []any{}})
	case "prompts/list":
		return NewResult(req.ID, map[string]any{"prompts": []any{}})
	}

	if strings.HasPrefix(req.Method, "notifications/") {
		// Acknowledged without a body. notifications/initialized lands here.
		return nil
	}

	if req.IsNotification() {
		rt.logger.Debug("dropping unknown notification", "method", req.Method)
		return nil
	}
	return NewError(req.ID, CodeMethodNotFound, "method not found", nil)
}

func (rt *Router) handleInitialize(req *Request) *Response {
	return NewResult(req.ID, InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: map[string]any{
			"tools": map[string]any{},
		},
		ServerInfo: ServerInfo{Name: rt.serverName, Version: rt.serverVersion},
	})
}

func (rt *Router) handleToolsList(ctx context.Context, req *Request) *Response {
	infos, err := rt.registry.ListEnabled(ctx)
	if err != nil {
		rt.logger.Error("listing tools failed", "error", err)
		return NewError(req.ID, CodeInternalError, "failed to list tools", nil)
	}
	if infos == nil {
		infos = []tools.Info{}
	}
	return NewResult(req.ID, ListToolsResult{Tools: infos})
}

func (rt *Router) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params callToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return NewError(req.ID, CodeInvalidParams, "invalid params", nil)
		}
	}

	name := params.Name
	args := params.Arguments
	if name == "" {
		name = params.Tool
		args = params.Args
	}
	if name == "" {
		return NewError(req.ID, CodeInvalidParams, "tool name is required", nil)
	}

	result, err := rt.dispatcher.Dispatch(ctx, name, args, req.IDString())
	if err != nil {
		return rt.dispatchError(req, name, err)
	}

	return NewResult(req.ID, CallToolResult{
		Content: []Content{{Type: "text", Text: string(result)}},
	})
}

// dispatchError maps dispatcher failures onto the error taxonomy. Handler
// failures carry the original message as diagnostic data but never a stack
// trace.
func (rt *Router) dispatchError(req *Request, name string, err error) *Response {
	var verr *tools.ValidationError
	var herr *tools.HandlerError

	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		return NewError(req.ID, CodeUnknownTool, "unknown tool: "+name, nil)
	case errors.As(err, &verr):
		return NewError(req.ID, CodeInvalidArguments, verr.Error(), nil)
	case errors.Is(err, tools.ErrPermissionDenied):
		return NewError(req.ID, CodePermissionDenied, err.Error(), nil)
	case errors.As(err, &herr):
		return NewError(req.ID, CodeInternalError, "tool execution failed", herr.Err.Error())
	default:
		rt.logger.Error("unexpected dispatch failure", "tool_name", name, "error", err)
		return NewError(req.ID, CodeInternalError, "internal error", nil)
	}
}
