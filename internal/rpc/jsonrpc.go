// ABOUTME: JSON-RPC 2.0 envelope types and the error code taxonomy
// ABOUTME: Parsing produces either a request or a ready-to-send error response

package rpc

import (
	"encoding/json"
	"strings"
)

// Version is the only JSON-RPC protocol version accepted.
const Version = "2.0"

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no correlation id.
// Per JSON-RPC semantics a notification never receives a reply.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

// IDString renders the correlation id for logging. Quotes around string ids
// are stripped; notifications render as empty.
func (r *Request) IDString() string {
	if r.IsNotification() {
		return ""
	}
	return strings.Trim(string(r.ID), `"`)
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Server-defined error codes (the -32000..-32099 range JSON-RPC reserves
// for implementations).
const (
	CodeUnknownTool      = -32001
	CodeInvalidArguments = -32002
	CodePermissionDenied = -32003
	CodeRateLimited      = -32029
)

// NewResult builds a successful response for the given correlation id.
func NewResult(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: Version, ID: id, Result: result}
}

// NewError builds an error response for the given correlation id.
func NewError(id json.RawMessage, code int, message string, data any) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Error:   &Error{Code: code, Message: message, Data: data},
	}
}

// ParseRequest decodes one JSON-RPC envelope. On failure it returns a nil
// request and the error response to send: a parse error for malformed JSON,
// an invalid-request error for a wrong version or missing method.
func ParseRequest(body []byte) (*Request, *Response) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, NewError(nil, CodeParseError, "invalid JSON", nil)
	}
	if req.JSONRPC != Version {
		return nil, NewError(req.ID, CodeInvalidRequest, "invalid JSON-RPC version", nil)
	}
	if req.Method == "" {
		return nil, NewError(req.ID, CodeInvalidRequest, "method is required", nil)
	}
	return &req, nil
}
