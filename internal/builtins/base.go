// ABOUTME: Base builtin tools: ping, echo, and current time
// ABOUTME: Read-intent tools with no capability requirement

package builtins

import (
	"context"
	"encoding/json"
	"time"

	"github.com/2389/hearth-bridge/internal/tools"
)

// RegisterBase registers the base tool set on the registry.
func RegisterBase(registry *tools.Registry) {
	registry.MustRegister(&tools.Definition{
		Name:        "ping",
		Description: "Check that the bridge is reachable",
		Category:    "base",
		Intent:      tools.IntentRead,
		Schema:      tools.Schema{},
		Handler:     pingHandler,
	})

	registry.MustRegister(&tools.Definition{
		Name:        "echo",
		Description: "Echo a message back",
		Category:    "base",
		Intent:      tools.IntentRead,
		Schema: tools.Schema{Fields: map[string]tools.Field{
			"message": {Type: tools.TypeString, Description: "text to echo", Required: true},
			"repeat":  {Type: tools.TypeInteger, Description: "number of copies, default 1"},
		}},
		Handler: echoHandler,
	})

	registry.MustRegister(&tools.Definition{
		Name:        "current_time",
		Description: "Report the server's current time in RFC3339",
		Category:    "base",
		Intent:      tools.IntentRead,
		Schema:      tools.Schema{},
		Handler:     timeHandler,
	})
}

func pingHandler(_ context.Context, _ string, _ map[string]any) (json.RawMessage, error) {
	return json.Marshal(map[string]string{"reply": "pong"})
}

func echoHandler(_ context.Context, _ string, args map[string]any) (json.RawMessage, error) {
	message, _ := args["message"].(string)
	repeat := 1
	if n, ok := args["repeat"].(float64); ok && n >= 1 {
		repeat = int(n)
	}

	copies := make([]string, repeat)
	for i := range copies {
		copies[i] = message
	}
	return json.Marshal(map[string]any{"echo": copies})
}

func timeHandler(_ context.Context, _ string, _ map[string]any) (json.RawMessage, error) {
	return json.Marshal(map[string]string{"time": time.Now().UTC().Format(time.RFC3339)})
}
