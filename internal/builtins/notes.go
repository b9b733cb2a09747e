// ABOUTME: Note tools: per-identity key-value storage backed by the store
// ABOUTME: Writes require the "notes" capability

package builtins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2389/hearth-bridge/internal/store"
	"github.com/2389/hearth-bridge/internal/tools"
)

// RegisterNotes registers the note tools on the registry. Reads carry no
// capability; mutations require "notes".
func RegisterNotes(registry *tools.Registry, s store.NoteStore) {
	n := &noteHandlers{store: s}

	keySchema := tools.Schema{Fields: map[string]tools.Field{
		"key": {Type: tools.TypeString, Description: "note key", Required: true},
	}}

	registry.MustRegister(&tools.Definition{
		Name:        "note_set",
		Description: "Store a note under a key",
		Category:    "notes",
		Intent:      tools.IntentWrite,
		Capability:  "notes",
		Schema: tools.Schema{Fields: map[string]tools.Field{
			"key":   {Type: tools.TypeString, Description: "note key", Required: true},
			"value": {Type: tools.TypeString, Description: "note contents", Required: true},
		}},
		Handler: n.set,
	})

	registry.MustRegister(&tools.Definition{
		Name:        "note_get",
		Description: "Retrieve a note by key",
		Category:    "notes",
		Intent:      tools.IntentRead,
		Schema:      keySchema,
		Handler:     n.get,
	})

	registry.MustRegister(&tools.Definition{
		Name:        "note_list",
		Description: "List all note keys",
		Category:    "notes",
		Intent:      tools.IntentRead,
		Schema:      tools.Schema{},
		Handler:     n.list,
	})

	registry.MustRegister(&tools.Definition{
		Name:        "note_delete",
		Description: "Delete a note",
		Category:    "notes",
		Intent:      tools.IntentWrite,
		Capability:  "notes",
		Schema:      keySchema,
		Handler:     n.delete,
	})
}

type noteHandlers struct {
	store store.NoteStore
}

func (n *noteHandlers) set(ctx context.Context, identity string, args map[string]any) (json.RawMessage, error) {
	key, _ := args["key"].(string)
	value, _ := args["value"].(string)

	if err := n.store.SetNote(ctx, &store.Note{Identity: identity, Key: key, Value: value}); err != nil {
		return nil, err
	}
	return json.Marshal(map[string]string{"key": key, "status": "saved"})
}

func (n *noteHandlers) get(ctx context.Context, identity string, args map[string]any) (json.RawMessage, error) {
	key, _ := args["key"].(string)

	note, err := n.store.GetNote(ctx, identity, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("note %q not found", key)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]string{"key": note.Key, "value": note.Value})
}

func (n *noteHandlers) list(ctx context.Context, identity string, _ map[string]any) (json.RawMessage, error) {
	notes, err := n.store.ListNotes(ctx, identity)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(notes))
	for _, note := range notes {
		keys = append(keys, note.Key)
	}
	return json.Marshal(map[string]any{"keys": keys})
}

func (n *noteHandlers) delete(ctx context.Context, identity string, args map[string]any) (json.RawMessage, error) {
	key, _ := args["key"].(string)

	err := n.store.DeleteNote(ctx, identity, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("note %q not found", key)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]string{"key": key, "status": "deleted"})
}
