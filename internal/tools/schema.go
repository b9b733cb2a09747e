// ABOUTME: Typed parameter schemas for tool definitions
// ABOUTME: Generic validation of argument bags against declared field types

package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// FieldType enumerates the primitive types a tool parameter may declare.
type FieldType string

// Supported parameter types.
const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeBoolean FieldType = "boolean"
	TypeObject  FieldType = "object"
	TypeArray   FieldType = "array"
)

// Field describes one parameter of a tool schema.
type Field struct {
	Type        FieldType
	Description string
	Required    bool
}

// Schema is a tool's parameter contract: field name to declaration.
// Validation is structural only; defaulting of missing optional fields is a
// handler concern.
type Schema struct {
	Fields map[string]Field
}

// ValidationError reports a schema violation, naming the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

// Validate checks an argument bag against the schema. Every required field
// must be present and every present field must match its declared type.
// Unknown fields are tolerated; the handler decides what to do with them.
func (s Schema) Validate(args map[string]any) error {
	// Deterministic order so error messages are stable across runs
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field := s.Fields[name]
		value, present := args[name]
		if !present {
			if field.Required {
				return &ValidationError{Field: name, Reason: "required field is missing"}
			}
			continue
		}
		if err := checkType(name, field.Type, value); err != nil {
			return err
		}
	}
	return nil
}

// checkType validates a single decoded JSON value against a declared type.
func checkType(name string, ft FieldType, value any) error {
	switch ft {
	case TypeString:
		if _, ok := value.(string); !ok {
			return &ValidationError{Field: name, Reason: fmt.Sprintf("expected string, got %s", jsonTypeName(value))}
		}
	case TypeInteger:
		// encoding/json decodes all numbers to float64
		f, ok := value.(float64)
		if !ok {
			return &ValidationError{Field: name, Reason: fmt.Sprintf("expected integer, got %s", jsonTypeName(value))}
		}
		if f != math.Trunc(f) {
			return &ValidationError{Field: name, Reason: "expected integer, got fractional number"}
		}
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return &ValidationError{Field: name, Reason: fmt.Sprintf("expected boolean, got %s", jsonTypeName(value))}
		}
	case TypeObject:
		if _, ok := value.(map[string]any); !ok {
			return &ValidationError{Field: name, Reason: fmt.Sprintf("expected object, got %s", jsonTypeName(value))}
		}
	case TypeArray:
		if _, ok := value.([]any); !ok {
			return &ValidationError{Field: name, Reason: fmt.Sprintf("expected array, got %s", jsonTypeName(value))}
		}
	default:
		return &ValidationError{Field: name, Reason: fmt.Sprintf("unsupported schema type %q", ft)}
	}
	return nil
}

// jsonTypeName names the JSON type of a decoded value for error messages.
func jsonTypeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}

// jsonSchemaProperty is the JSON Schema rendering of one field.
type jsonSchemaProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// jsonSchemaObject is the JSON Schema rendering of a full parameter schema.
type jsonSchemaObject struct {
	Type       string                        `json:"type"`
	Properties map[string]jsonSchemaProperty `json:"properties"`
	Required   []string                      `json:"required,omitempty"`
}

// JSONSchema renders the schema as a JSON Schema object for tool listings.
func (s Schema) JSONSchema() json.RawMessage {
	obj := jsonSchemaObject{
		Type:       "object",
		Properties: make(map[string]jsonSchemaProperty, len(s.Fields)),
	}
	for name, field := range s.Fields {
		obj.Properties[name] = jsonSchemaProperty{
			Type:        string(field.Type),
			Description: field.Description,
		}
		if field.Required {
			obj.Required = append(obj.Required, name)
		}
	}
	sort.Strings(obj.Required)

	data, err := json.Marshal(obj)
	if err != nil {
		// A Schema is built from plain strings; marshaling cannot fail
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return data
}
