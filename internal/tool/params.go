package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParamType is the JSON type of a parameter.
type ParamType string

// Supported parameter types.
const (
	TypeString ParamType = "string"
	TypeArray  ParamType = "array"
)

// Param describes one named argument of a tool.
type Param struct {
	Name        string
	Type        ParamType
	Items       ParamType // element type when Type is TypeArray
	Required    bool
	Enum        []string
	Description string
}

// Params is an ordered parameter descriptor. It renders the tool's JSON
// Schema and performs the presence and type checks on raw arguments.
type Params []Param

type schemaProperty struct {
	Type        ParamType       `json:"type"`
	Description string          `json:"description,omitempty"`
	Enum        []string        `json:"enum,omitempty"`
	Items       *schemaProperty `json:"items,omitempty"`
}

type schemaObject struct {
	Type       string                    `json:"type"`
	Properties map[string]schemaProperty `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// Schema renders p as a JSON Schema object.
func (p Params) Schema() json.RawMessage {
	obj := schemaObject{
		Type:       "object",
		Properties: make(map[string]schemaProperty, len(p)),
	}
	for _, param := range p {
		prop := schemaProperty{
			Type:        param.Type,
			Description: param.Description,
			Enum:        param.Enum,
		}
		if param.Type == TypeArray && param.Items != "" {
			prop.Items = &schemaProperty{Type: param.Items}
		}
		obj.Properties[param.Name] = prop
		if param.Required {
			obj.Required = append(obj.Required, param.Name)
		}
	}

	data, err := json.Marshal(obj)
	if err != nil {
		// Only strings and nested structs are marshaled.
		panic(fmt.Sprintf("tool: marshal schema: %v", err))
	}
	return data
}

// Decode checks args against p and unmarshals the declared fields into v.
// It returns an error wrapping ErrInvalidArguments when args is not a JSON
// object, a required parameter is missing or null, or a present parameter
// has the wrong JSON type. Undeclared fields are ignored. Enum membership
// and blank values are left to the tool.
func (p Params) Decode(args json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 {
		trimmed = []byte("{}")
	}
	if trimmed[0] != '{' {
		return fmt.Errorf("%w: arguments must be a JSON object", ErrInvalidArguments)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	declared := make(map[string]json.RawMessage, len(p))
	for _, param := range p {
		raw, ok := fields[param.Name]
		if !ok || isNull(raw) {
			if param.Required {
				return fmt.Errorf("%w: missing required parameter '%s'", ErrInvalidArguments, param.Name)
			}
			continue
		}
		if err := param.check(raw); err != nil {
			return err
		}
		declared[param.Name] = raw
	}

	if v == nil {
		return nil
	}

	// Re-encode only the declared keys so that json's case-insensitive
	// field matching cannot pick up an undeclared variant.
	filtered, err := json.Marshal(declared)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if err := json.Unmarshal(filtered, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}

func (param Param) check(raw json.RawMessage) error {
	if !hasType(raw, param.Type) {
		return fmt.Errorf("%w: parameter '%s' must be a %s", ErrInvalidArguments, param.Name, param.Type)
	}
	if param.Type != TypeArray || param.Items == "" {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("%w: parameter '%s': %v", ErrInvalidArguments, param.Name, err)
	}
	for i, item := range items {
		if !hasType(item, param.Items) {
			return fmt.Errorf("%w: parameter '%s' item %d must be a %s", ErrInvalidArguments, param.Name, i, param.Items)
		}
	}
	return nil
}

func hasType(raw json.RawMessage, typ ParamType) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch typ {
	case TypeString:
		return raw[0] == '"'
	case TypeArray:
		return raw[0] == '['
	default:
		return false
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
