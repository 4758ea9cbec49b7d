package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// Builder is the interface implemented by all schema builders.
type Builder interface {
	// Build serializes the schema to json.RawMessage.
	// Returns an error if the schema is invalid.
	Build() (json.RawMessage, error)

	// MustBuild is like Build but panics on error.
	MustBuild() json.RawMessage

	// schema returns the internal representation for composition.
	schema() *schemaNode
}

// schemaNode is the internal representation of a JSON Schema.
type schemaNode struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Enum        []any  `json:"enum,omitempty"`

	// String constraints
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Format    string `json:"format,omitempty"`

	// Numeric constraints
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// Array constraints
	Items    *schemaNode `json:"items,omitempty"`
	MaxItems *int        `json:"maxItems,omitempty"`

	// Object constraints
	Properties           map[string]*schemaNode `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	AdditionalProperties *bool                  `json:"additionalProperties,omitempty"`
}

// Sentinel errors for schema construction.
var (
	// ErrInvalidRange is returned when min exceeds max.
	ErrInvalidRange = errors.New("schema: minimum exceeds maximum")

	// ErrInvalidPattern is returned when a regex pattern is invalid.
	ErrInvalidPattern = errors.New("schema: invalid regex pattern")

	// ErrNilItems is returned when an array has no items schema.
	ErrNilItems = errors.New("schema: array requires items schema")
)

// BuildError reports an internally inconsistent schema.
type BuildError struct {
	Field   string
	Message string
	Err     error
}

func (e *BuildError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema: field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("schema: %s", e.Message)
}

func (e *BuildError) Unwrap() error { return e.Err }

func (s *schemaNode) check() error {
	switch s.Type {
	case "string":
		if s.MinLength != nil && s.MaxLength != nil && *s.MinLength > *s.MaxLength {
			return &BuildError{Message: "minLength exceeds maxLength", Err: ErrInvalidRange}
		}
		if s.Pattern != "" {
			if _, err := regexp.Compile(s.Pattern); err != nil {
				return &BuildError{Message: fmt.Sprintf("invalid pattern %q: %v", s.Pattern, err), Err: ErrInvalidPattern}
			}
		}
	case "integer", "number":
		if s.Minimum != nil && s.Maximum != nil && *s.Minimum > *s.Maximum {
			return &BuildError{Message: "minimum exceeds maximum", Err: ErrInvalidRange}
		}
	case "array":
		if s.Items == nil {
			return &BuildError{Message: "array requires items schema", Err: ErrNilItems}
		}
		if err := s.Items.check(); err != nil {
			return &BuildError{Message: fmt.Sprintf("invalid items schema: %v", err), Err: err}
		}
	case "object":
		for name, prop := range s.Properties {
			if err := prop.check(); err != nil {
				return &BuildError{Field: name, Message: err.Error(), Err: err}
			}
		}
	}
	return nil
}

func build(node *schemaNode) (json.RawMessage, error) {
	if err := node.check(); err != nil {
		return nil, err
	}
	return json.Marshal(node)
}

func mustBuild(node *schemaNode) json.RawMessage {
	data, err := build(node)
	if err != nil {
		panic(err)
	}
	return data
}

func ptr[T any](v T) *T {
	return &v
}
