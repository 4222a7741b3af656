// Package jsonschema projects descriptors into JSON-Schema-draft-compatible
// documents, resolves and flattens references with cycle awareness, and
// applies provider normalization profiles.
package jsonschema

import (
	gojson "github.com/goccy/go-json"
)

// Schema is the JSON Schema document representation used for export. It is a
// plain object tree; operations in this package never mutate their input.
type Schema struct {
	// Core
	SchemaURI   string `json:"$schema,omitempty"`
	Ref         string `json:"$ref,omitempty"`
	Type        string `json:"type,omitempty"`
	Format      string `json:"format,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`

	// String
	Pattern   string `json:"pattern,omitempty"`
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`

	// Number
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items    *Schema `json:"items,omitempty"`
	MinItems *int    `json:"minItems,omitempty"`
	MaxItems *int    `json:"maxItems,omitempty"`

	// Union
	AnyOf []*Schema `json:"anyOf,omitempty"`

	// Definitions table; the populated member depends on the dialect.
	Defs        map[string]*Schema `json:"$defs,omitempty"`
	Definitions map[string]*Schema `json:"definitions,omitempty"`
}

// Clone deep-copies the document via a JSON round trip. AdditionalProperties
// holding a typed sub-schema survives as *Schema thanks to the custom
// (un)marshaling below.
func (s *Schema) Clone() (*Schema, error) {
	if s == nil {
		return nil, nil
	}
	b, err := gojson.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out Schema
	if err := gojson.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UnmarshalJSON keeps additionalProperties typed: an object decodes into
// *Schema, a bare bool stays bool.
func (s *Schema) UnmarshalJSON(data []byte) error {
	type alias Schema
	var a struct {
		alias
		AdditionalProperties gojson.RawMessage `json:"additionalProperties,omitempty"`
	}
	if err := gojson.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = Schema(a.alias)
	if len(a.AdditionalProperties) > 0 {
		var b bool
		if err := gojson.Unmarshal(a.AdditionalProperties, &b); err == nil {
			s.AdditionalProperties = b
			return nil
		}
		var sub Schema
		if err := gojson.Unmarshal(a.AdditionalProperties, &sub); err != nil {
			return err
		}
		s.AdditionalProperties = &sub
	}
	return nil
}
