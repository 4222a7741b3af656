package jsonschema

import (
	deskema "github.com/reoring/deskema"
)

// Profile post-processes a generated document for a specific external
// consumer. Profiles are pure document transforms: they clone, never mutate
// their input, and never participate in data validation.
type Profile interface {
	Name() string
	Apply(doc *Schema) (*Schema, error)
}

// StrictOutput is the common normalization shape for structured-output
// consumers: every object is closed, every declared property is listed as
// required, and unsupported keywords are dropped.
type StrictOutput struct {
	ProfileName  string
	DropKeywords []string
}

func (p StrictOutput) Name() string {
	if p.ProfileName == "" {
		return "strict-output"
	}
	return p.ProfileName
}

func (p StrictOutput) Apply(doc *Schema) (*Schema, error) {
	out, err := doc.Clone()
	if err != nil {
		return nil, err
	}
	drop := make(map[string]bool, len(p.DropKeywords))
	for _, k := range p.DropKeywords {
		drop[k] = true
	}
	p.walk(out, drop)
	for _, def := range out.Defs {
		p.walk(def, drop)
	}
	for _, def := range out.Definitions {
		p.walk(def, drop)
	}
	return out, nil
}

func (p StrictOutput) walk(s *Schema, drop map[string]bool) {
	if s == nil {
		return
	}
	if s.Type == "object" && s.Properties != nil {
		s.AdditionalProperties = false
		s.Required = requiredSorted(s.Properties)
	}
	dropKeywords(s, drop)
	_ = walkChildren(s, func(child *Schema) error {
		p.walk(child, drop)
		return nil
	})
}

func dropKeywords(s *Schema, drop map[string]bool) {
	if drop["format"] {
		s.Format = ""
	}
	if drop["pattern"] {
		s.Pattern = ""
	}
	if drop["default"] {
		s.Default = nil
	}
	if drop["enum"] {
		s.Enum = nil
	}
	if drop["minLength"] {
		s.MinLength = nil
	}
	if drop["maxLength"] {
		s.MaxLength = nil
	}
	if drop["minimum"] {
		s.Minimum = nil
	}
	if drop["maximum"] {
		s.Maximum = nil
	}
	if drop["exclusiveMinimum"] {
		s.ExclusiveMinimum = nil
	}
	if drop["exclusiveMaximum"] {
		s.ExclusiveMaximum = nil
	}
	if drop["minItems"] {
		s.MinItems = nil
	}
	if drop["maxItems"] {
		s.MaxItems = nil
	}
}

// OpenAI returns the profile for OpenAI structured outputs: closed objects,
// all properties required, and the keyword subset the API rejects removed.
func OpenAI() Profile {
	return StrictOutput{
		ProfileName: "openai",
		DropKeywords: []string{
			"format", "pattern", "default",
			"minLength", "maxLength",
			"minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum",
			"minItems", "maxItems",
		},
	}
}

// Gemini returns the profile for Gemini response schemas. The target dialect
// has no reference support, so the document is flattened first; a document
// whose cycles survive flattening cannot be expressed and is rejected.
func Gemini() Profile { return gemini{} }

type gemini struct{}

func (gemini) Name() string { return "gemini" }

func (gemini) Apply(doc *Schema) (*Schema, error) {
	out, err := Flatten(doc)
	if err != nil {
		return nil, err
	}
	if len(out.Defs) > 0 || len(out.Definitions) > 0 {
		return nil, deskema.Issues{{Path: "/", Code: deskema.CodeSchemaConfig, Message: "cyclic references cannot be expressed for this provider"}}
	}
	out.SchemaURI = ""
	stripForGemini(out)
	return out, nil
}

func stripForGemini(s *Schema) {
	if s == nil {
		return
	}
	// additionalProperties and defaults are ignored by the consumer; drop
	// them rather than shipping dead keywords.
	s.AdditionalProperties = nil
	s.Default = nil
	_ = walkChildren(s, func(child *Schema) error {
		stripForGemini(child)
		return nil
	})
}
