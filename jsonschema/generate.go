package jsonschema

import (
	"sort"

	deskema "github.com/reoring/deskema"
)

// Dialect selects the JSON Schema draft conventions used for generated
// documents ($defs vs definitions, $schema URI).
type Dialect int

const (
	Draft2020 Dialect = iota
	Draft7
)

const (
	draft2020URI = "https://json-schema.org/draft/2020-12/schema"
	draft7URI    = "http://json-schema.org/draft-07/schema#"
)

// Options configures document generation.
type Options struct {
	Dialect Dialect
	// Registry resolves Ref expressions into definitions. Required when the
	// descriptor (transitively) uses Ref.
	Registry deskema.Registry
	// CustomSchemas is the provider-supplied mapping hook for Custom types,
	// keyed by custom type name. A Custom without a hook falls back to its
	// Base expression; a Custom with neither fails generation.
	CustomSchemas map[string]*Schema
	// IncludeSchemaURI emits the $schema keyword on the root document.
	IncludeSchemaURI bool
}

func (o Options) refPrefix() string {
	if o.Dialect == Draft7 {
		return "#/definitions/"
	}
	return "#/$defs/"
}

// Generate emits a JSON Schema document for the descriptor. It operates on
// descriptors only, independent of data. Referenced descriptors are pulled
// into the definitions table keyed by schema id; the traversal is cycle-safe
// so self-referential schemas generate without looping. Computed fields are
// not emitted: they are derived by the engine, never requested from the
// producer.
func Generate(d *deskema.Descriptor, opt Options) (*Schema, error) {
	g := &generator{opt: opt, defs: map[string]*Schema{}, building: map[string]bool{}}
	root, err := g.object(d)
	if err != nil {
		return nil, err
	}
	if opt.IncludeSchemaURI {
		if opt.Dialect == Draft7 {
			root.SchemaURI = draft7URI
		} else {
			root.SchemaURI = draft2020URI
		}
	}
	if len(g.defs) > 0 {
		if opt.Dialect == Draft7 {
			root.Definitions = g.defs
		} else {
			root.Defs = g.defs
		}
	}
	return root, nil
}

type generator struct {
	opt      Options
	defs     map[string]*Schema
	building map[string]bool
}

func (g *generator) object(d *deskema.Descriptor) (*Schema, error) {
	out := &Schema{
		Type:        "object",
		Title:       d.Config.Title,
		Description: d.Config.Description,
		Properties:  make(map[string]*Schema, len(d.Fields)),
	}
	for _, f := range d.Fields {
		ps, err := g.field(f)
		if err != nil {
			return nil, err
		}
		out.Properties[f.Name] = ps
		if f.Required {
			out.Required = append(out.Required, f.Name)
		}
	}
	switch d.Config.ExtraPolicy {
	case deskema.ExtraForbid:
		out.AdditionalProperties = false
	default:
		// Ignore accepts then discards unknown keys and Allow preserves
		// them, so both map to accepted (true).
		out.AdditionalProperties = true
	}
	return out, nil
}

func (g *generator) field(f deskema.FieldSpec) (*Schema, error) {
	s, err := g.typeSchema(f.Type)
	if err != nil {
		return nil, deskema.Rebase("/"+f.Name, toIssues(err))
	}
	if f.Description != "" {
		s.Description = f.Description
	}
	if f.HasDefault {
		s.Default = f.Default
	}
	mergeConstraints(s, f.Constraints, f.Type)
	return s, nil
}

func (g *generator) typeSchema(t deskema.TypeExpr) (*Schema, error) {
	switch tt := t.(type) {
	case deskema.Primitive:
		return &Schema{Type: tt.Kind.String()}, nil
	case deskema.Array:
		items, err := g.typeSchema(tt.Elem)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: items}, nil
	case deskema.MapOf:
		if !stringLikeKey(tt.Key) {
			return nil, deskema.Issues{{Path: "/", Code: deskema.CodeSchemaConfig, Message: "map key type must be string-like for schema generation"}}
		}
		vs, err := g.typeSchema(tt.Value)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "object", AdditionalProperties: vs}, nil
	case deskema.Union:
		out := &Schema{AnyOf: make([]*Schema, 0, len(tt.Variants))}
		for _, v := range tt.Variants {
			vs, err := g.typeSchema(v)
			if err != nil {
				return nil, err
			}
			out.AnyOf = append(out.AnyOf, vs)
		}
		return out, nil
	case deskema.Ref:
		if err := g.ensureDef(tt.SchemaID); err != nil {
			return nil, err
		}
		return &Schema{Ref: g.opt.refPrefix() + tt.SchemaID}, nil
	case deskema.Custom:
		if hook, ok := g.opt.CustomSchemas[tt.Name]; ok {
			return hook.Clone()
		}
		if tt.Base != nil {
			return g.typeSchema(tt.Base)
		}
		return nil, deskema.Issues{{Path: "/", Code: deskema.CodeSchemaConfig, Message: "custom type has no schema mapping", Rule: tt.Name}}
	default:
		return nil, deskema.Issues{{Path: "/", Code: deskema.CodeSchemaConfig, Message: "nil or unknown type expression"}}
	}
}

// ensureDef generates the definition for a referenced schema id once.
// building guards re-entry so reference cycles terminate.
func (g *generator) ensureDef(id string) error {
	if _, done := g.defs[id]; done || g.building[id] {
		return nil
	}
	if g.opt.Registry == nil {
		return deskema.Issues{{Path: "/", Code: deskema.CodeSchemaConfig, Message: "no registry supplied for schema reference", Params: map[string]any{"schemaId": id}}}
	}
	child, ok := g.opt.Registry.Lookup(id)
	if !ok {
		return deskema.Issues{{Path: "/", Code: deskema.CodeSchemaConfig, Message: "unresolved schema reference", Params: map[string]any{"schemaId": id}}}
	}
	g.building[id] = true
	defer delete(g.building, id)
	ds, err := g.object(child)
	if err != nil {
		return err
	}
	g.defs[id] = ds
	return nil
}

func stringLikeKey(t deskema.TypeExpr) bool {
	switch tt := t.(type) {
	case deskema.Primitive:
		return tt.Kind == deskema.KindString
	case deskema.Custom:
		return tt.Base != nil && stringLikeKey(tt.Base)
	default:
		return false
	}
}

// mergeConstraints maps the constraint set onto schema keywords. Length
// constraints become minItems/maxItems for array-typed fields and
// minLength/maxLength otherwise.
func mergeConstraints(s *Schema, c deskema.Constraints, t deskema.TypeExpr) {
	_, isArray := t.(deskema.Array)
	if c.MinLength != nil {
		if isArray {
			s.MinItems = intPtr(*c.MinLength)
		} else {
			s.MinLength = intPtr(*c.MinLength)
		}
	}
	if c.MaxLength != nil {
		if isArray {
			s.MaxItems = intPtr(*c.MaxLength)
		} else {
			s.MaxLength = intPtr(*c.MaxLength)
		}
	}
	if c.Pattern != "" {
		s.Pattern = c.Pattern
	}
	if c.Gte != nil {
		s.Minimum = floatPtr(*c.Gte)
	}
	if c.Gt != nil {
		s.ExclusiveMinimum = floatPtr(*c.Gt)
	}
	if c.Lte != nil {
		s.Maximum = floatPtr(*c.Lte)
	}
	if c.Lt != nil {
		s.ExclusiveMaximum = floatPtr(*c.Lt)
	}
	if len(c.Choices) > 0 {
		s.Enum = append([]any(nil), c.Choices...)
	}
	if c.Format != "" {
		s.Format = c.Format
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func toIssues(err error) deskema.Issues {
	if iss, ok := deskema.AsIssues(err); ok {
		return iss
	}
	return deskema.Issues{{Path: "/", Code: deskema.CodeSchemaConfig, Message: err.Error(), Cause: err}}
}

// requiredSorted returns a sorted copy of the required list; used by
// profiles that rewrite required deterministically.
func requiredSorted(props map[string]*Schema) []string {
	out := make([]string, 0, len(props))
	for k := range props {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
