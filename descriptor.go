package deskema

import (
	"context"
	"fmt"
	"regexp"
)

// Constraints are applied to a field only after its structural type match
// succeeded, in the fixed order below (lengths, pattern, bounds, choices,
// format). Nil/zero members are skipped.
type Constraints struct {
	MinLength *int
	MaxLength *int
	Pattern   string
	Gt        *float64
	Gte       *float64
	Lt        *float64
	Lte       *float64
	Choices   []any
	Format    string
}

// IsZero reports whether no constraint is set.
func (c Constraints) IsZero() bool {
	return c.MinLength == nil && c.MaxLength == nil && c.Pattern == "" &&
		c.Gt == nil && c.Gte == nil && c.Lt == nil && c.Lte == nil &&
		len(c.Choices) == 0 && c.Format == ""
}

// FieldSpec declares a single named field. Invariant: a default implies the
// field is optional; Descriptor.Check reports the conflict otherwise.
type FieldSpec struct {
	Name        string
	Type        TypeExpr
	Required    bool
	Default     any
	HasDefault  bool
	Constraints Constraints
	Description string
}

// ValidatorRef is a handle to an external cross-field validator. Apply
// consumes the record produced by the previous pipeline step and returns the
// (possibly transformed) record or an error.
type ValidatorRef struct {
	Name  string
	Apply func(ctx context.Context, record map[string]any) (map[string]any, error)
}

// ComputedFieldSpec derives an additional field from the validated record.
// The result is re-validated against Type before insertion; computed fields
// are authoritative over same-named input.
type ComputedFieldSpec struct {
	Name    string
	Type    TypeExpr
	Compute func(ctx context.Context, record map[string]any) (any, error)
}

// Descriptor is the immutable description of a record: fields in declaration
// order, model validators, computed fields, and config. Build once, share
// freely across concurrent validations.
type Descriptor struct {
	ID              string
	Fields          []FieldSpec
	ModelValidators []ValidatorRef
	ComputedFields  []ComputedFieldSpec
	Config          Config
}

// knownFormats lists the Format constraint values the engine validates.
// Unknown formats are flagged by Check and skipped at validation time.
var knownFormats = map[string]struct{}{
	"email":     {},
	"uuid":      {},
	"date-time": {},
	"date":      {},
	"uri":       {},
}

// Check is the descriptor-build-time invariant pass. It walks the immutable
// configuration and reports every conflict found, not just the first. A
// descriptor that passes Check never produces schema_config issues from its
// own shape during validation (registry lookups can still fail).
func (d *Descriptor) Check() error {
	var iss Issues
	seen := map[string]int{}
	for i, f := range d.Fields {
		p := "/" + f.Name
		if f.Name == "" {
			iss = AppendIssues(iss, Issue{Path: "/", Code: CodeSchemaConfig, Message: fmt.Sprintf("field %d has an empty name", i)})
		}
		if j, dup := seen[f.Name]; dup {
			iss = AppendIssues(iss, Issue{Path: p, Code: CodeSchemaConfig, Message: "duplicate field name", Params: map[string]any{"first": j, "dup": i}})
		} else {
			seen[f.Name] = i
		}
		if f.HasDefault && f.Required {
			iss = AppendIssues(iss, Issue{Path: p, Code: CodeSchemaConfig, Message: "field declares a default but is required"})
		}
		if f.Type == nil {
			iss = AppendIssues(iss, Issue{Path: p, Code: CodeSchemaConfig, Message: "field has no type expression"})
		} else {
			iss = AppendIssues(iss, checkTypeExpr(p, f.Type)...)
		}
		iss = AppendIssues(iss, checkConstraintShape(p, f.Constraints)...)
	}
	seenComputed := map[string]struct{}{}
	for _, cf := range d.ComputedFields {
		p := "/" + cf.Name
		if cf.Name == "" {
			iss = AppendIssues(iss, Issue{Path: "/", Code: CodeSchemaConfig, Message: "computed field has an empty name"})
		}
		if _, dup := seenComputed[cf.Name]; dup {
			iss = AppendIssues(iss, Issue{Path: p, Code: CodeSchemaConfig, Message: "duplicate computed field name"})
		} else {
			seenComputed[cf.Name] = struct{}{}
		}
		if cf.Compute == nil {
			iss = AppendIssues(iss, Issue{Path: p, Code: CodeSchemaConfig, Message: "computed field has no compute function"})
		}
		if cf.Type == nil {
			iss = AppendIssues(iss, Issue{Path: p, Code: CodeSchemaConfig, Message: "computed field has no declared type"})
		} else {
			iss = AppendIssues(iss, checkTypeExpr(p, cf.Type)...)
		}
	}
	for i, mv := range d.ModelValidators {
		if mv.Apply == nil {
			iss = AppendIssues(iss, Issue{Path: "/", Code: CodeSchemaConfig, Message: fmt.Sprintf("model validator %d (%q) has no apply function", i, mv.Name)})
		}
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

func checkTypeExpr(path string, t TypeExpr) Issues {
	var iss Issues
	switch tt := t.(type) {
	case Primitive:
		// nothing to check
	case Array:
		if tt.Elem == nil {
			iss = AppendIssues(iss, Issue{Path: path, Code: CodeSchemaConfig, Message: "array has no element type"})
		} else {
			iss = AppendIssues(iss, checkTypeExpr(path, tt.Elem)...)
		}
	case MapOf:
		if tt.Key == nil || tt.Value == nil {
			iss = AppendIssues(iss, Issue{Path: path, Code: CodeSchemaConfig, Message: "map has no key or value type"})
			break
		}
		iss = AppendIssues(iss, checkTypeExpr(path, tt.Key)...)
		iss = AppendIssues(iss, checkTypeExpr(path, tt.Value)...)
	case Union:
		if len(tt.Variants) == 0 {
			iss = AppendIssues(iss, Issue{Path: path, Code: CodeSchemaConfig, Message: "union has no variants"})
		}
		for _, v := range tt.Variants {
			iss = AppendIssues(iss, checkTypeExpr(path, v)...)
		}
	case Ref:
		if tt.SchemaID == "" {
			iss = AppendIssues(iss, Issue{Path: path, Code: CodeSchemaConfig, Message: "ref has an empty schema id"})
		}
	case Custom:
		if tt.Check == nil {
			iss = AppendIssues(iss, Issue{Path: path, Code: CodeSchemaConfig, Message: "custom type has no check function", Rule: tt.Name})
		}
		if tt.Base != nil {
			iss = AppendIssues(iss, checkTypeExpr(path, tt.Base)...)
		}
	}
	return iss
}

func checkConstraintShape(path string, c Constraints) Issues {
	var iss Issues
	if c.MinLength != nil && c.MaxLength != nil && *c.MinLength > *c.MaxLength {
		iss = AppendIssues(iss, Issue{Path: path, Code: CodeSchemaConfig, Message: "minLength exceeds maxLength", Params: map[string]any{"min": *c.MinLength, "max": *c.MaxLength}})
	}
	if lo, hi, bad := boundsConflict(c); bad {
		iss = AppendIssues(iss, Issue{Path: path, Code: CodeSchemaConfig, Message: "lower bound exceeds upper bound", Params: map[string]any{"lower": lo, "upper": hi}})
	}
	if c.Pattern != "" {
		if _, err := regexp.Compile(c.Pattern); err != nil {
			iss = AppendIssues(iss, Issue{Path: path, Code: CodeSchemaConfig, Message: "invalid pattern", Cause: err})
		}
	}
	if c.Choices != nil && len(c.Choices) == 0 {
		iss = AppendIssues(iss, Issue{Path: path, Code: CodeSchemaConfig, Message: "choices set is empty"})
	}
	if c.Format != "" {
		if _, ok := knownFormats[c.Format]; !ok {
			iss = AppendIssues(iss, Issue{Path: path, Code: CodeSchemaConfig, Message: "unknown format", Params: map[string]any{"format": c.Format}})
		}
	}
	return iss
}

func boundsConflict(c Constraints) (lo, hi float64, bad bool) {
	lower, hasLower := maxPtr(c.Gt, c.Gte)
	upper, hasUpper := minPtr(c.Lt, c.Lte)
	if hasLower && hasUpper && lower > upper {
		return lower, upper, true
	}
	return 0, 0, false
}

func maxPtr(a, b *float64) (float64, bool) {
	switch {
	case a != nil && b != nil:
		if *a > *b {
			return *a, true
		}
		return *b, true
	case a != nil:
		return *a, true
	case b != nil:
		return *b, true
	}
	return 0, false
}

func minPtr(a, b *float64) (float64, bool) {
	switch {
	case a != nil && b != nil:
		if *a < *b {
			return *a, true
		}
		return *b, true
	case a != nil:
		return *a, true
	case b != nil:
		return *b, true
	}
	return 0, false
}
