// Package build is a fluent authoring front end producing immutable
// deskema Descriptors. It is a convenience only: the engine accepts any
// descriptor, however constructed.
package build

import (
	"context"

	deskema "github.com/reoring/deskema"
)

// ObjectBuilder accumulates descriptor parts; Build freezes them into a
// Descriptor and runs the invariant pass.
type ObjectBuilder struct {
	d deskema.Descriptor
}

// FieldStep scopes chained calls to the most recently added field.
type FieldStep struct {
	b *ObjectBuilder
}

// Object creates a new builder with safe defaults (ExtraForbid, CoerceNone).
func Object(id string) *ObjectBuilder {
	return &ObjectBuilder{d: deskema.Descriptor{ID: id}}
}

// Field appends a field in declaration order.
func (b *ObjectBuilder) Field(name string, t deskema.TypeExpr) *FieldStep {
	b.d.Fields = append(b.d.Fields, deskema.FieldSpec{Name: name, Type: t})
	return &FieldStep{b: b}
}

func (f *FieldStep) last() *deskema.FieldSpec {
	return &f.b.d.Fields[len(f.b.d.Fields)-1]
}

// Required marks the current field as required.
func (f *FieldStep) Required() *FieldStep {
	f.last().Required = true
	return f
}

// Default sets a default for the current field. A default implies the field
// is optional; Build reports the conflict otherwise.
func (f *FieldStep) Default(v any) *FieldStep {
	fs := f.last()
	fs.Default = v
	fs.HasDefault = true
	return f
}

// Description sets the field description used in generated documents.
func (f *FieldStep) Description(s string) *FieldStep {
	f.last().Description = s
	return f
}

func (f *FieldStep) MinLength(n int) *FieldStep {
	f.last().Constraints.MinLength = &n
	return f
}

func (f *FieldStep) MaxLength(n int) *FieldStep {
	f.last().Constraints.MaxLength = &n
	return f
}

func (f *FieldStep) Pattern(p string) *FieldStep {
	f.last().Constraints.Pattern = p
	return f
}

func (f *FieldStep) Gt(v float64) *FieldStep {
	f.last().Constraints.Gt = &v
	return f
}

func (f *FieldStep) Gte(v float64) *FieldStep {
	f.last().Constraints.Gte = &v
	return f
}

func (f *FieldStep) Lt(v float64) *FieldStep {
	f.last().Constraints.Lt = &v
	return f
}

func (f *FieldStep) Lte(v float64) *FieldStep {
	f.last().Constraints.Lte = &v
	return f
}

func (f *FieldStep) Choices(vs ...any) *FieldStep {
	f.last().Constraints.Choices = vs
	return f
}

func (f *FieldStep) Format(name string) *FieldStep {
	f.last().Constraints.Format = name
	return f
}

// Field starts the next field, ending the current step.
func (f *FieldStep) Field(name string, t deskema.TypeExpr) *FieldStep {
	return f.b.Field(name, t)
}

func (f *FieldStep) Validate(name string, fn func(context.Context, map[string]any) (map[string]any, error)) *ObjectBuilder {
	return f.b.Validate(name, fn)
}

func (f *FieldStep) Computed(name string, t deskema.TypeExpr, fn func(context.Context, map[string]any) (any, error)) *ObjectBuilder {
	return f.b.Computed(name, t, fn)
}

func (f *FieldStep) ExtraForbid() *ObjectBuilder                  { return f.b.ExtraForbid() }
func (f *FieldStep) ExtraIgnore() *ObjectBuilder                  { return f.b.ExtraIgnore() }
func (f *FieldStep) ExtraAllow() *ObjectBuilder                   { return f.b.ExtraAllow() }
func (f *FieldStep) Coerce(m deskema.CoercionMode) *ObjectBuilder { return f.b.Coerce(m) }
func (f *FieldStep) Build() (*deskema.Descriptor, error)          { return f.b.Build() }
func (f *FieldStep) MustBuild() *deskema.Descriptor               { return f.b.MustBuild() }

// Validate appends a model validator; validators run sequentially after all
// fields individually validate.
func (b *ObjectBuilder) Validate(name string, fn func(context.Context, map[string]any) (map[string]any, error)) *ObjectBuilder {
	b.d.ModelValidators = append(b.d.ModelValidators, deskema.ValidatorRef{Name: name, Apply: fn})
	return b
}

// Computed appends a computed field derived from the validated record.
func (b *ObjectBuilder) Computed(name string, t deskema.TypeExpr, fn func(context.Context, map[string]any) (any, error)) *ObjectBuilder {
	b.d.ComputedFields = append(b.d.ComputedFields, deskema.ComputedFieldSpec{Name: name, Type: t, Compute: fn})
	return b
}

// ExtraForbid rejects unknown keys (the default).
func (b *ObjectBuilder) ExtraForbid() *ObjectBuilder {
	b.d.Config.ExtraPolicy = deskema.ExtraForbid
	return b
}

// ExtraIgnore drops unknown keys.
func (b *ObjectBuilder) ExtraIgnore() *ObjectBuilder {
	b.d.Config.ExtraPolicy = deskema.ExtraIgnore
	return b
}

// ExtraAllow preserves unknown keys in the output record.
func (b *ObjectBuilder) ExtraAllow() *ObjectBuilder {
	b.d.Config.ExtraPolicy = deskema.ExtraAllow
	return b
}

// Coerce sets the descriptor's coercion mode.
func (b *ObjectBuilder) Coerce(m deskema.CoercionMode) *ObjectBuilder {
	b.d.Config.Coercion = m
	return b
}

// Title sets the document title.
func (b *ObjectBuilder) Title(s string) *ObjectBuilder {
	b.d.Config.Title = s
	return b
}

// Description sets the document description.
func (b *ObjectBuilder) Description(s string) *ObjectBuilder {
	b.d.Config.Description = s
	return b
}

// Build freezes the descriptor and runs the invariant pass, reporting every
// conflict found.
func (b *ObjectBuilder) Build() (*deskema.Descriptor, error) {
	d := b.d
	// Detach from the builder's backing arrays so further builder use cannot
	// alias the frozen descriptor.
	d.Fields = append([]deskema.FieldSpec(nil), b.d.Fields...)
	d.ModelValidators = append([]deskema.ValidatorRef(nil), b.d.ModelValidators...)
	d.ComputedFields = append([]deskema.ComputedFieldSpec(nil), b.d.ComputedFields...)
	if err := d.Check(); err != nil {
		return nil, err
	}
	return &d, nil
}

// MustBuild is like Build but panics on error.
func (b *ObjectBuilder) MustBuild() *deskema.Descriptor {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}
