package deskema

import "context"

// ExtraPolicy controls how keys absent from the descriptor are handled.
type ExtraPolicy int

const (
	ExtraForbid ExtraPolicy = iota // Reject unknown keys with an error.
	ExtraIgnore                    // Drop unknown keys.
	ExtraAllow                     // Preserve unknown keys in the output record.
)

// CoercionMode dictates how far the type system may convert values toward
// the declared type. The conversion table is fixed and explicit; see the
// coercer for details.
type CoercionMode int

const (
	CoerceNone       CoercionMode = iota // Exact structural match only.
	CoerceSafe                           // Lossless conversions (numeric string, "true"/"false").
	CoerceAggressive                     // Safe plus documented float->integer truncation.
)

// Config is the per-descriptor configuration block. It is read-only after
// descriptor construction.
type Config struct {
	ExtraPolicy ExtraPolicy
	Coercion    CoercionMode
	Title       string
	Description string
}

// ValidateOpt bundles per-call validation options.
type ValidateOpt struct {
	// FailFast stops at the first issue instead of aggregating siblings.
	FailFast bool
	// Registry resolves Ref type expressions. A Ref with no registry entry is
	// a schema_config issue, never a data error.
	Registry Registry
	// Coercion overrides the descriptor's coercion mode when non-nil.
	Coercion *CoercionMode
}

// CoerceAs is a convenience for ValidateOpt.Coercion.
func CoerceAs(m CoercionMode) *CoercionMode { return &m }

// ---- Parse-time context options ----

type contextKey int

const _ctxKeyFailFast contextKey = iota

// WithFailFast returns a child context that marks fail-fast validation
// behavior. Set by Validate based on ValidateOpt and consumed internally.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyFailFast, enabled)
}

// IsFailFast reports whether the current validation should stop on the first
// issue.
func IsFailFast(ctx context.Context) bool {
	v := ctx.Value(_ctxKeyFailFast)
	b, _ := v.(bool)
	return b
}
