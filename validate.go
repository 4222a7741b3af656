package deskema

import (
	"context"
	"sort"

	"github.com/reoring/deskema/i18n"
)

// Validate checks v (a decoded JSON object) against the descriptor and
// returns the validated, coerced, transformed record. The tagged result is
// the usual Go pair: on failure the error is always Issues, ordered by
// declaration order then index so identical input yields identical output.
// When multiple opts are supplied, the last one wins; opts are not merged.
func Validate(ctx context.Context, d *Descriptor, v any, opts ...ValidateOpt) (map[string]any, error) {
	out, _, err := validateWith(ctx, d, v, false, opts)
	return out, err
}

// ValidateWithMeta is Validate plus presence metadata: which fields were
// seen, which were null, and which had a default applied.
func ValidateWithMeta(ctx context.Context, d *Descriptor, v any, opts ...ValidateOpt) (Decoded[map[string]any], error) {
	out, pm, err := validateWith(ctx, d, v, true, opts)
	return Decoded[map[string]any]{Value: out, Presence: pm}, err
}

// MustValidate is the panicking convenience wrapper. The panic value is the
// full Issues list.
func MustValidate(ctx context.Context, d *Descriptor, v any, opts ...ValidateOpt) map[string]any {
	out, err := Validate(ctx, d, v, opts...)
	if err != nil {
		panic(err)
	}
	return out
}

func validateWith(ctx context.Context, d *Descriptor, v any, withMeta bool, opts []ValidateOpt) (map[string]any, PresenceMap, error) {
	var opt ValidateOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if opt.FailFast {
		ctx = WithFailFast(ctx, true)
	}
	e := &engine{reg: opt.Registry, override: opt.Coercion}
	var pm PresenceMap
	if withMeta {
		pm = PresenceMap{"/": PresenceSeen}
	}
	out, iss := e.validateRecord(ctx, d, v, pm, "")
	if len(iss) > 0 {
		return nil, pm, iss
	}
	return out, pm, nil
}

// validateRecord runs the full pipeline for one record: fields in
// declaration order, extra-key policy, model validators, computed fields.
// Issues are rooted at "/" relative to the record; pm (optional) collects
// presence under prefix.
func (e *engine) validateRecord(ctx context.Context, d *Descriptor, v any, pm PresenceMap, prefix string) (map[string]any, Issues) {
	src, ok := v.(map[string]any)
	if !ok {
		return nil, invalidType("expected object")
	}
	mode := e.modeFor(d)

	out := make(map[string]any, len(src))
	var iss Issues
	for _, f := range d.Fields {
		base := "/" + f.Name
		val, exists := src[f.Name]
		if !exists {
			if f.HasDefault {
				// Defaults are inserted verbatim and never type-checked.
				out[f.Name] = f.Default
				if pm != nil {
					pm[prefix+base] |= PresenceDefaultApplied
				}
				continue
			}
			if f.Required {
				iss = AppendIssues(iss, Issue{Path: base, Code: CodeRequired, Message: i18n.T(CodeRequired, nil), Hint: "required property missing"})
				if IsFailFast(ctx) {
					return nil, iss
				}
			}
			continue
		}
		if pm != nil {
			pm[prefix+base] |= PresenceSeen
			if val == nil {
				pm[prefix+base] |= PresenceWasNull
			}
		}
		got, mi := e.matchField(ctx, f, val, mode, pm, prefix+base)
		if len(mi) > 0 {
			iss = AppendIssues(iss, Rebase(base, mi)...)
			if IsFailFast(ctx) {
				return nil, iss
			}
			continue
		}
		out[f.Name] = got
	}

	iss = AppendIssues(iss, e.collectExtra(ctx, d, src, out)...)
	if len(iss) > 0 {
		return nil, iss
	}

	rec, mvIss := applyModelValidators(ctx, d.ModelValidators, out)
	if len(mvIss) > 0 {
		return nil, mvIss
	}
	rec, cfIss := e.applyComputed(ctx, d.ComputedFields, rec)
	if len(cfIss) > 0 {
		return nil, cfIss
	}
	return rec, nil
}

// matchField performs the structural match followed by the ordered
// constraint checks. Constraint failures after a successful type match are
// collected, not short-circuited.
func (e *engine) matchField(ctx context.Context, f FieldSpec, val any, mode CoercionMode, pm PresenceMap, presencePath string) (any, Issues) {
	var got any
	var iss Issues
	if ref, ok := f.Type.(Ref); ok && pm != nil {
		// Nested records: thread presence through instead of the plain path.
		got, iss = e.matchRefWithMeta(ctx, ref, val, pm, presencePath)
	} else {
		got, iss = e.match(ctx, f.Type, val, mode)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	if f.Constraints.IsZero() || !constraintsApply(f.Type) {
		return got, nil
	}
	if ci := checkConstraints(f.Constraints, got); len(ci) > 0 {
		return nil, ci
	}
	return got, nil
}

func (e *engine) matchRefWithMeta(ctx context.Context, t Ref, v any, pm PresenceMap, presencePath string) (any, Issues) {
	if e.reg == nil {
		return nil, Issues{{Path: "/", Code: CodeSchemaConfig, Message: "no registry supplied for schema reference", Params: map[string]any{"schemaId": t.SchemaID}}}
	}
	child, ok := e.reg.Lookup(t.SchemaID)
	if !ok {
		return nil, Issues{{Path: "/", Code: CodeSchemaConfig, Message: "unresolved schema reference", Params: map[string]any{"schemaId": t.SchemaID}}}
	}
	return e.validateRecord(ctx, child, v, pm, presencePath)
}

// constraintsApply reports whether the field's constraints may run.
// Constraints on a Custom type apply only when it re-exposes a base
// representation.
func constraintsApply(t TypeExpr) bool {
	if c, ok := t.(Custom); ok {
		return c.Base != nil
	}
	return true
}

// collectExtra applies the extra-key policy. Unknown keys are visited in
// sorted order for deterministic output; for ExtraAllow they pass through to
// the output record unvalidated.
func (e *engine) collectExtra(ctx context.Context, d *Descriptor, src, out map[string]any) Issues {
	known := make(map[string]struct{}, len(d.Fields))
	for _, f := range d.Fields {
		known[f.Name] = struct{}{}
	}
	uks := make([]string, 0, len(src))
	for k := range src {
		if _, ok := known[k]; !ok {
			uks = append(uks, k)
		}
	}
	sort.Strings(uks)
	var iss Issues
	for _, k := range uks {
		switch d.Config.ExtraPolicy {
		case ExtraForbid:
			iss = AppendIssues(iss, Issue{Path: "/" + k, Code: CodeUnknownKey, Message: i18n.T(CodeUnknownKey, nil)})
			if IsFailFast(ctx) {
				return iss
			}
		case ExtraIgnore:
			// drop
		case ExtraAllow:
			out[k] = src[k]
		}
	}
	return iss
}
