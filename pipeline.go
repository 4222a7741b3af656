package deskema

import (
	"context"
	"fmt"

	"github.com/reoring/deskema/i18n"
)

// applyModelValidators threads the record through the validators in
// declaration order. Each validator consumes the previous output; the first
// failure halts the stage immediately, so later validators may assume the
// invariants earlier ones establish. A validator's error is normalized to
// Issues with the path defaulting to the schema root.
func applyModelValidators(ctx context.Context, validators []ValidatorRef, rec map[string]any) (map[string]any, Issues) {
	for _, mv := range validators {
		if mv.Apply == nil {
			return nil, Issues{{Path: "/", Code: CodeSchemaConfig, Message: fmt.Sprintf("model validator %q has no apply function", mv.Name)}}
		}
		next, err := mv.Apply(ctx, rec)
		if err != nil {
			return nil, issuesFromErr("/", CodeModelRule, mv.Name, err)
		}
		if next != nil {
			rec = next
		}
	}
	return rec, nil
}

// applyComputed derives each computed field in declaration order: invoke,
// re-validate the result against the declared type, then insert/overwrite
// (computed fields are authoritative over same-named input). The first
// failure halts the stage with an issue at /<name>. Runtime faults in the
// compute function are caught and converted, never propagated.
func (e *engine) applyComputed(ctx context.Context, specs []ComputedFieldSpec, rec map[string]any) (map[string]any, Issues) {
	for _, cf := range specs {
		base := "/" + cf.Name
		val, err := runCompute(ctx, cf, rec)
		if err != nil {
			return nil, issuesFromErr(base, CodeComputedFailed, cf.Name, err)
		}
		// Re-validation is strict: computed values come from code, not from
		// the wire, so no coercion is extended to them.
		got, mi := e.match(ctx, cf.Type, val, CoerceNone)
		if len(mi) > 0 {
			iss := make(Issues, 0, len(mi))
			for _, it := range Rebase(base, mi) {
				if it.Code == CodeInvalidType {
					it.Code = CodeComputedInvalidType
					it.Message = i18n.T(CodeComputedInvalidType, nil)
				}
				it.Rule = cf.Name
				iss = append(iss, it)
			}
			return nil, iss
		}
		rec[cf.Name] = got
	}
	return rec, nil
}

// runCompute shields the engine from panics in external compute functions.
func runCompute(ctx context.Context, cf ComputedFieldSpec, rec map[string]any) (v any, err error) {
	if cf.Compute == nil {
		return nil, Issues{{Path: "/" + cf.Name, Code: CodeSchemaConfig, Message: "computed field has no compute function"}}
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compute panicked: %v", r)
		}
	}()
	return cf.Compute(ctx, rec)
}
