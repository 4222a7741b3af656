package deskema

import (
	"context"
	"strings"
)

// valueField is the synthetic field name used by the single-value adapter.
const valueField = "value"

// ValidateValue validates one unnamed value against a type expression by
// synthesizing an ephemeral one-field descriptor and delegating to the
// record pipeline, which guarantees semantics identical to named-field
// validation. Issues come back rooted at "/". As with Validate, the last of
// multiple opts wins.
func ValidateValue(ctx context.Context, t TypeExpr, v any, opts ...ValidateOpt) (any, error) {
	var opt ValidateOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	mode := CoerceNone
	if opt.Coercion != nil {
		mode = *opt.Coercion
	}
	d := &Descriptor{
		ID: "(value)",
		Fields: []FieldSpec{
			{Name: valueField, Type: t, Required: true},
		},
		Config: Config{ExtraPolicy: ExtraForbid, Coercion: mode},
	}
	out, err := Validate(ctx, d, map[string]any{valueField: v}, opts...)
	if err != nil {
		iss, _ := AsIssues(err)
		return nil, stripValuePrefix(iss)
	}
	return out[valueField], nil
}

// stripValuePrefix rewrites "/value..." paths back to the bare value root so
// callers never see the synthetic field name.
func stripValuePrefix(iss Issues) Issues {
	out := make(Issues, 0, len(iss))
	for _, it := range iss {
		p := strings.TrimPrefix(it.Path, "/"+valueField)
		if p == "" {
			p = "/"
		}
		it.Path = p
		out = append(out, it)
	}
	return out
}
