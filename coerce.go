package deskema

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/reoring/deskema/i18n"
)

// engine carries the per-call wiring shared by the type system and the
// record validator. It holds no mutable state; all accumulation lives in the
// local variables of a single call.
type engine struct {
	reg      Registry
	override *CoercionMode
}

func (e *engine) modeFor(d *Descriptor) CoercionMode {
	if e.override != nil {
		return *e.override
	}
	return d.Config.Coercion
}

// match is the structural matcher and coercer. Returned issues are rooted at
// "/" relative to v; callers rebase them under the enclosing path. The
// coercion table is fixed: CoerceSafe admits numeric-string->number/integer
// and "true"/"false"->bool, CoerceAggressive additionally truncates
// fractional floats toward zero for integer targets. Nothing else converts.
func (e *engine) match(ctx context.Context, t TypeExpr, v any, mode CoercionMode) (any, Issues) {
	switch tt := t.(type) {
	case Primitive:
		return matchPrimitive(tt.Kind, v, mode)
	case Array:
		return e.matchArray(ctx, tt, v, mode)
	case MapOf:
		return e.matchMap(ctx, tt, v, mode)
	case Union:
		return e.matchUnion(ctx, tt, v, mode)
	case Ref:
		return e.matchRef(ctx, tt, v)
	case Custom:
		return matchCustom(ctx, tt, v)
	default:
		return nil, Issues{{Path: "/", Code: CodeSchemaConfig, Message: "nil or unknown type expression"}}
	}
}

func invalidType(hint string) Issues {
	return Issues{{Path: "/", Code: CodeInvalidType, Message: i18n.T(CodeInvalidType, nil), Hint: hint}}
}

func matchPrimitive(k PrimitiveKind, v any, mode CoercionMode) (any, Issues) {
	switch k {
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return nil, invalidType("expected string")
	case KindBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		if s, ok := v.(string); ok && mode >= CoerceSafe {
			switch s {
			case "true":
				return true, nil
			case "false":
				return false, nil
			}
		}
		return nil, invalidType("expected boolean")
	case KindInteger:
		return matchInteger(v, mode)
	case KindNumber:
		return matchNumber(v, mode)
	case KindNull:
		if v == nil {
			return nil, nil
		}
		return nil, invalidType("expected null")
	default:
		return nil, Issues{{Path: "/", Code: CodeSchemaConfig, Message: "unknown primitive kind"}}
	}
}

// matchInteger normalizes every accepted representation to int64. JSON has
// no integer type, so floats with a zero fractional part always match; a
// nonzero fraction only passes at CoerceAggressive via truncation toward
// zero.
func matchInteger(v any, mode CoercionMode) (any, Issues) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return nil, Issues{{Path: "/", Code: CodeTooBig, Message: i18n.T(CodeTooBig, nil), Hint: "integer overflow"}}
		}
		return int64(n), nil
	case float64:
		return integerFromFloat(n, mode)
	case float32:
		return integerFromFloat(float64(n), mode)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		if f, err := n.Float64(); err == nil {
			return integerFromFloat(f, mode)
		}
		return nil, invalidType("expected integer")
	case string:
		if mode < CoerceSafe {
			return nil, invalidType("expected integer")
		}
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, nil
		}
		if mode == CoerceAggressive {
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return integerFromFloat(f, mode)
			}
		}
		return nil, invalidType("expected integer")
	default:
		return nil, invalidType("expected integer")
	}
}

func integerFromFloat(f float64, mode CoercionMode) (any, Issues) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, invalidType("expected integer")
	}
	if math.Trunc(f) == f {
		return int64(f), nil
	}
	if mode == CoerceAggressive {
		return int64(math.Trunc(f)), nil
	}
	return nil, invalidType("expected integer")
}

// matchNumber normalizes every accepted representation to float64.
func matchNumber(v any, mode CoercionMode) (any, Issues) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, nil
		}
		return nil, invalidType("expected number")
	case string:
		if mode >= CoerceSafe {
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f, nil
			}
		}
		return nil, invalidType("expected number")
	default:
		return nil, invalidType("expected number")
	}
}

// matchArray validates every element independently; index-qualified issues
// for all failing elements are returned together.
func (e *engine) matchArray(ctx context.Context, t Array, v any, mode CoercionMode) (any, Issues) {
	arr, ok := v.([]any)
	if !ok {
		return nil, invalidType("expected array")
	}
	out := make([]any, len(arr))
	var iss Issues
	for i, el := range arr {
		got, ei := e.match(ctx, t.Elem, el, mode)
		if len(ei) > 0 {
			iss = AppendIssues(iss, Rebase("/"+strconv.Itoa(i), ei)...)
			if IsFailFast(ctx) {
				return nil, iss
			}
			continue
		}
		out[i] = got
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

// matchMap checks every key against the key type (never coerced, to avoid
// identity ambiguity) and every value against the value type. Keys are
// visited in sorted order for deterministic issue ordering.
func (e *engine) matchMap(ctx context.Context, t MapOf, v any, mode CoercionMode) (any, Issues) {
	src, ok := v.(map[string]any)
	if !ok {
		return nil, invalidType("expected object")
	}
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]any, len(src))
	var iss Issues
	for _, k := range keys {
		base := "/" + k
		if _, ki := e.match(ctx, t.Key, k, CoerceNone); len(ki) > 0 {
			iss = AppendIssues(iss, Rebase(base, ki)...)
			if IsFailFast(ctx) {
				return nil, iss
			}
			continue
		}
		got, vi := e.match(ctx, t.Value, src[k], mode)
		if len(vi) > 0 {
			iss = AppendIssues(iss, Rebase(base, vi)...)
			if IsFailFast(ctx) {
				return nil, iss
			}
			continue
		}
		out[k] = got
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

// matchUnion tries variants in declared order; the first structural success
// wins. When nothing matches, a single union_no_match issue is reported at
// the current path with the per-variant issues embedded under
// Params["variants"] as diagnostic detail.
func (e *engine) matchUnion(ctx context.Context, t Union, v any, mode CoercionMode) (any, Issues) {
	variants := make([]Issues, 0, len(t.Variants))
	for _, vt := range t.Variants {
		got, vi := e.match(ctx, vt, v, mode)
		if len(vi) == 0 {
			return got, nil
		}
		variants = append(variants, vi)
	}
	return nil, Issues{{
		Path:    "/",
		Code:    CodeUnionNoMatch,
		Message: i18n.T(CodeUnionNoMatch, nil),
		Params:  map[string]any{"variants": variants},
	}}
}

// matchRef validates v as a nested record against the referenced descriptor,
// running its full pipeline (fields, model validators, computed fields)
// under its own config. A missing registry entry is a configuration error,
// not a data error.
func (e *engine) matchRef(ctx context.Context, t Ref, v any) (any, Issues) {
	if e.reg == nil {
		return nil, Issues{{Path: "/", Code: CodeSchemaConfig, Message: "no registry supplied for schema reference", Params: map[string]any{"schemaId": t.SchemaID}}}
	}
	child, ok := e.reg.Lookup(t.SchemaID)
	if !ok {
		return nil, Issues{{Path: "/", Code: CodeSchemaConfig, Message: "unresolved schema reference", Params: map[string]any{"schemaId": t.SchemaID}}}
	}
	out, iss := e.validateRecord(ctx, child, v, nil, "")
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func matchCustom(ctx context.Context, t Custom, v any) (any, Issues) {
	if t.Check == nil {
		return nil, Issues{{Path: "/", Code: CodeSchemaConfig, Message: "custom type has no check function", Rule: t.Name}}
	}
	got, err := t.Check(ctx, v)
	if err != nil {
		return nil, issuesFromErr("/", CodeInvalidType, t.Name, err)
	}
	return got, nil
}
