package deskema_test

import (
	"context"
	"reflect"
	"testing"

	deskema "github.com/reoring/deskema"
)

func userDescriptor() *deskema.Descriptor {
	return &deskema.Descriptor{
		ID: "user",
		Fields: []deskema.FieldSpec{
			{Name: "name", Type: deskema.String, Required: true},
			{Name: "age", Type: deskema.Integer, Default: 0, HasDefault: true},
		},
	}
}

// codesAt flattens an error into "code path" strings for compact assertions.
func codesAt(t *testing.T, err error) []string {
	t.Helper()
	iss, ok := deskema.AsIssues(err)
	if !ok {
		t.Fatalf("expected Issues, got %v", err)
	}
	out := make([]string, 0, len(iss))
	for _, it := range iss {
		out = append(out, it.Code+" "+it.Path)
	}
	return out
}

func TestValidate_DefaultApplied(t *testing.T) {
	ctx := context.Background()
	out, err := deskema.Validate(ctx, userDescriptor(), map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{"name": "Ada", "age": 0}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("record mismatch\n got=%v\nwant=%v", out, want)
	}
}

func TestValidate_DefaultNeverTypeChecked(t *testing.T) {
	ctx := context.Background()
	d := &deskema.Descriptor{
		ID: "odd",
		Fields: []deskema.FieldSpec{
			// Deliberately ill-typed default: engines must insert it verbatim.
			{Name: "age", Type: deskema.Integer, Default: "unset", HasDefault: true},
		},
	}
	out, err := deskema.Validate(ctx, d, map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["age"] != "unset" {
		t.Fatalf("default not inserted verbatim: %v", out["age"])
	}
}

func TestValidate_MissingAndMismatchAggregates(t *testing.T) {
	ctx := context.Background()
	_, err := deskema.Validate(ctx, userDescriptor(), map[string]any{"age": "oops"})
	got := codesAt(t, err)
	want := []string{
		deskema.CodeRequired + " /name",
		deskema.CodeInvalidType + " /age",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("issues mismatch\n got=%v\nwant=%v", got, want)
	}
}

func TestValidate_CompletenessOneIssuePerProblem(t *testing.T) {
	ctx := context.Background()
	d := &deskema.Descriptor{
		ID: "triple",
		Fields: []deskema.FieldSpec{
			{Name: "a", Type: deskema.String, Required: true},
			{Name: "b", Type: deskema.Integer, Required: true},
			{Name: "c", Type: deskema.Boolean, Required: true},
		},
	}
	_, err := deskema.Validate(ctx, d, map[string]any{"a": 1, "b": "x", "c": "y"})
	iss, _ := deskema.AsIssues(err)
	if len(iss) != 3 {
		t.Fatalf("expected exactly 3 issues, got %d: %v", len(iss), iss)
	}
}

func TestValidate_Determinism(t *testing.T) {
	ctx := context.Background()
	in := map[string]any{"age": "oops", "extra": 1}
	d := userDescriptor()
	_, err1 := deskema.Validate(ctx, d, in)
	_, err2 := deskema.Validate(ctx, d, in)
	if !reflect.DeepEqual(codesAt(t, err1), codesAt(t, err2)) {
		t.Fatalf("identical input produced different issue lists:\n%v\n%v", err1, err2)
	}
}

func TestValidate_FailFast(t *testing.T) {
	ctx := context.Background()
	_, err := deskema.Validate(ctx, userDescriptor(), map[string]any{"age": "oops"}, deskema.ValidateOpt{FailFast: true})
	iss, _ := deskema.AsIssues(err)
	if len(iss) != 1 {
		t.Fatalf("fail-fast should stop at the first issue, got %d", len(iss))
	}
}

func TestValidate_ExtraPolicies(t *testing.T) {
	ctx := context.Background()
	in := map[string]any{"name": "Ada", "zz": 1, "aa": 2}

	forbid := userDescriptor()
	forbid.Config.ExtraPolicy = deskema.ExtraForbid
	_, err := deskema.Validate(ctx, forbid, in)
	got := codesAt(t, err)
	// unknown keys in sorted order
	want := []string{deskema.CodeUnknownKey + " /aa", deskema.CodeUnknownKey + " /zz"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("forbid mismatch\n got=%v\nwant=%v", got, want)
	}

	ignore := userDescriptor()
	ignore.Config.ExtraPolicy = deskema.ExtraIgnore
	out, err := deskema.Validate(ctx, ignore, in)
	if err != nil {
		t.Fatalf("ignore: unexpected error: %v", err)
	}
	if _, ok := out["zz"]; ok {
		t.Fatalf("ignore should drop unknown keys: %v", out)
	}

	allow := userDescriptor()
	allow.Config.ExtraPolicy = deskema.ExtraAllow
	out, err = deskema.Validate(ctx, allow, in)
	if err != nil {
		t.Fatalf("allow: unexpected error: %v", err)
	}
	if out["zz"] != 1 || out["aa"] != 2 {
		t.Fatalf("allow should preserve unknown keys: %v", out)
	}
}

func TestValidate_ArrayCollectsAllElementIssues(t *testing.T) {
	ctx := context.Background()
	d := &deskema.Descriptor{
		ID: "list",
		Fields: []deskema.FieldSpec{
			{Name: "tags", Type: deskema.Array{Elem: deskema.String}, Required: true},
		},
	}
	_, err := deskema.Validate(ctx, d, map[string]any{"tags": []any{"ok", 1, true}})
	got := codesAt(t, err)
	want := []string{
		deskema.CodeInvalidType + " /tags/1",
		deskema.CodeInvalidType + " /tags/2",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("array issues mismatch\n got=%v\nwant=%v", got, want)
	}
}

func TestValidate_MapOfValuesAndKeys(t *testing.T) {
	ctx := context.Background()
	d := &deskema.Descriptor{
		ID: "scores",
		Fields: []deskema.FieldSpec{
			{Name: "scores", Type: deskema.MapOf{Key: deskema.String, Value: deskema.Integer}, Required: true},
		},
	}
	out, err := deskema.Validate(ctx, d, map[string]any{"scores": map[string]any{"math": 90, "art": 75}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scores := out["scores"].(map[string]any)
	if scores["math"] != int64(90) {
		t.Fatalf("expected normalized int64, got %T %v", scores["math"], scores["math"])
	}

	_, err = deskema.Validate(ctx, d, map[string]any{"scores": map[string]any{"math": "nope"}})
	got := codesAt(t, err)
	want := []string{deskema.CodeInvalidType + " /scores/math"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("map issues mismatch\n got=%v\nwant=%v", got, want)
	}
}

func TestValidate_UnionFirstMatchWins(t *testing.T) {
	ctx := context.Background()
	d := &deskema.Descriptor{
		ID: "flex",
		Fields: []deskema.FieldSpec{
			{Name: "id", Type: deskema.Union{Variants: []deskema.TypeExpr{deskema.Integer, deskema.String}}, Required: true},
		},
	}
	out, err := deskema.Validate(ctx, d, map[string]any{"id": "abc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["id"] != "abc" {
		t.Fatalf("string variant should match: %v", out["id"])
	}

	// Under safe coercion the integer variant is declared first, so a
	// numeric string lands there.
	d.Config.Coercion = deskema.CoerceSafe
	out, err = deskema.Validate(ctx, d, map[string]any{"id": "123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["id"] != int64(123) {
		t.Fatalf("integer variant should win under coercion: %T %v", out["id"], out["id"])
	}
}

func TestValidate_UnionNoMatchCarriesVariantDetail(t *testing.T) {
	ctx := context.Background()
	d := &deskema.Descriptor{
		ID: "flex",
		Fields: []deskema.FieldSpec{
			{Name: "id", Type: deskema.Union{Variants: []deskema.TypeExpr{deskema.Integer, deskema.Boolean}}, Required: true},
		},
	}
	_, err := deskema.Validate(ctx, d, map[string]any{"id": []any{}})
	iss, _ := deskema.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != deskema.CodeUnionNoMatch || iss[0].Path != "/id" {
		t.Fatalf("expected a single union_no_match at /id, got %v", iss)
	}
	variants, ok := iss[0].Params["variants"].([]deskema.Issues)
	if !ok || len(variants) != 2 {
		t.Fatalf("expected per-variant diagnostic detail, got %#v", iss[0].Params)
	}
}

func TestValidate_RefNestedRecord(t *testing.T) {
	ctx := context.Background()
	address := &deskema.Descriptor{
		ID: "address",
		Fields: []deskema.FieldSpec{
			{Name: "city", Type: deskema.String, Required: true},
		},
	}
	person := &deskema.Descriptor{
		ID: "person",
		Fields: []deskema.FieldSpec{
			{Name: "name", Type: deskema.String, Required: true},
			{Name: "address", Type: deskema.Ref{SchemaID: "address"}, Required: true},
		},
	}
	reg := deskema.NewRegistry(address)

	out, err := deskema.Validate(ctx, person, map[string]any{
		"name":    "Ada",
		"address": map[string]any{"city": "London"},
	}, deskema.ValidateOpt{Registry: reg})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["address"].(map[string]any)["city"] != "London" {
		t.Fatalf("nested record mismatch: %v", out)
	}

	_, err = deskema.Validate(ctx, person, map[string]any{
		"name":    "Ada",
		"address": map[string]any{},
	}, deskema.ValidateOpt{Registry: reg})
	got := codesAt(t, err)
	want := []string{deskema.CodeRequired + " /address/city"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("nested issue path mismatch\n got=%v\nwant=%v", got, want)
	}
}

func TestValidate_RefFieldConstraintsApplyWithMeta(t *testing.T) {
	ctx := context.Background()
	address := &deskema.Descriptor{
		ID: "address",
		Fields: []deskema.FieldSpec{
			{Name: "city", Type: deskema.String, Required: true},
		},
	}
	min := 2
	person := &deskema.Descriptor{
		ID: "person",
		Fields: []deskema.FieldSpec{
			{Name: "address", Type: deskema.Ref{SchemaID: "address"}, Required: true, Constraints: deskema.Constraints{MinLength: &min}},
		},
	}
	reg := deskema.NewRegistry(address)
	in := map[string]any{"address": map[string]any{"city": "London"}}

	_, plainErr := deskema.Validate(ctx, person, in, deskema.ValidateOpt{Registry: reg})
	_, metaErr := deskema.ValidateWithMeta(ctx, person, in, deskema.ValidateOpt{Registry: reg})

	want := []string{deskema.CodeTooShort + " /address"}
	if got := codesAt(t, plainErr); !reflect.DeepEqual(got, want) {
		t.Fatalf("constraint on ref field not enforced\n got=%v\nwant=%v", got, want)
	}
	// Both entry points must agree on the same (descriptor, input) pair.
	if got := codesAt(t, metaErr); !reflect.DeepEqual(got, want) {
		t.Fatalf("meta path skipped ref-field constraints\n got=%v\nwant=%v", got, want)
	}
}

func TestValidate_LastOptionWins(t *testing.T) {
	ctx := context.Background()
	in := map[string]any{"name": "Ada", "age": "7"}
	safe := deskema.ValidateOpt{Coercion: deskema.CoerceAs(deskema.CoerceSafe)}

	out, err := deskema.Validate(ctx, userDescriptor(), in, deskema.ValidateOpt{}, safe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["age"] != int64(7) {
		t.Fatalf("last option should apply: %T %v", out["age"], out["age"])
	}

	// Options replace, never merge: a trailing zero opt resets coercion.
	_, err = deskema.Validate(ctx, userDescriptor(), in, safe, deskema.ValidateOpt{})
	got := codesAt(t, err)
	want := []string{deskema.CodeInvalidType + " /age"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("earlier options must be dropped\n got=%v\nwant=%v", got, want)
	}
}

func TestValidate_RefWithoutRegistryIsConfigError(t *testing.T) {
	ctx := context.Background()
	d := &deskema.Descriptor{
		ID: "person",
		Fields: []deskema.FieldSpec{
			{Name: "address", Type: deskema.Ref{SchemaID: "nowhere"}, Required: true},
		},
	}
	_, err := deskema.Validate(ctx, d, map[string]any{"address": map[string]any{}})
	iss, _ := deskema.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != deskema.CodeSchemaConfig {
		t.Fatalf("expected schema_config, got %v", iss)
	}
}

func TestValidate_CustomType(t *testing.T) {
	ctx := context.Background()
	hex := deskema.Custom{
		Name: "hexColor",
		Check: func(_ context.Context, v any) (any, error) {
			s, ok := v.(string)
			if !ok || len(s) != 7 || s[0] != '#' {
				return nil, deskema.Issues{{Path: "/", Code: deskema.CodeInvalidType, Message: "expected #rrggbb"}}
			}
			return s, nil
		},
		Base: deskema.String,
	}
	d := &deskema.Descriptor{
		ID: "theme",
		Fields: []deskema.FieldSpec{
			{Name: "color", Type: hex, Required: true, Constraints: deskema.Constraints{Pattern: "^#[0-9a-f]{6}$"}},
		},
	}
	if _, err := deskema.Validate(ctx, d, map[string]any{"color": "#00ff00"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := deskema.Validate(ctx, d, map[string]any{"color": "#00FF00"})
	got := codesAt(t, err)
	want := []string{deskema.CodePattern + " /color"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("constraints should apply through the base representation\n got=%v\nwant=%v", got, want)
	}
}

func TestValidate_ConstraintsCollectedAfterTypeMatch(t *testing.T) {
	ctx := context.Background()
	min, max := 3, 2 // deliberately impossible: both must fire
	d := &deskema.Descriptor{
		ID: "strict",
		Fields: []deskema.FieldSpec{
			{Name: "code", Type: deskema.String, Required: true, Constraints: deskema.Constraints{MinLength: &min, MaxLength: &max, Pattern: "^[a-z]+$"}},
		},
	}
	_, err := deskema.Validate(ctx, d, map[string]any{"code": "AB"})
	got := codesAt(t, err)
	want := []string{
		deskema.CodeTooShort + " /code",
		deskema.CodePattern + " /code",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("constraint aggregation mismatch\n got=%v\nwant=%v", got, want)
	}
}

func TestValidateWithMeta_Presence(t *testing.T) {
	ctx := context.Background()
	dm, err := deskema.ValidateWithMeta(ctx, userDescriptor(), map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dm.Presence.Seen("/name") {
		t.Fatalf("name should be seen: %v", dm.Presence)
	}
	if !dm.Presence.DefaultApplied("/age") {
		t.Fatalf("age should be marked default-applied: %v", dm.Presence)
	}
}

func TestMustValidate_PanicsWithIssues(t *testing.T) {
	ctx := context.Background()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic")
		}
		if _, ok := r.(deskema.Issues); !ok {
			t.Fatalf("panic value should be Issues, got %T", r)
		}
	}()
	deskema.MustValidate(ctx, userDescriptor(), map[string]any{})
}
