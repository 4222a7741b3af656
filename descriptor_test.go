package deskema_test

import (
	"testing"

	deskema "github.com/reoring/deskema"
)

func TestDescriptorCheck_ReportsEveryConflict(t *testing.T) {
	min, max := 5, 2
	d := &deskema.Descriptor{
		ID: "broken",
		Fields: []deskema.FieldSpec{
			{Name: "a", Type: deskema.String, Required: true, Default: "x", HasDefault: true},
			{Name: "a", Type: deskema.String},
			{Name: "b", Type: deskema.Union{}},
			{Name: "c", Type: deskema.String, Constraints: deskema.Constraints{MinLength: &min, MaxLength: &max}},
			{Name: "d", Type: deskema.String, Constraints: deskema.Constraints{Pattern: "("}},
		},
	}
	err := d.Check()
	if err == nil {
		t.Fatalf("expected conflicts")
	}
	iss, _ := deskema.AsIssues(err)
	// One conflict each: default+required, duplicate name, empty union,
	// inverted lengths, invalid pattern.
	if len(iss) != 5 {
		t.Fatalf("expected all 5 conflicts reported, got %d: %v", len(iss), iss)
	}
	for _, it := range iss {
		if it.Code != deskema.CodeSchemaConfig {
			t.Fatalf("conflicts must use schema_config, got %v", it)
		}
	}
}

func TestDescriptorCheck_ComputedAndValidatorShapes(t *testing.T) {
	d := &deskema.Descriptor{
		ID: "broken",
		Fields: []deskema.FieldSpec{
			{Name: "x", Type: deskema.Integer},
		},
		ModelValidators: []deskema.ValidatorRef{{Name: "nilApply"}},
		ComputedFields: []deskema.ComputedFieldSpec{
			{Name: "y"}, // no type, no compute
		},
	}
	err := d.Check()
	iss, _ := deskema.AsIssues(err)
	if len(iss) != 3 {
		t.Fatalf("expected 3 conflicts (nil apply, nil compute, nil type), got %d: %v", len(iss), iss)
	}
}

func TestDescriptorCheck_UnknownFormat(t *testing.T) {
	d := &deskema.Descriptor{
		ID: "fmt",
		Fields: []deskema.FieldSpec{
			{Name: "x", Type: deskema.String, Constraints: deskema.Constraints{Format: "zipcode"}},
		},
	}
	if d.Check() == nil {
		t.Fatalf("unknown format should be flagged at build time")
	}
}

func TestDescriptorCheck_CleanDescriptorPasses(t *testing.T) {
	if err := userDescriptor().Check(); err != nil {
		t.Fatalf("clean descriptor should pass: %v", err)
	}
}
