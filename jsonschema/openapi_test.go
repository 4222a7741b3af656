package jsonschema

import (
	"testing"

	deskema "github.com/reoring/deskema"
)

func TestOpenAPISchema(t *testing.T) {
	got, err := OpenAPISchema(acyclicDoc())
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !got.Type.Is("object") {
		t.Fatalf("expected object type, got %v", got.Type)
	}
	home := got.Properties["home"]
	if home == nil || home.Value == nil || !home.Value.Type.Is("object") {
		t.Fatalf("references must be inlined before conversion: %#v", home)
	}
	if home.Value.Properties["city"] == nil {
		t.Fatalf("nested properties lost: %#v", home.Value.Properties)
	}
}

func TestOpenAPISchema_RejectsCycles(t *testing.T) {
	node, reg := nodeDescriptors()
	doc, err := Generate(node, Options{Registry: reg})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	_, err = OpenAPISchema(doc)
	iss, _ := deskema.AsIssues(err)
	if len(iss) == 0 || iss[0].Code != deskema.CodeSchemaConfig {
		t.Fatalf("cyclic document must be rejected, got %v", err)
	}
}
