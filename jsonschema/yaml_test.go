package jsonschema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFromYAML(t *testing.T) {
	src := []byte(`
type: object
properties:
  name:
    type: string
    minLength: 3
  tags:
    type: array
    items:
      type: string
required:
  - name
additionalProperties: false
`)
	got, err := FromYAML(src)
	if err != nil {
		t.Fatalf("from yaml: %v", err)
	}
	if got.Type != "object" || got.Properties["name"].Type != "string" {
		t.Fatalf("unexpected document: %#v", got)
	}
	if got.Properties["name"].MinLength == nil || *got.Properties["name"].MinLength != 3 {
		t.Fatalf("minLength lost: %#v", got.Properties["name"])
	}
	if got.AdditionalProperties != false {
		t.Fatalf("additionalProperties must stay a bool, got %T", got.AdditionalProperties)
	}
}

func TestFromYAML_TypedAdditionalProperties(t *testing.T) {
	src := []byte(`
type: object
additionalProperties:
  type: integer
`)
	got, err := FromYAML(src)
	if err != nil {
		t.Fatalf("from yaml: %v", err)
	}
	sub, ok := got.AdditionalProperties.(*Schema)
	if !ok || sub.Type != "integer" {
		t.Fatalf("typed additionalProperties must decode as a schema, got %#v", got.AdditionalProperties)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	doc := acyclicDoc()
	data, err := ToYAML(doc)
	if err != nil {
		t.Fatalf("to yaml: %v", err)
	}
	back, err := FromYAML(data)
	if err != nil {
		t.Fatalf("from yaml: %v", err)
	}
	if diff := cmp.Diff(normalizeJSON(t, doc), normalizeJSON(t, back)); diff != "" {
		t.Fatalf("round trip changed the document (-orig +back):\n%s", diff)
	}
}
