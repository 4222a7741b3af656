package jsonschema

import (
	"github.com/getkin/kin-openapi/openapi3"
	gojson "github.com/goccy/go-json"

	deskema "github.com/reoring/deskema"
)

// OpenAPISchema converts a generated document into a kin-openapi schema for
// consumers that speak OpenAPI 3. The document is flattened first because
// OpenAPI 3.0 has no $defs; documents whose cycles survive flattening cannot
// be expressed and are rejected.
func OpenAPISchema(doc *Schema) (*openapi3.Schema, error) {
	flat, err := Flatten(doc)
	if err != nil {
		return nil, err
	}
	if len(flat.Defs) > 0 || len(flat.Definitions) > 0 {
		return nil, deskema.Issues{{Path: "/", Code: deskema.CodeSchemaConfig, Message: "cyclic references cannot be expressed in OpenAPI 3"}}
	}
	flat.SchemaURI = ""
	b, err := gojson.Marshal(flat)
	if err != nil {
		return nil, err
	}
	var out openapi3.Schema
	if err := out.UnmarshalJSON(b); err != nil {
		return nil, err
	}
	return &out, nil
}
