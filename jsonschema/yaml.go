package jsonschema

import (
	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// FromYAML decodes a schema document authored in YAML. YAML maps are
// normalized to JSON-like map[string]any before decoding so the result is
// identical to loading the equivalent JSON.
func FromYAML(data []byte) (*Schema, error) {
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	b, err := gojson.Marshal(yamlNormalize(node))
	if err != nil {
		return nil, err
	}
	var out Schema
	if err := gojson.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ToYAML renders the document as YAML through its JSON shape, so keyword
// naming matches the JSON output exactly.
func ToYAML(s *Schema) ([]byte, error) {
	b, err := gojson.Marshal(s)
	if err != nil {
		return nil, err
	}
	var tree any
	if err := gojson.Unmarshal(b, &tree); err != nil {
		return nil, err
	}
	return yaml.Marshal(tree)
}

// yamlNormalize converts YAML-decoded values (which may contain map[any]any)
// into JSON-like map[string]any recursively.
func yamlNormalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalize(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = yamlNormalize(vv)
		}
		return out
	case []any:
		arr := make([]any, len(t))
		for i, vv := range t {
			arr[i] = yamlNormalize(vv)
		}
		return arr
	default:
		return v
	}
}
