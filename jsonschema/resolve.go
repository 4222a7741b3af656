package jsonschema

import (
	"strings"

	deskema "github.com/reoring/deskema"
)

// ResolveRefs inlines every reference at its position. A ref chain that
// revisits a schema id already on the current path keeps the $ref at the
// cycle point instead of failing, so the output is always a valid document.
// The input is never mutated.
func ResolveRefs(doc *Schema) (*Schema, error) {
	out, err := doc.Clone()
	if err != nil {
		return nil, err
	}
	defs := collectDefs(out)
	// Resolution rewrites nodes in place while reading the definitions
	// table. Sources must stay pristine: inlining an already-deepened
	// definition would make the output depend on map iteration order.
	sources := make(map[string]*Schema, len(defs))
	for id, def := range defs {
		src, err := def.Clone()
		if err != nil {
			return nil, err
		}
		sources[id] = src
	}
	if err := resolveNode(out, sources, map[string]bool{}); err != nil {
		return nil, err
	}
	// Definition bodies are resolved with their own id on the path so
	// self-references inside a definition stay as references.
	for id, def := range defs {
		if err := resolveNode(def, sources, map[string]bool{id: true}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Flatten fully inlines all non-cyclic references and prunes definitions
// that are no longer referenced; cyclic references remain as references.
// Flattening an already-flat document is a no-op.
func Flatten(doc *Schema) (*Schema, error) {
	out, err := doc.Clone()
	if err != nil {
		return nil, err
	}
	defs := collectDefs(out)
	cyclic := cyclicIDs(defs)

	if err := flattenNode(out, defs, cyclic); err != nil {
		return nil, err
	}
	for id := range cyclic {
		if err := flattenNode(defs[id], defs, cyclic); err != nil {
			return nil, err
		}
	}

	kept := map[string]*Schema{}
	used := map[string]bool{}
	collectRefIDs(out, used)
	// Cyclic definitions reference each other; chase until stable.
	for changed := true; changed; {
		changed = false
		for id := range used {
			if _, ok := kept[id]; ok {
				continue
			}
			if def, ok := defs[id]; ok {
				kept[id] = def
				collectRefIDs(def, used)
				changed = true
			}
		}
	}
	out.Defs = nil
	out.Definitions = nil
	if len(kept) > 0 {
		if doc.Definitions != nil {
			out.Definitions = kept
		} else {
			out.Defs = kept
		}
	}
	return out, nil
}

func collectDefs(root *Schema) map[string]*Schema {
	defs := map[string]*Schema{}
	for id, s := range root.Defs {
		defs[id] = s
	}
	for id, s := range root.Definitions {
		defs[id] = s
	}
	return defs
}

func refID(ref string) (string, bool) {
	for _, prefix := range []string{"#/$defs/", "#/definitions/"} {
		if strings.HasPrefix(ref, prefix) {
			return strings.TrimPrefix(ref, prefix), true
		}
	}
	return "", false
}

func unresolved(ref string) error {
	return deskema.Issues{{Path: "/", Code: deskema.CodeSchemaConfig, Message: "unresolved reference", Params: map[string]any{"ref": ref}}}
}

func resolveNode(s *Schema, defs map[string]*Schema, stack map[string]bool) error {
	if s == nil {
		return nil
	}
	if s.Ref != "" {
		id, ok := refID(s.Ref)
		if !ok {
			return unresolved(s.Ref)
		}
		if stack[id] {
			return nil // cycle point: retain the reference
		}
		def, ok := defs[id]
		if !ok {
			return unresolved(s.Ref)
		}
		inlined, err := def.Clone()
		if err != nil {
			return err
		}
		stack[id] = true
		err = resolveNode(inlined, defs, stack)
		delete(stack, id)
		if err != nil {
			return err
		}
		*s = *inlined
		return nil
	}
	return walkChildren(s, func(child *Schema) error {
		return resolveNode(child, defs, stack)
	})
}

func flattenNode(s *Schema, defs map[string]*Schema, cyclic map[string]bool) error {
	if s == nil {
		return nil
	}
	if s.Ref != "" {
		id, ok := refID(s.Ref)
		if !ok {
			return unresolved(s.Ref)
		}
		if cyclic[id] {
			return nil
		}
		def, ok := defs[id]
		if !ok {
			return unresolved(s.Ref)
		}
		inlined, err := def.Clone()
		if err != nil {
			return err
		}
		// Non-cyclic definitions form a DAG, so this recursion terminates.
		if err := flattenNode(inlined, defs, cyclic); err != nil {
			return err
		}
		*s = *inlined
		return nil
	}
	return walkChildren(s, func(child *Schema) error {
		return flattenNode(child, defs, cyclic)
	})
}

// walkChildren visits every direct sub-schema except the definitions table.
func walkChildren(s *Schema, fn func(*Schema) error) error {
	for _, p := range s.Properties {
		if err := fn(p); err != nil {
			return err
		}
	}
	if s.Items != nil {
		if err := fn(s.Items); err != nil {
			return err
		}
	}
	for _, v := range s.AnyOf {
		if err := fn(v); err != nil {
			return err
		}
	}
	if sub, ok := s.AdditionalProperties.(*Schema); ok && sub != nil {
		if err := fn(sub); err != nil {
			return err
		}
	}
	return nil
}

// cyclicIDs reports the definition ids that can reach themselves through
// reference edges.
func cyclicIDs(defs map[string]*Schema) map[string]bool {
	edges := map[string]map[string]bool{}
	for id, def := range defs {
		targets := map[string]bool{}
		collectRefIDs(def, targets)
		edges[id] = targets
	}
	cyclic := map[string]bool{}
	for id := range defs {
		if reaches(edges, id, id, map[string]bool{}) {
			cyclic[id] = true
		}
	}
	return cyclic
}

func reaches(edges map[string]map[string]bool, from, target string, seen map[string]bool) bool {
	for next := range edges[from] {
		if next == target {
			return true
		}
		if seen[next] {
			continue
		}
		seen[next] = true
		if reaches(edges, next, target, seen) {
			return true
		}
	}
	return false
}

func collectRefIDs(s *Schema, into map[string]bool) {
	if s == nil {
		return
	}
	if s.Ref != "" {
		if id, ok := refID(s.Ref); ok {
			into[id] = true
		}
		return
	}
	_ = walkChildren(s, func(child *Schema) error {
		collectRefIDs(child, into)
		return nil
	})
}
