// Package deskema validates and coerces record data against immutable
// schema descriptors.
//
// A Descriptor is plain data: an ordered list of field specs, cross-field
// model validators, computed-field specs, and a small config block. It is
// built once (by hand, by the build package, or by any other front end) and
// then shared read-only across concurrent validations.
//
// Validation runs in three stages: per-field structural matching and
// coercion (with path-qualified issue aggregation across independent
// branches), a sequential model-validator pipeline, and a computed-field
// stage that derives and re-validates additional fields. The jsonschema
// subpackage projects descriptors into JSON Schema documents, resolves and
// flattens references with cycle awareness, and applies provider
// normalization profiles.
package deskema
