package deskema

// Presence is the bit flag collected by WithMeta APIs.
type Presence uint8

const (
	PresenceSeen           Presence = 1 << iota // Field appeared in the input.
	PresenceWasNull                             // Field value was null.
	PresenceDefaultApplied                      // Default value was applied.
)

// PresenceMap maps JSON Pointers to Presence flags.
type PresenceMap map[string]Presence

// Decoded carries the validated value along with presence metadata.
type Decoded[T any] struct {
	Value    T
	Presence PresenceMap
}

// DefaultApplied reports whether the field at path received its default.
func (pm PresenceMap) DefaultApplied(path string) bool {
	return pm[path]&PresenceDefaultApplied != 0
}

// Seen reports whether the field at path appeared in the input.
func (pm PresenceMap) Seen(path string) bool {
	return pm[path]&PresenceSeen != 0
}

// WasNull reports whether the field at path was an explicit null.
func (pm PresenceMap) WasNull(path string) bool {
	return pm[path]&PresenceWasNull != 0
}
