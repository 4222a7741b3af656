package deskema

// Registry resolves Ref type expressions to descriptors by schema id.
// Implementations must be safe for concurrent readers.
type Registry interface {
	Lookup(schemaID string) (*Descriptor, bool)
}

type mapRegistry map[string]*Descriptor

// NewRegistry builds a read-only registry from descriptors keyed by their
// IDs. Descriptors without an ID are skipped.
func NewRegistry(ds ...*Descriptor) Registry {
	m := make(mapRegistry, len(ds))
	for _, d := range ds {
		if d == nil || d.ID == "" {
			continue
		}
		m[d.ID] = d
	}
	return m
}

func (m mapRegistry) Lookup(schemaID string) (*Descriptor, bool) {
	d, ok := m[schemaID]
	return d, ok
}
