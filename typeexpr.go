package deskema

import "context"

// TypeExpr is the tagged structural type of a field. Self-reference is only
// possible through Ref, never through unbounded inline nesting, so
// descriptor construction always terminates.
type TypeExpr interface {
	isTypeExpr()
}

// PrimitiveKind identifies a primitive type.
type PrimitiveKind int

const (
	KindString PrimitiveKind = iota
	KindInteger
	KindNumber
	KindBoolean
	KindNull
)

func (k PrimitiveKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

// Primitive matches a single primitive kind.
type Primitive struct{ Kind PrimitiveKind }

// Array matches a JSON array whose elements all match Elem.
type Array struct{ Elem TypeExpr }

// MapOf matches a JSON object whose keys match Key and values match Value.
// Keys are never coerced.
type MapOf struct{ Key, Value TypeExpr }

// Union tries Variants in declared order; the first structural success wins.
type Union struct{ Variants []TypeExpr }

// Ref points at another descriptor by schema id, resolved through the
// caller-supplied Registry.
type Ref struct{ SchemaID string }

// CheckFunc is the external custom-type contract: it returns the (possibly
// replaced) value or an error. An error that is not Issues is reported as an
// invalid_type issue.
type CheckFunc func(ctx context.Context, v any) (any, error)

// Custom delegates structural matching to an external function. Constraints
// apply to a Custom field only when Base re-exposes a base representation.
type Custom struct {
	Name  string
	Check CheckFunc
	Base  TypeExpr
}

func (Primitive) isTypeExpr() {}
func (Array) isTypeExpr()     {}
func (MapOf) isTypeExpr()     {}
func (Union) isTypeExpr()     {}
func (Ref) isTypeExpr()       {}
func (Custom) isTypeExpr()    {}

// Shorthand primitive expressions for descriptor literals and builders.
var (
	String  = Primitive{Kind: KindString}
	Integer = Primitive{Kind: KindInteger}
	Number  = Primitive{Kind: KindNumber}
	Boolean = Primitive{Kind: KindBoolean}
	Null    = Primitive{Kind: KindNull}
)
