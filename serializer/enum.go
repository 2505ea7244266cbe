package serializer

import (
	"reflect"
	"sync"
)

// enumTypes maps a descriptor name back to its registered Go type, so the
// read side can reconstruct a named-integer value with full fidelity
// instead of falling back to a plain int64. Grounded on the teacher's
// internal type-registry pattern (mebo's format/registry.go equivalent:
// name -> concrete Go type), scaled down to the one fact the wire format
// itself can't recover — a named integer type's identity.
var enumTypes sync.Map // string -> reflect.Type

// RegisterEnumType associates name (the descriptor name an enum value will
// carry on the wire) with typ, so Read can reconstruct values of typ
// instead of a bare int64. Unregistered enum types still round-trip
// correctly as int64; registration only restores the original Go type.
func RegisterEnumType(name string, typ reflect.Type) {
	enumTypes.Store(name, typ)
}

func lookupEnumType(name string) (reflect.Type, bool) {
	v, ok := enumTypes.Load(name)
	if !ok {
		return nil, false
	}

	return v.(reflect.Type), true
}

// isEnumType reports whether t is a named integer type — i.e. its
// underlying representation is one of Go's integer kinds but it is not
// itself one of the unnamed predeclared integer types.
func isEnumType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return t.PkgPath() != ""
	default:
		return false
	}
}

// enumTypeName returns the descriptor name used to identify an enum type on
// the wire: its package-qualified Go type name.
func enumTypeName(t reflect.Type) string {
	return t.String()
}

func enumUnderlyingInt64(v reflect.Value) int64 {
	switch v.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint())
	default:
		return v.Int()
	}
}
