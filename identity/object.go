// Package identity implements the per-operation object-identity and
// type-identity tables: the outbound "object → id" / "type → id" maps used
// while writing, and the inbound "id → object" / "id → type" maps used while
// reading. Both pairs are reset at the start of every top-level Write or
// Read, mirroring the per-operation collision tracker the encoder resets for
// every new blob (internal/collision.Tracker in the teacher package).
package identity

import (
	"reflect"

	"github.com/griffinplus/go-serialization/errs"
)

// firstObjectID is the base object id; ids are assigned monotonically from here.
const firstObjectID uint32 = 1

// ObjectTable tracks aliasable reference values (objects, strings, arrays,
// boxed primitives transported via Object) for one Write or Read operation.
//
// The outbound and inbound maps are disjoint: a single ObjectTable instance
// is used for exactly one direction at a time, but both halves are provided
// here since the serializer carries one set per operation regardless of
// direction.
type ObjectTable struct {
	serialized   map[uintptr]uint32 // identity address -> assigned id (write side)
	deserialized map[uint32]any     // assigned id -> materialized value (read side)
	nextID       uint32
}

// NewObjectTable creates an empty object-identity table ready for one operation.
func NewObjectTable() *ObjectTable {
	return &ObjectTable{
		serialized:   make(map[uintptr]uint32),
		deserialized: make(map[uint32]any),
		nextID:       firstObjectID,
	}
}

// Reset clears the table for reuse in a new top-level operation, retaining
// the underlying map allocations.
func (t *ObjectTable) Reset() {
	clear(t.serialized)
	clear(t.deserialized)
	t.nextID = firstObjectID
}

// Probe reports whether addr has already been assigned an id in this
// operation, and if so, which one.
func (t *ObjectTable) Probe(addr uintptr) (id uint32, found bool) {
	id, found = t.serialized[addr]

	return id, found
}

// Assign allocates the next id for addr. Callers must do this before
// emitting the object's body so that recursive references within the body
// resolve to the back-reference (the cycle-support invariant in spec §4.6).
func (t *ObjectTable) Assign(addr uintptr) uint32 {
	id := t.nextID
	t.nextID++
	t.serialized[addr] = id

	return id
}

// Register records a materialized value under id on the read side. Callers
// must do this before populating the value's deep fields, so cyclic graphs
// resolve correctly.
func (t *ObjectTable) Register(id uint32, value any) {
	t.deserialized[id] = value
}

// Lookup retrieves a previously registered value by id.
func (t *ObjectTable) Lookup(id uint32) (any, error) {
	v, ok := t.deserialized[id]
	if !ok {
		return nil, errs.ErrUnknownObjectId
	}

	return v, nil
}

// AddressOf returns an identity key for obj suitable for reference-equality
// deduplication, and whether obj is an aliasable kind at all. Value kinds
// (plain structs, numbers, bools passed by value) are never aliasable and
// always report aliasable=false; the caller must box or indirect such values
// through a pointer before it can be deduplicated across a graph.
func AddressOf(obj any) (addr uintptr, aliasable bool) {
	if obj == nil {
		return 0, false
	}

	v := reflect.ValueOf(obj)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if v.IsNil() {
			return 0, false
		}

		return v.Pointer(), true
	case reflect.Slice:
		if v.IsNil() || v.Len() == 0 {
			return 0, false
		}

		return v.Pointer(), true
	case reflect.String:
		if v.Len() == 0 {
			return 0, false
		}

		return stringDataAddr(v.String()), true
	default:
		return 0, false
	}
}
