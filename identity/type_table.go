package identity

import (
	"github.com/griffinplus/go-serialization/errs"
	"github.com/griffinplus/go-serialization/typedesc"
)

// firstTypeID is the base type id; ids are assigned monotonically from here.
const firstTypeID uint32 = 1

// TypeTable tracks type descriptors for one Write or Read operation: the
// first occurrence of a type in a stream is written in full and assigned a
// type id; subsequent occurrences are written as TypeId+id.
type TypeTable struct {
	byKey  map[string]uint32               // descriptor key -> id (write side)
	byID   map[uint32]typedesc.Descriptor  // id -> descriptor (read side)
	nextID uint32
}

// NewTypeTable creates an empty type-identity table ready for one operation.
func NewTypeTable() *TypeTable {
	return &TypeTable{
		byKey:  make(map[string]uint32),
		byID:   make(map[uint32]typedesc.Descriptor),
		nextID: firstTypeID,
	}
}

// Reset clears the table for reuse in a new top-level operation.
func (t *TypeTable) Reset() {
	clear(t.byKey)
	clear(t.byID)
	t.nextID = firstTypeID
}

// Probe reports whether d has already been assigned an id in this operation.
func (t *TypeTable) Probe(d typedesc.Descriptor) (id uint32, found bool) {
	id, found = t.byKey[d.Key()]

	return id, found
}

// Assign allocates the next id for d on the write side.
func (t *TypeTable) Assign(d typedesc.Descriptor) uint32 {
	id := t.nextID
	t.nextID++
	t.byKey[d.Key()] = id

	return id
}

// Register records d under id on the read side, at the point a Type or
// GenericType tag is consumed.
func (t *TypeTable) Register(id uint32, d typedesc.Descriptor) {
	t.byID[id] = d
}

// Lookup retrieves a previously registered descriptor by id.
func (t *TypeTable) Lookup(id uint32) (typedesc.Descriptor, error) {
	d, ok := t.byID[id]
	if !ok {
		return typedesc.Descriptor{}, errs.ErrUnknownTypeId
	}

	return d, nil
}
