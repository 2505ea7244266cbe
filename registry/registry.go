// Package registry indexes the available codecs — internal (a type
// serializes itself) and external (a third party serializes a type it
// doesn't own) — and resolves a type descriptor or runtime type to its
// codec entry.
//
// The default registry is a process-wide singleton, lazily initialized
// behind a double-checked mutex, and published as an immutable snapshot
// behind an atomic pointer: reads never block on the write lock, and a
// write never holds the lock while running user code.
package registry

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/griffinplus/go-serialization/archive"
	"github.com/griffinplus/go-serialization/errs"
	"github.com/griffinplus/go-serialization/typedesc"
	"github.com/griffinplus/go-serialization/typeid"
)

// FromArchive constructs a zero-value instance of a codec-backed type and
// populates it from ar. The instance's object id is reserved before it is
// invoked, but the returned value is registered under that id only after it
// returns, so a reference from within the body back to the instance itself
// does not resolve (ErrUnknownObjectId).
type FromArchive func(ar *archive.Archive) (any, error)

// ExternalTarget describes one type an ExternalCodec can serialize.
type ExternalTarget struct {
	Name    string
	Type    reflect.Type
	Version uint32
}

// ExternalCodec serializes/deserializes one or more target types it does
// not own.
type ExternalCodec interface {
	// Targets reports every type this codec can serialize.
	Targets() []ExternalTarget
	// Serialize writes obj's state into ar.
	Serialize(ar *archive.Archive, version uint32, obj any) error
	// Deserialize constructs and populates a value of the codec's target
	// type from ar.
	Deserialize(ar *archive.Archive, version uint32) (any, error)
}

// Entry is a resolved codec binding: a wire name, a runtime type, a
// version, and the operation that constructs a value from an archive.
type Entry struct {
	Name        string
	Type        reflect.Type
	Version     uint32
	Internal    bool
	FromArchive FromArchive
	External    ExternalCodec // non-nil only for external entries
}

type snapshot struct {
	byType map[reflect.Type]*Entry
	// byName is keyed by typeid.Of(name) rather than name itself: the read
	// path does a descriptor lookup on every single object it decodes, and
	// each lookup hashes the descriptor key once and then does a uint64 map
	// probe instead of a string-keyed one.
	byName map[typeid.ID]*Entry
}

func emptySnapshot() *snapshot {
	return &snapshot{byType: make(map[reflect.Type]*Entry), byName: make(map[typeid.ID]*Entry)}
}

// Registry is a process-wide index of codec entries, consulted during
// both write (by runtime type) and read (by type descriptor, i.e. wire
// name).
type Registry struct {
	mu   sync.Mutex // guards publishing a new snapshot; never held during user callbacks
	snap atomic.Pointer[snapshot]
}

var (
	defaultInstance atomic.Pointer[Registry]
	initMu          sync.Mutex
)

// Default returns the process-wide registry, creating it on first use.
func Default() *Registry {
	if r := defaultInstance.Load(); r != nil {
		return r
	}

	initMu.Lock()
	defer initMu.Unlock()

	if r := defaultInstance.Load(); r != nil {
		return r
	}

	r := &Registry{}
	r.snap.Store(emptySnapshot())
	defaultInstance.Store(r)

	return r
}

// InternalSerializable is implemented by types that serialize themselves.
// The archive passed to Serialize already carries the version the type
// was registered with.
type InternalSerializable interface {
	Serialize(ar *archive.Archive, version uint32) error
}

var internalSerializableType = reflect.TypeOf((*InternalSerializable)(nil)).Elem()

// RegisterInternalCodec registers typ as self-serializing under name and
// version. typ must implement InternalSerializable; construct builds a
// zero-value instance and populates it from an archive.
//
// Per the registry's four-predicate discovery rule, a type failing the
// interface check is reported with CodecMisconfiguredError rather than
// silently ignored.
func (r *Registry) RegisterInternalCodec(name string, typ reflect.Type, version uint32, construct FromArchive) error {
	if !typ.Implements(internalSerializableType) {
		return &errs.CodecMisconfiguredError{
			Type:   name,
			Reason: "does not implement InternalSerializable.Serialize(*archive.Archive, uint32) error",
		}
	}

	entry := &Entry{Name: name, Type: typ, Version: version, Internal: true, FromArchive: construct}

	r.publish(entry)

	return nil
}

// RegisterExternalCodec installs codec for every type it declares via
// Targets. If a target was already registered, the new registration
// replaces it (last registered wins).
func (r *Registry) RegisterExternalCodec(codec ExternalCodec) error {
	targets := codec.Targets()
	if len(targets) == 0 {
		return &errs.CodecMisconfiguredError{Type: "external codec", Reason: "declares no target types"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snap.Load()
	next := &snapshot{byType: cloneTypeMap(cur.byType), byName: cloneNameMap(cur.byName)}

	for _, target := range targets {
		entry := &Entry{Name: target.Name, Type: target.Type, Version: target.Version, External: codec}
		next.byType[target.Type] = entry
		next.byName[typeid.Of(target.Name)] = entry
	}

	r.snap.Store(next)

	return nil
}

// publish installs a single entry under both its type and name keys.
func (r *Registry) publish(entry *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snap.Load()
	next := &snapshot{byType: cloneTypeMap(cur.byType), byName: cloneNameMap(cur.byName)}
	next.byType[entry.Type] = entry
	next.byName[typeid.Of(entry.Name)] = entry
	r.snap.Store(next)
}

func cloneTypeMap(m map[reflect.Type]*Entry) map[reflect.Type]*Entry {
	out := make(map[reflect.Type]*Entry, len(m)+1)
	for k, v := range m {
		out[k] = v
	}

	return out
}

func cloneNameMap(m map[typeid.ID]*Entry) map[typeid.ID]*Entry {
	out := make(map[typeid.ID]*Entry, len(m)+1)
	for k, v := range m {
		out[k] = v
	}

	return out
}

// LookupByType finds the entry registered for the exact runtime type,
// used on the write side where the concrete Go type is already known.
func (r *Registry) LookupByType(t reflect.Type) (*Entry, bool) {
	snap := r.snap.Load()
	e, ok := snap.byType[t]

	return e, ok
}

// LookupByDescriptor finds the entry for a type descriptor read off the
// wire, trying the exact descriptor first and falling back to its
// generic definition (a closed generic's unparameterized name) on miss.
func (r *Registry) LookupByDescriptor(d typedesc.Descriptor) (*Entry, bool) {
	snap := r.snap.Load()

	if e, ok := snap.byName[typeid.Of(d.Key())]; ok {
		return e, true
	}

	if d.IsGeneric() {
		if e, ok := snap.byName[typeid.Of(d.GenericDefinition().Key())]; ok {
			return e, true
		}
	}

	return nil, false
}

// VersionTable records the version a serializer writes for each registered
// type, independent of the version a codec's Serialize method happens to
// support. A type with no entry falls back to the codec's own registered
// version.
type VersionTable struct {
	mu sync.RWMutex
	m  map[reflect.Type]uint32
}

// Set records version as the version to write for t, replacing any prior
// value.
func (vt *VersionTable) Set(t reflect.Type, version uint32) {
	vt.mu.Lock()
	defer vt.mu.Unlock()

	if vt.m == nil {
		vt.m = make(map[reflect.Type]uint32)
	}
	vt.m[t] = version
}

// TryGet reports the version recorded for t, if any.
func (vt *VersionTable) TryGet(t reflect.Type) (uint32, bool) {
	vt.mu.RLock()
	defer vt.mu.RUnlock()

	v, ok := vt.m[t]

	return v, ok
}
