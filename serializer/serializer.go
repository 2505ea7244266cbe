// Package serializer implements the top-level read/write orchestrator: the
// piece that owns one operation's object- and type-identity tables, picks
// the wire encoding for each value according to the active optimization
// mode, and implements archive.GraphIO so a codec's Archive can delegate
// primitive, object, and type-descriptor encoding back through it without
// the archive package importing this one.
//
// Grounded on the teacher's NumericEncoder/NumericDecoder pair
// (blob/numeric_encoder.go, blob/numeric_decoder.go): a Start/Append/Finish
// write lifecycle and a bounds-checked parse-on-construct read lifecycle,
// generalized from one fixed record shape to an arbitrary object graph.
package serializer

import (
	"context"
	"io"
	"reflect"

	"github.com/griffinplus/go-serialization/endian"
	"github.com/griffinplus/go-serialization/errs"
	"github.com/griffinplus/go-serialization/identity"
	"github.com/griffinplus/go-serialization/internal/options"
	"github.com/griffinplus/go-serialization/registry"
)

// Optimization selects how primitive values are encoded on the wire.
type Optimization int

const (
	// Speed always uses a value's native (fixed-width) encoding.
	Speed Optimization = iota
	// Size uses the LEB128-compact encoding whenever it is strictly smaller
	// than the native one.
	Size
)

// Serializer is the top-level read/write orchestrator. It owns the object-
// and type-identity tables for the duration of one Write or Read call.
//
// A Serializer is not safe for concurrent Write/Read calls: exactly like one
// teacher NumericEncoder/NumericDecoder instance, callers must serialize
// their own use of an instance or keep one per goroutine. The type registry
// it consults, by contrast, is the process-wide singleton from package
// registry and is safe for concurrent use.
type Serializer struct {
	optimization Optimization

	reg      *registry.Registry
	versions registry.VersionTable

	objects *identity.ObjectTable
	types   *identity.TypeTable

	// nextObjectID/nextTypeID mirror the write side's internal counters on
	// the read side: identity.ObjectTable/TypeTable's Register methods take
	// an explicit id because only the caller knows, from the order values
	// are encountered on the wire, which sequential id a fresh occurrence
	// must receive.
	nextObjectID uint32
	nextTypeID   uint32

	hostEngine   endian.EndianEngine
	littleEndian bool

	// ctx is the context of the operation currently in progress, so
	// WriteObject/ReadObject (archive.GraphIO methods, which don't receive a
	// context parameter themselves) can still thread cancellation into a
	// nested writeValue/readValue call.
	ctx context.Context
}

const (
	firstObjectID uint32 = 1
	firstTypeID   uint32 = 1
)

// NewSerializer creates a Serializer that writes/reads using opt's
// optimization mode, consulting the process-wide default type registry.
func NewSerializer(opt Optimization) *Serializer {
	return &Serializer{
		optimization: opt,
		reg:          registry.Default(),
		objects:      identity.NewObjectTable(),
		types:        identity.NewTypeTable(),
		hostEngine:   endian.EngineForHeaderBit(endian.IsNativeLittleEndian()),
		littleEndian: endian.IsNativeLittleEndian(),
	}
}

// NewSerializerWithOptions creates a Serializer the same way as
// NewSerializer, then applies opts in order. This is for callers wiring a
// serializer from a declarative configuration source (pre-registering an
// external codec, pinning a type's write version) rather than calling the
// setter methods individually after construction.
func NewSerializerWithOptions(opt Optimization, opts ...options.Option[*Serializer]) (*Serializer, error) {
	s := NewSerializer(opt)
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	return s, nil
}

// WithExternalCodec registers codec against the serializer's registry at
// construction time.
func WithExternalCodec(codec registry.ExternalCodec) options.Option[*Serializer] {
	return options.New(func(s *Serializer) error {
		return s.RegisterExternalCodec(codec)
	})
}

// WithSerializerVersion pins the version to write for t at construction time.
func WithSerializerVersion(t reflect.Type, version uint32) options.Option[*Serializer] {
	return options.NoError(func(s *Serializer) {
		s.SetSerializerVersion(t, version)
	})
}

// RegisterExternalCodec installs codec for every type it declares via
// Targets, against this serializer's registry.
func (s *Serializer) RegisterExternalCodec(codec registry.ExternalCodec) error {
	if s == nil {
		return errs.ErrNilSerializer
	}

	return s.reg.RegisterExternalCodec(codec)
}

// SetSerializerVersion overrides the version this serializer writes for t,
// independent of the version the registered codec itself declares.
func (s *Serializer) SetSerializerVersion(t reflect.Type, version uint32) {
	s.versions.Set(t, version)
}

// GetSerializerVersion reports the version this serializer would write for
// t: an override set via SetSerializerVersion if present, else the version
// the type's registered codec declares.
func (s *Serializer) GetSerializerVersion(t reflect.Type) (uint32, bool) {
	if v, ok := s.versions.TryGet(t); ok {
		return v, true
	}

	if e, ok := s.reg.LookupByType(t); ok {
		return e.Version, true
	}

	return 0, false
}

func (s *Serializer) versionFor(entry *registry.Entry) uint32 {
	if v, ok := s.versions.TryGet(entry.Type); ok {
		return v
	}

	return entry.Version
}

// Write serializes root to w: a one-byte endianness header followed by
// root's dispatched value. root must not be nil; nested nil references
// within the graph are legal and encode as NullReference.
func (s *Serializer) Write(ctx context.Context, w io.Writer, root any) error {
	if s == nil {
		return errs.ErrNilSerializer
	}
	if root == nil {
		return errs.ErrNilRoot
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.objects.Reset()
	s.types.Reset()
	s.littleEndian = endian.IsNativeLittleEndian()
	s.hostEngine = endian.EngineForHeaderBit(s.littleEndian)
	s.ctx = ctx

	header := byte(0)
	if s.littleEndian {
		header = 1
	}
	if _, err := w.Write([]byte{header}); err != nil {
		return err
	}

	return s.writeValue(ctx, w, reflect.ValueOf(root))
}

// Read deserializes one value from r: the endianness header followed by one
// dispatched value.
//
// r must be seekable: a codec-backed value's body is bounded by re-seeking
// the backing stream past whatever the codec left unread (archive.Archive's
// FinishRead), which requires random access, not just sequential Read.
func (s *Serializer) Read(ctx context.Context, r io.ReadSeeker) (any, error) {
	if s == nil {
		return nil, errs.ErrNilSerializer
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.objects.Reset()
	s.types.Reset()
	s.nextObjectID = firstObjectID
	s.nextTypeID = firstTypeID
	s.ctx = ctx

	rawR := rawByteReader{r: r}

	var header [1]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, errs.ErrUnexpectedEndOfStream
	}
	s.littleEndian = header[0]&0x01 != 0
	s.hostEngine = endian.EngineForHeaderBit(s.littleEndian)

	return s.readValue(ctx, rawR, r)
}
