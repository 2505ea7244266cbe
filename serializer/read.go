package serializer

import (
	"context"
	"io"
	"reflect"

	"github.com/griffinplus/go-serialization/archive"
	"github.com/griffinplus/go-serialization/dispatch"
	"github.com/griffinplus/go-serialization/errs"
	"github.com/griffinplus/go-serialization/leb128"
	"github.com/griffinplus/go-serialization/typedesc"
	"github.com/griffinplus/go-serialization/wire"
)

// ReadAnyPrimitive implements archive.GraphIO: it reads the tag itself
// (bool's tag carries its own value; every other kind's tag picks between
// the native and compact codec) and decodes the payload.
func (s *Serializer) ReadAnyPrimitive(r archive.ByteReader, kind reflect.Kind) (any, error) {
	tag, err := readWireTag(r)
	if err != nil {
		return nil, err
	}

	if tag == wire.BooleanTrue || tag == wire.BooleanFalse {
		return dispatch.ReadBool(tag)
	}

	tk, ok := primitiveTagKind[tag]
	if !ok {
		return nil, &errs.UnexpectedTagError{Expected: "primitive tag for " + kind.String(), Actual: tag.String()}
	}

	codec := dispatch.Codecs[tk.kind]
	if tk.compact {
		return codec.ReadCompact(r)
	}

	return codec.ReadNative(r, s.hostEngine)
}

// ReadObject implements archive.GraphIO: it re-enters the graph dispatcher
// for a value nested inside a codec's own Deserialize/FromArchive method.
// The value reached this way is never the top-level root, so it always
// takes the sequential (non-seekable) nested archive path if it turns out
// to be itself codec-backed.
func (s *Serializer) ReadObject(r archive.ByteReader) (any, error) {
	return s.readValue(s.ctx, r, nil)
}

// ReadTypeDescriptor implements archive.GraphIO: a leading TypeId tag is a
// back-reference into this operation's type table; anything else is a
// fresh descriptor, replayed into typedesc.Read via prefixedReader since
// that function insists on consuming its own leading tag byte.
func (s *Serializer) ReadTypeDescriptor(r archive.ByteReader) (typedesc.Descriptor, error) {
	first, err := r.ReadByte()
	if err != nil {
		return typedesc.Descriptor{}, err
	}

	if wire.Tag(first) == wire.TypeId {
		id, _, err := leb128.ReadUint32(r)
		if err != nil {
			return typedesc.Descriptor{}, err
		}

		d, err := s.types.Lookup(id)
		if err != nil {
			return typedesc.Descriptor{}, err
		}

		return d, nil
	}

	pr := newPrefixedReader(first, r, r)
	d, err := typedesc.Read(pr)
	if err != nil {
		return typedesc.Descriptor{}, err
	}

	s.types.Register(s.nextTypeID, d)
	s.nextTypeID++

	return d, nil
}

// readValue reads one dispatched value. seeker is non-nil only for the
// top-level root value, where a true io.ReadSeeker is reachable to bound a
// codec-backed value's body via archive.OpenReadArchive; every nested
// value (object field, array element, enum carrier) reads seeker as nil
// and, if codec-backed, takes the sequential nested-archive path instead.
func (s *Serializer) readValue(ctx context.Context, br archive.ByteReader, seeker io.ReadSeeker) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tag, err := readWireTag(br)
	if err != nil {
		return nil, err
	}

	return s.readTagged(ctx, br, seeker, tag)
}

func (s *Serializer) readTagged(ctx context.Context, br archive.ByteReader, seeker io.ReadSeeker, tag wire.Tag) (any, error) {
	switch tag {
	case wire.NullReference:
		return nil, nil
	case wire.AlreadySerialized:
		id, _, err := leb128.ReadUint32(br)
		if err != nil {
			return nil, err
		}

		return s.objects.Lookup(id)
	case wire.BooleanTrue, wire.BooleanFalse:
		return dispatch.ReadBool(tag)
	case wire.Enum:
		return s.readEnumBody(br)
	case wire.ArrayOfObject:
		return s.readObjectArrayBody(ctx, br)
	case wire.MultidimensionalArrayOfInt32:
		return readInt32MatrixBody(br, s.hostEngine)
	case wire.ArchiveStart:
		return s.readObjectBody(ctx, br, seeker)
	}

	if tk, ok := primitiveTagKind[tag]; ok {
		codec := dispatch.Codecs[tk.kind]

		var v any
		var err error
		if tk.compact {
			v, err = codec.ReadCompact(br)
		} else {
			v, err = codec.ReadNative(br, s.hostEngine)
		}
		if err != nil {
			return nil, err
		}

		// Mirror writeValue's special case for the empty string: it bypasses
		// writeReference entirely (an empty string is never aliasable) and so
		// never consumes an object id, only a non-empty one does.
		if tk.kind == reflect.String && v.(string) != "" {
			s.registerAliasable(v)
		}

		return v, nil
	}

	if tk, ok := arrayTagKind[tag]; ok {
		return s.readPrimitiveArrayBody(br, tk)
	}

	return nil, &errs.UnexpectedTagError{Expected: "a value tag", Actual: tag.String()}
}

// registerAliasable records a freshly decoded aliasable value (a string or
// array) under the next object id, mirroring the write side's Assign call
// for the same value so a later AlreadySerialized back-reference resolves.
func (s *Serializer) registerAliasable(v any) {
	s.objects.Register(s.nextObjectID, v)
	s.nextObjectID++
}

// allocateObjectID reserves the next object id without registering a value
// against it yet, for callers that must register a shell before they
// populate it (an object array whose own elements may reference it back).
func (s *Serializer) allocateObjectID() uint32 {
	id := s.nextObjectID
	s.nextObjectID++

	return id
}

func (s *Serializer) readObjectBody(ctx context.Context, br archive.ByteReader, seeker io.ReadSeeker) (any, error) {
	desc, err := s.ReadTypeDescriptor(br)
	if err != nil {
		return nil, err
	}

	version, _, err := leb128.ReadUint32(br)
	if err != nil {
		return nil, err
	}

	bodyLen, _, err := leb128.ReadUint64(br)
	if err != nil {
		return nil, err
	}

	entry, ok := s.reg.LookupByDescriptor(desc)
	if !ok {
		return nil, &errs.UnknownTypeError{Name: desc.Key()}
	}

	// Reserved before the codec body is read, mirroring the write side's
	// Assign-before-body-emission order (writeReference): a codec-backed
	// struct's id must be lower than any aliasable value its own
	// Serialize/FromArchive reads or writes, or AlreadySerialized
	// back-references permute relative to the write side.
	id := s.allocateObjectID()

	var ar *archive.Archive
	if seeker != nil {
		ar, err = archive.OpenReadArchive(s, seeker, desc, version, int64(bodyLen))
		if err != nil {
			return nil, err
		}
	} else {
		ar = archive.OpenNestedReadArchive(s, br, desc, version, int64(bodyLen))
	}

	var obj any
	switch {
	case entry.Internal:
		obj, err = entry.FromArchive(ar)
	case entry.External != nil:
		obj, err = entry.External.Deserialize(ar, version)
	default:
		err = &errs.CodecMisconfiguredError{Type: entry.Name, Reason: "registry entry has neither an internal nor external codec"}
	}

	var finishErr error
	if seeker != nil {
		finishErr = ar.FinishRead()
	} else {
		finishErr = ar.FinishNestedRead()
	}
	if err == nil {
		err = finishErr
	}
	if err != nil {
		return nil, err
	}

	end, err := readWireTag(br)
	if err != nil {
		return nil, err
	}
	if end != wire.ArchiveEnd {
		return nil, &errs.UnexpectedTagError{Expected: "ArchiveEnd", Actual: end.String()}
	}

	// The id was reserved above, before FromArchive/Deserialize ran, so it
	// lines up with the write side's numbering; the value itself is only
	// available now that construction has returned. Neither hook exposes a
	// way to pre-register an id against an empty shell before construction
	// runs, so a reference cycle through a codec-backed struct still can't
	// resolve mid-construction — but a shared (non-cyclic) reference to the
	// finished object now resolves correctly, since its id was reserved at
	// the right point in the sequence regardless of when the value itself
	// becomes available.
	s.objects.Register(id, obj)

	return obj, nil
}

func (s *Serializer) readPrimitiveArrayBody(br archive.ByteReader, tk tagKind) (any, error) {
	var v any
	var err error

	switch tk.kind {
	case reflect.Bool:
		v, err = dispatch.ReadBoolArray(br)
	case reflect.Int8:
		v, err = dispatch.ReadInt8ArrayNative(br)
	case reflect.Uint8:
		v, err = dispatch.ReadUint8ArrayNative(br)
	case reflect.Int16:
		if tk.compact {
			v, err = dispatch.ReadInt16ArrayCompact(br)
		} else {
			v, err = dispatch.ReadInt16ArrayNative(br, s.hostEngine)
		}
	case reflect.Uint16:
		if tk.compact {
			v, err = dispatch.ReadUint16ArrayCompact(br)
		} else {
			v, err = dispatch.ReadUint16ArrayNative(br, s.hostEngine)
		}
	case reflect.Int32:
		if tk.compact {
			v, err = dispatch.ReadInt32ArrayCompact(br)
		} else {
			v, err = dispatch.ReadInt32ArrayNative(br, s.hostEngine)
		}
	case reflect.Uint32:
		if tk.compact {
			v, err = dispatch.ReadUint32ArrayCompact(br)
		} else {
			v, err = dispatch.ReadUint32ArrayNative(br, s.hostEngine)
		}
	case reflect.Int64:
		if tk.compact {
			v, err = dispatch.ReadInt64ArrayCompact(br)
		} else {
			v, err = dispatch.ReadInt64ArrayNative(br, s.hostEngine)
		}
	case reflect.Uint64:
		if tk.compact {
			v, err = dispatch.ReadUint64ArrayCompact(br)
		} else {
			v, err = dispatch.ReadUint64ArrayNative(br, s.hostEngine)
		}
	case reflect.Float32:
		v, err = dispatch.ReadFloat32ArrayNative(br, s.hostEngine)
	case reflect.Float64:
		v, err = dispatch.ReadFloat64ArrayNative(br, s.hostEngine)
	default:
		return nil, &errs.UnknownTypeError{Name: "unsupported array element kind " + tk.kind.String()}
	}

	if err != nil {
		return nil, err
	}

	// An empty slice is not aliasable on the write side (identity.AddressOf),
	// so it consumed no object id there either.
	if reflect.ValueOf(v).Len() > 0 {
		s.registerAliasable(v)
	}

	return v, nil
}

func (s *Serializer) readObjectArrayBody(ctx context.Context, br archive.ByteReader) (any, error) {
	n, _, err := leb128.ReadUint64(br)
	if err != nil {
		return nil, err
	}

	values := make([]any, n)
	// Registered before the element loop runs, mirroring the write side's
	// Assign-before-body-emission order (writeReference), so an element
	// that refers back to this same array resolves via AlreadySerialized. An
	// empty slice is not aliasable on the write side and gets no id.
	if n > 0 {
		id := s.allocateObjectID()
		s.objects.Register(id, values)
	}

	for i := range values {
		v, err := s.readValue(ctx, br, nil)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	return values, nil
}

func (s *Serializer) readEnumBody(br archive.ByteReader) (any, error) {
	desc, err := s.ReadTypeDescriptor(br)
	if err != nil {
		return nil, err
	}

	underlying, _, err := leb128.ReadInt64(br)
	if err != nil {
		return nil, err
	}

	typ, ok := lookupEnumType(desc.Name)
	if !ok {
		return underlying, nil
	}

	rv := reflect.New(typ).Elem()
	switch rv.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		rv.SetUint(uint64(underlying))
	default:
		rv.SetInt(underlying)
	}

	return rv.Interface(), nil
}
