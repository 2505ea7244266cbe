package serializer

import (
	"context"
	"io"
	"reflect"

	"github.com/griffinplus/go-serialization/archive"
	"github.com/griffinplus/go-serialization/dispatch"
	"github.com/griffinplus/go-serialization/errs"
	"github.com/griffinplus/go-serialization/identity"
	"github.com/griffinplus/go-serialization/leb128"
	"github.com/griffinplus/go-serialization/registry"
	"github.com/griffinplus/go-serialization/typedesc"
	"github.com/griffinplus/go-serialization/wire"
)

var int32MatrixType = reflect.TypeOf(Int32Matrix{})

// nativeByteWidth reports how many bytes a kind's fixed-width encoding
// occupies, for deciding whether LEB128 is actually smaller in Size mode.
var nativeByteWidth = map[reflect.Kind]int{
	reflect.Int8: 1, reflect.Uint8: 1,
	reflect.Int16: 2, reflect.Uint16: 2,
	reflect.Int32: 4, reflect.Uint32: 4, reflect.Float32: 4,
	reflect.Int64: 8, reflect.Uint64: 8, reflect.Float64: 8,
}

// usesCompact decides, for one scalar value, whether its LEB128 encoding is
// strictly smaller than its native one — the only condition under which
// Size mode prefers it (per the Int32=0x7FFFFFFF scenario: outside the
// 3-byte envelope, native wins even in Size mode).
func usesCompact(kind reflect.Kind, v any) bool {
	switch kind {
	case reflect.Int16:
		return leb128.ByteCountInt32(int32(v.(int16))) < nativeByteWidth[kind]
	case reflect.Uint16:
		return leb128.ByteCountUint32(uint32(v.(uint16))) < nativeByteWidth[kind]
	case reflect.Int32:
		return leb128.ByteCountInt32(v.(int32)) < nativeByteWidth[kind]
	case reflect.Uint32:
		return leb128.ByteCountUint32(v.(uint32)) < nativeByteWidth[kind]
	case reflect.Int64:
		return leb128.ByteCountInt64(v.(int64)) < nativeByteWidth[kind]
	case reflect.Uint64:
		return leb128.ByteCountUint64(v.(uint64)) < nativeByteWidth[kind]
	default:
		return false
	}
}

// WriteAnyPrimitive implements archive.GraphIO for the write side: it picks
// the tag (native or, in Size mode, compact where that's actually smaller)
// and writes tag+payload.
func (s *Serializer) WriteAnyPrimitive(w io.Writer, v any) error {
	kind := reflect.TypeOf(v).Kind()

	codec, ok := dispatch.Codecs[kind]
	if !ok {
		return &errs.UnknownTypeError{Name: "no primitive codec for kind " + kind.String()}
	}

	if kind == reflect.Bool {
		return codec.WriteNative(w, s.hostEngine, v)
	}

	if s.optimization == Size && codec.HasCompact() && usesCompact(kind, v) {
		if err := writeWireTag(w, codec.CompactTag); err != nil {
			return err
		}

		return codec.WriteCompact(w, v)
	}

	if err := writeWireTag(w, codec.NativeTag); err != nil {
		return err
	}

	return codec.WriteNative(w, s.hostEngine, v)
}

// WriteObject implements archive.GraphIO: it re-enters the graph dispatcher
// for a value nested inside a codec's own Serialize method.
func (s *Serializer) WriteObject(w io.Writer, obj any) error {
	if obj == nil {
		return writeWireTag(w, wire.NullReference)
	}

	return s.writeValue(s.ctx, w, reflect.ValueOf(obj))
}

// WriteTypeDescriptor implements archive.GraphIO: a type is written in full
// on first occurrence in this operation and referenced by TypeId thereafter.
func (s *Serializer) WriteTypeDescriptor(w io.Writer, d typedesc.Descriptor) error {
	if id, found := s.types.Probe(d); found {
		if err := writeWireTag(w, wire.TypeId); err != nil {
			return err
		}

		return writeLEB128Uint32(w, id)
	}

	s.types.Assign(d)
	_, err := w.Write(typedesc.Append(nil, d))

	return err
}

func (s *Serializer) writeValue(ctx context.Context, w io.Writer, v reflect.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !v.IsValid() {
		return writeWireTag(w, wire.NullReference)
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return writeWireTag(w, wire.NullReference)
		}

		return s.writeValue(ctx, w, v.Elem())
	case reflect.Ptr:
		if v.IsNil() {
			return writeWireTag(w, wire.NullReference)
		}

		return s.writeReference(ctx, w, v)
	case reflect.Slice:
		if v.IsNil() {
			return writeWireTag(w, wire.NullReference)
		}

		return s.writeReference(ctx, w, v)
	case reflect.String:
		if v.Len() == 0 {
			return s.WriteAnyPrimitive(w, v.String())
		}

		return s.writeReference(ctx, w, v)
	case reflect.Struct:
		return s.writeObjectBody(ctx, w, v)
	}

	if isEnumType(v.Type()) {
		return s.writeEnumBody(w, v)
	}

	return s.WriteAnyPrimitive(w, v.Interface())
}

// writeReference handles the object-identity side of an aliasable value:
// before writing any aliasable reference's body, the writer probes the
// serialized-objects table; a hit emits a short AlreadySerialized
// back-reference, a miss allocates the next id before the body is emitted
// so that a cyclic reference within the body resolves correctly.
func (s *Serializer) writeReference(ctx context.Context, w io.Writer, v reflect.Value) error {
	addr, aliasable := identity.AddressOf(v.Interface())
	if aliasable {
		if id, found := s.objects.Probe(addr); found {
			if err := writeWireTag(w, wire.AlreadySerialized); err != nil {
				return err
			}

			return writeLEB128Uint32(w, id)
		}

		s.objects.Assign(addr)
	}

	switch v.Kind() {
	case reflect.Ptr:
		elem := v.Elem()
		if elem.Type() == int32MatrixType {
			return writeInt32MatrixBody(w, s.hostEngine, elem.Interface().(Int32Matrix))
		}

		return s.writeObjectBody(ctx, w, elem)
	case reflect.Slice:
		return s.writeArrayBody(ctx, w, v)
	case reflect.String:
		return s.WriteAnyPrimitive(w, v.String())
	default:
		return &errs.UnknownTypeError{Name: "unsupported reference kind " + v.Kind().String()}
	}
}

// writeObjectBody frames v through its registered codec: ArchiveStart, type
// descriptor, version, body length, the codec's own body, ArchiveEnd. Finish is called
// on every exit path, including a codec error, so the rented scratch
// buffer is never leaked.
func (s *Serializer) writeObjectBody(ctx context.Context, w io.Writer, v reflect.Value) error {
	t := v.Type()
	if t == int32MatrixType {
		return writeInt32MatrixBody(w, s.hostEngine, v.Interface().(Int32Matrix))
	}

	// A codec is conventionally registered under its pointer receiver type
	// (InternalSerializable.Serialize has a pointer receiver in practice),
	// but writeReference's Ptr case already dereferenced v before calling
	// here, so try the value type first and fall back to *t.
	entry, ok := s.reg.LookupByType(t)
	if !ok {
		entry, ok = s.reg.LookupByType(reflect.PointerTo(t))
	}
	if !ok {
		return &errs.UnknownTypeError{Name: t.String()}
	}

	desc := typedesc.Descriptor{Name: entry.Name}
	version := s.versionFor(entry)
	ar := archive.OpenWriteArchive(s, w, desc, version)

	var bodyErr error
	switch {
	case entry.Internal:
		recv := addressableInterface(v)
		target, ok := recv.(registry.InternalSerializable)
		if !ok {
			bodyErr = &errs.CodecMisconfiguredError{Type: entry.Name, Reason: "does not implement InternalSerializable"}
		} else {
			bodyErr = target.Serialize(ar, version)
		}
	case entry.External != nil:
		bodyErr = entry.External.Serialize(ar, version, v.Interface())
	default:
		bodyErr = &errs.CodecMisconfiguredError{Type: entry.Name, Reason: "registry entry has neither an internal nor external codec"}
	}

	if finishErr := ar.Finish(); bodyErr == nil {
		return finishErr
	}

	return bodyErr
}

// addressableInterface returns v boxed behind a pointer, so a codec
// registered against a pointer receiver can be invoked even when v arrived
// as a non-addressable struct value (e.g. an element read out of a slice).
func addressableInterface(v reflect.Value) any {
	if v.CanAddr() {
		return v.Addr().Interface()
	}

	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)

	return ptr.Interface()
}

func (s *Serializer) writeArrayBody(ctx context.Context, w io.Writer, v reflect.Value) error {
	elemType := v.Type().Elem()
	if tags, ok := dispatch.ArrayTagsByKind[elemType.Kind()]; ok && elemType.PkgPath() == "" {
		return s.writePrimitiveArrayBody(w, tags, v)
	}

	return s.writeObjectArrayBody(ctx, w, v)
}

func arrayUsesCompact(kind reflect.Kind, v reflect.Value) bool {
	width, ok := nativeByteWidth[kind]
	if !ok {
		return false
	}

	n := v.Len()
	compactTotal := 0
	for i := 0; i < n; i++ {
		elem := v.Index(i)
		switch kind {
		case reflect.Int16:
			compactTotal += leb128.ByteCountInt32(int32(elem.Int()))
		case reflect.Uint16:
			compactTotal += leb128.ByteCountUint32(uint32(elem.Uint()))
		case reflect.Int32:
			compactTotal += leb128.ByteCountInt32(int32(elem.Int()))
		case reflect.Uint32:
			compactTotal += leb128.ByteCountUint32(uint32(elem.Uint()))
		case reflect.Int64:
			compactTotal += leb128.ByteCountInt64(elem.Int())
		case reflect.Uint64:
			compactTotal += leb128.ByteCountUint64(elem.Uint())
		}
	}

	return compactTotal < width*n
}

func (s *Serializer) writePrimitiveArrayBody(w io.Writer, tags dispatch.ArrayTags, v reflect.Value) error {
	kind := v.Type().Elem().Kind()
	useCompact := s.optimization == Size && tags.CompactTag != 0 && arrayUsesCompact(kind, v)

	tag := tags.NativeTag
	if useCompact {
		tag = tags.CompactTag
	}
	if err := writeWireTag(w, tag); err != nil {
		return err
	}

	switch kind {
	case reflect.Bool:
		return dispatch.WriteBoolArray(w, v.Interface().([]bool))
	case reflect.Int8:
		return dispatch.WriteInt8ArrayNative(w, v.Interface().([]int8))
	case reflect.Uint8:
		return dispatch.WriteUint8ArrayNative(w, v.Interface().([]uint8))
	case reflect.Int16:
		if useCompact {
			return dispatch.WriteInt16ArrayCompact(w, v.Interface().([]int16))
		}

		return dispatch.WriteInt16ArrayNative(w, s.hostEngine, v.Interface().([]int16))
	case reflect.Uint16:
		if useCompact {
			return dispatch.WriteUint16ArrayCompact(w, v.Interface().([]uint16))
		}

		return dispatch.WriteUint16ArrayNative(w, s.hostEngine, v.Interface().([]uint16))
	case reflect.Int32:
		if useCompact {
			return dispatch.WriteInt32ArrayCompact(w, v.Interface().([]int32))
		}

		return dispatch.WriteInt32ArrayNative(w, s.hostEngine, v.Interface().([]int32))
	case reflect.Uint32:
		if useCompact {
			return dispatch.WriteUint32ArrayCompact(w, v.Interface().([]uint32))
		}

		return dispatch.WriteUint32ArrayNative(w, s.hostEngine, v.Interface().([]uint32))
	case reflect.Int64:
		if useCompact {
			return dispatch.WriteInt64ArrayCompact(w, v.Interface().([]int64))
		}

		return dispatch.WriteInt64ArrayNative(w, s.hostEngine, v.Interface().([]int64))
	case reflect.Uint64:
		if useCompact {
			return dispatch.WriteUint64ArrayCompact(w, v.Interface().([]uint64))
		}

		return dispatch.WriteUint64ArrayNative(w, s.hostEngine, v.Interface().([]uint64))
	case reflect.Float32:
		return dispatch.WriteFloat32ArrayNative(w, s.hostEngine, v.Interface().([]float32))
	case reflect.Float64:
		return dispatch.WriteFloat64ArrayNative(w, s.hostEngine, v.Interface().([]float64))
	default:
		return &errs.UnknownTypeError{Name: "unsupported array element kind " + kind.String()}
	}
}

// writeObjectArrayBody writes a slice whose elements are not fixed-width
// primitives (objects, interfaces, strings) as ArrayOfObject: a length
// prefix followed by each element dispatched through writeValue in turn,
// so an element that is itself aliasable gets its own identity tracking.
func (s *Serializer) writeObjectArrayBody(ctx context.Context, w io.Writer, v reflect.Value) error {
	if err := writeWireTag(w, wire.ArrayOfObject); err != nil {
		return err
	}
	if err := writeLEB128Uint64(w, uint64(v.Len())); err != nil {
		return err
	}

	for i := 0; i < v.Len(); i++ {
		if err := s.writeValue(ctx, w, v.Index(i)); err != nil {
			return err
		}
	}

	return nil
}

func (s *Serializer) writeEnumBody(w io.Writer, v reflect.Value) error {
	if err := writeWireTag(w, wire.Enum); err != nil {
		return err
	}

	name := enumTypeName(v.Type())
	if err := s.WriteTypeDescriptor(w, typedesc.Descriptor{Name: name}); err != nil {
		return err
	}

	buf, _ := leb128.WriteInt64(nil, enumUnderlyingInt64(v))
	_, err := w.Write(buf)

	return err
}
