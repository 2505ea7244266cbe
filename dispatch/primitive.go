// Package dispatch is the codec dispatch table: the write side picks a
// payload tag for a Go value's reflect.Kind according to the active
// optimization mode, and the read side decodes a value given the tag
// already read off the wire plus the statically-expected kind.
//
// It is the generalization of the teacher's ColumnarEncoder[T]/
// ColumnarDecoder[T] generic pair — instead of one encoder per column
// type known at compile time, a single kind-keyed table covers every
// primitive kind the archive package's generic Primitive constraint
// allows, selected at runtime from a reflect.Kind.
package dispatch

import (
	"io"
	"math"
	"reflect"

	"github.com/google/uuid"

	"github.com/griffinplus/go-serialization/endian"
	"github.com/griffinplus/go-serialization/errs"
	"github.com/griffinplus/go-serialization/leb128"
	"github.com/griffinplus/go-serialization/wire"
)

// ByteReader is the minimal read contract dispatch's decoders need.
type ByteReader interface {
	io.Reader
	io.ByteReader
}

// Codec is the dispatch table entry for one primitive reflect.Kind: the
// tag to use for each of the two wire encodings, and the encode/decode
// functions for each. CompactTag/WriteCompact/ReadCompact are the zero
// value when a kind has no space-saving alternative to its native form
// (bool, floats, strings).
type Codec struct {
	NativeTag    wire.Tag
	CompactTag   wire.Tag
	WriteNative  func(w io.Writer, engine endian.EndianEngine, v any) error
	WriteCompact func(w io.Writer, v any) error
	ReadNative   func(r ByteReader, engine endian.EndianEngine) (any, error)
	ReadCompact  func(r ByteReader) (any, error)
}

// HasCompact reports whether c defines a compact (LEB128) alternative to
// its native encoding.
func (c Codec) HasCompact() bool {
	return c.WriteCompact != nil
}

// Codecs is the dispatch table, keyed by reflect.Kind.
var Codecs = map[reflect.Kind]Codec{
	reflect.Bool: {
		NativeTag: wire.BooleanFalse, // overridden per-value in WriteNative
		WriteNative: func(w io.Writer, _ endian.EndianEngine, v any) error {
			b, ok := v.(bool)
			if !ok {
				return &errs.UnknownTypeError{Name: "bool codec received non-bool value"}
			}
			tag := wire.BooleanFalse
			if b {
				tag = wire.BooleanTrue
			}
			_, err := w.Write([]byte{byte(tag)})

			return err
		},
		ReadNative: func(r ByteReader, _ endian.EndianEngine) (any, error) {
			// Boolean values carry their payload in the tag itself; callers
			// must pass the already-read tag back in rather than calling this.
			return nil, errReadBoolDirectly
		},
	},
	reflect.Int8: {
		NativeTag: wire.SByteNative,
		WriteNative: func(w io.Writer, _ endian.EndianEngine, v any) error {
			_, err := w.Write([]byte{byte(mustInt8(v))})

			return err
		},
		ReadNative: func(r ByteReader, _ endian.EndianEngine) (any, error) {
			b, err := r.ReadByte()
			if err != nil {
				return nil, errs.ErrUnexpectedEndOfStream
			}

			return int8(b), nil
		},
	},
	reflect.Uint8: {
		NativeTag: wire.ByteNative,
		WriteNative: func(w io.Writer, _ endian.EndianEngine, v any) error {
			_, err := w.Write([]byte{mustUint8(v)})

			return err
		},
		ReadNative: func(r ByteReader, _ endian.EndianEngine) (any, error) {
			b, err := r.ReadByte()
			if err != nil {
				return nil, errs.ErrUnexpectedEndOfStream
			}

			return b, nil
		},
	},
	reflect.Int16: {
		NativeTag:  wire.Int16Native,
		CompactTag: wire.Int16LEB128,
		WriteNative: func(w io.Writer, engine endian.EndianEngine, v any) error {
			buf := engine.AppendUint16(nil, uint16(mustInt16(v)))
			_, err := w.Write(buf)

			return err
		},
		WriteCompact: func(w io.Writer, v any) error {
			buf, _ := leb128.WriteInt32(nil, int32(mustInt16(v)))
			_, err := w.Write(buf)

			return err
		},
		ReadNative: func(r ByteReader, engine endian.EndianEngine) (any, error) {
			buf := make([]byte, 2)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, errs.ErrUnexpectedEndOfStream
			}

			return int16(engine.Uint16(buf)), nil
		},
		ReadCompact: func(r ByteReader) (any, error) {
			v, _, err := leb128.ReadInt32(r)

			return int16(v), err
		},
	},
	reflect.Uint16: {
		NativeTag:  wire.UInt16Native,
		CompactTag: wire.UInt16LEB128,
		WriteNative: func(w io.Writer, engine endian.EndianEngine, v any) error {
			buf := engine.AppendUint16(nil, mustUint16(v))
			_, err := w.Write(buf)

			return err
		},
		WriteCompact: func(w io.Writer, v any) error {
			buf, _ := leb128.WriteUint32(nil, uint32(mustUint16(v)))
			_, err := w.Write(buf)

			return err
		},
		ReadNative: func(r ByteReader, engine endian.EndianEngine) (any, error) {
			buf := make([]byte, 2)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, errs.ErrUnexpectedEndOfStream
			}

			return engine.Uint16(buf), nil
		},
		ReadCompact: func(r ByteReader) (any, error) {
			v, _, err := leb128.ReadUint32(r)

			return uint16(v), err
		},
	},
	reflect.Int32: {
		NativeTag:  wire.Int32Native,
		CompactTag: wire.Int32LEB128,
		WriteNative: func(w io.Writer, engine endian.EndianEngine, v any) error {
			buf := engine.AppendUint32(nil, uint32(mustInt32(v)))
			_, err := w.Write(buf)

			return err
		},
		WriteCompact: func(w io.Writer, v any) error {
			buf, _ := leb128.WriteInt32(nil, mustInt32(v))
			_, err := w.Write(buf)

			return err
		},
		ReadNative: func(r ByteReader, engine endian.EndianEngine) (any, error) {
			buf := make([]byte, 4)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, errs.ErrUnexpectedEndOfStream
			}

			return int32(engine.Uint32(buf)), nil
		},
		ReadCompact: func(r ByteReader) (any, error) {
			v, _, err := leb128.ReadInt32(r)

			return v, err
		},
	},
	reflect.Uint32: {
		NativeTag:  wire.UInt32Native,
		CompactTag: wire.UInt32LEB128,
		WriteNative: func(w io.Writer, engine endian.EndianEngine, v any) error {
			buf := engine.AppendUint32(nil, mustUint32(v))
			_, err := w.Write(buf)

			return err
		},
		WriteCompact: func(w io.Writer, v any) error {
			buf, _ := leb128.WriteUint32(nil, mustUint32(v))
			_, err := w.Write(buf)

			return err
		},
		ReadNative: func(r ByteReader, engine endian.EndianEngine) (any, error) {
			buf := make([]byte, 4)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, errs.ErrUnexpectedEndOfStream
			}

			return engine.Uint32(buf), nil
		},
		ReadCompact: func(r ByteReader) (any, error) {
			v, _, err := leb128.ReadUint32(r)

			return v, err
		},
	},
	reflect.Int64: {
		NativeTag:  wire.Int64Native,
		CompactTag: wire.Int64LEB128,
		WriteNative: func(w io.Writer, engine endian.EndianEngine, v any) error {
			buf := engine.AppendUint64(nil, uint64(mustInt64(v)))
			_, err := w.Write(buf)

			return err
		},
		WriteCompact: func(w io.Writer, v any) error {
			buf, _ := leb128.WriteInt64(nil, mustInt64(v))
			_, err := w.Write(buf)

			return err
		},
		ReadNative: func(r ByteReader, engine endian.EndianEngine) (any, error) {
			buf := make([]byte, 8)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, errs.ErrUnexpectedEndOfStream
			}

			return int64(engine.Uint64(buf)), nil
		},
		ReadCompact: func(r ByteReader) (any, error) {
			v, _, err := leb128.ReadInt64(r)

			return v, err
		},
	},
	reflect.Uint64: {
		NativeTag:  wire.UInt64Native,
		CompactTag: wire.UInt64LEB128,
		WriteNative: func(w io.Writer, engine endian.EndianEngine, v any) error {
			buf := engine.AppendUint64(nil, mustUint64(v))
			_, err := w.Write(buf)

			return err
		},
		WriteCompact: func(w io.Writer, v any) error {
			buf, _ := leb128.WriteUint64(nil, mustUint64(v))
			_, err := w.Write(buf)

			return err
		},
		ReadNative: func(r ByteReader, engine endian.EndianEngine) (any, error) {
			buf := make([]byte, 8)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, errs.ErrUnexpectedEndOfStream
			}

			return engine.Uint64(buf), nil
		},
		ReadCompact: func(r ByteReader) (any, error) {
			v, _, err := leb128.ReadUint64(r)

			return v, err
		},
	},
	reflect.Float32: {
		NativeTag: wire.Float32Native,
		WriteNative: func(w io.Writer, engine endian.EndianEngine, v any) error {
			buf := engine.AppendUint32(nil, math.Float32bits(mustFloat32(v)))
			_, err := w.Write(buf)

			return err
		},
		ReadNative: func(r ByteReader, engine endian.EndianEngine) (any, error) {
			buf := make([]byte, 4)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, errs.ErrUnexpectedEndOfStream
			}

			return math.Float32frombits(engine.Uint32(buf)), nil
		},
	},
	reflect.Float64: {
		NativeTag: wire.Float64Native,
		WriteNative: func(w io.Writer, engine endian.EndianEngine, v any) error {
			buf := engine.AppendUint64(nil, math.Float64bits(mustFloat64(v)))
			_, err := w.Write(buf)

			return err
		},
		ReadNative: func(r ByteReader, engine endian.EndianEngine) (any, error) {
			buf := make([]byte, 8)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, errs.ErrUnexpectedEndOfStream
			}

			return math.Float64frombits(engine.Uint64(buf)), nil
		},
	},
	reflect.String: {
		NativeTag: wire.StringUTF8,
		WriteNative: func(w io.Writer, _ endian.EndianEngine, v any) error {
			s := mustString(v)
			buf, _ := leb128.WriteUint64(nil, uint64(len(s)))
			buf = append(buf, s...)
			_, err := w.Write(buf)

			return err
		},
		ReadNative: func(r ByteReader, _ endian.EndianEngine) (any, error) {
			n, _, err := leb128.ReadUint64(r)
			if err != nil {
				return nil, err
			}

			buf := make([]byte, n)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, errs.ErrUnexpectedEndOfStream
			}

			return string(buf), nil
		},
	},
}

var errReadBoolDirectly = &errs.UnknownTypeError{Name: "bool must be decoded from its tag via ReadBool, not ReadNative"}

// ReadBool decodes a boolean that has already had its tag byte consumed by
// the caller, since bool has no separate payload beyond the tag.
func ReadBool(tag wire.Tag) (bool, error) {
	switch tag {
	case wire.BooleanTrue:
		return true, nil
	case wire.BooleanFalse:
		return false, nil
	default:
		return false, &errs.UnexpectedTagError{Expected: "BooleanTrue or BooleanFalse", Actual: tag.String()}
	}
}

// WriteGuid appends id's 16 raw bytes preceded by the GuidNative tag.
func WriteGuid(w io.Writer, id uuid.UUID) error {
	buf := make([]byte, 0, 17)
	buf = append(buf, byte(wire.GuidNative))
	buf = append(buf, id[:]...)
	_, err := w.Write(buf)

	return err
}

// ReadGuid reads a GuidNative tag plus its 16-byte payload from r.
func ReadGuid(r ByteReader) (uuid.UUID, error) {
	tagByte, err := r.ReadByte()
	if err != nil {
		return uuid.UUID{}, errs.ErrUnexpectedEndOfStream
	}
	if wire.Tag(tagByte) != wire.GuidNative {
		return uuid.UUID{}, &errs.UnexpectedTagError{Expected: "GuidNative", Actual: wire.Tag(tagByte).String()}
	}

	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return uuid.UUID{}, errs.ErrUnexpectedEndOfStream
	}

	return uuid.UUID(buf), nil
}

func mustInt8(v any) int8     { return v.(int8) }
func mustUint8(v any) byte    { return v.(uint8) }
func mustInt16(v any) int16   { return v.(int16) }
func mustUint16(v any) uint16 { return v.(uint16) }
func mustInt32(v any) int32   { return v.(int32) }
func mustUint32(v any) uint32 { return v.(uint32) }
func mustInt64(v any) int64   { return v.(int64) }
func mustUint64(v any) uint64 { return v.(uint64) }
func mustFloat32(v any) float32 { return v.(float32) }
func mustFloat64(v any) float64 { return v.(float64) }
func mustString(v any) string   { return v.(string) }
