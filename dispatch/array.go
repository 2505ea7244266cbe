package dispatch

import (
	"io"
	"math"
	"reflect"

	"github.com/griffinplus/go-serialization/endian"
	"github.com/griffinplus/go-serialization/errs"
	"github.com/griffinplus/go-serialization/internal/pool"
	"github.com/griffinplus/go-serialization/leb128"
	"github.com/griffinplus/go-serialization/wire"
)

// ArrayTags pairs the Native and Compact one-dimensional array tags for a
// given element reflect.Kind. A zero CompactTag means the element kind has
// no compact array form (bool, floats, decimal, DateTime/Offset, Guid,
// object — per the wire alphabet's own comment on wire.Tag).
type ArrayTags struct {
	NativeTag  wire.Tag
	CompactTag wire.Tag
}

// ArrayTagsByKind is the array-tag half of the dispatch table: it tells the
// write side which ArrayOfX_Native/_Compact tag pair applies to an element
// kind, mirroring Codecs for scalars.
var ArrayTagsByKind = map[reflect.Kind]ArrayTags{
	reflect.Bool:    {NativeTag: wire.ArrayOfBoolNative},
	reflect.Int8:    {NativeTag: wire.ArrayOfSByteNative},
	reflect.Uint8:   {NativeTag: wire.ArrayOfByteNative},
	reflect.Int16:   {NativeTag: wire.ArrayOfInt16Native, CompactTag: wire.ArrayOfInt16Compact},
	reflect.Uint16:  {NativeTag: wire.ArrayOfUInt16Native, CompactTag: wire.ArrayOfUInt16Compact},
	reflect.Int32:   {NativeTag: wire.ArrayOfInt32Native, CompactTag: wire.ArrayOfInt32Compact},
	reflect.Uint32:  {NativeTag: wire.ArrayOfUInt32Native, CompactTag: wire.ArrayOfUInt32Compact},
	reflect.Int64:   {NativeTag: wire.ArrayOfInt64Native, CompactTag: wire.ArrayOfInt64Compact},
	reflect.Uint64:  {NativeTag: wire.ArrayOfUInt64Native, CompactTag: wire.ArrayOfUInt64Compact},
	reflect.Float32: {NativeTag: wire.ArrayOfFloat32Native},
	reflect.Float64: {NativeTag: wire.ArrayOfFloat64Native},
}

// WriteInt64ArrayNative appends leb128(len(values)) followed by each
// element's 8 native-endian bytes.
func WriteInt64ArrayNative(w io.Writer, engine endian.EndianEngine, values []int64) error {
	lenBuf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	if _, err := w.Write(lenBuf); err != nil {
		return err
	}

	buf := make([]byte, 8*len(values))
	for i, v := range values {
		engine.PutUint64(buf[i*8:], uint64(v))
	}
	_, err := w.Write(buf)

	return err
}

// ReadInt64ArrayNative reads a leb128 length followed by that many 8-byte
// native-endian elements.
func ReadInt64ArrayNative(r ByteReader, engine endian.EndianEngine) ([]int64, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 8*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errs.ErrUnexpectedEndOfStream
	}

	out := make([]int64, n)
	for i := range out {
		out[i] = int64(engine.Uint64(buf[i*8:]))
	}

	return out, nil
}

// WriteInt64ArrayCompact appends leb128(len(values)) followed by each
// element SLEB128-encoded in turn.
func WriteInt64ArrayCompact(w io.Writer, values []int64) error {
	buf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	for _, v := range values {
		buf, _ = leb128.WriteInt64(buf, v)
	}
	_, err := w.Write(buf)

	return err
}

// ReadInt64ArrayCompact reads a leb128 length followed by that many
// SLEB128-encoded elements, using a pooled scratch slice so repeated array
// reads don't each allocate a fresh backing array before the final owned
// copy is made.
func ReadInt64ArrayCompact(r ByteReader) ([]int64, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	scratch, cleanup := pool.GetInt64Slice(int(n))
	defer cleanup()

	for i := range scratch {
		v, _, err := leb128.ReadInt64(r)
		if err != nil {
			return nil, err
		}
		scratch[i] = v
	}

	out := make([]int64, n)
	copy(out, scratch)

	return out, nil
}

// WriteUint64ArrayNative appends leb128(len(values)) followed by each
// element's 8 native-endian bytes.
func WriteUint64ArrayNative(w io.Writer, engine endian.EndianEngine, values []uint64) error {
	lenBuf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	if _, err := w.Write(lenBuf); err != nil {
		return err
	}

	buf := make([]byte, 8*len(values))
	for i, v := range values {
		engine.PutUint64(buf[i*8:], v)
	}
	_, err := w.Write(buf)

	return err
}

// ReadUint64ArrayNative reads a leb128 length followed by that many 8-byte
// native-endian elements.
func ReadUint64ArrayNative(r ByteReader, engine endian.EndianEngine) ([]uint64, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 8*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errs.ErrUnexpectedEndOfStream
	}

	out := make([]uint64, n)
	for i := range out {
		out[i] = engine.Uint64(buf[i*8:])
	}

	return out, nil
}

// WriteUint64ArrayCompact appends leb128(len(values)) followed by each
// element LEB128-encoded in turn.
func WriteUint64ArrayCompact(w io.Writer, values []uint64) error {
	buf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	for _, v := range values {
		buf, _ = leb128.WriteUint64(buf, v)
	}
	_, err := w.Write(buf)

	return err
}

// ReadUint64ArrayCompact reads a leb128 length followed by that many
// LEB128-encoded elements.
func ReadUint64ArrayCompact(r ByteReader) ([]uint64, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	out := make([]uint64, n)
	for i := range out {
		v, _, err := leb128.ReadUint64(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}

	return out, nil
}

// WriteFloat64ArrayNative appends leb128(len(values)) followed by each
// element's 8 native-endian bytes. Floats have no compact array form: the
// wire alphabet reserves no ArrayOfFloat64Compact tag, since LEB128 offers
// no savings over a fixed-width IEEE-754 payload.
func WriteFloat64ArrayNative(w io.Writer, engine endian.EndianEngine, values []float64) error {
	lenBuf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	if _, err := w.Write(lenBuf); err != nil {
		return err
	}

	buf := make([]byte, 8*len(values))
	for i, v := range values {
		engine.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	_, err := w.Write(buf)

	return err
}

// ReadFloat64ArrayNative reads a leb128 length followed by that many 8-byte
// native-endian IEEE-754 elements, via a pooled scratch slice.
func ReadFloat64ArrayNative(r ByteReader, engine endian.EndianEngine) ([]float64, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 8*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errs.ErrUnexpectedEndOfStream
	}

	scratch, cleanup := pool.GetFloat64Slice(int(n))
	defer cleanup()

	for i := range scratch {
		scratch[i] = math.Float64frombits(engine.Uint64(buf[i*8:]))
	}

	out := make([]float64, n)
	copy(out, scratch)

	return out, nil
}

// WriteStringArray appends leb128(len(values)) followed by each string as a
// leb128-length-prefixed UTF-8 payload. Strings have no separate native/
// compact form; the length prefix is always LEB128.
func WriteStringArray(w io.Writer, values []string) error {
	buf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	for _, s := range values {
		buf, _ = leb128.WriteUint64(buf, uint64(len(s)))
		buf = append(buf, s...)
	}
	_, err := w.Write(buf)

	return err
}

// ReadStringArray reads a leb128 length followed by that many
// length-prefixed UTF-8 strings, via a pooled scratch slice.
func ReadStringArray(r ByteReader) ([]string, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	scratch, cleanup := pool.GetStringSlice(int(n))
	defer cleanup()

	for i := range scratch {
		strLen, _, err := leb128.ReadUint64(r)
		if err != nil {
			return nil, err
		}

		sbuf := make([]byte, strLen)
		if _, err := io.ReadFull(r, sbuf); err != nil {
			return nil, errs.ErrUnexpectedEndOfStream
		}
		scratch[i] = string(sbuf)
	}

	out := make([]string, n)
	copy(out, scratch)

	return out, nil
}

// WriteBoolArray appends leb128(len(values)) followed by one byte per
// element (0x00/0x01); bool arrays pack one byte per element rather than
// bits, matching every other _Native array's fixed-stride layout.
func WriteBoolArray(w io.Writer, values []bool) error {
	buf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	for _, v := range values {
		b := byte(0)
		if v {
			b = 1
		}
		buf = append(buf, b)
	}
	_, err := w.Write(buf)

	return err
}

// ReadBoolArray reads a leb128 length followed by that many one-byte
// boolean elements.
func ReadBoolArray(r ByteReader) ([]bool, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errs.ErrUnexpectedEndOfStream
	}

	out := make([]bool, n)
	for i, b := range buf {
		out[i] = b != 0
	}

	return out, nil
}

// WriteInt8ArrayNative appends leb128(len(values)) followed by each
// element's raw byte. Int8 has no compact array form: a single byte is
// already as small as LEB128 could make it.
func WriteInt8ArrayNative(w io.Writer, values []int8) error {
	buf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	for _, v := range values {
		buf = append(buf, byte(v))
	}
	_, err := w.Write(buf)

	return err
}

// ReadInt8ArrayNative reads a leb128 length followed by that many raw bytes.
func ReadInt8ArrayNative(r ByteReader) ([]int8, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errs.ErrUnexpectedEndOfStream
	}

	out := make([]int8, n)
	for i, b := range buf {
		out[i] = int8(b)
	}

	return out, nil
}

// WriteUint8ArrayNative appends leb128(len(values)) followed by the raw bytes.
func WriteUint8ArrayNative(w io.Writer, values []uint8) error {
	buf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	buf = append(buf, values...)
	_, err := w.Write(buf)

	return err
}

// ReadUint8ArrayNative reads a leb128 length followed by that many raw bytes.
func ReadUint8ArrayNative(r ByteReader) ([]uint8, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, errs.ErrUnexpectedEndOfStream
	}

	return out, nil
}

// WriteInt16ArrayNative appends leb128(len(values)) followed by each
// element's 2 native-endian bytes.
func WriteInt16ArrayNative(w io.Writer, engine endian.EndianEngine, values []int16) error {
	lenBuf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	if _, err := w.Write(lenBuf); err != nil {
		return err
	}

	buf := make([]byte, 2*len(values))
	for i, v := range values {
		engine.PutUint16(buf[i*2:], uint16(v))
	}
	_, err := w.Write(buf)

	return err
}

// ReadInt16ArrayNative reads a leb128 length followed by that many 2-byte
// native-endian elements.
func ReadInt16ArrayNative(r ByteReader, engine endian.EndianEngine) ([]int16, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 2*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errs.ErrUnexpectedEndOfStream
	}

	out := make([]int16, n)
	for i := range out {
		out[i] = int16(engine.Uint16(buf[i*2:]))
	}

	return out, nil
}

// WriteInt16ArrayCompact appends leb128(len(values)) followed by each
// element SLEB128-encoded.
func WriteInt16ArrayCompact(w io.Writer, values []int16) error {
	buf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	for _, v := range values {
		buf, _ = leb128.WriteInt32(buf, int32(v))
	}
	_, err := w.Write(buf)

	return err
}

// ReadInt16ArrayCompact reads a leb128 length followed by that many
// SLEB128-encoded elements.
func ReadInt16ArrayCompact(r ByteReader) ([]int16, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	out := make([]int16, n)
	for i := range out {
		v, _, err := leb128.ReadInt32(r)
		if err != nil {
			return nil, err
		}
		out[i] = int16(v)
	}

	return out, nil
}

// WriteUint16ArrayNative appends leb128(len(values)) followed by each
// element's 2 native-endian bytes.
func WriteUint16ArrayNative(w io.Writer, engine endian.EndianEngine, values []uint16) error {
	lenBuf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	if _, err := w.Write(lenBuf); err != nil {
		return err
	}

	buf := make([]byte, 2*len(values))
	for i, v := range values {
		engine.PutUint16(buf[i*2:], v)
	}
	_, err := w.Write(buf)

	return err
}

// ReadUint16ArrayNative reads a leb128 length followed by that many 2-byte
// native-endian elements.
func ReadUint16ArrayNative(r ByteReader, engine endian.EndianEngine) ([]uint16, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 2*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errs.ErrUnexpectedEndOfStream
	}

	out := make([]uint16, n)
	for i := range out {
		out[i] = engine.Uint16(buf[i*2:])
	}

	return out, nil
}

// WriteUint16ArrayCompact appends leb128(len(values)) followed by each
// element LEB128-encoded.
func WriteUint16ArrayCompact(w io.Writer, values []uint16) error {
	buf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	for _, v := range values {
		buf, _ = leb128.WriteUint32(buf, uint32(v))
	}
	_, err := w.Write(buf)

	return err
}

// ReadUint16ArrayCompact reads a leb128 length followed by that many
// LEB128-encoded elements.
func ReadUint16ArrayCompact(r ByteReader) ([]uint16, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	out := make([]uint16, n)
	for i := range out {
		v, _, err := leb128.ReadUint32(r)
		if err != nil {
			return nil, err
		}
		out[i] = uint16(v)
	}

	return out, nil
}

// WriteInt32ArrayNative appends leb128(len(values)) followed by each
// element's 4 native-endian bytes.
func WriteInt32ArrayNative(w io.Writer, engine endian.EndianEngine, values []int32) error {
	lenBuf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	if _, err := w.Write(lenBuf); err != nil {
		return err
	}

	buf := make([]byte, 4*len(values))
	for i, v := range values {
		engine.PutUint32(buf[i*4:], uint32(v))
	}
	_, err := w.Write(buf)

	return err
}

// ReadInt32ArrayNative reads a leb128 length followed by that many 4-byte
// native-endian elements.
func ReadInt32ArrayNative(r ByteReader, engine endian.EndianEngine) ([]int32, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 4*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errs.ErrUnexpectedEndOfStream
	}

	out := make([]int32, n)
	for i := range out {
		out[i] = int32(engine.Uint32(buf[i*4:]))
	}

	return out, nil
}

// WriteInt32ArrayCompact appends leb128(len(values)) followed by each
// element SLEB128-encoded.
func WriteInt32ArrayCompact(w io.Writer, values []int32) error {
	buf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	for _, v := range values {
		buf, _ = leb128.WriteInt32(buf, v)
	}
	_, err := w.Write(buf)

	return err
}

// ReadInt32ArrayCompact reads a leb128 length followed by that many
// SLEB128-encoded elements.
func ReadInt32ArrayCompact(r ByteReader) ([]int32, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	out := make([]int32, n)
	for i := range out {
		v, _, err := leb128.ReadInt32(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}

	return out, nil
}

// WriteUint32ArrayNative appends leb128(len(values)) followed by each
// element's 4 native-endian bytes.
func WriteUint32ArrayNative(w io.Writer, engine endian.EndianEngine, values []uint32) error {
	lenBuf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	if _, err := w.Write(lenBuf); err != nil {
		return err
	}

	buf := make([]byte, 4*len(values))
	for i, v := range values {
		engine.PutUint32(buf[i*4:], v)
	}
	_, err := w.Write(buf)

	return err
}

// ReadUint32ArrayNative reads a leb128 length followed by that many 4-byte
// native-endian elements.
func ReadUint32ArrayNative(r ByteReader, engine endian.EndianEngine) ([]uint32, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 4*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errs.ErrUnexpectedEndOfStream
	}

	out := make([]uint32, n)
	for i := range out {
		out[i] = engine.Uint32(buf[i*4:])
	}

	return out, nil
}

// WriteUint32ArrayCompact appends leb128(len(values)) followed by each
// element LEB128-encoded.
func WriteUint32ArrayCompact(w io.Writer, values []uint32) error {
	buf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	for _, v := range values {
		buf, _ = leb128.WriteUint32(buf, v)
	}
	_, err := w.Write(buf)

	return err
}

// ReadUint32ArrayCompact reads a leb128 length followed by that many
// LEB128-encoded elements.
func ReadUint32ArrayCompact(r ByteReader) ([]uint32, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	out := make([]uint32, n)
	for i := range out {
		v, _, err := leb128.ReadUint32(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}

	return out, nil
}

// WriteFloat32ArrayNative appends leb128(len(values)) followed by each
// element's 4 native-endian bytes. Float32 has no compact array form for
// the same reason Float64 doesn't.
func WriteFloat32ArrayNative(w io.Writer, engine endian.EndianEngine, values []float32) error {
	lenBuf, _ := leb128.WriteUint64(nil, uint64(len(values)))
	if _, err := w.Write(lenBuf); err != nil {
		return err
	}

	buf := make([]byte, 4*len(values))
	for i, v := range values {
		engine.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	_, err := w.Write(buf)

	return err
}

// ReadFloat32ArrayNative reads a leb128 length followed by that many 4-byte
// native-endian IEEE-754 elements.
func ReadFloat32ArrayNative(r ByteReader, engine endian.EndianEngine) ([]float32, error) {
	n, _, err := leb128.ReadUint64(r)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 4*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errs.ErrUnexpectedEndOfStream
	}

	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(engine.Uint32(buf[i*4:]))
	}

	return out, nil
}

// Dimension is one axis of a multi-dimensional array: a lower bound (0 for
// ordinary zero-based arrays, non-zero for a language runtime that supports
// arbitrary array bounds) and a length.
type Dimension struct {
	LowerBound int
	Length     int
}

// ReadDimensions reads a multi-dimensional array's leb128-encoded rank
// followed by that many leb128-encoded (lower_bound, length) pairs,
// returning the dimensions and their length product (the total element
// count, laid out row-major in the element stream that follows).
func ReadDimensions(r ByteReader) (dims []Dimension, total int, err error) {
	rank, _, err := leb128.ReadUint32(r)
	if err != nil {
		return nil, 0, err
	}

	dims = make([]Dimension, rank)
	total = 1
	for i := range dims {
		lo, _, err := leb128.ReadInt32(r)
		if err != nil {
			return nil, 0, err
		}

		length, _, err := leb128.ReadUint32(r)
		if err != nil {
			return nil, 0, err
		}

		dims[i] = Dimension{LowerBound: int(lo), Length: int(length)}
		total *= int(length)
	}

	return dims, total, nil
}

// WriteDimensions appends a multi-dimensional array's rank followed by its
// per-dimension (lower_bound, length) pairs, row-major, ahead of the
// element stream.
func WriteDimensions(w io.Writer, dims []Dimension) error {
	buf, _ := leb128.WriteUint32(nil, uint32(len(dims)))
	for _, d := range dims {
		buf, _ = leb128.WriteInt32(buf, int32(d.LowerBound))
		buf, _ = leb128.WriteUint32(buf, uint32(d.Length))
	}
	_, err := w.Write(buf)

	return err
}
