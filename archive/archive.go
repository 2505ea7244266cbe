// Package archive implements the scoped write/read context handed to a
// codec while it serializes or deserializes one type.
//
// An Archive carries the current type, its codec version, and either a
// buffer the codec writes into (write side) or a bounded view the codec
// reads from (read side). It never recurses into full object-graph
// encoding itself — that's delegated back through GraphIO, which the
// top-level serializer implements, so this package never imports it.
package archive

import (
	"bufio"
	"fmt"
	"io"
	"reflect"

	"github.com/griffinplus/go-serialization/compress"
	"github.com/griffinplus/go-serialization/errs"
	"github.com/griffinplus/go-serialization/internal/pool"
	"github.com/griffinplus/go-serialization/leb128"
	"github.com/griffinplus/go-serialization/stream"
	"github.com/griffinplus/go-serialization/typedesc"
	"github.com/griffinplus/go-serialization/wire"
)

// ByteReader is the minimal read contract archive needs from whatever
// backs a read-side Archive: byte-at-a-time for LEB128, bulk for strings
// and buffers.
type ByteReader interface {
	io.Reader
	io.ByteReader
}

// GraphIO is implemented by the top-level serializer. It lets an Archive
// delegate primitive and object encoding back to the serializer without
// archive importing the serializer package.
type GraphIO interface {
	// WriteAnyPrimitive writes v, whose concrete type is one of the types
	// satisfying Primitive, choosing native or LEB128 form per the
	// serializer's optimization mode.
	WriteAnyPrimitive(w io.Writer, v any) error
	// ReadAnyPrimitive reads one primitive value of the given kind.
	ReadAnyPrimitive(r ByteReader, kind reflect.Kind) (any, error)
	// WriteObject writes obj, handling null/already-serialized/full-emission
	// dispatch through the serializer's object identity table.
	WriteObject(w io.Writer, obj any) error
	// ReadObject mirrors WriteObject on the read side.
	ReadObject(r ByteReader) (any, error)
	// WriteTypeDescriptor writes d as Type/GenericType or TypeId, consulting
	// the serializer's type identity table.
	WriteTypeDescriptor(w io.Writer, d typedesc.Descriptor) error
	// ReadTypeDescriptor mirrors WriteTypeDescriptor on the read side.
	ReadTypeDescriptor(r ByteReader) (typedesc.Descriptor, error)
}

// Primitive enumerates the Go types an Archive can write/read directly.
type Primitive interface {
	~bool | ~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 |
		~int64 | ~uint64 | ~float32 | ~float64 | ~string
}

// Archive is a scoped context handed to a codec's Serialize/construct
// method for the duration of one type's body.
type Archive struct {
	graph   GraphIO
	typ     typedesc.Descriptor
	version uint32
	isWrite bool
	isBase  bool

	// write-side
	out io.Writer        // destination the codec body writes into
	buf *pool.ByteBuffer  // rented scratch buffer, set only on the top-level (non-base) write archive
	dst io.Writer         // real stream; set only on the top-level write archive, used by Finish

	// read-side
	br      *bufio.Reader // shared byte-level reader; the same instance flows into every nested base archive
	backing io.ReadSeeker // real stream; set only on the top-level read archive
	bodyEnd int64         // absolute backing-stream offset just past this archive's body

	// nestedLimit bounds a non-top-level ArchiveStart body read sequentially
	// from a shared ByteReader (no backing io.ReadSeeker reachable); set only
	// by OpenNestedReadArchive.
	nestedLimit *io.LimitedReader
}

// Type reports the type descriptor this archive's codec body is operating on.
func (a *Archive) Type() typedesc.Descriptor { return a.typ }

// Version reports the codec version this archive's body was written with
// (write side) or was declared with (read side).
func (a *Archive) Version() uint32 { return a.version }

// IsWrite reports whether this archive is on the write side.
func (a *Archive) IsWrite() bool { return a.isWrite }

// RequireVersion fails with VersionNotSupportedError if this archive's
// version exceeds maxSupported. Call this at the top of a codec's
// construct-from-archive method.
func (a *Archive) RequireVersion(maxSupported uint32) error {
	if a.version > maxSupported {
		return &errs.VersionNotSupportedError{
			Type:         a.typ.Key(),
			Requested:    a.version,
			MaxSupported: maxSupported,
		}
	}

	return nil
}

// OpenWriteArchive starts a new top-level (ArchiveStart-framed) write
// archive. The codec body is accumulated into a rented scratch buffer so
// its length can be measured before the body_len prefix is emitted; call
// Finish to flush the framed archive to dst and return the buffer.
func OpenWriteArchive(graph GraphIO, dst io.Writer, typ typedesc.Descriptor, version uint32) *Archive {
	buf := pool.GetScratchBuffer()

	return &Archive{
		graph: graph, typ: typ, version: version, isWrite: true,
		out: buf, buf: buf, dst: dst,
	}
}

// Finish emits ArchiveStart, the type descriptor, the version, the
// measured body length, the accumulated body, and ArchiveEnd to the
// destination stream, then returns the scratch buffer to its pool.
//
// Finish must be called exactly once, on every exit path including error
// returns from the codec body, to avoid leaking the rented buffer.
func (a *Archive) Finish() error {
	if !a.isWrite || a.isBase {
		return errs.ErrNotSupported
	}

	defer func() {
		pool.PutScratchBuffer(a.buf)
		a.buf = nil
	}()

	if err := writeTag(a.dst, wire.ArchiveStart); err != nil {
		return err
	}
	if err := a.graph.WriteTypeDescriptor(a.dst, a.typ); err != nil {
		return err
	}
	if err := writeLEB128Uint32(a.dst, a.version); err != nil {
		return err
	}
	if err := writeLEB128Uint64(a.dst, uint64(a.buf.Len())); err != nil {
		return err
	}
	if _, err := a.dst.Write(a.buf.Bytes()); err != nil {
		return err
	}

	return writeTag(a.dst, wire.ArchiveEnd)
}

// WriteBase emits BaseArchiveStart, the base type descriptor, and the base
// version directly into this archive's body (no length prefix: a base
// archive's end is structural, signaled by codec returning), then invokes
// codec with a child archive sharing this archive's output.
func (a *Archive) WriteBase(baseType typedesc.Descriptor, baseVersion uint32, codec func(*Archive) error) error {
	if !a.isWrite {
		return errs.ErrNotSupported
	}

	if err := writeTag(a.out, wire.BaseArchiveStart); err != nil {
		return err
	}
	if err := a.graph.WriteTypeDescriptor(a.out, baseType); err != nil {
		return err
	}
	if err := writeLEB128Uint32(a.out, baseVersion); err != nil {
		return err
	}

	child := &Archive{graph: a.graph, typ: baseType, version: baseVersion, isWrite: true, isBase: true, out: a.out}

	return codec(child)
}

// OpenReadArchive starts a top-level read archive, bounding reads to
// bodyLen bytes starting at the backing stream's current position.
func OpenReadArchive(graph GraphIO, r io.ReadSeeker, typ typedesc.Descriptor, version uint32, bodyLen int64) (*Archive, error) {
	origin, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	view, err := stream.NewView(r, bodyLen)
	if err != nil {
		return nil, err
	}

	return &Archive{
		graph: graph, typ: typ, version: version,
		br: bufio.NewReader(view), backing: r, bodyEnd: origin + bodyLen,
	}, nil
}

// FinishRead repositions the backing stream just past this archive's body, so
// the caller can read the trailing ArchiveEnd tag regardless of how much
// of the body the codec actually consumed.
func (a *Archive) FinishRead() error {
	if a.isWrite || a.isBase {
		return errs.ErrNotSupported
	}

	_, err := a.backing.Seek(a.bodyEnd, io.SeekStart)

	return err
}

// OpenNestedReadArchive starts a read-side archive bounded by bodyLen using
// only sequential reads from r, for a codec-backed value reached while
// already inside another archive's body — where, unlike the top-level
// Read call, no seekable backing stream is reachable to bound a stream.View
// against. The type descriptor and version must already have been read by
// the caller (mirroring how OpenReadArchive's caller reads them first).
func OpenNestedReadArchive(graph GraphIO, r ByteReader, typ typedesc.Descriptor, version uint32, bodyLen int64) *Archive {
	limited := &io.LimitedReader{R: r, N: bodyLen}

	return &Archive{
		graph: graph, typ: typ, version: version,
		br: bufio.NewReader(limited), nestedLimit: limited,
	}
}

// FinishNestedRead drains any bytes of this archive's body its codec left
// unconsumed, so the caller can resume reading the parent's stream exactly
// at the trailing ArchiveEnd regardless of how much the codec read.
func (a *Archive) FinishNestedRead() error {
	if a.isWrite || a.isBase || a.nestedLimit == nil {
		return errs.ErrNotSupported
	}

	_, err := io.Copy(io.Discard, a.nestedLimit)

	return err
}

// OpenBaseArchive reads a BaseArchiveStart frame from this archive's
// remaining body and returns a child archive sharing this archive's
// reader. If expectedType is non-empty, the type descriptor read off the
// wire must match it.
func (a *Archive) OpenBaseArchive(expectedType typedesc.Descriptor) (*Archive, error) {
	if a.isWrite {
		return nil, errs.ErrNotSupported
	}

	tag, err := readTag(a.br)
	if err != nil {
		return nil, err
	}
	if tag != wire.BaseArchiveStart {
		return nil, &errs.UnexpectedTagError{Expected: wire.BaseArchiveStart.String(), Actual: tag.String()}
	}

	desc, err := a.graph.ReadTypeDescriptor(a.br)
	if err != nil {
		return nil, err
	}
	if expectedType.Name != "" && desc.Key() != expectedType.Key() {
		return nil, &errs.UnexpectedTagError{Expected: expectedType.Key(), Actual: desc.Key()}
	}

	version, _, err := leb128.ReadUint32(a.br)
	if err != nil {
		return nil, err
	}

	return &Archive{graph: a.graph, typ: desc, version: version, isBase: true, br: a.br}, nil
}

// WritePrimitive writes a single primitive value through the serializer's
// optimization-mode dispatch.
func WritePrimitive[T Primitive](a *Archive, v T) error {
	if !a.isWrite {
		return errs.ErrNotSupported
	}

	return a.graph.WriteAnyPrimitive(a.out, v)
}

// ReadPrimitive reads a single primitive value of type T.
func ReadPrimitive[T Primitive](a *Archive) (T, error) {
	var zero T
	if a.isWrite {
		return zero, errs.ErrNotSupported
	}

	v, err := a.graph.ReadAnyPrimitive(a.br, reflect.TypeOf(zero).Kind())
	if err != nil {
		return zero, err
	}

	out, ok := v.(T)
	if !ok {
		return zero, &errs.UnexpectedTagError{
			Expected: reflect.TypeOf(zero).String(),
			Actual:   fmt.Sprintf("%T", v),
		}
	}

	return out, nil
}

// WriteObject writes obj through the serializer's object-identity dispatch.
func (a *Archive) WriteObject(obj any) error {
	if !a.isWrite {
		return errs.ErrNotSupported
	}

	return a.graph.WriteObject(a.out, obj)
}

// ReadObject reads one object through the serializer's object-identity dispatch.
func (a *Archive) ReadObject() (any, error) {
	if a.isWrite {
		return nil, errs.ErrNotSupported
	}

	return a.graph.ReadObject(a.br)
}

// WriteBuffer writes data as an opaque, optionally compressed Buffer payload.
func (a *Archive) WriteBuffer(data []byte, c compress.CompressionType) error {
	if !a.isWrite {
		return errs.ErrNotSupported
	}

	codec, err := compress.GetCodec(c)
	if err != nil {
		return err
	}

	compressed, err := codec.Compress(data)
	if err != nil {
		return err
	}

	if err := writeTag(a.out, wire.Buffer); err != nil {
		return err
	}
	if _, err := a.out.Write([]byte{byte(c)}); err != nil {
		return err
	}
	if err := writeLEB128Uint64(a.out, uint64(len(compressed))); err != nil {
		return err
	}
	_, err = a.out.Write(compressed)

	return err
}

// ReadBuffer reads back a Buffer payload written by WriteBuffer.
func (a *Archive) ReadBuffer() ([]byte, error) {
	if a.isWrite {
		return nil, errs.ErrNotSupported
	}

	tag, err := readTag(a.br)
	if err != nil {
		return nil, err
	}
	if tag != wire.Buffer {
		return nil, &errs.UnexpectedTagError{Expected: wire.Buffer.String(), Actual: tag.String()}
	}

	cb, err := a.br.ReadByte()
	if err != nil {
		return nil, errs.ErrUnexpectedEndOfStream
	}

	n, _, err := leb128.ReadUint64(a.br)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(a.br, buf); err != nil {
		return nil, errs.ErrUnexpectedEndOfStream
	}

	codec, err := compress.GetCodec(compress.CompressionType(cb))
	if err != nil {
		return nil, err
	}

	return codec.Decompress(buf)
}

// AsStream exposes this archive's remaining unread body as a plain reader,
// for codecs that want to consume an opaque region directly rather than
// going through WriteBuffer/ReadBuffer's Buffer framing.
func (a *Archive) AsStream() (io.Reader, error) {
	if a.isWrite {
		return nil, errs.ErrNotSupported
	}

	return a.br, nil
}

func writeTag(w io.Writer, t wire.Tag) error {
	_, err := w.Write([]byte{byte(t)})

	return err
}

func readTag(r io.ByteReader) (wire.Tag, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, errs.ErrUnexpectedEndOfStream
	}

	return wire.Tag(b), nil
}

func writeLEB128Uint32(w io.Writer, v uint32) error {
	var scratch [leb128.MaxBytesUint32]byte
	buf, n := leb128.WriteUint32(scratch[:0], v)
	_, err := w.Write(buf[:n])

	return err
}

func writeLEB128Uint64(w io.Writer, v uint64) error {
	var scratch [leb128.MaxBytesUint64]byte
	buf, n := leb128.WriteUint64(scratch[:0], v)
	_, err := w.Write(buf[:n])

	return err
}
