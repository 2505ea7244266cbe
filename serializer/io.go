package serializer

import (
	"io"

	"github.com/griffinplus/go-serialization/errs"
	"github.com/griffinplus/go-serialization/leb128"
	"github.com/griffinplus/go-serialization/wire"
)

// rawByteReader adapts a plain io.Reader (in practice, the top-level
// io.ReadSeeker passed to Read) into an archive.ByteReader without
// introducing any read-ahead buffering: every ReadByte call consumes
// exactly one byte. A buffering reader here would leave the backing
// stream's absolute position ahead of the last byte this package has
// logically consumed, which would desync archive.OpenReadArchive's
// Seek-based body bounding for the top-level codec-backed value.
type rawByteReader struct {
	r io.Reader
}

func (rr rawByteReader) Read(p []byte) (int, error) {
	return rr.r.Read(p)
}

func (rr rawByteReader) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(rr.r, b[:]); err != nil {
		return 0, errs.ErrUnexpectedEndOfStream
	}

	return b[0], nil
}

// prefixedReader replays one already-consumed byte ahead of the rest of an
// underlying reader. ReadTypeDescriptor uses it to peek a tag byte and
// decide between a TypeId back-reference and a fresh type_desc before
// handing off to typedesc.Read, which insists on consuming its own leading
// tag byte.
type prefixedReader struct {
	first     byte
	consumed  bool
	remaining io.Reader
	byteSrc   io.ByteReader
}

func newPrefixedReader(first byte, rest io.Reader, byteSrc io.ByteReader) *prefixedReader {
	return &prefixedReader{first: first, remaining: rest, byteSrc: byteSrc}
}

func (pr *prefixedReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if !pr.consumed {
		pr.consumed = true
		p[0] = pr.first

		return 1, nil
	}

	return pr.remaining.Read(p)
}

func (pr *prefixedReader) ReadByte() (byte, error) {
	if !pr.consumed {
		pr.consumed = true

		return pr.first, nil
	}

	return pr.byteSrc.ReadByte()
}

func writeWireTag(w io.Writer, t wire.Tag) error {
	_, err := w.Write([]byte{byte(t)})

	return err
}

func readWireTag(r io.ByteReader) (wire.Tag, error) {
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
