package archive

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/griffinplus/go-serialization/compress"
	"github.com/griffinplus/go-serialization/errs"
	"github.com/griffinplus/go-serialization/leb128"
	"github.com/griffinplus/go-serialization/typedesc"
	"github.com/griffinplus/go-serialization/wire"
)

// fakeGraph is a minimal GraphIO test double: primitives are written/read
// as one byte (bool), unsigned LEB128 (int32/uint32) or length-prefixed
// UTF-8 (string), objects are
// written/read as length-prefixed UTF-8 strings (good enough to exercise
// Archive's delegation without depending on the real serializer), and type
// descriptors delegate straight to the typedesc package.
type fakeGraph struct{}

func (fakeGraph) WriteAnyPrimitive(w io.Writer, v any) error {
	switch val := v.(type) {
	case bool:
		b := byte(0)
		if val {
			b = 1
		}

		_, err := w.Write([]byte{b})

		return err
	case int32:
		return writeLEB128Uint32(w, uint32(val))
	case uint32:
		return writeLEB128Uint32(w, val)
	case string:
		if err := writeLEB128Uint64(w, uint64(len(val))); err != nil {
			return err
		}
		_, err := w.Write([]byte(val))

		return err
	default:
		return fmt.Errorf("fakeGraph: unsupported primitive type %T", v)
	}
}

func (fakeGraph) ReadAnyPrimitive(r ByteReader, kind reflect.Kind) (any, error) {
	switch kind {
	case reflect.Bool:
		b, err := r.ReadByte()
		if err != nil {
			return nil, errs.ErrUnexpectedEndOfStream
		}

		return b != 0, nil
	case reflect.Int32:
		v, _, err := leb128.ReadUint32(r)

		return int32(v), err
	case reflect.Uint32:
		v, _, err := leb128.ReadUint32(r)

		return v, err
	case reflect.String:
		n, _, err := leb128.ReadUint64(r)
		if err != nil {
			return nil, err
		}

		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errs.ErrUnexpectedEndOfStream
		}

		return string(buf), nil
	default:
		return nil, fmt.Errorf("fakeGraph: unsupported kind %s", kind)
	}
}

func (g fakeGraph) WriteObject(w io.Writer, obj any) error {
	return g.WriteAnyPrimitive(w, obj.(string))
}

func (g fakeGraph) ReadObject(r ByteReader) (any, error) {
	return g.ReadAnyPrimitive(r, reflect.String)
}

func (fakeGraph) WriteTypeDescriptor(w io.Writer, d typedesc.Descriptor) error {
	_, err := w.Write(typedesc.Append(nil, d))

	return err
}

func (fakeGraph) ReadTypeDescriptor(r ByteReader) (typedesc.Descriptor, error) {
	return typedesc.Read(r)
}

func TestWriteArchiveFramingRoundTrip(t *testing.T) {
	var out bytes.Buffer
	g := fakeGraph{}
	typ := typedesc.Descriptor{Name: "myapp.Widget"}

	ar := OpenWriteArchive(g, &out, typ, 3)
	require.NoError(t, WritePrimitive(ar, int32(42)))
	require.NoError(t, WritePrimitive(ar, "hello"))
	require.NoError(t, ar.Finish())

	data := out.Bytes()
	require.Equal(t, byte(wire.ArchiveStart), data[0])
	require.Equal(t, byte(wire.ArchiveEnd), data[len(data)-1])

	r := bytes.NewReader(data)
	tag, err := readTag(r)
	require.NoError(t, err)
	require.Equal(t, wire.ArchiveStart, tag)

	desc, err := g.ReadTypeDescriptor(bufioWrap(r))
	require.NoError(t, err)
	require.Equal(t, typ.Key(), desc.Key())

	version, _, err := leb128.ReadUint32(bufioWrap(r))
	require.NoError(t, err)
	require.Equal(t, uint32(3), version)

	bodyLen, _, err := leb128.ReadUint64(bufioWrap(r))
	require.NoError(t, err)

	readAr, err := OpenReadArchive(g, r, typ, 3, int64(bodyLen))
	require.NoError(t, err)

	v, err := ReadPrimitive[int32](readAr)
	require.NoError(t, err)
	require.Equal(t, int32(42), v)

	s, err := ReadPrimitive[string](readAr)
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	require.NoError(t, readAr.FinishRead())

	endTag, err := readTag(r)
	require.NoError(t, err)
	require.Equal(t, wire.ArchiveEnd, endTag)
}

// bufioWrap adapts a *bytes.Reader (which already implements ReadByte and
// Read) to the ByteReader shape expected by the helpers under test.
func bufioWrap(r *bytes.Reader) ByteReader { return r }

func TestWriteBaseArchiveHasNoLengthPrefixOrEndTag(t *testing.T) {
	var out bytes.Buffer
	g := fakeGraph{}
	typ := typedesc.Descriptor{Name: "myapp.Derived"}
	baseType := typedesc.Descriptor{Name: "myapp.Base"}

	ar := OpenWriteArchive(g, &out, typ, 1)
	err := ar.WriteBase(baseType, 1, func(base *Archive) error {
		return WritePrimitive(base, "base-data")
	})
	require.NoError(t, err)
	require.NoError(t, ar.Finish())

	// The body (inside ArchiveStart/ArchiveEnd) must contain BaseArchiveStart
	// directly followed by the base type descriptor, version, and payload --
	// with no body_len of its own and no trailing ArchiveEnd for the base.
	data := out.Bytes()
	bodyStart := bytes.IndexByte(data, byte(wire.BaseArchiveStart))
	require.GreaterOrEqual(t, bodyStart, 0)

	body := append([]byte{byte(wire.BaseArchiveStart)}, typedesc.Append(nil, baseType)...)
	body = append(body, 0x01, 0x09) // base version 1, then the string's length prefix
	body = append(body, "base-data"...)
	want := append([]byte{byte(wire.ArchiveStart)}, typedesc.Append(nil, typ)...)
	want = append(want, 0x01, byte(len(body))) // version 1, body_len
	want = append(want, body...)
	want = append(want, byte(wire.ArchiveEnd))
	require.Equal(t, want, data)
}

func TestOpenBaseArchiveRejectsTypeMismatch(t *testing.T) {
	var out bytes.Buffer
	g := fakeGraph{}
	typ := typedesc.Descriptor{Name: "myapp.Derived"}
	baseType := typedesc.Descriptor{Name: "myapp.Base"}

	ar := OpenWriteArchive(g, &out, typ, 1)
	require.NoError(t, ar.WriteBase(baseType, 1, func(base *Archive) error {
		return WritePrimitive(base, "x")
	}))
	require.NoError(t, ar.Finish())

	r := bytes.NewReader(out.Bytes())
	_, err := readTag(r) // ArchiveStart
	require.NoError(t, err)
	_, err = g.ReadTypeDescriptor(r)
	require.NoError(t, err)
	_, _, err = leb128.ReadUint32(r) // version
	require.NoError(t, err)
	_, _, err = leb128.ReadUint64(r) // body_len
	require.NoError(t, err)

	readAr, err := OpenReadArchive(g, r, typ, 1, int64(out.Len()))
	require.NoError(t, err)

	_, err = readAr.OpenBaseArchive(typedesc.Descriptor{Name: "myapp.WrongBase"})
	require.Error(t, err)
}

func TestWriteBufferRoundTrip(t *testing.T) {
	var out bytes.Buffer
	g := fakeGraph{}
	typ := typedesc.Descriptor{Name: "myapp.BlobHolder"}

	ar := OpenWriteArchive(g, &out, typ, 1)
	payload := bytes.Repeat([]byte("abc"), 100)
	require.NoError(t, ar.WriteBuffer(payload, compress.CompressionNone))
	require.NoError(t, ar.Finish())

	r := bytes.NewReader(out.Bytes())
	_, _ = readTag(r)
	_, _ = g.ReadTypeDescriptor(r)
	_, _, _ = leb128.ReadUint32(r)
	bodyLen, _, _ := leb128.ReadUint64(r)

	readAr, err := OpenReadArchive(g, r, typ, 1, int64(bodyLen))
	require.NoError(t, err)

	got, err := readAr.ReadBuffer()
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestArchiveWriteSideRejectsReadOperations(t *testing.T) {
	var out bytes.Buffer
	ar := OpenWriteArchive(fakeGraph{}, &out, typedesc.Descriptor{Name: "x"}, 1)

	_, err := ReadPrimitive[int32](ar)
	require.ErrorIs(t, err, errs.ErrNotSupported)

	_, err = ar.ReadObject()
	require.ErrorIs(t, err, errs.ErrNotSupported)

	_, err = ar.ReadBuffer()
	require.ErrorIs(t, err, errs.ErrNotSupported)
}

func TestRequireVersionRejectsTooNew(t *testing.T) {
	ar := &Archive{typ: typedesc.Descriptor{Name: "myapp.Widget"}, version: 2}

	err := ar.RequireVersion(1)
	require.Error(t, err)

	var verErr *errs.VersionNotSupportedError
	require.ErrorAs(t, err, &verErr)
	require.Equal(t, uint32(2), verErr.Requested)
	require.Equal(t, uint32(1), verErr.MaxSupported)
}
