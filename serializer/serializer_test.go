package serializer

import (
	"bytes"
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/griffinplus/go-serialization/archive"
	"github.com/griffinplus/go-serialization/compress"
	"github.com/griffinplus/go-serialization/registry"
)

// ==============================================================================
// Helper types

type point struct {
	X, Y int32
}

func (p *point) Serialize(ar *archive.Archive, version uint32) error {
	if err := ar.WriteObject(p.X); err != nil {
		return err
	}

	return ar.WriteObject(p.Y)
}

func fromArchivePoint(ar *archive.Archive) (any, error) {
	x, err := ar.ReadObject()
	if err != nil {
		return nil, err
	}
	y, err := ar.ReadObject()
	if err != nil {
		return nil, err
	}

	return &point{X: x.(int32), Y: y.(int32)}, nil
}

// ring holds a reference to another ring, used to exercise plain (non-cyclic)
// struct-to-struct nesting.
type ring struct {
	Label string
	Next  *ring
}

func (r *ring) Serialize(ar *archive.Archive, version uint32) error {
	if err := ar.WriteObject(r.Label); err != nil {
		return err
	}

	return ar.WriteObject(r.Next)
}

func fromArchiveRing(ar *archive.Archive) (any, error) {
	label, err := ar.ReadObject()
	if err != nil {
		return nil, err
	}
	next, err := ar.ReadObject()
	if err != nil {
		return nil, err
	}

	r := &ring{Label: label.(string)}
	if next != nil {
		r.Next = next.(*ring)
	}

	return r, nil
}

// blobHolder carries an opaque payload through archive.WriteBuffer/ReadBuffer
// rather than field-by-field encoding, exercising the compress package's
// CompressionType selection from within a real Serializer round-trip.
type blobHolder struct {
	Payload []byte
}

func (b *blobHolder) Serialize(ar *archive.Archive, version uint32) error {
	return ar.WriteBuffer(b.Payload, compress.CompressionZstd)
}

func fromArchiveBlobHolder(ar *archive.Archive) (any, error) {
	data, err := ar.ReadBuffer()
	if err != nil {
		return nil, err
	}

	return &blobHolder{Payload: data}, nil
}

type colorEnum int32

const (
	colorRed colorEnum = iota
	colorGreen
	colorBlue
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.Default()

	err := r.RegisterInternalCodec("test.Point", reflect.TypeOf(&point{}), 1,
		func(ar *archive.Archive) (any, error) { return fromArchivePoint(ar) })
	require.NoError(t, err)

	err = r.RegisterInternalCodec("test.Ring", reflect.TypeOf(&ring{}), 1,
		func(ar *archive.Archive) (any, error) { return fromArchiveRing(ar) })
	require.NoError(t, err)

	err = r.RegisterInternalCodec("test.BlobHolder", reflect.TypeOf(&blobHolder{}), 1,
		func(ar *archive.Archive) (any, error) { return fromArchiveBlobHolder(ar) })
	require.NoError(t, err)

	return r
}

func newTestSerializer(t *testing.T, opt Optimization) *Serializer {
	t.Helper()
	s := NewSerializer(opt)
	s.reg = newTestRegistry(t)

	return s
}

func roundTrip(t *testing.T, s *Serializer, v any) any {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, s.Write(context.Background(), &buf, v))

	got, err := s.Read(context.Background(), bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	return got
}

// ==============================================================================
// Primitive round-trip, including boundary values

func TestPrimitiveRoundTripSpeedMode(t *testing.T) {
	s := newTestSerializer(t, Speed)

	cases := []any{
		true, false,
		int8(-128), int8(127), uint8(255),
		int16(-1), int16(300), int32(0x7FFFFFFF), int32(300), int32(-1), int32(0),
		uint32(300), int64(-1), uint64(1 << 40),
		float32(3.5), float64(-2.25),
		"", "hello, world",
	}

	for _, c := range cases {
		got := roundTrip(t, s, c)
		require.Equal(t, c, got)
	}
}

func TestPrimitiveRoundTripSizeMode(t *testing.T) {
	s := newTestSerializer(t, Size)

	cases := []any{
		int32(0x7FFFFFFF), // outside the favorable LEB128 range: stays native
		int32(300), int32(-1), int32(0),
		int64(1), uint64(2),
	}

	for _, c := range cases {
		got := roundTrip(t, s, c)
		require.Equal(t, c, got)
	}
}

func TestInt32FavorableRangeSelectsCompactTag(t *testing.T) {
	s := newTestSerializer(t, Size)

	var buf bytes.Buffer
	require.NoError(t, s.Write(context.Background(), &buf, int32(300)))

	// header byte + Int32LEB128 tag + 2-byte payload = 4 bytes total.
	require.Len(t, buf.Bytes(), 4)
}

func TestInt32OutOfFavorableRangeKeepsNativeTag(t *testing.T) {
	s := newTestSerializer(t, Size)

	var buf bytes.Buffer
	require.NoError(t, s.Write(context.Background(), &buf, int32(0x7FFFFFFF)))

	// header byte + Int32Native tag + 4-byte payload = 6 bytes total.
	require.Len(t, buf.Bytes(), 6)
}

// ==============================================================================
// Endianness

func TestCrossEndianRead(t *testing.T) {
	s := newTestSerializer(t, Speed)

	var buf bytes.Buffer
	require.NoError(t, s.Write(context.Background(), &buf, int32(123456)))

	// Flip the stored header bit so Read decodes the payload as though it
	// came from a host of the opposite endianness, then swap the payload
	// bytes to match what that host would actually have written.
	flipped := append([]byte(nil), buf.Bytes()...)
	flipped[0] ^= 0x01
	payload := flipped[2:6]
	payload[0], payload[1], payload[2], payload[3] = payload[3], payload[2], payload[1], payload[0]

	got, err := s.Read(context.Background(), bytes.NewReader(flipped))
	require.NoError(t, err)
	require.Equal(t, int32(123456), got)
}

// ==============================================================================
// Arrays

func TestPrimitiveArrayRoundTrip(t *testing.T) {
	s := newTestSerializer(t, Size)

	got := roundTrip(t, s, []int32{1, 300, -1, 0x7FFFFFFF})
	require.Equal(t, []int32{1, 300, -1, 0x7FFFFFFF}, got)
}

func TestEmptyArrayRoundTrip(t *testing.T) {
	s := newTestSerializer(t, Speed)

	got := roundTrip(t, s, []uint64{})
	require.Equal(t, []uint64{}, got)
}

func TestObjectArrayRoundTrip(t *testing.T) {
	s := newTestSerializer(t, Speed)

	got := roundTrip(t, s, []any{&point{X: 1, Y: 2}, &point{X: 3, Y: 4}})
	slice := got.([]any)
	require.Len(t, slice, 2)
	require.Equal(t, &point{X: 1, Y: 2}, slice[0])
	require.Equal(t, &point{X: 3, Y: 4}, slice[1])
}

// ==============================================================================
// Object identity

func TestSharedStringIsReadAsTheSameObjectIdentity(t *testing.T) {
	s := newTestSerializer(t, Speed)

	shared := "shared-value"
	got := roundTrip(t, s, []any{shared, shared})

	slice := got.([]any)
	require.Equal(t, shared, slice[0])
	require.Equal(t, shared, slice[1])
}

func TestNestedObjectChainRoundTrip(t *testing.T) {
	s := newTestSerializer(t, Speed)

	tail := &ring{Label: "tail"}
	head := &ring{Label: "head", Next: tail}

	got := roundTrip(t, s, head)
	r := got.(*ring)
	require.Equal(t, "head", r.Label)
	require.NotNil(t, r.Next)
	require.Equal(t, "tail", r.Next.Label)
	require.Nil(t, r.Next.Next)
}

// TestSharedCodecBackedStructPreservesIdentity exercises a shared reference
// reached through a codec-backed struct whose own Serialize/FromArchive
// writes/reads further aliasable values (here, a string field): the id
// sequence must line up on both sides, or the second element's
// AlreadySerialized back-reference resolves to the wrong object.
func TestSharedCodecBackedStructPreservesIdentity(t *testing.T) {
	s := newTestSerializer(t, Speed)

	p := &ring{Label: "shared"}
	got := roundTrip(t, s, []any{p, p})

	slice := got.([]any)
	require.Same(t, slice[0], slice[1])
	require.Equal(t, "shared", slice[0].(*ring).Label)
}

func TestNilReferenceRoundTrip(t *testing.T) {
	s := newTestSerializer(t, Speed)

	var r *ring
	got := roundTrip(t, s, r)
	require.Nil(t, got)
}

// ==============================================================================
// Type id stability

func TestTypeDescriptorWrittenOnceAndReferencedThereafter(t *testing.T) {
	s := newTestSerializer(t, Speed)

	var buf bytes.Buffer
	require.NoError(t, s.Write(context.Background(), &buf, []any{&point{X: 1, Y: 1}, &point{X: 2, Y: 2}, &point{X: 3, Y: 3}}))
	require.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("test.Point")), "the type name should be written in full only once")

	got := roundTrip(t, s, []any{&point{X: 1, Y: 1}, &point{X: 2, Y: 2}, &point{X: 3, Y: 3}})
	slice := got.([]any)
	require.Len(t, slice, 3)
	for i, want := range []int32{1, 2, 3} {
		p := slice[i].(*point)
		require.Equal(t, want, p.X)
		require.Equal(t, want, p.Y)
	}
}

// ==============================================================================
// Enum support

func TestEnumRoundTripWithRegisteredType(t *testing.T) {
	RegisterEnumType("serializer.colorEnum", reflect.TypeOf(colorEnum(0)))

	s := newTestSerializer(t, Speed)
	got := roundTrip(t, s, colorGreen)
	require.Equal(t, colorGreen, got)
}

func TestEnumRoundTripWithoutRegistrationFallsBackToInt64(t *testing.T) {
	type unregisteredEnum int32

	s := newTestSerializer(t, Speed)
	got := roundTrip(t, s, unregisteredEnum(7))
	require.Equal(t, int64(7), got)
}

// ==============================================================================
// Archive framing / multi-dimensional arrays

func TestInt32MatrixRoundTrip(t *testing.T) {
	s := newTestSerializer(t, Speed)

	m := Int32Matrix{
		Dims: []DimensionBounds{{LowerBound: 0, Length: 2}, {LowerBound: 0, Length: 3}},
		Data: []int32{1, 2, 3, 4, 5, 6},
	}

	got := roundTrip(t, s, m)
	require.Equal(t, m, got)
}

func TestCompressedBufferRoundTripThroughArchive(t *testing.T) {
	s := newTestSerializer(t, Speed)

	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog"), 128)
	got := roundTrip(t, s, &blobHolder{Payload: payload})

	require.Equal(t, payload, got.(*blobHolder).Payload)
}

// ==============================================================================
// Version refusal

func TestVersionNotSupportedIsSurfacedByCodec(t *testing.T) {
	r := registry.Default()
	err := r.RegisterInternalCodec("test.Versioned", reflect.TypeOf(&versioned{}), 3,
		func(ar *archive.Archive) (any, error) {
			v := &versioned{}

			return v, v.populate(ar)
		})
	require.NoError(t, err)

	s := NewSerializer(Speed)
	s.reg = r

	var buf bytes.Buffer
	require.NoError(t, s.Write(context.Background(), &buf, &versioned{}))

	_, err = s.Read(context.Background(), bytes.NewReader(buf.Bytes()))
	require.Error(t, err)
}

type versioned struct{}

func (v *versioned) Serialize(ar *archive.Archive, version uint32) error {
	return nil
}

func (v *versioned) populate(ar *archive.Archive) error {
	return ar.RequireVersion(1) // the entry above is registered at version 3
}

// ==============================================================================
// Speed vs Size equivalence

func TestSpeedAndSizeModesProduceEquivalentValues(t *testing.T) {
	cases := []int64{0, -1, 300, 1 << 40, -(1 << 40)}

	speed := newTestSerializer(t, Speed)
	size := newTestSerializer(t, Size)

	for _, c := range cases {
		require.Equal(t, roundTrip(t, speed, c), roundTrip(t, size, c))
	}
}
