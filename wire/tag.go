// Package wire defines the payload-tag alphabet: the closed, one-byte
// enumeration that discriminates every encodable shape on the wire, plus the
// handful of fixed framing byte sequences built directly on top of it.
//
// Tag assignments are stable: once a value is fixed here it must never be
// reused for a different shape, even across later additions, so the
// constants below are laid out in blocks with headroom for extension.
package wire

// Tag is a one-byte discriminator at the start of every value on the wire.
type Tag byte

const (
	// Framing and identity tags.
	NullReference     Tag = 0x00
	AlreadySerialized Tag = 0x01
	Type              Tag = 0x02
	GenericType       Tag = 0x03
	TypeId            Tag = 0x04
	TypeObject        Tag = 0x05
	Object            Tag = 0x06
	Buffer            Tag = 0x07
	Enum              Tag = 0x08
	ArchiveStart      Tag = 0x09
	ArchiveEnd        Tag = 0x0A
	BaseArchiveStart  Tag = 0x0B
)

const (
	// Boolean has no native/compact split: it is already a single byte.
	BooleanFalse Tag = 0x10
	BooleanTrue  Tag = 0x11
)

const (
	CharNative    Tag = 0x12
	CharLEB128    Tag = 0x13
	SByteNative   Tag = 0x14
	ByteNative    Tag = 0x15
	Int16Native   Tag = 0x16
	Int16LEB128   Tag = 0x17
	UInt16Native  Tag = 0x18
	UInt16LEB128  Tag = 0x19
	Int32Native   Tag = 0x1A
	Int32LEB128   Tag = 0x1B
	UInt32Native  Tag = 0x1C
	UInt32LEB128  Tag = 0x1D
	Int64Native   Tag = 0x1E
	Int64LEB128   Tag = 0x1F
	UInt64Native  Tag = 0x20
	UInt64LEB128  Tag = 0x21
	Float32Native Tag = 0x22
	Float64Native Tag = 0x23
	DecimalNative Tag = 0x24
)

const (
	StringUTF8         Tag = 0x25
	StringUTF16        Tag = 0x26
	DateTimeNative     Tag = 0x27
	DateTimeOffsetNative Tag = 0x28
	GuidNative         Tag = 0x29
)

// Array tags. Each fixed-width primitive gets a _Native (raw little-endian-
// of-host bytes) and _Compact (LEB128 per element) one-dimensional variant;
// floats, decimal, DateTime/DateTimeOffset/Guid have no compact form since
// LEB128 offers them no savings. Every element kind except DateTime,
// DateTimeOffset and Guid also gets a multi-dimensional variant sharing the
// same per-element encoding as its Native form.
const (
	ArrayOfBoolNative Tag = 0x30

	ArrayOfCharNative Tag = 0x31
	ArrayOfCharCompact Tag = 0x32

	ArrayOfSByteNative Tag = 0x33
	ArrayOfByteNative  Tag = 0x34

	ArrayOfInt16Native  Tag = 0x35
	ArrayOfInt16Compact Tag = 0x36
	ArrayOfUInt16Native  Tag = 0x37
	ArrayOfUInt16Compact Tag = 0x38

	ArrayOfInt32Native  Tag = 0x39
	ArrayOfInt32Compact Tag = 0x3A
	ArrayOfUInt32Native  Tag = 0x3B
	ArrayOfUInt32Compact Tag = 0x3C

	ArrayOfInt64Native  Tag = 0x3D
	ArrayOfInt64Compact Tag = 0x3E
	ArrayOfUInt64Native  Tag = 0x3F
	ArrayOfUInt64Compact Tag = 0x40

	ArrayOfFloat32Native Tag = 0x41
	ArrayOfFloat64Native Tag = 0x42
	ArrayOfDecimalNative Tag = 0x43

	ArrayOfDateTimeNative       Tag = 0x44
	ArrayOfDateTimeOffsetNative Tag = 0x45
	ArrayOfGuidNative           Tag = 0x46

	ArrayOfObject Tag = 0x47
)

const (
	MultidimensionalArrayOfBool    Tag = 0x50
	MultidimensionalArrayOfChar    Tag = 0x51
	MultidimensionalArrayOfSByte   Tag = 0x52
	MultidimensionalArrayOfByte    Tag = 0x53
	MultidimensionalArrayOfInt16   Tag = 0x54
	MultidimensionalArrayOfUInt16  Tag = 0x55
	MultidimensionalArrayOfInt32   Tag = 0x56
	MultidimensionalArrayOfUInt32  Tag = 0x57
	MultidimensionalArrayOfInt64   Tag = 0x58
	MultidimensionalArrayOfUInt64  Tag = 0x59
	MultidimensionalArrayOfFloat32 Tag = 0x5A
	MultidimensionalArrayOfFloat64 Tag = 0x5B
	MultidimensionalArrayOfDecimal Tag = 0x5C
	MultidimensionalArrayOfObject  Tag = 0x5D
)

// names holds the alphabet's String() table. Every constant above must have
// an entry; a tag with no entry is, by definition, not part of the alphabet.
var names = map[Tag]string{
	NullReference: "NullReference", AlreadySerialized: "AlreadySerialized",
	Type: "Type", GenericType: "GenericType", TypeId: "TypeId", TypeObject: "TypeObject",
	Object: "Object", Buffer: "Buffer", Enum: "Enum",
	ArchiveStart: "ArchiveStart", ArchiveEnd: "ArchiveEnd", BaseArchiveStart: "BaseArchiveStart",
	BooleanFalse: "BooleanFalse", BooleanTrue: "BooleanTrue",
	CharNative: "CharNative", CharLEB128: "CharLEB128",
	SByteNative: "SByteNative", ByteNative: "ByteNative",
	Int16Native: "Int16Native", Int16LEB128: "Int16LEB128",
	UInt16Native: "UInt16Native", UInt16LEB128: "UInt16LEB128",
	Int32Native: "Int32Native", Int32LEB128: "Int32LEB128",
	UInt32Native: "UInt32Native", UInt32LEB128: "UInt32LEB128",
	Int64Native: "Int64Native", Int64LEB128: "Int64LEB128",
	UInt64Native: "UInt64Native", UInt64LEB128: "UInt64LEB128",
	Float32Native: "Float32Native", Float64Native: "Float64Native", DecimalNative: "DecimalNative",
	StringUTF8: "StringUTF8", StringUTF16: "StringUTF16",
	DateTimeNative: "DateTimeNative", DateTimeOffsetNative: "DateTimeOffsetNative", GuidNative: "GuidNative",
	ArrayOfBoolNative: "ArrayOfBoolNative",
	ArrayOfCharNative: "ArrayOfCharNative", ArrayOfCharCompact: "ArrayOfCharCompact",
	ArrayOfSByteNative: "ArrayOfSByteNative", ArrayOfByteNative: "ArrayOfByteNative",
	ArrayOfInt16Native: "ArrayOfInt16Native", ArrayOfInt16Compact: "ArrayOfInt16Compact",
	ArrayOfUInt16Native: "ArrayOfUInt16Native", ArrayOfUInt16Compact: "ArrayOfUInt16Compact",
	ArrayOfInt32Native: "ArrayOfInt32Native", ArrayOfInt32Compact: "ArrayOfInt32Compact",
	ArrayOfUInt32Native: "ArrayOfUInt32Native", ArrayOfUInt32Compact: "ArrayOfUInt32Compact",
	ArrayOfInt64Native: "ArrayOfInt64Native", ArrayOfInt64Compact: "ArrayOfInt64Compact",
	ArrayOfUInt64Native: "ArrayOfUInt64Native", ArrayOfUInt64Compact: "ArrayOfUInt64Compact",
	ArrayOfFloat32Native: "ArrayOfFloat32Native", ArrayOfFloat64Native: "ArrayOfFloat64Native",
	ArrayOfDecimalNative: "ArrayOfDecimalNative",
	ArrayOfDateTimeNative: "ArrayOfDateTimeNative", ArrayOfDateTimeOffsetNative: "ArrayOfDateTimeOffsetNative",
	ArrayOfGuidNative: "ArrayOfGuidNative", ArrayOfObject: "ArrayOfObject",
	MultidimensionalArrayOfBool: "MultidimensionalArrayOfBool", MultidimensionalArrayOfChar: "MultidimensionalArrayOfChar",
	MultidimensionalArrayOfSByte: "MultidimensionalArrayOfSByte", MultidimensionalArrayOfByte: "MultidimensionalArrayOfByte",
	MultidimensionalArrayOfInt16: "MultidimensionalArrayOfInt16", MultidimensionalArrayOfUInt16: "MultidimensionalArrayOfUInt16",
	MultidimensionalArrayOfInt32: "MultidimensionalArrayOfInt32", MultidimensionalArrayOfUInt32: "MultidimensionalArrayOfUInt32",
	MultidimensionalArrayOfInt64: "MultidimensionalArrayOfInt64", MultidimensionalArrayOfUInt64: "MultidimensionalArrayOfUInt64",
	MultidimensionalArrayOfFloat32: "MultidimensionalArrayOfFloat32", MultidimensionalArrayOfFloat64: "MultidimensionalArrayOfFloat64",
	MultidimensionalArrayOfDecimal: "MultidimensionalArrayOfDecimal", MultidimensionalArrayOfObject: "MultidimensionalArrayOfObject",
}

// String returns the tag's name, or "Unknown" if it is not part of the alphabet.
func (t Tag) String() string {
	if name, ok := names[t]; ok {
		return name
	}

	return "Unknown"
}

// Valid reports whether t is a member of the closed payload-tag alphabet.
func (t Tag) Valid() bool {
	_, ok := names[t]

	return ok
}
