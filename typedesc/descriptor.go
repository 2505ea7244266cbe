// Package typedesc implements the on-wire type descriptor: the identity of a
// concrete or closed-generic type, written in full on first occurrence and
// referenced by TypeId thereafter.
package typedesc

import (
	"strings"

	"github.com/griffinplus/go-serialization/errs"
	"github.com/griffinplus/go-serialization/leb128"
	"github.com/griffinplus/go-serialization/wire"
)

// Descriptor is the on-wire identity of a type: a fully qualified name plus,
// for closed generic types, an ordered list of type-argument descriptors.
type Descriptor struct {
	Name     string
	TypeArgs []Descriptor
}

// IsGeneric reports whether d describes a closed generic type.
func (d Descriptor) IsGeneric() bool {
	return len(d.TypeArgs) > 0
}

// GenericDefinition returns the descriptor for this type's open generic
// definition (same name, no type arguments) — used by the registry's
// two-step generic lookup (exact type, then generic definition).
func (d Descriptor) GenericDefinition() Descriptor {
	return Descriptor{Name: d.Name}
}

// Key returns a canonical string uniquely identifying this descriptor,
// suitable for use as a registry/type-table map key.
func (d Descriptor) Key() string {
	if !d.IsGeneric() {
		return d.Name
	}

	var b strings.Builder
	b.WriteString(d.Name)
	b.WriteByte('[')
	for i, arg := range d.TypeArgs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(arg.Key())
	}
	b.WriteByte(']')

	return b.String()
}

// byteReader is the minimal read contract typedesc needs: ReadByte for tags
// and leb128 lengths, Read for the raw UTF-8 name bytes.
type byteReader interface {
	ReadByte() (byte, error)
	Read(p []byte) (int, error)
}

// Append writes d's full type_desc grammar — (Type|GenericType) name
// [leb128(n) type_desc^n] — to dst and returns the extended slice.
func Append(dst []byte, d Descriptor) []byte {
	if d.IsGeneric() {
		dst = append(dst, byte(wire.GenericType))
	} else {
		dst = append(dst, byte(wire.Type))
	}

	dst = appendUTF8(dst, d.Name)

	if d.IsGeneric() {
		dst, _ = leb128.WriteUint32(dst, uint32(len(d.TypeArgs)))
		for _, arg := range d.TypeArgs {
			dst = appendDescriptorBody(dst, arg)
		}
	}

	return dst
}

// appendDescriptorBody appends a nested type descriptor's tag + name + args,
// identical to Append but factored out for clarity at call sites.
func appendDescriptorBody(dst []byte, d Descriptor) []byte {
	return Append(dst, d)
}

func appendUTF8(dst []byte, s string) []byte {
	dst, _ = leb128.WriteUint32(dst, uint32(len(s)))
	dst = append(dst, s...)

	return dst
}

// Read consumes one type_desc from r. The leading tag must be wire.Type or
// wire.GenericType; any other tag is an error.
func Read(r byteReader) (Descriptor, error) {
	tagByte, err := r.ReadByte()
	if err != nil {
		return Descriptor{}, errs.ErrUnexpectedEndOfStream
	}
	tag := wire.Tag(tagByte)

	switch tag {
	case wire.Type:
		name, err := readUTF8(r)
		if err != nil {
			return Descriptor{}, err
		}

		return Descriptor{Name: name}, nil
	case wire.GenericType:
		name, err := readUTF8(r)
		if err != nil {
			return Descriptor{}, err
		}

		n, _, err := leb128.ReadUint32(r)
		if err != nil {
			return Descriptor{}, err
		}

		args := make([]Descriptor, 0, n)
		for range n {
			arg, err := readDescriptorBody(r)
			if err != nil {
				return Descriptor{}, err
			}
			args = append(args, arg)
		}

		return Descriptor{Name: name, TypeArgs: args}, nil
	default:
		return Descriptor{}, &errs.UnexpectedTagError{Expected: "Type or GenericType", Actual: tag.String()}
	}
}

// readDescriptorBody reads a nested type descriptor, which on the wire is
// indistinguishable in shape from a top-level one.
func readDescriptorBody(r byteReader) (Descriptor, error) {
	return Read(r)
}

func readUTF8(r byteReader) (string, error) {
	n, _, err := leb128.ReadUint32(r)
	if err != nil {
		return "", err
	}

	buf := make([]byte, n)
	if n > 0 {
		read := 0
		for read < int(n) {
			m, err := r.Read(buf[read:])
			if m == 0 && err != nil {
				return "", errs.ErrUnexpectedEndOfStream
			}
			read += m
		}
	}

	return string(buf), nil
}
