// Package leb128 implements the LEB128 (unsigned) and SLEB128 (signed)
// variable-length integer encodings used by the wire format's "_LEB128"
// payload tags.
//
// Each byte carries 7 payload bits in its low bits and a continuation flag
// in bit 7: a set continuation bit means more bytes follow. SLEB128 additionally
// sign-extends the final byte based on bit 6 of its last payload byte, per the
// standard DWARF LEB128 definition.
//
// All functions are pure and stateless; callers own their byte slices.
package leb128

import (
	"github.com/griffinplus/go-serialization/errs"
)

// Maximum encoded byte counts for each width, per the standard LEB128 tables.
const (
	MaxBytesUint32 = 5
	MaxBytesInt32  = 5
	MaxBytesUint64 = 10
	MaxBytesInt64  = 10
)

// ByteCountUint32 returns the number of bytes needed to LEB128-encode v.
func ByteCountUint32(v uint32) int {
	return ByteCountUint64(uint64(v))
}

// ByteCountUint64 returns the number of bytes needed to LEB128-encode v.
func ByteCountUint64(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}

	return n
}

// ByteCountInt32 returns the number of bytes needed to SLEB128-encode v.
func ByteCountInt32(v int32) int {
	return ByteCountInt64(int64(v))
}

// ByteCountInt64 returns the number of bytes needed to SLEB128-encode v.
func ByteCountInt64(v int64) int {
	n := 0
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		}
		n++
	}

	return n
}

// WriteUint32 appends the LEB128 encoding of v to dst and returns the
// extended slice along with the number of bytes written.
func WriteUint32(dst []byte, v uint32) ([]byte, int) {
	return WriteUint64(dst, uint64(v))
}

// WriteUint64 appends the LEB128 encoding of v to dst and returns the
// extended slice along with the number of bytes written.
func WriteUint64(dst []byte, v uint64) ([]byte, int) {
	start := len(dst)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			break
		}
	}

	return dst, len(dst) - start
}

// WriteInt32 appends the SLEB128 encoding of v to dst and returns the
// extended slice along with the number of bytes written.
func WriteInt32(dst []byte, v int32) ([]byte, int) {
	return WriteInt64(dst, int64(v))
}

// WriteInt64 appends the SLEB128 encoding of v to dst and returns the
// extended slice along with the number of bytes written.
//
// The terminator rule: when the remaining value is 0, the final byte's bit 6
// must be 0; when the remaining value is -1, the final byte's bit 6 must be
// 1. Otherwise a continuation byte is required.
func WriteInt64(dst []byte, v int64) ([]byte, int) {
	start := len(dst)
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		dst = append(dst, b)
	}

	return dst, len(dst) - start
}

// byteReader abstracts the minimal read-one-byte contract leb128 needs so
// callers can feed it a []byte cursor or an io.ByteReader-backed stream.
type byteReader interface {
	ReadByte() (byte, error)
}

// ReadUint32 decodes a LEB128-encoded uint32 from r.
func ReadUint32(r byteReader) (uint32, int, error) {
	v, n, err := ReadUint64(r)
	if err != nil {
		return 0, n, err
	}
	if v > 0xFFFFFFFF {
		return 0, n, errs.ErrLeb128Overflow
	}

	return uint32(v), n, nil
}

// ReadUint64 decodes a LEB128-encoded uint64 from r.
//
// Returns errs.ErrUnexpectedEndOfStream if r runs out of bytes mid-integer,
// and errs.ErrLeb128Overflow if no terminating byte appears within
// MaxBytesUint64 bytes.
func ReadUint64(r byteReader) (uint64, int, error) {
	var result uint64
	var shift uint
	n := 0

	for {
		if n >= MaxBytesUint64 {
			return 0, n, errs.ErrLeb128Overflow
		}

		b, err := r.ReadByte()
		if err != nil {
			return 0, n, errs.ErrUnexpectedEndOfStream
		}
		n++

		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, n, nil
		}
		shift += 7
	}
}

// ReadInt32 decodes a SLEB128-encoded int32 from r.
func ReadInt32(r byteReader) (int32, int, error) {
	v, n, err := ReadInt64(r)
	if err != nil {
		return 0, n, err
	}
	if v > 0x7FFFFFFF || v < -0x80000000 {
		return 0, n, errs.ErrLeb128Overflow
	}

	return int32(v), n, nil
}

// ReadInt64 decodes a SLEB128-encoded int64 from r.
//
// The sign-extension shift on the final byte always uses the 64-bit shift
// width, regardless of the requested result width, so behavior near the
// 32-bit boundary is unambiguous.
func ReadInt64(r byteReader) (int64, int, error) {
	var result int64
	var shift uint
	n := 0
	var b byte

	for {
		if n >= MaxBytesInt64 {
			return 0, n, errs.ErrLeb128Overflow
		}

		var err error
		b, err = r.ReadByte()
		if err != nil {
			return 0, n, errs.ErrUnexpectedEndOfStream
		}
		n++

		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}

	// Sign-extend using the full 64-bit shift width if the sign bit of the
	// final payload byte is set and we haven't already filled the register.
	if shift < 64 && (b&0x40) != 0 {
		result |= -1 << shift
	}

	return result, n, nil
}
