// Package errs defines the error taxonomy surfaced by the serializer, the
// archive, the type registry, and the restricted stream view.
//
// Parameterless failure kinds are exported sentinel values suitable for
// errors.Is. Failure kinds that carry context (a type name, a requested
// version, an expected vs. actual tag) are exported struct types that wrap
// a sentinel via Unwrap, so callers can match either the sentinel or the
// concrete type with errors.As.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedEndOfStream indicates fewer bytes were available than required.
	ErrUnexpectedEndOfStream = errors.New("serialization: unexpected end of stream")
	// ErrInvalidTag indicates a byte was read that is not a member of the payload-tag alphabet.
	ErrInvalidTag = errors.New("serialization: invalid payload tag")
	// ErrLeb128Overflow indicates an encoded LEB128/SLEB128 integer exceeded its declared width
	// without a terminating byte appearing within the maximum byte count for its width.
	ErrLeb128Overflow = errors.New("serialization: leb128 value overflows declared width")
	// ErrUnknownTypeId indicates a TypeId referenced an id never assigned in this operation.
	ErrUnknownTypeId = errors.New("serialization: unknown type id")
	// ErrUnknownObjectId indicates an AlreadySerialized tag referenced an id never assigned.
	ErrUnknownObjectId = errors.New("serialization: unknown object id")
	// ErrNotSupported indicates a write/flush/length operation on a read-only stream view.
	ErrNotSupported = errors.New("serialization: operation not supported")
	// ErrClosed indicates an operation on a disposed stream view.
	ErrClosed = errors.New("serialization: stream view is closed")
	// ErrInvalidSeek indicates a Seek target fell outside [0, length], or a
	// SeekEnd with a positive offset was requested.
	ErrInvalidSeek = errors.New("serialization: invalid seek target")
	// ErrNilSerializer indicates a nil *Serializer was used.
	ErrNilSerializer = errors.New("serialization: nil serializer")
	// ErrNilRoot indicates a nil root object was passed to Write where a value was required.
	ErrNilRoot = errors.New("serialization: nil root object")
)

// UnexpectedTagError reports that a tag did not match what the reader expected,
// e.g. a missing ArchiveEnd.
type UnexpectedTagError struct {
	Expected string
	Actual   string
}

func (e *UnexpectedTagError) Error() string {
	return fmt.Sprintf("serialization: unexpected tag: expected %s, got %s", e.Expected, e.Actual)
}

func (e *UnexpectedTagError) Unwrap() error { return errUnexpectedTag }

var errUnexpectedTag = errors.New("serialization: unexpected tag")

// UnknownTypeError reports that a type descriptor could not be resolved via the registry.
type UnknownTypeError struct {
	Name string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("serialization: unknown type %q", e.Name)
}

func (e *UnknownTypeError) Unwrap() error { return errUnknownType }

var errUnknownType = errors.New("serialization: unknown type")

// VersionNotSupportedError reports that a codec refused a requested version.
type VersionNotSupportedError struct {
	Type         string
	Requested    uint32
	MaxSupported uint32
}

func (e *VersionNotSupportedError) Error() string {
	return fmt.Sprintf("serialization: type %q requested version %d exceeds max supported version %d",
		e.Type, e.Requested, e.MaxSupported)
}

func (e *VersionNotSupportedError) Unwrap() error { return errVersionNotSupported }

var errVersionNotSupported = errors.New("serialization: version not supported")

// CodecMisconfiguredError reports a registry-time diagnostic: a candidate type
// satisfied some but not all of the internal-codec predicates.
type CodecMisconfiguredError struct {
	Type   string
	Reason string
}

func (e *CodecMisconfiguredError) Error() string {
	return fmt.Sprintf("serialization: codec misconfigured for type %q: %s", e.Type, e.Reason)
}

func (e *CodecMisconfiguredError) Unwrap() error { return errCodecMisconfigured }

var errCodecMisconfigured = errors.New("serialization: codec misconfigured")
