// Package stream provides a bounded, read-only view over a backing stream.
//
// An archive body is a contiguous sub-range of the underlying transport: a
// View lets a codec read exactly that range — and nothing past it — without
// owning or closing the backing stream itself.
package stream

import (
	"io"

	"github.com/griffinplus/go-serialization/errs"
)

// View exposes a sub-range of a backing io.ReadSeeker as if it were a
// standalone, read-only stream with its own length and position.
//
// View does not own the backing stream: closing a View never closes the
// backing stream. Each Read seeks the backing stream to the view's position
// and leaves it just past the bytes read; Seek moves only the view's own
// position, not the backing stream's.
type View struct {
	backing io.ReadSeeker
	origin  int64
	length  int64
	pos     int64
	closed  bool
}

// NewView creates a View starting at the backing stream's current position,
// bounded to the lesser of length and the bytes remaining in the backing
// stream.
func NewView(backing io.ReadSeeker, length int64) (*View, error) {
	origin, err := backing.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	end, err := backing.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}

	if _, err := backing.Seek(origin, io.SeekStart); err != nil {
		return nil, err
	}

	if avail := end - origin; length > avail {
		length = avail
	}

	return &View{backing: backing, origin: origin, length: length}, nil
}

// Len reports the view's fixed length.
func (v *View) Len() int64 { return v.length }

// Position reports the current read position relative to the view's origin.
func (v *View) Position() int64 { return v.pos }

// Read reads into p, never advancing past the view's length.
func (v *View) Read(p []byte) (int, error) {
	if v.closed {
		return 0, errs.ErrClosed
	}

	remaining := v.length - v.pos
	if remaining <= 0 {
		return 0, io.EOF
	}

	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	if _, err := v.backing.Seek(v.origin+v.pos, io.SeekStart); err != nil {
		return 0, err
	}

	n, err := v.backing.Read(p)
	v.pos += int64(n)

	return n, err
}

// Write always fails: a View is read-only.
func (v *View) Write([]byte) (int, error) {
	if v.closed {
		return 0, errs.ErrClosed
	}

	return 0, errs.ErrNotSupported
}

// Flush always fails: a View is read-only.
func (v *View) Flush() error {
	if v.closed {
		return errs.ErrClosed
	}

	return errs.ErrNotSupported
}

// SetLength always fails: a View's length is fixed at construction.
func (v *View) SetLength(int64) error {
	if v.closed {
		return errs.ErrClosed
	}

	return errs.ErrNotSupported
}

// Seek moves the view's position, translating to the backing stream.
//
// A SeekEnd with a positive offset is rejected: "seek from end" only makes
// sense for offsets that land at or before the view's length.
func (v *View) Seek(offset int64, whence int) (int64, error) {
	if v.closed {
		return 0, errs.ErrClosed
	}

	var target int64

	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = v.pos + offset
	case io.SeekEnd:
		if offset > 0 {
			return 0, errs.ErrInvalidSeek
		}
		target = v.length + offset
	default:
		return 0, errs.ErrInvalidSeek
	}

	if target < 0 || target > v.length {
		return 0, errs.ErrInvalidSeek
	}

	v.pos = target

	return target, nil
}

// Close marks the view closed. Any further operation fails with ErrClosed.
// Close never touches the backing stream.
func (v *View) Close() error {
	v.closed = true

	return nil
}
