package stream

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/griffinplus/go-serialization/errs"
)

func newBackingAt(data []byte, pos int64) *bytes.Reader {
	r := bytes.NewReader(data)
	_, _ = r.Seek(pos, io.SeekStart)

	return r
}

func TestNewViewBoundsToBackingLength(t *testing.T) {
	backing := newBackingAt([]byte("0123456789"), 2)

	v, err := NewView(backing, 100)
	require.NoError(t, err)
	require.Equal(t, int64(8), v.Len(), "length should clamp to bytes remaining in backing stream")
}

func TestViewReadRespectsLength(t *testing.T) {
	backing := newBackingAt([]byte("0123456789"), 2)

	v, err := NewView(backing, 4)
	require.NoError(t, err)

	buf := make([]byte, 10)
	n, err := v.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, "2345", string(buf[:n]))

	n, err = v.Read(buf)
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, io.EOF)
}

func TestViewWriteFlushSetLengthNotSupported(t *testing.T) {
	v, err := NewView(newBackingAt([]byte("hello"), 0), 5)
	require.NoError(t, err)

	_, err = v.Write([]byte("x"))
	require.ErrorIs(t, err, errs.ErrNotSupported)

	err = v.Flush()
	require.ErrorIs(t, err, errs.ErrNotSupported)

	err = v.SetLength(1)
	require.ErrorIs(t, err, errs.ErrNotSupported)
}

func TestViewSeekStartAndCurrent(t *testing.T) {
	v, err := NewView(newBackingAt([]byte("0123456789"), 0), 10)
	require.NoError(t, err)

	pos, err := v.Seek(3, io.SeekStart)
	require.NoError(t, err)
	require.Equal(t, int64(3), pos)

	pos, err = v.Seek(2, io.SeekCurrent)
	require.NoError(t, err)
	require.Equal(t, int64(5), pos)

	buf := make([]byte, 1)
	n, err := v.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "5", string(buf))
}

func TestViewSeekEndNegativeOffset(t *testing.T) {
	v, err := NewView(newBackingAt([]byte("0123456789"), 0), 10)
	require.NoError(t, err)

	pos, err := v.Seek(-2, io.SeekEnd)
	require.NoError(t, err)
	require.Equal(t, int64(8), pos)
}

func TestViewSeekEndPositiveOffsetRejected(t *testing.T) {
	v, err := NewView(newBackingAt([]byte("0123456789"), 0), 10)
	require.NoError(t, err)

	_, err = v.Seek(1, io.SeekEnd)
	require.ErrorIs(t, err, errs.ErrInvalidSeek)
}

func TestViewSeekOutOfRangeRejected(t *testing.T) {
	v, err := NewView(newBackingAt([]byte("0123456789"), 0), 10)
	require.NoError(t, err)

	_, err = v.Seek(-1, io.SeekStart)
	require.ErrorIs(t, err, errs.ErrInvalidSeek)

	_, err = v.Seek(11, io.SeekStart)
	require.ErrorIs(t, err, errs.ErrInvalidSeek)
}

func TestViewCloseFailsFurtherOperations(t *testing.T) {
	v, err := NewView(newBackingAt([]byte("0123456789"), 0), 10)
	require.NoError(t, err)

	require.NoError(t, v.Close())

	_, err = v.Read(make([]byte, 1))
	require.ErrorIs(t, err, errs.ErrClosed)

	_, err = v.Seek(0, io.SeekStart)
	require.ErrorIs(t, err, errs.ErrClosed)

	_, err = v.Write([]byte("x"))
	require.ErrorIs(t, err, errs.ErrClosed)
}

func TestViewDoesNotOwnBackingStream(t *testing.T) {
	backing := newBackingAt([]byte("0123456789"), 0)

	v, err := NewView(backing, 5)
	require.NoError(t, err)
	require.NoError(t, v.Close())

	// The backing stream itself remains usable after the view is closed.
	buf := make([]byte, 1)
	n, err := backing.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
