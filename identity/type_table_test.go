package identity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/griffinplus/go-serialization/typedesc"
)

func TestTypeTableAssignAndProbe(t *testing.T) {
	tbl := NewTypeTable()
	d := typedesc.Descriptor{Name: "myapp.Widget"}

	_, found := tbl.Probe(d)
	require.False(t, found)

	id := tbl.Assign(d)
	require.Equal(t, uint32(1), id)

	gotID, found := tbl.Probe(d)
	require.True(t, found)
	require.Equal(t, id, gotID)
}

func TestTypeTableDistinctGenericArgsAreDistinctTypes(t *testing.T) {
	tbl := NewTypeTable()
	listOfInt := typedesc.Descriptor{Name: "myapp.List", TypeArgs: []typedesc.Descriptor{{Name: "int32"}}}
	listOfString := typedesc.Descriptor{Name: "myapp.List", TypeArgs: []typedesc.Descriptor{{Name: "string"}}}

	id1 := tbl.Assign(listOfInt)
	id2 := tbl.Assign(listOfString)
	require.NotEqual(t, id1, id2)
}

func TestTypeTableRegisterAndLookup(t *testing.T) {
	tbl := NewTypeTable()
	d := typedesc.Descriptor{Name: "myapp.Widget"}
	tbl.Register(1, d)

	got, err := tbl.Lookup(1)
	require.NoError(t, err)
	require.Equal(t, d, got)
}

func TestTypeTableLookupUnknownID(t *testing.T) {
	tbl := NewTypeTable()
	_, err := tbl.Lookup(42)
	require.Error(t, err)
}

func TestTypeTableReset(t *testing.T) {
	tbl := NewTypeTable()
	d := typedesc.Descriptor{Name: "myapp.Widget"}
	tbl.Assign(d)
	tbl.Reset()

	_, found := tbl.Probe(d)
	require.False(t, found)
}
