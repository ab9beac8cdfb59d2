package schema

import (
	"reflect"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type particle struct {
	Pos  float32
	Live bool
	ID   uint64
}

func TestOf(t *testing.T) {
	s, err := Of[particle]()
	require.NoError(t, err)

	require.Equal(t, 3, s.NumFields())
	assert.False(t, s.ZeroSize())

	var p particle
	want := []Field{
		{Name: "Pos", Size: 4, Align: 4, Offset: unsafe.Offsetof(p.Pos)},
		{Name: "Live", Size: 1, Align: 1, Offset: unsafe.Offsetof(p.Live)},
		{Name: "ID", Size: 8, Align: 8, Offset: unsafe.Offsetof(p.ID)},
	}
	assert.Equal(t, want, s.Fields())

	i, ok := s.FieldIndex("ID")
	require.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = s.FieldIndex("Velocity")
	assert.False(t, ok)
}

func TestOfNestedPlainData(t *testing.T) {
	type vec3 struct{ X, Y, Z float32 }
	type body struct {
		Position vec3
		Masses   [4]float64
	}

	s, err := Of[body]()
	require.NoError(t, err)
	assert.Equal(t, 2, s.NumFields())
	assert.Equal(t, uintptr(12), s.Field(0).Size)
	assert.Equal(t, uintptr(32), s.Field(1).Size)
}

func TestOfZeroField(t *testing.T) {
	type empty struct{}

	s, err := Of[empty]()
	require.NoError(t, err)
	assert.Equal(t, 0, s.NumFields())
	assert.True(t, s.ZeroSize())
}

func TestOfZeroSizeFields(t *testing.T) {
	type markers struct {
		A struct{}
		B [0]uint64
	}

	s, err := Of[markers]()
	require.NoError(t, err)
	assert.Equal(t, 2, s.NumFields())
	assert.True(t, s.ZeroSize())
}

func TestOfRejectsPointerTypes(t *testing.T) {
	type withString struct{ Name string }
	type withSlice struct{ Data []byte }
	type withPtr struct{ P *int }
	type nested struct{ Inner withPtr }

	for name, err := range map[string]error{
		"string": func() error { _, err := Of[withString](); return err }(),
		"slice":  func() error { _, err := Of[withSlice](); return err }(),
		"ptr":    func() error { _, err := Of[withPtr](); return err }(),
		"nested": func() error { _, err := Of[nested](); return err }(),
	} {
		var ut *ErrUnsupportedType
		require.ErrorAs(t, err, &ut, name)
	}
}

func TestOfRejectsNonStruct(t *testing.T) {
	_, err := Of[int]()
	var ut *ErrUnsupportedType
	require.ErrorAs(t, err, &ut)
}

func TestPlainData(t *testing.T) {
	assert.True(t, PlainData(reflect.TypeOf(uint64(0))))
	assert.True(t, PlainData(reflect.TypeOf([3]float32{})))
	assert.False(t, PlainData(reflect.TypeOf("")))
	assert.False(t, PlainData(reflect.TypeOf(map[int]int{})))
}
