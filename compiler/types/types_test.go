package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSizes(t *testing.T) {
	require.Equal(t, 4, Int{Bits: 32}.Size())
	require.Equal(t, 8, Float{Bits: 64}.Size())
	require.Equal(t, 1, Bool{}.Size())
	require.Equal(t, 8, Ptr{Elem: Int{Bits: 8}}.Size())
	require.Equal(t, 12, Array{Elem: Int{Bits: 32}, Len: 3}.Size())
	require.Equal(t, 0, Void{}.Size())
}

func TestStructDefFieldIndex(t *testing.T) {
	def := NewStructDef("P", []Field{
		{Name: "x", Type: Int{Bits: 32}},
		{Name: "y", Type: Int{Bits: 32}},
	})

	i, ok := def.FieldIndex("y")
	require.True(t, ok)
	require.Equal(t, 1, i)

	_, ok = def.FieldIndex("z")
	require.False(t, ok)

	require.Equal(t, 8, def.Size())
}

func TestIsAggregate(t *testing.T) {
	require.True(t, IsAggregate(Struct{Name: "P"}))
	require.True(t, IsAggregate(Array{Elem: Bool{}, Len: 1}))
	require.False(t, IsAggregate(Int{Bits: 32}))
}

func TestIsFloat(t *testing.T) {
	require.True(t, IsFloat(Float{Bits: 32}))
	require.False(t, IsFloat(Int{Bits: 32}))
}

func TestTypeStrings(t *testing.T) {
	require.Equal(t, "i32", Int{Bits: 32}.String())
	require.Equal(t, "*i8", Ptr{Elem: Int{Bits: 8}}.String())
	require.Equal(t, "array[3] i32", Array{Elem: Int{Bits: 32}, Len: 3}.String())
}
