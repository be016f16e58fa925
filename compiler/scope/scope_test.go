package scope

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushPopInsideOutLookup(t *testing.T) {
	s := New[int]()

	s.Push()
	s.DefineAlloca("x", 1)

	s.Push()
	s.DefineAlloca("x", 2)

	v, ok := s.LookupAlloca("x")
	require.True(t, ok)
	require.Equal(t, 2, v)

	s.Pop()

	v, ok = s.LookupAlloca("x")
	require.True(t, ok)
	require.Equal(t, 1, v)

	s.Pop()

	_, ok = s.LookupAlloca("x")
	require.False(t, ok)
}

func TestDepthBalancedByPushPop(t *testing.T) {
	s := New[int]()

	require.Equal(t, 0, s.Depth())

	s.Push()
	s.Push()
	require.Equal(t, 2, s.Depth())

	s.Pop()
	require.Equal(t, 1, s.Depth())

	s.Pop()
	require.Equal(t, 0, s.Depth())
}

func TestKindDistinguishesAllocaFromSSA(t *testing.T) {
	s := New[string]()
	s.Push()

	s.DefineAlloca("a", "alloca-a")
	s.DefineSSA("b", "ssa-b")

	require.Equal(t, Alloca, s.Kind("a"))
	require.Equal(t, SSA, s.Kind("b"))
	require.Equal(t, NotFound, s.Kind("c"))
}
