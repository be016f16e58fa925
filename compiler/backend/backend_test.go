package backend

import (
	"bytes"
	"context"
	"testing"

	"github.com/olang-dev/olang/compiler/irgen"
	"github.com/olang-dev/olang/compiler/parser"
	"github.com/stretchr/testify/require"

	"tinygo.org/x/go-llvm"
)

func buildModule(t *testing.T, src string) llvm.Module {
	t.Helper()

	prog, err := parser.Parse(context.Background(), []byte(src))
	require.NoError(t, err)

	_, mod, err := irgen.Generate(context.Background(), prog, "test")
	require.NoError(t, err)

	return mod
}

func TestEmitTextualIR(t *testing.T) {
	mod := buildModule(t, `export fn add(a: i32, b: i32) -> i32 { return a + b; }`)

	var buf bytes.Buffer

	err := Emit(mod, Options{EmitLLVM: true}, &buf)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "define")
	require.Contains(t, buf.String(), "add")
}

func TestEmitObjectFile(t *testing.T) {
	mod := buildModule(t, `export fn add(a: i32, b: i32) -> i32 { return a + b; }`)

	var buf bytes.Buffer

	err := Emit(mod, Options{}, &buf)
	require.NoError(t, err)
	require.NotEmpty(t, buf.Bytes())
}

func TestEmitFailsVerificationOnAggregateReturnFallthrough(t *testing.T) {
	mod := buildModule(t, `struct P { x: i32; }
		export fn f() -> P { let p: P = 0; }`)

	var buf bytes.Buffer

	err := Emit(mod, Options{EmitLLVM: true}, &buf)
	require.Error(t, err)
}
