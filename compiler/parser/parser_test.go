package parser

import (
	"context"
	"testing"

	"github.com/olang-dev/olang/compiler/ast"
	"github.com/olang-dev/olang/compiler/types"
	"github.com/stretchr/testify/require"
)

func TestParseArithmeticFunction(t *testing.T) {
	prog, err := Parse(context.Background(), []byte(
		`export fn add(a: i32, b: i32) -> i32 { return a + b; }`))
	require.NoError(t, err)
	require.Len(t, prog.Decls, 1)

	fn, ok := prog.Decls[0].(*ast.FunctionDecl)
	require.True(t, ok)
	require.Equal(t, "add", fn.Name)
	require.True(t, fn.Export)
	require.Equal(t, types.Int{Bits: 32}, fn.Return)
	require.Len(t, fn.Body, 1)

	ret, ok := fn.Body[0].(*ast.ReturnStmt)
	require.True(t, ok)

	bin, ok := ret.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "+", bin.Op)
}

func TestParseIfElseControlFlow(t *testing.T) {
	prog, err := Parse(context.Background(), []byte(
		`export fn max(a: i32, b: i32) -> i32 { if a > b { return a; } else { return b; } }`))
	require.NoError(t, err)

	fn := prog.Decls[0].(*ast.FunctionDecl)
	ifStmt, ok := fn.Body[0].(*ast.IfStmt)
	require.True(t, ok)
	require.Len(t, ifStmt.Then, 1)
	require.Len(t, ifStmt.Else, 1)
}

func TestParseWhileLoop(t *testing.T) {
	prog, err := Parse(context.Background(), []byte(
		`export fn sum_to(n: i32) -> i32 {
			let s: i32 = 0;
			let i: i32 = 0;
			while i <= n {
				s = s + i;
				i = i + 1;
			}
			return s;
		}`))
	require.NoError(t, err)

	fn := prog.Decls[0].(*ast.FunctionDecl)
	require.Len(t, fn.Body, 4)

	while, ok := fn.Body[2].(*ast.WhileStmt)
	require.True(t, ok)
	require.Len(t, while.Body, 2)
}

func TestParseStructAndFieldAssignment(t *testing.T) {
	prog, err := Parse(context.Background(), []byte(
		`struct P { x: i32; y: i32; }
		 export fn mk() -> i32 { let p: P = 0; p.x = 3; p.y = 4; return p.x + p.y; }`))
	require.NoError(t, err)
	require.Len(t, prog.Decls, 2)

	sd, ok := prog.Decls[0].(*ast.StructDecl)
	require.True(t, ok)
	require.Equal(t, "P", sd.Name)
	require.Len(t, sd.Fields, 2)

	fn := prog.Decls[1].(*ast.FunctionDecl)
	assign, ok := fn.Body[1].(*ast.ExprStmt).X.(*ast.AssignmentExpr)
	require.True(t, ok)

	member, ok := assign.Lhs.(*ast.MemberAccess)
	require.True(t, ok)
	require.Equal(t, "x", member.Member)
}

func TestParseArrayAccess(t *testing.T) {
	prog, err := Parse(context.Background(), []byte(
		`export fn arr() -> i32 {
			let a: array[3] i32 = 0;
			a[0] = 10;
			return a[0];
		}`))
	require.NoError(t, err)

	fn := prog.Decls[0].(*ast.FunctionDecl)
	require.Equal(t, types.Array{Elem: types.Int{Bits: 32}, Len: 3}, fn.Body[0].(*ast.LetStmt).Type)
}

func TestParseExternDecl(t *testing.T) {
	prog, err := Parse(context.Background(), []byte(
		`extern fn puts(s: *i8) -> i32;`))
	require.NoError(t, err)

	ed, ok := prog.Decls[0].(*ast.ExternDecl)
	require.True(t, ok)
	require.Equal(t, "puts", ed.Name)
	require.Equal(t, types.Ptr{Elem: types.Int{Bits: 8}}, ed.Params[0].Type)
}

func TestParseGlobalDecl(t *testing.T) {
	prog, err := Parse(context.Background(), []byte(`export global counter: i32 = 0;`))
	require.NoError(t, err)

	gd, ok := prog.Decls[0].(*ast.GlobalDecl)
	require.True(t, ok)
	require.True(t, gd.Export)
	require.Equal(t, "counter", gd.Name)
}

func TestParseBareBlockStmt(t *testing.T) {
	prog, err := Parse(context.Background(), []byte(
		`fn f() { { let x: i32 = 1; } }`))
	require.NoError(t, err)

	fn := prog.Decls[0].(*ast.FunctionDecl)
	_, ok := fn.Body[0].(*ast.BlockStmt)
	require.True(t, ok)
}

func TestParseUnexpectedTokenError(t *testing.T) {
	_, err := Parse(context.Background(), []byte(`fn f( -> i32 { return 1; }`))
	require.Error(t, err)
}
