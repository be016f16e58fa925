package ast

import "github.com/olang-dev/olang/compiler/types"

type (
	// Param is an ordered (Type, name) pair: a function parameter or a
	// struct field (spec.md §3.2).
	Param struct {
		Base `tlog:",embed"`

		Type types.Type
		Name string
	}

	// FunctionDecl is a function with a body. Export controls linkage in
	// the module builder (spec.md §4.3): external if set, internal
	// otherwise.
	FunctionDecl struct {
		Base `tlog:",embed"`

		Name   string
		Params []Param
		Return types.Type // defaults to types.Void{} when absent in source
		Body   []Stmt
		Export bool
	}

	// ExternDecl is a FunctionDecl's signature with no body: an external
	// symbol resolved at link time (spec.md §3.2, §4.3).
	ExternDecl struct {
		Base `tlog:",embed"`

		Name   string
		Params []Param
		Return types.Type
	}

	// StructDecl is a nominal struct type with an ordered field list
	// (spec.md §3.2). The module builder's struct sweep (§4.3) turns this
	// into a types.StructDef and an LLVM named struct type.
	StructDecl struct {
		Base `tlog:",embed"`

		Name   string
		Fields []Param
	}

	// GlobalDecl is a module-level variable (SPEC_FULL.md's resolution of
	// spec.md §9's "globals parsed but not generated" open question).
	GlobalDecl struct {
		Base `tlog:",embed"`

		Name   string
		Type   types.Type
		Init   Expr // nil for a zero-initialized global
		Export bool
	}
)
