package ast

import "github.com/olang-dev/olang/compiler/types"

type (
	// Stmt is any statement (spec.md §3.2, plus the BlockStmt extension in
	// SPEC_FULL.md resolving the "block_statement parsed but not lifted"
	// open question).
	Stmt interface{}

	LetStmt struct {
		Base `tlog:",embed"`

		Type types.Type
		Name string
		Init Expr
	}

	// ReturnStmt's Value is nil for a bare `return;`.
	ReturnStmt struct {
		Base `tlog:",embed"`

		Value Expr
	}

	ExprStmt struct {
		Base `tlog:",embed"`

		X Expr
	}

	// IfStmt's Else is nil when the source has no else clause.
	IfStmt struct {
		Base `tlog:",embed"`

		Cond Expr
		Then []Stmt
		Else []Stmt
	}

	WhileStmt struct {
		Base `tlog:",embed"`

		Cond Expr
		Body []Stmt
	}

	// BlockStmt is a bare `{ ... }`: a new scope frame with no basic
	// block of its own (SPEC_FULL.md's resolution of the block_statement
	// open question).
	BlockStmt struct {
		Base `tlog:",embed"`

		Body []Stmt
	}
)
