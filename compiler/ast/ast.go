// Package ast defines the tagged AST of spec.md §3.2: a Program owning an
// ordered sequence of top-level declarations, each exclusively owning its
// substructure (nodes are held through pointers). No node is shared and
// no cycles exist (spec.md
// §3.3); lifetime runs from the end of the parser's pass until the end of
// code generation.
//
// Base keeps compiler/ast's embedding idiom (Pos/End byte
// offsets into the preprocessed source, tagged `tlog:",embed"` so a
// logged node's position fields flatten into its parent's fields rather
// than nesting).
package ast

type (
	// Node is any AST node: declaration, statement, or expression.
	Node interface{}

	Base struct {
		Pos int
		End int
	}

	// Program owns the ordered top-level declarations of one compilation
	// unit (spec.md §3.2, §3.3).
	Program struct {
		Decls []Decl
	}

	// Decl is any top-level declaration.
	Decl interface{}
)
