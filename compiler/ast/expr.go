package ast

type (
	// Expr is any expression (spec.md §3.2).
	Expr interface{}

	IntLit struct {
		Base `tlog:",embed"`

		Value int64
	}

	FloatLit struct {
		Base `tlog:",embed"`

		Value float64
	}

	StringLit struct {
		Base `tlog:",embed"`

		Value string
	}

	BoolLit struct {
		Base `tlog:",embed"`

		Value bool
	}

	Identifier struct {
		Base `tlog:",embed"`

		Name string
	}

	// BinaryExpr's Op is one of the operators in spec.md §3.2's operator
	// set. Left-associative chains are folded left-leaning by the parser
	// (spec.md §4.2): `a ⊕ b ⊕ c` becomes `((a ⊕ b) ⊕ c)`.
	BinaryExpr struct {
		Base `tlog:",embed"`

		Op    string
		Left  Expr
		Right Expr
	}

	// UnaryExpr's Op is one of {! - * &} (spec.md §3.2).
	UnaryExpr struct {
		Base `tlog:",embed"`

		Op      string
		Operand Expr
	}

	// AssignmentExpr right-associates (spec.md §4.2); its Lhs is
	// pattern-matched, not evaluated, by the expression generator
	// (spec.md §4.6).
	AssignmentExpr struct {
		Base `tlog:",embed"`

		Lhs Expr
		Rhs Expr
	}

	CallExpr struct {
		Base `tlog:",embed"`

		Callee string
		Args   []Expr
	}

	MemberAccess struct {
		Base `tlog:",embed"`

		Object Expr
		Member string
	}

	ArrayAccess struct {
		Base `tlog:",embed"`

		Array Expr
		Index Expr
	}
)
