package parser

import (
	"strconv"

	"github.com/olang-dev/olang/compiler/ast"
	"tlog.app/go/errors"
)

// parseExpr parses an assignment expression, the lowest-precedence
// production (spec.md §4.2: "Right-associates only assignment").
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() (ast.Expr, error) {
	start := p.pos()

	lhs, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}

	isAssign, err := p.peekChar('=')
	if err != nil {
		return nil, err
	}

	if !isAssign {
		return lhs, nil
	}

	p.lex.Next()

	rhs, err := p.parseAssignment() // right-associative
	if err != nil {
		return nil, errors.Wrap(err, "assignment rhs")
	}

	return &ast.AssignmentExpr{
		Base: ast.Base{Pos: start, End: p.pos()},
		Lhs:  lhs,
		Rhs:  rhs,
	}, nil
}

// binaryLevel is one precedence tier: a left-associative fold over a set
// of operator spellings (spec.md §4.2: "for a run a ⊕ b ⊕ c, produce
// ((a ⊕ b) ⊕ c)"), grounded directly on compiler/front/parse.go's
// parseSum loop.
func (p *Parser) binaryLevel(ops map[string]bool, next func() (ast.Expr, error)) (ast.Expr, error) {
	start := p.pos()

	left, err := next()
	if err != nil {
		return nil, err
	}

	for {
		op, ok, err := p.peekOp(ops)
		if err != nil {
			return nil, err
		}

		if !ok {
			return left, nil
		}

		p.lex.Next()

		right, err := next()
		if err != nil {
			return nil, errors.Wrap(err, "rhs of %q", op)
		}

		left = &ast.BinaryExpr{
			Base:  ast.Base{Pos: start, End: p.pos()},
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

// peekOp reports whether the next token is one of ops, as either a Char
// or an Op token, without consuming it.
func (p *Parser) peekOp(ops map[string]bool) (string, bool, error) {
	tok, _, _, err := p.lex.Peek()
	if err != nil {
		return "", false, err
	}

	switch t := tok.(type) {
	case Char:
		s := string(t)
		return s, ops[s], nil
	case Op:
		s := string(t)
		return s, ops[s], nil
	default:
		return "", false, nil
	}
}

var orOps = map[string]bool{"||": true}
var andOps = map[string]bool{"&&": true}
var eqOps = map[string]bool{"==": true, "!=": true}
var relOps = map[string]bool{"<": true, ">": true, "<=": true, ">=": true}
var addOps = map[string]bool{"+": true, "-": true}
var mulOps = map[string]bool{"*": true, "/": true, "%": true}

func (p *Parser) parseLogicalOr() (ast.Expr, error) {
	return p.binaryLevel(orOps, p.parseLogicalAnd)
}

func (p *Parser) parseLogicalAnd() (ast.Expr, error) {
	return p.binaryLevel(andOps, p.parseEquality)
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	return p.binaryLevel(eqOps, p.parseRelational)
}

func (p *Parser) parseRelational() (ast.Expr, error) {
	return p.binaryLevel(relOps, p.parseAdditive)
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	return p.binaryLevel(addOps, p.parseMultiplicative)
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	return p.binaryLevel(mulOps, p.parseUnary)
}

var unaryOps = map[byte]string{'!': "!", '-': "-", '*': "*", '&': "&"}

func (p *Parser) parseUnary() (ast.Expr, error) {
	start := p.pos()

	tok, _, _, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	if c, ok := tok.(Char); ok {
		if op, ok := unaryOps[byte(c)]; ok {
			p.lex.Next()

			operand, err := p.parseUnary()
			if err != nil {
				return nil, errors.Wrap(err, "operand of unary %q", op)
			}

			return &ast.UnaryExpr{
				Base:    ast.Base{Pos: start, End: p.pos()},
				Op:      op,
				Operand: operand,
			}, nil
		}
	}

	return p.parsePostfix()
}

// parsePostfix handles `.member` and `[index]` chains over a primary
// expression (spec.md §3.2's MemberAccess/ArrayAccess).
func (p *Parser) parsePostfix() (ast.Expr, error) {
	start := p.pos()

	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		tok, _, _, err := p.lex.Peek()
		if err != nil {
			return nil, err
		}

		c, ok := tok.(Char)
		if !ok {
			return x, nil
		}

		switch byte(c) {
		case '.':
			p.lex.Next()

			member, _, err := p.expectIdent()
			if err != nil {
				return nil, errors.Wrap(err, "member name")
			}

			x = &ast.MemberAccess{
				Base:   ast.Base{Pos: start, End: p.pos()},
				Object: x,
				Member: member,
			}
		case '[':
			p.lex.Next()

			index, err := p.parseExpr()
			if err != nil {
				return nil, errors.Wrap(err, "array index")
			}

			if _, err := p.expectChar(']'); err != nil {
				return nil, err
			}

			x = &ast.ArrayAccess{
				Base:  ast.Base{Pos: start, End: p.pos()},
				Array: x,
				Index: index,
			}
		default:
			return x, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok, start, end, err := p.lex.Next()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case Number:
		return p.parseNumberLit(string(t), start, end)
	case String:
		return &ast.StringLit{Base: ast.Base{Pos: start, End: end}, Value: string(t)}, nil
	case Keyword:
		switch string(t) {
		case "true":
			return &ast.BoolLit{Base: ast.Base{Pos: start, End: end}, Value: true}, nil
		case "false":
			return &ast.BoolLit{Base: ast.Base{Pos: start, End: end}, Value: false}, nil
		default:
			return nil, newUnexpected(tok, "expression")
		}
	case Ident:
		return p.parseIdentOrCall(string(t), start, end)
	case Char:
		if byte(t) == '(' {
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			if _, err := p.expectChar(')'); err != nil {
				return nil, err
			}

			return x, nil
		}
	}

	return nil, newUnexpected(tok, "expression")
}

func (p *Parser) parseNumberLit(text string, start, end int) (ast.Expr, error) {
	for i := 0; i < len(text); i++ {
		if text[i] == '.' {
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, errors.Wrap(err, "float literal %q", text)
			}

			return &ast.FloatLit{Base: ast.Base{Pos: start, End: end}, Value: v}, nil
		}
	}

	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "int literal %q", text)
	}

	return &ast.IntLit{Base: ast.Base{Pos: start, End: end}, Value: v}, nil
}

// parseIdentOrCall: a bare identifier, or `name(args)` — the callee of a
// CallExpr is a name, not a general expression (spec.md §3.2).
func (p *Parser) parseIdentOrCall(name string, start, end int) (ast.Expr, error) {
	isCall, err := p.peekChar('(')
	if err != nil {
		return nil, err
	}

	if !isCall {
		return &ast.Identifier{Base: ast.Base{Pos: start, End: end}, Name: name}, nil
	}

	p.lex.Next()

	var args []ast.Expr

	for {
		done, err := p.peekChar(')')
		if err != nil {
			return nil, err
		}

		if done {
			break
		}

		if len(args) > 0 {
			if _, err := p.expectChar(','); err != nil {
				return nil, err
			}
		}

		arg, err := p.parseExpr()
		if err != nil {
			return nil, errors.Wrap(err, "argument %d of %v", len(args), name)
		}

		args = append(args, arg)
	}

	closeEnd, err := p.expectChar(')')
	if err != nil {
		return nil, err
	}

	return &ast.CallExpr{
		Base:   ast.Base{Pos: start, End: closeEnd},
		Callee: name,
		Args:   args,
	}, nil
}

// pos returns the current lexer cursor, used as a best-effort End
// position while folding multi-token expressions.
func (p *Parser) pos() int {
	_, start, _, err := p.lex.Peek()
	if err != nil {
		return start
	}

	return start
}
