// Package parser implements spec.md §4.2: a recursive-descent pass over
// the preprocessed source that plays both rows of the pipeline table —
// "Parser front end" and "AST builder" — in one walk, building
// ast.Program nodes directly rather than an intermediate concrete parse
// tree. This mirrors the approach in compiler/front/parse.go, which
// never materializes a separate parse tree either: parseFunc/
// parseBlock/parseStatement build ast.Func/
// ast.Assignment/ast.Return nodes straight from the token stream. The
// left-associative binary-chain folding (parseSum's loop) and the
// right-associative assignment are kept as spec.md §4.2 describes them;
// the `{`-partition rule for if/else bodies is implemented by stopping
// each body's statement loop on the matching `}` and then checking
// whether an `else` keyword follows, which gives the same partition
// spec.md's "locate the first `}`" description does without needing a
// separate concrete-tree pass.
package parser

import (
	"strconv"

	"github.com/olang-dev/olang/compiler/ast"
	"github.com/olang-dev/olang/compiler/types"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"context"
)

type Parser struct {
	lex *Lexer
}

// UnexpectedTokenError names the token that violated the grammar and
// what was expected, the way compiler/front/parse.go's UnexpectedError
// does.
type UnexpectedTokenError struct {
	Got  Token
	Want string
}

func (e UnexpectedTokenError) Error() string {
	return errors.New("unexpected token %v (%[1]T), want %s", e.Got, e.Want).Error()
}

func newUnexpected(got Token, want string) error {
	return UnexpectedTokenError{Got: got, Want: want}
}

// Parse builds a Program from preprocessed source text (spec.md §4.2).
func Parse(ctx context.Context, src []byte) (*ast.Program, error) {
	p := &Parser{lex: NewLexer(src)}

	prog, err := p.parseProgram(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	return prog, nil
}

func (p *Parser) parseProgram(ctx context.Context) (*ast.Program, error) {
	prog := &ast.Program{}

	for {
		tok, _, _, err := p.lex.Peek()
		if err != nil {
			return nil, err
		}

		if _, ok := tok.(EOF); ok {
			break
		}

		decl, err := p.parseDecl(ctx)
		if err != nil {
			return nil, err
		}

		if decl != nil {
			prog.Decls = append(prog.Decls, decl)
		}
	}

	return prog, nil
}

func (p *Parser) parseDecl(ctx context.Context) (ast.Decl, error) {
	tok, start, _, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	kw, ok := tok.(Keyword)
	if !ok {
		return nil, newUnexpected(tok, "struct, fn, extern, export, global, or include")
	}

	switch string(kw) {
	case "struct":
		return p.parseStructDecl(ctx, start)
	case "extern":
		return p.parseExternDecl(ctx, start)
	case "global":
		return p.parseGlobalDecl(ctx, start, false)
	case "export":
		p.lex.Next()

		tok, _, _, err := p.lex.Peek()
		if err != nil {
			return nil, err
		}

		switch kw2, _ := tok.(Keyword); string(kw2) {
		case "fn":
			return p.parseFunctionDecl(ctx, start, true)
		case "global":
			return p.parseGlobalDecl(ctx, start, true)
		default:
			return nil, newUnexpected(tok, "fn or global after export")
		}
	case "fn":
		return p.parseFunctionDecl(ctx, start, false)
	case "include":
		// Already resolved by the preprocessor; spec.md §4.2: "Discards
		// include statements (already consumed upstream)." A directive
		// still reaches here when Parse is given text that did not go
		// through the preprocessor; skip it up to its `;`. One that the
		// preprocessor passed through unterminated has no `;` after it
		// and is reported as an unterminated include statement.
		return nil, p.skipIncludeStatement()
	default:
		return nil, newUnexpected(tok, "struct, fn, extern, export, global, or include")
	}
}

func (p *Parser) skipIncludeStatement() error {
	for {
		tok, _, _, err := p.lex.Next()
		if err != nil {
			return err
		}

		if _, ok := tok.(EOF); ok {
			return errors.New("unterminated include statement")
		}

		if c, ok := tok.(Char); ok && c == ';' {
			return nil
		}
	}
}

func (p *Parser) expectKeyword(word string) (int, error) {
	tok, start, _, err := p.lex.Next()
	if err != nil {
		return start, err
	}

	if kw, ok := tok.(Keyword); !ok || string(kw) != word {
		return start, newUnexpected(tok, word)
	}

	return start, nil
}

func (p *Parser) expectChar(c byte) (int, error) {
	tok, start, _, err := p.lex.Next()
	if err != nil {
		return start, err
	}

	if got, ok := tok.(Char); !ok || byte(got) != c {
		return start, newUnexpected(tok, string(c))
	}

	return start, nil
}

func (p *Parser) expectIdent() (string, int, error) {
	tok, start, _, err := p.lex.Next()
	if err != nil {
		return "", start, err
	}

	id, ok := tok.(Ident)
	if !ok {
		return "", start, newUnexpected(tok, "identifier")
	}

	return string(id), start, nil
}

func (p *Parser) peekChar(c byte) (bool, error) {
	tok, _, _, err := p.lex.Peek()
	if err != nil {
		return false, err
	}

	got, ok := tok.(Char)
	return ok && byte(got) == c, nil
}

func (p *Parser) peekKeyword(word string) (bool, error) {
	tok, _, _, err := p.lex.Peek()
	if err != nil {
		return false, err
	}

	kw, ok := tok.(Keyword)
	return ok && string(kw) == word, nil
}

// parseStructDecl: `struct Name { field: type; … }`
func (p *Parser) parseStructDecl(ctx context.Context, start int) (*ast.StructDecl, error) {
	if _, err := p.expectKeyword("struct"); err != nil {
		return nil, err
	}

	name, _, err := p.expectIdent()
	if err != nil {
		return nil, errors.Wrap(err, "struct name")
	}

	if _, err := p.expectChar('{'); err != nil {
		return nil, err
	}

	var fields []ast.Param

	for {
		done, err := p.peekChar('}')
		if err != nil {
			return nil, err
		}

		if done {
			break
		}

		fname, fstart, err := p.expectIdent()
		if err != nil {
			return nil, errors.Wrap(err, "field name")
		}

		if _, err := p.expectChar(':'); err != nil {
			return nil, err
		}

		ftyp, err := p.parseType()
		if err != nil {
			return nil, errors.Wrap(err, "field %v", fname)
		}

		if _, err := p.expectChar(';'); err != nil {
			return nil, err
		}

		fields = append(fields, ast.Param{
			Base: ast.Base{Pos: fstart},
			Name: fname,
			Type: ftyp,
		})
	}

	end, err := p.expectChar('}')
	if err != nil {
		return nil, err
	}

	tlog.SpanFromContext(ctx).Printw("struct decl", "name", name, "fields", len(fields))

	return &ast.StructDecl{
		Base:   ast.Base{Pos: start, End: end},
		Name:   name,
		Fields: fields,
	}, nil
}

// parseFunctionDecl: `fn name(p: t, …) -> t { stmts }`
func (p *Parser) parseFunctionDecl(ctx context.Context, start int, export bool) (*ast.FunctionDecl, error) {
	if _, err := p.expectKeyword("fn"); err != nil {
		return nil, err
	}

	name, _, err := p.expectIdent()
	if err != nil {
		return nil, errors.Wrap(err, "function name")
	}

	params, err := p.parseParamList()
	if err != nil {
		return nil, errors.Wrap(err, "params of %v", name)
	}

	ret, err := p.parseOptionalReturnType()
	if err != nil {
		return nil, errors.Wrap(err, "return type of %v", name)
	}

	body, end, err := p.parseBlockBody()
	if err != nil {
		return nil, errors.Wrap(err, "body of %v", name)
	}

	tlog.SpanFromContext(ctx).Printw("function decl", "name", name, "export", export)

	return &ast.FunctionDecl{
		Base:   ast.Base{Pos: start, End: end},
		Name:   name,
		Params: params,
		Return: ret,
		Body:   body,
		Export: export,
	}, nil
}

// parseExternDecl: `extern fn name(…) -> t;`
func (p *Parser) parseExternDecl(ctx context.Context, start int) (*ast.ExternDecl, error) {
	if _, err := p.expectKeyword("extern"); err != nil {
		return nil, err
	}

	if _, err := p.expectKeyword("fn"); err != nil {
		return nil, err
	}

	name, _, err := p.expectIdent()
	if err != nil {
		return nil, errors.Wrap(err, "extern function name")
	}

	params, err := p.parseParamList()
	if err != nil {
		return nil, errors.Wrap(err, "params of extern %v", name)
	}

	ret, err := p.parseOptionalReturnType()
	if err != nil {
		return nil, errors.Wrap(err, "return type of extern %v", name)
	}

	end, err := p.expectChar(';')
	if err != nil {
		return nil, err
	}

	tlog.SpanFromContext(ctx).Printw("extern decl", "name", name)

	return &ast.ExternDecl{
		Base:   ast.Base{Pos: start, End: end},
		Name:   name,
		Params: params,
		Return: ret,
	}, nil
}

// parseGlobalDecl: `global name: t = expr;` or `global name: t;`
// (SPEC_FULL.md's GlobalDecl extension, resolving spec.md §9 OQ2).
func (p *Parser) parseGlobalDecl(ctx context.Context, start int, export bool) (*ast.GlobalDecl, error) {
	if _, err := p.expectKeyword("global"); err != nil {
		return nil, err
	}

	name, _, err := p.expectIdent()
	if err != nil {
		return nil, errors.Wrap(err, "global name")
	}

	if _, err := p.expectChar(':'); err != nil {
		return nil, err
	}

	typ, err := p.parseType()
	if err != nil {
		return nil, errors.Wrap(err, "type of global %v", name)
	}

	var init ast.Expr

	hasInit, err := p.peekChar('=')
	if err != nil {
		return nil, err
	}

	if hasInit {
		p.lex.Next()

		init, err = p.parseExpr()
		if err != nil {
			return nil, errors.Wrap(err, "initializer of global %v", name)
		}
	}

	end, err := p.expectChar(';')
	if err != nil {
		return nil, err
	}

	tlog.SpanFromContext(ctx).Printw("global decl", "name", name, "export", export)

	return &ast.GlobalDecl{
		Base:   ast.Base{Pos: start, End: end},
		Name:   name,
		Type:   typ,
		Init:   init,
		Export: export,
	}, nil
}

func (p *Parser) parseParamList() ([]ast.Param, error) {
	if _, err := p.expectChar('('); err != nil {
		return nil, err
	}

	var params []ast.Param

	for {
		done, err := p.peekChar(')')
		if err != nil {
			return nil, err
		}

		if done {
			break
		}

		if len(params) > 0 {
			if _, err := p.expectChar(','); err != nil {
				return nil, err
			}
		}

		name, start, err := p.expectIdent()
		if err != nil {
			return nil, errors.Wrap(err, "param name")
		}

		if _, err := p.expectChar(':'); err != nil {
			return nil, err
		}

		typ, err := p.parseType()
		if err != nil {
			return nil, errors.Wrap(err, "type of param %v", name)
		}

		params = append(params, ast.Param{
			Base: ast.Base{Pos: start},
			Name: name,
			Type: typ,
		})
	}

	if _, err := p.expectChar(')'); err != nil {
		return nil, err
	}

	return params, nil
}

// parseOptionalReturnType consumes `-> t` if present; absent, the return
// type defaults to Void (spec.md §3.2).
func (p *Parser) parseOptionalReturnType() (types.Type, error) {
	tok, _, _, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	if op, ok := tok.(Op); !ok || string(op) != "->" {
		return types.Void{}, nil
	}

	p.lex.Next()

	return p.parseType()
}

// parseType parses a type specifier by tag dispatch over basic/pointer/
// array/struct forms (spec.md §4.2). Pointer types nest left-to-right in
// source order; array sizes come from the literal integer in the
// grammar.
func (p *Parser) parseType() (types.Type, error) {
	tok, _, _, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case Char:
		if byte(t) == '*' {
			p.lex.Next()

			elem, err := p.parseType()
			if err != nil {
				return nil, errors.Wrap(err, "pointer element type")
			}

			return types.Ptr{Elem: elem}, nil
		}
	case Keyword:
		if string(t) == "array" {
			return p.parseArrayType()
		}
	case Ident:
		return p.parseBasicOrStructType(string(t))
	}

	return nil, newUnexpected(tok, "type")
}

func (p *Parser) parseArrayType() (types.Type, error) {
	if _, err := p.expectKeyword("array"); err != nil {
		return nil, err
	}

	if _, err := p.expectChar('['); err != nil {
		return nil, err
	}

	tok, _, _, err := p.lex.Next()
	if err != nil {
		return nil, err
	}

	num, ok := tok.(Number)
	if !ok {
		return nil, newUnexpected(tok, "array length")
	}

	n, err := strconv.Atoi(string(num))
	if err != nil {
		return nil, errors.Wrap(err, "array length")
	}

	if _, err := p.expectChar(']'); err != nil {
		return nil, err
	}

	elem, err := p.parseType()
	if err != nil {
		return nil, errors.Wrap(err, "array element type")
	}

	return types.Array{Elem: elem, Len: n}, nil
}

var basicTypes = map[string]types.Type{
	"i1": types.Bool{}, "i8": types.Int{Bits: 8}, "i16": types.Int{Bits: 16},
	"i32": types.Int{Bits: 32}, "i64": types.Int{Bits: 64},
	"f16": types.Float{Bits: 16}, "f32": types.Float{Bits: 32}, "f64": types.Float{Bits: 64},
}

func (p *Parser) parseBasicOrStructType(name string) (types.Type, error) {
	p.lex.Next()

	if t, ok := basicTypes[name]; ok {
		return t, nil
	}

	return types.Struct{Name: name}, nil
}

// parseBlockBody parses `{ stmt* }` as a raw statement sequence (used for
// function bodies, not pushed through parseStmt's BlockStmt wrapper since
// a function body is not itself a nested scope-introducing block).
func (p *Parser) parseBlockBody() ([]ast.Stmt, int, error) {
	if _, err := p.expectChar('{'); err != nil {
		return nil, 0, err
	}

	var stmts []ast.Stmt

	for {
		done, err := p.peekChar('}')
		if err != nil {
			return nil, 0, err
		}

		if done {
			break
		}

		st, err := p.parseStmt()
		if err != nil {
			return nil, 0, err
		}

		stmts = append(stmts, st)
	}

	end, err := p.expectChar('}')
	if err != nil {
		return nil, 0, err
	}

	return stmts, end, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	tok, start, _, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	if c, ok := tok.(Char); ok && c == '{' {
		body, end, err := p.parseBlockBody()
		if err != nil {
			return nil, err
		}

		return &ast.BlockStmt{Base: ast.Base{Pos: start, End: end}, Body: body}, nil
	}

	kw, ok := tok.(Keyword)
	if !ok {
		return p.parseExprStmt()
	}

	switch string(kw) {
	case "let":
		return p.parseLetStmt(start)
	case "return":
		return p.parseReturnStmt(start)
	case "if":
		return p.parseIfStmt(start)
	case "while":
		return p.parseWhileStmt(start)
	default:
		return p.parseExprStmt()
	}
}

// parseLetStmt: `let name: t = expr;`
func (p *Parser) parseLetStmt(start int) (*ast.LetStmt, error) {
	if _, err := p.expectKeyword("let"); err != nil {
		return nil, err
	}

	name, _, err := p.expectIdent()
	if err != nil {
		return nil, errors.Wrap(err, "let name")
	}

	if _, err := p.expectChar(':'); err != nil {
		return nil, err
	}

	typ, err := p.parseType()
	if err != nil {
		return nil, errors.Wrap(err, "let %v type", name)
	}

	if _, err := p.expectChar('='); err != nil {
		return nil, err
	}

	init, err := p.parseExpr()
	if err != nil {
		return nil, errors.Wrap(err, "let %v initializer", name)
	}

	end, err := p.expectChar(';')
	if err != nil {
		return nil, err
	}

	return &ast.LetStmt{
		Base: ast.Base{Pos: start, End: end},
		Name: name,
		Type: typ,
		Init: init,
	}, nil
}

// parseReturnStmt: `return expr?;`
func (p *Parser) parseReturnStmt(start int) (*ast.ReturnStmt, error) {
	if _, err := p.expectKeyword("return"); err != nil {
		return nil, err
	}

	bare, err := p.peekChar(';')
	if err != nil {
		return nil, err
	}

	var value ast.Expr

	if !bare {
		value, err = p.parseExpr()
		if err != nil {
			return nil, errors.Wrap(err, "return value")
		}
	}

	end, err := p.expectChar(';')
	if err != nil {
		return nil, err
	}

	return &ast.ReturnStmt{Base: ast.Base{Pos: start, End: end}, Value: value}, nil
}

// parseIfStmt: `if expr { … } else { … }`. The builder distinguishes
// then/else bodies by where each `{ … }` block naturally closes
// (spec.md §4.2's "locate the first `}`" description, realized here as
// parseBlockBody's own closing-brace scan rather than a second pass over
// a separately materialized parse tree).
func (p *Parser) parseIfStmt(start int) (*ast.IfStmt, error) {
	if _, err := p.expectKeyword("if"); err != nil {
		return nil, err
	}

	cond, err := p.parseExpr()
	if err != nil {
		return nil, errors.Wrap(err, "if condition")
	}

	then, end, err := p.parseBlockBody()
	if err != nil {
		return nil, errors.Wrap(err, "if then-body")
	}

	var elseBody []ast.Stmt

	hasElse, err := p.peekKeyword("else")
	if err != nil {
		return nil, err
	}

	if hasElse {
		p.lex.Next()

		isElseIf, err := p.peekKeyword("if")
		if err != nil {
			return nil, err
		}

		if isElseIf {
			elseIf, err := p.parseIfStmt(end)
			if err != nil {
				return nil, errors.Wrap(err, "else if")
			}

			elseBody = []ast.Stmt{elseIf}
			end = elseIf.End
		} else {
			elseBody, end, err = p.parseBlockBody()
			if err != nil {
				return nil, errors.Wrap(err, "if else-body")
			}
		}
	}

	return &ast.IfStmt{
		Base: ast.Base{Pos: start, End: end},
		Cond: cond,
		Then: then,
		Else: elseBody,
	}, nil
}

// parseWhileStmt: `while expr { … }`
func (p *Parser) parseWhileStmt(start int) (*ast.WhileStmt, error) {
	if _, err := p.expectKeyword("while"); err != nil {
		return nil, err
	}

	cond, err := p.parseExpr()
	if err != nil {
		return nil, errors.Wrap(err, "while condition")
	}

	body, end, err := p.parseBlockBody()
	if err != nil {
		return nil, errors.Wrap(err, "while body")
	}

	return &ast.WhileStmt{
		Base: ast.Base{Pos: start, End: end},
		Cond: cond,
		Body: body,
	}, nil
}

func (p *Parser) parseExprStmt() (*ast.ExprStmt, error) {
	_, start, _, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}

	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	end, err := p.expectChar(';')
	if err != nil {
		return nil, err
	}

	return &ast.ExprStmt{Base: ast.Base{Pos: start, End: end}, X: x}, nil
}
