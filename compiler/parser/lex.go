package parser

import (
	"strings"

	"tlog.app/go/errors"
)

// Token is any lexical token. Grounded on compiler/front/parse.go's token
// model (Char, Keyword, Ident, Number): a closed, small set of
// byte-slice-backed kinds recognized by a single forward scan over the
// preprocessed source.
type (
	Token interface{}

	Char    byte   // single-character punctuation/operator
	Op      string // two-character operator: == != <= >= && || ->
	Keyword string // a reserved word
	Ident   string
	Number  string // integer or floating literal, undifferentiated until parsed
	String  string // contents between quotes, already unescaped
	EOF     struct{}
)

var keywords = map[string]bool{
	"struct": true, "fn": true, "extern": true, "export": true,
	"let": true, "return": true, "if": true, "else": true, "while": true,
	"true": true, "false": true, "array": true, "global": true, "include": true,
}

// multiChar lists the two-character operators the lexer must greedily
// match before falling back to a single-character Char.
var multiChar = []string{"==", "!=", "<=", ">=", "&&", "||", "->"}

func (c Char) String() string { return string(c) }

// Lexer walks a byte buffer producing tokens on demand. Unlike
// compiler/front/parse.go's stateless `next(ctx, pos)` (which recomputes
// from a position on every call, enabling ad hoc backtracking), this
// lexer keeps one cursor and exposes Peek/Next so the recursive-descent
// parser in parser.go can do ordinary one-token lookahead; the underlying
// skipTrivia/skipIdent/skipNumber scan functions keep parse.go's shape.
type Lexer struct {
	b   []byte
	pos int

	cur    Token
	curPos int
	curEnd int
	peeked bool
}

func NewLexer(b []byte) *Lexer {
	return &Lexer{b: b}
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, int, int, error) {
	if !l.peeked {
		tok, start, end, err := l.scan(l.pos)
		if err != nil {
			return nil, start, end, err
		}

		l.cur, l.curPos, l.curEnd = tok, start, end
		l.peeked = true
	}

	return l.cur, l.curPos, l.curEnd, nil
}

// Next consumes and returns the next token.
func (l *Lexer) Next() (Token, int, int, error) {
	tok, start, end, err := l.Peek()
	if err != nil {
		return nil, start, end, err
	}

	l.pos = end
	l.peeked = false

	return tok, start, end, nil
}

func (l *Lexer) scan(i int) (tok Token, start, end int, err error) {
	i = skipTrivia(l.b, i)
	start = i

	if i >= len(l.b) {
		return EOF{}, start, i, nil
	}

	c := l.b[i]

	for _, op := range multiChar {
		if hasPrefixAt(l.b, i, op) {
			return Op(op), start, i + len(op), nil
		}
	}

	switch c {
	case '(', ')', '{', '}', '[', ']', ',', ';', ':', '.', '+', '-', '*', '/', '%',
		'=', '<', '>', '!', '&', '|':
		return Char(c), start, i + 1, nil
	case '"':
		return l.scanString(i)
	}

	switch {
	case isIdentStart(c):
		e := skipIdent(l.b, i)
		word := string(l.b[i:e])

		if keywords[word] {
			return Keyword(word), start, e, nil
		}

		return Ident(word), start, e, nil
	case c >= '0' && c <= '9':
		e := skipNumber(l.b, i)
		return Number(l.b[i:e]), start, e, nil
	default:
		return nil, start, i, errors.New("unexpected byte %q at %d", c, i)
	}
}

func (l *Lexer) scanString(i int) (Token, int, int, error) {
	start := i
	i++ // opening quote

	var sb strings.Builder

	for i < len(l.b) && l.b[i] != '"' {
		if l.b[i] == '\\' && i+1 < len(l.b) {
			i++

			switch l.b[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"', '\\':
				sb.WriteByte(l.b[i])
			default:
				sb.WriteByte(l.b[i])
			}

			i++
			continue
		}

		sb.WriteByte(l.b[i])
		i++
	}

	if i >= len(l.b) {
		return nil, start, i, errors.New("unterminated string literal at %d", start)
	}

	i++ // closing quote

	return String(sb.String()), start, i, nil
}

func hasPrefixAt(b []byte, i int, s string) bool {
	if i+len(s) > len(b) {
		return false
	}

	return string(b[i:i+len(s)]) == s
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func skipIdent(b []byte, i int) int {
	for i < len(b) && (isIdentStart(b[i]) || b[i] >= '0' && b[i] <= '9') {
		i++
	}

	return i
}

func skipNumber(b []byte, i int) int {
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}

	if i < len(b) && b[i] == '.' {
		i++
		for i < len(b) && b[i] >= '0' && b[i] <= '9' {
			i++
		}
	}

	return i
}

func skipTrivia(b []byte, i int) int {
	for i < len(b) {
		switch {
		case b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r':
			i++
		case hasPrefixAt(b, i, "//"):
			for i < len(b) && b[i] != '\n' {
				i++
			}
		case hasPrefixAt(b, i, "/*"):
			i += 2
			for i+1 < len(b) && !hasPrefixAt(b, i, "*/") {
				i++
			}
			i += 2
		default:
			return i
		}
	}

	return i
}
