package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLexerTokens(t *testing.T) {
	l := NewLexer([]byte(`fn add(a: i32, b: i32) -> i32 { return a + b; } // trailing`))

	var got []Token

	for {
		tok, _, _, err := l.Next()
		require.NoError(t, err)

		if _, ok := tok.(EOF); ok {
			break
		}

		got = append(got, tok)
	}

	require.Equal(t, Keyword("fn"), got[0])
	require.Equal(t, Ident("add"), got[1])
	require.Equal(t, Char('('), got[2])
	require.Contains(t, got, Op("->"))
	require.Contains(t, got, Keyword("return"))
}

func TestLexerStringEscapes(t *testing.T) {
	l := NewLexer([]byte(`"hi\n\"there\""`))

	tok, _, _, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, String("hi\n\"there\""), tok)
}

func TestLexerBlockComment(t *testing.T) {
	l := NewLexer([]byte("/* skip this */let"))

	tok, _, _, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, Keyword("let"), tok)
}

func TestLexerMultiCharOperators(t *testing.T) {
	l := NewLexer([]byte("a <= b && c != d"))

	var ops []Token

	for {
		tok, _, _, err := l.Next()
		require.NoError(t, err)

		if _, ok := tok.(EOF); ok {
			break
		}

		if _, ok := tok.(Op); ok {
			ops = append(ops, tok)
		}
	}

	require.Equal(t, []Token{Op("<="), Op("&&"), Op("!=")}, ops)
}
