package cypher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLexerKeywordsCaseInsensitive(t *testing.T) {
	lex := NewLexer("match (n) return n")
	tok := lex.Next()
	require.Equal(t, TokKeyword, tok.Kind)
	require.Equal(t, KwMatch, tok.Keyword)
}

func TestLexerRelationshipArrow(t *testing.T) {
	lex := NewLexer("-[:KNOWS]->")
	var kinds []TokenKind
	for {
		tok := lex.Next()
		if tok.Kind == TokEOF {
			break
		}
		kinds = append(kinds, tok.Kind)
	}
	require.Equal(t, []TokenKind{
		TokMinus, TokLBrack, TokColon, TokIdent, TokRBrack, TokMinus, TokGt,
	}, kinds)
}

func TestLexerNumbers(t *testing.T) {
	lex := NewLexer("42 3.14 2e3")
	tok := lex.Next()
	require.Equal(t, TokInt, tok.Kind)
	require.Equal(t, "42", tok.Lexeme)

	tok = lex.Next()
	require.Equal(t, TokFloat, tok.Kind)
	require.Equal(t, "3.14", tok.Lexeme)

	tok = lex.Next()
	require.Equal(t, TokFloat, tok.Kind)
	require.Equal(t, "2e3", tok.Lexeme)
}

func TestLexerStringEscapes(t *testing.T) {
	lex := NewLexer(`"a\nb"`)
	tok := lex.Next()
	require.Equal(t, TokString, tok.Kind)
	require.Equal(t, "a\nb", unquote(tok.Lexeme))
}

func TestLexerUnterminatedString(t *testing.T) {
	lex := NewLexer(`"unterminated`)
	tok := lex.Next()
	require.Equal(t, TokInvalid, tok.Kind)
}

func TestLexerLineComment(t *testing.T) {
	lex := NewLexer("MATCH // a comment\n(n)")
	require.Equal(t, TokKeyword, lex.Next().Kind)
	require.Equal(t, TokLParen, lex.Next().Kind)
}
