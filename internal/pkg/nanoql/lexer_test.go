package nanoql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input   string
		types   []TokenType
		lexemes []string
	}{
		{"a", []TokenType{TokenID, TokenEOF}, []string{"a", ""}},
		{"a AND b", []TokenType{TokenID, TokenAnd, TokenID, TokenEOF}, []string{"a", "AND", "b", ""}},
		{"a and b", []TokenType{TokenID, TokenAnd, TokenID, TokenEOF}, []string{"a", "and", "b", ""}},
		{"a Or b", []TokenType{TokenID, TokenOr, TokenID, TokenEOF}, []string{"a", "Or", "b", ""}},
		{"a XOR b", []TokenType{TokenID, TokenXor, TokenID, TokenEOF}, []string{"a", "XOR", "b", ""}},
		{"NOT a", []TokenType{TokenNot, TokenID, TokenEOF}, []string{"NOT", "a", ""}},
		{"(a)", []TokenType{TokenLParen, TokenID, TokenRParen, TokenEOF}, []string{"(", "a", ")", ""}},
		{"a&b|~c", []TokenType{TokenID, TokenAnd, TokenID, TokenOr, TokenNot, TokenID, TokenEOF},
			[]string{"a", "&", "b", "|", "~", "c", ""}},
		{"title:hello", []TokenType{TokenID, TokenEOF}, []string{"title:hello", ""}},
		{`title:"a (b) AND c" OR d`, []TokenType{TokenID, TokenOr, TokenID, TokenEOF},
			[]string{`title:"a (b) AND c"`, "OR", "d", ""}},
		{`msg:'it\'s' x`, []TokenType{TokenID, TokenID, TokenEOF}, []string{`msg:'it\'s'`, "x", ""}},
		{"n:[1, 5] AND m", []TokenType{TokenID, TokenAnd, TokenID, TokenEOF}, []string{"n:[1, 5]", "AND", "m", ""}},
		{`n:["a]", b]`, []TokenType{TokenID, TokenEOF}, []string{`n:["a]", b]`, ""}},
		{"ANDROID", []TokenType{TokenID, TokenEOF}, []string{"ANDROID", ""}},
		{"  \t\n ", []TokenType{TokenEOF}, []string{""}},
		{"", []TokenType{TokenEOF}, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			require.NoError(t, err)
			require.Len(t, tokens, len(tt.types))
			for i, tok := range tokens {
				assert.Equal(t, tt.types[i], tok.Type, "token %d", i)
				assert.Equal(t, tt.lexemes[i], tok.Lexeme, "token %d", i)
			}
		})
	}
}

func TestTokenPositions(t *testing.T) {
	tokens, err := Tokenize("a AND\n  (b)")
	require.NoError(t, err)

	type pos struct{ line, col int }
	want := []pos{{1, 1}, {1, 3}, {2, 3}, {2, 4}, {2, 5}, {2, 6}}
	require.Len(t, tokens, len(want))
	for i, tok := range tokens {
		assert.Equal(t, want[i], pos{tok.Line, tok.Column}, "token %d (%s)", i, tok.Type)
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
		line  int
		col   int
	}{
		{`title:"abc`, `Expected symbol: '"'`, 1, 7},
		{`a OR t:'x`, `Expected symbol: '''`, 1, 8},
		{`a:"x\`, `Expected symbol: '"'`, 1, 3},
		{"n:[1,2", "Expected symbol: ']'", 1, 3},
		{strings.Repeat("x", MaxLexemeLength+1), "term longer than 1024 characters", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			var lerr *LexicalError
			require.ErrorAs(t, err, &lerr)
			assert.Equal(t, tt.msg, lerr.Msg)
			assert.Equal(t, tt.line, lerr.Line)
			assert.Equal(t, tt.col, lerr.Column)
		})
	}
}

func TestLexemeAtLimit(t *testing.T) {
	id := strings.Repeat("x", MaxLexemeLength)
	tokens, err := Tokenize(id)
	require.NoError(t, err)
	assert.Equal(t, id, tokens[0].Lexeme)
}

func TestTokenTypeString(t *testing.T) {
	assert.Equal(t, "AND", TokenAnd.String())
	assert.Equal(t, "(", TokenLParen.String())
	assert.Equal(t, "TokenType(42)", TokenType(42).String())
}
