package nanoql

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenID
	TokenNot
	TokenAnd
	TokenOr
	TokenXor
	TokenLParen
	TokenRParen
)

var tokenNames = [...]string{
	TokenEOF:    "EOF",
	TokenID:     "ID",
	TokenNot:    "NOT",
	TokenAnd:    "AND",
	TokenOr:     "OR",
	TokenXor:    "XOR",
	TokenLParen: "(",
	TokenRParen: ")",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// MaxLexemeLength bounds the size of a single term.
const MaxLexemeLength = 1024

// Token represents a lexical token.
type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
	Column int
}

// Lexer tokenizes a boolean expression. It holds a cursor into the input
// through its SymbolSource, and every lexeme is a substring of that input.
type Lexer struct {
	src     *SymbolSource
	current Symbol
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	src := NewSymbolSource(input)
	return &Lexer{src: src, current: src.Next()}
}

// Tokenize returns every token of input, always ending with TokenEOF.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	start := l.current
	if start.EOF() {
		return Token{Type: TokenEOF, Line: start.Line, Column: start.Column}, nil
	}

	// Single-character tokens
	if typ, ok := symbolOperator(start.Char); ok {
		l.advance()
		return l.token(typ, start), nil
	}

	return l.readID(start)
}

func (l *Lexer) advance() {
	l.current = l.src.Next()
}

func (l *Lexer) token(typ TokenType, start Symbol) Token {
	return Token{
		Type:   typ,
		Lexeme: l.src.Input()[start.Offset:l.current.Offset],
		Line:   start.Line,
		Column: start.Column,
	}
}

func (l *Lexer) skipWhitespace() {
	for !l.current.EOF() && isSpace(l.current.Char) {
		l.advance()
	}
}

// readID consumes a maximal run of term characters. Quoted and bracketed
// sections are kept whole, whitespace and parentheses included.
func (l *Lexer) readID(start Symbol) (Token, error) {
	for {
		c := l.current.Char
		if l.current.EOF() || isSpace(c) {
			break
		}
		if _, ok := symbolOperator(c); ok {
			break
		}

		var err error
		switch c {
		case '"', '\'':
			err = l.skipQuoted(c)
		case '[':
			err = l.skipBracket()
		default:
			l.advance()
		}
		if err != nil {
			return Token{}, err
		}

		if l.current.Offset-start.Offset > MaxLexemeLength {
			return Token{}, &LexicalError{
				Msg:    fmt.Sprintf("term longer than %d characters", MaxLexemeLength),
				Line:   start.Line,
				Column: start.Column,
			}
		}
	}

	tok := l.token(TokenID, start)
	tok.Type = keyword(tok.Lexeme)
	return tok, nil
}

func (l *Lexer) skipQuoted(quote byte) error {
	open := l.current
	l.advance() // skip opening quote
	for {
		switch {
		case l.current.EOF():
			return unterminated(quote, open)
		case l.current.Char == '\\':
			l.advance()
			if l.current.EOF() {
				return unterminated(quote, open)
			}
			l.advance()
		case l.current.Char == quote:
			l.advance()
			return nil
		default:
			l.advance()
		}
	}
}

func (l *Lexer) skipBracket() error {
	open := l.current
	l.advance() // skip [
	for {
		switch c := l.current.Char; {
		case l.current.EOF():
			return &LexicalError{Msg: "Expected symbol: ']'", Line: open.Line, Column: open.Column}
		case c == '"' || c == '\'':
			if err := l.skipQuoted(c); err != nil {
				return err
			}
		case c == ']':
			l.advance()
			return nil
		default:
			l.advance()
		}
	}
}

func unterminated(quote byte, open Symbol) *LexicalError {
	return &LexicalError{
		Msg:    fmt.Sprintf("Expected symbol: '%c'", quote),
		Line:   open.Line,
		Column: open.Column,
	}
}

// symbolOperator maps the single-character tokens.
func symbolOperator(c byte) (TokenType, bool) {
	switch c {
	case '(':
		return TokenLParen, true
	case ')':
		return TokenRParen, true
	case '&':
		return TokenAnd, true
	case '|':
		return TokenOr, true
	case '~':
		return TokenNot, true
	}
	return TokenEOF, false
}

// keyword classifies a term, recognizing the operator words in any case.
func keyword(lexeme string) TokenType {
	switch {
	case strings.EqualFold(lexeme, "AND"):
		return TokenAnd
	case strings.EqualFold(lexeme, "OR"):
		return TokenOr
	case strings.EqualFold(lexeme, "NOT"):
		return TokenNot
	case strings.EqualFold(lexeme, "XOR"):
		return TokenXor
	}
	return TokenID
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
