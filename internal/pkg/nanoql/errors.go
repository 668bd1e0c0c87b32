package nanoql

import "fmt"

// SyntaxError is returned when the token stream does not form a valid
// expression: unbalanced parentheses, missing operands or trailing terms.
type SyntaxError struct {
	Msg    string
	Lexeme string // offending lexeme, empty when there is none
}

func (e *SyntaxError) Error() string {
	return e.Msg
}

// notExpected builds the "'<lexeme>' not expected" error.
func notExpected(tok Token) *SyntaxError {
	return &SyntaxError{
		Msg:    fmt.Sprintf("'%s' not expected", tok.Lexeme),
		Lexeme: tok.Lexeme,
	}
}

// LexicalError is returned by the lexer for input it cannot split into tokens.
type LexicalError struct {
	Msg    string
	Line   int
	Column int
}

func (e *LexicalError) Error() string {
	return e.Msg
}
