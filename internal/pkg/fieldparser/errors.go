package fieldparser

import "fmt"

// Error is returned for any malformed clause.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

func syntaxError() *Error {
	return &Error{Msg: "Syntax error in query"}
}

func expectedSymbol(c byte) *Error {
	return &Error{Msg: fmt.Sprintf("Expected symbol: '%c'", c)}
}

func unexpectedSymbol(c byte) *Error {
	return &Error{Msg: fmt.Sprintf("Unexpected symbol: %c", c)}
}
