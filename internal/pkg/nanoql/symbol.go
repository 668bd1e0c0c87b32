package nanoql

// Symbol is a single input character with its 1-based position.
// A Symbol whose Char is 0 marks the end of input.
type Symbol struct {
	Char   byte
	Line   int
	Column int
	Offset int // byte offset of Char in the input
}

// EOF reports whether the symbol is the end-of-input sentinel.
func (s Symbol) EOF() bool {
	return s.Char == 0
}

// SymbolSource hands out the characters of an in-memory buffer one at a time.
// CR, LF, CR+LF and LF+CR are each reported as a single line break.
type SymbolSource struct {
	input  string
	pos    int
	line   int
	column int
}

// NewSymbolSource creates a SymbolSource positioned at the first character.
func NewSymbolSource(input string) *SymbolSource {
	return &SymbolSource{input: input, line: 1, column: 1}
}

// Next returns the next symbol. Once the input is exhausted it keeps
// returning the end sentinel without moving.
func (s *SymbolSource) Next() Symbol {
	if s.pos >= len(s.input) {
		return Symbol{Line: s.line, Column: s.column, Offset: len(s.input)}
	}

	sym := Symbol{
		Char:   s.input[s.pos],
		Line:   s.line,
		Column: s.column,
		Offset: s.pos,
	}
	s.pos++

	switch sym.Char {
	case '\r', '\n':
		// fold the second half of a CR+LF / LF+CR pair into this break
		if s.pos < len(s.input) {
			next := s.input[s.pos]
			if (next == '\r' || next == '\n') && next != sym.Char {
				s.pos++
			}
		}
		s.line++
		s.column = 1
	default:
		s.column++
	}

	return sym
}

// Input returns the buffer the source reads from.
func (s *SymbolSource) Input() string {
	return s.input
}
