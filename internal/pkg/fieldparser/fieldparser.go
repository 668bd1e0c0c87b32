// Package fieldparser splits a single query clause such as
//
//	title:"hello world"
//	price:[10,20]
//	'first name':ada
//
// into its field name, its value and, for bracketed values, the start and end
// of a range. It is a character-driven state machine with no dependency on the
// boolean expression compiler; callers hand it one leaf of the compiled tree
// at a time.
package fieldparser

// MaxFieldLength is the longest field name accepted.
const MaxFieldLength = 1023

const (
	doubleQuote  = '"'
	singleQuote  = '\''
	separator    = ':'
	bracketLeft  = '['
	bracketRight = ']'
	comma        = ','
	escape       = '\\'
	endOfInput   = 0
)

type state uint8

const (
	stateInit state = iota
	stateField
	stateStartValue
	stateQuote
	stateEscape
	stateValue
	stateDoubleDotsOrEnd
	stateSquareBracketInit
	stateSquareBracket
	stateSquareBracketFirstQuote
	stateSquareBracketSecondQuote
	stateSquareBracketCommaOrEnd
	stateSquareBracketEnd
	stateEnd
)

// parser holds the state of one Parse call.
type parser struct {
	input string
	pos   int

	state     state
	escapeRet state // state to resume after an escaped character
	quote     byte  // quote that opened the current quoted section

	field      []byte
	value      []byte
	start      []byte
	end        []byte
	quoteStart int // offset of the opening quote of a quoted value
	rangeStart int // offset of the '[' of a range

	res Result
}

// Parse decomposes one clause. It never returns a partial result: either the
// whole clause is valid or an *Error describes the first problem.
func Parse(clause string) (*Result, error) {
	p := &parser{input: clause}
	if err := p.run(); err != nil {
		return nil, err
	}
	return &p.res, nil
}

// at returns the character at offset i, or endOfInput past the end.
// A NUL byte inside the clause also ends it.
func (p *parser) at(i int) byte {
	if i >= len(p.input) {
		return endOfInput
	}
	return p.input[i]
}

func (p *parser) run() error {
	for ; ; p.pos++ {
		c := p.at(p.pos)

		var err error
		switch p.state {
		case stateInit:
			err = p.onInit(c)
		case stateField:
			err = p.onField(c)
		case stateStartValue:
			err = p.onStartValue(c)
		case stateQuote:
			err = p.onQuote(c)
		case stateDoubleDotsOrEnd:
			err = p.onDoubleDotsOrEnd(c)
		case stateEscape:
			err = p.onEscape(c)
		case stateValue:
			err = p.onValue(c)
		case stateSquareBracketInit:
			err = p.onSquareBracketInit(c)
		case stateSquareBracket:
			err = p.onSquareBracket(c)
		case stateSquareBracketFirstQuote:
			err = p.onBracketQuote(c, &p.start, stateSquareBracketCommaOrEnd)
		case stateSquareBracketSecondQuote:
			err = p.onBracketQuote(c, &p.end, stateSquareBracketEnd)
		case stateSquareBracketCommaOrEnd:
			err = p.onSquareBracketCommaOrEnd(c)
		case stateSquareBracketEnd:
			err = p.onSquareBracketEnd(c)
		}
		if err != nil {
			return err
		}

		if p.state == stateEnd {
			return p.finish()
		}
	}
}

func (p *parser) onInit(c byte) error {
	switch c {
	case bracketLeft, doubleQuote, singleQuote, endOfInput:
		return p.beginValue(c)
	case ' ', '\t', '\r', '\n':
		return nil
	default:
		p.state = stateField
		p.field = append(p.field, c)
		return nil
	}
}

func (p *parser) onField(c byte) error {
	switch c {
	case separator:
		p.state = stateStartValue
	case endOfInput:
		// No separator: what looked like a field is the value.
		p.value, p.field = p.field, nil
		p.state = stateEnd
	default:
		if len(p.field) >= MaxFieldLength {
			return syntaxError()
		}
		p.field = append(p.field, c)
	}
	return nil
}

func (p *parser) onStartValue(c byte) error {
	switch c {
	case bracketLeft, doubleQuote, singleQuote, endOfInput:
		return p.beginValue(c)
	case ' ', '\t', '\r', '\n':
		return syntaxError()
	default:
		p.state = stateValue
		p.value = append(p.value, c)
		return nil
	}
}

// beginValue handles the characters that open a value the same way
// whether or not a field name came before them.
func (p *parser) beginValue(c byte) error {
	switch c {
	case bracketLeft:
		p.state = stateSquareBracketInit
		p.res.IsRange = true
		p.rangeStart = p.pos
	case doubleQuote, singleQuote:
		p.state = stateQuote
		p.quote = c
		p.quoteStart = p.pos
	case endOfInput:
		p.state = stateEnd
	}
	return nil
}

func (p *parser) onQuote(c byte) error {
	switch c {
	case escape:
		p.state = stateEscape
		p.escapeRet = stateQuote
	case endOfInput:
		return expectedSymbol(p.quote)
	case p.quote:
		p.state = stateDoubleDotsOrEnd
		p.res.Quote = quoteKind(p.quote)
		p.res.raw = p.input[p.quoteStart : p.pos+1]
	default:
		p.value = append(p.value, c)
	}
	return nil
}

func (p *parser) onDoubleDotsOrEnd(c byte) error {
	switch c {
	case endOfInput:
		p.state = stateEnd
	case separator:
		// The quoted text was the field name, replacing any earlier one.
		p.field, p.value = p.value, nil
		p.res.Quote = QuoteNone
		p.res.raw = ""
		p.state = stateStartValue
	default:
		return unexpectedSymbol(c)
	}
	return nil
}

func (p *parser) onEscape(c byte) error {
	if c == endOfInput {
		return &Error{Msg: "Syntax error in query escaped"}
	}
	switch p.escapeRet {
	case stateSquareBracketFirstQuote:
		p.start = append(p.start, c)
	case stateSquareBracketSecondQuote:
		p.end = append(p.end, c)
	default:
		p.value = append(p.value, c)
	}
	p.state = p.escapeRet
	return nil
}

func (p *parser) onValue(c byte) error {
	switch c {
	case endOfInput:
		p.state = stateEnd
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return syntaxError()
	default:
		p.value = append(p.value, c)
	}
	return nil
}

func (p *parser) onSquareBracketInit(c byte) error {
	switch c {
	case doubleQuote, singleQuote:
		p.state = stateSquareBracketFirstQuote
		p.quote = c
	case comma:
		p.state = stateSquareBracket
	case bracketRight:
		p.state = stateEnd
	case endOfInput:
		return syntaxError()
	default:
		p.start = append(p.start, c)
	}
	return nil
}

func (p *parser) onSquareBracket(c byte) error {
	switch c {
	case doubleQuote, singleQuote:
		p.state = stateSquareBracketSecondQuote
		p.quote = c
	case bracketRight:
		p.state = stateEnd
	case endOfInput:
		return expectedSymbol(bracketRight)
	default:
		p.end = append(p.end, c)
	}
	return nil
}

// onBracketQuote handles a quoted range element, accumulating into buf and
// moving to next once the closing quote is seen.
func (p *parser) onBracketQuote(c byte, buf *[]byte, next state) error {
	switch c {
	case escape:
		p.escapeRet = p.state
		p.state = stateEscape
	case endOfInput:
		return expectedSymbol(p.quote)
	case p.quote:
		p.state = next
	default:
		*buf = append(*buf, c)
	}
	return nil
}

func (p *parser) onSquareBracketCommaOrEnd(c byte) error {
	switch c {
	case comma:
		p.state = stateSquareBracket
	case bracketRight:
		p.state = stateEnd
	case endOfInput:
		return expectedSymbol(bracketRight)
	default:
		return unexpectedSymbol(c)
	}
	return nil
}

func (p *parser) onSquareBracketEnd(c byte) error {
	if c != bracketRight {
		return expectedSymbol(bracketRight)
	}
	p.state = stateEnd
	return nil
}

// finish copies the accumulators into the result. A range closed by ']'
// must be the last thing in the clause.
func (p *parser) finish() error {
	if p.res.IsRange {
		if p.pos+1 < len(p.input) {
			return unexpectedSymbol(p.input[p.pos+1])
		}
		p.res.Value = p.input[p.rangeStart:]
		p.res.Start = string(p.start)
		p.res.End = string(p.end)
	} else {
		p.res.Value = string(p.value)
	}
	p.res.Field = string(p.field)
	return nil
}
