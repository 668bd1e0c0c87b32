package fieldparser

// QuoteKind records how a value was quoted.
type QuoteKind uint8

const (
	QuoteNone QuoteKind = iota
	QuoteSingle
	QuoteDouble
)

func (k QuoteKind) String() string {
	switch k {
	case QuoteSingle:
		return "single"
	case QuoteDouble:
		return "double"
	default:
		return "none"
	}
}

func quoteKind(c byte) QuoteKind {
	if c == singleQuote {
		return QuoteSingle
	}
	return QuoteDouble
}

// Result is the decomposition of one clause.
type Result struct {
	Field string `json:"field"`
	// Value is unquoted and unescaped, except for ranges where it holds
	// the bracketed text exactly as written.
	Value   string    `json:"value"`
	Quote   QuoteKind `json:"-"`
	IsRange bool      `json:"is_range"`
	Start   string    `json:"start,omitempty"`
	End     string    `json:"end,omitempty"`

	raw string // quoted value as written, quotes included
}

// HasField reports whether the clause named a field.
func (r *Result) HasField() bool { return r.Field != "" }

// FieldWithSeparator returns the field followed by ':', or "" if there is
// no field.
func (r *Result) FieldWithSeparator() string {
	if r.Field == "" {
		return ""
	}
	return r.Field + ":"
}

// DoubleQuoted returns the value as originally written when it was in
// double quotes, and "" otherwise.
func (r *Result) DoubleQuoted() string {
	if r.Quote != QuoteDouble {
		return ""
	}
	return r.raw
}

// SingleQuoted is the single-quote counterpart of DoubleQuoted.
func (r *Result) SingleQuoted() string {
	if r.Quote != QuoteSingle {
		return ""
	}
	return r.raw
}

// Quoted returns the value with whatever quotes it was written in.
func (r *Result) Quoted() string {
	if r.Quote == QuoteNone {
		return r.Value
	}
	return r.raw
}

// String reassembles the clause. Values that needed quoting keep the
// quoting they were written with.
func (r *Result) String() string {
	return r.FieldWithSeparator() + r.Quoted()
}
