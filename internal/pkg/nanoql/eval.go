package nanoql

import (
	"strconv"
	"strings"

	"github.com/coffersTech/nanosearch/internal/pkg/fieldparser"
)

// Record is a document that can be matched. This decouples nanoql from the
// engine package.
type Record interface {
	// Field returns the value of a named field.
	Field(name string) (string, bool)
	// Text returns the values searched by terms that name no field.
	Text() []string
}

type matcher func(Record) bool

// Query is a compiled expression whose leaves have all been decomposed.
// It is immutable and safe for concurrent use.
type Query struct {
	root  Node
	match matcher
}

// Prepare decomposes every leaf of the tree once. The returned Query never
// fails to evaluate.
func Prepare(node Node) (*Query, error) {
	if node == nil {
		return &Query{match: func(Record) bool { return true }}, nil
	}
	m, err := build(node)
	if err != nil {
		return nil, err
	}
	return &Query{root: node, match: m}, nil
}

// Root returns the tree the query was prepared from.
func (q *Query) Root() Node { return q.root }

// Match reports whether rec satisfies the query.
func (q *Query) Match(rec Record) bool { return q.match(rec) }

// Match evaluates the tree against a single record. A nil tree matches
// everything.
func Match(node Node, rec Record) (bool, error) {
	q, err := Prepare(node)
	if err != nil {
		return false, err
	}
	return q.Match(rec), nil
}

func build(node Node) (matcher, error) {
	switch node.Type() {
	case NodeID:
		return buildLeaf(node.(*IDNode).ID)

	case NodeNot:
		child, err := build(node.(*NotNode).Child)
		if err != nil {
			return nil, err
		}
		return func(r Record) bool { return !child(r) }, nil

	default:
		l, r := node.(BinaryNode).Operands()
		left, err := build(l)
		if err != nil {
			return nil, err
		}
		right, err := build(r)
		if err != nil {
			return nil, err
		}
		switch node.Type() {
		case NodeAnd:
			return func(rec Record) bool { return left(rec) && right(rec) }, nil
		case NodeOr:
			return func(rec Record) bool { return left(rec) || right(rec) }, nil
		default:
			return func(rec Record) bool { return left(rec) != right(rec) }, nil
		}
	}
}

func buildLeaf(id string) (matcher, error) {
	fp, err := fieldparser.Parse(id)
	if err != nil {
		return nil, err
	}

	// Full-text search (no field specified)
	if !fp.HasField() {
		needle := strings.ToLower(fp.Value)
		return func(r Record) bool {
			for _, text := range r.Text() {
				if strings.Contains(strings.ToLower(text), needle) {
					return true
				}
			}
			return false
		}, nil
	}

	field := fp.Field
	switch {
	case fp.IsRange:
		lo, hi := fp.Start, fp.End
		return func(r Record) bool {
			v, ok := r.Field(field)
			return ok && inRange(v, lo, hi)
		}, nil

	case fp.Quote == fieldparser.QuoteNone && strings.HasSuffix(fp.Value, "*"):
		prefix := strings.TrimSuffix(fp.Value, "*")
		return func(r Record) bool {
			v, ok := r.Field(field)
			return ok && hasPrefixFold(v, prefix)
		}, nil

	default:
		want := fp.Value
		return func(r Record) bool {
			v, ok := r.Field(field)
			return ok && strings.EqualFold(v, want)
		}, nil
	}
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// inRange checks lo <= v <= hi. An empty bound is open. Values are compared
// as numbers when v and every given bound parse as numbers.
func inRange(v, lo, hi string) bool {
	if n, ok := parseNumber(v); ok {
		lon, lok := parseNumber(lo)
		hin, hok := parseNumber(hi)
		if (lo == "" || lok) && (hi == "" || hok) {
			return (lo == "" || n >= lon) && (hi == "" || n <= hin)
		}
	}
	return (lo == "" || v >= lo) && (hi == "" || v <= hi)
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
