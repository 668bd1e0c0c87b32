package nanoql

import (
	"strings"
)

// precedence returns the binding tier of an operator; lower binds tighter.
// NOT and AND share a tier, so "NOT a AND b" groups as "(NOT a) AND b".
func precedence(t TokenType) int {
	switch t {
	case TokenNot, TokenAnd:
		return 0
	case TokenXor:
		return 1
	case TokenOr:
		return 2
	default:
		return 3
	}
}

// Compile parses a boolean expression into an AST.
func Compile(expr string) (Node, error) {
	rpn, err := ToRPN(expr)
	if err != nil {
		return nil, err
	}
	return buildTree(rpn)
}

// ToRPN converts the expression to Reverse Polish order using
// Dijkstra's shunting-yard algorithm.
func ToRPN(expr string) ([]Token, error) {
	lexer := NewLexer(expr)
	var output, operators []Token

	for {
		tok, err := lexer.NextToken()
		if err != nil {
			return nil, err
		}

		switch tok.Type {
		case TokenID:
			output = append(output, tok)

		case TokenLParen:
			operators = append(operators, tok)

		case TokenRParen:
			for {
				if len(operators) == 0 {
					return nil, &SyntaxError{Msg: ") was expected", Lexeme: tok.Lexeme}
				}
				top := operators[len(operators)-1]
				operators = operators[:len(operators)-1]
				if top.Type == TokenLParen {
					break
				}
				output = append(output, top)
			}

		case TokenNot:
			// A prefix operator has no left operand, so nothing on the
			// stack can be completed by it.
			operators = append(operators, tok)

		case TokenAnd, TokenOr, TokenXor:
			for len(operators) > 0 {
				top := operators[len(operators)-1]
				if top.Type == TokenLParen || precedence(top.Type) > precedence(tok.Type) {
					break
				}
				output = append(output, top)
				operators = operators[:len(operators)-1]
			}
			operators = append(operators, tok)

		case TokenEOF:
			for len(operators) > 0 {
				top := operators[len(operators)-1]
				operators = operators[:len(operators)-1]
				if top.Type == TokenLParen {
					return nil, &SyntaxError{Msg: ") was expected", Lexeme: top.Lexeme}
				}
				output = append(output, top)
			}
			return output, nil
		}
	}
}

// treeBuilder consumes an RPN sequence from its back.
type treeBuilder struct {
	stack []Token
}

func (b *treeBuilder) pop() Token {
	tok := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return tok
}

// buildTree turns an RPN sequence into a single tree, failing if the
// sequence holds anything but exactly one expression.
func buildTree(rpn []Token) (Node, error) {
	if len(rpn) == 0 {
		return nil, &SyntaxError{Msg: "empty expression"}
	}

	b := &treeBuilder{stack: rpn}

	// Two terms with no operator between them, as in "a b".
	if top := b.stack[len(b.stack)-1]; len(b.stack) > 1 && top.Type == TokenID {
		return nil, notExpected(top)
	}

	root, err := b.node(Token{})
	if err != nil {
		return nil, err
	}

	if len(b.stack) > 0 {
		return nil, notExpected(b.stack[len(b.stack)-1])
	}
	return root, nil
}

// node builds the expression on top of the stack. parent is the operator
// that needs it and is named in the error when the stack runs dry.
func (b *treeBuilder) node(parent Token) (Node, error) {
	if len(b.stack) == 0 {
		return nil, notExpected(parent)
	}

	tok := b.pop()
	switch tok.Type {
	case TokenID:
		return &IDNode{ID: tok.Lexeme}, nil

	case TokenNot:
		child, err := b.node(tok)
		if err != nil {
			return nil, err
		}
		return &NotNode{Child: child}, nil

	case TokenAnd, TokenOr, TokenXor:
		// The operand pushed last is the right-hand one.
		right, err := b.node(tok)
		if err != nil {
			return nil, err
		}
		left, err := b.node(tok)
		if err != nil {
			return nil, err
		}
		return newBinary(tok.Type, left, right), nil

	default:
		return nil, notExpected(tok)
	}
}

// String renders the tree as a fully parenthesized expression that
// compiles back to the same tree.
func String(n Node) string {
	var sb strings.Builder
	writeExpr(&sb, n)
	return sb.String()
}

func writeExpr(sb *strings.Builder, n Node) {
	switch n.Type() {
	case NodeID:
		sb.WriteString(n.(*IDNode).ID)
	case NodeNot:
		sb.WriteString("NOT ")
		writeExpr(sb, n.(*NotNode).Child)
	default:
		left, right := n.(BinaryNode).Operands()
		sb.WriteByte('(')
		writeExpr(sb, left)
		sb.WriteByte(' ')
		sb.WriteString(n.Type().String())
		sb.WriteByte(' ')
		writeExpr(sb, right)
		sb.WriteByte(')')
	}
}
