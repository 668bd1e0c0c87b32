package nanoql

// NodeType identifies the concrete kind of an AST node.
type NodeType uint8

const (
	NodeID NodeType = iota
	NodeNot
	NodeAnd
	NodeOr
	NodeXor
)

func (t NodeType) String() string {
	switch t {
	case NodeID:
		return "ID"
	case NodeNot:
		return "NOT"
	case NodeAnd:
		return "AND"
	case NodeOr:
		return "OR"
	case NodeXor:
		return "XOR"
	default:
		return "UNKNOWN"
	}
}

// Node is the interface implemented by all AST nodes.
// Consumers dispatch on Type() and then use the concrete node.
type Node interface {
	Type() NodeType
}

// BinaryNode is implemented by AND, OR and XOR nodes.
type BinaryNode interface {
	Node
	Operands() (left, right Node)
}

// AndNode is the conjunction of two expressions.
type AndNode struct {
	Left  Node
	Right Node
}

func (*AndNode) Type() NodeType { return NodeAnd }

func (n *AndNode) Operands() (Node, Node) { return n.Left, n.Right }

// OrNode is the disjunction of two expressions.
type OrNode struct {
	Left  Node
	Right Node
}

func (*OrNode) Type() NodeType { return NodeOr }

func (n *OrNode) Operands() (Node, Node) { return n.Left, n.Right }

// XorNode matches when exactly one of its operands matches.
type XorNode struct {
	Left  Node
	Right Node
}

func (*XorNode) Type() NodeType { return NodeXor }

func (n *XorNode) Operands() (Node, Node) { return n.Left, n.Right }

// NotNode negates its inner expression.
type NotNode struct {
	Child Node
}

func (*NotNode) Type() NodeType { return NodeNot }

// IDNode is a leaf: a bare term or a field:value clause, kept as written.
type IDNode struct {
	ID string
}

func (*IDNode) Type() NodeType { return NodeID }

// newBinary builds the node for a binary operator token.
func newBinary(typ TokenType, left, right Node) Node {
	switch typ {
	case TokenAnd:
		return &AndNode{Left: left, Right: right}
	case TokenOr:
		return &OrNode{Left: left, Right: right}
	default:
		return &XorNode{Left: left, Right: right}
	}
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// stops the descent below the current node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n.Type() {
	case NodeNot:
		Walk(n.(*NotNode).Child, fn)
	case NodeAnd, NodeOr, NodeXor:
		left, right := n.(BinaryNode).Operands()
		Walk(left, fn)
		Walk(right, fn)
	}
}

// Leaves returns the ID lexemes of the tree from left to right.
func Leaves(n Node) []string {
	var ids []string
	Walk(n, func(n Node) bool {
		if n.Type() == NodeID {
			ids = append(ids, n.(*IDNode).ID)
		}
		return true
	})
	return ids
}

// NodeView is a serializable snapshot of an AST.
type NodeView struct {
	Type  string    `json:"type"`
	ID    string    `json:"id,omitempty"`
	Left  *NodeView `json:"left,omitempty"`
	Right *NodeView `json:"right,omitempty"`
	Child *NodeView `json:"child,omitempty"`
}

// View converts the tree rooted at n into a NodeView.
func View(n Node) *NodeView {
	if n == nil {
		return nil
	}
	v := &NodeView{Type: n.Type().String()}
	switch n.Type() {
	case NodeID:
		v.ID = n.(*IDNode).ID
	case NodeNot:
		v.Child = View(n.(*NotNode).Child)
	default:
		left, right := n.(BinaryNode).Operands()
		v.Left = View(left)
		v.Right = View(right)
	}
	return v
}
