package nanoql

import (
	"fmt"
	"io"
	"strings"
)

const printIndent = 4

// PrintTree writes a sideways, in-order rendering of the tree to w:
// a binary node prints its left subtree, its operator and then its right
// subtree, each level indented four more columns than its parent.
func PrintTree(w io.Writer, n Node) error {
	return printNode(w, n, 0)
}

// Sprint returns the PrintTree rendering as a string.
func Sprint(n Node) string {
	var sb strings.Builder
	_ = PrintTree(&sb, n)
	return sb.String()
}

func printNode(w io.Writer, n Node, indent int) error {
	if n == nil {
		return nil
	}
	pad := strings.Repeat(" ", indent)

	switch n.Type() {
	case NodeID:
		_, err := fmt.Fprintf(w, "%s%s\n", pad, n.(*IDNode).ID)
		return err
	case NodeNot:
		if _, err := fmt.Fprintf(w, "%sNOT\n", pad); err != nil {
			return err
		}
		return printNode(w, n.(*NotNode).Child, indent+printIndent)
	default:
		left, right := n.(BinaryNode).Operands()
		if err := printNode(w, left, indent+printIndent); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", pad, n.Type()); err != nil {
			return err
		}
		return printNode(w, right, indent+printIndent)
	}
}
