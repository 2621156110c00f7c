package driver

import (
	"fmt"
	"io"
	"strings"

	"github.com/catinrage/liquid/driver/lexer"
	"github.com/catinrage/liquid/grammar"
	"github.com/catinrage/liquid/grammar/symbol"
)

// Node is the syntax tree the generic tree action builds for grammars
// without user actions. A leaf wraps the shifted token; an inner node
// carries the variable its reduction produced. Value holds payloads that
// came from rules with non-tree actions.
type Node struct {
	Sym      symbol.Symbol
	Tok      *lexer.Token
	Value    interface{}
	Children []*Node
}

// Leaf reports whether the node wraps a single token.
func (n *Node) Leaf() bool {
	return n.Tok != nil
}

// TreeAction is a semantic action building one Node per reduction of the
// given variable: token payloads become leaves, reduced variables become
// subtrees.
func TreeAction(lhs symbol.Symbol) grammar.SemanticAction {
	return func(payloads []interface{}) interface{} {
		node := &Node{
			Sym:      lhs,
			Children: make([]*Node, 0, len(payloads)),
		}
		for _, payload := range payloads {
			switch v := payload.(type) {
			case *lexer.Token:
				node.Children = append(node.Children, &Node{
					Sym: v.Type,
					Tok: v,
				})
			case *Node:
				node.Children = append(node.Children, v)
			default:
				node.Children = append(node.Children, &Node{
					Value: v,
				})
			}
		}
		return node
	}
}

// Dump writes the tree one node per line, children indented under their
// parent. Leaves show their lexeme and source position.
func (n *Node) Dump(w io.Writer) {
	n.dump(w, 0)
}

func (n *Node) dump(w io.Writer, depth int) {
	if n == nil {
		return
	}

	indent := strings.Repeat("  ", depth)
	switch {
	case n.Tok != nil:
		fmt.Fprintf(w, "%v%v %q @%v\n", indent, n.Sym, n.Tok.Lexeme, n.Tok.Start)
	case n.Sym.IsNil():
		fmt.Fprintf(w, "%v<%v>\n", indent, n.Value)
	default:
		fmt.Fprintf(w, "%v%v\n", indent, n.Sym)
	}

	for _, child := range n.Children {
		child.dump(w, depth+1)
	}
}
