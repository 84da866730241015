package java

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cspurity/cspurity/internal/langfront"
)

// tsNode adapts a tree-sitter node to langfront.Node.
type tsNode struct {
	n   *tree_sitter.Node
	src []byte
}

func wrap(n *tree_sitter.Node, src []byte) langfront.Node {
	if n == nil {
		return nil
	}
	return tsNode{n: n, src: src}
}

func (w tsNode) ID() uintptr  { return w.n.Id() }
func (w tsNode) Kind() string { return w.n.Kind() }
func (w tsNode) Text() string { return nodeText(w.n, w.src) }
