package tree

import (
	"fmt"

	"github.com/arr-ai/gramophone/gotree"
)

// View renders t as a text tree. Nonterminals show the chosen production
// index; leaves show their quoted literal.
func (t *Tree) View(g Namer) string {
	if len(t.Nodes) == 0 {
		return ""
	}
	type frame struct {
		node   int
		parent gotree.Tree
	}
	root := gotree.New(t.label(g, 0))
	var stack []frame
	push := func(node int, parent gotree.Tree) {
		children := t.Nodes[node].Children
		for c := len(children) - 1; c >= 0; c-- {
			stack = append(stack, frame{children[c], parent})
		}
	}
	push(0, root)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		item := f.parent.Add(t.label(g, f.node))
		push(f.node, item)
	}
	return root.Print()
}

func (t *Tree) label(g Namer, i int) string {
	n := t.Nodes[i]
	if n.IsLeaf() {
		return fmt.Sprintf("%q", n.Literal)
	}
	return fmt.Sprintf("%s[%d]", g.Name(n.NT), n.Production)
}
