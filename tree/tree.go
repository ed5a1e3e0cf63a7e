// Package tree holds derivation trees produced by the generator.
//
// A Tree is an arena of nodes addressed by index. Node 0 is the root and
// every node is stored after its parent.
package tree

import (
	"io"

	"github.com/arr-ai/gramophone/grammar"
	"gopkg.in/yaml.v3"
)

// Node is a nonterminal expansion (NT != 0) or a literal leaf.
type Node struct {
	NT         grammar.NonterminalID `yaml:"nt,omitempty"`
	Production int                   `yaml:"production,omitempty"`
	Literal    string                `yaml:"literal,omitempty"`
	Children   []int                 `yaml:"children,omitempty,flow"`
}

func (n Node) IsLeaf() bool { return n.NT == 0 }

type Tree struct {
	Nodes []Node
}

// Namer resolves nonterminal names, typically a *grammar.Grammar.
type Namer interface {
	Name(grammar.NonterminalID) string
}

// AddNode appends a nonterminal node with room for size children.
func (t *Tree) AddNode(nt grammar.NonterminalID, production, size int) int {
	t.Nodes = append(t.Nodes, Node{NT: nt, Production: production, Children: make([]int, 0, size)})
	return len(t.Nodes) - 1
}

func (t *Tree) AddLeaf(literal string) int {
	t.Nodes = append(t.Nodes, Node{Literal: literal})
	return len(t.Nodes) - 1
}

func (t *Tree) AddChild(parent, child int) {
	t.Nodes[parent].Children = append(t.Nodes[parent].Children, child)
}

func (t *Tree) Len() int {
	return len(t.Nodes)
}

// Depth returns the largest number of edges between the root and any
// nonterminal node.
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	depths := make([]int, len(t.Nodes))
	deepest := 0
	for i, n := range t.Nodes {
		if n.IsLeaf() {
			continue
		}
		if depths[i] > deepest {
			deepest = depths[i]
		}
		for _, c := range n.Children {
			depths[c] = depths[i] + 1
		}
	}
	return deepest
}

type dump struct {
	Names []string `yaml:"names"`
	Nodes []Node   `yaml:"nodes"`
}

// Dump writes t as YAML along with the names of the nonterminals it uses,
// for later inspection.
func (t *Tree) Dump(g Namer, w io.Writer) error {
	d := dump{Nodes: t.Nodes}
	seen := map[grammar.NonterminalID]bool{}
	for _, n := range t.Nodes {
		if !n.IsLeaf() && !seen[n.NT] {
			seen[n.NT] = true
			for len(d.Names) <= int(n.NT) {
				d.Names = append(d.Names, "")
			}
			d.Names[n.NT] = g.Name(n.NT)
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return err
	}
	return enc.Close()
}
