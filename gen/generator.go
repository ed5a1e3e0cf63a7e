// Package gen generates random derivation trees from a compiled grammar.
package gen

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/arr-ai/gramophone/grammar"
	"github.com/arr-ai/gramophone/tree"
)

// DefaultMaxDepth is the budget RandomLengthFor returns unless WithMaxDepth
// says otherwise.
const DefaultMaxDepth = 10

var ErrBudgetExhausted = errors.New("budget exhausted")

// BudgetError reports a nonterminal that had no production fitting the
// remaining budget. It matches ErrBudgetExhausted under errors.Is.
type BudgetError struct {
	Rule     string
	Budget   int
	MinDepth int
}

func (e BudgetError) Error() string {
	return fmt.Sprintf("%s: rule(%s) needs depth %d but only %d remains",
		ErrBudgetExhausted, e.Rule, e.MinDepth, e.Budget)
}

func (e BudgetError) Is(target error) bool { return target == ErrBudgetExhausted }

type Option func(*Generator)

// WithDumb disables size-aware selection. Any production may be chosen until
// the budget is nearly exhausted, so generation may fail with
// ErrBudgetExhausted where the default mode would not.
func WithDumb(dumb bool) Option {
	return func(g *Generator) { g.dumb = dumb }
}

func WithMaxDepth(depth int) Option {
	return func(g *Generator) { g.maxDepth = depth }
}

func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rnd = r }
}

func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// Generator draws trees from a Grammar. The Grammar may be shared, but a
// Generator owns its random source and must not be used concurrently.
type Generator struct {
	g          *grammar.Grammar
	rnd        *rand.Rand
	dumb       bool
	maxDepth   int
	candidates []int
}

func New(g *grammar.Grammar, opts ...Option) *Generator {
	gen := &Generator{g: g, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(gen)
	}
	if gen.rnd == nil {
		gen.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return gen
}

// Seed resets the random source, making the next Generate call
// reproducible.
func (gen *Generator) Seed(seed int64) {
	gen.rnd.Seed(seed)
}

func (gen *Generator) Grammar() *grammar.Grammar {
	return gen.g
}

// RandomLengthFor returns the budget to use for start when the caller has
// no preference: the configured max depth, raised to the smallest depth at
// which start can be expanded at all.
func (gen *Generator) RandomLengthFor(start grammar.NonterminalID) int {
	depth := gen.maxDepth
	if m := gen.g.MinDepth(start); m > depth {
		depth = m
	}
	return depth
}

// Generate expands start into a tree whose nonterminal nodes lie at most
// budget levels below the root.
func (gen *Generator) Generate(start grammar.NonterminalID, budget int) (*tree.Tree, error) {
	if start < grammar.Start || int(start) >= gen.g.Len() {
		return nil, fmt.Errorf("unknown nonterminal %d", start)
	}
	t := &tree.Tree{}
	if _, err := gen.expand(t, start, budget); err != nil {
		return nil, err
	}
	return t, nil
}

func (gen *Generator) expand(t *tree.Tree, nt grammar.NonterminalID, budget int) (int, error) {
	rules := gen.g.Rules(nt)
	choice, err := gen.choose(nt, rules, budget)
	if err != nil {
		return 0, err
	}
	prod := rules[choice]
	node := t.AddNode(nt, choice, len(prod))
	for _, sym := range prod {
		child := 0
		if sym.IsTerminal() {
			child = t.AddLeaf(sym.Literal)
		} else if child, err = gen.expand(t, sym.NT, budget-1); err != nil {
			return 0, err
		}
		t.AddChild(node, child)
	}
	return node, nil
}

func (gen *Generator) choose(nt grammar.NonterminalID, rules []grammar.Production, budget int) (int, error) {
	if gen.dumb && budget > 1 {
		return gen.rnd.Intn(len(rules)), nil
	}
	sizes := gen.g.Sizes()
	gen.candidates = gen.candidates[:0]
	for i, p := range rules {
		if sizes.Fits(p, budget) {
			gen.candidates = append(gen.candidates, i)
		}
	}
	if len(gen.candidates) == 0 {
		return 0, BudgetError{Rule: gen.g.Name(nt), Budget: budget, MinDepth: gen.g.MinDepth(nt)}
	}
	return gen.candidates[gen.rnd.Intn(len(gen.candidates))], nil
}
