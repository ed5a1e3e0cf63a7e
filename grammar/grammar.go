package grammar

import "fmt"

// Grammar is a finalized Store together with its size table. It is
// immutable and safe for concurrent use.
type Grammar struct {
	store *Store
	sizes SizeTable

	// Hash identifies the source text the grammar was compiled from. It is
	// only used to validate cached compilations.
	Hash uint64
}

// RawRule is one (nonterminal, body) pair as produced by a grammar reader.
type RawRule struct {
	Name string
	Body string
}

// Compile adds every rule to a fresh Store and finalizes it.
func Compile(rules []RawRule, ceiling int) (*Grammar, error) {
	s := NewStore()
	for _, r := range rules {
		if err := s.AddRule(r.Name, r.Body); err != nil {
			return nil, err
		}
	}
	return s.Finalize(ceiling)
}

// Restore rebuilds a Grammar from previously computed parts without
// recomputing the size table. names[0] is ignored.
func Restore(names []string, rules [][]Production, rows [][]int) (*Grammar, error) {
	if len(names) < 2 || names[Start] != StartName {
		return nil, fmt.Errorf("restore: %s must be nonterminal %d", StartName, Start)
	}
	if len(rules) != len(names) {
		return nil, fmt.Errorf("restore: %d names but %d rule lists", len(names), len(rules))
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("restore: empty size table")
	}
	s := &Store{
		names:     append([]string{""}, names[1:]...),
		ids:       make(map[string]NonterminalID, len(names)),
		rules:     make([][]Production, len(names)),
		finalized: true,
	}
	for id := 1; id < len(names); id++ {
		if _, has := s.ids[names[id]]; has {
			return nil, fmt.Errorf("restore: duplicate nonterminal %q", names[id])
		}
		s.ids[names[id]] = NonterminalID(id)
		if len(rules[id]) == 0 {
			return nil, fmt.Errorf("restore: %q has no productions", names[id])
		}
		for _, p := range rules[id] {
			for _, sym := range p {
				if sym.NT < 0 || int(sym.NT) >= len(names) {
					return nil, fmt.Errorf("restore: %q references nonterminal %d", names[id], sym.NT)
				}
			}
		}
		s.rules[id] = rules[id]
	}
	for d, row := range rows {
		if len(row) != len(names) {
			return nil, fmt.Errorf("restore: size row %d has %d entries, want %d", d, len(row), len(names))
		}
	}
	t := SizeTable{rows: rows}
	if err := t.check(s.rules); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	if unproductive := t.index(); len(unproductive) > 0 {
		return nil, fmt.Errorf("restore: %q has no finite size", names[unproductive[0]])
	}
	return &Grammar{store: s, sizes: t}, nil
}

// Len returns one more than the highest NonterminalID.
func (g *Grammar) Len() int { return g.store.Len() }

func (g *Grammar) ID(name string) (NonterminalID, bool) { return g.store.ID(name) }
func (g *Grammar) Name(id NonterminalID) string         { return g.store.Name(id) }
func (g *Grammar) Rules(id NonterminalID) []Production  { return g.store.Rules(id) }
func (g *Grammar) Sizes() SizeTable                     { return g.sizes }

// Names returns all nonterminal names indexed by ID; element 0 is empty.
func (g *Grammar) Names() []string {
	return append([]string(nil), g.store.names...)
}

func (g *Grammar) MinSize(id NonterminalID, depth int) int {
	return g.sizes.At(id, depth)
}

func (g *Grammar) MinDepth(id NonterminalID) int {
	return g.sizes.MinDepth(id)
}

// Format renders the grammar one production per line as name := body.
func (g *Grammar) Format() string {
	var out string
	for id := Start; int(id) < g.Len(); id++ {
		for _, p := range g.Rules(id) {
			out += fmt.Sprintf("%s := %s\n", g.Name(id), p.Format(g.Name))
		}
	}
	return out
}
