package cache

import (
	"fmt"

	"github.com/arr-ai/gramophone/grammar"
)

// infinite stands in for grammar.Infinite in size rows.
const infinite = -1

type file struct {
	Hash         string        `yaml:"hash"`
	Nonterminals []nonterminal `yaml:"nonterminals"`
	Sizes        [][]int       `yaml:"sizes"`
}

type nonterminal struct {
	Name  string     `yaml:"name"`
	Rules [][]symbol `yaml:"rules"`
}

type symbol struct {
	T string `yaml:"t,omitempty"`
	N int    `yaml:"n,omitempty"`
}

func newFile(g *grammar.Grammar) file {
	c := file{Hash: formatHash(g.Hash)}
	names := g.Names()
	for id := grammar.Start; int(id) < g.Len(); id++ {
		nt := nonterminal{Name: names[id]}
		for _, p := range g.Rules(id) {
			syms := make([]symbol, 0, len(p))
			for _, s := range p {
				syms = append(syms, symbol{T: s.Literal, N: int(s.NT)})
			}
			nt.Rules = append(nt.Rules, syms)
		}
		c.Nonterminals = append(c.Nonterminals, nt)
	}
	for _, row := range g.Sizes().Rows() {
		out := make([]int, len(row))
		for i, v := range row {
			if v == grammar.Infinite {
				v = infinite
			}
			out[i] = v
		}
		c.Sizes = append(c.Sizes, out)
	}
	return c
}

func (c file) grammar() (*grammar.Grammar, error) {
	hash, err := parseHash(c.Hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	names := []string{""}
	rules := [][]grammar.Production{nil}
	for _, nt := range c.Nonterminals {
		names = append(names, nt.Name)
		prods := make([]grammar.Production, 0, len(nt.Rules))
		for _, syms := range nt.Rules {
			p := make(grammar.Production, 0, len(syms))
			for _, s := range syms {
				if (s.T == "") == (s.N == 0) {
					return nil, fmt.Errorf("%w: %s: symbol must be a literal or a reference", ErrCacheCorrupt, nt.Name)
				}
				p = append(p, grammar.Symbol{Literal: s.T, NT: grammar.NonterminalID(s.N)})
			}
			prods = append(prods, p)
		}
		rules = append(rules, prods)
	}
	rows := make([][]int, 0, len(c.Sizes))
	for _, row := range c.Sizes {
		in := make([]int, len(row))
		for i, v := range row {
			switch {
			case v == infinite:
				v = grammar.Infinite
			case v < 0:
				return nil, fmt.Errorf("%w: negative size %d", ErrCacheCorrupt, v)
			}
			in[i] = v
		}
		rows = append(rows, in)
	}
	g, err := grammar.Restore(names, rules, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	g.Hash = hash
	return g, nil
}
