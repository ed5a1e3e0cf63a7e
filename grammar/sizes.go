package grammar

import (
	"fmt"
	"math"
)

const (
	// Infinite marks a nonterminal that cannot be fully expanded within a
	// given depth.
	Infinite = math.MaxInt

	// DefaultDepthCeiling bounds the size-table relaxation.
	DefaultDepthCeiling = 256
)

// SizeTable holds, for each depth d and nonterminal n, the minimum number of
// literal symbols of any derivation of n whose nonterminal nodes lie at most
// d levels below n. Depths past the last row repeat the last row.
type SizeTable struct {
	rows     [][]int
	minDepth []int
}

// At returns the minimum size of id within depth d, or Infinite.
func (t SizeTable) At(id NonterminalID, d int) int {
	if d < 0 || len(t.rows) == 0 {
		return Infinite
	}
	if d >= len(t.rows) {
		d = len(t.rows) - 1
	}
	return t.rows[d][id]
}

// Depth returns the number of stored rows.
func (t SizeTable) Depth() int {
	return len(t.rows)
}

// Rows exposes the stored rows. Callers must not modify them.
func (t SizeTable) Rows() [][]int {
	return t.rows
}

// MinDepth returns the smallest depth at which id has a finite size.
func (t SizeTable) MinDepth(id NonterminalID) int {
	return t.minDepth[id]
}

// Fits reports whether p can be expanded with every nonterminal child
// completing within budget-1 levels. With no budget left only literal-only
// productions fit.
func (t SizeTable) Fits(p Production, budget int) bool {
	for _, s := range p {
		if s.IsNonterminal() && t.At(s.NT, budget-1) == Infinite {
			return false
		}
	}
	return true
}

// computeSizes relaxes one depth row at a time until a row repeats or the
// ceiling is reached, and reports every nonterminal left at Infinite.
func computeSizes(rules [][]Production, ceiling int) (SizeTable, []NonterminalID) {
	var t SizeTable
	var prev []int
	for d := 0; d < ceiling; d++ {
		row := relax(rules, prev)
		t.rows = append(t.rows, row)
		if prev != nil && equalRows(prev, row) {
			break
		}
		prev = row
	}
	return t, t.index()
}

// relax computes the row for one depth from the row below it. A nil prev
// yields row 0, where only literal-only productions are finite.
func relax(rules [][]Production, prev []int) []int {
	row := make([]int, len(rules))
	row[0] = Infinite
	for id := 1; id < len(rules); id++ {
		best := Infinite
		for _, p := range rules[id] {
			if s := productionSize(p, prev); s < best {
				best = s
			}
		}
		row[id] = best
	}
	return row
}

// check verifies that stored rows could have come from rules: row 0 must
// match the literal-only productions and sizes never grow with depth.
func (t SizeTable) check(rules [][]Production) error {
	if !equalRows(t.rows[0], relax(rules, nil)) {
		return fmt.Errorf("size row 0 does not match the productions")
	}
	for d := 1; d < len(t.rows); d++ {
		for id, v := range t.rows[d] {
			if v > t.rows[d-1][id] {
				return fmt.Errorf("size of nonterminal %d grows from depth %d to %d", id, d-1, d)
			}
		}
	}
	return nil
}

func (t *SizeTable) index() []NonterminalID {
	var unproductive []NonterminalID
	last := t.rows[len(t.rows)-1]
	t.minDepth = make([]int, len(last))
	t.minDepth[0] = Infinite
	for id := 1; id < len(last); id++ {
		t.minDepth[id] = Infinite
		for d, row := range t.rows {
			if row[id] != Infinite {
				t.minDepth[id] = d
				break
			}
		}
		if last[id] == Infinite {
			unproductive = append(unproductive, NonterminalID(id))
		}
	}
	return unproductive
}

func productionSize(p Production, prev []int) int {
	n := 0
	for _, s := range p {
		v := 1
		if s.IsNonterminal() {
			if prev == nil || prev[s.NT] == Infinite {
				return Infinite
			}
			v = prev[s.NT]
		}
		if n > Infinite-1-v {
			// Saturate just below Infinite so huge sizes stay finite.
			n = Infinite - 1
		} else {
			n += v
		}
	}
	return n
}

func equalRows(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
