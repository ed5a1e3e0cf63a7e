package grammar

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, rules ...RawRule) *Grammar {
	t.Helper()
	g, err := Compile(rules, 0)
	require.NoError(t, err)
	return g
}

func id(t *testing.T, g *Grammar, name string) NonterminalID {
	t.Helper()
	id, has := g.ID(name)
	require.True(t, has, name)
	return id
}

func TestSizesSelfRecursive(t *testing.T) {
	g := mustCompile(t, RawRule{"START", "{A}"}, RawRule{"A", "{A}x"}, RawRule{"A", "y"})
	a := id(t, g, "A")

	assert.Equal(t, 1, g.MinSize(a, 0))
	assert.Equal(t, 1, g.MinSize(a, 1))
	assert.Equal(t, Infinite, g.MinSize(Start, 0))
	assert.Equal(t, 1, g.MinSize(Start, 1))
	assert.Equal(t, 0, g.MinDepth(a))
	assert.Equal(t, 1, g.MinDepth(Start))
}

func TestSizesDoubling(t *testing.T) {
	g := mustCompile(t, RawRule{"START", "{A}"}, RawRule{"A", "a"}, RawRule{"A", "{A}{A}"})
	a := id(t, g, "A")

	for d := 0; d < 10; d++ {
		assert.Equal(t, 1, g.MinSize(a, d), "depth %d", d)
	}
	assert.Equal(t, 3, g.Sizes().Depth())
}

func TestSizesChain(t *testing.T) {
	g := mustCompile(t,
		RawRule{"START", "{B}"},
		RawRule{"B", "<{C}>"},
		RawRule{"C", "c"},
	)
	b, c := id(t, g, "B"), id(t, g, "C")

	assert.Equal(t, 0, g.MinDepth(c))
	assert.Equal(t, 1, g.MinDepth(b))
	assert.Equal(t, 2, g.MinDepth(Start))

	assert.Equal(t, Infinite, g.MinSize(Start, 1))
	assert.Equal(t, 3, g.MinSize(Start, 2))
	assert.Equal(t, 3, g.MinSize(Start, 1000))
	assert.Equal(t, Infinite, g.MinSize(Start, -1))
}

func TestSizesNonIncreasing(t *testing.T) {
	g := mustCompile(t,
		RawRule{"START", "{E}"},
		RawRule{"E", "{E}+{E}"},
		RawRule{"E", "({E})"},
		RawRule{"E", "{N}"},
		RawRule{"N", "{D}{N}"},
		RawRule{"N", "{D}"},
		RawRule{"D", "0"},
		RawRule{"D", "1"},
	)
	for n := Start; int(n) < g.Len(); n++ {
		for d := 1; d < 20; d++ {
			assert.LessOrEqual(t, g.MinSize(n, d), g.MinSize(n, d-1), "%s at %d", g.Name(n), d)
		}
	}
}

func TestSizesMutualRecursion(t *testing.T) {
	g := mustCompile(t,
		RawRule{"START", "{A}"},
		RawRule{"A", "{B}a"},
		RawRule{"A", "x"},
		RawRule{"B", "{A}b"},
	)
	a, b := id(t, g, "A"), id(t, g, "B")

	assert.Equal(t, 1, g.MinSize(a, 0))
	assert.Equal(t, Infinite, g.MinSize(b, 0))
	assert.Equal(t, 2, g.MinSize(b, 1))
	assert.Equal(t, 1, g.MinSize(a, 5))
}

func TestSizesCeiling(t *testing.T) {
	rules := []RawRule{
		{"START", "{A}"},
		{"A", "{B}"},
		{"B", "{C}"},
		{"C", "{D}"},
		{"D", "d"},
	}
	_, err := Compile(rules, 3)
	assert.True(t, errors.Is(err, ErrUnproductiveGrammar), "%v", err)

	g, err := Compile(rules, 5)
	require.NoError(t, err)
	assert.Equal(t, 4, g.MinDepth(Start))
}

func TestSizesIdempotent(t *testing.T) {
	rules := []RawRule{
		{"START", "{S}"},
		{"S", "({S})"},
		{"S", "{S}{S}"},
		{"S", ""},
	}
	g1, err := Compile(rules, 0)
	require.NoError(t, err)
	g2, err := Compile(rules, 0)
	require.NoError(t, err)

	assert.Equal(t, g1.Sizes().Rows(), g2.Sizes().Rows())
	for n := Start; int(n) < g1.Len(); n++ {
		for d := 0; d < 12; d++ {
			assert.Equal(t, g1.MinSize(n, d), g2.MinSize(n, d))
		}
	}
}

func TestFits(t *testing.T) {
	g := mustCompile(t, RawRule{"START", "{A}"}, RawRule{"A", "{A}x"}, RawRule{"A", "y"})
	a := id(t, g, "A")
	recursive, leaf := g.Rules(a)[0], g.Rules(a)[1]

	assert.False(t, g.Sizes().Fits(recursive, 0))
	assert.True(t, g.Sizes().Fits(leaf, 0))
	assert.True(t, g.Sizes().Fits(recursive, 1))
	assert.False(t, g.Sizes().Fits(g.Rules(Start)[0], 0))
}

func TestRestore(t *testing.T) {
	g := mustCompile(t, RawRule{"START", "{A}"}, RawRule{"A", "{A}x"}, RawRule{"A", "y"})

	rules := make([][]Production, g.Len())
	for id := Start; int(id) < g.Len(); id++ {
		rules[id] = g.Rules(id)
	}
	r, err := Restore(g.Names(), rules, g.Sizes().Rows())
	require.NoError(t, err)
	assert.Equal(t, g.Format(), r.Format())
	assert.Equal(t, g.MinDepth(Start), r.MinDepth(Start))

	_, err = Restore(g.Names(), rules[:2], g.Sizes().Rows())
	assert.Error(t, err)
	_, err = Restore(g.Names(), rules, nil)
	assert.Error(t, err)
	_, err = Restore([]string{"", "A"}, rules[:2], g.Sizes().Rows())
	assert.Error(t, err)
}

func TestRestoreRejectsInconsistentSizes(t *testing.T) {
	g := mustCompile(t, RawRule{"START", "{A}"}, RawRule{"A", "{A}x"}, RawRule{"A", "y"})

	rules := make([][]Production, g.Len())
	for id := Start; int(id) < g.Len(); id++ {
		rules[id] = g.Rules(id)
	}
	copyRows := func() [][]int {
		var rows [][]int
		for _, row := range g.Sizes().Rows() {
			rows = append(rows, append([]int(nil), row...))
		}
		return rows
	}

	rows := copyRows()
	rows[0][2] = 5
	_, err := Restore(g.Names(), rules, rows)
	assert.Error(t, err)

	rows = copyRows()
	rows[len(rows)-1][Start] = 7
	_, err = Restore(g.Names(), rules, rows)
	assert.Error(t, err)
}
