package gen

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/arr-ai/gramophone/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runs = 200

func compile(t *testing.T, rules ...grammar.RawRule) *grammar.Grammar {
	t.Helper()
	g, err := grammar.Compile(rules, 0)
	require.NoError(t, err)
	return g
}

func TestGenerateDoubling(t *testing.T) {
	g := compile(t,
		grammar.RawRule{Name: "START", Body: "{A}"},
		grammar.RawRule{Name: "A", Body: "a"},
		grammar.RawRule{Name: "A", Body: "{A}{A}"},
	)
	gen := New(g, WithSeed(1))
	for i := 0; i < runs; i++ {
		tr, err := gen.Generate(grammar.Start, 2)
		require.NoError(t, err)
		out := tr.String()
		assert.Equal(t, strings.Repeat("a", len(out)), out)
		assert.Contains(t, []int{1, 2, 4}, len(out))
		assert.LessOrEqual(t, tr.Depth(), 2)
	}
}

func TestGenerateSelfRecursive(t *testing.T) {
	g := compile(t,
		grammar.RawRule{Name: "START", Body: "{A}"},
		grammar.RawRule{Name: "A", Body: "{A}x"},
		grammar.RawRule{Name: "A", Body: "y"},
	)
	a, _ := g.ID("A")
	valid := regexp.MustCompile(`^yx{0,5}$`)
	for _, dumb := range []bool{false, true} {
		gen := New(g, WithSeed(7), WithDumb(dumb))
		for i := 0; i < runs; i++ {
			tr, err := gen.Generate(a, 5)
			require.NoError(t, err)
			assert.LessOrEqual(t, tr.Depth(), 5)
			assert.Regexp(t, valid, tr.String())
		}
	}
}

func TestGenerateNonRecursive(t *testing.T) {
	g := compile(t,
		grammar.RawRule{Name: "START", Body: "{greeting}, {name}!"},
		grammar.RawRule{Name: "greeting", Body: "hello"},
		grammar.RawRule{Name: "greeting", Body: "hi"},
		grammar.RawRule{Name: "name", Body: "{title} bob"},
		grammar.RawRule{Name: "name", Body: "alice"},
		grammar.RawRule{Name: "title", Body: "dr"},
	)
	valid := map[string]bool{}
	for _, greeting := range []string{"hello", "hi"} {
		for _, name := range []string{"dr bob", "alice"} {
			valid[greeting+", "+name+"!"] = true
		}
	}
	seen := map[string]bool{}
	gen := New(g, WithSeed(3))
	for budget := 2; budget < 6; budget++ {
		for i := 0; i < runs; i++ {
			tr, err := gen.Generate(grammar.Start, budget)
			require.NoError(t, err)
			assert.True(t, valid[tr.String()], tr.String())
			seen[tr.String()] = true
		}
	}
	assert.Len(t, seen, len(valid))
}

func TestGenerateBudgetFiltersDeepAlternatives(t *testing.T) {
	g := compile(t,
		grammar.RawRule{Name: "START", Body: "{name}"},
		grammar.RawRule{Name: "name", Body: "{title} bob"},
		grammar.RawRule{Name: "name", Body: "alice"},
		grammar.RawRule{Name: "title", Body: "dr"},
	)
	gen := New(g, WithSeed(5))
	for i := 0; i < runs; i++ {
		tr, err := gen.Generate(grammar.Start, 1)
		require.NoError(t, err)
		assert.Equal(t, "alice", tr.String())
	}
}

func TestGenerateBudgetExhausted(t *testing.T) {
	g := compile(t,
		grammar.RawRule{Name: "START", Body: "{B}"},
		grammar.RawRule{Name: "B", Body: "{C}"},
		grammar.RawRule{Name: "C", Body: "c"},
	)
	gen := New(g)

	_, err := gen.Generate(grammar.Start, 1)
	require.True(t, errors.Is(err, ErrBudgetExhausted), "%v", err)
	var be BudgetError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "START", be.Rule)
	assert.Equal(t, 2, be.MinDepth)

	tr, err := gen.Generate(grammar.Start, 2)
	require.NoError(t, err)
	assert.Equal(t, "c", tr.String())
}

func TestGenerateDumbModeCanExhaust(t *testing.T) {
	g := compile(t,
		grammar.RawRule{Name: "START", Body: "{X}"},
		grammar.RawRule{Name: "X", Body: "{Y}"},
		grammar.RawRule{Name: "X", Body: "x"},
		grammar.RawRule{Name: "Y", Body: "{Z}"},
		grammar.RawRule{Name: "Z", Body: "{W}"},
		grammar.RawRule{Name: "W", Body: "w"},
	)

	smart := New(g, WithSeed(11))
	for i := 0; i < runs; i++ {
		tr, err := smart.Generate(grammar.Start, 3)
		require.NoError(t, err)
		assert.Equal(t, "x", tr.String())
	}

	dumb := New(g, WithSeed(11), WithDumb(true))
	failures := 0
	for i := 0; i < runs; i++ {
		tr, err := dumb.Generate(grammar.Start, 3)
		if err != nil {
			assert.True(t, errors.Is(err, ErrBudgetExhausted), "%v", err)
			failures++
			continue
		}
		assert.Equal(t, "x", tr.String())
	}
	assert.NotZero(t, failures)
}

func TestGenerateChoosesEveryFittingAlternative(t *testing.T) {
	g := compile(t,
		grammar.RawRule{Name: "START", Body: "a"},
		grammar.RawRule{Name: "START", Body: "b"},
		grammar.RawRule{Name: "START", Body: "c"},
	)
	seen := map[string]int{}
	gen := New(g, WithSeed(13))
	for i := 0; i < runs; i++ {
		tr, err := gen.Generate(grammar.Start, 0)
		require.NoError(t, err)
		seen[tr.String()]++
	}
	assert.Len(t, seen, 3)
}

func TestGenerateSeedDeterminism(t *testing.T) {
	g := compile(t,
		grammar.RawRule{Name: "START", Body: "{E}"},
		grammar.RawRule{Name: "E", Body: "{E}+{E}"},
		grammar.RawRule{Name: "E", Body: "({E})"},
		grammar.RawRule{Name: "E", Body: "1"},
	)
	a, b := New(g, WithSeed(42)), New(g, WithSeed(42))
	for i := 0; i < 20; i++ {
		ta, err := a.Generate(grammar.Start, 6)
		require.NoError(t, err)
		tb, err := b.Generate(grammar.Start, 6)
		require.NoError(t, err)
		assert.Equal(t, ta.String(), tb.String())
		assert.Equal(t, ta.Nodes, tb.Nodes)
	}
}

func TestGenerateUnknownStart(t *testing.T) {
	g := compile(t, grammar.RawRule{Name: "START", Body: "x"})
	_, err := New(g).Generate(0, 3)
	assert.Error(t, err)
	_, err = New(g).Generate(2, 3)
	assert.Error(t, err)
}

func TestRandomLengthFor(t *testing.T) {
	g := compile(t,
		grammar.RawRule{Name: "START", Body: "{B}"},
		grammar.RawRule{Name: "B", Body: "{C}"},
		grammar.RawRule{Name: "C", Body: "c"},
	)
	assert.Equal(t, DefaultMaxDepth, New(g).RandomLengthFor(grammar.Start))
	assert.Equal(t, 4, New(g, WithMaxDepth(4)).RandomLengthFor(grammar.Start))
	assert.Equal(t, 2, New(g, WithMaxDepth(1)).RandomLengthFor(grammar.Start))

	gen := New(g, WithMaxDepth(0))
	_, err := gen.Generate(grammar.Start, gen.RandomLengthFor(grammar.Start))
	assert.NoError(t, err)
}
