// Package corpus generates batches of samples from a grammar and writes them
// to a Sink.
package corpus

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/arr-ai/gramophone/gen"
	"github.com/arr-ai/gramophone/grammar"
	"github.com/arr-ai/gramophone/tree"
)

type Options struct {
	// Count is the number of samples to generate.
	Count int

	// Budget is the depth budget of every tree. Zero or less asks the
	// generator for RandomLengthFor(START).
	Budget   int
	MaxDepth int
	Dumb     bool

	// Sample i is generated from Seed+i, so output does not depend on
	// Workers.
	Seed    int64
	Workers int

	// OnTree, if set, sees every tree after it has been written.
	OnTree func(index int, t *tree.Tree) error
}

type result struct {
	index int
	tree  *tree.Tree
}

// Generate draws opts.Count trees from g in parallel and writes them to sink
// in index order. The first failure stops the batch.
func Generate(ctx context.Context, g *grammar.Grammar, sink Sink, opts Options) error {
	if opts.Count <= 0 {
		return nil
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > opts.Count {
		workers = opts.Count
	}
	genOpts := []gen.Option{gen.WithDumb(opts.Dumb)}
	if opts.MaxDepth > 0 {
		genOpts = append(genOpts, gen.WithMaxDepth(opts.MaxDepth))
	}

	grp, ctx := errgroup.WithContext(ctx)
	jobs := make(chan int)
	results := make(chan result)

	grp.Go(func() error {
		defer close(jobs)
		for i := 1; i <= opts.Count; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < workers; w++ {
		grp.Go(func() error {
			gn := gen.New(g, genOpts...)
			for i := range jobs {
				gn.Seed(opts.Seed + int64(i))
				budget := opts.Budget
				if budget <= 0 {
					budget = gn.RandomLengthFor(grammar.Start)
				}
				t, err := gn.Generate(grammar.Start, budget)
				if err != nil {
					return fmt.Errorf("tree %d: %w", i, err)
				}
				select {
				case results <- result{index: i, tree: t}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}
	grp.Go(func() error {
		pending := map[int]*tree.Tree{}
		for next := 1; next <= opts.Count; {
			select {
			case r := <-results:
				pending[r.index] = r.tree
			case <-ctx.Done():
				return ctx.Err()
			}
			for t, has := pending[next]; has; t, has = pending[next] {
				delete(pending, next)
				logrus.WithFields(logrus.Fields{"tree": next, "of": opts.Count}).Debug("generated tree")
				if err := write(sink, next, t); err != nil {
					return fmt.Errorf("tree %d: %w", next, err)
				}
				if opts.OnTree != nil {
					if err := opts.OnTree(next, t); err != nil {
						return err
					}
				}
				next++
			}
		}
		return nil
	})
	return grp.Wait()
}

func write(sink Sink, index int, t *tree.Tree) error {
	w, err := sink.Open(index)
	if err != nil {
		return err
	}
	if _, err := t.Unparse(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
