package cmd

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/arr-ai/gramophone/corpus"
	"github.com/arr-ai/gramophone/tree"
)

var (
	depth        int
	count        int
	storeCorpus  bool
	dumbMode     bool
	seed         int64
	workers      int
	dumpTreeFile string
	corpusDir    string
)

var stdout io.Writer = os.Stdout

var generateCommand = cli.Command{
	Name:    "generate",
	Aliases: []string{"gen"},
	Usage:   "Generate random samples from a grammar",
	Action:  generate,
	Flags: []cli.Flag{
		grammarFlag,
		cli.IntFlag{
			Name:        "depth, t",
			Usage:       "depth budget of every derivation tree; 0 picks one from the grammar",
			Required:    true,
			Destination: &depth,
		},
		cli.IntFlag{
			Name:        "n",
			Usage:       "number of samples to generate",
			Value:       1,
			Destination: &count,
		},
		cli.BoolFlag{
			Name:        "s",
			Usage:       "store samples as numbered files instead of printing them",
			Destination: &storeCorpus,
		},
		cli.StringFlag{
			Name:        "dir",
			Usage:       "directory for stored samples",
			Value:       corpus.Dir,
			Destination: &corpusDir,
		},
		cli.BoolFlag{
			Name:        "d",
			Usage:       "dumb mode: choose productions without regard to the depth budget",
			Destination: &dumbMode,
		},
		cli.Int64Flag{
			Name:        "seed",
			Usage:       "random seed; defaults to the current time",
			Destination: &seed,
		},
		cli.IntFlag{
			Name:        "workers",
			Usage:       "number of generator goroutines; 0 uses every CPU",
			Destination: &workers,
		},
		cli.StringFlag{
			Name:        "dump-tree",
			Usage:       "write the last derivation tree as YAML to this file",
			TakesFile:   true,
			Destination: &dumpTreeFile,
		},
		noCacheFlag,
		cli.BoolFlag{
			Name:        "v",
			Usage:       "verbose logging",
			Destination: &verboseMode,
		},
	},
}

func generate(c *cli.Context) error {
	setVerbosity()

	g, err := loadGrammar(inGrammarFile, !noCache)
	if err != nil {
		return err
	}

	if !c.IsSet("seed") {
		seed = time.Now().UnixNano()
	}
	logrus.WithField("seed", seed).Debug("generating")

	var sink corpus.Sink
	out := bufio.NewWriter(stdout)
	if storeCorpus {
		if sink, err = corpus.Files(corpusDir); err != nil {
			return goerrors.Wrap(err, 0)
		}
	} else {
		sink = corpus.Stream(out)
	}

	var last *tree.Tree
	err = corpus.Generate(context.Background(), g, sink, corpus.Options{
		Count:   count,
		Budget:  depth,
		Dumb:    dumbMode,
		Seed:    seed,
		Workers: workers,
		OnTree: func(i int, t *tree.Tree) error {
			if logrus.IsLevelEnabled(logrus.TraceLevel) {
				logrus.WithField("tree", i).Trace("\n" + t.View(g))
			}
			last = t
			return nil
		},
	})
	if ferr := out.Flush(); err == nil && ferr != nil {
		err = goerrors.Wrap(ferr, 0)
	}
	if err != nil {
		return err
	}

	if dumpTreeFile != "" && last != nil {
		return dumpTree(dumpTreeFile, g, last)
	}
	return nil
}

func dumpTree(path string, g tree.Namer, t *tree.Tree) error {
	f, err := os.Create(path)
	if err != nil {
		return goerrors.Wrap(err, 0)
	}
	if err := t.Dump(g, f); err != nil {
		f.Close()
		return goerrors.Wrap(err, 0)
	}
	return f.Close()
}
