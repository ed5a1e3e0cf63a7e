package cmd

import (
	"io/ioutil"

	goerrors "github.com/go-errors/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/arr-ai/gramophone/cache"
	"github.com/arr-ai/gramophone/grammar"
	"github.com/arr-ai/gramophone/source"
)

var inGrammarFile string
var noCache bool

var grammarFlag = cli.StringFlag{
	Name:        "grammar, g",
	Usage:       "input grammar file (.g4 or .json)",
	Required:    true,
	TakesFile:   true,
	Destination: &inGrammarFile,
}

var noCacheFlag = cli.BoolFlag{
	Name:        "no-cache",
	Usage:       "compile the grammar without reading or writing its .gfc cache file",
	Destination: &noCache,
}

// loadGrammar compiles the grammar at path, going through its .gfc cache
// file unless useCache is false.
func loadGrammar(path string, useCache bool) (*grammar.Grammar, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, goerrors.Wrap(err, 0)
	}
	rules := func() ([]grammar.RawRule, error) {
		return source.Load(path, data)
	}
	if !useCache {
		raw, err := rules()
		if err != nil {
			return nil, err
		}
		return grammar.Compile(raw, grammar.DefaultDepthCeiling)
	}
	g, hit, err := cache.LoadOrCompile(path, data, rules, grammar.DefaultDepthCeiling)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"grammar":      path,
		"cached":       hit,
		"nonterminals": g.Len() - 1,
	}).Debug("grammar loaded")
	return g, nil
}
