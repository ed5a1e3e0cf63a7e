package cmd

import (
	"bytes"
	"io/ioutil"
	"os"
	"strings"

	goerrors "github.com/go-errors/errors"
	"github.com/urfave/cli"

	"github.com/arr-ai/gramophone/cmd/codegen"
)

var pkgName string
var outFile string
var idsCommand = cli.Command{
	Name:   "ids",
	Usage:  "Generate Go constants for the nonterminal IDs of a grammar",
	Action: ids,
	Flags: []cli.Flag{
		grammarFlag,
		cli.StringFlag{
			Name:        "pkg",
			Usage:       "name of the generated package",
			Required:    true,
			Destination: &pkgName,
		},
		cli.StringFlag{
			Name:        "output",
			Usage:       "filename to write the output to",
			Destination: &outFile,
		},
		noCacheFlag,
	},
}

func ids(c *cli.Context) error {
	g, err := loadGrammar(inGrammarFile, !noCache)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := codegen.Write(&buf, codegen.TemplateData{
		CommandLine: strings.Join(os.Args[1:], " "),
		PackageName: pkgName,
		Idents:      codegen.MakeIdents(g),
	}); err != nil {
		return err
	}

	switch outFile {
	case "", "-":
		_, err = stdout.Write(buf.Bytes())
	default:
		err = ioutil.WriteFile(outFile, buf.Bytes(), 0644)
	}
	if err != nil {
		return goerrors.Wrap(err, 0)
	}
	return nil
}
