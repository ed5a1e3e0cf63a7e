package cmd

import (
	"os"

	goerrors "github.com/go-errors/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

type VersionTags struct {
	Version   string
	GitCommit string
	BuildDate string
	BuildOS   string
}

var verboseMode bool

func newApp(info VersionTags) *cli.App {
	app := cli.NewApp()

	app.EnableBashCompletion = true

	app.Name = "gramophone"
	app.Usage = "grammar-based fuzzing corpus generator"
	app.Version = info.Version
	app.Metadata = map[string]interface{}{
		"GitCommit": info.GitCommit,
		"BuildDate": info.BuildDate,
		"BuildOS":   info.BuildOS,
	}

	app.Commands = []cli.Command{generateCommand, idsCommand}
	return app
}

func Main(info VersionTags) {
	err := newApp(info).Run(os.Args)
	if err != nil {
		if e, ok := err.(*goerrors.Error); ok && verboseMode {
			logrus.Fatal(e.ErrorStack())
		}
		logrus.Fatal(err)
	}
}

func setVerbosity() {
	if verboseMode {
		logrus.SetLevel(logrus.TraceLevel)
	}
}
