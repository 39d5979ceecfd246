package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/suara/core"
	logsvc "github.com/trezcool/suara/services/logger"
)

func main() {
	conf := core.NewConfig()

	sugar, err := logsvc.NewSugaredLogger(conf.Debug)
	if err != nil {
		log.Fatal(err)
	}
	logger := logsvc.NewZapLogger(sugar)
	defer logger.Sync() //nolint:errcheck // best-effort flush

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	// start CLI
	cli := commandLine{
		conf:     conf,
		logger:   logger,
		validate: validate,
		out:      os.Stdout,
	}
	err = cli.run(os.Args)
	if cErr := cli.close(); cErr != nil {
		logger.Error("closing database", cErr)
	}
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		_ = logger.Sync()
		os.Exit(1)
	}
}
