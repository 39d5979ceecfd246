package main

import (
	"fmt"

	"github.com/trezcool/goose"
	"github.com/urfave/cli/v2"

	appfs "github.com/trezcool/suara/fs"
	"github.com/trezcool/suara/storage/database"
)

var gooseRunFunc = goose.RunFS // mockable

func (cl *commandLine) migrate(c *cli.Context) error {
	if c.NArg() == 0 {
		fmt.Fprintf(c.App.Writer, "Usage: %s %s %s\n", c.App.Name, c.Command.Name, c.Command.ArgsUsage)
		return errHelp
	}

	db, err := cl.connect()
	if err != nil {
		return err
	}
	if err = database.SetDialect(db); err != nil {
		return err
	}
	return gooseRunFunc(c.Args().First(), db.DB, appfs.FS, database.MigrationsDir, c.Args().Tail()...)
}
