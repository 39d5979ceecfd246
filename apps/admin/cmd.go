package main

import (
	"errors"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"

	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/learner"
	"github.com/trezcool/suara/core/training"
	appfs "github.com/trezcool/suara/fs"
	"github.com/trezcool/suara/storage/database"
	sqlxrepos "github.com/trezcool/suara/storage/database/sqlx"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf     *core.Config
	logger   core.Logger
	validate *validator.Validate
	out      io.Writer

	db     *sqlx.DB // opened on first use
	lrnSvc learner.ServiceInterface
}

func (cl *commandLine) app() *cli.App {
	catalogFlag := &cli.StringFlag{
		Name:    "catalog",
		Aliases: []string{"c"},
		Usage:   "Catalog file to use instead of the configured or embedded one",
	}
	regionFlag := &cli.StringFlag{
		Name:    "region",
		Aliases: []string{"r"},
		Usage:   "Region of the learner; unmapped regions start at batch 1",
	}

	return &cli.App{
		Name:      "admin",
		Usage:     "Manage the training service",
		Writer:    cl.out,
		ErrWriter: cl.out,
		Commands: []*cli.Command{
			{
				Name:      "migrate",
				Usage:     "Run database migrations",
				ArgsUsage: "COMMAND [ARGS...] (up, up-by-one, up-to, down, down-to, redo, reset, status, version, create, fix)",
				Action:    cl.migrate,
			},
			{
				Name:  "catalog",
				Usage: "Inspect the training catalog",
				Subcommands: []*cli.Command{
					{
						Name:   "check",
						Usage:  "Load & validate the catalog and its regions",
						Flags:  []cli.Flag{catalogFlag},
						Action: cl.catalogCheck,
					},
					{
						Name:   "sequence",
						Usage:  "Print the batch order served to a region",
						Flags:  []cli.Flag{catalogFlag, regionFlag},
						Action: cl.catalogSequence,
					},
					{
						Name:  "next",
						Usage: "Print the next story for a region and a set of completed stories",
						Flags: []cli.Flag{
							catalogFlag,
							regionFlag,
							&cli.StringFlag{
								Name:  "completed",
								Usage: "Completed story ids (comma-separated)",
							},
						},
						Action: cl.catalogNext,
					},
				},
			},
			{
				Name:  "learner",
				Usage: "Manage learners",
				Subcommands: []*cli.Command{
					{
						Name:  "add",
						Usage: "Create a learner or update their region",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "The learner's email", Required: true},
							regionFlag,
						},
						Action: cl.addLearner,
					},
					{
						Name:  "list",
						Usage: "List learners",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "ordering",
								Usage: "Fields to order by, '-' prefixed for descending (e.g. -earnings,email)",
							},
						},
						Action: cl.listLearners,
					},
				},
			},
		},
	}
}

func (cl *commandLine) run(args []string) error {
	if len(args) < 2 {
		_ = cl.app().Run([]string{"admin", "--help"})
		return errHelp
	}
	return cl.app().Run(args)
}

// connect opens & pings the database the first time it is needed.
func (cl *commandLine) connect() (*sqlx.DB, error) {
	if cl.db != nil {
		return cl.db, nil
	}
	db, err := database.Open(cl.conf)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cl.db = db
	return db, nil
}

func (cl *commandLine) learners() (learner.ServiceInterface, error) {
	if cl.lrnSvc != nil {
		return cl.lrnSvc, nil
	}
	db, err := cl.connect()
	if err != nil {
		return nil, err
	}
	cl.lrnSvc = learner.NewService(sqlxrepos.NewLearnerRepository(db))
	return cl.lrnSvc, nil
}

// scheduler loads the catalog named by the --catalog flag, the configured one, or the embedded one.
func (cl *commandLine) scheduler(c *cli.Context) (*training.Scheduler, error) {
	path := c.String("catalog")
	if path == "" {
		path = cl.conf.Training.CatalogPath
	}
	if path == "" {
		return training.LoadFS(appfs.FS, appfs.CatalogPath)
	}
	return training.LoadFile(path)
}

func (cl *commandLine) close() error {
	if cl.db == nil {
		return nil
	}
	return cl.db.Close()
}
