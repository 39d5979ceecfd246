// Package di wires the API dependencies together with a dig container.
package di

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/suara/apps/api/echo"
	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/learner"
	"github.com/trezcool/suara/core/submission"
	"github.com/trezcool/suara/core/training"
	appfs "github.com/trezcool/suara/fs"
	emailsvc "github.com/trezcool/suara/services/email"
	logsvc "github.com/trezcool/suara/services/logger"
	"github.com/trezcool/suara/services/metrics"
	"github.com/trezcool/suara/storage/database"
	sqlxrepos "github.com/trezcool/suara/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

	Conf          *core.Config
	Logger        core.Logger
	LearnerSvc    learner.ServiceInterface
	SubmissionSvc submission.ServiceInterface
	Scheduler     *training.Scheduler
	Metrics       *metrics.Metrics
	Validate      *validator.Validate
	Translator    ut.Translator
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

// newScheduler loads the configured catalog, or the embedded one.
func newScheduler(conf *core.Config) (*training.Scheduler, error) {
	if conf.Training.CatalogPath != "" {
		return training.LoadFile(conf.Training.CatalogPath)
	}
	return training.LoadFS(appfs.FS, appfs.CatalogPath)
}

func newMetrics(reg *prometheus.Registry) (*metrics.Metrics, error) {
	return metrics.New(reg)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		LearnerSvc:    p.LearnerSvc,
		SubmissionSvc: p.SubmissionSvc,
		Scheduler:     p.Scheduler,
		Metrics:       p.Metrics,
		Validate:      p.Validate,
		Translator:    p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newScheduler))
	must(c.Provide(prometheus.NewRegistry))
	must(c.Provide(newMetrics))
	must(c.Provide(newEmailService))
	must(c.Provide(sqlxrepos.NewLearnerRepository, dig.As(new(learner.Repository))))
	must(c.Provide(sqlxrepos.NewSubmissionRepository, dig.As(new(submission.Repository))))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(learner.NewService, dig.As(new(learner.ServiceInterface))))
	must(c.Provide(submission.NewService, dig.As(new(submission.ServiceInterface))))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
