package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/learner"
	"github.com/trezcool/suara/core/submission"
	"github.com/trezcool/suara/core/training"
)

type learnerApi struct {
	conf     *core.Config
	svc      learner.ServiceInterface
	subSvc   submission.ServiceInterface
	regions  *training.RegionMap
	logger   core.Logger
	validate *validator.Validate
}

type EarningsResponse struct {
	Email       string `json:"email"`
	Earnings    string `json:"earnings"`
	EarningsSen int64  `json:"earningsSen"`
	Currency    string `json:"currency"`
	Submissions int    `json:"submissions"`
}

func registerLearnerAPI(g *echo.Group, deps ServerDeps) {
	api := learnerApi{
		conf:     deps.Conf,
		svc:      deps.LearnerSvc,
		subSvc:   deps.SubmissionSvc,
		regions:  deps.Scheduler.Regions(),
		logger:   deps.Logger,
		validate: deps.Validate,
	}

	g.POST("/users", api.upsert)
	g.GET("/users", api.retrieve)
	g.GET("/earnings", api.earnings)
}

// Handlers

func (api *learnerApi) upsert(ctx echo.Context) error {
	var data learner.NewLearner
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLearner")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	// stored anyway
	if !api.regions.IsKnown(data.Region) {
		warnUnknownRegion(api.logger, api.regions, data.Region)
	}

	lrn, err := api.svc.Upsert(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "upserting learner")
	}
	return ctx.JSON(http.StatusOK, lrn)
}

func (api *learnerApi) retrieve(ctx echo.Context) error {
	lrn, err := getLearnerByEmail(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lrn)
}

func (api *learnerApi) earnings(ctx echo.Context) error {
	lrn, err := getLearnerByEmail(ctx, api.svc)
	if err != nil {
		return err
	}
	subs, err := api.subSvc.History(ctx.Request().Context(), lrn.ID)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}

	return ctx.JSON(http.StatusOK, EarningsResponse{
		Email:       lrn.Email,
		Earnings:    submission.FormatAmount(lrn.Earnings),
		EarningsSen: lrn.Earnings,
		Currency:    api.conf.Training.Currency,
		Submissions: len(subs),
	})
}

// getLearnerByEmail loads the learner named by the `email` query param and puts it in the context.
func getLearnerByEmail(ctx echo.Context, svc learner.ServiceInterface) (learner.Learner, error) {
	email := core.CleanString(ctx.QueryParam("email"), true /* lower */)
	if email == "" {
		return learner.Learner{}, errEmailRequired
	}
	lrn, err := svc.GetByEmail(ctx.Request().Context(), email)
	if err != nil {
		return learner.Learner{}, notFound(err)
	}
	ctx.Set(learnerCtxKey, lrn)
	return lrn, nil
}
