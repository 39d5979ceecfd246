package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/learner"
	"github.com/trezcool/suara/core/submission"
	"github.com/trezcool/suara/services/metrics"
)

type submissionApi struct {
	svc      submission.ServiceInterface
	lrnSvc   learner.ServiceInterface
	metrics  *metrics.Metrics
	validate *validator.Validate
}

func registerSubmissionAPI(g *echo.Group, deps ServerDeps) {
	api := submissionApi{
		svc:      deps.SubmissionSvc,
		lrnSvc:   deps.LearnerSvc,
		metrics:  deps.Metrics,
		validate: deps.Validate,
	}

	sg := g.Group("/submissions")
	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *submissionApi) create(ctx echo.Context) error {
	var data submission.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		api.metrics.Submission(metrics.StatusRejected)
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		api.metrics.Submission(metrics.StatusRejected)
		return err
	}

	sub, created, err := api.svc.Submit(ctx.Request().Context(), data)
	if err != nil {
		var vErr *core.ValidationError
		if errors.As(err, &vErr) {
			api.metrics.Submission(metrics.StatusRejected)
			return err
		}
		return notFound(err)
	}

	if !created {
		api.metrics.Submission(metrics.StatusDuplicate)
		return ctx.JSON(http.StatusOK, sub)
	}
	api.metrics.Submission(metrics.StatusCreated)
	api.metrics.RewardCredited(sub.Reward)
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *submissionApi) query(ctx echo.Context) error {
	lrn, err := getLearnerByEmail(ctx, api.lrnSvc)
	if err != nil {
		return err
	}

	subs, err := api.svc.History(ctx.Request().Context(), lrn.ID)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = make([]submission.Submission, 0)
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *submissionApi) destroy(ctx echo.Context) error {
	sub, err := api.svc.Remove(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFound(err)
	}

	api.metrics.Submission(metrics.StatusRemoved)
	api.metrics.RewardDebited(sub.Reward)
	return ctx.NoContent(http.StatusNoContent)
}
