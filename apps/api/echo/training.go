package echoapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/learner"
	"github.com/trezcool/suara/core/submission"
	"github.com/trezcool/suara/core/training"
	"github.com/trezcool/suara/services/metrics"
)

type trainingApi struct {
	conf    *core.Config
	sched   *training.Scheduler
	lrnSvc  learner.ServiceInterface
	subSvc  submission.ServiceInterface
	metrics *metrics.Metrics
	logger  core.Logger
}

type (
	// NextResponse is the next story to record, or the completion notice.
	// The story fields are null once every story is completed.
	NextResponse struct {
		Text         *string `json:"text"`
		StoryID      *int    `json:"storyId"`
		Title        *string `json:"title"`
		TotalStories int     `json:"totalStories"`
		CurrentStory int     `json:"currentStory,omitempty"`
		StartBatch   int     `json:"startBatch,omitempty"`
		Completed    bool    `json:"completed,omitempty"`
		Message      string  `json:"message,omitempty"`
	}

	SequenceResponse struct {
		Region     string `json:"region"`
		StartBatch int    `json:"startBatch"`
		Batches    []int  `json:"batches"`
		Stories    []int  `json:"stories"`
	}
)

func registerTrainingAPI(g *echo.Group, deps ServerDeps) {
	api := trainingApi{
		conf:    deps.Conf,
		sched:   deps.Scheduler,
		lrnSvc:  deps.LearnerSvc,
		subSvc:  deps.SubmissionSvc,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}

	g.GET("/regions", api.regions)

	tg := g.Group("/training")
	tg.GET("/next", api.next)
	tg.GET("/sequence", api.sequence)
}

// Handlers

func (api *trainingApi) regions(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.sched.Regions().Regions())
}

func (api *trainingApi) next(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	region := ctx.QueryParam("region")
	completed := training.NewCompletedSet()

	if userID := strings.TrimSpace(ctx.QueryParam("userId")); userID != "" {
		if _, err := uuid.Parse(userID); err != nil {
			return errInvalidLearnerID
		}

		lrn, err := api.lrnSvc.GetByID(reqCtx, userID)
		switch {
		case err == nil:
			ctx.Set(learnerCtxKey, lrn)
			if lrn.Region != "" {
				region = lrn.Region
			}
			if completed, err = api.subSvc.Completed(reqCtx, lrn.ID); err != nil {
				completed = api.storeFallback(err, lrn)
			}
		case errors.Cause(err) == learner.ErrNotFound:
			return errLearnerNotFound
		default:
			completed = api.storeFallback(err)
		}
	}

	known := api.sched.Regions().IsKnown(region)
	if !known {
		warnUnknownRegion(api.logger, api.sched.Regions(), region)
	}

	a := api.sched.Assign(region, completed)
	if a.AllCompleted {
		api.metrics.Assignment(metrics.OutcomeCompleted, known)
		return ctx.JSON(http.StatusOK, NextResponse{
			TotalStories: a.TotalItemCount,
			Completed:    true,
			Message:      api.conf.Training.CompletionMessage,
		})
	}

	api.metrics.Assignment(metrics.OutcomeItem, known)
	return ctx.JSON(http.StatusOK, NextResponse{
		Text:         &a.Item.Content,
		StoryID:      &a.Item.ID,
		Title:        &a.Item.Title,
		TotalStories: a.TotalItemCount,
		CurrentStory: a.CurrentOrdinal,
		StartBatch:   a.StartBatch,
	})
}

// storeFallback logs a failure to load the completed stories and serves from an empty set instead.
func (api *trainingApi) storeFallback(err error, args ...interface{}) training.CompletedSet {
	api.logger.Error("training.next: loading completed stories: "+err.Error(), append([]interface{}{err}, args...)...)
	api.metrics.StoreFallback()
	return training.NewCompletedSet()
}

// warnUnknownRegion reports a region missing from the region map. Such learners start at the first batch.
func warnUnknownRegion(logger core.Logger, regions *training.RegionMap, region string) {
	if region == "" {
		return
	}
	extras := map[string]interface{}{"region": region}
	if suggestion, ok := regions.Suggest(region); ok {
		extras["suggestion"] = suggestion
	}
	logger.Warn("unknown region", extras)
}

func (api *trainingApi) sequence(ctx echo.Context) error {
	region := ctx.QueryParam("region")
	items := api.sched.ItemSequence(region)
	stories := make([]int, len(items))
	for i, item := range items {
		stories[i] = item.ID
	}

	return ctx.JSON(http.StatusOK, SequenceResponse{
		Region:     region,
		StartBatch: api.sched.Regions().StartBatch(region),
		Batches:    api.sched.Sequence(region),
		Stories:    stories,
	})
}
