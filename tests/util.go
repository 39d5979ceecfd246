package testutil

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/learner"
	"github.com/trezcool/suara/core/training"
	"github.com/trezcool/suara/storage/database"
)

// OpenDB opens a migrated in-memory SQLite database, closed when the test ends.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	return db
}

func NewConfig() *core.Config {
	return &core.Config{
		AppName:         "Suara",
		Env:             "TEST",
		TestMode:        true,
		FrontendBaseURL: "http://localhost:3000",
		Training: core.TrainingConfig{
			RewardPerSubmission: 10,
			Currency:            "MYR",
			CompletionMessage:   "You have completed all available stories! 🎉",
		},
	}
}

func NewValidator() *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	return validate
}

// NewScheduler builds a Scheduler over `batches` batches of `perBatch` items, ids 1..batches*perBatch.
func NewScheduler(t *testing.T, batches, perBatch int, regions map[string]int) *training.Scheduler {
	t.Helper()
	bs := make([]training.Batch, batches)
	id := 1
	for i := range bs {
		bs[i].Index = i + 1
		for j := 0; j < perBatch; j++ {
			bs[i].Items = append(bs[i].Items, training.Item{
				ID:      id,
				Title:   fmt.Sprintf("Story %d", id),
				Content: fmt.Sprintf("Text of story %d.", id),
			})
			id++
		}
	}

	catalog, err := training.NewCatalog(bs)
	if err != nil {
		t.Fatalf("NewScheduler() failed: %v", err)
	}
	regionMap, err := training.NewRegionMap(regions, catalog.BatchCount())
	if err != nil {
		t.Fatalf("NewScheduler() failed: %v", err)
	}
	sched, err := training.NewScheduler(catalog, regionMap)
	if err != nil {
		t.Fatalf("NewScheduler() failed: %v", err)
	}
	return sched
}

func CreateLearner(t *testing.T, repo learner.Repository, email, region string, createdAt ...time.Time) learner.Learner {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	lrn, err := repo.UpsertLearner(context.Background(), learner.Learner{
		Email:     email,
		Region:    region,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateLearner() failed: %v", err)
	}
	return lrn
}

// ValidationFields lists the fields (JSON names) a validation error is about.
func ValidationFields(err error) []string {
	var fields []string
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		for _, fe := range vErrs {
			fields = append(fields, fe.Field())
		}
	}
	var cErr *core.ValidationError
	if errors.As(err, &cErr) {
		for _, fe := range cErr.Fields {
			fields = append(fields, fe.Field)
		}
	}
	return fields
}
