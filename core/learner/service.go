package learner

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/suara/core"
)

var (
	// errors
	ErrNotFound = errors.New("learner not found")
)

type (
	Repository interface {
		// UpsertLearner inserts the Learner or, when one with the same email exists, updates its region.
		// An empty region never overwrites a stored one.
		UpsertLearner(ctx context.Context, lrn Learner, exec ...core.DBExecutor) (Learner, error)
		GetLearner(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Learner, error)
		QueryLearners(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Learner, error)
		// AddEarnings adds delta (sen, may be negative) to the Learner's earnings.
		AddEarnings(ctx context.Context, id string, delta int64, exec ...core.DBExecutor) (Learner, error)
		// MarkCompleted records when the Learner finished the catalog. It reports false
		// when that was already recorded.
		MarkCompleted(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) (bool, error)
	}

	ServiceInterface interface {
		Upsert(ctx context.Context, nl NewLearner) (Learner, error)
		GetByID(ctx context.Context, id string) (Learner, error)
		GetByEmail(ctx context.Context, email string) (Learner, error)
		Query(ctx context.Context, ordering []core.DBOrdering) ([]Learner, error)
		AddEarnings(ctx context.Context, id string, delta int64, exec ...core.DBExecutor) (Learner, error)
		MarkCompleted(ctx context.Context, id string) (bool, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Upsert expects a validated NewLearner.
func (svc *Service) Upsert(ctx context.Context, nl NewLearner) (Learner, error) {
	now := time.Now().UTC()
	lrn, err := svc.repo.UpsertLearner(ctx, Learner{
		Email:     nl.Email,
		Region:    nl.Region,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Learner{}, errors.Wrap(err, "upserting learner")
	}
	return lrn, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Learner, error) {
	return svc.repo.GetLearner(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Learner, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return Learner{}, ErrNotFound
	}
	return svc.repo.GetLearner(ctx, GetFilter{Email: email})
}

func (svc *Service) Query(ctx context.Context, ordering []core.DBOrdering) ([]Learner, error) {
	return svc.repo.QueryLearners(ctx, ordering)
}

func (svc *Service) AddEarnings(ctx context.Context, id string, delta int64, exec ...core.DBExecutor) (Learner, error) {
	return svc.repo.AddEarnings(ctx, id, delta, exec...)
}

// MarkCompleted reports whether this is the first time the learner is marked as having finished.
func (svc *Service) MarkCompleted(ctx context.Context, id string) (bool, error) {
	first, err := svc.repo.MarkCompleted(ctx, id, time.Now().UTC())
	if err != nil {
		return false, errors.Wrap(err, "marking learner completed")
	}
	return first, nil
}
