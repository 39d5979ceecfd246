package dummydb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/learner"
)

type learnerRepository struct {
	db *learnerTable
}

var _ learner.Repository = (*learnerRepository)(nil) // interface compliance check

func NewLearnerRepository(db *DB) learner.Repository {
	return &learnerRepository{db: db.learner}
}

func (repo *learnerRepository) query() []learner.Learner {
	learners := make([]learner.Learner, 0, len(repo.db.table))
	for _, l := range repo.db.table {
		learners = append(learners, *l)
	}
	return learners
}

func (repo *learnerRepository) UpsertLearner(_ context.Context, lrn learner.Learner, _ ...core.DBExecutor) (learner.Learner, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, l := range repo.db.table {
		if l.Email == lrn.Email {
			if lrn.Region != "" {
				l.Region = lrn.Region
			}
			l.UpdatedAt = lrn.UpdatedAt
			return *l, nil
		}
	}

	lrn.ID = uuid.New().String()
	lrn.Earnings = 0
	repo.db.table[lrn.ID] = &lrn
	return lrn, nil
}

func (repo *learnerRepository) GetLearner(_ context.Context, filter learner.GetFilter, _ ...core.DBExecutor) (learner.Learner, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if lrn, ok := repo.db.table[filter.ID]; ok {
			return *lrn, nil
		}
		return learner.Learner{}, learner.ErrNotFound
	}
	if filter.Email != "" {
		for _, lrn := range repo.db.table {
			if lrn.Email == filter.Email {
				return *lrn, nil
			}
		}
	}
	return learner.Learner{}, learner.ErrNotFound
}

var learnerFields = map[string]func(a, b learner.Learner) int{
	"email":      func(a, b learner.Learner) int { return strings.Compare(a.Email, b.Email) },
	"region":     func(a, b learner.Learner) int { return strings.Compare(a.Region, b.Region) },
	"earnings":   func(a, b learner.Learner) int { return compareInt64(a.Earnings, b.Earnings) },
	"created_at": func(a, b learner.Learner) int { return compareInt64(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano()) },
}

func (repo *learnerRepository) QueryLearners(_ context.Context, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]learner.Learner, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	learners := repo.query()
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "email", Ascending: true}}
	}
	sort.SliceStable(learners, func(i, j int) bool {
		for _, ord := range ordering {
			cmp, ok := learnerFields[ord.Field]
			if !ok {
				continue
			}
			if c := cmp(learners[i], learners[j]); c != 0 {
				return (c < 0) == ord.Ascending
			}
		}
		return false
	})
	return learners, nil
}

func (repo *learnerRepository) AddEarnings(_ context.Context, id string, delta int64, _ ...core.DBExecutor) (learner.Learner, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	lrn, ok := repo.db.table[id]
	if !ok {
		return learner.Learner{}, learner.ErrNotFound
	}
	lrn.Earnings += delta
	return *lrn, nil
}

func (repo *learnerRepository) MarkCompleted(_ context.Context, id string, at time.Time, _ ...core.DBExecutor) (bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return false, learner.ErrNotFound
	}
	if _, ok := repo.db.completed[id]; ok {
		return false, nil
	}
	repo.db.completed[id] = at.UTC()
	return true, nil
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
