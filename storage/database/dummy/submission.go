package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/submission"
)

type submissionRepository struct {
	db *submissionTable
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) submission.Repository {
	return &submissionRepository{db: db.submission}
}

func (repo *submissionRepository) byLearner(learnerID string) []submission.Submission {
	var subs []submission.Submission
	for _, s := range repo.db.table {
		if s.LearnerID == learnerID {
			subs = append(subs, *s)
		}
	}
	return subs
}

func (repo *submissionRepository) CreateSubmission(_ context.Context, sub submission.Submission, _ ...core.DBExecutor) (submission.Submission, bool, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, s := range repo.db.table {
		if s.LearnerID == sub.LearnerID && s.ItemID == sub.ItemID {
			return *s, false, nil
		}
	}

	sub.ID = uuid.New().String()
	repo.db.table[sub.ID] = &sub
	return sub, true, nil
}

func (repo *submissionRepository) CompletedItemIDs(_ context.Context, learnerID string, _ ...core.DBExecutor) ([]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := repo.byLearner(learnerID)
	ids := make([]int, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ItemID)
	}
	sort.Ints(ids)
	return ids, nil
}

func (repo *submissionRepository) QuerySubmissions(_ context.Context, learnerID string, _ ...core.DBExecutor) ([]submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := repo.byLearner(learnerID)
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].ItemID > subs[j].ItemID
		}
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})
	return subs, nil
}

func (repo *submissionRepository) GetSubmission(_ context.Context, id string, _ ...core.DBExecutor) (submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return *s, nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) DeleteSubmission(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return submission.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
