package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/learner"
	"github.com/trezcool/suara/core/submission"
	"github.com/trezcool/suara/tests"
)

func TestLearnerRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewLearnerRepository(db)

	now := time.Now().UTC().Truncate(time.Second)
	ali := testutil.CreateLearner(t, repo, "ali@test.my", "Penang", now)
	siti := testutil.CreateLearner(t, repo, "siti@test.my", "", now.Add(time.Hour))

	assert.NotEmpty(t, ali.ID)
	assert.Equal(t, "Penang", ali.Region)
	assert.Equal(t, int64(0), ali.Earnings)
	assert.True(t, ali.CreatedAt.Equal(now))
	assert.Equal(t, "", siti.Region)

	t.Run("upsert keeps the id and updates the region", func(t *testing.T) {
		again := testutil.CreateLearner(t, repo, "ali@test.my", "Kedah", now.Add(2*time.Hour))
		assert.Equal(t, ali.ID, again.ID)
		assert.Equal(t, "Kedah", again.Region)
		assert.True(t, again.CreatedAt.Equal(now))

		again = testutil.CreateLearner(t, repo, "ali@test.my", "", now.Add(3*time.Hour))
		assert.Equal(t, "Kedah", again.Region, "an empty region keeps the stored one")
		assert.True(t, again.UpdatedAt.Equal(now.Add(3*time.Hour)))
	})

	t.Run("get", func(t *testing.T) {
		tests := []struct {
			name    string
			filter  learner.GetFilter
			wantID  string
			wantErr error
		}{
			{name: "by id", filter: learner.GetFilter{ID: siti.ID}, wantID: siti.ID},
			{name: "by email", filter: learner.GetFilter{Email: "ali@test.my"}, wantID: ali.ID},
			{name: "malformed id", filter: learner.GetFilter{ID: "lol"}, wantErr: learner.ErrNotFound},
			{name: "unknown email", filter: learner.GetFilter{Email: "x@test.my"}, wantErr: learner.ErrNotFound},
			{name: "empty filter", wantErr: learner.ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				lrn, err := repo.GetLearner(ctx, tt.filter)
				if tt.wantErr != nil {
					assert.Equal(t, tt.wantErr, err)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, lrn.ID)
			})
		}
	})

	t.Run("query", func(t *testing.T) {
		learners, err := repo.QueryLearners(ctx, nil)
		require.NoError(t, err)
		require.Len(t, learners, 2)
		assert.Equal(t, ali.ID, learners[0].ID)

		learners, err = repo.QueryLearners(ctx, []core.DBOrdering{{Field: "created_at"}, {Field: "password"}})
		require.NoError(t, err)
		assert.Equal(t, siti.ID, learners[0].ID)
	})

	t.Run("earnings", func(t *testing.T) {
		lrn, err := repo.AddEarnings(ctx, ali.ID, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(10), lrn.Earnings)

		lrn, err = repo.AddEarnings(ctx, ali.ID, -4)
		require.NoError(t, err)
		assert.Equal(t, int64(6), lrn.Earnings)

		_, err = repo.AddEarnings(ctx, "00000000-0000-0000-0000-000000000000", 10)
		assert.Equal(t, learner.ErrNotFound, err)
	})

	t.Run("mark completed", func(t *testing.T) {
		first, err := repo.MarkCompleted(ctx, siti.ID, now)
		require.NoError(t, err)
		assert.True(t, first)

		first, err = repo.MarkCompleted(ctx, siti.ID, now.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, first)

		_, err = repo.MarkCompleted(ctx, "lol", now)
		assert.Equal(t, learner.ErrNotFound, err)
	})
}

func TestSubmissionRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	lrnRepo := NewLearnerRepository(db)
	repo := NewSubmissionRepository(db)

	ali := testutil.CreateLearner(t, lrnRepo, "ali@test.my", "Penang")
	siti := testutil.CreateLearner(t, lrnRepo, "siti@test.my", "Kedah")

	now := time.Now().UTC().Truncate(time.Second)
	newSub := func(lrn learner.Learner, itemID int, at time.Time) submission.Submission {
		return submission.Submission{
			LearnerID:     lrn.ID,
			ItemID:        itemID,
			OriginalText:  "asal",
			CorrectedText: "betul",
			Region:        lrn.Region,
			Reward:        10,
			CreatedAt:     at,
		}
	}

	first, created, err := repo.CreateSubmission(ctx, newSub(ali, 25, now))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, first.ID)

	_, created, err = repo.CreateSubmission(ctx, newSub(ali, 26, now.Add(time.Minute)))
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = repo.CreateSubmission(ctx, newSub(siti, 25, now))
	require.NoError(t, err)
	assert.True(t, created)

	t.Run("duplicate returns the stored row", func(t *testing.T) {
		dup := newSub(ali, 25, now.Add(time.Hour))
		dup.CorrectedText = "lain"
		got, created, err := repo.CreateSubmission(ctx, dup)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, got.ID)
		assert.Equal(t, "betul", got.CorrectedText)
	})

	t.Run("completed ids", func(t *testing.T) {
		ids, err := repo.CompletedItemIDs(ctx, ali.ID)
		require.NoError(t, err)
		assert.Equal(t, []int{25, 26}, ids)

		ids, err = repo.CompletedItemIDs(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("history is newest first", func(t *testing.T) {
		subs, err := repo.QuerySubmissions(ctx, ali.ID)
		require.NoError(t, err)
		require.Len(t, subs, 2)
		assert.Equal(t, 26, subs[0].ItemID)
		assert.Equal(t, 25, subs[1].ItemID)
		assert.Equal(t, "Penang", subs[1].Region)
		assert.Equal(t, "", subs[1].AudioURL)
	})

	t.Run("get & delete", func(t *testing.T) {
		got, err := repo.GetSubmission(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 25, got.ItemID)
		assert.Equal(t, int64(10), got.Reward)

		_, err = repo.GetSubmission(ctx, "lol")
		assert.Equal(t, submission.ErrNotFound, err)

		require.NoError(t, repo.DeleteSubmission(ctx, first.ID))
		assert.Equal(t, submission.ErrNotFound, repo.DeleteSubmission(ctx, first.ID))

		ids, err := repo.CompletedItemIDs(ctx, ali.ID)
		require.NoError(t, err)
		assert.Equal(t, []int{26}, ids)
	})

	t.Run("rolled back transaction leaves no trace", func(t *testing.T) {
		errBoom := core.NewValidationError(nil, core.FieldError{Field: "x", Error: "boom"})
		err := core.WithTx(ctx, db, func(exec ...core.DBExecutor) error {
			if _, _, err := repo.CreateSubmission(ctx, newSub(siti, 1, now), exec...); err != nil {
				return err
			}
			if _, err := lrnRepo.AddEarnings(ctx, siti.ID, 10, exec...); err != nil {
				return err
			}
			return errBoom
		})
		assert.Equal(t, errBoom, err)

		ids, err := repo.CompletedItemIDs(ctx, siti.ID)
		require.NoError(t, err)
		assert.Equal(t, []int{25}, ids)
		lrn, err := lrnRepo.GetLearner(ctx, learner.GetFilter{ID: siti.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(0), lrn.Earnings)
	})
}
