package learner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/learner"
	dummydb "github.com/trezcool/suara/storage/database/dummy"
	"github.com/trezcool/suara/tests"
)

func newService(t *testing.T) *learner.Service {
	db, err := dummydb.Open()
	require.NoError(t, err)
	return learner.NewService(dummydb.NewLearnerRepository(db))
}

func TestNewLearner_Validate(t *testing.T) {
	validate := testutil.NewValidator()

	tests := []struct {
		name       string
		data       learner.NewLearner
		wantEmail  string
		wantRegion string
		wantFields []string
	}{
		{name: "email only", data: learner.NewLearner{Email: "ali@test.my"}, wantEmail: "ali@test.my"},
		{
			name:       "email is cleaned, region is kept verbatim",
			data:       learner.NewLearner{Email: "  Ali@Test.MY ", Region: "penang"},
			wantEmail:  "ali@test.my",
			wantRegion: "penang",
		},
		{name: "missing email", data: learner.NewLearner{Region: "Penang"}, wantFields: []string{"email"}},
		{name: "invalid email", data: learner.NewLearner{Email: "ali.test.my"}, wantFields: []string{"email"}},
		{name: "blank region", data: learner.NewLearner{Email: "ali@test.my", Region: "   "}, wantFields: []string{"region"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.data
			err := data.Validate(validate)
			if tt.wantFields != nil {
				assert.ElementsMatch(t, tt.wantFields, testutil.ValidationFields(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEmail, data.Email)
			assert.Equal(t, tt.wantRegion, data.Region)
		})
	}
}

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	ali, err := svc.Upsert(ctx, learner.NewLearner{Email: "ali@test.my", Region: "Penang"})
	require.NoError(t, err)
	assert.NotEmpty(t, ali.ID)
	assert.False(t, ali.CreatedAt.IsZero())

	again, err := svc.Upsert(ctx, learner.NewLearner{Email: "ali@test.my", Region: "Johor"})
	require.NoError(t, err)
	assert.Equal(t, ali.ID, again.ID)
	assert.Equal(t, "Johor", again.Region)

	again, err = svc.Upsert(ctx, learner.NewLearner{Email: "ali@test.my"})
	require.NoError(t, err)
	assert.Equal(t, "Johor", again.Region, "an empty region keeps the stored one")

	_, err = svc.Upsert(ctx, learner.NewLearner{Email: "siti@test.my"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		get     func() (learner.Learner, error)
		wantID  string
		wantErr error
	}{
		{name: "by id", get: func() (learner.Learner, error) { return svc.GetByID(ctx, ali.ID) }, wantID: ali.ID},
		{name: "by email", get: func() (learner.Learner, error) { return svc.GetByEmail(ctx, " ALI@test.my") }, wantID: ali.ID},
		{name: "unknown id", get: func() (learner.Learner, error) { return svc.GetByID(ctx, "lol") }, wantErr: learner.ErrNotFound},
		{name: "empty email", get: func() (learner.Learner, error) { return svc.GetByEmail(ctx, "  ") }, wantErr: learner.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lrn, err := tt.get()
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, lrn.ID)
		})
	}

	learners, err := svc.Query(ctx, []core.DBOrdering{{Field: "email", Ascending: false}})
	require.NoError(t, err)
	require.Len(t, learners, 2)
	assert.Equal(t, "siti@test.my", learners[0].Email)

	lrn, err := svc.AddEarnings(ctx, ali.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), lrn.Earnings)
	lrn, err = svc.AddEarnings(ctx, ali.ID, -10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), lrn.Earnings)

	first, err := svc.MarkCompleted(ctx, ali.ID)
	require.NoError(t, err)
	assert.True(t, first)
	first, err = svc.MarkCompleted(ctx, ali.ID)
	require.NoError(t, err)
	assert.False(t, first)
	_, err = svc.MarkCompleted(ctx, "lol")
	assert.True(t, errors.Is(err, learner.ErrNotFound))
}
