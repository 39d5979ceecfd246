package submission_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/learner"
	"github.com/trezcool/suara/core/submission"
	emailsvc "github.com/trezcool/suara/services/email"
	logsvc "github.com/trezcool/suara/services/logger"
	dummydb "github.com/trezcool/suara/storage/database/dummy"
	"github.com/trezcool/suara/tests"
)

type fixture struct {
	svc     *submission.Service
	lrnSvc  *learner.Service
	mailSvc *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) fixture {
	conf := testutil.NewConfig()
	logger := logsvc.NewZapLogger(zaptest.NewLogger(t).Sugar())
	core.ParseEmailTemplates(logger)

	db, err := dummydb.Open()
	require.NoError(t, err)
	lrnSvc := learner.NewService(dummydb.NewLearnerRepository(db))
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	sched := testutil.NewScheduler(t, 3, 2, map[string]int{"Penang": 3})

	svc := submission.NewService(conf, nil, dummydb.NewSubmissionRepository(db), lrnSvc, sched, mailSvc, logger)
	return fixture{svc: svc, lrnSvc: lrnSvc, mailSvc: mailSvc}
}

func newSubmission(email string, storyID int) submission.NewSubmission {
	return submission.NewSubmission{
		Email:         email,
		StoryID:       storyID,
		OriginalText:  "asal",
		CorrectedText: "betul",
	}
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	ali, err := f.lrnSvc.Upsert(ctx, learner.NewLearner{Email: "ali@test.my", Region: "Penang"})
	require.NoError(t, err)

	tests := []struct {
		name         string
		data         submission.NewSubmission
		wantErr      error
		wantCreated  bool
		wantEarnings int64
	}{
		{name: "unknown story", data: newSubmission("ali@test.my", 99), wantErr: submission.ErrUnknownStory},
		{name: "unknown learner", data: newSubmission("nobody@test.my", 5), wantErr: learner.ErrNotFound},
		{name: "first submission", data: newSubmission("ali@test.my", 5), wantCreated: true, wantEarnings: 10},
		{name: "duplicate submission", data: newSubmission("ali@test.my", 5), wantCreated: false, wantEarnings: 10},
		{name: "second story", data: newSubmission("ali@test.my", 6), wantCreated: true, wantEarnings: 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, created, err := f.svc.Submit(ctx, tt.data)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "Submit() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, created)
			assert.Equal(t, tt.data.StoryID, sub.ItemID)
			assert.Equal(t, "Penang", sub.Region, "region defaults to the learner's")
			assert.Equal(t, int64(10), sub.Reward)

			lrn, err := f.lrnSvc.GetByID(ctx, ali.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEarnings, lrn.Earnings)
		})
	}

	t.Run("unknown story is a storyId validation error", func(t *testing.T) {
		_, _, err := f.svc.Submit(ctx, newSubmission("ali@test.my", 0))
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "storyId", vErr.Fields[0].Field)
	})

	completed, err := f.svc.Completed(ctx, ali.ID)
	require.NoError(t, err)
	assert.True(t, completed.Has(5))
	assert.True(t, completed.Has(6))
	assert.Equal(t, 2, completed.Len())
	assert.Empty(t, f.mailSvc.SentMessages())
}

func TestService_Submit_Completion(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.lrnSvc.Upsert(ctx, learner.NewLearner{Email: "siti@test.my", Region: "Kedah"})
	require.NoError(t, err)

	var first submission.Submission
	for id := 1; id <= 6; id++ {
		assert.Empty(t, f.mailSvc.SentMessages(), "no notice before story %d", id)
		sub, created, err := f.svc.Submit(ctx, newSubmission("siti@test.my", id))
		require.NoError(t, err)
		require.True(t, created)
		if id == 1 {
			first = sub
		}
	}

	sent := f.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, "siti@test.my", msg.To[0].Address)
	assert.Contains(t, msg.TextContent, "You have completed all available stories!")
	assert.Contains(t, msg.TextContent, "You completed 6 stories and earned MYR 0.60 in total.")
	assert.True(t, strings.Contains(msg.HTMLContent, "<strong>6</strong>"))

	// a duplicate after completion does not notify again
	_, created, err := f.svc.Submit(ctx, newSubmission("siti@test.my", 6))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, f.mailSvc.SentMessages(), 1)

	// nor does completing the catalog again after a removal
	_, err = f.svc.Remove(ctx, first.ID)
	require.NoError(t, err)
	_, created, err = f.svc.Submit(ctx, newSubmission("siti@test.my", 1))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, f.mailSvc.SentMessages(), 1)
}

func TestService_Remove(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	ali, err := f.lrnSvc.Upsert(ctx, learner.NewLearner{Email: "ali@test.my"})
	require.NoError(t, err)
	sub, _, err := f.svc.Submit(ctx, newSubmission("ali@test.my", 1))
	require.NoError(t, err)
	_, _, err = f.svc.Submit(ctx, newSubmission("ali@test.my", 2))
	require.NoError(t, err)

	removed, err := f.svc.Remove(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, removed.ID)

	lrn, err := f.lrnSvc.GetByID(ctx, ali.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), lrn.Earnings)

	history, err := f.svc.History(ctx, ali.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 2, history[0].ItemID)

	_, err = f.svc.Remove(ctx, sub.ID)
	assert.Equal(t, submission.ErrNotFound, err)

	// the removed story is served again
	_, created, err := f.svc.Submit(ctx, newSubmission("ali@test.my", 1))
	require.NoError(t, err)
	assert.True(t, created)
}

func TestNewSubmission_Validate(t *testing.T) {
	validate := testutil.NewValidator()

	tests := []struct {
		name       string
		data       submission.NewSubmission
		wantFields []string
	}{
		{name: "valid", data: newSubmission(" Ali@Test.my ", 1)},
		{name: "missing email", data: newSubmission("", 1), wantFields: []string{"email"}},
		{name: "invalid email", data: newSubmission("ali", 1), wantFields: []string{"email"}},
		{name: "missing story", data: newSubmission("ali@test.my", 0), wantFields: []string{"storyId"}},
		{
			name:       "blank corrected text",
			data:       submission.NewSubmission{Email: "ali@test.my", StoryID: 1, OriginalText: "asal", CorrectedText: "  "},
			wantFields: []string{"correctedText"},
		},
		{
			name: "invalid audio url",
			data: submission.NewSubmission{
				Email: "ali@test.my", StoryID: 1, OriginalText: "asal", CorrectedText: "betul", AudioURL: "not a url",
			},
			wantFields: []string{"audioUrl"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.data
			err := data.Validate(validate)
			if tt.wantFields == nil {
				require.NoError(t, err)
				assert.Equal(t, "ali@test.my", data.Email)
				return
			}
			require.Error(t, err)
			fields := testutil.ValidationFields(err)
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}
