package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/submission"
)

const submissionColumns = "id, learner_id, item_id, original_text, corrected_text, region, audio_url, reward, created_at"

type submissionRow struct {
	ID            string      `db:"id"`
	LearnerID     string      `db:"learner_id"`
	ItemID        int         `db:"item_id"`
	OriginalText  string      `db:"original_text"`
	CorrectedText string      `db:"corrected_text"`
	Region        null.String `db:"region"`
	AudioURL      null.String `db:"audio_url"`
	Reward        int64       `db:"reward"`
	CreatedAt     time.Time   `db:"created_at"`
}

func (r submissionRow) unpack() submission.Submission {
	return submission.Submission{
		ID:            r.ID,
		LearnerID:     r.LearnerID,
		ItemID:        r.ItemID,
		OriginalText:  r.OriginalText,
		CorrectedText: r.CorrectedText,
		Region:        r.Region.String,
		AudioURL:      r.AudioURL.String,
		Reward:        r.Reward,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

type submissionRepository struct {
	repository
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *sqlx.DB) *submissionRepository {
	return &submissionRepository{repository: newRepository(db)}
}

func (repo submissionRepository) query(ctx context.Context, exec core.DBExecutor, where string, args ...interface{}) ([]submission.Submission, error) {
	var rows []submissionRow
	q := "SELECT " + submissionColumns + " FROM training_submission WHERE " + where
	if err := repo.selectAll(ctx, exec, &rows, q, args...); err != nil {
		return nil, err
	}
	subs := make([]submission.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.unpack())
	}
	return subs, nil
}

func (repo submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, bool, error) {
	exe := repo.getExec(exec)

	sub.ID = uuid.New().String()
	q := `INSERT INTO training_submission (` + submissionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, item_id) DO NOTHING`
	n, err := repo.execAffected(ctx, exe, q,
		sub.ID,
		sub.LearnerID,
		sub.ItemID,
		sub.OriginalText,
		sub.CorrectedText,
		null.NewString(sub.Region, sub.Region != ""),
		null.NewString(sub.AudioURL, sub.AudioURL != ""),
		sub.Reward,
		sub.CreatedAt.UTC(),
	)
	if err != nil {
		return submission.Submission{}, false, errors.Wrap(err, "inserting submission")
	}
	if n == 1 {
		return sub, true, nil
	}

	// already submitted: return the stored row
	subs, err := repo.query(ctx, exe, "learner_id = ? AND item_id = ?", sub.LearnerID, sub.ItemID)
	if err != nil {
		return submission.Submission{}, false, errors.Wrap(err, "finding existing submission")
	}
	if len(subs) == 0 {
		return submission.Submission{}, false, errors.New("submission conflict without existing row")
	}
	return subs[0], false, nil
}

func (repo submissionRepository) CompletedItemIDs(ctx context.Context, learnerID string, exec ...core.DBExecutor) ([]int, error) {
	rows, err := repo.getExec(exec).QueryContext(ctx,
		repo.rebind("SELECT item_id FROM training_submission WHERE learner_id = ? ORDER BY item_id"), learnerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying completed items")
	}
	defer func() { _ = rows.Close() }()

	var ids []int
	for rows.Next() {
		var id int
		if err = rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scanning completed items")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "querying completed items")
}

func (repo submissionRepository) QuerySubmissions(ctx context.Context, learnerID string, exec ...core.DBExecutor) ([]submission.Submission, error) {
	subs, err := repo.query(ctx, repo.getExec(exec), "learner_id = ? ORDER BY created_at DESC, item_id DESC", learnerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	return subs, nil
}

func (repo submissionRepository) GetSubmission(ctx context.Context, id string, exec ...core.DBExecutor) (submission.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return submission.Submission{}, submission.ErrNotFound
	}
	subs, err := repo.query(ctx, repo.getExec(exec), "id = ?", id)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "finding submission")
	}
	if len(subs) == 0 {
		return submission.Submission{}, submission.ErrNotFound
	}
	return subs[0], nil
}

func (repo submissionRepository) DeleteSubmission(ctx context.Context, id string, exec ...core.DBExecutor) error {
	n, err := repo.execAffected(ctx, repo.getExec(exec), "DELETE FROM training_submission WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "deleting submission")
	}
	if n == 0 {
		return submission.ErrNotFound
	}
	return nil
}
