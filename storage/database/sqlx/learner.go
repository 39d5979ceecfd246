package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/suara/core"
	"github.com/trezcool/suara/core/learner"
)

const learnerColumns = "id, email, region, earnings, created_at, updated_at"

// sortable learner columns
var learnerOrderings = map[string]bool{"email": true, "region": true, "earnings": true, "created_at": true}

type learnerRow struct {
	ID        string      `db:"id"`
	Email     string      `db:"email"`
	Region    null.String `db:"region"`
	Earnings  int64       `db:"earnings"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r learnerRow) unpack() learner.Learner {
	return learner.Learner{
		ID:        r.ID,
		Email:     r.Email,
		Region:    r.Region.String,
		Earnings:  r.Earnings,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type learnerRepository struct {
	repository
}

var _ learner.Repository = (*learnerRepository)(nil) // interface compliance check

func NewLearnerRepository(db *sqlx.DB) *learnerRepository {
	return &learnerRepository{repository: newRepository(db)}
}

func (repo learnerRepository) getOne(ctx context.Context, exec core.DBExecutor, where string, arg interface{}) (learner.Learner, error) {
	var rows []learnerRow
	q := "SELECT " + learnerColumns + " FROM learner WHERE " + where + " = ?"
	if err := repo.selectAll(ctx, exec, &rows, q, arg); err != nil {
		return learner.Learner{}, errors.Wrap(err, "finding learner")
	}
	if len(rows) == 0 {
		return learner.Learner{}, learner.ErrNotFound
	}
	return rows[0].unpack(), nil
}

func (repo learnerRepository) UpsertLearner(ctx context.Context, lrn learner.Learner, exec ...core.DBExecutor) (learner.Learner, error) {
	exe := repo.getExec(exec)

	q := `INSERT INTO learner (id, email, region, earnings, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
		ON CONFLICT (email) DO UPDATE SET
			region = COALESCE(excluded.region, learner.region),
			updated_at = excluded.updated_at`
	_, err := repo.execAffected(ctx, exe, q,
		uuid.New().String(),
		lrn.Email,
		null.NewString(lrn.Region, lrn.Region != ""),
		lrn.CreatedAt.UTC(),
		lrn.UpdatedAt.UTC(),
	)
	if err != nil {
		return learner.Learner{}, errors.Wrap(err, "upserting learner")
	}
	return repo.getOne(ctx, exe, "email", lrn.Email)
}

func (repo learnerRepository) GetLearner(ctx context.Context, filter learner.GetFilter, exec ...core.DBExecutor) (learner.Learner, error) {
	exe := repo.getExec(exec)
	if filter.ID != "" {
		if _, err := uuid.Parse(filter.ID); err != nil {
			return learner.Learner{}, learner.ErrNotFound
		}
		return repo.getOne(ctx, exe, "id", filter.ID)
	}
	if filter.Email != "" {
		return repo.getOne(ctx, exe, "email", filter.Email)
	}
	return learner.Learner{}, learner.ErrNotFound
}

func (repo learnerRepository) QueryLearners(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]learner.Learner, error) {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if learnerOrderings[ord.Field] {
			orderList = append(orderList, ord.String())
		}
	}
	if len(orderList) == 0 {
		orderList = append(orderList, "email ASC")
	}

	var rows []learnerRow
	q := "SELECT " + learnerColumns + " FROM learner ORDER BY " + strings.Join(orderList, ", ")
	if err := repo.selectAll(ctx, repo.getExec(exec), &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying learners")
	}

	learners := make([]learner.Learner, 0, len(rows))
	for _, r := range rows {
		learners = append(learners, r.unpack())
	}
	return learners, nil
}

func (repo learnerRepository) AddEarnings(ctx context.Context, id string, delta int64, exec ...core.DBExecutor) (learner.Learner, error) {
	if _, err := uuid.Parse(id); err != nil {
		return learner.Learner{}, learner.ErrNotFound
	}
	exe := repo.getExec(exec)

	q := "UPDATE learner SET earnings = earnings + ?, updated_at = ? WHERE id = ?"
	n, err := repo.execAffected(ctx, exe, q, delta, time.Now().UTC(), id)
	if err != nil {
		return learner.Learner{}, errors.Wrap(err, "adding earnings")
	}
	if n == 0 {
		return learner.Learner{}, learner.ErrNotFound
	}
	return repo.getOne(ctx, exe, "id", id)
}

func (repo learnerRepository) MarkCompleted(ctx context.Context, id string, at time.Time, exec ...core.DBExecutor) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, learner.ErrNotFound
	}

	q := "UPDATE learner SET completed_at = ? WHERE id = ? AND completed_at IS NULL"
	n, err := repo.execAffected(ctx, repo.getExec(exec), q, at.UTC(), id)
	if err != nil {
		return false, errors.Wrap(err, "marking learner completed")
	}
	return n == 1, nil
}
