package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/suara/core"
)

// repository holds what every sqlx repository needs: a default executor and the
// placeholder style of its driver. Queries are written with `?` and rebound.
type repository struct {
	exec core.DBExecutor
	bind int
}

func newRepository(db *sqlx.DB) repository {
	return repository{exec: db, bind: sqlx.BindType(db.DriverName())}
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

func (repo repository) rebind(query string) string {
	return sqlx.Rebind(repo.bind, query)
}

// selectAll scans every row into dest, a pointer to a slice of structs.
func (repo repository) selectAll(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	rows, err := exec.QueryContext(ctx, repo.rebind(query), args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	return sqlx.StructScan(rows, dest)
}

// execAffected runs a statement and returns the number of affected rows.
func (repo repository) execAffected(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) (int64, error) {
	res, err := exec.ExecContext(ctx, repo.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
