// Package sqlxrepos implements the repositories on PostgreSQL with sqlx & squirrel.
package sqlxrepos

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// getExec returns the transaction to run queries on if any, db otherwise.
func getExec(db core.DBExecutor, exec ...core.DBExecutor) core.DBExecutor {
	if len(exec) > 0 && exec[0] != nil {
		return exec[0]
	}
	return db
}

func trapNoRowsErr(err, notFoundErr error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFoundErr
	}
	return err
}

// uniqueViolation returns the name of the violated unique constraint, if err is one.
func uniqueViolation(err error) (string, bool) {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == "23505" {
		return pqErr.Constraint, true
	}
	return "", false
}

// checkAffected returns notFoundErr when res affected no row.
func checkAffected(res sql.Result, notFoundErr error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "getting affected rows")
	}
	if n == 0 {
		return notFoundErr
	}
	return nil
}
