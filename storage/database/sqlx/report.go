package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core/report"
)

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *sqlx.DB) report.Repository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) count(ctx context.Context, dest *int, b sq.SelectBuilder) error {
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return repo.db.GetContext(ctx, dest, q, args...)
}

func (repo *reportRepository) breakdown(ctx context.Context, table, column string) ([]report.Count, error) {
	q, args, err := psql.Select(column+" AS label", "COUNT(*) AS total").
		From(table).
		GroupBy(column).
		OrderBy(column).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	counts := make([]report.Count, 0)
	if err = repo.db.SelectContext(ctx, &counts, q, args...); err != nil {
		return nil, errors.Wrapf(err, "counting %s by %s", table, column)
	}
	return counts, nil
}

func (repo *reportRepository) CollectStats(ctx context.Context) (report.Stats, error) {
	var (
		st  report.Stats
		err error
	)
	counts := []struct {
		dest *int
		b    sq.SelectBuilder
	}{
		{&st.Schools, psql.Select("COUNT(*)").From("school")},
		{&st.Principals, psql.Select("COUNT(*)").From("principal")},
		{&st.ActivePrincipals, psql.Select("COUNT(*)").From("principal").Where(sq.Eq{"is_active": true})},
		{&st.Feedback, psql.Select("COUNT(*)").From("feedback")},
		{&st.FeedbackAdminReplied, psql.Select("COUNT(admin_reply)").From("feedback")},
		{&st.FeedbackPrincipalReplied, psql.Select("COUNT(principal_reply)").From("feedback")},
		{&st.Meetings, psql.Select("COUNT(*)").From("meeting_booking")},
		{&st.Users, psql.Select("COUNT(*)").From(userTable)},
	}
	for _, c := range counts {
		if err = repo.count(ctx, c.dest, c.b); err != nil {
			return report.Stats{}, errors.Wrap(err, "counting rows")
		}
	}

	if st.SchoolsByRegion, err = repo.breakdown(ctx, "school", "region"); err != nil {
		return report.Stats{}, err
	}
	if st.SchoolsByLevel, err = repo.breakdown(ctx, "school", "level"); err != nil {
		return report.Stats{}, err
	}
	if st.MeetingsByStatus, err = repo.breakdown(ctx, "meeting_booking", "status"); err != nil {
		return report.Stats{}, err
	}
	return st, nil
}
