package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/school"
)

var schoolColumns = []string{
	"id", "name", "region", "level", "contact", "description", "accessibility", "fee_structure", "image_url",
}

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSchool(ctx context.Context, s school.School) (school.School, error) {
	q, args, err := psql.Insert("school").
		Columns(schoolColumns[1:]...).
		Values(s.Name, s.Region, s.Level, s.Contact, s.Description, s.Accessibility, s.FeeStructure, s.ImageURL).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return school.School{}, errors.Wrap(err, "building query")
	}
	if err = repo.db.GetContext(ctx, &s.ID, q, args...); err != nil {
		return school.School{}, errors.Wrap(err, "inserting school")
	}
	return s, nil
}

func (repo *schoolRepository) getSchool(ctx context.Context, id int, forUpdate bool, exec ...core.DBExecutor) (school.School, error) {
	b := psql.Select(schoolColumns...).From("school").Where(sq.Eq{"id": id})
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	q, args, err := b.ToSql()
	if err != nil {
		return school.School{}, errors.Wrap(err, "building query")
	}
	var s school.School
	if err = getExec(repo.db, exec...).GetContext(ctx, &s, q, args...); err != nil {
		return school.School{}, trapNoRowsErr(err, school.ErrNotFound)
	}
	return s, nil
}

func (repo *schoolRepository) GetSchool(ctx context.Context, id int) (school.School, error) {
	return repo.getSchool(ctx, id, false)
}

func (repo *schoolRepository) FilterSchools(ctx context.Context, filter school.QueryFilter, orderings ...core.DBOrdering) ([]school.School, error) {
	filter.Clean()
	b := psql.Select(schoolColumns...).From("school")
	if filter.Query != "" {
		b = b.Where(sq.ILike{"name": "%" + filter.Query + "%"})
	}
	if filter.Region != "" {
		b = b.Where(sq.ILike{"region": "%" + filter.Region + "%"})
	}
	if filter.Disability != "" {
		b = b.Where(sq.ILike{"accessibility": "%" + filter.Disability + "%"})
	}
	for _, ord := range core.CleanOrderings(orderings, school.OrderingFields...) {
		b = b.OrderBy(ord.String())
	}
	b = b.OrderBy("id ASC")

	q, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	schools := make([]school.School, 0)
	if err = repo.db.SelectContext(ctx, &schools, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting schools")
	}
	return schools, nil
}

func (repo *schoolRepository) UpdateSchool(ctx context.Context, s school.School) (school.School, error) {
	q, args, err := psql.Update("school").
		SetMap(map[string]interface{}{
			"name":          s.Name,
			"region":        s.Region,
			"level":         s.Level,
			"contact":       s.Contact,
			"description":   s.Description,
			"accessibility": s.Accessibility,
			"fee_structure": s.FeeStructure,
			"image_url":     s.ImageURL,
		}).
		Where(sq.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return school.School{}, errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return school.School{}, errors.Wrap(err, "updating school")
	}
	if err = checkAffected(res, school.ErrNotFound); err != nil {
		return school.School{}, err
	}
	return s, nil
}

func (repo *schoolRepository) DeleteSchool(ctx context.Context, id int) (del school.Deletion, err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return school.Deletion{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// lock the school so no dependent row can be added meanwhile
	if del.School, err = repo.getSchool(ctx, id, true, tx); err != nil {
		return school.Deletion{}, err
	}
	del.FileURLs = append(del.FileURLs, del.School.ImageURL)

	q, args, err := psql.Select("image_url").From("principal").Where(sq.Eq{"school_id": id}).ToSql()
	if err != nil {
		return school.Deletion{}, errors.Wrap(err, "building query")
	}
	var photos []string
	if err = tx.SelectContext(ctx, &photos, q, args...); err != nil {
		return school.Deletion{}, errors.Wrap(err, "selecting principal photos")
	}
	del.FileURLs = append(del.FileURLs, photos...)

	deleteFrom := func(table string, where sq.Eq) (int64, error) {
		q, args, err := psql.Delete(table).Where(where).ToSql()
		if err != nil {
			return 0, errors.Wrap(err, "building query")
		}
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return 0, errors.Wrapf(err, "deleting from %s", table)
		}
		return res.RowsAffected()
	}
	if del.Meetings, err = deleteFrom("meeting_booking", sq.Eq{"school_id": id}); err != nil {
		return school.Deletion{}, err
	}
	if del.Feedback, err = deleteFrom("feedback", sq.Eq{"school_id": id}); err != nil {
		return school.Deletion{}, err
	}
	if del.Principals, err = deleteFrom("principal", sq.Eq{"school_id": id}); err != nil {
		return school.Deletion{}, err
	}
	if _, err = deleteFrom("school", sq.Eq{"id": id}); err != nil {
		return school.Deletion{}, err
	}

	if err = tx.Commit(); err != nil {
		return school.Deletion{}, errors.Wrap(err, "committing transaction")
	}
	return del, nil
}
