package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core/feedback"
)

var feedbackColumns = []string{
	"id", "school_id", "name", "email", "message", "created_at",
	"admin_reply", "reply_date", "principal_reply", "principal_reply_date",
}

type feedbackRepository struct {
	db *sqlx.DB
}

var _ feedback.Repository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *sqlx.DB) feedback.Repository {
	return &feedbackRepository{db: db}
}

func (repo *feedbackRepository) CreateFeedback(ctx context.Context, f feedback.Feedback) (feedback.Feedback, error) {
	q, args, err := psql.Insert("feedback").
		Columns(feedbackColumns[1:]...).
		Values(f.SchoolID, f.Name, f.Email, f.Message, f.CreatedAt,
			f.AdminReply, f.ReplyDate, f.PrincipalReply, f.PrincipalReplyDate).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return feedback.Feedback{}, errors.Wrap(err, "building query")
	}
	if err = repo.db.GetContext(ctx, &f.ID, q, args...); err != nil {
		return feedback.Feedback{}, errors.Wrap(err, "inserting feedback")
	}
	return f, nil
}

func (repo *feedbackRepository) GetFeedback(ctx context.Context, id int) (feedback.Feedback, error) {
	q, args, err := psql.Select(feedbackColumns...).From("feedback").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return feedback.Feedback{}, errors.Wrap(err, "building query")
	}
	var f feedback.Feedback
	if err = repo.db.GetContext(ctx, &f, q, args...); err != nil {
		return feedback.Feedback{}, trapNoRowsErr(err, feedback.ErrNotFound)
	}
	return f, nil
}

func (repo *feedbackRepository) FilterFeedback(ctx context.Context, filter feedback.QueryFilter) ([]feedback.Feedback, error) {
	b := psql.Select(feedbackColumns...).From("feedback")
	if filter.SchoolID != 0 {
		b = b.Where(sq.Eq{"school_id": filter.SchoolID})
	}
	q, args, err := b.OrderBy("created_at DESC", "id DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	fbs := make([]feedback.Feedback, 0)
	if err = repo.db.SelectContext(ctx, &fbs, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting feedback")
	}
	return fbs, nil
}

// setReply writes the given reply columns only, so that both reply channels stay independent.
func (repo *feedbackRepository) setReply(ctx context.Context, id int, cols map[string]interface{}) (feedback.Feedback, error) {
	q, args, err := psql.Update("feedback").
		SetMap(cols).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(feedbackColumns, ", ")).
		ToSql()
	if err != nil {
		return feedback.Feedback{}, errors.Wrap(err, "building query")
	}
	var f feedback.Feedback
	if err = repo.db.GetContext(ctx, &f, q, args...); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return feedback.Feedback{}, feedback.ErrNotFound
		}
		return feedback.Feedback{}, errors.Wrap(err, "updating feedback reply")
	}
	return f, nil
}

func (repo *feedbackRepository) SetAdminReply(ctx context.Context, id int, reply string, at time.Time) (feedback.Feedback, error) {
	return repo.setReply(ctx, id, map[string]interface{}{"admin_reply": reply, "reply_date": at})
}

func (repo *feedbackRepository) SetPrincipalReply(ctx context.Context, id int, reply string, at time.Time) (feedback.Feedback, error) {
	return repo.setReply(ctx, id, map[string]interface{}{"principal_reply": reply, "principal_reply_date": at})
}

func (repo *feedbackRepository) DeleteFeedback(ctx context.Context, id int) error {
	q, args, err := psql.Delete("feedback").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, "deleting feedback")
	}
	return checkAffected(res, feedback.ErrNotFound)
}
