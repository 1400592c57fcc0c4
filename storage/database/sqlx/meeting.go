package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core/meeting"
)

var meetingColumns = []string{
	"id", "school_id", "principal_id", "user_name", "user_email", "user_phone",
	"purpose", "preferred_date", "status", "special_requirements", "created_at",
}

type meetingRepository struct {
	db *sqlx.DB
}

var _ meeting.Repository = (*meetingRepository)(nil) // interface compliance check

func NewMeetingRepository(db *sqlx.DB) meeting.Repository {
	return &meetingRepository{db: db}
}

func (repo *meetingRepository) CreateMeeting(ctx context.Context, m meeting.Meeting) (meeting.Meeting, error) {
	q, args, err := psql.Insert("meeting_booking").
		Columns(meetingColumns[1:]...).
		Values(m.SchoolID, m.PrincipalID, m.UserName, m.UserEmail, m.UserPhone,
			m.Purpose, m.PreferredDate, m.Status, m.SpecialRequirements, m.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return meeting.Meeting{}, errors.Wrap(err, "building query")
	}
	if err = repo.db.GetContext(ctx, &m.ID, q, args...); err != nil {
		return meeting.Meeting{}, errors.Wrap(err, "inserting meeting")
	}
	return m, nil
}

func (repo *meetingRepository) GetMeeting(ctx context.Context, id int) (meeting.Meeting, error) {
	q, args, err := psql.Select(meetingColumns...).From("meeting_booking").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return meeting.Meeting{}, errors.Wrap(err, "building query")
	}
	var m meeting.Meeting
	if err = repo.db.GetContext(ctx, &m, q, args...); err != nil {
		return meeting.Meeting{}, trapNoRowsErr(err, meeting.ErrNotFound)
	}
	return m, nil
}

func (repo *meetingRepository) FilterMeetings(ctx context.Context, filter meeting.QueryFilter) ([]meeting.Meeting, error) {
	b := psql.Select(meetingColumns...).From("meeting_booking")
	if filter.SchoolID != 0 {
		b = b.Where(sq.Eq{"school_id": filter.SchoolID})
	}
	if filter.PrincipalID != 0 {
		b = b.Where(sq.Eq{"principal_id": filter.PrincipalID})
	}
	q, args, err := b.OrderBy("created_at DESC", "id DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	meetings := make([]meeting.Meeting, 0)
	if err = repo.db.SelectContext(ctx, &meetings, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting meetings")
	}
	return meetings, nil
}

func (repo *meetingRepository) UpdateMeeting(ctx context.Context, m meeting.Meeting) (meeting.Meeting, error) {
	q, args, err := psql.Update("meeting_booking").
		SetMap(map[string]interface{}{
			"user_name":            m.UserName,
			"user_email":           m.UserEmail,
			"user_phone":           m.UserPhone,
			"purpose":              m.Purpose,
			"preferred_date":       m.PreferredDate,
			"status":               m.Status,
			"special_requirements": m.SpecialRequirements,
		}).
		Where(sq.Eq{"id": m.ID}).
		ToSql()
	if err != nil {
		return meeting.Meeting{}, errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return meeting.Meeting{}, errors.Wrap(err, "updating meeting")
	}
	if err = checkAffected(res, meeting.ErrNotFound); err != nil {
		return meeting.Meeting{}, err
	}
	return m, nil
}
