package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/eduquest/core/meeting"
)

type meetingRepository struct {
	db *DB
}

var _ meeting.Repository = (*meetingRepository)(nil) // interface compliance check

func NewMeetingRepository(db *DB) meeting.Repository {
	return &meetingRepository{db: db}
}

func (repo *meetingRepository) CreateMeeting(_ context.Context, m meeting.Meeting) (meeting.Meeting, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	m.ID = repo.db.nextPK("meeting_booking")
	repo.db.meetings[m.ID] = &m
	return m, nil
}

func (repo *meetingRepository) GetMeeting(_ context.Context, id int) (meeting.Meeting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m, ok := repo.db.meetings[id]; ok {
		return *m, nil
	}
	return meeting.Meeting{}, meeting.ErrNotFound
}

func (repo *meetingRepository) FilterMeetings(_ context.Context, filter meeting.QueryFilter) ([]meeting.Meeting, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	meetings := make([]meeting.Meeting, 0)
	for _, m := range repo.db.meetings {
		if (filter.SchoolID == 0 || m.SchoolID == filter.SchoolID) &&
			(filter.PrincipalID == 0 || m.PrincipalID == filter.PrincipalID) {
			meetings = append(meetings, *m)
		}
	}
	sort.Slice(meetings, func(i, j int) bool {
		if meetings[i].CreatedAt.Equal(meetings[j].CreatedAt) {
			return meetings[i].ID > meetings[j].ID
		}
		return meetings[i].CreatedAt.After(meetings[j].CreatedAt)
	})
	return meetings, nil
}

func (repo *meetingRepository) UpdateMeeting(_ context.Context, m meeting.Meeting) (meeting.Meeting, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.meetings[m.ID]; !ok {
		return meeting.Meeting{}, meeting.ErrNotFound
	}
	repo.db.meetings[m.ID] = &m
	return m, nil
}
