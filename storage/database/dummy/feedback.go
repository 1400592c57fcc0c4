package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/eduquest/core/feedback"
)

type feedbackRepository struct {
	db *DB
}

var _ feedback.Repository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *DB) feedback.Repository {
	return &feedbackRepository{db: db}
}

func (repo *feedbackRepository) CreateFeedback(_ context.Context, f feedback.Feedback) (feedback.Feedback, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	f.ID = repo.db.nextPK("feedback")
	repo.db.feedback[f.ID] = &f
	return f, nil
}

func (repo *feedbackRepository) GetFeedback(_ context.Context, id int) (feedback.Feedback, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if f, ok := repo.db.feedback[id]; ok {
		return *f, nil
	}
	return feedback.Feedback{}, feedback.ErrNotFound
}

func (repo *feedbackRepository) FilterFeedback(_ context.Context, filter feedback.QueryFilter) ([]feedback.Feedback, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	fbs := make([]feedback.Feedback, 0)
	for _, f := range repo.db.feedback {
		if filter.SchoolID == 0 || f.SchoolID == filter.SchoolID {
			fbs = append(fbs, *f)
		}
	}
	sort.Slice(fbs, func(i, j int) bool {
		if fbs[i].CreatedAt.Equal(fbs[j].CreatedAt) {
			return fbs[i].ID > fbs[j].ID
		}
		return fbs[i].CreatedAt.After(fbs[j].CreatedAt)
	})
	return fbs, nil
}

// setReply applies set to the stored feedback under the write lock.
func (repo *feedbackRepository) setReply(id int, set func(f *feedback.Feedback)) (feedback.Feedback, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	f, ok := repo.db.feedback[id]
	if !ok {
		return feedback.Feedback{}, feedback.ErrNotFound
	}
	set(f)
	return *f, nil
}

func (repo *feedbackRepository) SetAdminReply(_ context.Context, id int, reply string, at time.Time) (feedback.Feedback, error) {
	return repo.setReply(id, func(f *feedback.Feedback) {
		f.AdminReply = null.StringFrom(reply)
		f.ReplyDate = null.TimeFrom(at)
	})
}

func (repo *feedbackRepository) SetPrincipalReply(_ context.Context, id int, reply string, at time.Time) (feedback.Feedback, error) {
	return repo.setReply(id, func(f *feedback.Feedback) {
		f.PrincipalReply = null.StringFrom(reply)
		f.PrincipalReplyDate = null.TimeFrom(at)
	})
}

func (repo *feedbackRepository) DeleteFeedback(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.feedback[id]; !ok {
		return feedback.ErrNotFound
	}
	delete(repo.db.feedback, id)
	return nil
}
