package feedback

import (
	"context"
	"net/mail"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/school"
)

var ErrNotFound = core.NewNotFoundError("feedback")

type (
	Repository interface {
		CreateFeedback(ctx context.Context, f Feedback) (Feedback, error)
		GetFeedback(ctx context.Context, id int) (Feedback, error)
		// FilterFeedback returns the matching feedback, newest first.
		FilterFeedback(ctx context.Context, filter QueryFilter) ([]Feedback, error)
		// SetAdminReply & SetPrincipalReply only write their own reply channel
		// and return the stored feedback.
		SetAdminReply(ctx context.Context, id int, reply string, at time.Time) (Feedback, error)
		SetPrincipalReply(ctx context.Context, id int, reply string, at time.Time) (Feedback, error)
		DeleteFeedback(ctx context.Context, id int) error
	}

	SchoolGetter interface {
		GetSchool(ctx context.Context, id int) (school.School, error)
	}

	Service struct {
		repo    Repository
		schools SchoolGetter
		mailSvc core.EmailService
		appName string
	}
)

func NewService(repo Repository, schools SchoolGetter, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, schools: schools, mailSvc: mailSvc, appName: conf.AppName}
}

func (svc *Service) Create(ctx context.Context, nf NewFeedback) (Feedback, error) {
	if _, err := svc.schools.GetSchool(ctx, nf.SchoolID); err != nil {
		return Feedback{}, err
	}
	f := Feedback{
		SchoolID:  nf.SchoolID,
		Name:      nf.Name,
		Message:   nf.Message,
		CreatedAt: time.Now().UTC(),
	}
	if nf.Email != "" {
		f.Email = null.StringFrom(nf.Email)
	}
	return svc.repo.CreateFeedback(ctx, f)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Feedback, error) {
	return svc.repo.GetFeedback(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Feedback, error) {
	return svc.repo.FilterFeedback(ctx, QueryFilter{})
}

// QueryBySchool lists the feedback left about an existing school.
func (svc *Service) QueryBySchool(ctx context.Context, schoolID int) ([]Feedback, error) {
	if _, err := svc.schools.GetSchool(ctx, schoolID); err != nil {
		return nil, err
	}
	return svc.repo.FilterFeedback(ctx, QueryFilter{SchoolID: schoolID})
}

func (svc *Service) ReplyAsAdmin(ctx context.Context, id int, r Reply) (Feedback, error) {
	f, err := svc.repo.SetAdminReply(ctx, id, r.Reply, time.Now().UTC())
	if err != nil {
		return Feedback{}, err
	}
	svc.notify(ctx, f, "The "+svc.appName+" team", r.Reply)
	return f, nil
}

// ReplyAsPrincipal stores the reply of the principal of schoolID.
// Principals may only reply to feedback about their own school.
func (svc *Service) ReplyAsPrincipal(ctx context.Context, id, schoolID int, r Reply) (Feedback, error) {
	f, err := svc.repo.GetFeedback(ctx, id)
	if err != nil {
		return Feedback{}, err
	}
	if f.SchoolID != schoolID {
		return Feedback{}, core.ErrPermissionDenied
	}
	if f, err = svc.repo.SetPrincipalReply(ctx, id, r.Reply, time.Now().UTC()); err != nil {
		return Feedback{}, err
	}
	svc.notify(ctx, f, "The school principal", r.Reply)
	return f, nil
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteFeedback(ctx, id)
}

func (svc *Service) notify(ctx context.Context, f Feedback, from, reply string) {
	if !f.Email.Valid {
		return
	}
	var schoolName string
	if s, err := svc.schools.GetSchool(ctx, f.SchoolID); err == nil {
		schoolName = s.Name
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: f.Name, Address: f.Email.String}},
		Subject:      "Reply to your feedback",
		TemplateName: "feedback_reply",
		TemplateData: struct {
			Name, From, SchoolName, Reply string
		}{f.Name, from, schoolName, reply},
	})
}
