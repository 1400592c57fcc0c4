package meeting

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/principal"
	"github.com/trezcool/eduquest/core/school"
)

var (
	ErrNotFound = core.NewNotFoundError("meeting")

	errWrongPrincipal = errors.New("this principal does not belong to the selected school")
)

type (
	Repository interface {
		CreateMeeting(ctx context.Context, m Meeting) (Meeting, error)
		GetMeeting(ctx context.Context, id int) (Meeting, error)
		// FilterMeetings returns the matching meetings, newest first.
		FilterMeetings(ctx context.Context, filter QueryFilter) ([]Meeting, error)
		UpdateMeeting(ctx context.Context, m Meeting) (Meeting, error)
	}

	SchoolGetter interface {
		GetSchool(ctx context.Context, id int) (school.School, error)
	}

	PrincipalGetter interface {
		GetPrincipal(ctx context.Context, id int) (principal.Principal, error)
	}

	Service struct {
		repo       Repository
		schools    SchoolGetter
		principals PrincipalGetter
		mailSvc    core.EmailService
	}
)

func NewService(repo Repository, schools SchoolGetter, principals PrincipalGetter, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, schools: schools, principals: principals, mailSvc: mailSvc}
}

// Book creates a pending Meeting with the principal of the selected school and notifies them.
func (svc *Service) Book(ctx context.Context, nm NewMeeting) (Meeting, error) {
	if _, err := svc.schools.GetSchool(ctx, nm.SchoolID); err != nil {
		return Meeting{}, err
	}
	prin, err := svc.principals.GetPrincipal(ctx, nm.PrincipalID)
	if err != nil {
		return Meeting{}, err
	}
	if prin.SchoolID != nm.SchoolID {
		return Meeting{}, core.NewValidationError(errWrongPrincipal, core.FieldError{Field: "principal_id", Error: errWrongPrincipal.Error()})
	}

	m := Meeting{
		SchoolID:      nm.SchoolID,
		PrincipalID:   nm.PrincipalID,
		UserName:      nm.UserName,
		UserEmail:     nm.UserEmail,
		Purpose:       nm.Purpose,
		PreferredDate: nm.preferredDate,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	if nm.UserPhone != "" {
		m.UserPhone = null.StringFrom(nm.UserPhone)
	}
	if nm.SpecialRequirements != "" {
		m.SpecialRequirements = null.StringFrom(nm.SpecialRequirements)
	}
	if m, err = svc.repo.CreateMeeting(ctx, m); err != nil {
		return Meeting{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: prin.Name, Address: prin.Email}},
		Subject:      "New meeting request",
		TemplateName: "meeting_booked",
		TemplateData: struct {
			PrincipalName, UserName, UserEmail, PreferredDate, Purpose, SpecialRequirements string
		}{
			prin.Name, m.UserName, m.UserEmail, m.PreferredDate.Format("Mon, 02 Jan 2006 15:04 MST"),
			m.Purpose, m.SpecialRequirements.String,
		},
	})
	return m, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Meeting, error) {
	return svc.repo.GetMeeting(ctx, id)
}

func (svc *Service) QueryByPrincipal(ctx context.Context, principalID int) ([]Meeting, error) {
	return svc.repo.FilterMeetings(ctx, QueryFilter{PrincipalID: principalID})
}

// UpdateStatus changes the status of a Meeting on behalf of principalID.
// Only the principal the meeting is addressed to may change it, whatever the requested status.
func (svc *Service) UpdateStatus(ctx context.Context, id, principalID int, su StatusUpdate) (Meeting, error) {
	m, err := svc.repo.GetMeeting(ctx, id)
	if err != nil {
		return Meeting{}, err
	}
	if m.PrincipalID != principalID {
		return Meeting{}, core.ErrPermissionDenied
	}

	status, err := ParseStatus(su.Status)
	if err != nil {
		return Meeting{}, core.NewValidationError(err, core.FieldError{Field: "status", Error: err.Error()})
	}
	if !CanTransition(m.Status, status) {
		err = errors.Errorf("cannot move a %s meeting to %s", m.Status, status)
		return Meeting{}, core.NewValidationError(err, core.FieldError{Field: "status", Error: err.Error()})
	}

	m.Status = status
	return svc.repo.UpdateMeeting(ctx, m)
}
