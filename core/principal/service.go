package principal

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/school"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("principal")
	ErrEmailExists  = errors.New("a principal with this email already exists")
	ErrSchoolHasOne = errors.New("this school already has a principal")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrEmailExists or ErrSchoolHasOne if another principal
		// (excluding excludedID) uses email or schoolID.
		CheckUniqueness(ctx context.Context, email string, schoolID int, excludedID ...int) error
		CreatePrincipal(ctx context.Context, p Principal) (Principal, error)
		GetPrincipal(ctx context.Context, id int) (Principal, error)
		GetPrincipalByEmail(ctx context.Context, email string) (Principal, error)
		GetPrincipalBySchool(ctx context.Context, schoolID int) (Principal, error)
		// UpdatePrincipalProfile writes the profile fields of p only: name, phone, bio,
		// qualifications, office hours & image.
		UpdatePrincipalProfile(ctx context.Context, p Principal) (Principal, error)
		SetPrincipalActive(ctx context.Context, id int, active bool) (Principal, error)
		// ResetPrincipalPassword replaces the password hash, provided it still is oldHash
		// (ErrNotFound otherwise), and marks the email verified.
		ResetPrincipalPassword(ctx context.Context, id int, oldHash, newHash []byte) (Principal, error)
	}

	SchoolGetter interface {
		GetSchool(ctx context.Context, id int) (school.School, error)
	}

	Service struct {
		repo         Repository
		schools      SchoolGetter
		files        core.FileStore
		mailSvc      core.EmailService
		logger       core.Logger
		tokens       tokenGenerator
		autoActivate bool
	}
)

func NewService(
	repo Repository,
	schools SchoolGetter,
	files core.FileStore,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		repo:         repo,
		schools:      schools,
		files:        files,
		mailSvc:      mailSvc,
		logger:       logger,
		tokens:       tokenGenerator{secretKey: conf.SecretKey, timeout: conf.PasswordResetTimeoutDelta, now: time.Now},
		autoActivate: conf.PrincipalAutoActivate,
	}
}

func (svc *Service) checkRegistration(ctx context.Context, schoolID int, email string) error {
	if _, err := svc.schools.GetSchool(ctx, schoolID); err != nil {
		return err
	}
	if err := svc.repo.CheckUniqueness(ctx, email, schoolID); err != nil {
		var field string
		switch err {
		case ErrEmailExists:
			field = "email"
		case ErrSchoolHasOne:
			field = "school_id"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Register(ctx context.Context, np NewPrincipal) (Principal, error) {
	p := Principal{
		SchoolID:       np.SchoolID,
		Name:           np.Name,
		Email:          np.Email,
		Phone:          np.Phone,
		Bio:            np.Bio,
		Qualifications: np.Qualifications,
		OfficeHours:    np.OfficeHours,
		IsActive:       svc.autoActivate,
		CreatedAt:      time.Now().UTC(),
	}
	if err := p.SetPassword(np.Password); err != nil {
		return Principal{}, errors.Wrap(err, "setting password")
	}
	// a concurrent registration may have taken the email or school since Validate
	p, err := svc.repo.CreatePrincipal(ctx, p)
	switch err {
	case ErrEmailExists:
		return Principal{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
	case ErrSchoolHasOne:
		return Principal{}, core.NewValidationError(err, core.FieldError{Field: "school_id", Error: err.Error()})
	}
	return p, err
}

func (svc *Service) GetByID(ctx context.Context, id int) (Principal, error) {
	return svc.repo.GetPrincipal(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Principal, error) {
	return svc.repo.GetPrincipalByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) GetBySchool(ctx context.Context, schoolID int) (Principal, error) {
	if _, err := svc.schools.GetSchool(ctx, schoolID); err != nil {
		return Principal{}, err
	}
	return svc.repo.GetPrincipalBySchool(ctx, schoolID)
}

// UpdateProfile applies up and removes the replaced photo once the update is stored.
func (svc *Service) UpdateProfile(ctx context.Context, id int, up UpdateProfile) (Principal, error) {
	p, err := svc.repo.GetPrincipal(ctx, id)
	if err != nil {
		return Principal{}, err
	}
	oldImage := p.ImageURL

	p, err = svc.repo.UpdatePrincipalProfile(ctx, up.apply(p))
	if err != nil {
		return Principal{}, err
	}
	if oldImage != "" && p.ImageURL != oldImage {
		if err := svc.files.Delete(oldImage); err != nil {
			svc.logger.Error(fmt.Sprintf("deleting file %q: %v", oldImage, err), errors.Wrap(err, "deleting file"))
		}
	}
	return p, nil
}

func (svc *Service) SetActive(ctx context.Context, id int, active bool) (Principal, error) {
	return svc.repo.SetPrincipalActive(ctx, id, active)
}

// SetActiveByEmail is SetActive for callers that only know the principal's email.
func (svc *Service) SetActiveByEmail(ctx context.Context, email string, active bool) (Principal, error) {
	p, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return Principal{}, err
	}
	return svc.SetActive(ctx, p.ID, active)
}

// RequestPasswordReset emails a password reset link to the principal owning email.
// Unknown emails are silently ignored.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	p, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return err
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: p.Name, Address: p.Email}},
		Subject:      "Password reset",
		TemplateName: "password_reset",
		TemplateData: struct {
			Name, UID, Token string
		}{p.Name, EncodeUID(p), svc.tokens.makeToken(p)},
	})
	return nil
}

// ResetPassword sets the password of the principal the reset link was issued for.
// Following the link proves the principal owns the mailbox, so their email becomes verified.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) (Principal, error) {
	invalidLink := func(err error) error {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}

	id, err := decodeUID(rp.UID)
	if err != nil {
		return Principal{}, invalidLink(errInvalidToken)
	}
	p, err := svc.repo.GetPrincipal(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return Principal{}, invalidLink(errInvalidToken)
		}
		return Principal{}, err
	}
	if err = svc.tokens.verifyToken(p, rp.Token); err != nil {
		return Principal{}, invalidLink(err)
	}

	oldHash := p.PasswordHash
	if err = p.SetPassword(rp.Password); err != nil {
		return Principal{}, errors.Wrap(err, "setting password")
	}
	// the link dies with the password it was issued for, even under concurrent use
	p, err = svc.repo.ResetPrincipalPassword(ctx, p.ID, oldHash, p.PasswordHash)
	if core.IsNotFound(err) {
		return Principal{}, invalidLink(errInvalidToken)
	}
	return p, err
}
