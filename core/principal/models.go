package principal

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/eduquest/core"
)

type Principal struct {
	ID             int       `json:"id" db:"id"`
	SchoolID       int       `json:"school_id" db:"school_id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	Phone          string    `json:"phone" db:"phone"`
	PasswordHash   []byte    `json:"-" db:"password_hash"`
	Bio            string    `json:"bio" db:"bio"`
	Qualifications string    `json:"qualifications" db:"qualifications"`
	ImageURL       string    `json:"image_url" db:"image_url"`
	OfficeHours    string    `json:"office_hours" db:"office_hours"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	EmailVerified  bool      `json:"email_verified" db:"email_verified"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"` // UTC
}

func (p *Principal) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.PasswordHash = hash
	return nil
}

func (p *Principal) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(p.PasswordHash, []byte(pwd))
}

// NewPrincipal contains information needed to register a new Principal.
type NewPrincipal struct {
	SchoolID        int    `json:"school_id" validate:"required,gt=0"`
	Name            string `json:"name" validate:"required,notblank,max=200"`
	Email           string `json:"email" validate:"required,email,max=120"`
	Phone           string `json:"phone" validate:"max=20"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Bio             string `json:"bio"`
	Qualifications  string `json:"qualifications"`
	OfficeHours     string `json:"office_hours" validate:"max=200"`
}

func (np *NewPrincipal) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	np.Name = core.CleanString(np.Name)
	np.Email = core.CleanString(np.Email, true /* lower */)
	np.Phone = core.CleanString(np.Phone)

	if err := validate.Struct(np); err != nil {
		return err
	}
	return svc.checkRegistration(ctx, np.SchoolID, np.Email)
}

// UpdateProfile defines what a Principal may change on their own profile.
// Absent (nil) fields keep their current value.
type UpdateProfile struct {
	Name           *string `json:"name" validate:"omitempty,max=200"`
	Phone          *string `json:"phone" validate:"omitempty,max=20"`
	Bio            *string `json:"bio"`
	Qualifications *string `json:"qualifications"`
	OfficeHours    *string `json:"office_hours" validate:"omitempty,max=200"`
	ImageURL       *string `json:"-"` // set from the uploaded photo only
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	up.Name = core.CleanStringPtr(up.Name)
	up.Phone = core.CleanStringPtr(up.Phone)
	if up.Name != nil && *up.Name == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "name", Error: "this field cannot be blank"})
	}
	return validate.Struct(up)
}

func (up UpdateProfile) apply(p Principal) Principal {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Name, up.Name)
	set(&p.Phone, up.Phone)
	set(&p.Bio, up.Bio)
	set(&p.Qualifications, up.Qualifications)
	set(&p.OfficeHours, up.OfficeHours)
	set(&p.ImageURL, up.ImageURL)
	return p
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}

// ResetPassword contains the password reset link parts & the new password.
type ResetPassword struct {
	UID             string `json:"uid" validate:"required"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (rp *ResetPassword) Validate(validate *validator.Validate) error {
	rp.UID = core.CleanString(rp.UID)
	rp.Token = core.CleanString(rp.Token)
	return validate.Struct(rp)
}

// InitValidators registers the Principal struct validations.
func InitValidators(validate *validator.Validate, _ ut.Translator) {
	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		np := sl.Current().Interface().(NewPrincipal)
		core.ValidatePassword(sl, np.Password, np.Name, np.Email)
	}, NewPrincipal{})
	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		rp := sl.Current().Interface().(ResetPassword)
		core.ValidatePassword(sl, rp.Password)
	}, ResetPassword{})
}
