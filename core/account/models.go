package account

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/eduquest/core"
)

func hashPassword(pwd string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
}

type Admin struct {
	ID           int    `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash []byte `json:"-" db:"password_hash"`
}

func (a *Admin) SetPassword(pwd string) (err error) {
	a.PasswordHash, err = hashPassword(pwd)
	return
}

func (a *Admin) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

// User is a visitor account.
type User struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	Phone        string    `json:"phone" db:"phone"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	IsActive     bool      `json:"is_active" db:"is_active"`
}

func (u *User) SetPassword(pwd string) (err error) {
	u.PasswordHash, err = hashPassword(pwd)
	return
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required,notblank,max=200"`
	Email           string `json:"email" validate:"required,email,max=120"`
	Phone           string `json:"phone" validate:"max=20"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUserUniqueness(ctx, nu.Email)
}

// InitValidators registers the account struct validations.
func InitValidators(validate *validator.Validate, _ ut.Translator) {
	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		nu := sl.Current().Interface().(NewUser)
		core.ValidatePassword(sl, nu.Password, nu.Name, nu.Email)
	}, NewUser{})
}
