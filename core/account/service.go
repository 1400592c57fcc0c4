package account

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core"
)

var (
	// errors
	ErrAdminNotFound = core.NewNotFoundError("admin")
	ErrUserNotFound  = core.NewNotFoundError("user")
	ErrEmailExists   = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CreateAdmin(ctx context.Context, a Admin) (Admin, error)
		GetAdminByUsername(ctx context.Context, username string) (Admin, error)
		UpdateAdmin(ctx context.Context, a Admin) (Admin, error)

		CheckUserEmailUniqueness(ctx context.Context, email string) error
		CreateUser(ctx context.Context, u User) (User, error)
		GetUser(ctx context.Context, id int) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SeedAdmin creates the admin account if no admin is named username. It never resets an existing password.
func (svc *Service) SeedAdmin(ctx context.Context, username, pwd string) (Admin, bool, error) {
	username = core.CleanString(username, true /* lower */)
	a, err := svc.repo.GetAdminByUsername(ctx, username)
	if err == nil {
		return a, false, nil
	}
	if errors.Cause(err) != ErrAdminNotFound {
		return Admin{}, false, err
	}

	a = Admin{Username: username}
	if err = a.SetPassword(pwd); err != nil {
		return Admin{}, false, errors.Wrap(err, "setting password")
	}
	a, err = svc.repo.CreateAdmin(ctx, a)
	return a, err == nil, err
}

// SetAdminPassword resets the admin's password, creating the admin first if create is set.
func (svc *Service) SetAdminPassword(ctx context.Context, username, pwd string, create bool) (Admin, error) {
	username = core.CleanString(username, true /* lower */)
	a, err := svc.repo.GetAdminByUsername(ctx, username)
	if err != nil {
		if !(create && errors.Cause(err) == ErrAdminNotFound) {
			return Admin{}, err
		}
		a = Admin{Username: username}
	}
	if err = a.SetPassword(pwd); err != nil {
		return Admin{}, errors.Wrap(err, "setting password")
	}
	if a.ID == 0 {
		return svc.repo.CreateAdmin(ctx, a)
	}
	return svc.repo.UpdateAdmin(ctx, a)
}

func (svc *Service) GetAdminByUsername(ctx context.Context, username string) (Admin, error) {
	return svc.repo.GetAdminByUsername(ctx, core.CleanString(username, true /* lower */))
}

func (svc *Service) checkUserUniqueness(ctx context.Context, email string) error {
	if err := svc.repo.CheckUserEmailUniqueness(ctx, email); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) RegisterUser(ctx context.Context, nu NewUser) (User, error) {
	u := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Phone:     nu.Phone,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := u.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	u, err := svc.repo.CreateUser(ctx, u)
	if err == ErrEmailExists {
		return User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
	}
	return u, err
}

func (svc *Service) GetUser(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, id)
}

func (svc *Service) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}
