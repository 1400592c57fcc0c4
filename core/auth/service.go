package auth

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/account"
	"github.com/trezcool/eduquest/core/principal"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPendingApproval    = errors.New("account pending approval")
	ErrAccountInactive    = errors.New("account deactivated")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrUnknownKind        = errors.New("user_type must be one of: principal, user")
)

type (
	AdminFinder interface {
		GetAdminByUsername(ctx context.Context, username string) (account.Admin, error)
	}

	PrincipalFinder interface {
		GetPrincipalByEmail(ctx context.Context, email string) (principal.Principal, error)
	}

	UserFinder interface {
		GetUserByEmail(ctx context.Context, email string) (account.User, error)
	}

	Service struct {
		admins     AdminFinder
		principals PrincipalFinder
		users      UserFinder
	}
)

func NewService(admins AdminFinder, principals PrincipalFinder, users UserFinder) *Service {
	return &Service{admins: admins, principals: principals, users: users}
}

// LoginAdmin checks the admin's credentials.
// Unknown usernames & wrong passwords both fail with ErrInvalidCredentials.
func (svc *Service) LoginAdmin(ctx context.Context, username, pwd string) (AdminIdentity, error) {
	a, err := svc.admins.GetAdminByUsername(ctx, core.CleanString(username, true /* lower */))
	if err != nil {
		if core.IsNotFound(err) {
			return AdminIdentity{}, ErrInvalidCredentials
		}
		return AdminIdentity{}, errors.Wrap(err, "finding admin by username")
	}
	if err = a.CheckPassword(pwd); err != nil {
		return AdminIdentity{}, ErrInvalidCredentials
	}
	return AdminIdentity{ID: a.ID, Username: a.Username}, nil
}

// LoginPrincipal checks the principal's credentials.
// Inactive principals fail with ErrPendingApproval, only once their password is verified.
func (svc *Service) LoginPrincipal(ctx context.Context, email, pwd string) (PrincipalIdentity, error) {
	p, err := svc.principals.GetPrincipalByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if core.IsNotFound(err) {
			return PrincipalIdentity{}, ErrInvalidCredentials
		}
		return PrincipalIdentity{}, errors.Wrap(err, "finding principal by email")
	}
	if err = p.CheckPassword(pwd); err != nil {
		return PrincipalIdentity{}, ErrInvalidCredentials
	}
	if !p.IsActive {
		return PrincipalIdentity{}, ErrPendingApproval
	}
	return PrincipalIdentity{ID: p.ID, Name: p.Name, Email: p.Email, SchoolID: p.SchoolID}, nil
}

// LoginUser checks the visitor's credentials.
func (svc *Service) LoginUser(ctx context.Context, email, pwd string) (UserIdentity, error) {
	u, err := svc.users.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if core.IsNotFound(err) {
			return UserIdentity{}, ErrInvalidCredentials
		}
		return UserIdentity{}, errors.Wrap(err, "finding user by email")
	}
	if err = u.CheckPassword(pwd); err != nil {
		return UserIdentity{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return UserIdentity{}, ErrAccountInactive
	}
	return UserIdentity{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

// Login authenticates a principal or a user by email.
func (svc *Service) Login(ctx context.Context, kind Kind, email, pwd string) (Identity, error) {
	var (
		id  Identity
		err error
	)
	switch kind {
	case KindPrincipal:
		id, err = svc.LoginPrincipal(ctx, email, pwd)
	case KindUser:
		id, err = svc.LoginUser(ctx, email, pwd)
	default:
		return nil, ErrUnknownKind
	}
	if err != nil {
		return nil, err
	}
	return id, nil
}
