package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core/account"
)

var (
	adminColumns = []string{"id", "username", "password_hash"}
	userColumns  = []string{"id", "name", "email", "password_hash", "phone", "created_at", "is_active"}
)

const userTable = `"user"`

type accountRepository struct {
	db *sqlx.DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *sqlx.DB) account.Repository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) CreateAdmin(ctx context.Context, a account.Admin) (account.Admin, error) {
	q, args, err := psql.Insert("admin").
		Columns(adminColumns[1:]...).
		Values(a.Username, a.PasswordHash).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return account.Admin{}, errors.Wrap(err, "building query")
	}
	if err = repo.db.GetContext(ctx, &a.ID, q, args...); err != nil {
		return account.Admin{}, errors.Wrap(err, "inserting admin")
	}
	return a, nil
}

func (repo *accountRepository) GetAdminByUsername(ctx context.Context, username string) (account.Admin, error) {
	q, args, err := psql.Select(adminColumns...).From("admin").Where(sq.Eq{"username": username}).ToSql()
	if err != nil {
		return account.Admin{}, errors.Wrap(err, "building query")
	}
	var a account.Admin
	if err = repo.db.GetContext(ctx, &a, q, args...); err != nil {
		return account.Admin{}, trapNoRowsErr(err, account.ErrAdminNotFound)
	}
	return a, nil
}

func (repo *accountRepository) UpdateAdmin(ctx context.Context, a account.Admin) (account.Admin, error) {
	q, args, err := psql.Update("admin").
		Set("username", a.Username).
		Set("password_hash", a.PasswordHash).
		Where(sq.Eq{"id": a.ID}).
		ToSql()
	if err != nil {
		return account.Admin{}, errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		return account.Admin{}, errors.Wrap(err, "updating admin")
	}
	if err = checkAffected(res, account.ErrAdminNotFound); err != nil {
		return account.Admin{}, err
	}
	return a, nil
}

func (repo *accountRepository) CheckUserEmailUniqueness(ctx context.Context, email string) error {
	q, args, err := psql.Select("COUNT(*)").From(userTable).Where(sq.Eq{"email": email}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var count int
	if err = repo.db.GetContext(ctx, &count, q, args...); err != nil {
		return errors.Wrap(err, "checking user email uniqueness")
	}
	if count > 0 {
		return account.ErrEmailExists
	}
	return nil
}

func (repo *accountRepository) CreateUser(ctx context.Context, u account.User) (account.User, error) {
	q, args, err := psql.Insert(userTable).
		Columns(userColumns[1:]...).
		Values(u.Name, u.Email, u.PasswordHash, u.Phone, u.CreatedAt, u.IsActive).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return account.User{}, errors.Wrap(err, "building query")
	}
	if err = repo.db.GetContext(ctx, &u.ID, q, args...); err != nil {
		if _, ok := uniqueViolation(err); ok {
			return account.User{}, account.ErrEmailExists
		}
		return account.User{}, errors.Wrap(err, "inserting user")
	}
	return u, nil
}

func (repo *accountRepository) getUser(ctx context.Context, where sq.Eq) (account.User, error) {
	q, args, err := psql.Select(userColumns...).From(userTable).Where(where).ToSql()
	if err != nil {
		return account.User{}, errors.Wrap(err, "building query")
	}
	var u account.User
	if err = repo.db.GetContext(ctx, &u, q, args...); err != nil {
		return account.User{}, trapNoRowsErr(err, account.ErrUserNotFound)
	}
	return u, nil
}

func (repo *accountRepository) GetUser(ctx context.Context, id int) (account.User, error) {
	return repo.getUser(ctx, sq.Eq{"id": id})
}

func (repo *accountRepository) GetUserByEmail(ctx context.Context, email string) (account.User, error) {
	return repo.getUser(ctx, sq.Eq{"email": email})
}
