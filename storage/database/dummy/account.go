package dummydb

import (
	"context"

	"github.com/trezcool/eduquest/core/account"
)

type accountRepository struct {
	db *DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) account.Repository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) CreateAdmin(_ context.Context, a account.Admin) (account.Admin, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = repo.db.nextPK("admin")
	repo.db.admins[a.ID] = &a
	return a, nil
}

func (repo *accountRepository) GetAdminByUsername(_ context.Context, username string) (account.Admin, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, a := range repo.db.admins {
		if a.Username == username {
			return *a, nil
		}
	}
	return account.Admin{}, account.ErrAdminNotFound
}

func (repo *accountRepository) UpdateAdmin(_ context.Context, a account.Admin) (account.Admin, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.admins[a.ID]; !ok {
		return account.Admin{}, account.ErrAdminNotFound
	}
	repo.db.admins[a.ID] = &a
	return a, nil
}

func (repo *accountRepository) CheckUserEmailUniqueness(_ context.Context, email string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, u := range repo.db.users {
		if u.Email == email {
			return account.ErrEmailExists
		}
	}
	return nil
}

func (repo *accountRepository) CreateUser(_ context.Context, u account.User) (account.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	u.ID = repo.db.nextPK("user")
	repo.db.users[u.ID] = &u
	return u, nil
}

func (repo *accountRepository) GetUser(_ context.Context, id int) (account.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if u, ok := repo.db.users[id]; ok {
		return *u, nil
	}
	return account.User{}, account.ErrUserNotFound
}

func (repo *accountRepository) GetUserByEmail(_ context.Context, email string) (account.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, u := range repo.db.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return account.User{}, account.ErrUserNotFound
}
