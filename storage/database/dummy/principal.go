package dummydb

import (
	"bytes"
	"context"

	"github.com/trezcool/eduquest/core/principal"
)

type principalRepository struct {
	db *DB
}

var _ principal.Repository = (*principalRepository)(nil) // interface compliance check

func NewPrincipalRepository(db *DB) principal.Repository {
	return &principalRepository{db: db}
}

func (repo *principalRepository) CheckUniqueness(_ context.Context, email string, schoolID int, excludedID ...int) error {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.checkUniqueness(email, schoolID, excludedID...)
}

// checkUniqueness must be called with the lock held.
func (repo *principalRepository) checkUniqueness(email string, schoolID int, excludedID ...int) error {
	isExcluded := func(id int) bool {
		for _, exclID := range excludedID {
			if id == exclID {
				return true
			}
		}
		return false
	}
	var schoolTaken bool
	for _, p := range repo.db.principals {
		if isExcluded(p.ID) {
			continue
		}
		if p.Email == email {
			return principal.ErrEmailExists
		}
		if p.SchoolID == schoolID {
			schoolTaken = true
		}
	}
	if schoolTaken {
		return principal.ErrSchoolHasOne
	}
	return nil
}

// CreatePrincipal enforces the email & school unique constraints like the SQL schema does.
func (repo *principalRepository) CreatePrincipal(_ context.Context, p principal.Principal) (principal.Principal, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.checkUniqueness(p.Email, p.SchoolID); err != nil {
		return principal.Principal{}, err
	}
	p.ID = repo.db.nextPK("principal")
	repo.db.principals[p.ID] = &p
	return p, nil
}

func (repo *principalRepository) find(match func(p *principal.Principal) bool) (principal.Principal, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.db.principals {
		if match(p) {
			return *p, nil
		}
	}
	return principal.Principal{}, principal.ErrNotFound
}

func (repo *principalRepository) GetPrincipal(_ context.Context, id int) (principal.Principal, error) {
	return repo.find(func(p *principal.Principal) bool { return p.ID == id })
}

func (repo *principalRepository) GetPrincipalByEmail(_ context.Context, email string) (principal.Principal, error) {
	return repo.find(func(p *principal.Principal) bool { return p.Email == email })
}

func (repo *principalRepository) GetPrincipalBySchool(_ context.Context, schoolID int) (principal.Principal, error) {
	return repo.find(func(p *principal.Principal) bool { return p.SchoolID == schoolID })
}

// update applies set to the stored principal under the write lock.
func (repo *principalRepository) update(id int, set func(p *principal.Principal) error) (principal.Principal, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p, ok := repo.db.principals[id]
	if !ok {
		return principal.Principal{}, principal.ErrNotFound
	}
	if err := set(p); err != nil {
		return principal.Principal{}, err
	}
	return *p, nil
}

func (repo *principalRepository) UpdatePrincipalProfile(_ context.Context, p principal.Principal) (principal.Principal, error) {
	return repo.update(p.ID, func(stored *principal.Principal) error {
		stored.Name = p.Name
		stored.Phone = p.Phone
		stored.Bio = p.Bio
		stored.Qualifications = p.Qualifications
		stored.ImageURL = p.ImageURL
		stored.OfficeHours = p.OfficeHours
		return nil
	})
}

func (repo *principalRepository) SetPrincipalActive(_ context.Context, id int, active bool) (principal.Principal, error) {
	return repo.update(id, func(stored *principal.Principal) error {
		stored.IsActive = active
		return nil
	})
}

func (repo *principalRepository) ResetPrincipalPassword(_ context.Context, id int, oldHash, newHash []byte) (principal.Principal, error) {
	return repo.update(id, func(stored *principal.Principal) error {
		if !bytes.Equal(stored.PasswordHash, oldHash) {
			return principal.ErrNotFound
		}
		stored.PasswordHash = newHash
		stored.EmailVerified = true
		return nil
	})
}
