package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core/principal"
)

var principalColumns = []string{
	"id", "school_id", "name", "email", "phone", "password_hash", "bio", "qualifications",
	"image_url", "office_hours", "is_active", "email_verified", "created_at",
}

type principalRepository struct {
	db *sqlx.DB
}

var _ principal.Repository = (*principalRepository)(nil) // interface compliance check

func NewPrincipalRepository(db *sqlx.DB) principal.Repository {
	return &principalRepository{db: db}
}

// trapUniqueErr maps the principal unique constraints to their errors.
func trapUniqueErr(err error) error {
	if constraint, ok := uniqueViolation(err); ok {
		switch constraint {
		case "principal_email_key":
			return principal.ErrEmailExists
		case "principal_school_id_key":
			return principal.ErrSchoolHasOne
		}
	}
	return err
}

func (repo *principalRepository) CheckUniqueness(ctx context.Context, email string, schoolID int, excludedID ...int) error {
	b := psql.Select("email", "school_id").From("principal").
		Where(sq.Or{sq.Eq{"email": email}, sq.Eq{"school_id": schoolID}})
	if len(excludedID) > 0 {
		b = b.Where(sq.NotEq{"id": excludedID})
	}
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}

	var found []struct {
		Email    string `db:"email"`
		SchoolID int    `db:"school_id"`
	}
	if err = repo.db.SelectContext(ctx, &found, q, args...); err != nil {
		return errors.Wrap(err, "checking principal uniqueness")
	}
	for _, p := range found {
		if p.Email == email {
			return principal.ErrEmailExists
		}
	}
	if len(found) > 0 {
		return principal.ErrSchoolHasOne
	}
	return nil
}

func (repo *principalRepository) CreatePrincipal(ctx context.Context, p principal.Principal) (principal.Principal, error) {
	q, args, err := psql.Insert("principal").
		Columns(principalColumns[1:]...).
		Values(p.SchoolID, p.Name, p.Email, p.Phone, p.PasswordHash, p.Bio, p.Qualifications,
			p.ImageURL, p.OfficeHours, p.IsActive, p.EmailVerified, p.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return principal.Principal{}, errors.Wrap(err, "building query")
	}
	if err = repo.db.GetContext(ctx, &p.ID, q, args...); err != nil {
		if uErr := trapUniqueErr(err); uErr != err {
			return principal.Principal{}, uErr
		}
		return principal.Principal{}, errors.Wrap(err, "inserting principal")
	}
	return p, nil
}

func (repo *principalRepository) getPrincipal(ctx context.Context, where sq.Eq) (principal.Principal, error) {
	q, args, err := psql.Select(principalColumns...).From("principal").Where(where).ToSql()
	if err != nil {
		return principal.Principal{}, errors.Wrap(err, "building query")
	}
	var p principal.Principal
	if err = repo.db.GetContext(ctx, &p, q, args...); err != nil {
		return principal.Principal{}, trapNoRowsErr(err, principal.ErrNotFound)
	}
	return p, nil
}

func (repo *principalRepository) GetPrincipal(ctx context.Context, id int) (principal.Principal, error) {
	return repo.getPrincipal(ctx, sq.Eq{"id": id})
}

func (repo *principalRepository) GetPrincipalByEmail(ctx context.Context, email string) (principal.Principal, error) {
	return repo.getPrincipal(ctx, sq.Eq{"email": email})
}

func (repo *principalRepository) GetPrincipalBySchool(ctx context.Context, schoolID int) (principal.Principal, error) {
	return repo.getPrincipal(ctx, sq.Eq{"school_id": schoolID})
}

// updateReturning runs b and loads the updated principal.
func (repo *principalRepository) updateReturning(ctx context.Context, b sq.UpdateBuilder) (principal.Principal, error) {
	q, args, err := b.Suffix("RETURNING " + strings.Join(principalColumns, ", ")).ToSql()
	if err != nil {
		return principal.Principal{}, errors.Wrap(err, "building query")
	}
	var p principal.Principal
	if err = repo.db.GetContext(ctx, &p, q, args...); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return principal.Principal{}, principal.ErrNotFound
		}
		return principal.Principal{}, errors.Wrap(err, "updating principal")
	}
	return p, nil
}

func (repo *principalRepository) UpdatePrincipalProfile(ctx context.Context, p principal.Principal) (principal.Principal, error) {
	return repo.updateReturning(ctx, psql.Update("principal").
		SetMap(map[string]interface{}{
			"name":           p.Name,
			"phone":          p.Phone,
			"bio":            p.Bio,
			"qualifications": p.Qualifications,
			"image_url":      p.ImageURL,
			"office_hours":   p.OfficeHours,
		}).
		Where(sq.Eq{"id": p.ID}))
}

func (repo *principalRepository) SetPrincipalActive(ctx context.Context, id int, active bool) (principal.Principal, error) {
	return repo.updateReturning(ctx, psql.Update("principal").
		Set("is_active", active).
		Where(sq.Eq{"id": id}))
}

func (repo *principalRepository) ResetPrincipalPassword(ctx context.Context, id int, oldHash, newHash []byte) (principal.Principal, error) {
	return repo.updateReturning(ctx, psql.Update("principal").
		SetMap(map[string]interface{}{"password_hash": newHash, "email_verified": true}).
		Where(sq.Eq{"id": id}).
		Where("password_hash = ?", oldHash))
}
