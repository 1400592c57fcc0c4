package sqlxrepos

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/school"
)

const (
	selectSchoolForUpdate = "SELECT id, name, region, level, contact, description, accessibility, fee_structure, image_url " +
		"FROM school WHERE id = $1 FOR UPDATE"
	selectPrincipalPhotos = "SELECT image_url FROM principal WHERE school_id = $1"
	deleteMeetings        = "DELETE FROM meeting_booking WHERE school_id = $1"
	deleteFeedback        = "DELETE FROM feedback WHERE school_id = $1"
	deletePrincipals      = "DELETE FROM principal WHERE school_id = $1"
	deleteSchool          = "DELETE FROM school WHERE id = $1"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func schoolRow(id int, imageURL string) *sqlmock.Rows {
	return sqlmock.NewRows(schoolColumns).
		AddRow(id, "Hope Academy", "Kinshasa", "Primary", "", "", "Ramps", "", imageURL)
}

func Test_schoolRepository_DeleteSchool(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSchoolRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(selectSchoolForUpdate).WithArgs(7).WillReturnRows(schoolRow(7, "/static/images/schools/a.png"))
	mock.ExpectQuery(selectPrincipalPhotos).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"image_url"}).AddRow("/static/images/principals/b.png"))
	mock.ExpectExec(deleteMeetings).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(deleteFeedback).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(deletePrincipals).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteSchool).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	del, err := repo.DeleteSchool(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, del.School.ID)
	assert.Equal(t, int64(1), del.Principals)
	assert.Equal(t, int64(2), del.Feedback)
	assert.Equal(t, int64(3), del.Meetings)
	assert.Equal(t, []string{"/static/images/schools/a.png", "/static/images/principals/b.png"}, del.FileURLs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_schoolRepository_DeleteSchool_rollback(t *testing.T) {
	boom := errors.New("connection reset")

	tests := []struct {
		name    string
		expect  func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "unknown school",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectSchoolForUpdate).WithArgs(7).WillReturnRows(sqlmock.NewRows(schoolColumns))
			},
			wantErr: school.ErrNotFound,
		},
		{
			name: "failing feedback delete",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectSchoolForUpdate).WithArgs(7).WillReturnRows(schoolRow(7, ""))
				mock.ExpectQuery(selectPrincipalPhotos).WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"image_url"}))
				mock.ExpectExec(deleteMeetings).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(deleteFeedback).WithArgs(7).WillReturnError(boom)
			},
			wantErr: boom,
		},
		{
			name: "failing school delete",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(selectSchoolForUpdate).WithArgs(7).WillReturnRows(schoolRow(7, ""))
				mock.ExpectQuery(selectPrincipalPhotos).WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"image_url"}))
				mock.ExpectExec(deleteMeetings).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(deleteFeedback).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(deletePrincipals).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(deleteSchool).WithArgs(7).WillReturnError(boom)
			},
			wantErr: boom,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewSchoolRepository(db)

			mock.ExpectBegin()
			tt.expect(mock)
			mock.ExpectRollback()

			del, err := repo.DeleteSchool(context.Background(), 7)
			assert.Equal(t, tt.wantErr, errors.Cause(err))
			assert.Equal(t, school.Deletion{}, del)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func Test_schoolRepository_FilterSchools(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSchoolRepository(db)

	mock.ExpectQuery("SELECT id, name, region, level, contact, description, accessibility, fee_structure, image_url "+
		"FROM school WHERE name ILIKE $1 AND accessibility ILIKE $2 ORDER BY region DESC, id ASC").
		WithArgs("%hope%", "%ramp%").
		WillReturnRows(schoolRow(1, ""))

	schools, err := repo.FilterSchools(
		context.Background(),
		school.QueryFilter{Query: " Hope", Disability: "RAMP"},
		core.DBOrdering{Field: "region"}, core.DBOrdering{Field: "password"},
	)
	require.NoError(t, err)
	require.Len(t, schools, 1)
	assert.Equal(t, "Hope Academy", schools[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_schoolRepository_UpdateSchool_notFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSchoolRepository(db)

	mock.ExpectExec("UPDATE school SET accessibility = $1, contact = $2, description = $3, fee_structure = $4, " +
		"image_url = $5, level = $6, name = $7, region = $8 WHERE id = $9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.UpdateSchool(context.Background(), school.School{ID: 9, Name: "Ghost", Region: "Nowhere"})
	assert.Equal(t, school.ErrNotFound, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
