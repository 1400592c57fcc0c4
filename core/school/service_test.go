package school_test

import (
	"context"
	"mime/multipart"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/meeting"
	"github.com/trezcool/eduquest/core/school"
	"github.com/trezcool/eduquest/tests"
	dummydb "github.com/trezcool/eduquest/storage/database/dummy"
)

// fileStoreMock records deleted URLs.
type fileStoreMock struct {
	deleted []string
	err     error
}

func (fs *fileStoreMock) SaveImage(string, *multipart.FileHeader, string) (string, error) {
	return "", errors.New("not implemented")
}

func (fs *fileStoreMock) Delete(url string) error {
	fs.deleted = append(fs.deleted, url)
	return fs.err
}

// failingDeleteRepo fails every cascading delete.
type failingDeleteRepo struct {
	school.Repository
}

func (failingDeleteRepo) DeleteSchool(context.Context, int) (school.Deletion, error) {
	return school.Deletion{}, errors.New("tx aborted")
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	schools := dummydb.NewSchoolRepository(db)
	principals := dummydb.NewPrincipalRepository(db)
	files := &fileStoreMock{}
	svc := school.NewService(schools, files, testutil.NewLogger(testutil.NewConfig(t)))

	sch, err := schools.CreateSchool(ctx, school.School{Name: "Hope Academy", Region: "Kinshasa", ImageURL: "/static/images/schools/a.png"})
	require.NoError(t, err)
	prin := testutil.CreatePrincipal(t, principals, sch.ID, "Jane", "jane@test.cd", "", true)
	prin.ImageURL = "/static/images/principals/b.png"
	_, err = principals.UpdatePrincipalProfile(ctx, prin)
	require.NoError(t, err)
	testutil.CreateFeedback(t, dummydb.NewFeedbackRepository(db), sch.ID, "Visitor", "", "Great")
	testutil.CreateMeeting(t, dummydb.NewMeetingRepository(db), sch.ID, prin.ID, "Visitor", meeting.StatusPending)

	// nothing is removed when the deletion fails
	_, err = school.NewService(failingDeleteRepo{schools}, files, testutil.NewLogger(testutil.NewConfig(t))).Delete(ctx, sch.ID)
	require.Error(t, err)
	assert.Empty(t, files.deleted)
	_, err = schools.GetSchool(ctx, sch.ID)
	require.NoError(t, err)

	del, err := svc.Delete(ctx, sch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), del.Principals)
	assert.Equal(t, int64(1), del.Feedback)
	assert.Equal(t, int64(1), del.Meetings)
	assert.Equal(t, []string{"/static/images/schools/a.png", "/static/images/principals/b.png"}, files.deleted)

	_, err = svc.Delete(ctx, sch.ID)
	assert.Equal(t, school.ErrNotFound, err)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	files := &fileStoreMock{err: errors.New("permission denied")}
	svc := school.NewService(dummydb.NewSchoolRepository(db), files, testutil.NewLogger(testutil.NewConfig(t)))

	sch, err := svc.Create(ctx, school.NewSchool{Name: "Hope Academy", Region: "Kinshasa", ImageURL: "/static/images/schools/a.png"})
	require.NoError(t, err)

	// keeping the image leaves it alone
	name := "Hope Academy II"
	sch, err = svc.Update(ctx, sch.ID, school.UpdateSchool{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, sch.Name)
	assert.Empty(t, files.deleted)

	// failing to remove the old image does not fail the update
	sch, err = svc.SetImage(ctx, sch.ID, "/static/images/schools/b.png")
	require.NoError(t, err)
	assert.Equal(t, "/static/images/schools/b.png", sch.ImageURL)
	assert.Equal(t, []string{"/static/images/schools/a.png"}, files.deleted)

	_, err = svc.Update(ctx, 9999, school.UpdateSchool{Name: &name})
	assert.Equal(t, school.ErrNotFound, err)
}

func TestService_Filter(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	repo := dummydb.NewSchoolRepository(db)
	svc := school.NewService(repo, &fileStoreMock{}, testutil.NewLogger(testutil.NewConfig(t)))

	b := testutil.CreateSchool(t, repo, "B", "Kinshasa", "")
	a := testutil.CreateSchool(t, repo, "A", "Goma", "")
	c := testutil.CreateSchool(t, repo, "C", "Goma", "")

	got, err := svc.Filter(ctx, school.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []school.School{a, b, c}, got)

	got, err = svc.Filter(ctx, school.QueryFilter{Region: "goma"}, core.DBOrdering{Field: "name", Ascending: false})
	require.NoError(t, err)
	assert.Equal(t, []school.School{c, a}, got)

	// unknown fields fall back to the default ordering
	got, err = svc.Filter(ctx, school.QueryFilter{}, core.DBOrdering{Field: "id", Ascending: false})
	require.NoError(t, err)
	assert.Equal(t, []school.School{a, b, c}, got)
}
