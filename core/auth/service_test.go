package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/auth"
	"github.com/trezcool/eduquest/tests"
	dummydb "github.com/trezcool/eduquest/storage/database/dummy"
)

func newService(t *testing.T) (*auth.Service, *dummydb.DB) {
	db := testutil.PrepareDB(t)
	accounts := dummydb.NewAccountRepository(db)
	return auth.NewService(accounts, dummydb.NewPrincipalRepository(db), accounts), db
}

func TestService_LoginAdmin(t *testing.T) {
	svc, db := newService(t)
	admin := testutil.CreateAdmin(t, dummydb.NewAccountRepository(db), "admin", "admin123")

	tests := []struct {
		name     string
		username string
		pwd      string
		want     auth.AdminIdentity
		wantErr  error
	}{
		{name: "unknown", username: "root", pwd: "admin123", wantErr: auth.ErrInvalidCredentials},
		{name: "wrong password", username: "admin", pwd: "nope", wantErr: auth.ErrInvalidCredentials},
		{name: "empty password", username: "admin", wantErr: auth.ErrInvalidCredentials},
		{name: "ok", username: " ADMIN", pwd: "admin123", want: auth.AdminIdentity{ID: admin.ID, Username: "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.LoginAdmin(context.Background(), tt.username, tt.pwd)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Login(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	sch := testutil.CreateSchool(t, dummydb.NewSchoolRepository(db), "Hope Academy", "Kinshasa", "")
	prin := testutil.CreatePrincipal(t, dummydb.NewPrincipalRepository(db), sch.ID, "Jane", "jane@test.cd", "Sup3rSecret!", true)
	sch2 := testutil.CreateSchool(t, dummydb.NewSchoolRepository(db), "Light School", "Goma", "")
	testutil.CreatePrincipal(t, dummydb.NewPrincipalRepository(db), sch2.ID, "Paul", "paul@test.cd", "Sup3rSecret!", false)
	usr := testutil.CreateUser(t, dummydb.NewAccountRepository(db), "Visitor", "visitor@test.cd", "Bl4ckC0ffee", true)
	testutil.CreateUser(t, dummydb.NewAccountRepository(db), "Banned", "banned@test.cd", "Bl4ckC0ffee", false)

	tests := []struct {
		name    string
		kind    auth.Kind
		email   string
		pwd     string
		want    auth.Identity
		wantErr error
	}{
		{name: "unknown kind", kind: auth.KindAdmin, email: "jane@test.cd", pwd: "Sup3rSecret!", wantErr: auth.ErrUnknownKind},
		{name: "empty kind", email: "jane@test.cd", pwd: "Sup3rSecret!", wantErr: auth.ErrUnknownKind},
		{name: "principal: unknown", kind: auth.KindPrincipal, email: "nobody@test.cd", pwd: "x", wantErr: auth.ErrInvalidCredentials},
		{name: "principal: wrong password", kind: auth.KindPrincipal, email: "jane@test.cd", pwd: "x", wantErr: auth.ErrInvalidCredentials},
		{name: "principal: inactive, wrong password", kind: auth.KindPrincipal, email: "paul@test.cd", pwd: "x", wantErr: auth.ErrInvalidCredentials},
		{name: "principal: inactive", kind: auth.KindPrincipal, email: "paul@test.cd", pwd: "Sup3rSecret!", wantErr: auth.ErrPendingApproval},
		{
			name: "principal: ok", kind: auth.KindPrincipal, email: " Jane@Test.cd ", pwd: "Sup3rSecret!",
			want: auth.PrincipalIdentity{ID: prin.ID, Name: "Jane", Email: "jane@test.cd", SchoolID: sch.ID},
		},
		{name: "user: as principal", kind: auth.KindPrincipal, email: "visitor@test.cd", pwd: "Bl4ckC0ffee", wantErr: auth.ErrInvalidCredentials},
		{name: "user: inactive", kind: auth.KindUser, email: "banned@test.cd", pwd: "Bl4ckC0ffee", wantErr: auth.ErrAccountInactive},
		{
			name: "user: ok", kind: auth.KindUser, email: "visitor@test.cd", pwd: "Bl4ckC0ffee",
			want: auth.UserIdentity{ID: usr.ID, Name: "Visitor", Email: "visitor@test.cd"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Login(ctx, tt.kind, tt.email, tt.pwd)
			assert.Equal(t, tt.wantErr, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.kind, got.Kind())
		})
	}
}

func TestRequire(t *testing.T) {
	admin := auth.AdminIdentity{ID: 1, Username: "admin"}
	prin := auth.PrincipalIdentity{ID: 2, SchoolID: 3}
	usr := auth.UserIdentity{ID: 4}

	assert.Equal(t, auth.ErrUnauthenticated, auth.RequireAdmin(nil))
	assert.Equal(t, core.ErrPermissionDenied, auth.RequireAdmin(prin))
	assert.Equal(t, core.ErrPermissionDenied, auth.RequireAdmin(usr))
	assert.NoError(t, auth.RequireAdmin(admin))

	_, err := auth.RequirePrincipal(nil)
	assert.Equal(t, auth.ErrUnauthenticated, err)
	_, err = auth.RequirePrincipal(admin)
	assert.Equal(t, core.ErrPermissionDenied, err)
	got, err := auth.RequirePrincipal(prin)
	require.NoError(t, err)
	assert.Equal(t, prin, got)
}
