package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/eduquest/core/auth"
	"github.com/trezcool/eduquest/core/meeting"
	"github.com/trezcool/eduquest/core/principal"
	"github.com/trezcool/eduquest/tests"
)

func principalIdentity(p principal.Principal) auth.PrincipalIdentity {
	return auth.PrincipalIdentity{ID: p.ID, Name: p.Name, Email: p.Email, SchoolID: p.SchoolID}
}

func Test_meetingApi_bookAndConfirm(t *testing.T) {
	env := setup(t)
	schA := testutil.CreateSchool(t, env.schoolRepo, "Hope Academy", "Kinshasa", "")
	schB := testutil.CreateSchool(t, env.schoolRepo, "Light School", "Goma", "")
	prinQ := testutil.CreatePrincipal(t, env.principalRepo, schB.ID, "Paul", "paul@test.cd", "Sup3rSecret!", true)

	// P registers for school A & logs in
	rec := env.do(t, http.MethodPost, "/api/principals/register", nil, []byte(fmt.Sprintf(`{
		"school_id": %d, "name": "Jane Doe", "email": "jane@test.cd",
		"password": "Sup3rSecret!", "password_confirm": "Sup3rSecret!"
	}`, schA.ID)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var prinP principal.Principal
	unmarshal(t, rec, &prinP)
	assert.True(t, prinP.IsActive)

	rec = env.do(t, http.MethodPost, "/api/principals/login", nil, []byte(`{"email": "jane@test.cd", "password": "Sup3rSecret!"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sessionP := rec.Result().Cookies()[0]

	// a visitor books a meeting with P
	rec = env.do(t, http.MethodPost, "/api/meetings/book", nil, []byte(fmt.Sprintf(`{
		"school_id": %d, "principal_id": %d, "user_name": "Visitor", "user_email": "Visitor@Test.cd",
		"purpose": "Admission enquiry", "preferred_date": "2030-01-15T10:30"
	}`, schA.ID, prinP.ID)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var m meeting.Meeting
	unmarshal(t, rec, &m)
	assert.Equal(t, meeting.StatusPending, m.Status)
	assert.Equal(t, "visitor@test.cd", m.UserEmail)
	assert.True(t, time.Date(2030, 1, 15, 10, 30, 0, 0, time.UTC).Equal(m.PreferredDate))
	assert.False(t, m.UserPhone.Valid)

	// P is notified
	sent := env.mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@test.cd", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "Admission enquiry")

	path := fmt.Sprintf("/api/meetings/%d/status", m.ID)

	// Q may not touch it, whatever the payload
	for _, body := range []string{`{"status": "confirmed"}`, `{"status": "lol"}`, `{`} {
		rec = env.do(t, http.MethodPut, path, principalIdentity(prinQ), []byte(body))
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}, rec)
	}

	// P confirms it
	req, rec := env.newRequest(t, http.MethodPut, path, []byte(`{"status": "Confirmed"}`))
	req.AddCookie(sessionP)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshal(t, rec, &m)
	assert.Equal(t, meeting.StatusConfirmed, m.Status)

	stored, err := env.meetingRepo.GetMeeting(req.Context(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, meeting.StatusConfirmed, stored.Status)
}

func Test_meetingApi_book(t *testing.T) {
	env := setup(t)
	schA := testutil.CreateSchool(t, env.schoolRepo, "Hope Academy", "Kinshasa", "")
	schB := testutil.CreateSchool(t, env.schoolRepo, "Light School", "Goma", "")
	prin := testutil.CreatePrincipal(t, env.principalRepo, schA.ID, "Jane", "jane@test.cd", "Sup3rSecret!", true)

	book := func(schoolID, principalID int, date string) []byte {
		return []byte(fmt.Sprintf(`{
			"school_id": %d, "principal_id": %d, "user_name": "Visitor", "user_email": "visitor@test.cd",
			"purpose": "Visit", "preferred_date": %q
		}`, schoolID, principalID, date))
	}

	tests := []httpTest{
		{
			name: "missing fields", method: http.MethodPost, path: "/api/meetings/book", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, validationErr{
				Error: "invalid input: preferred_date, principal_id, purpose, school_id, user_email, user_name",
				Fields: map[string]string{
					"preferred_date": "this field is required",
					"principal_id":   "this field is required",
					"purpose":        "this field is required",
					"school_id":      "this field is required",
					"user_email":     "this field is required",
					"user_name":      "this field is required",
				},
			}),
		},
		{
			name: "invalid date", method: http.MethodPost, path: "/api/meetings/book",
			body: book(schA.ID, prin.ID, "next monday"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, validationErr{
				Error:  "invalid input: preferred_date",
				Fields: map[string]string{"preferred_date": "invalid date"},
			}),
		},
		{
			name: "unknown school", method: http.MethodPost, path: "/api/meetings/book",
			body: book(schB.ID+100, prin.ID, "2030-01-15"), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, errSchoolNotFound),
		},
		{
			name: "unknown principal", method: http.MethodPost, path: "/api/meetings/book",
			body: book(schA.ID, prin.ID+100, "2030-01-15"), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: principal.ErrNotFound.Error()}),
		},
		{
			name: "principal of another school", method: http.MethodPost, path: "/api/meetings/book",
			body: book(schB.ID, prin.ID, "2030-01-15"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, validationErr{
				Error:  "invalid input: principal_id",
				Fields: map[string]string{"principal_id": "this principal does not belong to the selected school"},
			}),
		},
	}
	env.runTests(t, tests)
	assert.Empty(t, env.mail.SentMessages())
}

func Test_meetingApi_updateStatus(t *testing.T) {
	env := setup(t)
	sch := testutil.CreateSchool(t, env.schoolRepo, "Hope Academy", "Kinshasa", "")
	prin := testutil.CreatePrincipal(t, env.principalRepo, sch.ID, "Jane", "jane@test.cd", "Sup3rSecret!", true)
	m := testutil.CreateMeeting(t, env.meetingRepo, sch.ID, prin.ID, "Visitor", meeting.StatusPending)
	admin := auth.AdminIdentity{ID: 1, Username: "admin"}
	path := fmt.Sprintf("/api/meetings/%d/status", m.ID)

	tests := []httpTest{
		{name: "anonymous", method: http.MethodPut, path: path, body: []byte(`{"status": "confirmed"}`),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errAuthRequired)},
		{name: "admin", method: http.MethodPut, path: path, body: []byte(`{"status": "confirmed"}`), session: admin,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{name: "unknown meeting", method: http.MethodPut, path: "/api/meetings/9999/status", session: principalIdentity(prin),
			body: []byte(`{"status": "confirmed"}`), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: meeting.ErrNotFound.Error()})},
		{name: "malformed id", method: http.MethodPut, path: "/api/meetings/abc/status", session: principalIdentity(prin),
			body: []byte(`{"status": "confirmed"}`), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: meeting.ErrNotFound.Error()})},
		{name: "invalid status", method: http.MethodPut, path: path, session: principalIdentity(prin),
			body: []byte(`{"status": "postponed"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, validationErr{
				Error:  "invalid input: status",
				Fields: map[string]string{"status": "status must be one of: pending, confirmed, completed, cancelled"},
			})},
		{name: "missing status", method: http.MethodPut, path: path, session: principalIdentity(prin),
			body: []byte(`{}`), wantCode: http.StatusBadRequest},
	}
	env.runTests(t, tests)

	for _, st := range []string{"confirmed", "completed", "pending", "cancelled"} {
		rec := env.do(t, http.MethodPut, path, principalIdentity(prin), []byte(fmt.Sprintf(`{"status": %q}`, st)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got meeting.Meeting
		unmarshal(t, rec, &got)
		assert.Equal(t, meeting.Status(st), got.Status)
	}
}

func Test_meetingApi_principalMeetings(t *testing.T) {
	env := setup(t)
	sch := testutil.CreateSchool(t, env.schoolRepo, "Hope Academy", "Kinshasa", "")
	sch2 := testutil.CreateSchool(t, env.schoolRepo, "Light School", "Goma", "")
	prin := testutil.CreatePrincipal(t, env.principalRepo, sch.ID, "Jane", "jane@test.cd", "Sup3rSecret!", true)
	prin2 := testutil.CreatePrincipal(t, env.principalRepo, sch2.ID, "Paul", "paul@test.cd", "Sup3rSecret!", true)

	now := time.Now().UTC().Truncate(time.Second)
	m1 := testutil.CreateMeeting(t, env.meetingRepo, sch.ID, prin.ID, "First", meeting.StatusPending, now.Add(-2*time.Hour))
	m2 := testutil.CreateMeeting(t, env.meetingRepo, sch.ID, prin.ID, "Second", meeting.StatusConfirmed, now.Add(-time.Hour))
	testutil.CreateMeeting(t, env.meetingRepo, sch2.ID, prin2.ID, "Other", meeting.StatusPending, now)

	tests := []httpTest{
		{name: "anonymous", path: "/api/principal/meetings", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errAuthRequired)},
		{name: "user", path: "/api/principal/meetings", session: auth.UserIdentity{ID: 1, Name: "V", Email: "v@test.cd"},
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{name: "newest first", path: "/api/principal/meetings", session: principalIdentity(prin), wantData: marchallList(t, m2, m1)},
	}
	env.runTests(t, tests)
}
