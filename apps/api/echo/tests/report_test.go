package tests

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/eduquest/core/auth"
	"github.com/trezcool/eduquest/core/meeting"
	"github.com/trezcool/eduquest/core/report"
	"github.com/trezcool/eduquest/tests"
)

func seedReportData(t *testing.T, env *testEnv) {
	schA := testutil.CreateSchool(t, env.schoolRepo, "Hope Academy", "Kinshasa", "")
	schB := testutil.CreateSchool(t, env.schoolRepo, "Light School", "Goma", "")
	testutil.CreateSchool(t, env.schoolRepo, "Bright Futures", "Kinshasa", "")
	prinA := testutil.CreatePrincipal(t, env.principalRepo, schA.ID, "Jane", "jane@test.cd", "", true)
	testutil.CreatePrincipal(t, env.principalRepo, schB.ID, "Paul", "paul@test.cd", "", false)
	testutil.CreateFeedback(t, env.feedbackRepo, schA.ID, "Visitor", "", "Great")
	testutil.CreateFeedback(t, env.feedbackRepo, schB.ID, "Visitor", "", "Nice")
	testutil.CreateMeeting(t, env.meetingRepo, schA.ID, prinA.ID, "Visitor", meeting.StatusPending)
	testutil.CreateMeeting(t, env.meetingRepo, schA.ID, prinA.ID, "Visitor", meeting.StatusConfirmed)
	testutil.CreateMeeting(t, env.meetingRepo, schA.ID, prinA.ID, "Visitor", meeting.StatusConfirmed)
	testutil.CreateUser(t, env.accountRepo, "Visitor", "visitor@test.cd", "", true)
}

func Test_reportApi_stats(t *testing.T) {
	env := setup(t)
	seedReportData(t, env)

	want := report.Stats{
		Schools:          3,
		SchoolsByRegion:  []report.Count{{Label: "Goma", Total: 1}, {Label: "Kinshasa", Total: 2}},
		SchoolsByLevel:   []report.Count{{Label: "Primary", Total: 3}},
		Principals:       2,
		ActivePrincipals: 1,
		Feedback:         2,
		Meetings:         3,
		MeetingsByStatus: []report.Count{{Label: "confirmed", Total: 2}, {Label: "pending", Total: 1}},
		Users:            1,
	}
	tests := []httpTest{
		{name: "anonymous", path: "/api/admin/stats", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errAuthRequired)},
		{name: "user", path: "/api/admin/stats", session: userSession, wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{name: "admin", path: "/api/admin/stats", session: adminSession, wantData: marchallObj(t, want)},
	}
	env.runTests(t, tests)
}

func Test_reportApi_generate(t *testing.T) {
	env := setup(t)
	seedReportData(t, env)

	tests := []httpTest{
		{name: "anonymous", method: http.MethodPost, path: "/api/admin/generate-report", body: []byte(`{}`),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errAuthRequired)},
		{name: "principal", method: http.MethodPost, path: "/api/admin/generate-report", body: []byte(`{}`),
			session: auth.PrincipalIdentity{ID: 1, SchoolID: 1}, wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)},
		{
			name: "invalid range", method: http.MethodPost, path: "/api/admin/generate-report",
			body: []byte(`{"range": "decade"}`), session: adminSession, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, validationErr{
				Error:  "invalid input: range",
				Fields: map[string]string{"range": "range must be one of: all, week, month, quarter"},
			}),
		},
	}
	env.runTests(t, tests)

	for _, body := range []string{`{}`, `{"range": "Month"}`} {
		rec := env.do(t, http.MethodPost, "/api/admin/generate-report", adminSession, []byte(body))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		disposition := rec.Header().Get("Content-Disposition")
		assert.True(t, strings.HasPrefix(disposition, "attachment; filename=eduquest-report-"), disposition)
		assert.True(t, strings.HasSuffix(disposition, ".pdf"), disposition)
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
	}
}
