package tests

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/eduquest/apps/api/echo"
	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/account"
	"github.com/trezcool/eduquest/core/auth"
	"github.com/trezcool/eduquest/core/feedback"
	"github.com/trezcool/eduquest/core/meeting"
	"github.com/trezcool/eduquest/core/principal"
	"github.com/trezcool/eduquest/core/report"
	"github.com/trezcool/eduquest/core/school"
	emailsvc "github.com/trezcool/eduquest/services/email"
	mediasvc "github.com/trezcool/eduquest/services/media"
	dummydb "github.com/trezcool/eduquest/storage/database/dummy"
	"github.com/trezcool/eduquest/tests"
)

var (
	errAuthRequired   = httpErr{Error: auth.ErrUnauthenticated.Error()}
	errPermDenied     = httpErr{Error: core.ErrPermissionDenied.Error()}
	errSchoolNotFound = httpErr{Error: school.ErrNotFound.Error()}
)

type testEnv struct {
	app  *Server
	conf *core.Config
	mail *emailsvc.ConsoleServiceMock

	schoolRepo    school.Repository
	principalRepo principal.Repository
	feedbackRepo  feedback.Repository
	meetingRepo   meeting.Repository
	accountRepo   account.Repository
}

func setup(t *testing.T, opts ...func(conf *core.Config)) *testEnv {
	conf := testutil.NewConfig(t)
	for _, opt := range opts {
		opt(conf)
	}
	logger := testutil.NewLogger(conf)
	validate, translator := testutil.NewValidator()

	// set up DB & repos
	db := testutil.PrepareDB(t)
	env := &testEnv{
		conf:          conf,
		mail:          emailsvc.NewConsoleServiceMock(conf, logger),
		schoolRepo:    dummydb.NewSchoolRepository(db),
		principalRepo: dummydb.NewPrincipalRepository(db),
		feedbackRepo:  dummydb.NewFeedbackRepository(db),
		meetingRepo:   dummydb.NewMeetingRepository(db),
		accountRepo:   dummydb.NewAccountRepository(db),
	}

	// set up services
	files := mediasvc.NewLocalStore(conf)
	principalSvc := principal.NewService(env.principalRepo, env.schoolRepo, files, env.mail, logger, conf)

	// set up server
	env.app = NewServer(Deps{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Files:      files,
		Schools:    school.NewService(env.schoolRepo, files, logger),
		Principals: principalSvc,
		Feedback:   feedback.NewService(env.feedbackRepo, env.schoolRepo, env.mail, conf),
		Meetings:   meeting.NewService(env.meetingRepo, env.schoolRepo, env.principalRepo, env.mail),
		Accounts:   account.NewService(env.accountRepo),
		Auth:       auth.NewService(env.accountRepo, env.principalRepo, env.accountRepo),
		Reports:    report.NewService(dummydb.NewReportRepository(db), conf),
	})
	return env
}

type httpErr struct {
	Error string `json:"error"`
}

type validationErr struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	session  auth.Identity
	wantCode int
	wantData []byte
}

// session returns the value of a session cookie holding id.
func (env *testEnv) session(t *testing.T, id auth.Identity) string {
	token, err := env.app.GenerateToken(id)
	if err != nil {
		t.Fatalf("session() failed: %v", err)
	}
	return token
}

func (env *testEnv) newAuthRequest(t *testing.T, method, path string, id auth.Identity, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if id != nil {
		req.AddCookie(&http.Cookie{Name: env.conf.Server.SessionCookieName, Value: env.session(t, id)})
	}
	return req, httptest.NewRecorder()
}

func (env *testEnv) newRequest(t *testing.T, method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return env.newAuthRequest(t, method, path, nil, data...)
}

// do serves the request and returns the recorder.
func (env *testEnv) do(t *testing.T, method, path string, id auth.Identity, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := env.newAuthRequest(t, method, path, id, data...)
	env.app.ServeHTTP(rec, req)
	return rec
}

// doMultipart serves a multipart/form-data request. fname & content describe the file of fileField, if any.
func (env *testEnv) doMultipart(
	t *testing.T,
	method, path string,
	id auth.Identity,
	fields map[string]string,
	fileField, fname string,
	content []byte,
) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() failed: %v", err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fname)
		if err != nil {
			t.Fatalf("CreateFormFile() failed: %v", err)
		}
		_, _ = fw.Write(content)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart Close() failed: %v", err)
	}

	req, rec := env.newAuthRequest(t, method, path, id)
	req.Body = io.NopCloser(&body)
	req.ContentLength = int64(body.Len())
	req.Header.Set("Content-Type", mw.FormDataContentType())
	env.app.ServeHTTP(rec, req)
	return rec
}

func pngBytes(t *testing.T, w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() failed: %v", err)
	}
	return buf.Bytes()
}

func (env *testEnv) runTests(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := env.do(t, method, tt.path, tt.session, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	assert.Equal(t, wantCode, rec.Code, "body: %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
