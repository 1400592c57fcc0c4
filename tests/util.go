// Package testutil provides fixtures shared by the test suites.
package testutil

import (
	"context"
	"io"
	"log"
	"net/mail"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/account"
	"github.com/trezcool/eduquest/core/feedback"
	"github.com/trezcool/eduquest/core/meeting"
	"github.com/trezcool/eduquest/core/principal"
	"github.com/trezcool/eduquest/core/school"
	logsvc "github.com/trezcool/eduquest/services/logger"
	dummydb "github.com/trezcool/eduquest/storage/database/dummy"
)

// NewConfig returns a test configuration whose media root is a temporary directory.
func NewConfig(t *testing.T) *core.Config {
	return &core.Config{
		Env:                       "TEST",
		TestMode:                  true,
		AppName:                   "EduQuest",
		Build:                     "test",
		SecretKey:                 "test-secret-key",
		FrontendBaseURL:           "http://localhost:8000",
		DefaultFromEmail:          mail.Address{Name: "EduQuest", Address: "noreply@eduquest.test"},
		PrincipalAutoActivate:     true,
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			Address:                ":0",
			DisableReqLogs:         true,
			ShutdownTimeout:        time.Second,
			SessionCookieName:      "session",
			SessionExpirationDelta: time.Hour,
		},
		Database: core.DatabaseConfig{Dummy: true},
		Media: core.MediaConfig{
			Root:               t.TempDir(),
			URLPrefix:          "/static",
			MaxUploadSize:      16 << 20,
			MaxImageDimension:  64,
			DefaultSchoolImage: "/static/images/default-school.jpg",
		},
		Admin: core.AdminConfig{Username: "admin", Password: "admin123"},
	}
}

// NewLogger returns a silent logger that never reports to Rollbar.
func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)
	return logger
}

// NewValidator returns a validator with every application validation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	principal.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	return validate, translator
}

// PrepareDB returns an empty in-memory database.
func PrepareDB(t *testing.T) *dummydb.DB {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateSchool(t *testing.T, repo school.Repository, name, region, accessibility string) school.School {
	s, err := repo.CreateSchool(context.Background(), school.School{
		Name:          name,
		Region:        region,
		Level:         "Primary",
		Accessibility: accessibility,
	})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return s
}

func CreatePrincipal(
	t *testing.T,
	repo principal.Repository,
	schoolID int,
	name, email, pwd string,
	isActive bool,
) principal.Principal {
	p := principal.Principal{
		SchoolID:  schoolID,
		Name:      name,
		Email:     email,
		IsActive:  isActive,
		CreatedAt: time.Now().UTC(),
	}
	if pwd != "" {
		if err := p.SetPassword(pwd); err != nil {
			t.Fatalf("CreatePrincipal() failed: %v", err)
		}
	}
	p, err := repo.CreatePrincipal(context.Background(), p)
	if err != nil {
		t.Fatalf("CreatePrincipal() failed: %v", err)
	}
	return p
}

func CreateFeedback(t *testing.T, repo feedback.Repository, schoolID int, name, email, message string, createdAt ...time.Time) feedback.Feedback {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	f := feedback.Feedback{SchoolID: schoolID, Name: name, Message: message, CreatedAt: tstamp}
	if email != "" {
		f.Email = null.StringFrom(email)
	}
	f, err := repo.CreateFeedback(context.Background(), f)
	if err != nil {
		t.Fatalf("CreateFeedback() failed: %v", err)
	}
	return f
}

func CreateMeeting(
	t *testing.T,
	repo meeting.Repository,
	schoolID, principalID int,
	userName string,
	status meeting.Status,
	createdAt ...time.Time,
) meeting.Meeting {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	m, err := repo.CreateMeeting(context.Background(), meeting.Meeting{
		SchoolID:      schoolID,
		PrincipalID:   principalID,
		UserName:      userName,
		UserEmail:     "visitor@test.cd",
		Purpose:       "Admission enquiry",
		PreferredDate: tstamp.Add(72 * time.Hour).Truncate(time.Second),
		Status:        status,
		CreatedAt:     tstamp,
	})
	if err != nil {
		t.Fatalf("CreateMeeting() failed: %v", err)
	}
	return m
}

func CreateAdmin(t *testing.T, repo account.Repository, username, pwd string) account.Admin {
	a := account.Admin{Username: username}
	if err := a.SetPassword(pwd); err != nil {
		t.Fatalf("CreateAdmin() failed: %v", err)
	}
	a, err := repo.CreateAdmin(context.Background(), a)
	if err != nil {
		t.Fatalf("CreateAdmin() failed: %v", err)
	}
	return a
}

func CreateUser(t *testing.T, repo account.Repository, name, email, pwd string, isActive bool) account.User {
	u := account.User{Name: name, Email: email, IsActive: isActive, CreatedAt: time.Now().UTC()}
	if pwd != "" {
		if err := u.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	u, err := repo.CreateUser(context.Background(), u)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return u
}
