// Package digcontainer wires the API's dependencies with go.uber.org/dig.
package digcontainer

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/eduquest/apps/api/echo"
	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/account"
	"github.com/trezcool/eduquest/core/auth"
	"github.com/trezcool/eduquest/core/feedback"
	"github.com/trezcool/eduquest/core/meeting"
	"github.com/trezcool/eduquest/core/principal"
	"github.com/trezcool/eduquest/core/report"
	"github.com/trezcool/eduquest/core/school"
	emailsvc "github.com/trezcool/eduquest/services/email"
	logsvc "github.com/trezcool/eduquest/services/logger"
	mediasvc "github.com/trezcool/eduquest/services/media"
	"github.com/trezcool/eduquest/storage/database"
	dummydb "github.com/trezcool/eduquest/storage/database/dummy"
	sqlxrepos "github.com/trezcool/eduquest/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Repositories are the storage implementations selected by the configuration.
type Repositories struct {
	dig.Out

	Schools    school.Repository
	Principals principal.Repository
	Feedback   feedback.Repository
	Meetings   meeting.Repository
	Accounts   account.Repository
	Reports    report.Repository
}

// Closer releases the storage resources.
type Closer func() error

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func openDB(conf *core.Config) (*sqlx.DB, error) {
	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db.DB, conf); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) (Repositories, Closer) {
	if conf.Database.Dummy {
		loggerParam.Logger.Warn("using the in-memory store: nothing will be persisted")
		db, _ := dummydb.Open()
		return Repositories{
			Schools:    dummydb.NewSchoolRepository(db),
			Principals: dummydb.NewPrincipalRepository(db),
			Feedback:   dummydb.NewFeedbackRepository(db),
			Meetings:   dummydb.NewMeetingRepository(db),
			Accounts:   dummydb.NewAccountRepository(db),
			Reports:    dummydb.NewReportRepository(db),
		}, func() error { return nil }
	}

	db, err := openDB(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return Repositories{
		Schools:    sqlxrepos.NewSchoolRepository(db),
		Principals: sqlxrepos.NewPrincipalRepository(db),
		Feedback:   sqlxrepos.NewFeedbackRepository(db),
		Meetings:   sqlxrepos.NewMeetingRepository(db),
		Accounts:   sqlxrepos.NewAccountRepository(db),
		Reports:    sqlxrepos.NewReportRepository(db),
	}, db.Close
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newFileStore(conf *core.Config) core.FileStore {
	return mediasvc.NewLocalStore(conf)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newFeedbackService(repo feedback.Repository, schools school.Repository, mailSvc core.EmailService, conf *core.Config) *feedback.Service {
	return feedback.NewService(repo, schools, mailSvc, conf)
}

func newMeetingService(
	repo meeting.Repository,
	schools school.Repository,
	principals principal.Repository,
	mailSvc core.EmailService,
) *meeting.Service {
	return meeting.NewService(repo, schools, principals, mailSvc)
}

func newPrincipalService(
	repo principal.Repository,
	schools school.Repository,
	files core.FileStore,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) *principal.Service {
	return principal.NewService(repo, schools, files, mailSvc, logger, conf)
}

func newAuthService(accounts account.Repository, principals principal.Repository) *auth.Service {
	return auth.NewService(accounts, principals, accounts)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(newFileStore))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(school.NewService))
	must(c.Provide(newPrincipalService))
	must(c.Provide(newFeedbackService))
	must(c.Provide(newMeetingService))
	must(c.Provide(account.NewService))
	must(c.Provide(newAuthService))
	must(c.Provide(report.NewService))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
