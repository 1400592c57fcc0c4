package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/dig"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/account"
	"github.com/trezcool/eduquest/core/auth"
	"github.com/trezcool/eduquest/core/feedback"
	"github.com/trezcool/eduquest/core/meeting"
	"github.com/trezcool/eduquest/core/principal"
	"github.com/trezcool/eduquest/core/report"
	"github.com/trezcool/eduquest/core/school"
)

// Deps holds everything the API needs. It is filled by the dig container in production.
type Deps struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Files      core.FileStore

	Schools    *school.Service
	Principals *principal.Service
	Feedback   *feedback.Service
	Meetings   *meeting.Service
	Accounts   *account.Service
	Auth       *auth.Service
	Reports    *report.Service
}

type Server struct {
	conf       *core.Config
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
	files      core.FileStore

	schools    *school.Service
	principals *principal.Service
	feedback   *feedback.Service
	meetings   *meeting.Service
	accounts   *account.Service
	auth       *auth.Service
	reports    *report.Service

	app      *echo.Echo
	errors   chan error
	shutdown chan os.Signal
}

func NewServer(deps Deps) *Server {
	s := &Server{
		conf:       deps.Conf,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
		files:      deps.Files,
		schools:    deps.Schools,
		principals: deps.Principals,
		feedback:   deps.Feedback,
		meetings:   deps.Meetings,
		accounts:   deps.Accounts,
		auth:       deps.Auth,
		reports:    deps.Reports,
		app:        echo.New(),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Debug = s.conf.Debug
	s.app.HTTPErrorHandler = s.newAppHTTPErrorHandler(s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.BodyLimit(bodyLimit(s.conf.Media.MaxUploadSize)))
	s.app.Use(s.sessionMiddleware)

	s.app.Static(s.conf.Media.URLPrefix, s.conf.Media.Root)
	s.app.GET("/", home)

	g := s.app.Group("/api")
	s.registerAuthAPI(g)
	s.registerSchoolAPI(g)
	s.registerFeedbackAPI(g)
	s.registerMeetingAPI(g)
	s.registerPrincipalAPI(g)
	s.registerReportAPI(g)
}

// Start listens until the server is shut down. Failures are reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to EduQuest API!")
}
