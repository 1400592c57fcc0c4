package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	digcontainer "github.com/trezcool/eduquest/apps/api/di/dig"
	echoapi "github.com/trezcool/eduquest/apps/api/echo"
	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/account"
	"github.com/trezcool/eduquest/core/principal"
)

type flusher interface {
	Flush()
}

func main() {
	c := digcontainer.New()
	must(c.Invoke(run))
}

func run(
	conf *core.Config,
	logger core.Logger,
	dbLoggerParam digcontainer.DBLoggerParam,
	closeDB digcontainer.Closer,
	validate *validator.Validate,
	translator ut.Translator,
	accounts *account.Service,
	server *echoapi.Server,
) {
	if f, ok := logger.(flusher); ok {
		defer f.Flush()
	}
	logger.Info(fmt.Sprintf("EduQuest API starting : build %q, env %s", conf.Build, conf.Env))

	core.InitValidators(validate, translator)
	principal.InitValidators(validate, translator)
	account.InitValidators(validate, translator)

	if err := core.ParseEmailTemplates(); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	defer func() {
		if err := closeDB(); err != nil {
			dbLoggerParam.Logger.Error(fmt.Sprintf("closing storage: %v", err), err)
		}
	}()
	defer logger.Info("EduQuest API stopped")

	seedAdmin(conf, logger, accounts)
	startDebugServer(conf, logger)

	go server.Start()
	waitForShutdown(conf, logger, server)
}

// seedAdmin creates the configured admin on first boot.
func seedAdmin(conf *core.Config, logger core.Logger, accounts *account.Service) {
	a, created, err := accounts.SeedAdmin(context.Background(), conf.Admin.Username, conf.Admin.Password)
	if err != nil {
		logger.Fatal(fmt.Sprintf("seeding admin: %v", err), err)
	}
	if created {
		logger.Warn(fmt.Sprintf("admin %q seeded with the configured password: change it with the admin CLI", a.Username))
	}
}

// startDebugServer serves /debug/pprof and /debug/vars (registered on the default mux by their imports).
func startDebugServer(conf *core.Config, logger core.Logger) {
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()
}

func waitForShutdown(conf *core.Config, logger core.Logger, server *echoapi.Server) {
	select {
	case err := <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: shutting down...", sig))

		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("graceful shutdown failed: %v", err), err)
			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("forced shutdown failed: %v", err), err)
			}
		}
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
