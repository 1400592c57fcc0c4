package main

import (
	"io"
	"log"
	"os"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/account"
	"github.com/trezcool/eduquest/core/principal"
	emailsvc "github.com/trezcool/eduquest/services/email"
	logsvc "github.com/trezcool/eduquest/services/logger"
	mediasvc "github.com/trezcool/eduquest/services/media"
	"github.com/trezcool/eduquest/storage/database"
	sqlxrepos "github.com/trezcool/eduquest/storage/database/sqlx"
)

func main() {
	logger := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(err)
	}
	if err = db.Ping(); err != nil {
		logger.Fatal(err)
	}

	appLogger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	appLogger.Enable(false)

	cli := commandLine{
		out: os.Stdout,
		migrate: func(command string, args ...string) error {
			return database.RunMigrations(db.DB, conf, command, args...)
		},
		accounts: account.NewService(sqlxrepos.NewAccountRepository(db)),
		principals: principal.NewService(
			sqlxrepos.NewPrincipalRepository(db),
			sqlxrepos.NewSchoolRepository(db),
			mediasvc.NewLocalStore(conf),
			emailsvc.NewConsoleService(conf, appLogger),
			appLogger,
			conf,
		),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Printf("error: %+v\n", err)
		}
		os.Exit(1)
	}
}
