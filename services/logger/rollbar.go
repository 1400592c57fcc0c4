// Package logsvc logs to a standard logger and reports to Rollbar when enabled.
package logsvc

import (
	"log"
	"strconv"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/auth"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Flush blocks until every queued Rollbar item is sent.
func (l RollbarLogger) Flush() {
	rollbar.Wait()
}

// person maps a session identity to a Rollbar person: "<kind>:<id>".
func person(id auth.Identity) (pid, username, email string) {
	pid = string(id.Kind()) + ":" + strconv.Itoa(id.Subject())
	switch i := id.(type) {
	case auth.AdminIdentity:
		username = i.Username
	case auth.PrincipalIdentity:
		username, email = i.Name, i.Email
	case auth.UserIdentity:
		username, email = i.Name, i.Email
	}
	return
}

// splitArgs separates the session identity (the first one wins) from the other args.
// expected args: error, map[string]interface{}, auth.Identity
func splitArgs(args []interface{}) (auth.Identity, []interface{}) {
	var id auth.Identity
	rest := make([]interface{}, 0, len(args))
	for _, arg := range args {
		if i, ok := arg.(auth.Identity); ok {
			if id == nil {
				id = i
			}
			continue
		}
		rest = append(rest, arg)
	}
	return id, rest
}

func (l RollbarLogger) log(level, msg string, args []interface{}) {
	id, rest := splitArgs(args)

	if id != nil {
		rollbar.SetPerson(person(id))
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(level, append([]interface{}{msg}, rest...)...)

	l.std.Printf("[%s] %s", strings.ToUpper(level), msg)
	for _, arg := range rest {
		l.std.Printf("%+v", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
