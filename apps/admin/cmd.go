package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/eduquest/core/account"
	"github.com/trezcool/eduquest/core/principal"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	out        io.Writer
	migrate    func(command string, args ...string) error
	accounts   *account.Service
	principals *principal.Service
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                   - run a database migration command (up, down, status, version...)")
	_, _ = fmt.Fprintln(cli.out, "  addadmin -username USERNAME              - create an admin or reset their password")
	_, _ = fmt.Fprintln(cli.out, "  resetpassword -username USERNAME         - reset an existing admin's password")
	_, _ = fmt.Fprintln(cli.out, "  activateprincipal -email EMAIL [-revoke] - approve (or revoke) a principal's account")
}

func (cli *commandLine) promptPassword(fs *flag.FlagSet) (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2], args[3:]...)

	case "addadmin", "resetpassword":
		cmd := flag.NewFlagSet(args[1], flag.ContinueOnError)
		cmd.SetOutput(cli.out)
		uname := cmd.String("username", "", "The admin's username. The password will be prompted next.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *uname == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(cmd)
		if err != nil {
			return err
		}
		a, err := cli.accounts.SetAdminPassword(ctx, *uname, pwd, args[1] == "addadmin")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cli.out, "admin %q saved\n", a.Username)
		return nil

	case "activateprincipal":
		cmd := flag.NewFlagSet(args[1], flag.ContinueOnError)
		cmd.SetOutput(cli.out)
		email := cmd.String("email", "", "The principal's email.")
		revoke := cmd.Bool("revoke", false, "Deactivate the principal instead.")
		if err := cmd.Parse(args[2:]); err != nil {
			return err
		}
		if *email == "" {
			cmd.Usage()
			return errHelp
		}
		p, err := cli.principals.SetActiveByEmail(ctx, *email, !*revoke)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cli.out, "principal %q active: %t\n", p.Email, p.IsActive)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}
