package cli

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// UserCmd returns the user command.
func UserCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("user", flag.ContinueOnError),
		Usage: "user [set <name>|clear]",
		Short: "Show or set the current user",
		Long: `Show, set or clear the current user stored with the shelf.

The current user is the borrower of new and reactivated loans. --user,
SHELF_USER and the "user" config key take precedence over the stored name.`,
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execUser(io, a, args)
		},
	}
}

func execUser(io *IO, a *app, args []string) error {
	if len(args) == 0 {
		name := a.user()
		if name == "" {
			io.Println("(no user set)")

			return nil
		}

		io.Println(name)

		return nil
	}

	switch args[0] {
	case "set":
		name := strings.TrimSpace(strings.Join(args[1:], " "))
		if name == "" {
			return errUserNameRequired
		}

		if err := a.store.SetUser(name); err != nil {
			return err
		}

		io.Println("User set to " + name)

		if a.cfg.User != "" && a.cfg.User != name {
			io.ErrPrintln("note: user " + a.cfg.User + " from flags, environment or config takes precedence")
		}

		return nil

	case "clear":
		if err := a.store.SetUser(""); err != nil {
			return err
		}

		io.Println("User cleared")

		return nil

	default:
		return fmt.Errorf("%w: %s", errUnknownSubcommand, args[0])
	}
}
