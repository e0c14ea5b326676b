package cli

import (
	"context"

	"github.com/calvinalkan/shelf/internal/shelf"

	flag "github.com/spf13/pflag"
)

// RenewCmd returns the renew command.
func RenewCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("renew", flag.ContinueOnError),
		Usage: "renew <id>",
		Short: "Renew a loan",
		Long: `Renew a loan.

A loaned book gets its loan date moved forward by its renewal extension
(7 days unless set with --max-days). A returned book starts a new loan
for the current user. An overdue book must be returned first.`,
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execRenew(io, a, args)
		},
	}
}

func execRenew(io *IO, a *app, args []string) error {
	if len(args) == 0 {
		return shelf.ErrIDRequired
	}

	r, err := a.shelf.Renew(args[0], a.user())
	if err != nil {
		return err
	}

	io.Println(r.Message)

	return nil
}
