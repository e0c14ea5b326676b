package cli

import (
	"context"

	"github.com/calvinalkan/shelf/internal/shelf"

	flag "github.com/spf13/pflag"
)

// SweepCmd returns the sweep command.
func SweepCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("sweep", flag.ContinueOnError),
		Usage: "sweep",
		Short: "Flag overdue loans",
		Long:  "Flag every loan older than 7 days as overdue. The shelf is only written when something changed.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execSweep(io, a)
		},
	}
}

func execSweep(io *IO, a *app) error {
	var swept []string

	unsubscribe := a.shelf.Subscribe(func(c shelf.Change) {
		if c.Action == shelf.ActionSwept {
			swept = append(swept, c.Swept...)
		}
	})
	defer unsubscribe()

	changed, err := a.shelf.CheckOverdues()
	if err != nil {
		return err
	}

	if !changed {
		io.Println("No new overdue loans.")

		return nil
	}

	for _, id := range swept {
		io.Println("Overdue " + id)
	}

	return nil
}
