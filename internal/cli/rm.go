package cli

import (
	"context"

	"github.com/calvinalkan/shelf/internal/shelf"

	flag "github.com/spf13/pflag"
)

// RmCmd returns the rm command.
func RmCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("rm", flag.ContinueOnError),
		Usage: "rm <id>...",
		Short: "Remove books",
		Long:  "Remove books from the shelf. Unknown ids are ignored.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execRm(io, a, args)
		},
	}
}

func execRm(io *IO, a *app, args []string) error {
	if len(args) == 0 {
		return shelf.ErrIDRequired
	}

	for _, id := range args {
		if err := a.shelf.Remove(id); err != nil {
			return err
		}

		io.Println("Removed " + id)
	}

	return nil
}
