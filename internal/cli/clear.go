package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

// ClearCmd returns the clear command.
func ClearCmd(a *app) *Command {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	fs.Bool("yes", false, "Confirm removing every book")

	return &Command{
		Flags: fs,
		Usage: "clear --yes",
		Short: "Remove every book",
		Long:  "Remove every book from the shelf. Requires --yes.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			yes, _ := fs.GetBool("yes")
			if !yes {
				return errConfirmRequired
			}

			if err := a.shelf.Clear(); err != nil {
				return err
			}

			io.Println("Cleared the shelf.")

			return nil
		},
	}
}
