package cli

import (
	"context"
	"fmt"

	"github.com/calvinalkan/shelf/internal/shelf"

	flag "github.com/spf13/pflag"
)

// ReadCmd returns the read command.
func ReadCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("read", flag.ContinueOnError),
		Usage: "read <id> <status>",
		Short: "Set reading status",
		Long: `Set the reading status of a book: reading, read, rereading or interrupted.

The reading status of a returned book is locked and is left unchanged.`,
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execRead(io, a, args)
		},
	}
}

func execRead(io *IO, a *app, args []string) error {
	if len(args) == 0 {
		return shelf.ErrIDRequired
	}

	if len(args) < 2 {
		return errStatusRequired
	}

	status, ok := shelf.ParseReadingStatus(args[1])
	if !ok {
		return fmt.Errorf("%w: %q", shelf.ErrInvalidReading, args[1])
	}

	it, err := a.shelf.Update(args[0], shelf.Patch{ReadingStatus: &status})
	if err != nil {
		return err
	}

	if it.ReadingStatus != status {
		io.Warn(
			fmt.Sprintf("%s is returned, reading status stays %s", it.ID, orDash(string(it.ReadingStatus))),
			"renew the loan first to change how far you got",
		)
	}

	io.Println("Reading status of " + it.ID + ": " + orDash(string(it.ReadingStatus)))

	return nil
}
