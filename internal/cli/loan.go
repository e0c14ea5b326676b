package cli

import (
	"context"

	"github.com/calvinalkan/shelf/internal/shelf"

	flag "github.com/spf13/pflag"
)

// ReturnCmd returns the return command.
func ReturnCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("return", flag.ContinueOnError),
		Usage: "return <id>",
		Short: "Mark a book as returned",
		Long: `Mark a book as returned.

A book still being read becomes interrupted. A book read or being reread
becomes read.`,
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execSetLoan(io, a, args, shelf.Returned, "Returned")
		},
	}
}

// LoanCmd returns the loan command.
func LoanCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("loan", flag.ContinueOnError),
		Usage: "loan <id>",
		Short: "Mark a book as loaned",
		Long: `Mark a book as loaned. A book without a loan date gets one as of now.

To start a new loan of a returned book, use renew.`,
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execSetLoan(io, a, args, shelf.Loaned, "Loaned")
		},
	}
}

func execSetLoan(io *IO, a *app, args []string, status shelf.LoanStatus, verb string) error {
	if len(args) == 0 {
		return shelf.ErrIDRequired
	}

	it, err := a.shelf.SetLoanStatus(args[0], status)
	if err != nil {
		return err
	}

	io.Println(verb + " " + it.ID + " (reading: " + orDash(string(it.ReadingStatus)) + ")")

	return nil
}
