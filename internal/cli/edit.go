package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/calvinalkan/shelf/internal/shelf"

	flag "github.com/spf13/pflag"
)

// EditCmd returns the edit command.
func EditCmd(a *app) *Command {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.StringP("title", "t", "", "Title")
	fs.StringArrayP("author", "a", nil, "Author (repeatable, replaces all authors)")
	fs.String("cover", "", "Cover reference")
	fs.StringP("description", "d", "", "Description")
	fs.StringP("borrower", "b", "", "Borrower")
	fs.String("reading", "", "Reading status (reading|read|rereading|interrupted)")
	fs.String("status", "", "Loan status (loaned|returned|overdue), no side effects")
	fs.String("loan-date", "", "Loan date (YYYY-MM-DD or RFC 3339)")
	fs.Int("max-days", 0, "Renewal extension in days (0 resets to 7)")

	return &Command{
		Flags: fs,
		Usage: "edit <id> [flags]",
		Short: "Change book fields",
		Long: `Change fields of a book. Only the given flags are changed.

Unlike return and loan, --status sets the loan status as is. A loaned or
overdue book without a loan date gets one stamped as of now.`,
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execEdit(io, a, fs, args)
		},
	}
}

func execEdit(io *IO, a *app, fs *flag.FlagSet, args []string) error {
	if len(args) == 0 {
		return shelf.ErrIDRequired
	}

	p, err := patchFromFlags(fs)
	if err != nil {
		return err
	}

	it, err := a.shelf.Update(args[0], p)
	if err != nil {
		return err
	}

	io.Println("Updated " + it.ID)

	return nil
}

func patchFromFlags(fs *flag.FlagSet) (shelf.Patch, error) {
	if fs.NFlag() == 0 {
		return shelf.Patch{}, errNothingToEdit
	}

	var p shelf.Patch

	stringField := func(name string) *string {
		if !fs.Changed(name) {
			return nil
		}

		v, _ := fs.GetString(name)

		return &v
	}

	p.Title = stringField("title")
	p.CoverRef = stringField("cover")
	p.Description = stringField("description")
	p.Borrower = stringField("borrower")

	if fs.Changed("author") {
		v, _ := fs.GetStringArray("author")
		p.Authors = &v
	}

	if v := stringField("reading"); v != nil {
		status, ok := shelf.ParseReadingStatus(*v)
		if !ok {
			return shelf.Patch{}, fmt.Errorf("%w: %q", shelf.ErrInvalidReading, *v)
		}

		p.ReadingStatus = &status
	}

	if v := stringField("status"); v != nil {
		status, ok := shelf.ParseLoanStatus(*v)
		if !ok {
			return shelf.Patch{}, fmt.Errorf("%w: %q", shelf.ErrInvalidLoan, *v)
		}

		p.LoanStatus = &status
	}

	if v := stringField("loan-date"); v != nil {
		d, err := parseDate(*v)
		if err != nil {
			return shelf.Patch{}, err
		}

		p.LoanDate = &d
	}

	if fs.Changed("max-days") {
		v, _ := fs.GetInt("max-days")
		if v < 0 {
			return shelf.Patch{}, errNegativeDays
		}

		p.MaxDaysAllowed = &v
	}

	return p, nil
}

// parseDate accepts a calendar date (midnight UTC) or a full timestamp.
func parseDate(s string) (time.Time, error) {
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return d.UTC(), nil
	}

	if d, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return d.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", errInvalidDate, s)
}
