package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/calvinalkan/shelf/internal/shelf"

	flag "github.com/spf13/pflag"
)

// LsCmd returns the ls command.
func LsCmd(a *app) *Command {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.String("status", "", "Filter by loan status (loaned|returned|overdue)")
	fs.String("reading", "", "Filter by reading status (reading|read|rereading|interrupted)")

	return &Command{
		Flags: fs,
		Usage: "ls [flags]",
		Short: "List books",
		Long: `List the books on the shelf in the order they were added.

Runs the overdue sweep first, then prints reminders for loans that are
overdue or due within a day.`,
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execLs(io, a, fs)
		},
	}
}

func execLs(io *IO, a *app, fs *flag.FlagSet) error {
	var (
		loanFilter    shelf.LoanStatus
		readingFilter shelf.ReadingStatus
	)

	if fs.Changed("status") {
		v, _ := fs.GetString("status")

		status, ok := shelf.ParseLoanStatus(v)
		if !ok {
			return fmt.Errorf("%w: %q", shelf.ErrInvalidLoan, v)
		}

		loanFilter = status
	}

	if fs.Changed("reading") {
		v, _ := fs.GetString("reading")

		status, ok := shelf.ParseReadingStatus(v)
		if !ok {
			return fmt.Errorf("%w: %q", shelf.ErrInvalidReading, v)
		}

		readingFilter = status
	}

	if _, err := a.shelf.CheckOverdues(); err != nil {
		return err
	}

	items := a.shelf.All()
	now := a.shelf.Now()

	var shown []shelf.Item

	for _, it := range items {
		if loanFilter != "" && it.LoanStatus != loanFilter {
			continue
		}

		if readingFilter != "" && it.ReadingStatus != readingFilter {
			continue
		}

		shown = append(shown, it)
	}

	if len(items) == 0 {
		io.Println("The shelf is empty.")

		return nil
	}

	if len(shown) > 0 {
		io.Printf("%s", formatTable(shown, now))
	}

	printReminders(io, items, now)

	return nil
}

func formatTable(items []shelf.Item, now time.Time) string {
	var buf strings.Builder

	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tLOAN\tREADING\tDUE\tTITLE")

	for _, it := range items {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			it.ID, orDash(string(it.LoanStatus)), orDash(string(it.ReadingStatus)), dueLabel(it, now), it.Title)
	}

	_ = tw.Flush()

	return buf.String()
}

// dueLabel describes the due date of an active loan relative to now.
func dueLabel(it shelf.Item, now time.Time) string {
	if it.LoanStatus == shelf.Overdue {
		return "overdue"
	}

	if it.LoanStatus != shelf.Loaned {
		return "-"
	}

	days, ok := shelf.DaysUntilOverdue(it.LoanDate, now)
	if !ok {
		return "-"
	}

	switch {
	case days <= 0:
		return "overdue"
	case days == 1:
		return "in 1 day"
	default:
		return "in " + strconv.Itoa(days) + " days"
	}
}

func printReminders(io *IO, items []shelf.Item, now time.Time) {
	reminders := shelf.Reminders(items, now)
	if len(reminders) == 0 {
		return
	}

	io.Println()

	for _, r := range reminders {
		io.Printf("%s [%s] %s\n", reminderMark(r.Urgency), r.ItemID, r.Message)
	}
}

func reminderMark(u shelf.Urgency) string {
	if u == shelf.UrgencyOverdue {
		return "!!"
	}

	return "!"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
