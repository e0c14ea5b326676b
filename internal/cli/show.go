package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/calvinalkan/shelf/internal/shelf"

	flag "github.com/spf13/pflag"
)

// ShowCmd returns the show command.
func ShowCmd(a *app) *Command {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.Bool("json", false, "Print the stored record as JSON")

	return &Command{
		Flags: fs,
		Usage: "show <id>",
		Short: "Show book details",
		Long:  "Display every field of a book, including the catalog payload it was added from.",
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execShow(io, a, fs, args)
		},
	}
}

func execShow(io *IO, a *app, fs *flag.FlagSet, args []string) error {
	if len(args) == 0 {
		return shelf.ErrIDRequired
	}

	it, ok := a.shelf.Get(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", shelf.ErrNotFound, args[0])
	}

	asJSON, _ := fs.GetBool("json")
	if asJSON {
		data, err := json.MarshalIndent(it, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding item: %w", err)
		}

		io.Println(string(data))

		return nil
	}

	now := a.shelf.Now()

	io.Println("id: " + it.ID)
	io.Println("title: " + it.Title)
	io.Println("authors: " + strings.Join(it.Authors, ", "))
	io.Println("description: " + it.Description)

	if it.CoverRef != "" {
		io.Println("cover: " + it.CoverRef)
	}

	io.Println("borrower: " + orDash(it.Borrower))
	io.Println("loan_status: " + orDash(string(it.LoanStatus)))
	io.Println("reading_status: " + orDash(string(it.ReadingStatus)))

	if it.LoanDate != nil {
		io.Println("loan_date: " + it.LoanDate.Format(time.RFC3339))
		io.Println("due: " + shelf.DueDate(*it.LoanDate).Format(time.DateOnly) + " (" + dueLabel(it, now) + ")")
	}

	if it.MaxDaysAllowed > 0 {
		io.Println("max_days_allowed: " + strconv.Itoa(it.MaxDaysAllowed))
	}

	io.Println("added_at: " + it.AddedAt.Format(time.RFC3339))

	if len(it.Raw) > 0 {
		io.Println("raw: " + string(it.Raw))
	}

	return nil
}
