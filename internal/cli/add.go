package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	flag "github.com/spf13/pflag"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AddCmd returns the add command.
func AddCmd(a *app) *Command {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.StringP("title", "t", "", "Title")
	fs.StringArrayP("author", "a", nil, "Author (repeatable)")
	fs.String("id", "", "Catalog key (e.g. /works/OL45883W); generated when absent")
	fs.String("cover", "", "Cover reference")
	fs.StringP("description", "d", "", "Description")
	fs.StringP("borrower", "b", "", "Borrower [default: current user]")
	fs.Int("max-days", 0, "Renewal extension in days [default: 7]")

	return &Command{
		Flags: fs,
		Usage: "add [flags] [payload]",
		Short: "Put a book on the shelf",
		Long: `Put a book on the shelf as a new loan.

The book is described either by a JSON payload (a catalog search result,
or "-" to read it from stdin) or by field flags. Missing fields get
defaults: title "Untitled", reading status reading, loaned to the
current user as of now. Prints the id of the new item.`,
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execAdd(io, a, fs, args)
		},
	}
}

func execAdd(io *IO, a *app, fs *flag.FlagSet, args []string) error {
	fieldsSet := fs.NFlag() > 0

	var payload []byte

	switch {
	case len(args) > 0 && fieldsSet:
		return errPayloadAndFields
	case len(args) > 0 && args[0] == "-":
		data, err := readAll(a.stdin)
		if err != nil {
			return fmt.Errorf("reading payload: %w", err)
		}

		payload = data
	case len(args) > 0:
		payload = []byte(args[0])
	default:
		data, err := payloadFromFlags(fs)
		if err != nil {
			return err
		}

		payload = data
	}

	it, err := a.shelf.Save(payload, a.user())
	if err != nil {
		return err
	}

	io.Println(it.ID)

	return nil
}

// payloadFromFlags builds the same payload a catalog search result would
// carry, so flags and JSON go through one normalization path.
func payloadFromFlags(fs *flag.FlagSet) ([]byte, error) {
	fields := map[string]any{}

	for _, name := range []string{"title", "id", "description", "borrower"} {
		if !fs.Changed(name) {
			continue
		}

		v, _ := fs.GetString(name)
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("%w: --%s", errEmptyValue, name)
		}

		fields[name] = v
	}

	if fs.Changed("cover") {
		v, _ := fs.GetString("cover")
		fields["cover_ref"] = v
	}

	if fs.Changed("author") {
		v, _ := fs.GetStringArray("author")
		fields["authors"] = v
	}

	if fs.Changed("max-days") {
		v, _ := fs.GetInt("max-days")
		if v < 0 {
			return nil, errNegativeDays
		}

		fields["max_days_allowed"] = v
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	return data, nil
}

func readAll(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, nil
	}

	return io.ReadAll(r)
}
