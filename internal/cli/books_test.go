package cli_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/calvinalkan/shelf/internal/cli"
)

// oldLoan is a shelf file holding one loan from long ago that has not been
// swept yet.
const oldLoan = `{"version":1,"items":[{"id":"old","title":"Old Book","authors":[],` +
	`"description":"x","borrower":"ana","reading_status":"reading","loan_status":"loaned",` +
	`"loan_date":"2020-01-01T00:00:00Z","added_at":"2020-01-01T00:00:00Z"}]}`

func Test_Add_Prints_ID_When_Given_Flags(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	id := c.MustRun("--user", "ana", "add", "--title", "Dune", "-a", "Frank Herbert", "--id", "/works/OL45883W")

	if got, want := id, "OL45883W"; got != want {
		t.Errorf("id=%q, want=%q", got, want)
	}

	content := c.ReadShelf()
	cli.AssertContains(t, content, `"title":"Dune"`)
	cli.AssertContains(t, content, `"authors":["Frank Herbert"]`)
	cli.AssertContains(t, content, `"borrower":"ana"`)
	cli.AssertContains(t, content, `"loan_status":"loaned"`)
	cli.AssertContains(t, content, `"reading_status":"reading"`)
}

func Test_Add_Generates_ID_When_Payload_Has_No_Key(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	id := c.MustRun("add", "--title", "Notes")

	if len(id) != 12 {
		t.Errorf("id=%q, want a 12-char generated id", id)
	}

	cli.AssertContains(t, c.MustRun("show", id), "title: Notes")
}

func Test_Add_Reads_Payload_When_Given_As_Argument_Or_Stdin(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	id := c.MustRun("add", `{"key":"/works/OL1W","title":"Emma","author_name":["Jane Austen"]}`)
	if id != "OL1W" {
		t.Errorf("id=%q, want=%q", id, "OL1W")
	}

	stdout, stderr, code := c.RunWithInput(`{"isbn":["9780441013593"],"title":"Dune"}`, "add", "-")
	if code != 0 {
		t.Fatalf("add from stdin failed: %s", stderr)
	}

	if got := strings.TrimSpace(stdout); got != "9780441013593" {
		t.Errorf("id=%q, want=%q", got, "9780441013593")
	}

	show := c.MustRun("show", "OL1W")
	cli.AssertContains(t, show, "authors: Jane Austen")
	cli.AssertContains(t, show, `raw: {"key":"/works/OL1W","title":"Emma","author_name":["Jane Austen"]}`)
}

func Test_Add_Fails_When_Input_Conflicts(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	cli.AssertContains(t, c.MustFail("add", "--title", "A", `{"title":"B"}`), "either a JSON payload or field flags")
	cli.AssertContains(t, c.MustFail("add", "--title", " "), "empty value not allowed: --title")
	cli.AssertContains(t, c.MustFail("add", "--max-days", "-1"), "--max-days must be non-negative")

	c.MustRun("add", "--id", "d1")
	cli.AssertContains(t, c.MustFail("add", "--id", "d1"), "item already on shelf: d1")
}

func Test_Ls_Shows_Empty_Shelf_When_Nothing_Added(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	if got, want := c.MustRun("ls"), "The shelf is empty."; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}
}

func Test_Ls_Lists_Books_When_Added(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("add", "--title", "Dune", "--id", "d1")
	c.MustRun("add", "--title", "Emma", "--id", "e1")
	c.MustRun("return", "e1")

	stdout := c.MustRun("ls")
	lines := strings.Split(stdout, "\n")

	if len(lines) != 3 {
		t.Fatalf("want header and two rows, got:\n%s", stdout)
	}

	cli.AssertContains(t, lines[0], "ID")
	cli.AssertContains(t, lines[0], "DUE")
	cli.AssertContains(t, lines[1], "d1")
	cli.AssertContains(t, lines[1], "in 7 days")
	cli.AssertContains(t, lines[2], "returned")
	cli.AssertContains(t, lines[2], "interrupted")

	filtered := c.MustRun("ls", "--status", "returned")
	cli.AssertContains(t, filtered, "e1")
	cli.AssertNotContains(t, filtered, "d1")

	byReading := c.MustRun("ls", "--reading", "reading")
	cli.AssertContains(t, byReading, "d1")
	cli.AssertNotContains(t, byReading, "e1")

	cli.AssertContains(t, c.MustFail("ls", "--status", "lost"), "invalid loan status")
	cli.AssertContains(t, c.MustFail("ls", "--reading", "skimmed"), "invalid reading status")
}

func Test_Ls_Sweeps_And_Reminds_When_Loan_Is_Old(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteShelf(oldLoan)

	stdout := c.MustRun("ls")

	cli.AssertContains(t, stdout, "overdue")
	cli.AssertContains(t, stdout, `!! [old] ana, your book "Old Book" is OVERDUE! Please return it now.`)
	cli.AssertContains(t, c.ReadShelf(), `"loan_status":"overdue"`)
}

func Test_Ls_Recovers_When_Shelf_Corrupt(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteShelf(`{"version":1,"items":[`)

	stdout, stderr, code := c.Run("ls")

	if code != 0 {
		t.Fatalf("exitCode=%d, want=0\nstderr: %s", code, stderr)
	}

	cli.AssertContains(t, stdout, "The shelf is empty.")
	cli.AssertContains(t, stderr, "corrupt shelf, treating as empty")
}

func Test_Add_Keeps_Mistyped_Shelf_Aside_When_Overwriting(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	damaged := `{"version":1,"items":[{"id":"a","title":"A"},{"id":"b","title":"B","max_days_allowed":"7"}]}`
	c.WriteShelf(damaged)

	_, stderr, code := c.Run("--user", "ana", "add", "--title", "Dune", "--id", "d1")

	if code != 0 {
		t.Fatalf("exitCode=%d, want=0\nstderr: %s", code, stderr)
	}

	cli.AssertContains(t, stderr, "reset mistyped fields")

	shelfJSON := c.ReadShelf()
	cli.AssertContains(t, shelfJSON, `"id":"a"`)
	cli.AssertContains(t, shelfJSON, `"id":"b"`)
	cli.AssertContains(t, shelfJSON, `"id":"d1"`)

	if got := c.ReadFile(filepath.Join(".shelf", "shelf.json.corrupt")); got != damaged {
		t.Errorf("backup=%q, want=%q", got, damaged)
	}
}

func Test_Show_Prints_Fields_When_Found(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("--user", "ana", "add", "--title", "Dune", "--id", "d1", "--max-days", "14", "--cover", "123")

	stdout := c.MustRun("show", "d1")

	cli.AssertContains(t, stdout, "id: d1")
	cli.AssertContains(t, stdout, "title: Dune")
	cli.AssertContains(t, stdout, "description: No description available")
	cli.AssertContains(t, stdout, "cover: 123")
	cli.AssertContains(t, stdout, "borrower: ana")
	cli.AssertContains(t, stdout, "loan_status: loaned")
	cli.AssertContains(t, stdout, "(in 7 days)")
	cli.AssertContains(t, stdout, "max_days_allowed: 14")

	asJSON := c.MustRun("show", "--json", "d1")
	cli.AssertContains(t, asJSON, `"id": "d1"`)
	cli.AssertContains(t, asJSON, `"max_days_allowed": 14`)
}

func Test_Show_Fails_When_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	cli.AssertContains(t, c.MustFail("show", "nope"), "item not found: nope")
	cli.AssertContains(t, c.MustFail("show"), "item ID is required")
}

func Test_Edit_Changes_Fields_When_Flags_Given(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("add", "--title", "Dune", "--id", "d1")

	if got, want := c.MustRun("edit", "d1", "--title", "Dune Messiah", "-a", "Frank Herbert", "-a", "Brian Herbert",
		"--loan-date", "2024-02-01", "--borrower", "carl"), "Updated d1"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	stdout := c.MustRun("show", "d1")
	cli.AssertContains(t, stdout, "title: Dune Messiah")
	cli.AssertContains(t, stdout, "authors: Frank Herbert, Brian Herbert")
	cli.AssertContains(t, stdout, "borrower: carl")
	cli.AssertContains(t, stdout, "loan_date: 2024-02-01T00:00:00Z")
}

func Test_Edit_Fails_When_Input_Invalid(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("add", "--id", "d1")

	cli.AssertContains(t, c.MustFail("edit", "d1"), "nothing to edit")
	cli.AssertContains(t, c.MustFail("edit", "d1", "--loan-date", "soon"), "invalid date")
	cli.AssertContains(t, c.MustFail("edit", "d1", "--reading", "skimmed"), "invalid reading status")
	cli.AssertContains(t, c.MustFail("edit", "d1", "--status", "lost"), "invalid loan status")
	cli.AssertContains(t, c.MustFail("edit", "nope", "--title", "x"), "item not found: nope")
	cli.AssertContains(t, c.MustFail("edit", "--title", "x"), "item ID is required")
}

func Test_Rm_Removes_Books_When_Present_Or_Not(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("add", "--id", "d1")
	c.MustRun("add", "--id", "d2")

	if got, want := c.MustRun("rm", "d1", "nope"), "Removed d1\nRemoved nope"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	stdout := c.MustRun("ls")
	cli.AssertNotContains(t, stdout, "d1")
	cli.AssertContains(t, stdout, "d2")
}

func Test_Clear_Requires_Confirmation_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("add", "--id", "d1")

	cli.AssertContains(t, c.MustFail("clear"), "without --yes")
	cli.AssertContains(t, c.MustRun("ls"), "d1")

	if got, want := c.MustRun("clear", "--yes"), "Cleared the shelf."; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	if got, want := c.MustRun("ls"), "The shelf is empty."; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}
}
