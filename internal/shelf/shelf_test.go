package shelf_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/shelf/internal/shelf"
	"github.com/calvinalkan/shelf/internal/store"
	"github.com/calvinalkan/shelf/internal/testutil"
)

var errDiskFull = errors.New("disk full")

type fixture struct {
	shelf *shelf.Shelf
	store *store.Memory
	clock *testutil.Clock
}

func newFixture(t *testing.T, items ...shelf.Item) *fixture {
	t.Helper()

	st := store.NewMemory(items...)
	clock := testutil.NewClock()

	return &fixture{
		shelf: shelf.New(shelf.Options{Store: st, Now: clock.Now}),
		store: st,
		clock: clock,
	}
}

// sequenceIDs returns an id generator that yields ids in order.
func sequenceIDs(ids ...string) func() (string, error) {
	var mu sync.Mutex

	next := 0

	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()

		if next >= len(ids) {
			return "", errors.New("out of ids")
		}

		id := ids[next]
		next++

		return id, nil
	}
}

func Test_Save_Then_Get_Returns_Same_Item_When_Saved(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	saved, err := f.shelf.Save([]byte(`{"key":"/works/OL1W","title":"Dune","author_name":["Frank Herbert"]}`), "ana")
	require.NoError(t, err)

	got, ok := f.shelf.Get(saved.ID)
	require.True(t, ok, "saved item should be found")

	if diff := cmp.Diff(saved, got); diff != "" {
		t.Errorf("round trip mismatch (-saved +got):\n%s", diff)
	}

	if saved.ID != "OL1W" {
		t.Errorf("id=%q, want=%q", saved.ID, "OL1W")
	}

	if saved.LoanStatus != shelf.Loaned || saved.ReadingStatus != shelf.Reading {
		t.Errorf("statuses=%q/%q, want loaned/reading", saved.LoanStatus, saved.ReadingStatus)
	}

	if !saved.AddedAt.Equal(testutil.Start) || !saved.LoanDate.Equal(testutil.Start) {
		t.Errorf("added_at=%s loan_date=%s, want both %s", saved.AddedAt, saved.LoanDate, testutil.Start)
	}

	if saved.Borrower != "ana" {
		t.Errorf("borrower=%q, want=%q", saved.Borrower, "ana")
	}
}

func Test_Save_Generates_ID_When_Payload_Has_No_Key(t *testing.T) {
	t.Parallel()

	st := store.NewMemory(loanedItem("TAKEN", nil))
	s := shelf.New(shelf.Options{Store: st, NewID: sequenceIDs("TAKEN", "FRESH")})

	saved, err := s.Save([]byte(`{"title":"Untracked"}`), "")
	require.NoError(t, err)

	if saved.ID != "FRESH" {
		t.Errorf("id=%q, want=%q", saved.ID, "FRESH")
	}

	require.Len(t, s.All(), 2)
}

func Test_Save_Fails_When_IDs_Keep_Colliding(t *testing.T) {
	t.Parallel()

	st := store.NewMemory(loanedItem("TAKEN", nil))
	s := shelf.New(shelf.Options{
		Store: st,
		NewID: func() (string, error) { return "TAKEN", nil },
	})

	_, err := s.Save([]byte(`{}`), "")
	require.ErrorIs(t, err, shelf.ErrIDGenerationFailed)
	require.Equal(t, 0, st.Writes())
}

func Test_Save_Refuses_Duplicate_When_ID_Exists(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.shelf.Save([]byte(`{"id":"b1"}`), "")
	require.NoError(t, err)

	_, err = f.shelf.Save([]byte(`{"id":"b1","title":"Again"}`), "")
	require.ErrorIs(t, err, shelf.ErrDuplicateID)

	require.Len(t, f.shelf.All(), 1)
	require.Equal(t, 1, f.store.Writes())
}

func Test_Save_Returns_Error_When_Write_Fails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.store.FailWrites(errDiskFull)

	_, err := f.shelf.Save([]byte(`{"id":"b1"}`), "")
	require.ErrorIs(t, err, errDiskFull)
	require.ErrorContains(t, err, "writing shelf")
	require.Empty(t, f.shelf.All())
}

func Test_Get_Returns_False_When_Missing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, loanedItem("a", nil))

	_, ok := f.shelf.Get("nope")
	require.False(t, ok)
}

func Test_All_Returns_Independent_Copies_When_Mutated(t *testing.T) {
	t.Parallel()

	f := newFixture(t, loanedItem("a", daysAgo(1)))

	items := f.shelf.All()
	items[0].Title = "changed"
	items[0].Authors = append(items[0].Authors, "someone")
	*items[0].LoanDate = t0

	got, _ := f.shelf.Get("a")

	if diff := cmp.Diff(loanedItem("a", daysAgo(1)), got); diff != "" {
		t.Errorf("stored item changed through a read copy (-want +got):\n%s", diff)
	}
}

// Contract: Update on a returned item never changes its reading status.
func Test_Update_Leaves_Reading_Status_When_Item_Returned(t *testing.T) {
	t.Parallel()

	f := newFixture(t, loanedItem("a", daysAgo(2)))

	_, err := f.shelf.SetLoanStatus("a", shelf.Returned)
	require.NoError(t, err)

	read := shelf.Read

	updated, err := f.shelf.Update("a", shelf.Patch{ReadingStatus: &read})
	require.NoError(t, err)

	if updated.ReadingStatus != shelf.Interrupted {
		t.Errorf("reading=%q, want=%q", updated.ReadingStatus, shelf.Interrupted)
	}

	got, _ := f.shelf.Get("a")
	if got.ReadingStatus != shelf.Interrupted {
		t.Errorf("stored reading=%q, want=%q", got.ReadingStatus, shelf.Interrupted)
	}
}

func Test_Update_Returns_NotFound_When_Missing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	title := "x"

	_, err := f.shelf.Update("nope", shelf.Patch{Title: &title})
	require.ErrorIs(t, err, shelf.ErrNotFound)
	require.ErrorContains(t, err, "nope")
	require.Equal(t, 0, f.store.Writes())
}

func Test_SetLoanStatus_Rejects_Unknown_Status_When_Called(t *testing.T) {
	t.Parallel()

	f := newFixture(t, loanedItem("a", nil))

	_, err := f.shelf.SetLoanStatus("a", "lost")
	require.ErrorIs(t, err, shelf.ErrInvalidLoan)
	require.Equal(t, 0, f.store.Writes())
}

func Test_SetLoanStatus_Returns_NotFound_When_Missing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.shelf.SetLoanStatus("nope", shelf.Returned)
	require.ErrorIs(t, err, shelf.ErrNotFound)
}

// Scenario: a read book that was returned renews into a fresh loan and keeps
// its reading status.
func Test_Renew_Reactivates_Returned_Read_Book_When_Called(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	saved, err := f.shelf.Save([]byte(`{"id":"b1","title":"Emma","readingStatus":"read"}`), "ana")
	require.NoError(t, err)

	_, err = f.shelf.SetLoanStatus(saved.ID, shelf.Returned)
	require.NoError(t, err)

	now := f.clock.AdvanceDays(30)

	r, err := f.shelf.Renew(saved.ID, "bob")
	require.NoError(t, err)

	got, _ := f.shelf.Get(saved.ID)

	if diff := cmp.Diff(r.Item, got); diff != "" {
		t.Errorf("stored item differs from renewal result (-renewal +stored):\n%s", diff)
	}

	if got.LoanStatus != shelf.Loaned || got.ReadingStatus != shelf.Read {
		t.Errorf("statuses=%q/%q, want loaned/read", got.LoanStatus, got.ReadingStatus)
	}

	if !got.LoanDate.Equal(now) || !got.AddedAt.Equal(now) {
		t.Errorf("loan_date=%s added_at=%s, want both %s", got.LoanDate, got.AddedAt, now)
	}

	if got.Borrower != "bob" {
		t.Errorf("borrower=%q, want=%q", got.Borrower, "bob")
	}
}

func Test_Renew_Writes_Nothing_When_Refused(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.shelf.Save([]byte(`{"id":"b1"}`), "")
	require.NoError(t, err)

	f.clock.AdvanceDays(8)

	changed, err := f.shelf.CheckOverdues()
	require.NoError(t, err)
	require.True(t, changed)

	before := f.store.Writes()
	stored, _ := f.shelf.Get("b1")

	_, err = f.shelf.Renew("b1", "ana")
	require.ErrorIs(t, err, shelf.ErrRenewOverdue)

	require.Equal(t, before, f.store.Writes())

	after, _ := f.shelf.Get("b1")
	if diff := cmp.Diff(stored, after); diff != "" {
		t.Errorf("refused renewal changed the item (-before +after):\n%s", diff)
	}

	_, err = f.shelf.Renew("nope", "ana")
	require.ErrorIs(t, err, shelf.ErrNotFound)
}

func Test_Renew_Extends_From_Renewal_Moment_When_Loaned(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.shelf.Save([]byte(`{"id":"b1","max_days_allowed":10}`), "")
	require.NoError(t, err)

	now := f.clock.AdvanceDays(3)

	r, err := f.shelf.Renew("b1", "")
	require.NoError(t, err)
	require.Equal(t, shelf.Extended, r.Kind)

	want := now.AddDate(0, 0, 10)
	if !r.Item.LoanDate.Equal(want) {
		t.Errorf("loan date=%s, want=%s", r.Item.LoanDate, want)
	}
}

func Test_Remove_Is_Idempotent_When_Item_Missing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, loanedItem("a", nil), loanedItem("b", nil))

	require.NoError(t, f.shelf.Remove("a"))
	require.NoError(t, f.shelf.Remove("a"))
	require.NoError(t, f.shelf.Remove("never"))

	items := f.shelf.All()
	require.Len(t, items, 1)
	require.Equal(t, "b", items[0].ID)
	require.Equal(t, 1, f.store.Writes())
}

func Test_Remove_Returns_Error_When_Write_Fails(t *testing.T) {
	t.Parallel()

	f := newFixture(t, loanedItem("a", nil))
	f.store.FailWrites(errDiskFull)

	require.ErrorIs(t, f.shelf.Remove("a"), errDiskFull)
}

// Scenario: an 8-day-old loan is flagged by the sweep and a second sweep
// finds nothing to do.
func Test_CheckOverdues_Persists_Only_When_Changed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.shelf.Save([]byte(`{"id":"b1"}`), "")
	require.NoError(t, err)

	f.clock.AdvanceDays(7)

	changed, err := f.shelf.CheckOverdues()
	require.NoError(t, err)
	require.False(t, changed, "exactly seven days is not overdue")
	require.Equal(t, 1, f.store.Writes())

	f.clock.AdvanceDays(1)

	changed, err = f.shelf.CheckOverdues()
	require.NoError(t, err)
	require.True(t, changed)

	got, _ := f.shelf.Get("b1")
	require.Equal(t, shelf.Overdue, got.LoanStatus)

	changed, err = f.shelf.CheckOverdues()
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, 2, f.store.Writes())
}

func Test_Clear_Removes_Everything_When_Called(t *testing.T) {
	t.Parallel()

	f := newFixture(t, loanedItem("a", nil), loanedItem("b", nil))

	require.NoError(t, f.shelf.Clear())
	require.Empty(t, f.shelf.All())
}

func Test_Subscribe_Receives_Changes_When_Mutations_Persist(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	var got []string

	unsubscribe := f.shelf.Subscribe(func(c shelf.Change) {
		got = append(got, fmt.Sprintf("%s %s %v %d", c.Action, c.ID, c.Swept, c.Size))
	})

	_, err := f.shelf.Save([]byte(`{"id":"a"}`), "")
	require.NoError(t, err)

	_, err = f.shelf.Save([]byte(`{"id":"b"}`), "")
	require.NoError(t, err)

	_, err = f.shelf.SetLoanStatus("a", shelf.Returned)
	require.NoError(t, err)

	f.clock.AdvanceDays(8)

	_, err = f.shelf.CheckOverdues()
	require.NoError(t, err)

	_, err = f.shelf.Renew("a", "")
	require.NoError(t, err)

	_, err = f.shelf.Renew("b", "")
	require.Error(t, err)

	require.NoError(t, f.shelf.Remove("a"))
	require.NoError(t, f.shelf.Remove("a"))
	require.NoError(t, f.shelf.Clear())

	unsubscribe()

	_, err = f.shelf.Save([]byte(`{"id":"c"}`), "")
	require.NoError(t, err)

	want := []string{
		"added a [] 1",
		"added b [] 2",
		"updated a [] 2",
		"swept  [b] 2",
		"renewed a [] 2",
		"removed a [] 1",
		"cleared  [] 0",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
}

func Test_Subscriber_Can_Read_Shelf_When_Notified(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	var sizes []int

	f.shelf.Subscribe(func(shelf.Change) {
		sizes = append(sizes, len(f.shelf.All()))
	})

	_, err := f.shelf.Save([]byte(`{"id":"a"}`), "")
	require.NoError(t, err)

	require.Equal(t, []int{1}, sizes)
}

func Test_Shelf_Serializes_Turns_When_Called_Concurrently(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := f.shelf.Save(fmt.Appendf(nil, `{"id":"b%d"}`, i), "")
			if err != nil {
				t.Errorf("save %d: %v", i, err)
			}
		}()
	}

	wg.Wait()

	require.Len(t, f.shelf.All(), 20)
	require.Equal(t, 20, f.store.Writes())
}
