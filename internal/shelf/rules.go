package shelf

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// LoanDays is the loan window used by the overdue horizon and as the
// default extension for renewals.
const LoanDays = 7

const day = 24 * time.Hour

// LoanDays returns the extension applied when a loan is renewed:
// MaxDaysAllowed when set, LoanDays otherwise.
func (it Item) LoanDays() int {
	if it.MaxDaysAllowed > 0 {
		return it.MaxDaysAllowed
	}

	return LoanDays
}

// DueDate is loanDate plus the fixed loan window. MaxDaysAllowed is ignored.
func DueDate(loanDate time.Time) time.Time {
	return loanDate.AddDate(0, 0, LoanDays)
}

// DaysUntilOverdue returns the whole days left until the due date, rounded
// up. Zero or negative means due today or past due. The bool is false when
// there is no loan date.
func DaysUntilOverdue(loanDate *time.Time, now time.Time) (int, bool) {
	if loanDate == nil {
		return 0, false
	}

	diff := DueDate(*loanDate).Sub(now)

	return int(math.Ceil(float64(diff) / float64(day))), true
}

// IsPastWindow reports whether now is after the due date of loanDate.
// It shares DueDate with DaysUntilOverdue, so a swept loan never has days
// left, whatever the location of the timestamps.
func IsPastWindow(loanDate, now time.Time) bool {
	return now.After(DueDate(loanDate))
}

// CheckOverdues flags every loaned item whose loan date is past the window
// as overdue. The input slice is not modified. The bool reports whether any
// item changed.
func CheckOverdues(items []Item, now time.Time) ([]Item, bool) {
	out := CloneItems(items)
	changed := false

	for i := range out {
		it := &out[i]
		if it.LoanStatus != Loaned || it.LoanDate == nil {
			continue
		}

		if IsPastWindow(*it.LoanDate, now) {
			it.LoanStatus = Overdue
			changed = true
		}
	}

	return out, changed
}

// ApplyLoanStatus sets the loan status and applies its side effects.
//
// Returning a book locks in the reading status: reading becomes interrupted,
// read and rereading become read. An active loan always carries a loan date.
func ApplyLoanStatus(item Item, status LoanStatus, now time.Time) Item {
	out := item.Clone()
	out.LoanStatus = status

	if status == Returned {
		switch out.ReadingStatus {
		case Reading:
			out.ReadingStatus = Interrupted
		case Read, Rereading:
			out.ReadingStatus = Read
		}
	}

	stampLoanDate(&out, now)

	return out
}

// RenewKind tells how a renewal was applied.
type RenewKind string

// Renewal kinds.
const (
	Reactivated RenewKind = "reactivated"
	Extended    RenewKind = "extended"
)

// Renewal is a successful renewal.
type Renewal struct {
	Item    Item
	Kind    RenewKind
	Message string
}

// Renew applies the renewal policy.
//
//   - overdue: refused with ErrRenewOverdue, the book must be returned first
//   - returned: reactivated as a new loan starting now, borrowed by user if given
//   - loaned: loan date moved to now plus LoanDays() days
//   - anything else: refused with ErrNotRenewable
//
// A refused renewal never changes the item.
func Renew(item Item, now time.Time, user string) (Renewal, error) {
	switch item.LoanStatus {
	case Overdue:
		return Renewal{}, fmt.Errorf("%w: %q is overdue, return it first", ErrRenewOverdue, item.Title)

	case Returned:
		out := item.Clone()
		start := now
		out.LoanStatus = Loaned
		out.LoanDate = &start
		out.AddedAt = now

		if out.ReadingStatus == "" {
			out.ReadingStatus = Reading
		}

		if user != "" {
			out.Borrower = user
		}

		return Renewal{
			Item:    out,
			Kind:    Reactivated,
			Message: fmt.Sprintf("%q renewed and reactivated as a new loan", out.Title),
		}, nil

	case Loaned:
		out := item.Clone()
		next := now.AddDate(0, 0, item.LoanDays())
		out.LoanDate = &next

		return Renewal{
			Item:    out,
			Kind:    Extended,
			Message: "loan renewed, new loan date: " + next.Format(time.DateOnly),
		}, nil

	default:
		status := string(item.LoanStatus)
		if status == "" {
			status = "none"
		}

		return Renewal{}, fmt.Errorf("%w (current status: %s)", ErrNotRenewable, status)
	}
}

// Patch is a partial update. Nil fields are left unchanged. The id cannot be
// patched.
type Patch struct {
	Title          *string
	Authors        *[]string
	CoverRef       *string
	Description    *string
	Borrower       *string
	ReadingStatus  *ReadingStatus
	LoanStatus     *LoanStatus
	LoanDate       *time.Time
	MaxDaysAllowed *int
}

// ApplyPatch merges p into item. A reading status change on a returned item
// is dropped silently; the rest of the patch still applies.
func ApplyPatch(item Item, p Patch, now time.Time) Item {
	out := item.Clone()

	if p.Title != nil {
		out.Title = *p.Title
	}

	if p.Authors != nil {
		out.Authors = slices.Clone(*p.Authors)
		if out.Authors == nil {
			out.Authors = []string{}
		}
	}

	if p.CoverRef != nil {
		out.CoverRef = *p.CoverRef
	}

	if p.Description != nil {
		out.Description = *p.Description
	}

	if p.Borrower != nil {
		out.Borrower = *p.Borrower
	}

	if p.ReadingStatus != nil && item.LoanStatus != Returned {
		out.ReadingStatus = *p.ReadingStatus
	}

	if p.LoanStatus != nil {
		out.LoanStatus = *p.LoanStatus
	}

	if p.LoanDate != nil {
		d := *p.LoanDate
		out.LoanDate = &d
	}

	if p.MaxDaysAllowed != nil {
		out.MaxDaysAllowed = max(*p.MaxDaysAllowed, 0)
	}

	stampLoanDate(&out, now)

	return out
}

func stampLoanDate(it *Item, now time.Time) {
	if it.LoanDate != nil {
		return
	}

	if it.LoanStatus == Loaned || it.LoanStatus == Overdue {
		d := now
		it.LoanDate = &d
	}
}
