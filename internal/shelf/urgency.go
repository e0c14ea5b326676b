package shelf

import (
	"fmt"
	"time"
)

// Urgency classifies how close a loan is to its due date.
type Urgency string

// Urgency levels.
const (
	UrgencyNone    Urgency = "none"
	UrgencyOK      Urgency = "ok"
	UrgencyDueSoon Urgency = "due-soon"
	UrgencyOverdue Urgency = "overdue"
)

const defaultReaderName = "Reader"

// UrgencyOf derives the urgency of an item from its loan status and the days
// left until it is due. Only active loans have an urgency other than none.
func UrgencyOf(it Item, now time.Time) Urgency {
	if it.LoanStatus == Overdue {
		return UrgencyOverdue
	}

	if it.LoanStatus != Loaned {
		return UrgencyNone
	}

	days, ok := DaysUntilOverdue(it.LoanDate, now)
	if !ok {
		return UrgencyNone
	}

	switch {
	case days <= 0:
		return UrgencyOverdue
	case days == 1:
		return UrgencyDueSoon
	default:
		return UrgencyOK
	}
}

// Reminder is a message a view should surface for a loan that needs action.
type Reminder struct {
	ItemID  string
	Urgency Urgency
	Message string
}

// Reminders returns one reminder per item that is overdue or due within a
// day, in shelf order.
func Reminders(items []Item, now time.Time) []Reminder {
	var out []Reminder

	for _, it := range items {
		name := it.Borrower
		if name == "" {
			name = defaultReaderName
		}

		switch UrgencyOf(it, now) {
		case UrgencyOverdue:
			out = append(out, Reminder{
				ItemID:  it.ID,
				Urgency: UrgencyOverdue,
				Message: fmt.Sprintf("%s, your book %q is OVERDUE! Please return it now.", name, it.Title),
			})
		case UrgencyDueSoon:
			out = append(out, Reminder{
				ItemID:  it.ID,
				Urgency: UrgencyDueSoon,
				Message: fmt.Sprintf("%s, your book %q is due in 1 day. Please return or renew it!", name, it.Title),
			})
		case UrgencyNone, UrgencyOK:
		}
	}

	return out
}
