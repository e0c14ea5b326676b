// Package shelf implements the personal shelf: the item model, the loan and
// reading rules, and the query/mutation API over a [Store].
package shelf

import (
	"encoding/json"
	"slices"
	"time"
)

// ReadingStatus is where the reader is with a book. The zero value means unset.
type ReadingStatus string

// Reading status values.
const (
	Reading     ReadingStatus = "reading"
	Read        ReadingStatus = "read"
	Rereading   ReadingStatus = "rereading"
	Interrupted ReadingStatus = "interrupted"
)

// LoanStatus is the lifecycle of a borrowing.
type LoanStatus string

// Loan status values.
const (
	Loaned   LoanStatus = "loaned"
	Returned LoanStatus = "returned"
	Overdue  LoanStatus = "overdue"
)

// Placeholders used when a payload lacks a field.
const (
	DefaultTitle       = "Untitled"
	DefaultDescription = "No description available"
)

// Item is a book on the shelf.
type Item struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Authors        []string        `json:"authors"`
	CoverRef       string          `json:"cover_ref,omitempty"`
	Description    string          `json:"description"`
	Borrower       string          `json:"borrower,omitempty"`
	ReadingStatus  ReadingStatus   `json:"reading_status,omitempty"`
	LoanStatus     LoanStatus      `json:"loan_status,omitempty"`
	LoanDate       *time.Time      `json:"loan_date,omitempty"`
	AddedAt        time.Time       `json:"added_at"`
	MaxDaysAllowed int             `json:"max_days_allowed,omitempty"`
	Raw            json.RawMessage `json:"raw,omitempty"`
}

// Clone returns a deep copy, so the caller can mutate it without touching
// the receiver's slices or pointers.
func (it Item) Clone() Item {
	out := it

	if it.Authors != nil {
		out.Authors = slices.Clone(it.Authors)
	}

	if it.LoanDate != nil {
		d := *it.LoanDate
		out.LoanDate = &d
	}

	if it.Raw != nil {
		out.Raw = slices.Clone(it.Raw)
	}

	return out
}

// CloneItems deep-copies a slice of items.
func CloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}

	return out
}

// ParseReadingStatus parses a reading status name. The empty string is not valid.
func ParseReadingStatus(s string) (ReadingStatus, bool) {
	switch st := ReadingStatus(s); st {
	case Reading, Read, Rereading, Interrupted:
		return st, true
	default:
		return "", false
	}
}

// ParseLoanStatus parses a loan status name. The empty string is not valid.
func ParseLoanStatus(s string) (LoanStatus, bool) {
	switch st := LoanStatus(s); st {
	case Loaned, Returned, Overdue:
		return st, true
	default:
		return "", false
	}
}

// Store is the persistence port for the shelf.
//
// ReadAll never fails: a missing or corrupt record reads as an empty shelf.
// Each call returns an independent copy. WriteAll replaces the whole
// collection and reports only failures of the durable write itself.
type Store interface {
	ReadAll() []Item
	WriteAll(items []Item) error
}
