package shelf

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Payload keys, in order of preference. Catalog records and shelf exports
// spell some fields differently, so each field has a list of candidates.
var (
	idKeys          = []string{"id", "key", "edition_key.0", "cover_edition_key", "isbn.0"}
	authorKeys      = []string{"authors", "author_name"}
	coverKeys       = []string{"cover_i", "cover_ref", "coverRef"}
	descriptionKeys = []string{"description", "first_sentence"}
	borrowerKeys    = []string{"borrower", "borrowerName", "borrower_name"}
	readingKeys     = []string{"readingStatus", "reading_status"}
	loanKeys        = []string{"loanStatus", "loan_status"}
	loanDateKeys    = []string{"loanDate", "loan_date"}
	addedAtKeys     = []string{"addedAt", "added_at"}
	maxDaysKeys     = []string{"maxDaysAllowed", "max_days_allowed"}
)

// Normalize builds an item from a loosely typed JSON payload, such as a
// catalog search result. Missing or unusable fields get their defaults;
// nothing is rejected. Invalid JSON is treated as an empty payload.
//
// The returned item has an empty ID when the payload carries no catalog key.
// user is the fallback borrower.
func Normalize(payload []byte, now time.Time, user string) Item {
	var raw json.RawMessage

	if gjson.ValidBytes(payload) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, payload); err == nil {
			raw = bytes.ToValidUTF8(buf.Bytes(), []byte(replacementChar))
		}
	}

	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		root = gjson.Result{}
	}

	it := Item{
		ID:            CatalogID(firstString(root, idKeys)),
		Title:         firstString(root, []string{"title"}),
		Authors:       authorsFrom(root),
		CoverRef:      firstString(root, coverKeys),
		Description:   descriptionFrom(root),
		Borrower:      firstString(root, borrowerKeys),
		ReadingStatus: Reading,
		LoanStatus:    Loaned,
		AddedAt:       now,
		Raw:           raw,
	}

	if it.Title == "" {
		it.Title = DefaultTitle
	}

	if it.Borrower == "" {
		it.Borrower = user
	}

	if st, ok := ParseReadingStatus(strings.ToLower(firstString(root, readingKeys))); ok {
		it.ReadingStatus = st
	}

	if st, ok := ParseLoanStatus(strings.ToLower(firstString(root, loanKeys))); ok {
		it.LoanStatus = st
	}

	loanDate := now
	if t, ok := firstTime(root, loanDateKeys); ok {
		loanDate = t
	}

	it.LoanDate = &loanDate

	if t, ok := firstTime(root, addedAtKeys); ok {
		it.AddedAt = t
	}

	for _, key := range maxDaysKeys {
		if n := root.Get(key).Int(); n > 0 {
			it.MaxDaysAllowed = int(n)

			break
		}
	}

	return it
}

// replacementChar stands in for invalid UTF-8, matching what the JSON
// encoder writes, so a saved item reads back unchanged.
const replacementChar = "\uFFFD"

// scalar returns the trimmed text of a string or number result.
func scalar(r gjson.Result) string {
	switch r.Type {
	case gjson.String, gjson.Number:
		return cleanText(r.String())
	default:
		return ""
	}
}

func cleanText(s string) string {
	return strings.TrimSpace(strings.ToValidUTF8(s, replacementChar))
}

func firstString(root gjson.Result, keys []string) string {
	for _, key := range keys {
		if s := scalar(root.Get(key)); s != "" {
			return s
		}
	}

	return ""
}

func firstTime(root gjson.Result, keys []string) (time.Time, bool) {
	for _, key := range keys {
		s := scalar(root.Get(key))
		if s == "" {
			continue
		}

		t, err := time.Parse(time.RFC3339Nano, s)
		if err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

func authorsFrom(root gjson.Result) []string {
	for _, key := range authorKeys {
		r := root.Get(key)

		switch {
		case r.IsArray():
			out := []string{}

			for _, a := range r.Array() {
				if s := scalar(a); s != "" {
					out = append(out, s)
				}
			}

			return out
		case scalar(r) != "":
			return []string{scalar(r)}
		}
	}

	return []string{}
}

// descriptionFrom accepts plain strings, {"value": "..."} objects as served
// for work descriptions, and arrays whose first element is either.
func descriptionFrom(root gjson.Result) string {
	for _, key := range descriptionKeys {
		if s := textOf(root.Get(key)); s != "" {
			return s
		}
	}

	return DefaultDescription
}

func textOf(r gjson.Result) string {
	switch {
	case r.IsObject():
		return scalar(r.Get("value"))
	case r.IsArray():
		arr := r.Array()
		if len(arr) == 0 {
			return ""
		}

		return textOf(arr[0])
	default:
		if r.Type == gjson.String {
			return cleanText(r.String())
		}

		return ""
	}
}
