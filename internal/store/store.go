// Package store provides the persistence backends for the shelf: a JSON file
// for real use and an in-memory store for tests.
package store

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/calvinalkan/shelf/internal/shelf"
)

// Compile-time checks that both backends satisfy the shelf's port.
var (
	_ shelf.Store  = (*File)(nil)
	_ shelf.Locker = (*File)(nil)
	_ shelf.Store  = (*Memory)(nil)
)

// RecordVersion is the version written into the shelf file.
const RecordVersion = 1

// record is the on-disk shape of the shelf file.
type record struct {
	Version int          `json:"version"`
	Items   []shelf.Item `json:"items"`
}

// rawRecord is record with its entries left undecoded, so they can be
// decoded one at a time.
type rawRecord struct {
	Version int                   `json:"version"`
	Items   []jsoniter.RawMessage `json:"items"`
}
