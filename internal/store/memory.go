package store

import (
	"sync"

	"github.com/calvinalkan/shelf/internal/shelf"
)

// Memory is an in-process store. Reads and writes copy the items, so callers
// never share state with the store.
type Memory struct {
	mu       sync.Mutex
	items    []shelf.Item
	writes   int
	writeErr error
}

// NewMemory returns a store holding copies of items.
func NewMemory(items ...shelf.Item) *Memory {
	return &Memory{items: shelf.CloneItems(items)}
}

// ReadAll returns a copy of the stored items.
func (m *Memory) ReadAll() []shelf.Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	return shelf.CloneItems(m.items)
}

// WriteAll replaces the stored items with a copy of items.
func (m *Memory) WriteAll(items []shelf.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}

	m.items = shelf.CloneItems(items)
	m.writes++

	return nil
}

// Writes returns how many successful writes the store has seen.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.writes
}

// FailWrites makes every later WriteAll return err. Pass nil to recover.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writeErr = err
}
