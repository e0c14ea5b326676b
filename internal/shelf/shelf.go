package shelf

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const maxIDAttempts = 10

// Action names a kind of shelf mutation.
type Action string

// Change actions.
const (
	ActionAdded   Action = "added"
	ActionUpdated Action = "updated"
	ActionRemoved Action = "removed"
	ActionRenewed Action = "renewed"
	ActionSwept   Action = "swept"
	ActionCleared Action = "cleared"
)

// Change is sent to subscribers after a mutation has been persisted.
type Change struct {
	Action Action
	// ID and Item are set for single-item changes. Item is zero for removals.
	ID   string
	Item Item
	// Swept holds the ids flagged overdue by a sweep.
	Swept []string
	// Size is the number of items on the shelf after the change.
	Size int
}

// Locker is implemented by stores that can serialize a read-modify-write
// turn against other processes.
type Locker interface {
	WithLock(fn func() error) error
}

// Options configures a Shelf. Only Store is required.
type Options struct {
	Store Store

	// Now returns the current time. Defaults to time.Now. Results are
	// converted to UTC.
	Now func() time.Time

	// NewID generates ids for items without a catalog key. Defaults to NewID.
	NewID func() (string, error)

	// Logger receives debug lines for every mutation. Defaults to a
	// discarding logger.
	Logger logrus.FieldLogger
}

// Shelf is the query/mutation API over a Store. Every operation runs as one
// turn: it reads the whole collection, applies the rules, and writes back
// before the next operation starts.
type Shelf struct {
	store Store
	now   func() time.Time
	newID func() (string, error)
	log   logrus.FieldLogger

	mu sync.Mutex

	subMu  sync.Mutex
	nextID int
	subs   []subscriber
}

type subscriber struct {
	id int
	fn func(Change)
}

// New returns a Shelf backed by opts.Store. Panics if the store is nil.
func New(opts Options) *Shelf {
	if opts.Store == nil {
		panic("shelf: store is nil")
	}

	s := &Shelf{
		store: opts.Store,
		now:   opts.Now,
		newID: opts.NewID,
		log:   opts.Logger,
	}

	if s.now == nil {
		s.now = time.Now
	}

	if s.newID == nil {
		s.newID = NewID
	}

	if s.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.log = l
	}

	return s
}

// Now returns the shelf's current time in UTC.
func (s *Shelf) Now() time.Time {
	return s.now().UTC()
}

// Subscribe registers fn to be called after every persisted mutation. fn
// runs synchronously on the mutating goroutine, after the turn has ended, so
// it may call back into the Shelf. The returned func unregisters fn.
func (s *Shelf) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()

		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
	}
}

// All returns every item in shelf order.
func (s *Shelf) All() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.ReadAll()
}

// Get returns the item with the given id.
func (s *Shelf) Get(id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.store.ReadAll()

	idx := indexOf(items, id)
	if idx < 0 {
		return Item{}, false
	}

	return items[idx], true
}

// Save normalizes payload into a new item (see [Normalize]), assigns an id
// if the payload has no catalog key, appends it and persists the shelf.
// user is the borrower when the payload names none.
//
// Returns ErrDuplicateID if an item with the payload's id is already on the
// shelf.
func (s *Shelf) Save(payload []byte, user string) (Item, error) {
	var (
		saved Item
		size  int
	)

	err := s.turn(func() error {
		items := s.store.ReadAll()
		it := Normalize(payload, s.Now(), user)

		if it.ID != "" && indexOf(items, it.ID) >= 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateID, it.ID)
		}

		if it.ID == "" {
			id, err := s.uniqueID(items)
			if err != nil {
				return err
			}

			it.ID = id
		}

		items = append(items, it)

		if err := s.write(items); err != nil {
			return err
		}

		saved, size = it, len(items)

		return nil
	})
	if err != nil {
		return Item{}, err
	}

	s.log.WithField("id", saved.ID).Debug("item added")
	s.emit(Change{Action: ActionAdded, ID: saved.ID, Item: saved.Clone(), Size: size})

	return saved, nil
}

// Update applies p to the item with the given id (see [ApplyPatch]).
// Returns ErrNotFound if there is no such item.
func (s *Shelf) Update(id string, p Patch) (Item, error) {
	return s.mutate(id, ActionUpdated, func(it Item, now time.Time) (Item, error) {
		return ApplyPatch(it, p, now), nil
	})
}

// SetLoanStatus sets the loan status of the item with the given id (see
// [ApplyLoanStatus]). Returns ErrNotFound if there is no such item.
func (s *Shelf) SetLoanStatus(id string, status LoanStatus) (Item, error) {
	if _, ok := ParseLoanStatus(string(status)); !ok {
		return Item{}, fmt.Errorf("%w: %q", ErrInvalidLoan, status)
	}

	return s.mutate(id, ActionUpdated, func(it Item, now time.Time) (Item, error) {
		return ApplyLoanStatus(it, status, now), nil
	})
}

// Renew renews the loan of the item with the given id (see [Renew]). user
// becomes the borrower of a reactivated loan when non-empty. A refused
// renewal is returned as an error and nothing is written.
func (s *Shelf) Renew(id string, user string) (Renewal, error) {
	var renewal Renewal

	_, err := s.mutate(id, ActionRenewed, func(it Item, now time.Time) (Item, error) {
		r, err := Renew(it, now, user)
		if err != nil {
			return Item{}, err
		}

		renewal = r

		return r.Item, nil
	})
	if err != nil {
		return Renewal{}, err
	}

	return renewal, nil
}

// Remove deletes the item with the given id. Removing an unknown id is a
// no-op.
func (s *Shelf) Remove(id string) error {
	removed := false
	size := 0

	err := s.turn(func() error {
		items := s.store.ReadAll()

		idx := indexOf(items, id)
		if idx < 0 {
			return nil
		}

		items = slices.Delete(items, idx, idx+1)

		if err := s.write(items); err != nil {
			return err
		}

		removed, size = true, len(items)

		return nil
	})
	if err != nil {
		return err
	}

	if removed {
		s.log.WithField("id", id).Debug("item removed")
		s.emit(Change{Action: ActionRemoved, ID: id, Size: size})
	}

	return nil
}

// CheckOverdues runs the overdue sweep over the whole shelf and persists the
// result only when something changed. Reports whether anything changed.
func (s *Shelf) CheckOverdues() (bool, error) {
	var (
		swept []string
		size  int
	)

	err := s.turn(func() error {
		items := s.store.ReadAll()

		next, changed := CheckOverdues(items, s.Now())
		if !changed {
			return nil
		}

		if err := s.write(next); err != nil {
			return err
		}

		for i := range next {
			if next[i].LoanStatus != items[i].LoanStatus {
				swept = append(swept, next[i].ID)
			}
		}

		size = len(next)

		return nil
	})
	if err != nil {
		return false, err
	}

	if len(swept) == 0 {
		return false, nil
	}

	s.log.WithField("ids", swept).Debug("loans flagged overdue")
	s.emit(Change{Action: ActionSwept, Swept: swept, Size: size})

	return true, nil
}

// Clear removes every item from the shelf.
func (s *Shelf) Clear() error {
	err := s.turn(func() error {
		return s.write([]Item{})
	})
	if err != nil {
		return err
	}

	s.log.Debug("shelf cleared")
	s.emit(Change{Action: ActionCleared})

	return nil
}

// mutate runs fn on the item with the given id and persists the result.
func (s *Shelf) mutate(id string, action Action, fn func(Item, time.Time) (Item, error)) (Item, error) {
	var (
		updated Item
		size    int
	)

	err := s.turn(func() error {
		items := s.store.ReadAll()

		idx := indexOf(items, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		next, err := fn(items[idx], s.Now())
		if err != nil {
			return err
		}

		items[idx] = next

		if err := s.write(items); err != nil {
			return err
		}

		updated, size = next, len(items)

		return nil
	})
	if err != nil {
		return Item{}, err
	}

	s.log.WithField("id", id).WithField("action", string(action)).Debug("item changed")
	s.emit(Change{Action: action, ID: id, Item: updated.Clone(), Size: size})

	return updated, nil
}

// turn runs fn as one exclusive read-modify-write turn.
func (s *Shelf) turn(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.store.(Locker); ok {
		return l.WithLock(fn)
	}

	return fn()
}

func (s *Shelf) write(items []Item) error {
	if err := s.store.WriteAll(items); err != nil {
		return fmt.Errorf("writing shelf: %w", err)
	}

	return nil
}

func (s *Shelf) uniqueID(items []Item) (string, error) {
	for range maxIDAttempts {
		id, err := s.newID()
		if err != nil {
			return "", err
		}

		if indexOf(items, id) < 0 {
			return id, nil
		}
	}

	return "", ErrIDGenerationFailed
}

func (s *Shelf) emit(c Change) {
	s.subMu.Lock()
	subs := slices.Clone(s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(c)
	}
}

func indexOf(items []Item, id string) int {
	return slices.IndexFunc(items, func(it Item) bool { return it.ID == id })
}
