package store

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/natefinch/atomic"
	"github.com/sirupsen/logrus"

	"github.com/calvinalkan/shelf/internal/shelf"
)

const (
	// FileName is the shelf record inside the data directory.
	FileName = "shelf.json"
	// UserFileName holds the name of the current user.
	UserFileName = "user"
	// CorruptSuffix is appended to a damaged record when it is moved aside.
	CorruptSuffix = ".corrupt"

	dirPerms = 0o750
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// File stores the shelf as one JSON document in a data directory.
//
// A missing file reads as an empty shelf. A file that cannot be decoded
// also reads as empty. Entries that cannot be decoded are dropped, and
// mistyped fields of an entry are reset, so one bad entry does not cost the
// rest of the shelf. Every recovery is logged at warn level, and the damaged
// file is moved to shelf.json.corrupt before it is next overwritten.
// Writes replace the file atomically.
type File struct {
	dir string
	log logrus.FieldLogger

	mu      sync.Mutex
	damaged bool
}

// NewFile returns a store rooted at dir. The directory is created on the
// first write. log may be nil.
func NewFile(dir string, log logrus.FieldLogger) *File {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	return &File{dir: dir, log: log}
}

// Dir returns the data directory.
func (f *File) Dir() string {
	return f.dir
}

// Path returns the path of the shelf record.
func (f *File) Path() string {
	return filepath.Join(f.dir, FileName)
}

// ReadAll returns the stored items, or an empty shelf if the record is
// missing or corrupt.
func (f *File) ReadAll() []shelf.Item {
	path := f.Path()
	log := f.log.WithField("path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("cannot read shelf, treating as empty")
		}

		return []shelf.Item{}
	}

	items, damaged, err := decodeRecord(data, log)
	if err != nil {
		log.WithError(err).Warn("corrupt shelf, treating as empty")

		damaged = true
		items = []shelf.Item{}
	}

	if damaged {
		f.mu.Lock()
		f.damaged = true
		f.mu.Unlock()
	}

	return items
}

// WriteAll replaces the record with items. If the last read had to recover
// from damage, the old file is kept as shelf.json.corrupt first.
func (f *File) WriteAll(items []shelf.Item) error {
	if items == nil {
		items = []shelf.Item{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(record{Version: RecordVersion, Items: items})
	if err != nil {
		return fmt.Errorf("encoding shelf: %w", err)
	}

	data = append(data, '\n')

	if err := os.MkdirAll(f.dir, dirPerms); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	if f.damaged {
		backup := f.Path() + CorruptSuffix

		err := os.Rename(f.Path(), backup)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("moving damaged shelf aside: %w", err)
		}

		if err == nil {
			f.log.WithField("path", backup).Warn("kept damaged shelf")
		}

		f.damaged = false
	}

	if err := atomic.WriteFile(f.Path(), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing %s: %w", f.Path(), err)
	}

	return nil
}

// WithLock runs fn while holding the data directory's exclusive lock.
func (f *File) WithLock(fn func() error) error {
	lock, err := acquireLock(f.dir)
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}

	defer lock.release()

	return fn()
}

// User returns the stored current user, or "" if none is set.
func (f *File) User() string {
	data, err := os.ReadFile(filepath.Join(f.dir, UserFileName))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}

// SetUser stores name as the current user. An empty name clears it.
func (f *File) SetUser(name string) error {
	path := filepath.Join(f.dir, UserFileName)

	name = strings.TrimSpace(name)
	if name == "" {
		err := os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("clearing user: %w", err)
		}

		return nil
	}

	if err := os.MkdirAll(f.dir, dirPerms); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	if err := atomic.WriteFile(path, strings.NewReader(name+"\n")); err != nil {
		return fmt.Errorf("writing user: %w", err)
	}

	return nil
}

// decodeRecord accepts the versioned record and a bare item array. The
// bool reports whether anything had to be dropped or reset on the way.
func decodeRecord(data []byte, log logrus.FieldLogger) ([]shelf.Item, bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []shelf.Item{}, false, nil
	}

	var entries []jsoniter.RawMessage

	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, false, fmt.Errorf("decoding items: %w", err)
		}
	} else {
		var rec rawRecord
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return nil, false, fmt.Errorf("decoding record: %w", err)
		}

		if rec.Version != RecordVersion {
			return nil, false, fmt.Errorf("%w: %d", ErrRecordVersion, rec.Version)
		}

		entries = rec.Items
	}

	items := make([]shelf.Item, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	damaged := false

	for i, entry := range entries {
		it, dropped, err := decodeItem(entry)
		if err != nil {
			log.WithField("index", i).WithError(err).Warn("dropping unreadable item")

			damaged = true

			continue
		}

		if len(dropped) > 0 {
			log.WithFields(logrus.Fields{"id": it.ID, "fields": dropped}).Warn("reset mistyped fields")

			damaged = true
		}

		if it.ID == "" {
			continue
		}

		if seen[it.ID] {
			log.WithField("id", it.ID).Warn("dropping duplicate item")

			damaged = true

			continue
		}

		seen[it.ID] = true

		if it.Authors == nil {
			it.Authors = []string{}
		}

		items = append(items, it)
	}

	return items, damaged, nil
}

// decodeItem decodes one entry. When the entry as a whole does not decode,
// its fields are decoded one at a time and those that fail are left at
// their zero value and reported.
func decodeItem(entry []byte) (shelf.Item, []string, error) {
	var it shelf.Item
	if err := json.Unmarshal(entry, &it); err == nil {
		return it, nil, nil
	}

	var fields map[string]jsoniter.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil {
		return shelf.Item{}, nil, fmt.Errorf("decoding item: %w", err)
	}

	it = shelf.Item{}

	var dropped []string

	for _, key := range slices.Sorted(maps.Keys(fields)) {
		one, err := json.Marshal(map[string]jsoniter.RawMessage{key: fields[key]})
		if err != nil {
			dropped = append(dropped, key)

			continue
		}

		var scratch shelf.Item
		if json.Unmarshal(one, &scratch) != nil {
			dropped = append(dropped, key)

			continue
		}

		_ = json.Unmarshal(one, &it)
	}

	return it, dropped, nil
}
