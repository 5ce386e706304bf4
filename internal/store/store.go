// Package store implements the flat-file record store: named tables of
// schema-less records, each persisted as one JSON document.
//
// Reads never fail. A missing or unparsable document reads as an empty table,
// trading correctness signaling for availability. Writes are serialized per
// table, in-process by a mutex and across processes by the backend lock, so
// concurrent read-modify-write cycles cannot lose updates.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"sync"
	"time"
)

// Hook runs after a table write succeeds. It receives a copy of the records
// that were written and must not fail the write; hooks own their errors.
type Hook func(ctx context.Context, table string, records []Record)

// Store is a set of tables on a [Backend].
type Store struct {
	backend Backend
	now     func() time.Time
	log     *slog.Logger
	allowed map[string]bool

	mu     sync.Mutex
	tables map[string]*sync.Mutex
	hooks  map[string][]Hook
}

// Option configures a [Store].
type Option func(*Store)

// WithClock sets the time source for ids and creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for degraded reads.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithHook registers fn to run after every write of table.
func WithHook(table string, fn Hook) Option {
	return func(s *Store) { s.hooks[table] = append(s.hooks[table], fn) }
}

// WithTables restricts the recognized table names. An empty list allows
// every well-formed name.
func WithTables(names ...string) Option {
	return func(s *Store) {
		if len(names) == 0 {
			s.allowed = nil

			return
		}

		s.allowed = make(map[string]bool, len(names))
		for _, name := range names {
			s.allowed[name] = true
		}
	}
}

// New returns a store on backend. Panics if backend is nil.
func New(backend Backend, opts ...Option) *Store {
	if backend == nil {
		panic("backend is nil")
	}

	s := &Store{
		backend: backend,
		now:     time.Now,
		log:     slog.New(slog.DiscardHandler),
		tables:  make(map[string]*sync.Mutex),
		hooks:   make(map[string][]Hook),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

var tableNameRe = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,63}$`)

// CheckTable returns [ErrInvalidTable] unless name is a recognized table.
func (s *Store) CheckTable(name string) error {
	if !tableNameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, name)
	}

	if s.allowed != nil && !s.allowed[name] {
		return fmt.Errorf("%w: %q is not configured", ErrInvalidTable, name)
	}

	return nil
}

// ReadTable returns the records of name in insertion order.
//
// Absent, unreadable or unparsable tables read as empty. This is
// intentional: the dashboard keeps rendering when a document is missing or
// was hand-edited into invalid JSON.
func (s *Store) ReadTable(ctx context.Context, name string) []Record {
	if err := s.CheckTable(name); err != nil {
		s.log.WarnContext(ctx, "read of unrecognized table", "table", name)

		return []Record{}
	}

	return s.load(ctx, name)
}

// WriteTable replaces the whole table with records.
func (s *Store) WriteTable(ctx context.Context, name string, records []Record) error {
	return s.mutate(ctx, name, func([]Record) ([]Record, error) {
		return slices.Clone(records), nil
	})
}

// CreateRecord appends a record built from fields.
//
// The store assigns id and created_at (overwriting supplied values) and
// defaults status to [DefaultStatus] when absent.
func (s *Store) CreateRecord(ctx context.Context, table string, fields map[string]any) (Record, error) {
	rec, err := Normalize(fields)
	if err != nil {
		return nil, err
	}

	if _, ok := rec[FieldStatus]; !ok {
		rec[FieldStatus] = DefaultStatus
	}

	err = s.mutate(ctx, table, func(records []Record) ([]Record, error) {
		now := s.now()

		ids := make(map[string]bool, len(records))
		for _, existing := range records {
			ids[existing.ID()] = true
		}

		id, idErr := uniqueID(now, func(id string) bool { return ids[id] })
		if idErr != nil {
			return nil, idErr
		}

		rec[FieldID] = id
		rec[FieldCreatedAt] = jsonInt(now.UnixMilli())

		return append(records, rec), nil
	})
	if err != nil {
		return nil, err
	}

	return rec.Clone(), nil
}

// UpdateRecord shallow-merges patch onto the record with id.
// Patch fields overwrite, other fields are untouched, and id itself cannot
// be changed. Returns [ErrNotFound] if no record has id.
func (s *Store) UpdateRecord(ctx context.Context, table, id string, patch map[string]any) (Record, error) {
	normalized, err := Normalize(patch)
	if err != nil {
		return nil, err
	}

	delete(normalized, FieldID)

	var merged Record

	err = s.mutate(ctx, table, func(records []Record) ([]Record, error) {
		idx := slices.IndexFunc(records, func(r Record) bool { return r.ID() == id })
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, table, id)
		}

		merged = records[idx].Clone()
		for k, v := range normalized {
			merged[k] = v
		}

		records[idx] = merged

		return records, nil
	})
	if err != nil {
		return nil, err
	}

	return merged.Clone(), nil
}

// DeleteRecord removes the record with id. Deleting an absent id succeeds
// and leaves the table unchanged.
func (s *Store) DeleteRecord(ctx context.Context, table, id string) error {
	return s.mutate(ctx, table, func(records []Record) ([]Record, error) {
		kept := slices.DeleteFunc(records, func(r Record) bool { return r.ID() == id })
		if len(kept) == len(records) {
			return nil, errSkipWrite
		}

		return kept, nil
	})
}

// errSkipWrite lets a mutation finish without persisting anything.
var errSkipWrite = errors.New("skip write")

// mutate runs a read-modify-write cycle on table while holding both the
// in-process table mutex and the backend lock. Hooks run before the locks
// are released so side effects observe writes in order.
func (s *Store) mutate(ctx context.Context, table string, fn func([]Record) ([]Record, error)) error {
	if err := s.CheckTable(table); err != nil {
		return err
	}

	mu := s.tableMutex(table)

	mu.Lock()
	defer mu.Unlock()

	lock, err := s.backend.Lock(table)
	if err != nil {
		return fmt.Errorf("locking table %s: %w", table, err)
	}

	defer closeLock(ctx, s.log, table, lock)

	records, err := fn(s.load(ctx, table))
	if errors.Is(err, errSkipWrite) {
		return nil
	}

	if err != nil {
		return err
	}

	data, err := encodeTable(records)
	if err != nil {
		return err
	}

	if err := s.backend.Save(table, data); err != nil {
		return fmt.Errorf("writing table %s: %w", table, err)
	}

	for _, hook := range s.hooksFor(table) {
		hook(ctx, table, cloneRecords(records))
	}

	return nil
}

func (s *Store) load(ctx context.Context, table string) []Record {
	data, err := s.backend.Load(table)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.WarnContext(ctx, "table unreadable, treating as empty", "table", table, "error", err)
		}

		return []Record{}
	}

	records, err := decodeTable(data)
	if err != nil {
		s.log.WarnContext(ctx, "table unparsable, treating as empty", "table", table, "error", err)

		return []Record{}
	}

	return records
}

func (s *Store) tableMutex(table string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.tables[table]
	if !ok {
		mu = &sync.Mutex{}
		s.tables[table] = mu
	}

	return mu
}

func (s *Store) hooksFor(table string) []Hook {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.hooks[table])
}

func closeLock(ctx context.Context, log *slog.Logger, table string, lock io.Closer) {
	if err := lock.Close(); err != nil {
		log.WarnContext(ctx, "releasing table lock", "table", table, "error", err)
	}
}

func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}

	return out
}
