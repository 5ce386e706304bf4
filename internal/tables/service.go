// Package tables is the CRUD façade over the record store. It maps store
// results to transport-neutral outcomes, derives the task views, and pushes
// snapshots after writes to the tables the dashboard watches.
package tables

import (
	"context"
	"errors"
	"log/slog"

	"lifeos/internal/notify"
	"lifeos/internal/store"
)

// Table names with behavior beyond plain CRUD.
const (
	Tasks    = "tasks"
	Finances = "finances"
	Streams  = "streams"
)

// Op is a façade operation.
type Op string

// Operations accepted by [Service.Handle].
const (
	OpList   Op = "list"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Outcome classifies a [Response].
type Outcome string

// Outcomes. NotFound is only produced by updates; deletes are idempotent.
const (
	OutcomeOK       Outcome = "ok"
	OutcomeNotFound Outcome = "not_found"
	OutcomeInvalid  Outcome = "invalid"
	OutcomeFailure  Outcome = "failure"
)

var (
	// ErrUnknownOp reports a request with an unsupported [Op].
	ErrUnknownOp = errors.New("unknown operation")

	// ErrMissingID reports an update or delete without a record id.
	ErrMissingID = errors.New("record id is required")
)

// Request addresses one table operation.
type Request struct {
	Op     Op             `json:"op"`
	Table  string         `json:"table"`
	ID     string         `json:"id,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Response is the result of a [Request]. Data holds the record list for
// list, the record for create and update, and nothing for delete.
type Response struct {
	Outcome Outcome `json:"outcome"`
	Data    any     `json:"data,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Publisher receives snapshots after task and finance writes.
type Publisher interface {
	Publish(snap notify.Snapshot)
}

// Service implements the façade.
type Service struct {
	store *store.Store
	pub   Publisher
	log   *slog.Logger
}

// New returns a service over st. pub may be nil.
func New(st *store.Store, pub Publisher, log *slog.Logger) *Service {
	if st == nil {
		panic("store is nil")
	}

	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Service{store: st, pub: pub, log: log}
}

// Handle runs req and classifies the result.
func (s *Service) Handle(ctx context.Context, req Request) Response {
	var (
		data any
		err  error
	)

	switch req.Op {
	case OpList:
		data, err = s.List(ctx, req.Table)
	case OpCreate:
		data, err = s.Create(ctx, req.Table, req.Fields)
	case OpUpdate:
		data, err = s.Update(ctx, req.Table, req.ID, req.Fields)
	case OpDelete:
		err = s.Delete(ctx, req.Table, req.ID)
	default:
		err = ErrUnknownOp
	}

	return respond(data, err)
}

func respond(data any, err error) Response {
	switch {
	case err == nil:
		return Response{Outcome: OutcomeOK, Data: data}
	case errors.Is(err, store.ErrNotFound):
		return Response{Outcome: OutcomeNotFound, Message: "Not found"}
	case errors.Is(err, store.ErrInvalidTable), errors.Is(err, ErrUnknownOp), errors.Is(err, ErrMissingID):
		return Response{Outcome: OutcomeInvalid, Message: err.Error()}
	default:
		return Response{Outcome: OutcomeFailure, Message: err.Error()}
	}
}

// List returns every record of table in insertion order.
func (s *Service) List(ctx context.Context, table string) ([]store.Record, error) {
	if err := s.store.CheckTable(table); err != nil {
		return nil, err
	}

	return s.store.ReadTable(ctx, table), nil
}

// Create adds a record to table.
func (s *Service) Create(ctx context.Context, table string, fields map[string]any) (store.Record, error) {
	rec, err := s.store.CreateRecord(ctx, table, fields)
	if err != nil {
		return nil, err
	}

	s.published(ctx, table)

	return rec, nil
}

// Update merges fields into the record with id.
func (s *Service) Update(ctx context.Context, table, id string, fields map[string]any) (store.Record, error) {
	if id == "" {
		return nil, ErrMissingID
	}

	rec, err := s.store.UpdateRecord(ctx, table, id, fields)
	if err != nil {
		return nil, err
	}

	s.published(ctx, table)

	return rec, nil
}

// Delete removes the record with id. Absent ids succeed.
func (s *Service) Delete(ctx context.Context, table, id string) error {
	if id == "" {
		return ErrMissingID
	}

	err := s.store.DeleteRecord(ctx, table, id)
	if err != nil {
		return err
	}

	s.published(ctx, table)

	return nil
}

// Count returns the number of records in table.
func (s *Service) Count(ctx context.Context, table string) int {
	return len(s.store.ReadTable(ctx, table))
}

// Snapshot reads the tables pushed to subscribers.
func (s *Service) Snapshot(ctx context.Context) notify.Snapshot {
	return notify.Snapshot{
		Tasks:    s.store.ReadTable(ctx, Tasks),
		Finances: s.store.ReadTable(ctx, Finances),
	}
}

// published pushes a fresh snapshot after a write to a watched table.
func (s *Service) published(ctx context.Context, table string) {
	if s.pub == nil || (table != Tasks && table != Finances) {
		return
	}

	s.pub.Publish(s.Snapshot(ctx))
	s.log.DebugContext(ctx, "snapshot published", "table", table)
}
