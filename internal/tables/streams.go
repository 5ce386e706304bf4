package tables

import (
	"context"
	"slices"
	"time"

	"lifeos/internal/store"
)

// Stream statuses. The store does not enforce transitions.
const (
	StreamPlanned   = "planned"
	StreamCompleted = "completed"
	StreamCancelled = "cancelled"
)

// UpcomingLimit bounds [Service.UpcomingStreams].
const UpcomingLimit = 5

// scheduleLayouts are the accepted scheduledDate formats, most specific
// first. Layouts without a zone are read in local time, except bare dates
// which are UTC midnight.
var scheduleLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseSchedule reads the scheduledDate field of a stream.
func parseSchedule(rec store.Record) (time.Time, bool) {
	raw := rec.String("scheduledDate")
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}

	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, true
	}

	return time.Time{}, false
}

// compareSchedule orders streams by scheduledDate. Unparsable dates sort
// after every valid date and keep their relative order.
func compareSchedule(a, b store.Record) int {
	ta, okA := parseSchedule(a)
	tb, okB := parseSchedule(b)

	switch {
	case okA && okB:
		return ta.Compare(tb)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return 0
	}
}

// Streams returns every stream ordered by scheduledDate.
func (s *Service) Streams(ctx context.Context) []store.Record {
	streams := s.store.ReadTable(ctx, Streams)
	slices.SortStableFunc(streams, compareSchedule)

	return streams
}

// UpcomingStreams returns the next streams scheduled at or after now,
// skipping cancelled ones, at most [UpcomingLimit].
func (s *Service) UpcomingStreams(ctx context.Context, now time.Time) []store.Record {
	upcoming := []store.Record{}

	for _, stream := range s.Streams(ctx) {
		at, ok := parseSchedule(stream)
		if !ok || at.Before(now) || stream.Status() == StreamCancelled {
			continue
		}

		upcoming = append(upcoming, stream)
		if len(upcoming) == UpcomingLimit {
			break
		}
	}

	return upcoming
}

// CreateStream adds a stream. Status defaults to planned.
func (s *Service) CreateStream(ctx context.Context, fields map[string]any) (store.Record, error) {
	withStatus := make(map[string]any, len(fields)+1)
	withStatus[store.FieldStatus] = StreamPlanned

	for k, v := range fields {
		withStatus[k] = v
	}

	return s.Create(ctx, Streams, withStatus)
}

// UpdateStream merges fields into the stream with id.
func (s *Service) UpdateStream(ctx context.Context, id string, fields map[string]any) (store.Record, error) {
	return s.Update(ctx, Streams, id, fields)
}

// DeleteStream removes the stream with id.
func (s *Service) DeleteStream(ctx context.Context, id string) error {
	return s.Delete(ctx, Streams, id)
}
