package mdsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"lifeos/internal/fs"
	"lifeos/internal/store"
)

// ErrDocumentMissing reports that the target document does not exist. The
// syncer never creates it.
var ErrDocumentMissing = errors.New("markdown document missing")

// docPerms applies only if the document vanishes between read and write.
const docPerms = 0o644

// Syncer rewrites the managed section of one document on disk.
type Syncer struct {
	FS     fs.FS
	Path   string
	Logger *slog.Logger
}

// NewSyncer returns a syncer for the document at path.
func NewSyncer(fsys fs.FS, path string, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Syncer{FS: fsys, Path: path, Logger: log}
}

// Sync regenerates the section from tasks. Failures are logged and
// swallowed: a sync problem must never fail the table write that caused it.
func (s *Syncer) Sync(ctx context.Context, tasks []store.Record) {
	err := s.SyncErr(tasks)
	if err != nil {
		s.logger().WarnContext(ctx, "markdown sync failed", "path", s.Path, "error", err)

		return
	}

	s.logger().DebugContext(ctx, "markdown synced", "path", s.Path, "tasks", len(tasks))
}

// SyncErr is [Syncer.Sync] with the error returned, for callers that report
// it themselves (the sync-markdown command).
func (s *Syncer) SyncErr(tasks []store.Record) error {
	data, err := s.FS.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrDocumentMissing, s.Path)
		}

		return fmt.Errorf("reading %s: %w", s.Path, err)
	}

	doc := string(data)

	updated := Rewrite(doc, tasks)
	if updated == doc {
		return nil
	}

	err = s.FS.WriteFileAtomic(s.Path, []byte(updated), docPerms)
	if err != nil {
		return fmt.Errorf("writing %s: %w", s.Path, err)
	}

	return nil
}

// Hook adapts the syncer to a [store.Hook] for the tasks table.
func (s *Syncer) Hook() store.Hook {
	return func(ctx context.Context, _ string, records []store.Record) {
		s.Sync(ctx, records)
	}
}

func (s *Syncer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return s.Logger
}
