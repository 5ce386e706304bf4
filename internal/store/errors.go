package store

import "errors"

// Errors returned by [Store] operations.
var (
	// ErrNotFound reports an update addressed at an id that is not in the table.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTable reports a table name that is malformed or not recognized.
	ErrInvalidTable = errors.New("invalid table name")

	// ErrIDGenerationFailed reports that no free id was found for a new record.
	ErrIDGenerationFailed = errors.New("no unique id after repeated attempts")
)
