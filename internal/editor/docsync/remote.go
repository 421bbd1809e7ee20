// Package docsync keeps an editor's template collection in step with the remote document store.
package docsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/models"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("template document was modified concurrently")
)

// Snapshot is the remote collection as of one read or write.
type Snapshot struct {
	Templates    []models.Template `json:"data"`
	Version      int64             `json:"version"`
	LastModified time.Time         `json:"lastModified"`
}

// Remote is the template document store. A baseVersion of 0 writes unconditionally;
// any other value must match the stored version or the write fails with ErrVersionConflict.
type Remote interface {
	// FetchAll returns an empty snapshot when no document exists yet.
	FetchAll(ctx context.Context) (Snapshot, error)
	// SaveAll replaces the whole collection and returns what was stored.
	SaveAll(ctx context.Context, templates []models.Template, baseVersion int64) (Snapshot, error)
	UpdateOne(ctx context.Context, id string, t models.Template, baseVersion int64) (Snapshot, error)
	DeleteOne(ctx context.Context, id string, baseVersion int64) (Snapshot, error)
}

// SaveError reports a failed write. Local state is left as it was.
type SaveError struct {
	Op  string
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Retryable is false for failures that resending the same payload cannot fix.
func (e *SaveError) Retryable() bool {
	return !errors.Is(e.Err, ErrValidation) && !errors.Is(e.Err, ErrVersionConflict)
}
