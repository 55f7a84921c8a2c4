// Package store archives finished conversation transcripts.
//
// A Store is never consulted while a run is in flight; the engine keeps its
// state in memory until the run completes and only then hands the result to
// an archive. Three backends are provided: Memory for tests and short lived
// processes, SQLite for a zero dependency file on disk, and Redis for shared
// archives with optional retention.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/casualjim/loom/messages"
	"github.com/casualjim/loom/types"
)

// ErrNotFound is returned by Load when no transcript is archived under the
// given run id.
var ErrNotFound = errors.New("transcript not found")

// Transcript is the archived outcome of one finished run: the full message
// log, the final variable environment and the moment it was saved.
type Transcript struct {
	RunID    string             `json:"run_id"`
	Messages []messages.Message `json:"messages"`
	Vars     types.ContextVars  `json:"vars,omitempty"`
	SavedAt  strfmt.DateTime    `json:"saved_at"`
}

// Store archives finished transcripts.
type Store interface {
	// Save archives the transcript, overwriting any previous archive under
	// the same run id. A zero SavedAt is stamped with the current time.
	Save(ctx context.Context, tr Transcript) error
	// Load retrieves an archived transcript. Returns ErrNotFound when the
	// run id is unknown.
	Load(ctx context.Context, runID string) (Transcript, error)
	// List returns the archived run ids ordered by save time, oldest
	// first. Re-saving a transcript moves its id to the new position.
	List(ctx context.Context) ([]string, error)
	// Delete removes an archived transcript. Unknown ids are not an error.
	Delete(ctx context.Context, runID string) error
	// Close releases the backend resources.
	Close() error
}

func prepare(tr Transcript) (Transcript, error) {
	if tr.RunID == "" {
		return tr, errors.New("transcript needs a run id")
	}
	if time.Time(tr.SavedAt).IsZero() {
		tr.SavedAt = strfmt.DateTime(time.Now())
	}
	return tr, nil
}
