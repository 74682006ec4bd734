package dailynotes

import (
	"context"

	"github.com/example/daygap/internal/date"
)

// Provider is the daily note surface the rest of the system works against:
// whether the feature is on, how names map to dates, what exists on disk,
// and how to create the note for a missing day.
type Provider interface {
	// Enabled reports whether daily notes are turned on for the vault.
	Enabled() bool
	// Pattern returns the compiled filename pattern.
	Pattern() *Pattern
	// All scans the daily notes folder and returns a fresh snapshot.
	All(ctx context.Context) (*Registry, error)
	// Create writes the note for the given day and returns it. Creating a
	// day that already has a note fails with apperr.ErrAlreadyExists.
	Create(ctx context.Context, d date.Date) (Note, error)
}
