package ports

import (
	"context"

	"github.com/aretw0/cavity/pkg/domain"
)

// RunStore persists the parameter record of each run.
type RunStore interface {
	// Save persists the record under its ID, replacing any previous version.
	Save(ctx context.Context, rec *domain.RunRecord) error

	// Load retrieves the record of a run.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.RunRecord, error)

	// Delete removes the record of a run.
	Delete(ctx context.Context, runID string) error

	// List returns the IDs of all stored runs.
	List(ctx context.Context) ([]string, error)
}
