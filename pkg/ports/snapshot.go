package ports

import (
	"context"
	"errors"

	"github.com/aretw0/cavity/pkg/domain"
)

// SnapshotWriter receives density snapshots. Internal solid cells arrive
// already masked with the gas density.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, snap *domain.Snapshot) error
}

// MultiSnapshotWriter fans a snapshot out to several writers. Every writer is
// called; their errors are joined.
type MultiSnapshotWriter []SnapshotWriter

func (m MultiSnapshotWriter) WriteSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	var errs []error
	for _, w := range m {
		if err := w.WriteSnapshot(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
