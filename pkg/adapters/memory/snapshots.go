package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/cavity/pkg/domain"
)

// SnapshotRecorder implements ports.SnapshotWriter by keeping every snapshot.
type SnapshotRecorder struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
}

// NewSnapshotRecorder returns an empty recorder.
func NewSnapshotRecorder() *SnapshotRecorder {
	return &SnapshotRecorder{}
}

func (r *SnapshotRecorder) WriteSnapshot(_ context.Context, snap *domain.Snapshot) error {
	c := *snap
	c.Density = slices.Clone(snap.Density)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, c)
	return nil
}

// Snapshots returns the recorded snapshots in arrival order.
func (r *SnapshotRecorder) Snapshots() []domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.snaps)
}

// Iterations returns the iteration of each recorded snapshot.
func (r *SnapshotRecorder) Iterations() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.snaps))
	for i, s := range r.snaps {
		out[i] = s.Iteration
	}
	return out
}
