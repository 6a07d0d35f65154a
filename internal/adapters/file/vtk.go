package file

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/aretw0/cavity/pkg/domain"
)

// SnapshotWriter writes each snapshot as a legacy ASCII VTK structured-points
// file named droplet_<iteration>.vtk in the run directory.
type SnapshotWriter struct {
	BasePath string
}

// NewSnapshotWriter creates a writer rooted at basePath ("output" when empty).
func NewSnapshotWriter(basePath string) *SnapshotWriter {
	if basePath == "" {
		basePath = "output"
	}
	return &SnapshotWriter{BasePath: basePath}
}

// SnapshotName returns the file name used for an iteration.
func SnapshotName(iteration int, ext string) string {
	return "droplet_" + strconv.Itoa(iteration) + ext
}

func (w *SnapshotWriter) WriteSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(snap.Density) != snap.Width*snap.Height {
		return fmt.Errorf("snapshot %d: %d values for a %dx%d field", snap.Iteration, len(snap.Density), snap.Width, snap.Height)
	}
	dir := w.BasePath
	if snap.RunID != "" {
		dir = (&Store{BasePath: w.BasePath}).RunDir(snap.RunID)
	}
	return writeAtomic(dir, SnapshotName(snap.Iteration, ".vtk"), EncodeVTK(snap))
}

// EncodeVTK renders the density field. Rows are written bottom to top, which
// is the x-fastest order VTK expects.
func EncodeVTK(snap *domain.Snapshot) []byte {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	fmt.Fprintf(bw, "# vtk DataFile Version 3.0\n")
	fmt.Fprintf(bw, "droplet density iteration %d\n", snap.Iteration)
	fmt.Fprintf(bw, "ASCII\nDATASET STRUCTURED_POINTS\n")
	fmt.Fprintf(bw, "DIMENSIONS %d %d 1\n", snap.Width, snap.Height)
	fmt.Fprintf(bw, "ORIGIN 0 0 0\nSPACING 1 1 1\n")
	fmt.Fprintf(bw, "POINT_DATA %d\n", snap.Width*snap.Height)
	fmt.Fprintf(bw, "SCALARS density float 1\nLOOKUP_TABLE default\n")
	for y := 0; y < snap.Height; y++ {
		for x := 0; x < snap.Width; x++ {
			if x > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.FormatFloat(snap.At(x, y), 'g', 7, 32))
		}
		bw.WriteByte('\n')
	}
	_ = bw.Flush()
	return buf.Bytes()
}
