package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/cavity/internal/config"
	"github.com/aretw0/cavity/pkg/domain"
)

// Inspect prints a stored run, or lists the stored runs when runID is empty.
func Inspect(ctx context.Context, cfg *config.Config, runID string, w io.Writer) error {
	b, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	if runID == "" {
		ids, err := b.store.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(ids) == 0 {
			printSystemMessage(w, "No runs in %s store.", cfg.Store.Backend)
			return nil
		}
		fmt.Fprintln(w, strings.Join(ids, "\n"))
		return nil
	}

	rec, err := b.store.Load(ctx, runID)
	if errors.Is(err, domain.ErrRunNotFound) {
		return fmt.Errorf("run %q not found in %s store", runID, cfg.Store.Backend)
	}
	if err != nil {
		return err
	}
	printSummary(w, rec, isTerminal(w))
	return nil
}
