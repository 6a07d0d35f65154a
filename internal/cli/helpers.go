package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/term"

	"github.com/aretw0/cavity/internal/logging"
	"github.com/aretw0/cavity/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger on stderr, keeping stdout
// for summaries.
func createLogger(level, format string, quiet bool) (*slog.Logger, error) {
	if quiet {
		return logging.NewNop(), nil
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	f := logging.FormatText
	if format == "json" {
		f = logging.FormatJSON
	}
	return logging.NewWithOptions(os.Stderr, lvl, f), nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// createProgressHooks logs the run as it goes: warm-up and production
// diagnostics, bottom contact, activations and snapshots.
func createProgressHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseEnter: func(ctx context.Context, e *domain.PhaseEvent) {
			logger.Debug("Enter Phase", "phase", e.Phase, "iteration", e.Iteration)
		},
		OnProgress: func(ctx context.Context, e *domain.ProgressEvent) {
			logger.Info("progress",
				"phase", e.Phase,
				"iteration", e.Iteration,
				"rho_min", e.MinDensity,
				"rho_max", e.MaxDensity,
				"active_cells", e.Active,
			)
		},
		OnContact: func(ctx context.Context, e *domain.ContactEvent) {
			logger.Info("droplet reached the well bottom",
				"iteration", e.Iteration,
				"x", e.X,
				"rho", e.Density,
				"threshold", e.Threshold,
			)
		},
		OnActivation: func(ctx context.Context, e *domain.ActivationEvent) {
			logger.Debug("wall cells activated", "iteration", e.Iteration, "new", len(e.Assignments), "total", e.Total)
		},
		OnSnapshot: func(ctx context.Context, e *domain.SnapshotEvent) {
			logger.Debug("snapshot written", "iteration", e.Iteration)
		},
	}
}
