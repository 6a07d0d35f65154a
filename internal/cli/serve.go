package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/cavity"
	"github.com/aretw0/cavity/internal/config"
	httpAdapter "github.com/aretw0/cavity/pkg/adapters/http"
	"github.com/aretw0/cavity/pkg/observability"
)

// ServeOptions configures the serve command.
type ServeOptions struct {
	Addr      string
	Run       bool // launch a run in the background and expose its status
	RunID     string
	LogFormat string
	Out       io.Writer
}

// Serve exposes run records, metrics and the cavity helpers over HTTP until
// ctx is done.
func Serve(ctx context.Context, cfg *config.Config, opts ServeOptions) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := createLogger(cfg.LogLevel, opts.LogFormat, false)
	if err != nil {
		return err
	}
	params, err := cfg.ToParams()
	if err != nil {
		return err
	}

	b, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	srvOpts := []httpAdapter.Option{
		httpAdapter.WithGatherer(reg),
		httpAdapter.WithVersion(strings.TrimSpace(cavity.Version)),
		httpAdapter.WithLogger(logger),
	}
	server := httpAdapter.NewServer(b.store, params.Geometry, srvOpts...)

	// The background run is cancelled and awaited before the backends close.
	ctx, cancel := context.WithCancel(ctx)
	runDone := make(chan error, 1)
	started := false
	defer func() {
		cancel()
		if started {
			<-runDone
		}
	}()
	if opts.Run {
		eng, err := createEngine(cfg, b, logger, opts.RunID, metrics.Hooks(), server.Hooks())
		if err != nil {
			return err
		}
		server.Monitor = eng.Monitor()
		started = true
		go func() {
			_, err := eng.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background run failed", "run_id", eng.RunID(), "error", err)
			}
			runDone <- err
		}()
		printSystemMessage(opts.Out, "Run %s started; status at /status", eng.RunID())
	}

	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: server.Handler(),
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	printSystemMessage(opts.Out, "Starting cavity server on %s", srv.Addr)
	go func() {
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	// Give outstanding requests a deadline for completion.
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("graceful shutdown did not complete: %w", err)
	}
	printSystemMessage(opts.Out, "Cavity server stopped gracefully")
	return nil
}
