package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/cavity"
	"github.com/aretw0/cavity/internal/adapters/file"
	"github.com/aretw0/cavity/internal/adapters/plot"
	"github.com/aretw0/cavity/internal/config"
	"github.com/aretw0/cavity/pkg/adapters/memory"
	"github.com/aretw0/cavity/pkg/adapters/redis"
	"github.com/aretw0/cavity/pkg/domain"
	"github.com/aretw0/cavity/pkg/ports"
)

// backends are the adapters selected by the configuration.
type backends struct {
	store   ports.RunStore
	locker  ports.DistributedLocker
	writers []ports.SnapshotWriter
	closers []func() error
}

func (b *backends) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// openBackends wires the run store, scan locker and snapshot writers.
func openBackends(cfg *config.Config) (*backends, error) {
	b := &backends{}

	switch cfg.Store.Backend {
	case "file":
		b.store = file.New(cfg.Output)
	case "memory":
		b.store = memory.NewStore()
		b.locker = memory.NewLocker()
	case "redis":
		ttl, err := cfg.RedisTTL()
		if err != nil {
			return nil, err
		}
		store := redis.New(cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB, redis.WithTTL(ttl))
		b.store = store
		b.locker = redis.NewLocker(store.Client(), "cavity:")
		b.closers = append(b.closers, store.Close)
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidConfig, cfg.Store.Backend)
	}

	for _, format := range cfg.Snapshots {
		switch format {
		case "vtk":
			b.writers = append(b.writers, file.NewSnapshotWriter(cfg.Output))
		case "png":
			b.writers = append(b.writers, plot.NewHeatmapWriter(cfg.Output))
		default:
			return nil, fmt.Errorf("%w: unknown snapshot format %q", domain.ErrInvalidConfig, format)
		}
	}
	return b, nil
}

// createEngine builds a cavity engine from the configuration.
func createEngine(cfg *config.Config, b *backends, logger *slog.Logger, runID string, hooks ...domain.LifecycleHooks) (*cavity.Engine, error) {
	params, err := cfg.ToParams()
	if err != nil {
		return nil, err
	}

	opts := []cavity.Option{
		cavity.WithLogger(logger),
		cavity.WithWorkers(cfg.Workers),
		cavity.WithStore(b.store),
		cavity.WithRunID(runID),
		cavity.WithLifecycleHooks(createProgressHooks(logger)),
	}
	for _, h := range hooks {
		opts = append(opts, cavity.WithLifecycleHooks(h))
	}
	for _, w := range b.writers {
		opts = append(opts, cavity.WithSnapshotWriter(w))
	}
	if b.locker != nil {
		opts = append(opts, cavity.WithLocker(b.locker))
	}

	eng, err := cavity.New(params, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return eng, nil
}
