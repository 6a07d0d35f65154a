package cli

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/cavity/internal/adapters/file"
	"github.com/aretw0/cavity/internal/config"
	"github.com/aretw0/cavity/internal/logging"
	"github.com/aretw0/cavity/pkg/domain"
)

// smallConfig is a 60x50 lattice run that finishes in a few dozen steps.
func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Output = t.TempDir()
	cfg.Store.Backend = "memory"
	require.NoError(t, cfg.Set(
		"geometry.width_mm=0.3",
		"geometry.height_mm=0.25",
		"geometry.well_start_mm=0.05",
		"geometry.well_end_mm=0.25",
		"geometry.well_depth_mm=0.04",
		"droplet.radius=8",
		"droplet.elevation_mm=0.075",
		"schedule.max_iter=20",
		"schedule.warmup_iter=5",
		"schedule.save_iter=10",
		"workers=2",
	))
	return cfg
}

func TestFlagOverrides(t *testing.T) {
	newFlags := func() *pflag.FlagSet {
		fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
		RegisterRunFlags(fs)
		return fs
	}

	t.Run("Only changed flags", func(t *testing.T) {
		fs := newFlags()
		require.NoError(t, fs.Parse([]string{"--G=-100", "--max-iter", "300", "--theta-leftPlatform=60"}))
		assert.ElementsMatch(t, []string{
			"fluid.g=-100",
			"schedule.max_iter=300",
			"angles.left_platform=60",
		}, FlagOverrides(fs))
	})

	t.Run("Carreau parameter implies carreau", func(t *testing.T) {
		fs := newFlags()
		require.NoError(t, fs.Parse([]string{"--eta0=2"}))
		assert.ElementsMatch(t, []string{"carreau.eta0=2", "carreau.enabled=true"}, FlagOverrides(fs))
	})

	t.Run("Explicit carreau wins", func(t *testing.T) {
		fs := newFlags()
		require.NoError(t, fs.Parse([]string{"--n=0.5", "--carreau=false"}))
		assert.ElementsMatch(t, []string{"carreau.n=0.5", "carreau.enabled=false"}, FlagOverrides(fs))
	})

	t.Run("Overrides apply to config", func(t *testing.T) {
		fs := newFlags()
		require.NoError(t, fs.Parse([]string{"--shift-x=0.1", "--lambda=0.3", "--snapshots=vtk,png"}))
		cfg := config.DefaultConfig()
		require.NoError(t, cfg.Set(FlagOverrides(fs)...))
		assert.Equal(t, 0.1, cfg.Droplet.ShiftX)
		assert.Equal(t, 0.3, cfg.Carreau.Lambda)
		assert.True(t, cfg.Carreau.Enabled)
		assert.Equal(t, []string{"vtk", "png"}, cfg.Snapshots)
	})
}

func TestProgressHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithOptions(&buf, slog.LevelInfo, logging.FormatText)
	hooks := createProgressHooks(logger)
	ctx := context.Background()

	hooks.OnProgress(ctx, &domain.ProgressEvent{
		EventBase:  domain.NewEventBase(domain.EventProgress, "r1", 500),
		Phase:      domain.PhaseWarmup,
		MinDensity: 84.9,
		MaxDensity: 530.2,
	})
	hooks.OnContact(ctx, &domain.ContactEvent{
		EventBase: domain.NewEventBase(domain.EventContact, "r1", 620),
		X:         120,
	})
	hooks.OnActivation(ctx, &domain.ActivationEvent{EventBase: domain.NewEventBase(domain.EventActivation, "r1", 620)})

	out := buf.String()
	assert.Contains(t, out, "phase=warmup")
	assert.Contains(t, out, "iteration=500")
	assert.Contains(t, out, "rho_max=530.2")
	assert.Contains(t, out, "droplet reached the well bottom")
	assert.NotContains(t, out, "wall cells activated", "activations log at debug")
}

func TestOpenBackends(t *testing.T) {
	t.Run("File store with both snapshot formats", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Output = t.TempDir()
		cfg.Snapshots = []string{"vtk", "png"}

		b, err := openBackends(cfg)
		require.NoError(t, err)
		defer b.Close()
		assert.IsType(t, &file.Store{}, b.store)
		assert.Nil(t, b.locker)
		assert.Len(t, b.writers, 2)
	})

	t.Run("Memory store has a locker", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Store.Backend = "memory"
		b, err := openBackends(cfg)
		require.NoError(t, err)
		assert.NotNil(t, b.locker)
	})

	t.Run("Unknown backend", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Store.Backend = "tape"
		_, err := openBackends(cfg)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}

func TestRun_SmallCavity(t *testing.T) {
	cfg := smallConfig(t)
	var out bytes.Buffer

	rec, err := Run(context.Background(), cfg, RunOptions{RunID: "cli-small", Out: &out, LogFormat: "text"})
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, domain.StatusDone, rec.Outcome.Status)
	assert.Equal(t, 20, rec.Outcome.Iterations)
	assert.Contains(t, out.String(), ">>> Run cli-small")
	assert.Contains(t, out.String(), "Run cli-small")

	for _, it := range []int{0, 10, 20} {
		_, err := os.Stat(filepath.Join(cfg.Output, "cli-small", file.SnapshotName(it, ".vtk")))
		assert.NoError(t, err, "snapshot %d", it)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Fluid.Tau = 0.4
	_, err := Run(context.Background(), cfg, RunOptions{Quiet: true, Out: &bytes.Buffer{}})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestRun_Canceled(t *testing.T) {
	cfg := smallConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	rec, err := Run(ctx, cfg, RunOptions{Out: &out})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, domain.StatusCanceled, rec.Outcome.Status)
	assert.Contains(t, out.String(), "Interrupted")
}

func TestInspect(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output = t.TempDir()
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, Inspect(ctx, cfg, "", &out))
	assert.Contains(t, out.String(), "No runs")

	store := file.New(cfg.Output)
	require.NoError(t, store.Save(ctx, &domain.RunRecord{
		ID:      "r42",
		Outcome: domain.RunOutcome{Status: domain.StatusDone, ActivatedCells: 12},
	}))

	out.Reset()
	require.NoError(t, Inspect(ctx, cfg, "", &out))
	assert.Equal(t, "r42\n", out.String())

	out.Reset()
	require.NoError(t, Inspect(ctx, cfg, "r42", &out))
	assert.Contains(t, out.String(), "r42")
	assert.Contains(t, out.String(), "12")

	assert.ErrorContains(t, Inspect(ctx, cfg, "missing", &out), "not found")
}

func TestValidate(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Validate(config.DefaultConfig(), &out))
	assert.Contains(t, out.String(), "Lattice 240x126")
	assert.Contains(t, out.String(), "configuration is valid")
}

func TestServeMCP_UnknownTransport(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output = t.TempDir()
	err := ServeMCP(context.Background(), cfg, "carrier-pigeon", 0)
	assert.ErrorContains(t, err, "unknown transport")
}

func TestServe_RejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Backend = "tape"
	err := Serve(context.Background(), cfg, ServeOptions{Addr: "127.0.0.1:0", Out: &bytes.Buffer{}})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestServe_ListenFailureStopsBackgroundRun(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := smallConfig(t)
	cfg.Store.Backend = "file"
	require.NoError(t, cfg.Set("schedule.max_iter=100000000", "schedule.save_iter=100000"))

	err = Serve(context.Background(), cfg, ServeOptions{
		Addr:  busy.Addr().String(),
		Run:   true,
		RunID: "bg",
		Out:   &bytes.Buffer{},
	})
	require.ErrorContains(t, err, "server error")

	// The run was cancelled and its final record saved before Serve returned.
	rec, err := file.New(cfg.Output).Load(context.Background(), "bg")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, rec.Outcome.Status)
}
