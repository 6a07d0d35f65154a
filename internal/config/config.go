// Package config loads run configuration from YAML files and command-line
// overrides and converts it to lattice-unit run parameters.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/cavity/pkg/domain"
)

// Config holds all cavity configuration. Lengths ending in _mm are physical;
// everything else is in lattice units.
type Config struct {
	Output   string `yaml:"output"`
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	Geometry GeometryConfig `yaml:"geometry"`
	Fluid    FluidConfig    `yaml:"fluid"`
	Droplet  DropletConfig  `yaml:"droplet"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Angles   AnglesConfig   `yaml:"angles"`
	Wetting  WettingConfig  `yaml:"wetting"`
	Carreau  CarreauConfig  `yaml:"carreau"`
	Store    StoreConfig    `yaml:"store"`
	Server   ServerConfig   `yaml:"server"`

	// Snapshot formats written per save step: vtk, png.
	Snapshots []string `yaml:"snapshots"`
	// Solver goroutines; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// GeometryConfig is the physical cavity layout.
type GeometryConfig struct {
	CellSize  float64 `yaml:"cell_size_mm"`
	Width     float64 `yaml:"width_mm"`
	Height    float64 `yaml:"height_mm"`
	WellStart float64 `yaml:"well_start_mm"`
	WellEnd   float64 `yaml:"well_end_mm"`
	WellDepth float64 `yaml:"well_depth_mm"`
}

// FluidConfig configures the pseudo-potential fluid.
type FluidConfig struct {
	G       float64 `yaml:"g"`
	Gravity float64 `yaml:"gravity"`
	Tau     float64 `yaml:"tau"`
	Psi0    float64 `yaml:"psi0"`
	Rho0    float64 `yaml:"rho0"`
}

// DropletConfig places the initial droplet. ShiftX moves it from the well
// centre; Elevation is its height above the platform.
type DropletConfig struct {
	Radius    float64 `yaml:"radius"`
	ShiftX    float64 `yaml:"shift_x_mm"`
	Elevation float64 `yaml:"elevation_mm"`
	RhoIn     float64 `yaml:"rho_in"`
	RhoOut    float64 `yaml:"rho_out"`
}

// ScheduleConfig holds the iteration counts.
type ScheduleConfig struct {
	MaxIter       int `yaml:"max_iter"`
	WarmupIter    int `yaml:"warmup_iter"`
	SaveIter      int `yaml:"save_iter"`
	ScanIter      int `yaml:"scan_iter"`
	ProgressEvery int `yaml:"progress_iter"`
}

// AnglesConfig holds the contact angles in degrees.
type AnglesConfig struct {
	WellBottom    float64 `yaml:"well_bottom"`
	LeftWall      float64 `yaml:"left_wall"`
	RightWall     float64 `yaml:"right_wall"`
	LeftPlatform  float64 `yaml:"left_platform"`
	RightPlatform float64 `yaml:"right_platform"`
}

// WettingConfig tunes the progressive activation.
type WettingConfig struct {
	NeutralDensity     float64 `yaml:"neutral_density"`
	LiquidFraction     float64 `yaml:"liquid_fraction"`
	ContactProbeOffset int     `yaml:"contact_probe_offset"`
}

// CarreauConfig configures the shear-thinning rheology.
type CarreauConfig struct {
	Enabled bool    `yaml:"enabled"`
	Eta0    float64 `yaml:"eta0"`
	EtaInf  float64 `yaml:"eta_inf"`
	Lambda  float64 `yaml:"lambda"`
	N       float64 `yaml:"n"`
	RhoRef  float64 `yaml:"rho_ref"`
	TauMin  float64 `yaml:"tau_min"`
	TauMax  float64 `yaml:"tau_max"`
}

// StoreConfig selects where run records go.
type StoreConfig struct {
	Backend       string `yaml:"backend"` // file, redis, memory
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisTTL      string `yaml:"redis_ttl"`
	LockTTL       string `yaml:"lock_ttl"`
}

// ServerConfig configures cavity serve.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the reference cavity: a 1.2 x 0.63 mm domain with a
// 0.8 mm wide, 0.13 mm deep well, resolved at 5 um per cell.
func DefaultConfig() *Config {
	carreau := domain.DefaultCarreauParams()
	angles := domain.DefaultContactAngles()
	return &Config{
		Output:   "output",
		LogLevel: "info",
		Geometry: GeometryConfig{
			CellSize:  0.005,
			Width:     1.2,
			Height:    0.63,
			WellStart: 0.2,
			WellEnd:   1.0,
			WellDepth: 0.13,
		},
		Fluid: FluidConfig{
			G:       -112,
			Gravity: -5e-5,
			Tau:     1,
			Psi0:    4,
			Rho0:    200,
		},
		Droplet: DropletConfig{
			Radius:    30,
			Elevation: 0.3,
			RhoIn:     530,
			RhoOut:    85,
		},
		Schedule: ScheduleConfig{
			MaxIter:       50000,
			WarmupIter:    1000,
			SaveIter:      500,
			ScanIter:      10,
			ProgressEvery: 500,
		},
		Angles: AnglesConfig{
			WellBottom:    angles.WellBottom,
			LeftWall:      angles.LeftWall,
			RightWall:     angles.RightWall,
			LeftPlatform:  angles.LeftPlatform,
			RightPlatform: angles.RightPlatform,
		},
		Wetting: WettingConfig{
			NeutralDensity:     90,
			LiquidFraction:     0.15,
			ContactProbeOffset: 2,
		},
		Carreau: CarreauConfig{
			Eta0:   carreau.Eta0,
			EtaInf: carreau.EtaInf,
			Lambda: carreau.Lambda,
			N:      carreau.N,
			RhoRef: carreau.RhoRef,
			TauMin: carreau.TauMin,
			TauMax: carreau.TauMax,
		},
		Store: StoreConfig{
			Backend:   "file",
			RedisAddr: "localhost:6379",
			LockTTL:   "30s",
		},
		Server:    ServerConfig{Addr: ":8080"},
		Snapshots: []string{"vtk"},
	}
}

// Load reads configuration from a YAML file on top of the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Set applies dotted-key overrides such as "fluid.g=-100" or
// "carreau.enabled=true". Keys use the YAML names; unknown keys are errors.
func (c *Config) Set(overrides ...string) error {
	tree := map[string]any{}
	for _, kv := range overrides {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("%w: override %q is not key=value", domain.ErrInvalidConfig, kv)
		}
		if err := insert(tree, strings.Split(key, "."), strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("%w: override %q: %v", domain.ErrInvalidConfig, kv, err)
		}
	}

	// Decoding into a non-empty slice keeps its tail.
	if _, ok := tree["snapshots"]; ok {
		c.Snapshots = nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           c,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(tree); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return nil
}

func insert(tree map[string]any, path []string, value string) error {
	for i, part := range path {
		if part == "" {
			return fmt.Errorf("empty key segment")
		}
		if i == len(path)-1 {
			if _, isMap := tree[part].(map[string]any); isMap {
				return fmt.Errorf("%s is a section", part)
			}
			if strings.Contains(value, ",") {
				tree[part] = strings.Split(value, ",")
			} else {
				tree[part] = value
			}
			return nil
		}
		next, ok := tree[part].(map[string]any)
		if !ok {
			if _, exists := tree[part]; exists {
				return fmt.Errorf("%s is a value", part)
			}
			next = map[string]any{}
			tree[part] = next
		}
		tree = next
	}
	return nil
}

// Validate checks settings that ToParams cannot.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidConfig, c.Store.Backend)
	}
	for _, f := range c.Snapshots {
		if !slices.Contains([]string{"vtk", "png"}, f) {
			return fmt.Errorf("%w: unknown snapshot format %q", domain.ErrInvalidConfig, f)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", domain.ErrInvalidConfig)
	}
	if _, err := c.RedisTTL(); err != nil {
		return err
	}
	if _, err := c.LockTTL(); err != nil {
		return err
	}
	p, err := c.ToParams()
	if err != nil {
		return err
	}
	return p.Validate()
}

func parseDuration(name, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %s %q is not a duration", domain.ErrInvalidConfig, name, s)
	}
	return d, nil
}

// RedisTTL returns the run record expiry; 0 keeps records forever.
func (c *Config) RedisTTL() (time.Duration, error) {
	return parseDuration("store.redis_ttl", c.Store.RedisTTL)
}

// LockTTL returns the scan lock expiry.
func (c *Config) LockTTL() (time.Duration, error) {
	return parseDuration("store.lock_ttl", c.Store.LockTTL)
}

// Layout returns the physical cavity layout.
func (c *Config) Layout() domain.PhysicalLayout {
	g := c.Geometry
	return domain.PhysicalLayout{
		CellSize:  g.CellSize,
		Width:     g.Width,
		Height:    g.Height,
		WellStart: g.WellStart,
		WellEnd:   g.WellEnd,
		WellDepth: g.WellDepth,
	}
}

// ToParams converts the configuration to lattice-unit run parameters. The
// droplet sits above the well centre, shifted by ShiftX, and Elevation above
// the platform.
func (c *Config) ToParams() (domain.RunParams, error) {
	geom, err := c.Layout().Geometry()
	if err != nil {
		return domain.RunParams{}, err
	}
	dx := c.Geometry.CellSize
	centre := (c.Geometry.WellStart + c.Geometry.WellEnd) / 2

	return domain.RunParams{
		Geometry: geom,
		CellSize: dx,
		Angles: domain.ContactAngles{
			WellBottom:    c.Angles.WellBottom,
			LeftWall:      c.Angles.LeftWall,
			RightWall:     c.Angles.RightWall,
			LeftPlatform:  c.Angles.LeftPlatform,
			RightPlatform: c.Angles.RightPlatform,
		},
		Droplet: domain.Droplet{
			CenterX: (centre + c.Droplet.ShiftX) / dx,
			CenterY: float64(geom.WellDepth) + c.Droplet.Elevation/dx,
			Radius:  c.Droplet.Radius,
			RhoIn:   c.Droplet.RhoIn,
			RhoOut:  c.Droplet.RhoOut,
		},
		Fluid: domain.FluidParams{
			G:       c.Fluid.G,
			Psi0:    c.Fluid.Psi0,
			Rho0:    c.Fluid.Rho0,
			Tau:     c.Fluid.Tau,
			Gravity: c.Fluid.Gravity,
		},
		Schedule: domain.Schedule{
			MaxIter:       c.Schedule.MaxIter,
			WarmupIter:    c.Schedule.WarmupIter,
			SaveEvery:     c.Schedule.SaveIter,
			ScanEvery:     c.Schedule.ScanIter,
			ProgressEvery: c.Schedule.ProgressEvery,
		},
		Wetting: domain.WettingParams{
			NeutralDensity:     c.Wetting.NeutralDensity,
			LiquidFraction:     c.Wetting.LiquidFraction,
			ContactProbeOffset: c.Wetting.ContactProbeOffset,
		},
		Carreau: domain.CarreauParams{
			Enabled: c.Carreau.Enabled,
			Eta0:    c.Carreau.Eta0,
			EtaInf:  c.Carreau.EtaInf,
			Lambda:  c.Carreau.Lambda,
			N:       c.Carreau.N,
			RhoRef:  c.Carreau.RhoRef,
			TauMin:  c.Carreau.TauMin,
			TauMax:  c.Carreau.TauMax,
		},
	}, nil
}
