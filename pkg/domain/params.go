package domain

import "fmt"

// Droplet seeds the initial density field, in lattice units.
type Droplet struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Radius  float64 `json:"radius"`
	RhoIn   float64 `json:"rho_in"`
	RhoOut  float64 `json:"rho_out"`
}

// FluidParams configure the pseudo-potential fluid.
type FluidParams struct {
	G       float64 `json:"g"`       // interaction strength
	Psi0    float64 `json:"psi0"`    // potential amplitude
	Rho0    float64 `json:"rho0"`    // potential reference density
	Tau     float64 `json:"tau"`     // base relaxation time
	Gravity float64 `json:"gravity"` // acceleration along y, applied after warm-up
}

// Omega is the base relaxation rate 1/Tau.
func (f FluidParams) Omega() float64 {
	return 1.0 / f.Tau
}

// Schedule holds the iteration counts of a run.
type Schedule struct {
	MaxIter       int `json:"max_iter"`
	WarmupIter    int `json:"warmup_iter"`
	SaveEvery     int `json:"save_every"`
	ScanEvery     int `json:"scan_every"`
	ProgressEvery int `json:"progress_every"` // warm-up progress cadence
}

// WettingParams tune the progressive wall activation.
type WettingParams struct {
	NeutralDensity     float64 `json:"neutral_density"`
	LiquidFraction     float64 `json:"liquid_fraction"`
	ContactProbeOffset int     `json:"contact_probe_offset"`
}

// CarreauParams configure the shear-thinning rheology. Viscosities are in
// Pa.s and are divided by RhoRef to obtain kinematic viscosities.
type CarreauParams struct {
	Enabled bool    `json:"enabled"`
	Eta0    float64 `json:"eta0"`
	EtaInf  float64 `json:"eta_inf"`
	Lambda  float64 `json:"lambda"`
	N       float64 `json:"n"`
	RhoRef  float64 `json:"rho_ref"`
	TauMin  float64 `json:"tau_min"`
	TauMax  float64 `json:"tau_max"`
}

// DefaultCarreauParams returns the shear-thinning ink parameters, disabled.
func DefaultCarreauParams() CarreauParams {
	return CarreauParams{
		Eta0:   1.5,
		EtaInf: 0.167,
		Lambda: 0.15,
		N:      0.7,
		RhoRef: 3000,
		TauMin: 0.55,
		TauMax: 2.0,
	}
}

// Validate checks the clamp band and the reference density.
func (c CarreauParams) Validate() error {
	if c.TauMin <= 0.5 {
		return fmt.Errorf("%w: tau_min %g must exceed 0.5", ErrInvalidConfig, c.TauMin)
	}
	if c.TauMax < c.TauMin {
		return fmt.Errorf("%w: tau_max %g below tau_min %g", ErrInvalidConfig, c.TauMax, c.TauMin)
	}
	if c.Enabled && c.RhoRef <= 0 {
		return fmt.Errorf("%w: reference density must be positive", ErrInvalidConfig)
	}
	return nil
}

// RunParams is everything the orchestrator needs for one run.
type RunParams struct {
	Geometry Geometry      `json:"geometry"`
	CellSize float64       `json:"cell_size_mm"`
	Angles   ContactAngles `json:"angles"`
	Droplet  Droplet       `json:"droplet"`
	Fluid    FluidParams   `json:"fluid"`
	Schedule Schedule      `json:"schedule"`
	Wetting  WettingParams `json:"wetting"`
	Carreau  CarreauParams `json:"carreau"`
}

// Validate checks the parameters before any step is taken.
func (p RunParams) Validate() error {
	if err := p.Geometry.Validate(); err != nil {
		return err
	}
	if err := p.Angles.Validate(); err != nil {
		return err
	}
	if p.Fluid.Tau <= 0.5 {
		return fmt.Errorf("%w: tau %g must exceed 0.5", ErrInvalidConfig, p.Fluid.Tau)
	}
	s := p.Schedule
	if s.MaxIter < 0 || s.WarmupIter < 0 {
		return fmt.Errorf("%w: negative iteration count", ErrInvalidConfig)
	}
	if s.SaveEvery <= 0 || s.ScanEvery <= 0 {
		return fmt.Errorf("%w: save and scan cadence must be positive", ErrInvalidConfig)
	}
	if p.Wetting.LiquidFraction <= 0 || p.Wetting.LiquidFraction >= 1 {
		return fmt.Errorf("%w: liquid fraction %g outside (0, 1)", ErrInvalidConfig, p.Wetting.LiquidFraction)
	}
	probe := p.Geometry.BottomLevel() + p.Wetting.ContactProbeOffset
	if probe <= p.Geometry.BottomLevel() || probe >= p.Geometry.Height-1 {
		return fmt.Errorf("%w: contact probe row %d outside the well", ErrInvalidConfig, probe)
	}
	return p.Carreau.Validate()
}
