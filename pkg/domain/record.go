package domain

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
)

// RunRecord is the persisted summary of one run: its parameters and what happened.
type RunRecord struct {
	ID      string     `json:"id"`
	Params  RunParams  `json:"params"`
	Outcome RunOutcome `json:"outcome"`
}

// Pair is one key=value line of a record.
type Pair struct {
	Key   string
	Value string
}

// wallKeys maps the surface regions to their record keys.
var wallKeys = []struct {
	region Region
	key    string
}{
	{RegionWellBottom, "rho_wall_bottom"},
	{RegionLeftVertical, "rho_wall_leftWall"},
	{RegionRightVertical, "rho_wall_rightWall"},
	{RegionLeftPlatform, "rho_wall_leftPlatform"},
	{RegionRightPlatform, "rho_wall_rightPlatform"},
}

// recordFields is the flat form of a RunRecord. Keys keep the names of the
// historical parameters.txt so older tooling can still read them.
type recordFields struct {
	RunID      string    `mapstructure:"run_id"`
	Status     string    `mapstructure:"status"`
	StartedAt  time.Time `mapstructure:"started_at"`
	FinishedAt time.Time `mapstructure:"finished_at"`
	Error      string    `mapstructure:"error"`

	G        float64 `mapstructure:"G"`
	Gravity  float64 `mapstructure:"gravity"`
	Radius   float64 `mapstructure:"radius"`
	Tau      float64 `mapstructure:"tau"`
	Psi0     float64 `mapstructure:"psi0"`
	Rho0     float64 `mapstructure:"rho0"`
	CenterX  float64 `mapstructure:"center_x"`
	CenterY  float64 `mapstructure:"center_y"`
	RhoIn    float64 `mapstructure:"rho_in"`
	RhoOut   float64 `mapstructure:"rho_out"`
	MaxIter  int     `mapstructure:"maxIter"`
	Warmup   int     `mapstructure:"warmupIter"`
	SaveIter int     `mapstructure:"saveIter"`
	ScanIter int     `mapstructure:"scanIter"`

	ThetaBottom        float64 `mapstructure:"theta_bottom"`
	ThetaLeftWall      float64 `mapstructure:"theta_leftWall"`
	ThetaRightWall     float64 `mapstructure:"theta_rightWall"`
	ThetaLeftPlatform  float64 `mapstructure:"theta_leftPlatform"`
	ThetaRightPlatform float64 `mapstructure:"theta_rightPlatform"`

	NX        int     `mapstructure:"nx"`
	NY        int     `mapstructure:"ny"`
	WellStart int     `mapstructure:"wellStart_lu"`
	WellDepth int     `mapstructure:"wellDepth_lu"`
	WellWidth int     `mapstructure:"wellWidth_lu"`
	CellSize  float64 `mapstructure:"dx_mm"`

	NeutralDensity float64 `mapstructure:"rho_neutral"`
	LiquidFraction float64 `mapstructure:"liquid_fraction"`
	ProbeOffset    int     `mapstructure:"contact_probe_offset"`

	RhoGas         float64 `mapstructure:"rho_gas"`
	RhoLiquid      float64 `mapstructure:"rho_liquid"`
	ContactIter    int     `mapstructure:"contact_iter"`
	ActivatedCells int     `mapstructure:"activated_cells"`
	Iterations     int     `mapstructure:"iterations"`

	WallBottom        *float64 `mapstructure:"rho_wall_bottom"`
	WallLeftWall      *float64 `mapstructure:"rho_wall_leftWall"`
	WallRightWall     *float64 `mapstructure:"rho_wall_rightWall"`
	WallLeftPlatform  *float64 `mapstructure:"rho_wall_leftPlatform"`
	WallRightPlatform *float64 `mapstructure:"rho_wall_rightPlatform"`

	Carreau bool    `mapstructure:"carreau_enabled"`
	Eta0    float64 `mapstructure:"eta0"`
	EtaInf  float64 `mapstructure:"etaInf"`
	Lambda  float64 `mapstructure:"lambda"`
	N       float64 `mapstructure:"n"`
	RhoPhys float64 `mapstructure:"rho_phys"`
	TauMin  float64 `mapstructure:"tau_min"`
	TauMax  float64 `mapstructure:"tau_max"`
}

// Pairs flattens the record into ordered key=value pairs. Carreau parameters
// are only listed when the model is enabled; wall densities only once known.
func (r RunRecord) Pairs() []Pair {
	p := r.Params
	o := r.Outcome
	var out []Pair
	add := func(k, v string) { out = append(out, Pair{Key: k, Value: v}) }
	num := func(k string, v float64) { add(k, strconv.FormatFloat(v, 'g', -1, 64)) }
	integer := func(k string, v int) { add(k, strconv.Itoa(v)) }

	add("run_id", r.ID)
	add("status", string(o.Status))
	if !o.StartedAt.IsZero() {
		add("started_at", o.StartedAt.UTC().Format(time.RFC3339Nano))
	}
	if !o.FinishedAt.IsZero() {
		add("finished_at", o.FinishedAt.UTC().Format(time.RFC3339Nano))
	}
	if o.Error != "" {
		add("error", o.Error)
	}

	num("G", p.Fluid.G)
	num("gravity", p.Fluid.Gravity)
	num("radius", p.Droplet.Radius)
	num("tau", p.Fluid.Tau)
	num("psi0", p.Fluid.Psi0)
	num("rho0", p.Fluid.Rho0)
	num("center_x", p.Droplet.CenterX)
	num("center_y", p.Droplet.CenterY)
	num("rho_in", p.Droplet.RhoIn)
	num("rho_out", p.Droplet.RhoOut)
	integer("maxIter", p.Schedule.MaxIter)
	integer("warmupIter", p.Schedule.WarmupIter)
	integer("saveIter", p.Schedule.SaveEvery)
	integer("scanIter", p.Schedule.ScanEvery)

	num("theta_bottom", p.Angles.WellBottom)
	num("theta_leftWall", p.Angles.LeftWall)
	num("theta_rightWall", p.Angles.RightWall)
	num("theta_leftPlatform", p.Angles.LeftPlatform)
	num("theta_rightPlatform", p.Angles.RightPlatform)

	integer("nx", p.Geometry.Width)
	integer("ny", p.Geometry.Height)
	integer("wellStart_lu", p.Geometry.WellStartX)
	integer("wellDepth_lu", p.Geometry.WellDepth)
	integer("wellWidth_lu", p.Geometry.WellEndX-p.Geometry.WellStartX)
	num("dx_mm", p.CellSize)

	num("rho_neutral", p.Wetting.NeutralDensity)
	num("liquid_fraction", p.Wetting.LiquidFraction)
	integer("contact_probe_offset", p.Wetting.ContactProbeOffset)

	num("rho_gas", o.Phases.Gas)
	num("rho_liquid", o.Phases.Liquid)
	integer("contact_iter", o.ContactIteration)
	integer("activated_cells", o.ActivatedCells)
	integer("iterations", o.Iterations)
	for _, w := range wallKeys {
		if v, ok := o.WallDensities[w.region]; ok {
			num(w.key, v)
		}
	}

	add("carreau_enabled", strconv.FormatBool(p.Carreau.Enabled))
	if p.Carreau.Enabled {
		num("eta0", p.Carreau.Eta0)
		num("etaInf", p.Carreau.EtaInf)
		num("lambda", p.Carreau.Lambda)
		num("n", p.Carreau.N)
		num("rho_phys", p.Carreau.RhoRef)
		num("tau_min", p.Carreau.TauMin)
		num("tau_max", p.Carreau.TauMax)
	}
	return out
}

// Map returns the pairs as a map.
func (r RunRecord) Map() map[string]string {
	pairs := r.Pairs()
	m := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		m[kv.Key] = kv.Value
	}
	return m
}

// DecodeRecord rebuilds a record from its flat key=value form. Unknown keys
// are ignored. Carreau clamp bounds fall back to the defaults when absent.
func DecodeRecord(values map[string]string) (RunRecord, error) {
	def := DefaultCarreauParams()
	fields := recordFields{TauMin: def.TauMin, TauMax: def.TauMax}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(timeHook),
		WeaklyTypedInput: true,
		Result:           &fields,
	})
	if err != nil {
		return RunRecord{}, err
	}
	if err := decoder.Decode(values); err != nil {
		return RunRecord{}, fmt.Errorf("decode run record: %w", err)
	}
	if fields.RunID == "" {
		return RunRecord{}, fmt.Errorf("decode run record: missing run_id")
	}

	rec := RunRecord{
		ID: fields.RunID,
		Params: RunParams{
			Geometry: Geometry{
				Width:      fields.NX,
				Height:     fields.NY,
				WellStartX: fields.WellStart,
				WellEndX:   fields.WellStart + fields.WellWidth,
				WellDepth:  fields.WellDepth,
			},
			CellSize: fields.CellSize,
			Angles: ContactAngles{
				WellBottom:    fields.ThetaBottom,
				LeftWall:      fields.ThetaLeftWall,
				RightWall:     fields.ThetaRightWall,
				LeftPlatform:  fields.ThetaLeftPlatform,
				RightPlatform: fields.ThetaRightPlatform,
			},
			Droplet: Droplet{
				CenterX: fields.CenterX,
				CenterY: fields.CenterY,
				Radius:  fields.Radius,
				RhoIn:   fields.RhoIn,
				RhoOut:  fields.RhoOut,
			},
			Fluid: FluidParams{
				G:       fields.G,
				Psi0:    fields.Psi0,
				Rho0:    fields.Rho0,
				Tau:     fields.Tau,
				Gravity: fields.Gravity,
			},
			Schedule: Schedule{
				MaxIter:    fields.MaxIter,
				WarmupIter: fields.Warmup,
				SaveEvery:  fields.SaveIter,
				ScanEvery:  fields.ScanIter,
			},
			Wetting: WettingParams{
				NeutralDensity:     fields.NeutralDensity,
				LiquidFraction:     fields.LiquidFraction,
				ContactProbeOffset: fields.ProbeOffset,
			},
			Carreau: CarreauParams{
				Enabled: fields.Carreau,
				Eta0:    fields.Eta0,
				EtaInf:  fields.EtaInf,
				Lambda:  fields.Lambda,
				N:       fields.N,
				RhoRef:  fields.RhoPhys,
				TauMin:  fields.TauMin,
				TauMax:  fields.TauMax,
			},
		},
		Outcome: RunOutcome{
			Status:           RunStatus(fields.Status),
			Phases:           PhaseDensities{Gas: fields.RhoGas, Liquid: fields.RhoLiquid},
			ContactIteration: fields.ContactIter,
			ActivatedCells:   fields.ActivatedCells,
			Iterations:       fields.Iterations,
			StartedAt:        fields.StartedAt,
			FinishedAt:       fields.FinishedAt,
			Error:            fields.Error,
		},
	}

	walls := []*float64{
		fields.WallBottom,
		fields.WallLeftWall,
		fields.WallRightWall,
		fields.WallLeftPlatform,
		fields.WallRightPlatform,
	}
	for i, v := range walls {
		if v == nil {
			continue
		}
		if rec.Outcome.WallDensities == nil {
			rec.Outcome.WallDensities = make(map[Region]float64, len(walls))
		}
		rec.Outcome.WallDensities[wallKeys[i].region] = *v
	}
	return rec, nil
}

func timeHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	s := data.(string)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
