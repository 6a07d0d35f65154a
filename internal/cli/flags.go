package cli

import (
	"github.com/spf13/pflag"
)

// flagKeys maps run flags to configuration keys.
var flagKeys = map[string]string{
	"output":              "output",
	"G":                   "fluid.g",
	"gravity":             "fluid.gravity",
	"tau":                 "fluid.tau",
	"radius":              "droplet.radius",
	"shift-x":             "droplet.shift_x_mm",
	"max-iter":            "schedule.max_iter",
	"save-iter":           "schedule.save_iter",
	"warmup":              "schedule.warmup_iter",
	"scan-iter":           "schedule.scan_iter",
	"theta-wellBottom":    "angles.well_bottom",
	"theta-leftWall":      "angles.left_wall",
	"theta-rightWall":     "angles.right_wall",
	"theta-leftPlatform":  "angles.left_platform",
	"theta-rightPlatform": "angles.right_platform",
	"carreau":             "carreau.enabled",
	"eta0":                "carreau.eta0",
	"eta-inf":             "carreau.eta_inf",
	"lambda":              "carreau.lambda",
	"n":                   "carreau.n",
	"rho":                 "carreau.rho_ref",
	"store":               "store.backend",
	"redis-addr":          "store.redis_addr",
	"snapshots":           "snapshots",
	"workers":             "workers",
	"log-level":           "log_level",
}

// carreauFlags imply --carreau when set.
var carreauFlags = map[string]bool{
	"eta0":    true,
	"eta-inf": true,
	"lambda":  true,
	"n":       true,
	"rho":     true,
}

// RegisterRunFlags adds the run flags to fs.
func RegisterRunFlags(fs *pflag.FlagSet) {
	fs.String("output", "output", "Directory for run records and snapshots")
	fs.Float64("G", -112, "Shan-Chen interaction strength")
	fs.Float64("gravity", -5e-5, "Gravity along y, lattice units")
	fs.Float64("tau", 1, "Base relaxation time")
	fs.Float64("radius", 30, "Droplet radius, lattice units")
	fs.Float64("shift-x", 0, "Droplet centre shift from the well centre, mm")
	fs.Int("max-iter", 50000, "Production iterations")
	fs.Int("save-iter", 500, "Snapshot cadence")
	fs.Int("warmup", 1000, "Warm-up iterations")
	fs.Int("scan-iter", 10, "Wetting scan cadence")
	fs.Float64("theta-wellBottom", 30, "Contact angle of the well bottom, degrees")
	fs.Float64("theta-leftWall", 45, "Contact angle of the left well wall, degrees")
	fs.Float64("theta-rightWall", 90, "Contact angle of the right well wall, degrees")
	fs.Float64("theta-leftPlatform", 41, "Contact angle of the left platform, degrees")
	fs.Float64("theta-rightPlatform", 90, "Contact angle of the right platform, degrees")
	fs.Bool("carreau", false, "Enable Carreau shear-thinning rheology")
	fs.Float64("eta0", 1.5, "Carreau zero-shear viscosity, Pa.s")
	fs.Float64("eta-inf", 0.167, "Carreau infinite-shear viscosity, Pa.s")
	fs.Float64("lambda", 0.15, "Carreau relaxation time, s")
	fs.Float64("n", 0.7, "Carreau power-law index")
	fs.Float64("rho", 3000, "Carreau reference density, kg/m3")
	fs.String("store", "file", "Run record backend: file, redis or memory")
	fs.String("redis-addr", "localhost:6379", "Redis address for the redis backend")
	fs.String("snapshots", "vtk", "Comma-separated snapshot formats: vtk, png")
	fs.Int("workers", 0, "Solver goroutines, 0 for one per CPU")
}

// FlagOverrides turns the flags the user actually set into configuration
// overrides, so unset flags never mask the config file.
func FlagOverrides(fs *pflag.FlagSet) []string {
	var out []string
	carreauSet, impliesCarreau := false, false
	fs.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		out = append(out, key+"="+f.Value.String())
		if f.Name == "carreau" {
			carreauSet = true
		}
		if carreauFlags[f.Name] {
			impliesCarreau = true
		}
	})
	if impliesCarreau && !carreauSet {
		out = append(out, "carreau.enabled=true")
	}
	return out
}
