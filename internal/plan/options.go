package plan

import (
	"fmt"
	"time"

	"github.com/owlplanner/owlgo/internal/solver"
)

// Objective selects what the optimization maximizes.
type Objective string

const (
	// MaxSpending maximizes lifetime net spending subject to a bequest floor.
	MaxSpending Objective = "maxSpending"
	// MaxBequest maximizes the terminal bequest subject to a net-spending floor.
	MaxBequest Objective = "maxBequest"
)

// MedicareMode selects how Medicare premiums enter the optimization.
type MedicareMode string

const (
	// MedicareNone ignores Medicare entirely.
	MedicareNone MedicareMode = "None"
	// MedicareLoop computes premiums outside the LP in the SC loop.
	MedicareLoop MedicareMode = "loop"
	// MedicareOptimize linearizes the IRMAA bracket lookup inside the MILP.
	MedicareOptimize MedicareMode = "optimize"
)

// Options tunes a single solve.
type Options struct {
	// Objective-side amounts, in today's dollars.
	Bequest     float64
	NetSpending float64

	// Roth conversion controls.
	MaxRothConversion    float64 // annual ceiling, today's dollars; 0 = no limit
	NoRothConversions    string  // individual name excluded from conversions
	StartRothConversions int     // calendar year conversions may begin

	// Modes.
	WithMedicare   MedicareMode
	WithSCLoop     bool
	WithSSLP       bool     // linearize SS taxability inside the LP
	SSTaxFraction  *float64 // fixed Psi override (e.g. 0.85); disables SS iteration
	XORConstraints bool

	// Spending profile adherence slack, fraction of the target (0 to 0.5).
	SpendingSlack float64

	// Pre-plan MAGIs for the two-year IRMAA lookback, nominal dollars.
	PreviousMAGIs [2]float64

	// Roth contributions made in the five years before plan start, oldest
	// first; feeds the five-year maturation rule.
	RothContributionHistory [5]float64

	// SC-loop controls.
	MaxIter        int
	AbsTol         float64
	RelTol         float64
	SCDamping      float64
	SCDampingOnOsc float64

	// Solver backend; nil uses the built-in reference solver.
	Solver solver.Solver

	// Timeout is the wall-clock budget for one plan; zero means none.
	Timeout time.Duration

	// Progress, when set, is called after each SC-loop iteration.
	Progress func(iteration int, objective float64)
}

// withDefaults fills unset option fields.
func (o Options) withDefaults() Options {
	if o.WithMedicare == "" {
		o.WithMedicare = MedicareLoop
	}
	if o.MaxIter == 0 {
		o.MaxIter = 32
	}
	if o.AbsTol == 0 {
		o.AbsTol = 1.0
	}
	if o.RelTol == 0 {
		o.RelTol = 1e-3
	}
	if o.Solver == nil {
		o.Solver = DefaultSolver()
	}
	return o
}

// validate rejects inconsistent option combinations before any LP is built.
func (o Options) validate() error {
	switch o.WithMedicare {
	case MedicareNone, MedicareLoop, MedicareOptimize:
	default:
		return fmt.Errorf("unknown Medicare mode %q", o.WithMedicare)
	}
	if o.SpendingSlack < 0 || o.SpendingSlack > 0.5 {
		return fmt.Errorf("spending slack must be within [0, 0.5]")
	}
	if o.SSTaxFraction != nil && (*o.SSTaxFraction < 0 || *o.SSTaxFraction > 0.85) {
		return fmt.Errorf("social security tax fraction must be within [0, 0.85]")
	}
	if o.WithSSLP && o.SSTaxFraction != nil {
		return fmt.Errorf("withSSLP and a fixed social security tax fraction are mutually exclusive")
	}
	if o.Bequest < 0 || o.NetSpending < 0 || o.MaxRothConversion < 0 {
		return fmt.Errorf("bequest, net spending, and Roth ceiling must be non-negative")
	}
	return nil
}
