// Package plan owns the retirement drawdown optimization: inputs, the LP
// formulation, the self-consistent loop around the solver, and result
// aggregation.
package plan

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/owlplanner/owlgo/internal/calculation"
	"github.com/owlplanner/owlgo/internal/rates"
	"github.com/owlplanner/owlgo/internal/solver"
	"github.com/owlplanner/owlgo/internal/varmap"
)

// Account type indices.
const (
	Taxable = iota
	TaxDeferred
	TaxFree
	NumAccounts
)

// CaseStatus is the orchestrator-level outcome of a solve.
type CaseStatus string

const (
	StatusUnsolved   CaseStatus = "unsolved"
	StatusSolved     CaseStatus = "solved"
	StatusInfeasible CaseStatus = "infeasible"
	StatusUnbounded  CaseStatus = "unbounded"
	StatusTimeout    CaseStatus = "timeout"
	StatusSolverErr  CaseStatus = "solver_error"
)

// Plan is the orchestrator: it owns demographics, balances, income streams,
// rate state, the variable map, and the latest results.
type Plan struct {
	Name  string
	iNames []string

	// Demographics.
	nI        int
	yobs      []int
	mobs      []int
	dobs      []string
	expectancy []int
	horizons  []int
	nN        int
	nD        int // year index the shorter-lived individual dies; nN if none
	iD        int // index of the shorter-lived individual
	thisYear  int
	startDate string

	// Balances and transfers, in dollars.
	beta    [][]float64 // [i][j] initial balances
	phiJ    []float64   // beneficiary fractions per account type
	eta     float64     // spousal surplus deposit fraction

	// Fixed income.
	pensionAmounts []float64
	pensionAges    []float64
	pensionIndexed []bool
	ssecAmounts    []float64
	ssecAges       []float64

	// Wages and contributions (nominal), per individual per year.
	timeLists *TimeLists

	// Spending profile.
	spendingProfile  string
	survivorFraction float64
	smileDip         float64
	smileIncrease    float64
	smileDelay       int
	xi               []float64

	// Rates.
	rateMethod       string
	rateConfig       map[string]any
	rateModel        rates.Model
	rateSeed         *uint64
	reproducibleRates bool
	reverseSequence  bool
	rollSequence     int
	tau              [][]float64 // [k][n]
	gamma            []float64   // [n+1], gamma[0] = 1

	// Allocation glide.
	allocType   string // individual | account | spouses
	interpMethod string // linear | s-curve
	interpCenter float64
	interpWidth  float64
	allocInitial [][][]float64 // per unit: [unit][2][k] initial/final in percent
	alpha        [][][][]float64 // [i][j][k][n]

	// Tax knobs.
	heirsTaxRate float64 // nu
	dividendRate float64 // mu
	yOBBBA       int
	gainFraction float64 // embedded-gain share of taxable withdrawals

	// Kernel series, built in prepare().
	piSeries   [][]float64 // pension, today's dollars or pre-discounted
	zetaSeries [][]float64 // social security, today's dollars
	sigma      []float64
	theta      [][]float64
	delta      [][]float64
	rho        [][]float64

	// Variable map and solver state.
	vm *varmap.Map

	// SC-loop state.
	magi []float64
	medi []float64
	psi  []float64
	qEff []float64

	// Results.
	CaseStatus      CaseStatus
	ConvergenceType string
	Results         *Results

	logger *BufferedLogger
}

// NewPlan creates a plan for one or two individuals. Dates of birth are ISO
// YYYY-MM-DD; expectancy is expected age at death.
func NewPlan(names []string, dobs []string, expectancy []int, name string) (*Plan, error) {
	nI := len(names)
	if nI < 1 || nI > 2 {
		return nil, fmt.Errorf("plan supports 1 or 2 individuals, got %d", nI)
	}
	if len(dobs) != nI || len(expectancy) != nI {
		return nil, fmt.Errorf("names, dates of birth, and life expectancies must have matching lengths")
	}

	p := &Plan{
		Name:       name,
		iNames:     append([]string(nil), names...),
		nI:         nI,
		dobs:       append([]string(nil), dobs...),
		expectancy: append([]int(nil), expectancy...),
		thisYear:   time.Now().Year(),
		eta:        0.5,
		heirsTaxRate: 0.30,
		dividendRate: 0.02,
		gainFraction: 0.5,
		yOBBBA:     2032,
		startDate:  "01-01",
		CaseStatus: StatusUnsolved,
		logger:     NewBufferedLogger(name),
		interpMethod: "linear",
		interpCenter: 15.0,
		interpWidth:  5.0,
	}

	p.yobs = make([]int, nI)
	p.mobs = make([]int, nI)
	for i, dob := range dobs {
		y, m, _, err := parseISODate(dob)
		if err != nil {
			return nil, fmt.Errorf("individual %q: %w", names[i], err)
		}
		p.yobs[i] = y
		p.mobs[i] = m
	}

	// Horizons and plan duration.
	p.horizons = make([]int, nI)
	p.nN = 0
	for i := 0; i < nI; i++ {
		h := p.yobs[i] + expectancy[i] - p.thisYear + 1
		if h <= 0 {
			return nil, fmt.Errorf("individual %q is already past life expectancy", names[i])
		}
		p.horizons[i] = h
		if h > p.nN {
			p.nN = h
		}
	}
	p.nD = p.nN
	p.iD = 0
	if nI == 2 {
		if p.horizons[0] <= p.horizons[1] {
			p.iD, p.nD = 0, p.horizons[0]
		} else {
			p.iD, p.nD = 1, p.horizons[1]
		}
		if p.nD >= p.nN {
			p.nD = p.nN
		}
	}

	// Neutral defaults until setters are called.
	p.beta = zeros2(nI, NumAccounts)
	p.phiJ = []float64{1, 1, 1}
	p.pensionAmounts = make([]float64, nI)
	p.pensionAges = fill(nI, 65)
	p.pensionIndexed = make([]bool, nI)
	p.ssecAmounts = make([]float64, nI)
	p.ssecAges = fill(nI, 67)
	p.timeLists = NewTimeLists(nI, p.nN)
	p.spendingProfile = "flat"
	p.survivorFraction = 0.6
	p.smileDip = 15
	p.smileIncrease = 12
	p.allocType = "account"
	p.rateMethod = "default"
	p.rateConfig = map[string]any{}

	return p, nil
}

// Names returns the individuals' names.
func (p *Plan) Names() []string { return append([]string(nil), p.iNames...) }

// NumIndividuals returns the number of individuals in the plan.
func (p *Plan) NumIndividuals() int { return p.nI }

// Horizon returns the plan length in years.
func (p *Plan) Horizon() int { return p.nN }

// SurvivorYear returns the year index at which the shorter-lived individual
// dies (the horizon when both live out the plan).
func (p *Plan) SurvivorYear() int { return p.nD }

// Logger exposes the plan's buffered logger.
func (p *Plan) Logger() *BufferedLogger { return p.logger }

// SetAccountBalances sets initial balances in dollars per individual.
func (p *Plan) SetAccountBalances(taxable, taxDeferred, taxFree []float64) error {
	for _, arr := range [][]float64{taxable, taxDeferred, taxFree} {
		if len(arr) != p.nI {
			return fmt.Errorf("balance arrays must have %d entries", p.nI)
		}
		for _, v := range arr {
			if v < 0 {
				return fmt.Errorf("account balances must be non-negative")
			}
		}
	}
	for i := 0; i < p.nI; i++ {
		p.beta[i][Taxable] = taxable[i]
		p.beta[i][TaxDeferred] = taxDeferred[i]
		p.beta[i][TaxFree] = taxFree[i]
	}
	return nil
}

// SetBeneficiaryFractions sets the per-account-type fraction passed to the
// surviving spouse.
func (p *Plan) SetBeneficiaryFractions(phi []float64) error {
	if len(phi) != NumAccounts {
		return fmt.Errorf("beneficiary fractions must have %d entries", NumAccounts)
	}
	for _, v := range phi {
		if v < 0 || v > 1 {
			return fmt.Errorf("beneficiary fractions must be within [0, 1]")
		}
	}
	p.phiJ = append([]float64(nil), phi...)
	return nil
}

// SetSpousalSurplusFraction sets the fraction of surplus deposited to the
// first spouse's taxable account.
func (p *Plan) SetSpousalSurplusFraction(eta float64) error {
	if eta < 0 || eta > 1 {
		return fmt.Errorf("spousal surplus deposit fraction must be within [0, 1]")
	}
	p.eta = eta
	return nil
}

// SetPension sets monthly pension amounts and commencement ages.
func (p *Plan) SetPension(amounts, ages []float64, indexed []bool) error {
	if len(amounts) != p.nI || len(ages) != p.nI {
		return fmt.Errorf("pension arrays must have %d entries", p.nI)
	}
	if indexed == nil {
		indexed = make([]bool, p.nI)
	}
	p.pensionAmounts = append([]float64(nil), amounts...)
	p.pensionAges = append([]float64(nil), ages...)
	p.pensionIndexed = append([]bool(nil), indexed...)
	return nil
}

// SetSocialSecurity sets monthly PIA amounts and claiming ages. Ages may be
// fractional (years + months/12) and must be within [62, 70].
func (p *Plan) SetSocialSecurity(pias, ages []float64) error {
	if len(pias) != p.nI || len(ages) != p.nI {
		return fmt.Errorf("social security arrays must have %d entries", p.nI)
	}
	for i, age := range ages {
		if pias[i] != 0 && (age < 62 || age > 70) {
			return fmt.Errorf("social security claiming age %.2f out of range [62, 70]", age)
		}
	}
	p.ssecAmounts = append([]float64(nil), pias...)
	p.ssecAges = append([]float64(nil), ages...)
	return nil
}

// SetSpendingProfile selects flat or smile spending with a survivor
// percentage (0-100).
func (p *Plan) SetSpendingProfile(profile string, survivorPercent float64) error {
	if profile != "flat" && profile != "smile" {
		return fmt.Errorf("unknown spending profile %q", profile)
	}
	if survivorPercent < 0 || survivorPercent > 100 {
		return fmt.Errorf("surviving spouse spending percent out of range")
	}
	p.spendingProfile = profile
	p.survivorFraction = survivorPercent / 100.0
	return nil
}

// SetSmileParameters tunes the smile profile dip, increase and delay.
func (p *Plan) SetSmileParameters(dip, increase float64, delay int) {
	p.smileDip = dip
	p.smileIncrease = increase
	p.smileDelay = delay
}

// SetHeirsTaxRate sets the marginal rate heirs pay on the tax-deferred
// estate, in percent.
func (p *Plan) SetHeirsTaxRate(pct float64) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("heirs tax rate out of range")
	}
	p.heirsTaxRate = pct / 100.0
	return nil
}

// SetDividendRate sets the annual dividend yield on taxable stocks, in percent.
func (p *Plan) SetDividendRate(pct float64) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("dividend rate out of range")
	}
	p.dividendRate = pct / 100.0
	return nil
}

// SetExpirationYear sets the year the pre-TCJA tax tables resume. Values in
// the past are advanced to the current year.
func (p *Plan) SetExpirationYear(year int) {
	if year < p.thisYear {
		year = p.thisYear
	}
	p.yOBBBA = year
}

// SetTimeLists installs the wages-and-contributions table.
func (p *Plan) SetTimeLists(tl *TimeLists) error {
	if err := tl.Validate(p.nI, p.nN); err != nil {
		return err
	}
	p.timeLists = tl
	return nil
}

// SetInterpolationMethod selects linear or s-curve allocation glide.
func (p *Plan) SetInterpolationMethod(method string) error {
	if method != "linear" && method != "s-curve" {
		return fmt.Errorf("unknown interpolation method %q", method)
	}
	p.interpMethod = method
	return nil
}

// SetInterpolationWindow centers the s-curve glide.
func (p *Plan) SetInterpolationWindow(center, width float64) {
	p.interpCenter = center
	p.interpWidth = width
}

// SetAllocationRatios installs the initial/final allocation targets in
// percent. The shape of generic depends on the mode:
//
//	individual: one [2][4] pair per individual
//	account:    one [2][4] pair per individual per account type (flattened i*3+j)
//	spouses:    a single [2][4] pair
func (p *Plan) SetAllocationRatios(mode string, generic [][][]float64) error {
	var want int
	switch mode {
	case "individual":
		want = p.nI
	case "account":
		want = p.nI * NumAccounts
	case "spouses":
		want = 1
	default:
		return fmt.Errorf("unknown allocation type %q", mode)
	}
	if len(generic) != want {
		return fmt.Errorf("allocation type %q expects %d initial/final pairs, got %d", mode, want, len(generic))
	}
	for u, pair := range generic {
		if len(pair) != 2 {
			return fmt.Errorf("allocation unit %d must have initial and final vectors", u)
		}
		for _, vec := range pair {
			if len(vec) != rates.NumAssetClasses {
				return fmt.Errorf("allocation vectors must have %d entries", rates.NumAssetClasses)
			}
			sum := 0.0
			for _, v := range vec {
				sum += v
			}
			if sum < 99.9 || sum > 100.1 {
				return fmt.Errorf("allocation percentages must sum to 100, got %.1f", sum)
			}
		}
	}
	p.allocType = mode
	p.allocInitial = generic
	return nil
}

// SetRates configures the rate model and regenerates the series. Optional
// transforms are applied per plan settings.
func (p *Plan) SetRates(method string, cfg map[string]any, opts ...RateOption) error {
	// Copy so later key injection never mutates a caller- or clone-shared map.
	copied := make(map[string]any, len(cfg)+1)
	for k, v := range cfg {
		copied[k] = v
	}
	cfg = copied
	p.rateMethod = method
	p.rateConfig = cfg
	for _, o := range opts {
		o(p)
	}

	// Historical replay without an explicit end year covers the plan horizon.
	if method == "historical" {
		if _, ok := cfg["to"]; !ok {
			frm, hasFrm := cfg["frm"]
			if !hasFrm {
				frm, hasFrm = cfg["from"]
			}
			if hasFrm {
				var y int
				switch v := frm.(type) {
				case int:
					y = v
				case int64:
					y = int(v)
				case float64:
					y = int(v)
				default:
					y = 0
				}
				if y != 0 {
					to := y + p.nN - 1
					if to > rates.To {
						to = rates.To // replay cycles within the window
					}
					cfg["to"] = to
				}
			}
		}
	}

	var seed *uint64
	if p.reproducibleRates && p.rateSeed != nil {
		seed = p.rateSeed
	}
	model, err := rates.New(method, cfg, seed, p.logger)
	if err != nil {
		return err
	}
	p.rateModel = model
	return p.regenRates()
}

// RateOption customizes SetRates behavior.
type RateOption func(*Plan)

// WithSeed makes stochastic rates reproducible with the given seed.
func WithSeed(seed uint64) RateOption {
	return func(p *Plan) {
		s := seed
		p.rateSeed = &s
		p.reproducibleRates = true
	}
}

// WithReverse reverses the generated sequence along the time axis.
func WithReverse(reverse bool) RateOption {
	return func(p *Plan) { p.reverseSequence = reverse }
}

// WithRoll cyclically shifts the generated sequence.
func WithRoll(roll int) RateOption {
	return func(p *Plan) { p.rollSequence = roll }
}

// regenRates generates tau and gamma from the current model. Deterministic
// models yield the same series on every call; stochastic models draw fresh.
func (p *Plan) regenRates() error {
	series, err := p.rateModel.Generate(p.nN)
	if err != nil {
		return err
	}
	rates.ApplyTransforms(p.rateModel, series, p.reverseSequence, p.rollSequence, p.logger)

	p.tau = make([][]float64, rates.NumAssetClasses)
	for k := range p.tau {
		p.tau[k] = make([]float64, p.nN)
		for n := 0; n < p.nN; n++ {
			p.tau[k][n] = series[n][k]
		}
	}

	p.gamma = make([]float64, p.nN+1)
	p.gamma[0] = 1.0
	for n := 0; n < p.nN; n++ {
		p.gamma[n+1] = p.gamma[n] * (1.0 + p.tau[rates.Inflation][n])
	}
	return nil
}

// RegenRates draws a fresh rate series (used between Monte Carlo runs).
func (p *Plan) RegenRates() error {
	if p.rateModel == nil {
		return fmt.Errorf("rates not configured")
	}
	return p.regenRates()
}

// Tau returns the (4, N) rate matrix currently in effect.
func (p *Plan) Tau() [][]float64 { return p.tau }

// Gamma returns cumulative inflation, gamma[0] = 1.
func (p *Plan) Gamma() []float64 { return p.gamma }

// RateMethod returns the configured rate method name.
func (p *Plan) RateMethod() string { return p.rateMethod }

// RateModel returns the configured model, nil before SetRates.
func (p *Plan) RateModel() rates.Model { return p.rateModel }

// prepare builds all kernel series the constraint builder consumes.
func (p *Plan) prepare() error {
	if p.rateModel == nil {
		if err := p.SetRates(p.rateMethod, p.rateConfig); err != nil {
			return err
		}
	}

	xi, err := calculation.SpendingProfile(p.spendingProfile, p.survivorFraction,
		p.nD, p.nN, p.smileDip, p.smileIncrease, p.smileDelay)
	if err != nil {
		return err
	}
	p.xi = xi

	p.piSeries = calculation.PensionBenefits(p.pensionAmounts, p.pensionAges,
		p.yobs, p.mobs, p.horizons, p.pensionIndexed, p.gamma, p.nN, p.thisYear)
	p.zetaSeries = calculation.SocialSecurityBenefits(p.ssecAmounts, p.ssecAges,
		p.yobs, p.mobs, p.horizons, p.nN, p.thisYear)
	p.sigma, p.theta, p.delta = calculation.TaxParams(p.yobs, p.iD, p.nD, p.nN,
		p.yOBBBA, p.thisYear)
	p.rho = calculation.RMDFractions(p.yobs, p.nN, p.thisYear, p.logger)

	if p.allocInitial == nil {
		// Default 60/40 stocks/bonds held flat.
		pair := [][]float64{{60, 40, 0, 0}, {60, 40, 0, 0}}
		units := 1
		if p.allocType == "individual" {
			units = p.nI
		} else if p.allocType == "account" {
			units = p.nI * NumAccounts
		}
		p.allocInitial = make([][][]float64, units)
		for u := range p.allocInitial {
			p.allocInitial[u] = pair
		}
	}
	p.buildAllocations()
	return nil
}

// ZetaSeries exposes the Social Security benefit series (today's dollars).
func (p *Plan) ZetaSeries() [][]float64 { return p.zetaSeries }

// Psi returns the Social Security taxable-fraction series from the last solve.
func (p *Plan) Psi() []float64 { return p.psi }

// DefaultSolver returns the reference MILP backend.
func DefaultSolver() solver.Solver { return &solver.Simplex{} }

func parseISODate(s string) (year, month, day int, err error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("date %q not in ISO YYYY-MM-DD format", s)
	}
	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("date %q: bad year", s)
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("date %q: bad month", s)
	}
	day, err = strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return 0, 0, 0, fmt.Errorf("date %q: bad day", s)
	}
	return year, month, day, nil
}

func zeros2(a, b int) [][]float64 {
	out := make([][]float64, a)
	for i := range out {
		out[i] = make([]float64, b)
	}
	return out
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
