package plan

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/owlplanner/owlgo/internal/calculation"
	"github.com/owlplanner/owlgo/internal/solver"
)

// ConvergenceTypes reported by the SC loop.
const (
	ConvergedType    = "converged"
	MaxIterationType = "max iteration"
	SingleSolveType  = "single solve"
)

// maxCycleLength bounds the oscillation-detection ring buffer.
const maxCycleLength = 15

// Solve runs the optimization for one scenario: build the LP, solve, update
// the non-linear coefficients, and iterate to a fixed point when the SC loop
// is enabled. The outcome lands in CaseStatus / ConvergenceType / Results.
func (p *Plan) Solve(ctx context.Context, objective Objective, opts Options) error {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return err
	}
	if objective != MaxSpending && objective != MaxBequest {
		return fmt.Errorf("unknown objective %q", objective)
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	if err := p.prepare(); err != nil {
		return err
	}
	p.vm = p.buildVarMap(objective, opts)
	p.initNLState(opts)

	maxIter := opts.MaxIter
	if !opts.WithSCLoop {
		maxIter = 1
	}

	var history [][]float64
	var lastX []float64
	p.ConvergenceType = SingleSolveType

	for iter := 1; iter <= maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			p.CaseStatus = StatusTimeout
			return nil
		}

		prob := p.buildProblem(objective, opts)
		sol, err := opts.Solver.Solve(ctx, prob)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				p.CaseStatus = StatusTimeout
				return nil
			}
			p.CaseStatus = StatusSolverErr
			p.logger.Errorf("solver failed at iteration %d: %v", iter, err)
			return nil
		}
		switch sol.Status {
		case solver.StatusInfeasible:
			p.CaseStatus = StatusInfeasible
			p.logger.Errorf("LP infeasible at iteration %d", iter)
			return nil
		case solver.StatusUnbounded:
			p.CaseStatus = StatusUnbounded
			p.logger.Errorf("LP unbounded at iteration %d", iter)
			return nil
		case solver.StatusError:
			p.CaseStatus = StatusSolverErr
			p.logger.Errorf("solver error at iteration %d: %s", iter, sol.Message)
			return nil
		}
		lastX = sol.X

		if opts.Progress != nil {
			opts.Progress(iter, sol.Objective)
		}

		if !opts.WithSCLoop {
			break
		}

		freshMAGI, freshMedi, freshPsi, freshQ := p.computeNLState(sol.X, opts)
		delta := p.convergenceDelta(freshMAGI, freshMedi, freshPsi)
		p.logger.Debugf("iteration %d: objective %.2f, max delta %.4g", iter, sol.Objective, delta)

		converged := delta <= opts.AbsTol || p.relativeDelta(freshMAGI, freshMedi, freshPsi) <= opts.RelTol

		alpha := opts.SCDamping
		snapshot := snapshotState(freshMAGI, freshMedi, freshPsi)
		history = append(history, snapshot)
		if len(history) > maxCycleLength {
			history = history[1:]
		}
		if cycle := detectOscillation(history, opts.AbsTol); cycle > 0 && !converged {
			if opts.SCDampingOnOsc > 0 {
				p.logger.Warnf("oscillation of cycle length %d detected; damping with %.2f", cycle, opts.SCDampingOnOsc)
				alpha = opts.SCDampingOnOsc
			} else {
				p.applyNLState(freshMAGI, freshMedi, freshPsi, freshQ, 0)
				p.ConvergenceType = fmt.Sprintf("oscillatory (cycle length %d)", cycle)
				break
			}
		}

		p.applyNLState(freshMAGI, freshMedi, freshPsi, freshQ, alpha)

		if converged {
			p.ConvergenceType = ConvergedType
			break
		}
		if iter == maxIter {
			p.ConvergenceType = MaxIterationType
		}
	}

	p.CaseStatus = StatusSolved
	p.Results = p.aggregateResults(lastX, objective, opts)
	return nil
}

// initNLState seeds the coefficients the LP cannot express linearly.
func (p *Plan) initNLState(opts Options) {
	nN := p.nN
	p.magi = make([]float64, nN)
	p.medi = make([]float64, nN)
	p.qEff = make([]float64, nN)
	p.psi = make([]float64, nN)
	base := 0.85
	if opts.SSTaxFraction != nil {
		base = *opts.SSTaxFraction
	}
	for n := range p.psi {
		p.psi[n] = base
	}
}

// computeNLState recomputes MAGI, Medicare costs, the SS taxable fraction,
// and the effective capital-gain rate from a solution vector.
func (p *Plan) computeNLState(x []float64, opts Options) (magi, medi, psi, qEff []float64) {
	nN := p.nN
	magi = make([]float64, nN)
	medi = make([]float64, nN)
	psi = make([]float64, nN)
	qEff = make([]float64, nN)

	b := p.vm.Get("b")
	w := p.vm.Get("w")
	xv := p.vm.Get("x")
	f := p.vm.Get("f")

	for n := 0; n < nN; n++ {
		status := p.filingStatus(n)

		// Ordinary income other than Social Security, nominal.
		other := 0.0
		for i := 0; i < p.nI; i++ {
			if !p.alive(i, n) {
				continue
			}
			other += p.timeLists.Wages[i][n] + p.timeLists.OtherIncome[i][n] +
				p.gamma[n]*p.piSeries[i][n] +
				w.At(x, i, TaxDeferred, n) + xv.At(x, i, n) +
				p.dividendRate*p.stockFraction(i, Taxable, n)*b.At(x, i, Taxable, n)
		}

		ssNominal := p.gamma[n] * p.ssTotal(n)
		taxableSS := 0.0
		if ssNominal > 0 {
			if opts.WithSSLP {
				// The MILP already decided taxability; read it back.
				taxableSS = p.vm.Get("tss").At(x, n)
				psi[n] = taxableSS / ssNominal
			} else if opts.SSTaxFraction != nil {
				taxableSS = *opts.SSTaxFraction * ssNominal
				psi[n] = *opts.SSTaxFraction
			} else {
				// Thresholds are carried in real dollars: deflate, stack, reflate.
				taxableSS = p.gamma[n] * calculation.TaxableSocialSecurity(
					p.ssTotal(n), other/p.gamma[n], 0, status)
				psi[n] = taxableSS / ssNominal
			}
		} else {
			psi[n] = p.psi[n]
		}

		gains := f.At(x, 1, n)
		magi[n] = other + taxableSS + gains

		ordTaxable := other + taxableSS - p.sigma[n]*p.gamma[n]
		if ordTaxable < 0 {
			ordTaxable = 0
		}
		if gains > 1e-9 {
			cg := calculation.CapitalGainsTax(ordTaxable, gains, magi[n], status, p.gamma[n])
			qEff[n] = cg / gains
		}
	}

	switch opts.WithMedicare {
	case MedicareLoop:
		medi = calculation.MediCosts(p.yobs, p.horizons, magi, opts.PreviousMAGIs,
			p.gamma, p.nD, p.nN, p.thisYear)
	case MedicareOptimize:
		// Premiums are decided inside the MILP; read them back for reporting.
		mv := p.vm.Get("m")
		for n := 0; n < nN; n++ {
			medi[n] = mv.At(x, n)
		}
	}

	return magi, medi, psi, qEff
}

// applyNLState damps the fresh coefficients into the loop state:
// state <- (1-alpha)*fresh + alpha*previous. Alpha zero replaces outright.
func (p *Plan) applyNLState(magi, medi, psi, qEff []float64, alpha float64) {
	blend := func(prev, fresh []float64) {
		for n := range prev {
			prev[n] = (1.0-alpha)*fresh[n] + alpha*prev[n]
		}
	}
	blend(p.magi, magi)
	blend(p.medi, medi)
	blend(p.psi, psi)
	blend(p.qEff, qEff)
}

// convergenceDelta is the max absolute element-wise change across the
// coefficient families.
func (p *Plan) convergenceDelta(magi, medi, psi []float64) float64 {
	max := 0.0
	for n := 0; n < p.nN; n++ {
		max = math.Max(max, math.Abs(magi[n]-p.magi[n]))
		max = math.Max(max, math.Abs(medi[n]-p.medi[n]))
		max = math.Max(max, math.Abs(psi[n]-p.psi[n]))
	}
	return max
}

// relativeDelta is the max element-wise relative change.
func (p *Plan) relativeDelta(magi, medi, psi []float64) float64 {
	max := 0.0
	rel := func(fresh, prev float64) float64 {
		denom := math.Abs(prev)
		if denom < 1.0 {
			denom = 1.0
		}
		return math.Abs(fresh-prev) / denom
	}
	for n := 0; n < p.nN; n++ {
		max = math.Max(max, rel(magi[n], p.magi[n]))
		max = math.Max(max, rel(medi[n], p.medi[n]))
		max = math.Max(max, rel(psi[n], p.psi[n]))
	}
	return max
}

func snapshotState(magi, medi, psi []float64) []float64 {
	out := make([]float64, 0, len(magi)+len(medi)+len(psi))
	out = append(out, magi...)
	out = append(out, medi...)
	out = append(out, psi...)
	return out
}

// detectOscillation looks for a repeated snapshot: when the newest state
// matches an earlier, non-adjacent one within tolerance, the distance between
// them is the cycle length.
func detectOscillation(history [][]float64, tol float64) int {
	last := len(history) - 1
	if last < 2 {
		return 0
	}
	for j := last - 2; j >= 0; j-- {
		if snapshotsEqual(history[last], history[j], tol) {
			return last - j
		}
	}
	return 0
}

func snapshotsEqual(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	if tol <= 0 {
		tol = 1e-6
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}
