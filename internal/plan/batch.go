package plan

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/owlplanner/owlgo/internal/rates"
	"golang.org/x/sync/errgroup"
)

// BatchCase is the outcome of one independent plan solve inside a batch run,
// tagged by its input so the collected distribution is order-agnostic.
type BatchCase struct {
	Tag             int // start year for historical runs, run index for MC
	Status          CaseStatus
	ConvergenceType string
	Basis           float64
	PartialBequest  float64
	Bequest         float64
}

// Distribution is the collected outcome of a batch operation.
type Distribution struct {
	Cases     []BatchCase
	Succeeded int
	Failed    int
	Cancelled bool
}

// RunHistoricalRange solves the plan once per historical start year in
// [frm, to], each run replaying rates from that year forward. Runs are
// independent and execute across worker goroutines. Cancellation returns the
// partial distribution collected so far.
func (p *Plan) RunHistoricalRange(ctx context.Context, objective Objective, opts Options, frm, to int) (*Distribution, error) {
	if err := p.prepare(); err != nil {
		return nil, err
	}
	if frm > to {
		return nil, fmt.Errorf("historical range start %d after end %d", frm, to)
	}
	if frm < rates.From || to+p.nN-1 > rates.To {
		return nil, fmt.Errorf("historical range [%d, %d] with a %d-year plan exceeds dataset [%d, %d]",
			frm, to, p.nN, rates.From, rates.To)
	}

	runs := make([]int, 0, to-frm+1)
	for y := frm; y <= to; y++ {
		runs = append(runs, y)
	}
	return p.runBatch(ctx, objective, opts, runs, func(clone *Plan, year int) error {
		return clone.SetRates("historical", map[string]any{
			"frm": year,
			"to":  year + p.nN - 1,
		})
	})
}

// RunMC solves the plan n times with independently drawn rate series,
// overriding seed reproducibility so every run differs.
func (p *Plan) RunMC(ctx context.Context, objective Objective, opts Options, n int) (*Distribution, error) {
	if err := p.prepare(); err != nil {
		return nil, err
	}
	if p.rateModel.Deterministic() {
		p.logger.Warnf("Monte Carlo over a deterministic rate method %q produces identical runs", p.rateMethod)
	}

	runs := make([]int, n)
	for i := range runs {
		runs[i] = i
	}
	return p.runBatch(ctx, objective, opts, runs, func(clone *Plan, run int) error {
		clone.reproducibleRates = false
		clone.rateSeed = nil
		return clone.SetRates(clone.rateMethod, clone.rateConfig)
	})
}

// runBatch fans independent plan solves across workers, polling ctx between
// iterations. Each worker appends its case result to the shared distribution
// under a mutex; no results channel is used.
func (p *Plan) runBatch(ctx context.Context, objective Objective, opts Options,
	runs []int, setup func(*Plan, int) error) (*Distribution, error) {

	dist := &Distribution{}
	var mu sync.Mutex

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(runtime.NumCPU())

	for _, tag := range runs {
		tag := tag
		if gctx.Err() != nil {
			dist.Cancelled = true
			break
		}
		grp.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			clone, err := p.clone(fmt.Sprintf("%s#%d", p.Name, tag))
			if err == nil {
				err = setup(clone, tag)
			}
			if err == nil {
				err = clone.Solve(gctx, objective, opts)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Errorf("batch case %d failed: %v", tag, err)
				dist.Failed++
				dist.Cases = append(dist.Cases, BatchCase{Tag: tag, Status: StatusSolverErr})
				return nil
			}
			bc := BatchCase{
				Tag:             tag,
				Status:          clone.CaseStatus,
				ConvergenceType: clone.ConvergenceType,
			}
			if clone.CaseStatus == StatusSolved {
				bc.Basis = clone.Results.Basis
				bc.PartialBequest = clone.Results.PartialBequest
				bc.Bequest = clone.Results.Bequest
				dist.Succeeded++
			} else {
				dist.Failed++
			}
			dist.Cases = append(dist.Cases, bc)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return dist, err
	}
	if ctx.Err() != nil {
		dist.Cancelled = true
	}

	sort.Slice(dist.Cases, func(a, b int) bool { return dist.Cases[a].Tag < dist.Cases[b].Tag })
	return dist, nil
}

// clone produces an independent plan sharing the read-only inputs: its own
// logger, rate model, variable map, and loop state.
func (p *Plan) clone(name string) (*Plan, error) {
	c := *p
	c.Name = name
	c.logger = NewBufferedLogger(name)
	c.vm = nil
	c.Results = nil
	c.CaseStatus = StatusUnsolved
	c.ConvergenceType = ""
	c.magi, c.medi, c.psi, c.qEff = nil, nil, nil, nil
	// Rate state is rebuilt per clone so parallel draws never share an RNG.
	c.rateModel = nil
	c.tau = nil
	c.gamma = nil
	if err := c.SetRates(p.rateMethod, p.rateConfig); err != nil {
		return nil, err
	}
	return &c, nil
}
