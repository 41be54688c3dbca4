package plan

import (
	"context"
	"testing"
	"time"

	"github.com/owlplanner/owlgo/internal/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alternatingSolver returns solutions whose tax-deferred withdrawal flips
// between two values, forcing the SC-loop coefficients to oscillate.
type alternatingSolver struct {
	plan   *Plan
	calls  int
	values [2]float64
}

func (a *alternatingSolver) Solve(ctx context.Context, p *solver.Problem) (*solver.Solution, error) {
	a.calls++
	x := make([]float64, p.NumVars)
	idx := a.plan.vm.Get("w").Idx(0, TaxDeferred, 0)
	x[idx] = a.values[a.calls%2]
	return &solver.Solution{Status: solver.StatusOptimal, X: x}, nil
}

func oscillationPlan(t *testing.T) *Plan {
	t.Helper()
	p := singlePlan(t, 3)
	require.NoError(t, p.SetAccountBalances([]float64{100000}, []float64{100000}, []float64{0}))
	require.NoError(t, p.SetRates("user", map[string]any{"values": []float64{0, 0, 0, 0}}))
	return p
}

func TestOscillationBreaksWithoutDamping(t *testing.T) {
	p := oscillationPlan(t)
	fake := &alternatingSolver{plan: p, values: [2]float64{10000, 90000}}

	err := p.Solve(context.Background(), MaxSpending, Options{
		WithSCLoop: true,
		MaxIter:    10,
		AbsTol:     1e-3,
		RelTol:     1e-9,
		Solver:     fake,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSolved, p.CaseStatus)
	assert.Equal(t, "oscillatory (cycle length 2)", p.ConvergenceType)
	// First two iterations fill the history; the third closes the cycle.
	assert.Equal(t, 3, fake.calls)
}

func TestOscillationContinuesWithDamping(t *testing.T) {
	p := oscillationPlan(t)
	fake := &alternatingSolver{plan: p, values: [2]float64{10000, 90000}}

	err := p.Solve(context.Background(), MaxSpending, Options{
		WithSCLoop:     true,
		MaxIter:        6,
		AbsTol:         1e-3,
		RelTol:         1e-9,
		SCDampingOnOsc: 0.5,
		Solver:         fake,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSolved, p.CaseStatus)
	assert.NotContains(t, p.ConvergenceType, "oscillatory")
	assert.Equal(t, 6, fake.calls)
}

// constantSolver always returns the same solution, so the loop converges on
// the second iteration.
type constantSolver struct {
	plan  *Plan
	calls int
}

func (c *constantSolver) Solve(ctx context.Context, p *solver.Problem) (*solver.Solution, error) {
	c.calls++
	x := make([]float64, p.NumVars)
	idx := c.plan.vm.Get("w").Idx(0, TaxDeferred, 0)
	x[idx] = 42000
	return &solver.Solution{Status: solver.StatusOptimal, X: x}, nil
}

func TestSCLoopConverges(t *testing.T) {
	p := oscillationPlan(t)
	fake := &constantSolver{plan: p}

	err := p.Solve(context.Background(), MaxSpending, Options{
		WithSCLoop: true,
		MaxIter:    10,
		Solver:     fake,
	})
	require.NoError(t, err)
	assert.Equal(t, ConvergedType, p.ConvergenceType)
	assert.Equal(t, 2, fake.calls)
}

func TestSCLoopMaxIteration(t *testing.T) {
	p := oscillationPlan(t)
	// Strictly growing solutions never converge and never cycle.
	calls := 0
	fake := solverFunc(func(ctx context.Context, prob *solver.Problem) (*solver.Solution, error) {
		calls++
		x := make([]float64, prob.NumVars)
		x[p.vm.Get("w").Idx(0, TaxDeferred, 0)] = float64(calls) * 10000
		return &solver.Solution{Status: solver.StatusOptimal, X: x}, nil
	})

	err := p.Solve(context.Background(), MaxSpending, Options{
		WithSCLoop: true,
		MaxIter:    4,
		AbsTol:     1e-6,
		RelTol:     1e-12,
		Solver:     fake,
	})
	require.NoError(t, err)
	assert.Equal(t, MaxIterationType, p.ConvergenceType)
	assert.Equal(t, 4, calls)
}

type solverFunc func(context.Context, *solver.Problem) (*solver.Solution, error)

func (f solverFunc) Solve(ctx context.Context, p *solver.Problem) (*solver.Solution, error) {
	return f(ctx, p)
}

func TestSolveInfeasibleStatusFromSolver(t *testing.T) {
	p := oscillationPlan(t)
	fake := solverFunc(func(ctx context.Context, prob *solver.Problem) (*solver.Solution, error) {
		return &solver.Solution{Status: solver.StatusInfeasible}, nil
	})
	err := p.Solve(context.Background(), MaxSpending, Options{Solver: fake})
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, p.CaseStatus)
}

func TestSolveTimeout(t *testing.T) {
	p := oscillationPlan(t)
	err := p.Solve(context.Background(), MaxSpending, Options{Timeout: time.Nanosecond})
	require.NoError(t, err)
	assert.Equal(t, StatusTimeout, p.CaseStatus)
}

func TestSolveRejectsBadOptions(t *testing.T) {
	p := oscillationPlan(t)
	assert.Error(t, p.Solve(context.Background(), MaxSpending, Options{SpendingSlack: 0.9}))
	assert.Error(t, p.Solve(context.Background(), Objective("maxChaos"), Options{}))
	assert.Error(t, p.Solve(context.Background(), MaxSpending, Options{WithMedicare: "sometimes"}))
	bad := 1.5
	assert.Error(t, p.Solve(context.Background(), MaxSpending, Options{SSTaxFraction: &bad}))

	// A fixed taxable fraction and the LP linearization cannot coexist.
	fixed := 0.85
	assert.Error(t, p.Solve(context.Background(), MaxSpending, Options{
		WithSSLP:      true,
		SSTaxFraction: &fixed,
	}))
}

func TestProgressCallback(t *testing.T) {
	p := oscillationPlan(t)
	fake := &constantSolver{plan: p}
	var iterations []int

	err := p.Solve(context.Background(), MaxSpending, Options{
		WithSCLoop: true,
		MaxIter:    10,
		Solver:     fake,
		Progress: func(iter int, obj float64) {
			iterations = append(iterations, iter)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, iterations)
}
