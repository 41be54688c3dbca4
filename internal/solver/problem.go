// Package solver defines the linear/mixed-integer problem container handed to
// an LP backend, and ships a self-contained reference backend (two-phase
// simplex with branch-and-bound on binaries). Production deployments can plug
// any backend that satisfies the Solver interface.
package solver

import (
	"context"
	"math"
)

// RowType tags a constraint row the MPS way.
type RowType int

const (
	// RowFx is an equality row: sum == Lower (== Upper).
	RowFx RowType = iota
	// RowLo is a lower-bounded row: sum >= Lower.
	RowLo
	// RowUp is an upper-bounded row: sum <= Upper.
	RowUp
	// RowRa is a two-sided row: Lower <= sum <= Upper.
	RowRa
	// RowFr is a free row (no restriction).
	RowFr
)

// Row is one sparse constraint: a map from flat variable index to coefficient
// plus the bound pair interpreted per Type.
type Row struct {
	Coeffs map[int]float64
	Type   RowType
	Lower  float64
	Upper  float64
}

// Problem is a complete LP/MILP instance over a flat decision vector.
type Problem struct {
	NumVars int
	Rows    []Row

	// Per-variable bounds. Use math.Inf for unbounded sides.
	LowerBound []float64
	UpperBound []float64

	// Objective coefficients; the problem maximizes when Maximize is set.
	Objective []float64
	Maximize  bool

	// Integers lists variable indices restricted to integer values
	// (binaries, given [0,1] bounds).
	Integers []int
}

// NewProblem returns a problem sized for n variables with default bounds
// [0, +inf) and a zero objective.
func NewProblem(n int) *Problem {
	p := &Problem{
		NumVars:    n,
		LowerBound: make([]float64, n),
		UpperBound: make([]float64, n),
		Objective:  make([]float64, n),
	}
	for i := range p.UpperBound {
		p.UpperBound[i] = math.Inf(1)
	}
	return p
}

// AddRow appends a sparse row.
func (p *Problem) AddRow(t RowType, coeffs map[int]float64, lower, upper float64) {
	p.Rows = append(p.Rows, Row{Coeffs: coeffs, Type: t, Lower: lower, Upper: upper})
}

// AddFx appends an equality row sum == rhs.
func (p *Problem) AddFx(coeffs map[int]float64, rhs float64) {
	p.AddRow(RowFx, coeffs, rhs, rhs)
}

// AddLo appends a row sum >= rhs.
func (p *Problem) AddLo(coeffs map[int]float64, rhs float64) {
	p.AddRow(RowLo, coeffs, rhs, math.Inf(1))
}

// AddUp appends a row sum <= rhs.
func (p *Problem) AddUp(coeffs map[int]float64, rhs float64) {
	p.AddRow(RowUp, coeffs, math.Inf(-1), rhs)
}

// AddRa appends a two-sided row lower <= sum <= upper.
func (p *Problem) AddRa(coeffs map[int]float64, lower, upper float64) {
	p.AddRow(RowRa, coeffs, lower, upper)
}

// SetBounds sets one variable's bounds.
func (p *Problem) SetBounds(i int, lower, upper float64) {
	p.LowerBound[i] = lower
	p.UpperBound[i] = upper
}

// SetBinary marks a variable binary: bounds [0, 1] and integer-restricted.
func (p *Problem) SetBinary(i int) {
	p.SetBounds(i, 0, 1)
	p.Integers = append(p.Integers, i)
}

// Status is the outcome of a solve.
type Status int

const (
	// StatusOptimal means an optimal solution was found.
	StatusOptimal Status = iota
	// StatusInfeasible means no feasible point exists.
	StatusInfeasible
	// StatusUnbounded means the objective is unbounded.
	StatusUnbounded
	// StatusError means the backend failed numerically.
	StatusError
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	}
	return "error"
}

// Solution carries the solve outcome.
type Solution struct {
	Status    Status
	X         []float64
	Objective float64
	Message   string
}

// Solver is the pluggable LP/MILP backend. Solve blocks; cancellation is
// honored through ctx between pivots/nodes.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}
