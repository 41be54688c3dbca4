package solver

import (
	"context"
	"math"
)

// BranchAndBound layers binary branching over an LP backend.
type BranchAndBound struct {
	LP *Simplex
	// MaxNodes caps the search; 0 means a generous default.
	MaxNodes int
	// Gap is the relative optimality gap accepted for early termination.
	Gap float64
}

const intTol = 1e-6

// Solve implements Solver.
func (bb *BranchAndBound) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	lp := bb.LP
	if lp == nil {
		lp = &Simplex{}
	}
	maxNodes := bb.MaxNodes
	if maxNodes == 0 {
		maxNodes = 10000
	}

	sign := 1.0
	if p.Maximize {
		sign = -1.0
	}

	type node struct {
		fixLo map[int]float64
		fixUp map[int]float64
	}

	var incumbent *Solution
	stack := []node{{fixLo: map[int]float64{}, fixUp: map[int]float64{}}}
	nodes := 0
	sawInfeasible := false

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			return &Solution{Status: StatusError, Message: "cancelled"}, ctx.Err()
		default:
		}
		nodes++
		if nodes > maxNodes {
			break
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		sub := cloneForNode(p, nd.fixLo, nd.fixUp)
		rel, err := lp.solveRelaxation(ctx, sub)
		if err != nil {
			return nil, err
		}
		switch rel.Status {
		case StatusInfeasible:
			sawInfeasible = true
			continue
		case StatusUnbounded:
			return &Solution{Status: StatusUnbounded, Message: "unbounded"}, nil
		case StatusError:
			return rel, nil
		}

		// Prune against the incumbent.
		if incumbent != nil {
			if sign*rel.Objective >= sign*incumbent.Objective-math.Abs(bb.Gap*incumbent.Objective) {
				continue
			}
		}

		// Most fractional binary.
		branch := -1
		worst := intTol
		for _, vi := range p.Integers {
			frac := math.Abs(rel.X[vi] - math.Round(rel.X[vi]))
			if frac > worst {
				worst = frac
				branch = vi
			}
		}
		if branch < 0 {
			// Integral: candidate incumbent.
			for _, vi := range p.Integers {
				rel.X[vi] = math.Round(rel.X[vi])
			}
			if incumbent == nil || sign*rel.Objective < sign*incumbent.Objective {
				incumbent = rel
			}
			continue
		}

		lo := copyFix(nd.fixLo)
		up := copyFix(nd.fixUp)
		floorUp := copyFix(nd.fixUp)
		floorUp[branch] = math.Floor(rel.X[branch])
		ceilLo := copyFix(nd.fixLo)
		ceilLo[branch] = math.Ceil(rel.X[branch])
		stack = append(stack,
			node{fixLo: lo, fixUp: floorUp},
			node{fixLo: ceilLo, fixUp: up},
		)
	}

	if incumbent != nil {
		return incumbent, nil
	}
	if sawInfeasible {
		return &Solution{Status: StatusInfeasible, Message: "infeasible"}, nil
	}
	return &Solution{Status: StatusError, Message: "node limit exceeded"}, nil
}

func cloneForNode(p *Problem, fixLo, fixUp map[int]float64) *Problem {
	sub := &Problem{
		NumVars:    p.NumVars,
		Rows:       p.Rows,
		LowerBound: append([]float64(nil), p.LowerBound...),
		UpperBound: append([]float64(nil), p.UpperBound...),
		Objective:  p.Objective,
		Maximize:   p.Maximize,
	}
	for i, v := range fixLo {
		if v > sub.LowerBound[i] {
			sub.LowerBound[i] = v
		}
	}
	for i, v := range fixUp {
		if v < sub.UpperBound[i] {
			sub.UpperBound[i] = v
		}
	}
	return sub
}

func copyFix(m map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
