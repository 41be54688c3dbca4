package plan

import (
	"github.com/owlplanner/owlgo/internal/calculation"
	"github.com/shopspring/decimal"
)

// Results holds per-year series extracted from the solution vector plus the
// derived aggregates.
type Results struct {
	Objective Objective

	// Per-year series, nominal dollars unless noted.
	Balances    [][][]float64 // [i][j][n], n = 0..N
	Withdrawals [][][]float64 // [i][j][n]
	Deposits    [][]float64   // [i][n]
	Conversions [][]float64   // [i][n]
	NetSpending []float64     // post-tax spending g[n]
	GrossSpending []float64   // pre-tax spending e[n]
	OrdinaryTaxes []float64
	CapGainTaxes  []float64
	Medicare      []float64
	MAGI          []float64
	Psi           []float64
	Allocations   [][][][]float64 // [i][j][k][n]

	// Aggregates, today's dollars.
	Basis            float64 // first-year net spending
	TotalNetSpending float64
	PartialBequest   float64 // estate transferred at the first death
	Bequest          float64 // terminal, net of heirs' deferred tax

	// Rates in effect for this solve.
	Tau [][]float64
}

// aggregateResults reads every variable family back through the VarMap and
// computes the derived series.
func (p *Plan) aggregateResults(x []float64, objective Objective, opts Options) *Results {
	nI, nN := p.nI, p.nN
	b := p.vm.Get("b")
	d := p.vm.Get("d")
	e := p.vm.Get("e")
	f := p.vm.Get("f")
	g := p.vm.Get("g")
	mv := p.vm.Get("m")
	u := p.vm.Get("u")
	w := p.vm.Get("w")
	xv := p.vm.Get("x")

	res := &Results{
		Objective:     objective,
		NetSpending:   make([]float64, nN),
		GrossSpending: make([]float64, nN),
		OrdinaryTaxes: make([]float64, nN),
		CapGainTaxes:  make([]float64, nN),
		Medicare:      make([]float64, nN),
		MAGI:          append([]float64(nil), p.magi...),
		Psi:           append([]float64(nil), p.psi...),
		Allocations:   p.alpha,
		Tau:           p.tau,
	}

	res.Balances = make([][][]float64, nI)
	res.Withdrawals = make([][][]float64, nI)
	res.Deposits = make([][]float64, nI)
	res.Conversions = make([][]float64, nI)
	for i := 0; i < nI; i++ {
		res.Balances[i] = make([][]float64, NumAccounts)
		res.Withdrawals[i] = make([][]float64, NumAccounts)
		for j := 0; j < NumAccounts; j++ {
			res.Balances[i][j] = make([]float64, nN+1)
			res.Withdrawals[i][j] = make([]float64, nN)
			for n := 0; n <= nN; n++ {
				res.Balances[i][j][n] = RoundCents(b.At(x, i, j, n))
			}
			for n := 0; n < nN; n++ {
				res.Withdrawals[i][j][n] = RoundCents(w.At(x, i, j, n))
			}
		}
		res.Deposits[i] = make([]float64, nN)
		res.Conversions[i] = make([]float64, nN)
		for n := 0; n < nN; n++ {
			res.Deposits[i][n] = RoundCents(d.At(x, i, n))
			res.Conversions[i][n] = RoundCents(xv.At(x, i, n))
		}
	}

	for n := 0; n < nN; n++ {
		res.NetSpending[n] = RoundCents(g.At(x, n))
		res.GrossSpending[n] = RoundCents(e.At(x, n))
		res.Medicare[n] = RoundCents(mv.At(x, n))
		ord := 0.0
		for t := 0; t < calculation.NumTaxBrackets; t++ {
			ord += p.theta[t][n] * u.At(x, t, n)
		}
		res.OrdinaryTaxes[n] = RoundCents(ord)
		res.CapGainTaxes[n] = RoundCents(p.qEff[n] * f.At(x, 1, n))
		res.TotalNetSpending += res.NetSpending[n] / p.gamma[n]
	}
	res.TotalNetSpending = RoundCents(res.TotalNetSpending)
	res.Basis = RoundCents(res.NetSpending[0] / p.xi[0])

	// Estate transferred to heirs at the first death (the non-bequeathed part
	// leaves the plan, the rest moves to the survivor).
	if nI == 2 && p.nD < nN {
		partial := 0.0
		for j := 0; j < NumAccounts; j++ {
			v := b.At(x, p.iD, j, p.nD)
			keep := 1.0 - p.phiJ[j]
			if j == TaxDeferred {
				v *= 1.0 - p.heirsTaxRate
			}
			partial += keep * v
		}
		res.PartialBequest = RoundCents(partial / p.gamma[p.nD])
	}

	bequest := 0.0
	for i := 0; i < nI; i++ {
		for j := 0; j < NumAccounts; j++ {
			v := b.At(x, i, j, nN)
			if j == TaxDeferred {
				v *= 1.0 - p.heirsTaxRate
			}
			bequest += v
		}
	}
	res.Bequest = RoundCents(bequest / p.gamma[nN])

	return res
}

// RoundCents rounds to cents, truncating toward zero after adding half a cent
// in the value's direction, and clamps near-zero negative artifacts to zero.
func RoundCents(v float64) float64 {
	sign := decimal.NewFromInt(1)
	if v < 0 {
		sign = decimal.NewFromInt(-1)
	}
	d := decimal.NewFromFloat(v).
		Mul(decimal.NewFromInt(100)).
		Add(sign.Div(decimal.NewFromInt(2))).
		Truncate(0).
		Div(decimal.NewFromInt(100))
	out, _ := d.Float64()
	if out > -0.009 && out <= 0 {
		return 0
	}
	return out
}
