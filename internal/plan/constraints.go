package plan

import (
	"math"

	"github.com/owlplanner/owlgo/internal/calculation"
	"github.com/owlplanner/owlgo/internal/solver"
	"github.com/owlplanner/owlgo/internal/varmap"
)

// buildVarMap declares every decision-variable family in flat-vector order:
// continuous families first, then the binary families behind the marker.
func (p *Plan) buildVarMap(objective Objective, opts Options) *varmap.Map {
	nI, nN := p.nI, p.nN
	nMed := p.numLookbackYears()

	vm := varmap.New()
	vm.Add("b", nI, NumAccounts, nN+1)
	vm.Add("d", nI, nN)
	vm.Add("e", nN)
	vm.Add("f", 2, nN)
	vm.Add("g", nN)
	vm.Add("m", nN)
	vm.Add("s", nN)
	vm.Add("u", calculation.NumTaxBrackets, nN)
	vm.Add("w", nI, NumAccounts, nN)
	vm.Add("x", nI, nN)
	vm.AddIf(opts.WithSSLP, "plo", nN)
	vm.AddIf(opts.WithSSLP, "phi", nN)
	vm.AddIf(opts.WithSSLP, "q", nN)
	vm.AddIf(opts.WithSSLP, "tss", nN)
	vm.AddIf(opts.WithMedicare == MedicareOptimize, "h", nMed, calculation.NumIRMAABrackets)
	vm.MarkBinaryStart()
	vm.AddIf(opts.XORConstraints, "zx", nN, 2)
	vm.AddIf(opts.WithMedicare == MedicareOptimize, "zm", nMed, calculation.NumIRMAABrackets)
	vm.AddIf(opts.WithSSLP, "zs", nN, 2)
	return vm
}

// numLookbackYears is the count of plan years whose MAGI drives a later
// Medicare premium through the two-year lookback.
func (p *Plan) numLookbackYears() int {
	if p.nN <= 2 {
		return 0
	}
	return p.nN - 2
}

// bigM returns the big-M constant: ten times the largest plausible inflated
// total, so binary gates never bind spuriously.
func (p *Plan) bigM() float64 {
	total := 0.0
	for i := 0; i < p.nI; i++ {
		for j := 0; j < NumAccounts; j++ {
			total += p.beta[i][j]
		}
		for n := 0; n < p.nN; n++ {
			total += p.timeLists.Wages[i][n] + p.timeLists.OtherIncome[i][n]
		}
	}
	if total < 1e6 {
		total = 1e6
	}
	return 10.0 * total * p.gamma[p.nN]
}

// alive reports whether individual i is alive during plan year n.
func (p *Plan) alive(i, n int) bool { return n < p.horizons[i] }

// buildProblem assembles the sparse LP/MILP for the given objective. The
// SC-loop coefficient state (psi, medi, qEff) must be initialized first.
func (p *Plan) buildProblem(objective Objective, opts Options) *solver.Problem {
	nI, nN := p.nI, p.nN
	vm := p.vm
	prob := solver.NewProblem(vm.NVars())
	bigM := p.bigM()

	b := vm.Get("b")
	d := vm.Get("d")
	e := vm.Get("e")
	f := vm.Get("f")
	g := vm.Get("g")
	mv := vm.Get("m")
	sv := vm.Get("s")
	u := vm.Get("u")
	w := vm.Get("w")
	x := vm.Get("x")

	// ------------------------------------------------------------------
	// Variable bounds.
	// ------------------------------------------------------------------

	// Initial balances are fixed.
	for i := 0; i < nI; i++ {
		for j := 0; j < NumAccounts; j++ {
			prob.SetBounds(b.Idx(i, j, 0), p.beta[i][j], p.beta[i][j])
		}
	}

	// Dead years: no flows, empty accounts.
	for i := 0; i < nI; i++ {
		for n := 0; n < nN; n++ {
			if p.alive(i, n) {
				continue
			}
			prob.SetBounds(d.Idx(i, n), 0, 0)
			prob.SetBounds(x.Idx(i, n), 0, 0)
			for j := 0; j < NumAccounts; j++ {
				prob.SetBounds(w.Idx(i, j, n), 0, 0)
				prob.SetBounds(b.Idx(i, j, n+1), 0, 0)
			}
		}
	}

	// Bracket-fill variables bounded by inflated bracket widths.
	for t := 0; t < calculation.NumTaxBrackets; t++ {
		for n := 0; n < nN; n++ {
			prob.SetBounds(u.Idx(t, n), 0, p.delta[t][n]*p.gamma[n])
		}
	}

	// Spending slack is free when slack is allowed, pinned to zero otherwise.
	for n := 0; n < nN; n++ {
		if opts.SpendingSlack > 0 && n > 0 {
			prob.SetBounds(sv.Idx(n), math.Inf(-1), math.Inf(1))
		} else {
			prob.SetBounds(sv.Idx(n), 0, 0)
		}
	}

	// Roth conversion gates.
	for i := 0; i < nI; i++ {
		excluded := opts.NoRothConversions != "" && opts.NoRothConversions == p.iNames[i]
		for n := 0; n < nN; n++ {
			if !p.alive(i, n) {
				continue
			}
			upper := math.Inf(1)
			if opts.MaxRothConversion > 0 {
				upper = opts.MaxRothConversion * p.gamma[n]
			}
			if excluded || (opts.StartRothConversions > 0 && p.thisYear+n < opts.StartRothConversions) {
				upper = 0
			}
			lower := p.timeLists.PlannedRothX[i][n]
			if lower > upper {
				lower = upper
			}
			prob.SetBounds(x.Idx(i, n), lower, upper)
		}
	}

	// Medicare variable per mode.
	switch opts.WithMedicare {
	case MedicareNone:
		for n := 0; n < nN; n++ {
			prob.SetBounds(mv.Idx(n), 0, 0)
		}
	case MedicareLoop:
		for n := 0; n < nN; n++ {
			prob.SetBounds(mv.Idx(n), p.medi[n], p.medi[n])
		}
	}

	// ------------------------------------------------------------------
	// (1) Account dynamics, with survivor transfer at the death epoch.
	// ------------------------------------------------------------------
	for i := 0; i < nI; i++ {
		for j := 0; j < NumAccounts; j++ {
			for n := 0; n < nN; n++ {
				if !p.alive(i, n) {
					continue // balances pinned to zero by bounds
				}
				growth := 1.0 + p.accountReturn(i, j, n)
				row := map[int]float64{
					b.Idx(i, j, n+1): 1.0,
					b.Idx(i, j, n):   -growth,
					w.Idx(i, j, n):   1.0,
				}
				rhs := 0.0
				switch j {
				case Taxable:
					row[d.Idx(i, n)] = -1.0
					rhs += p.timeLists.CtrbTaxable[i][n]
				case TaxDeferred:
					row[x.Idx(i, n)] = 1.0
					rhs += p.timeLists.deferredContrib(i, n)
				case TaxFree:
					row[x.Idx(i, n)] = -1.0
					rhs += p.timeLists.freeContrib(i, n)
				}
				// Survivor inherits the deceased's balance at the death
				// epoch, scaled by the beneficiary fraction.
				if nI == 2 && i != p.iD && n == p.horizons[p.iD] && n < nN {
					row[b.Idx(p.iD, j, n)] = -p.phiJ[j]
				}
				prob.AddFx(row, rhs)
			}
		}
	}

	// ------------------------------------------------------------------
	// (2) Cash-flow identity per year.
	// ------------------------------------------------------------------
	for n := 0; n < nN; n++ {
		row := map[int]float64{
			e.Idx(n):  -1.0,
			mv.Idx(n): -1.0,
		}
		rhs := 0.0
		for i := 0; i < nI; i++ {
			if !p.alive(i, n) {
				continue
			}
			for j := 0; j < NumAccounts; j++ {
				row[w.Idx(i, j, n)] = 1.0
			}
			row[d.Idx(i, n)] = -1.0
			rhs -= p.timeLists.Wages[i][n] + p.timeLists.OtherIncome[i][n] +
				p.timeLists.BigTicketItems[i][n] +
				p.gamma[n]*(p.zetaSeries[i][n]+p.piSeries[i][n])
			rhs += p.timeLists.CtrbTaxable[i][n] + p.timeLists.deferredContrib(i, n) +
				p.timeLists.freeContrib(i, n)
		}
		prob.AddFx(row, rhs)
	}

	// ------------------------------------------------------------------
	// Taxable-withdrawal split into basis and gain portions.
	// ------------------------------------------------------------------
	for n := 0; n < nN; n++ {
		row := map[int]float64{
			f.Idx(0, n): 1.0,
			f.Idx(1, n): 1.0,
		}
		for i := 0; i < nI; i++ {
			if p.alive(i, n) {
				row[w.Idx(i, Taxable, n)] = -1.0
			}
		}
		prob.AddFx(row, 0)
		// The gain share of each taxable withdrawal is pinned to the
		// embedded-gain fraction the SC loop carries.
		gainRow := map[int]float64{f.Idx(1, n): 1.0}
		for i := 0; i < nI; i++ {
			if p.alive(i, n) {
				gainRow[w.Idx(i, Taxable, n)] = -p.gainFraction
			}
		}
		prob.AddFx(gainRow, 0)
	}

	// ------------------------------------------------------------------
	// (3) Net-of-tax spending and bracket stacking.
	// ------------------------------------------------------------------
	for n := 0; n < nN; n++ {
		// g = e - ordinary tax - capital-gain tax.
		row := map[int]float64{
			g.Idx(n): 1.0,
			e.Idx(n): -1.0,
		}
		for t := 0; t < calculation.NumTaxBrackets; t++ {
			row[u.Idx(t, n)] = p.theta[t][n]
		}
		row[f.Idx(1, n)] = p.qEff[n]
		prob.AddFx(row, 0)

		// Bracket fill must cover taxable ordinary income.
		cover := map[int]float64{}
		for t := 0; t < calculation.NumTaxBrackets; t++ {
			cover[u.Idx(t, n)] = 1.0
		}
		rhs := -p.sigma[n] * p.gamma[n]
		for i := 0; i < nI; i++ {
			if !p.alive(i, n) {
				continue
			}
			cover[w.Idx(i, TaxDeferred, n)] = -1.0
			cover[x.Idx(i, n)] = -1.0
			// Dividends on taxable stock holdings are ordinary income.
			addCoef(cover, p.vm.Get("b").Idx(i, Taxable, n), -p.dividendRate*p.stockFraction(i, Taxable, n))
			rhs += p.timeLists.Wages[i][n] + p.timeLists.OtherIncome[i][n] +
				p.gamma[n]*p.piSeries[i][n]
		}
		if opts.WithSSLP {
			cover[p.vm.Get("tss").Idx(n)] = -1.0
		} else {
			rhs += p.psi[n] * p.gamma[n] * p.ssTotal(n)
		}
		prob.AddLo(cover, rhs)
	}

	// ------------------------------------------------------------------
	// (4) Spending-profile adherence.
	// ------------------------------------------------------------------
	for n := 1; n < nN; n++ {
		xiRatio := p.xi[n] / p.xi[0]
		row := map[int]float64{
			g.Idx(n): 1.0 / p.gamma[n],
			g.Idx(0): -xiRatio,
			sv.Idx(n): -1.0,
		}
		prob.AddFx(row, 0)
		if opts.SpendingSlack > 0 {
			limit := opts.SpendingSlack * xiRatio
			prob.AddUp(map[int]float64{sv.Idx(n): 1.0, g.Idx(0): -limit}, 0)
			prob.AddLo(map[int]float64{sv.Idx(n): 1.0, g.Idx(0): limit}, 0)
		}
	}

	// ------------------------------------------------------------------
	// (6) RMD floors.
	// ------------------------------------------------------------------
	for i := 0; i < nI; i++ {
		for n := 0; n < nN; n++ {
			if p.rho[i][n] > 0 && p.alive(i, n) {
				prob.AddLo(map[int]float64{
					w.Idx(i, TaxDeferred, n): 1.0,
					b.Idx(i, TaxDeferred, n): -p.rho[i][n],
				}, 0)
			}
		}
	}

	// ------------------------------------------------------------------
	// (8) Roth five-year maturation.
	// ------------------------------------------------------------------
	for i := 0; i < nI; i++ {
		for n := 0; n < nN; n++ {
			if !p.alive(i, n) {
				continue
			}
			row := map[int]float64{
				w.Idx(i, TaxFree, n): 1.0,
				b.Idx(i, TaxFree, n): -1.0,
			}
			for m := n - 4; m < n; m++ {
				if m >= 0 {
					addCoef(row, x.Idx(i, m), 1.0)
				}
			}
			immature := 0.0
			for h := n + 1; h < 5; h++ {
				immature += opts.RothContributionHistory[h]
			}
			prob.AddUp(row, -immature)
		}
	}

	// ------------------------------------------------------------------
	// Spousal surplus-deposit split.
	// ------------------------------------------------------------------
	if nI == 2 {
		for n := 0; n < p.nD; n++ {
			prob.AddFx(map[int]float64{
				d.Idx(0, n): 1.0 - p.eta,
				d.Idx(1, n): -p.eta,
			}, 0)
		}
	}

	// ------------------------------------------------------------------
	// (10) Social Security taxability linearization.
	// ------------------------------------------------------------------
	if opts.WithSSLP {
		p.addSSTaxabilityRows(prob, opts, bigM)
	}

	// ------------------------------------------------------------------
	// (11) IRMAA bracket selection.
	// ------------------------------------------------------------------
	if opts.WithMedicare == MedicareOptimize {
		p.addIRMAARows(prob, opts, bigM)
	}

	// ------------------------------------------------------------------
	// (12) XOR between taxable withdrawal and Roth conversion.
	// ------------------------------------------------------------------
	if opts.XORConstraints {
		zx := vm.Get("zx")
		for n := 0; n < nN; n++ {
			prob.SetBinary(zx.Idx(n, 0))
			prob.SetBinary(zx.Idx(n, 1))
			wRow := map[int]float64{zx.Idx(n, 0): -bigM}
			xRow := map[int]float64{zx.Idx(n, 1): -bigM}
			for i := 0; i < nI; i++ {
				if p.alive(i, n) {
					wRow[w.Idx(i, Taxable, n)] = 1.0
					xRow[x.Idx(i, n)] = 1.0
				}
			}
			prob.AddUp(wRow, 0)
			prob.AddUp(xRow, 0)
			prob.AddUp(map[int]float64{zx.Idx(n, 0): 1, zx.Idx(n, 1): 1}, 1)
		}
	}

	// ------------------------------------------------------------------
	// (9) Objective and its tie-in constraint.
	// ------------------------------------------------------------------
	prob.Maximize = true
	switch objective {
	case MaxBequest:
		for i := 0; i < nI; i++ {
			for j := 0; j < NumAccounts; j++ {
				coef := 1.0
				if j == TaxDeferred {
					coef = 1.0 - p.heirsTaxRate
				}
				prob.Objective[b.Idx(i, j, nN)] = coef
			}
		}
		// Net spending tracks the requested series.
		prob.AddFx(map[int]float64{g.Idx(0): 1.0}, opts.NetSpending*p.xi[0])
	default: // MaxSpending
		for n := 0; n < nN; n++ {
			prob.Objective[g.Idx(n)] = 1.0 / p.gamma[n]
		}
		if opts.Bequest > 0 {
			row := map[int]float64{}
			for i := 0; i < nI; i++ {
				for j := 0; j < NumAccounts; j++ {
					coef := 1.0
					if j == TaxDeferred {
						coef = 1.0 - p.heirsTaxRate
					}
					row[b.Idx(i, j, nN)] = coef
				}
			}
			prob.AddLo(row, opts.Bequest*p.gamma[nN])
		}
	}

	return prob
}

// ssTotal returns total Social Security income across individuals in year n,
// today's dollars.
func (p *Plan) ssTotal(n int) float64 {
	total := 0.0
	for i := 0; i < p.nI; i++ {
		total += p.zetaSeries[i][n]
	}
	return total
}

// addSSTaxabilityRows linearizes the 50%/85% Social Security taxability
// stack. The two zs binaries with an XOR row encode three states per year:
// zs0 = 1 while provisional income sits below the upper threshold (50% band
// only), zs1 = 1 for the uncapped 85% regime, and neither set when the 85%-
// of-benefits cap binds and tss pins to it. Tax-minimization pressure from
// the objective picks the cheapest feasible state.
func (p *Plan) addSSTaxabilityRows(prob *solver.Problem, opts Options, bigM float64) {
	vm := p.vm
	plo := vm.Get("plo")
	phi := vm.Get("phi")
	q := vm.Get("q")
	tss := vm.Get("tss")
	zs := vm.Get("zs")
	w := vm.Get("w")
	x := vm.Get("x")
	b := vm.Get("b")

	for n := 0; n < p.nN; n++ {
		ssNominal := p.gamma[n] * p.ssTotal(n)
		if ssNominal <= 0 {
			for _, blk := range []*varmap.Block{plo, phi, q, tss} {
				prob.SetBounds(blk.Idx(n), 0, 0)
			}
			prob.SetBounds(zs.Idx(n, 0), 0, 0)
			prob.SetBounds(zs.Idx(n, 1), 0, 0)
			continue
		}

		status := p.filingStatus(n)
		lo, hi := calculation.SSThresholds(status)
		loN := lo * p.gamma[n]
		hiN := hi * p.gamma[n]
		cap := 0.85 * ssNominal

		prob.SetBinary(zs.Idx(n, 0))
		prob.SetBinary(zs.Idx(n, 1))
		prob.AddUp(map[int]float64{zs.Idx(n, 0): 1, zs.Idx(n, 1): 1}, 1)

		// Provisional income: half of SS plus other taxable income.
		piRow := map[int]float64{q.Idx(n): 1.0}
		rhs := 0.5 * ssNominal
		for i := 0; i < p.nI; i++ {
			if !p.alive(i, n) {
				continue
			}
			piRow[w.Idx(i, TaxDeferred, n)] = -1.0
			piRow[x.Idx(i, n)] = -1.0
			addCoef(piRow, b.Idx(i, Taxable, n), -p.dividendRate*p.stockFraction(i, Taxable, n))
			rhs += p.timeLists.Wages[i][n] + p.timeLists.OtherIncome[i][n] +
				p.gamma[n]*p.piSeries[i][n]
		}
		prob.AddFx(piRow, rhs)
		prob.SetBounds(q.Idx(n), 0, math.Inf(1))

		// Low state requires provisional income below the upper threshold;
		// the uncapped-high state requires it above.
		prob.AddUp(map[int]float64{q.Idx(n): 1, zs.Idx(n, 0): bigM}, hiN+bigM)
		prob.AddLo(map[int]float64{q.Idx(n): 1, zs.Idx(n, 1): -hiN}, 0)

		// Band variables: the 50% band is capped at its width and must be
		// full in the high regime; the 85% band opens only above the low
		// regime. The bands cover income above the lower threshold except in
		// the capped state, where the cap row takes over.
		prob.SetBounds(plo.Idx(n), 0, hiN-loN)
		prob.AddUp(map[int]float64{phi.Idx(n): 1, zs.Idx(n, 0): bigM}, bigM)
		prob.AddLo(map[int]float64{plo.Idx(n): 1, zs.Idx(n, 1): -(hiN - loN)}, 0)
		prob.AddLo(map[int]float64{
			plo.Idx(n): 1, phi.Idx(n): 1, q.Idx(n): -1,
			zs.Idx(n, 0): -bigM, zs.Idx(n, 1): -bigM,
		}, -loN-bigM)

		// Taxable SS: at least the band stack in the low/high states, pinned
		// to the cap in the capped state, never above the explicit cap.
		prob.AddLo(map[int]float64{
			tss.Idx(n): 1.0, plo.Idx(n): -0.5, phi.Idx(n): -0.85,
			zs.Idx(n, 0): -bigM, zs.Idx(n, 1): -bigM,
		}, -bigM)
		prob.AddLo(map[int]float64{
			tss.Idx(n): 1.0, zs.Idx(n, 0): bigM, zs.Idx(n, 1): bigM,
		}, cap)
		prob.SetBounds(tss.Idx(n), 0, cap)
	}
}

// addIRMAARows linearizes the IRMAA bracket lookup: exactly one bracket per
// lookback year, MAGI confined to the selected bracket, premium from the
// cumulative fee table.
func (p *Plan) addIRMAARows(prob *solver.Problem, opts Options, bigM float64) {
	vm := p.vm
	h := vm.Get("h")
	zm := vm.Get("zm")
	mv := vm.Get("m")
	w := vm.Get("w")
	x := vm.Get("x")
	b := vm.Get("b")
	nQ := calculation.NumIRMAABrackets

	l, c := calculation.IRMAATables(p.yobs, p.horizons, p.gamma, p.nD, p.nN, p.thisYear)

	// First two plan years use the user-supplied pre-plan MAGIs.
	preCosts := calculation.MediCosts(p.yobs, p.horizons, make([]float64, p.nN),
		opts.PreviousMAGIs, p.gamma, p.nD, p.nN, p.thisYear)
	for n := 0; n < 2 && n < p.nN; n++ {
		prob.SetBounds(mv.Idx(n), preCosts[n], preCosts[n])
	}

	for nm := 0; nm < p.numLookbackYears(); nm++ {
		target := nm + 2

		// Exactly one bracket.
		one := map[int]float64{}
		for qq := 0; qq < nQ; qq++ {
			prob.SetBinary(zm.Idx(nm, qq))
			one[zm.Idx(nm, qq)] = 1.0
		}
		prob.AddFx(one, 1)

		// MAGI in lookback year nm distributed into bracket slots.
		magiRow := map[int]float64{}
		for qq := 0; qq < nQ; qq++ {
			magiRow[h.Idx(nm, qq)] = 1.0
		}
		rhs := p.psi[nm] * p.gamma[nm] * p.ssTotal(nm)
		for i := 0; i < p.nI; i++ {
			if !p.alive(i, nm) {
				continue
			}
			magiRow[w.Idx(i, TaxDeferred, nm)] = -1.0
			magiRow[x.Idx(i, nm)] = -1.0
			addCoef(magiRow, b.Idx(i, Taxable, nm), -p.dividendRate*p.stockFraction(i, Taxable, nm))
			rhs += p.timeLists.Wages[i][nm] + p.timeLists.OtherIncome[i][nm] +
				p.gamma[nm]*p.piSeries[i][nm]
		}
		prob.AddFx(magiRow, rhs)

		// Slot qq active only when its bracket is selected, and confined to
		// [L[q], L[q+1]).
		for qq := 0; qq < nQ; qq++ {
			upper := bigM
			if qq+1 < nQ {
				upper = l[nm][qq+1]
			}
			prob.AddUp(map[int]float64{h.Idx(nm, qq): 1, zm.Idx(nm, qq): -upper}, 0)
			prob.AddLo(map[int]float64{h.Idx(nm, qq): 1, zm.Idx(nm, qq): -l[nm][qq]}, 0)
		}

		// Premium in the target year follows the selected bracket.
		premRow := map[int]float64{mv.Idx(target): 1.0}
		for qq := 0; qq < nQ; qq++ {
			premRow[zm.Idx(nm, qq)] = -c[target][qq]
		}
		prob.AddFx(premRow, 0)
	}
}

// filingStatus returns 0 for single and 1 for married filing jointly in
// year n, accounting for the survivor transition.
func (p *Plan) filingStatus(n int) int {
	if p.nI == 2 && n < p.nD {
		return 1
	}
	return 0
}

func addCoef(row map[int]float64, idx int, coef float64) {
	row[idx] += coef
}
