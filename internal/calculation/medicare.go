package calculation

// Medicare Part B premiums and IRMAA surcharges.
//
// Index 0 of the fee table is the standard monthly Part B premium; indices 1-5
// are the incremental IRMAA monthly fees per tier. Bracket thresholds are for
// single [0] and married filing jointly [1] and apply to MAGI from two years
// prior. Thresholds are indexed by cumulative inflation.

// NumIRMAABrackets is the number of IRMAA tiers including the base tier.
const NumIRMAABrackets = 6

var irmaaBrackets2025 = [2][NumIRMAABrackets]float64{
	{0, 106000, 133000, 167000, 200000, 500000},
	{0, 212000, 266000, 334000, 400000, 750000},
}

// Monthly fees: standard premium then incremental surcharges per tier.
var irmaaMonthlyFees2025 = [NumIRMAABrackets]float64{185.00, 74.00, 111.00, 110.90, 111.00, 37.00}

// MediCosts computes annual Medicare costs (Part B plus IRMAA) per plan year,
// in nominal dollars. magi is the plan's own nominal MAGI series; the two
// years before the plan start come from prevMAGI. Filing status is joint
// while both individuals are alive and single from year nD on.
func MediCosts(yobs, horizons []int, magi []float64, prevMAGI [2]float64,
	gamma []float64, nD, nN, thisyear int) []float64 {

	nI := len(yobs)
	costs := make([]float64, nN)
	for n := 0; n < nN; n++ {
		status := nI - 1
		if n >= nD {
			status = 0
		}
		lookback := prevMAGI[0]
		if n == 1 {
			lookback = prevMAGI[1]
		} else if n >= 2 {
			lookback = magi[n-2]
		}
		for i := 0; i < nI; i++ {
			if thisyear+n-yobs[i] < 65 || n >= horizons[i] {
				continue
			}
			costs[n] += gamma[n] * irmaaMonthlyFees2025[0] * 12
			// MAGI exactly at a threshold lands in the higher bracket.
			for q := 1; q < NumIRMAABrackets; q++ {
				if lookback >= gamma[n]*irmaaBrackets2025[status][q] {
					costs[n] += gamma[n] * irmaaMonthlyFees2025[q] * 12
				}
			}
		}
	}
	return costs
}

// IRMAATables returns per-year bracket thresholds L[n][q] and cumulative
// annual premiums C[n][q] for the MILP bracket-selection mode. Thresholds are
// nominal (gamma-indexed); premiums cover every Medicare-eligible individual
// alive in year n.
func IRMAATables(yobs, horizons []int, gamma []float64, nD, nN, thisyear int) (l, c [][]float64) {
	nI := len(yobs)
	l = make([][]float64, nN)
	c = make([][]float64, nN)
	for n := 0; n < nN; n++ {
		l[n] = make([]float64, NumIRMAABrackets)
		c[n] = make([]float64, NumIRMAABrackets)
		status := nI - 1
		if n >= nD {
			status = 0
		}
		eligible := 0
		for i := 0; i < nI; i++ {
			if thisyear+n-yobs[i] >= 65 && n < horizons[i] {
				eligible++
			}
		}
		cum := 0.0
		for q := 0; q < NumIRMAABrackets; q++ {
			l[n][q] = gamma[n] * irmaaBrackets2025[status][q]
			cum += gamma[n] * irmaaMonthlyFees2025[q] * 12 * float64(eligible)
			c[n][q] = cum
		}
	}
	return l, c
}
