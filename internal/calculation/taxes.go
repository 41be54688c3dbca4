package calculation

// Federal income tax schedule across the TCJA/OBBBA regime boundary.
//
// Before the configured OBBBA expiration year the 2025 (TCJA) tables apply;
// from that year on the pre-TCJA 2026 tables apply. All values are in
// start-year dollars, unadjusted for inflation; the constraint builder scales
// by cumulative inflation.

// NumTaxBrackets is the number of federal ordinary-income brackets.
const NumTaxBrackets = 7

var taxRates2025 = []float64{0.10, 0.12, 0.22, 0.24, 0.32, 0.35, 0.370}
var taxRates2026 = []float64{0.10, 0.15, 0.25, 0.28, 0.33, 0.35, 0.396}

// Bracket tops for single [0] and married filing jointly [1].
var taxBrackets2025 = [2][NumTaxBrackets]float64{
	{11925, 48475, 103350, 197300, 250525, 626350, 9999999},
	{23850, 96950, 206700, 394600, 501050, 751700, 9999999},
}

var taxBrackets2026 = [2][NumTaxBrackets]float64{
	{11850, 48200, 116700, 243400, 529200, 531400, 9999999},
	{23700, 96400, 194400, 296350, 529200, 596900, 9999999},
}

var stdDeduction2025 = [2]float64{15000, 30000}
var stdDeduction2026 = [2]float64{8300, 16600}
var extra65Deduction = [2]float64{2000, 1600}

// Social Security provisional-income thresholds, single [0] and MFJ [1].
var ssThresholdLo = [2]float64{25000, 32000}
var ssThresholdHi = [2]float64{34000, 44000}

// Long-term capital gain bracket tops (0% and 15% tiers), single [0], MFJ [1].
var ltcgBrackets2025 = [2][2]float64{
	{48350, 533400},
	{96700, 600050},
}

// Net investment income tax threshold and rate.
var niitThreshold = [2]float64{200000, 250000}

const niitRate = 0.038

// TaxParams returns three time series, unadjusted for inflation:
// the standard deduction sigma[n], the marginal rate theta[t][n], and the
// bracket widths delta[t][n] (both shaped (NumTaxBrackets, nN)).
//
// iD is the index of the shorter-lived individual, nD the year that
// individual dies; filing status drops to single from then on. yOBBBA is the
// first year the pre-TCJA tables apply.
func TaxParams(yobs []int, iD, nD, nN, yOBBBA, thisyear int) (sigma []float64, theta, delta [][]float64) {
	// Bracket widths from bracket tops.
	var delta2025, delta2026 [2][NumTaxBrackets]float64
	for s := 0; s < 2; s++ {
		delta2025[s][0] = taxBrackets2025[s][0]
		delta2026[s][0] = taxBrackets2026[s][0]
		for t := 1; t < NumTaxBrackets; t++ {
			delta2025[s][t] = taxBrackets2025[s][t] - taxBrackets2025[s][t-1]
			delta2026[s][t] = taxBrackets2026[s][t] - taxBrackets2026[s][t-1]
		}
	}

	sigma = make([]float64, nN)
	theta = make([][]float64, NumTaxBrackets)
	delta = make([][]float64, NumTaxBrackets)
	for t := range theta {
		theta[t] = make([]float64, nN)
		delta[t] = make([]float64, nN)
	}

	filingStatus := len(yobs) - 1
	souls := make([]int, 0, len(yobs))
	for i := range yobs {
		souls = append(souls, i)
	}

	for n := 0; n < nN; n++ {
		if n == nD && len(souls) == 2 {
			souls = append(souls[:iD], souls[iD+1:]...)
			filingStatus--
		}

		preOBBBA := thisyear+n < yOBBBA
		if preOBBBA {
			sigma[n] = stdDeduction2025[filingStatus]
		} else {
			sigma[n] = stdDeduction2026[filingStatus]
		}
		for _, i := range souls {
			if thisyear+n-yobs[i] >= 65 {
				sigma[n] += extra65Deduction[filingStatus]
			}
		}
		for t := 0; t < NumTaxBrackets; t++ {
			if preOBBBA {
				theta[t][n] = taxRates2025[t]
				delta[t][n] = delta2025[filingStatus][t]
			} else {
				theta[t][n] = taxRates2026[t]
				delta[t][n] = delta2026[filingStatus][t]
			}
		}
	}

	return sigma, theta, delta
}

// SSThresholds returns the provisional-income thresholds (P_lo, P_hi) for a
// filing status (0 = single, 1 = married filing jointly).
func SSThresholds(filingStatus int) (lo, hi float64) {
	return ssThresholdLo[filingStatus], ssThresholdHi[filingStatus]
}

// TaxableSocialSecurity returns the taxable portion of annual Social Security
// benefits given provisional income components. Provisional income is half of
// SS plus other taxable income plus tax-exempt interest. The taxable portion
// stacks 50% between the thresholds and 85% above, capped at 85% of benefits.
func TaxableSocialSecurity(ss, otherTaxable, taxExempt float64, filingStatus int) float64 {
	if ss <= 0 {
		return 0
	}
	lo, hi := SSThresholds(filingStatus)
	pi := 0.5*ss + otherTaxable + taxExempt
	if pi <= lo {
		return 0
	}
	var taxable float64
	if pi <= hi {
		taxable = 0.5 * (pi - lo)
	} else {
		taxable = 0.5*(hi-lo) + 0.85*(pi-hi)
	}
	if cap85 := 0.85 * ss; taxable > cap85 {
		taxable = cap85
	}
	return taxable
}

// CapitalGainsTax computes federal tax on long-term gains stacked above
// ordinary taxable income, using the 0/15/20% tiers, plus net investment
// income tax when modified AGI exceeds the NIIT threshold. Thresholds are
// indexed by gamma (cumulative inflation to the year in question).
func CapitalGainsTax(ordinaryTaxable, gains, magi float64, filingStatus int, gamma float64) float64 {
	if gains <= 0 {
		return 0
	}
	zeroTop := ltcgBrackets2025[filingStatus][0] * gamma
	fifteenTop := ltcgBrackets2025[filingStatus][1] * gamma

	tax := 0.0
	lo := ordinaryTaxable
	hi := ordinaryTaxable + gains

	in15 := clampInterval(lo, hi, zeroTop, fifteenTop)
	tax += 0.15 * in15
	in20 := clampInterval(lo, hi, fifteenTop, 1e18)
	tax += 0.20 * in20

	if thr := niitThreshold[filingStatus] * gamma; magi > thr {
		base := magi - thr
		if base > gains {
			base = gains
		}
		tax += niitRate * base
	}
	return tax
}

// clampInterval returns the length of [lo, hi] ∩ [a, b].
func clampInterval(lo, hi, a, b float64) float64 {
	if lo < a {
		lo = a
	}
	if hi > b {
		hi = b
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}
