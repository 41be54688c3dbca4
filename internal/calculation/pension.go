package calculation

import "math"

// PensionBenefits computes annual pension income per individual and year.
//
// Amounts are monthly dollars; the result is annual. The start year comes from
// the commencement age plus birth month, with the first year prorated by the
// fraction of the year remaining after commencement. Pensions that are not
// inflation-indexed are pre-divided by cumulative inflation so that, after the
// plan multiplies by gamma to go nominal, the nominal payment stays constant.
//
// gamma has length nN+1 with gamma[0] = 1.
func PensionBenefits(amounts, ages []float64, yobs, mobs, horizons []int,
	indexed []bool, gamma []float64, nN, thisyear int) [][]float64 {

	nI := len(amounts)
	pi := make([][]float64, nI)
	for i := range pi {
		pi[i] = make([]float64, nN)
	}

	for i := 0; i < nI; i++ {
		if amounts[i] == 0 {
			continue
		}
		yearAge := ages[i] + float64(mobs[i]-1)/12.0
		iage := int(yearAge)
		fraction := 1.0 - math.Mod(yearAge, 1.0)
		realNs := iage - thisyear + yobs[i]
		ns := realNs
		if ns < 0 {
			ns = 0
		}
		nd := horizons[i]
		for n := ns; n < nd && n < nN; n++ {
			pi[i][n] = 12.0 * amounts[i]
		}
		if realNs >= 0 && ns < nd && ns < nN {
			pi[i][ns] *= fraction
		}
		if !indexed[i] {
			for n := ns; n < nd && n < nN; n++ {
				pi[i][n] /= gamma[n]
			}
		}
	}

	return pi
}
