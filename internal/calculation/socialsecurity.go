package calculation

import "math"

// FRA returns the Full Retirement Age in years for a birth year: 66 through
// 1954, stepping up two months per year, 67 from 1960 on.
func FRA(yob int) float64 {
	switch {
	case yob <= 1954:
		return 66.0
	case yob >= 1960:
		return 67.0
	default:
		return 66.0 + 2.0*float64(yob-1954)/12.0
	}
}

// monthsFromFRA converts a claiming age to whole months relative to FRA.
// When roundUp is set the age is bumped by one month before rounding; callers
// use it when the claim date falls mid-month.
func monthsFromFRA(fra, age float64, roundUp bool) int {
	months := int(math.Round((age - fra) * 12.0))
	if roundUp {
		months++
	}
	return months
}

// SelfFactor returns the actuarial adjustment applied to an individual's own
// PIA for claiming at the given age. Reduction below FRA is 5/9 of 1% per
// month for the first 36 months and 5/12 of 1% per month beyond, up to 60
// months total; delayed credit above FRA is 2/3 of 1% per month.
func SelfFactor(fra, age float64, roundUp bool) float64 {
	months := monthsFromFRA(fra, age, roundUp)
	if months >= 0 {
		return 1.0 + float64(months)*(2.0/3.0)/100.0
	}
	below := -months
	if below > 60 {
		below = 60
	}
	first := below
	if first > 36 {
		first = 36
	}
	rest := below - first
	return 1.0 - float64(first)*(5.0/9.0)/100.0 - float64(rest)*(5.0/12.0)/100.0
}

// SpousalFactor returns the adjustment applied to the spousal portion of a
// benefit. There is no delayed credit; reduction below FRA is 25/36 of 1% per
// month for the first 36 months and 5/12 of 1% per month beyond.
func SpousalFactor(fra, age float64, roundUp bool) float64 {
	months := monthsFromFRA(fra, age, roundUp)
	if months >= 0 {
		return 1.0
	}
	below := -months
	if below > 60 {
		below = 60
	}
	first := below
	if first > 36 {
		first = 36
	}
	rest := below - first
	return 1.0 - float64(first)*(25.0/36.0)/100.0 - float64(rest)*(5.0/12.0)/100.0
}

// SpousalBenefits returns the monthly spousal top-up for each individual: the
// excess of half the partner's PIA over the individual's own PIA, when
// positive. Single filers get zero.
func SpousalBenefits(pias []float64) []float64 {
	out := make([]float64, len(pias))
	if len(pias) != 2 {
		return out
	}
	for i := 0; i < 2; i++ {
		j := 1 - i
		if excess := 0.5*pias[j] - pias[i]; excess > 0 {
			out[i] = excess
		}
	}
	return out
}

// SocialSecurityBenefits computes annual Social Security income per
// individual and year, in today's dollars. PIAs are monthly. Claiming ages
// may be fractional (years + months/12). The first year is prorated by the
// fraction of the year remaining after the claim date.
func SocialSecurityBenefits(pias, ages []float64, yobs, mobs, horizons []int,
	nN, thisyear int) [][]float64 {

	nI := len(pias)
	zeta := make([][]float64, nI)
	for i := range zeta {
		zeta[i] = make([]float64, nN)
	}

	spousal := SpousalBenefits(pias)

	for i := 0; i < nI; i++ {
		if pias[i] == 0 && spousal[i] == 0 {
			continue
		}
		fra := FRA(yobs[i])
		monthly := pias[i]*SelfFactor(fra, ages[i], false) +
			spousal[i]*SpousalFactor(fra, ages[i], false)

		yearAge := ages[i] + float64(mobs[i]-1)/12.0
		iage := int(yearAge)
		fraction := 1.0 - math.Mod(yearAge, 1.0)
		realNs := iage - thisyear + yobs[i]
		ns := realNs
		if ns < 0 {
			ns = 0
		}
		for n := ns; n < horizons[i] && n < nN; n++ {
			zeta[i][n] = 12.0 * monthly
		}
		if realNs >= 0 && ns < horizons[i] && ns < nN {
			zeta[i][ns] *= fraction
		}
	}

	return zeta
}
