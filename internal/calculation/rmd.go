package calculation

// Uniform Lifetime Table distribution periods, starting at age 72.
var rmdTable = []float64{
	27.4, 26.5, 25.5, 24.6, 23.7, 22.9, 22.0, 21.1, 20.2, 19.4,
	18.5, 17.7, 16.8, 16.0, 15.2, 14.4, 13.7, 12.9, 12.2, 11.5,
	10.8, 10.1, 9.5, 8.9, 8.4, 7.8, 7.3, 6.8, 6.4, 6.0,
	5.6, 5.2, 4.9, 4.6,
}

// RMDFractions returns the Required Minimum Distribution fraction per
// individual and year. The RMD age is 73, moving to 75 for years after 2032.
// Spouses more than 10 years apart are outside the Uniform Lifetime Table's
// validity; the gap is logged as a warning and the table is applied anyway.
func RMDFractions(yobs []int, nN, thisyear int, log Logger) [][]float64 {
	nI := len(yobs)
	if nI == 2 && abs(yobs[0]-yobs[1]) > 10 && log != nil {
		log.Warnf("RMD: unsupported age difference of more than 10 years; using Uniform Lifetime Table regardless")
	}

	rho := make([][]float64, nI)
	for i := range rho {
		rho[i] = make([]float64, nN)
		ageNow := thisyear - yobs[i]
		for n := 0; n < nN; n++ {
			year := thisyear + n
			age := ageNow + n
			if age < 73 || (year > 2032 && age < 75) {
				continue
			}
			idx := age - 72
			if idx >= len(rmdTable) {
				idx = len(rmdTable) - 1
			}
			rho[i][n] = 1.0 / rmdTable[idx]
		}
	}
	return rho
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
