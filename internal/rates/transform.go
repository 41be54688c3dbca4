package rates

// Reverse flips a generated series along the time axis, in place.
func Reverse(series [][]float64) {
	for i, j := 0, len(series)-1; i < j; i, j = i+1, j-1 {
		series[i], series[j] = series[j], series[i]
	}
}

// Roll shifts a generated series cyclically by k along the time axis, in
// place: out[n] = in[(n-k) mod N]. Positive k brings late values to early
// indices, matching the wraparound shift the config's roll_sequence encodes.
func Roll(series [][]float64, k int) {
	n := len(series)
	if n == 0 {
		return
	}
	k %= n
	if k < 0 {
		k += n
	}
	if k == 0 {
		return
	}
	out := make([][]float64, n)
	for i := range series {
		out[(i+k)%n] = series[i]
	}
	copy(series, out)
}

// ApplyTransforms applies reverse then roll to a generated series. Both are
// no-ops on constant models; a warning is logged when the caller asked for a
// transform anyway.
func ApplyTransforms(m Model, series [][]float64, reverse bool, roll int, log Logger) {
	if m.Constant() {
		if (reverse || roll != 0) && log != nil {
			log.Warnf("reverse/roll ignored for constant rate method %q", m.Method())
		}
		return
	}
	if reverse {
		Reverse(series)
	}
	if roll != 0 {
		Roll(series, roll)
	}
}
