package rates

// Embedded historical annual returns, in percent.
// Columns: S&P 500 total return, corporate bonds Baa, 10-year T-notes, CPI inflation.
// Source series runs from 1928 through 2024.

const (
	// From is the first year of the embedded historical dataset.
	From = 1928
	// To is the last year of the embedded historical dataset.
	To = 2024
)

// historicalRow holds one year of the embedded dataset, in percent.
type historicalRow struct {
	Year      int
	SP500     float64
	BondsBaa  float64
	TNotes    float64
	Inflation float64
}

var historicalData = []historicalRow{
	{1928, 43.81, 3.22, 0.84, -1.70},
	{1929, -8.30, 3.02, 4.20, 0.00},
	{1930, -25.12, 0.54, 4.54, -2.30},
	{1931, -43.84, -15.68, -2.56, -9.00},
	{1932, -8.64, 23.59, 8.79, -9.90},
	{1933, 49.98, 12.97, 1.86, -5.10},
	{1934, -1.19, 18.82, 7.96, 3.10},
	{1935, 46.74, 13.31, 4.47, 2.20},
	{1936, 31.94, 11.38, 5.02, 1.50},
	{1937, -35.34, -4.42, 1.38, 3.60},
	{1938, 29.28, 9.24, 4.21, -2.10},
	{1939, -1.10, 7.98, 4.41, -1.40},
	{1940, -10.67, 8.65, 5.40, 0.70},
	{1941, -12.77, 5.01, -2.02, 5.00},
	{1942, 19.17, 5.17, 2.29, 10.90},
	{1943, 25.06, 8.04, 2.49, 6.10},
	{1944, 19.03, 6.67, 2.58, 1.70},
	{1945, 35.82, 6.98, 3.80, 2.30},
	{1946, -8.43, 2.75, 3.13, 8.30},
	{1947, 5.20, 0.27, 0.92, 14.40},
	{1948, 5.70, 4.97, 1.95, 8.10},
	{1949, 18.30, 6.83, 4.66, -1.20},
	{1950, 30.81, 4.27, 0.43, 1.30},
	{1951, 23.68, -0.01, -0.30, 7.90},
	{1952, 18.15, 4.29, 2.27, 1.90},
	{1953, -1.21, 1.68, 4.14, 0.80},
	{1954, 52.56, 6.47, 3.29, 0.70},
	{1955, 32.60, 1.99, -1.34, -0.40},
	{1956, 7.44, -2.29, -2.26, 1.50},
	{1957, -10.46, -0.76, 6.80, 3.30},
	{1958, 43.72, 6.44, -2.10, 2.80},
	{1959, 12.06, 0.39, -2.65, 0.70},
	{1960, 0.34, 7.54, 11.64, 1.70},
	{1961, 26.64, 6.15, 2.06, 1.00},
	{1962, -8.81, 6.61, 5.69, 1.00},
	{1963, 22.61, 5.62, 1.68, 1.30},
	{1964, 16.42, 6.17, 3.73, 1.30},
	{1965, 12.40, 3.22, 0.72, 1.60},
	{1966, -9.97, -1.98, 2.91, 2.90},
	{1967, 23.80, 0.61, -1.58, 3.10},
	{1968, 10.81, 4.21, 3.27, 4.20},
	{1969, -8.24, -2.16, -5.01, 5.50},
	{1970, 3.56, 10.82, 16.75, 5.70},
	{1971, 14.22, 13.79, 9.79, 4.40},
	{1972, 18.76, 9.83, 2.82, 3.20},
	{1973, -14.31, 3.39, 3.66, 6.20},
	{1974, -25.90, 0.31, 1.99, 11.00},
	{1975, 37.00, 11.63, 3.61, 9.10},
	{1976, 23.83, 20.24, 15.98, 5.80},
	{1977, -6.98, 5.56, 1.29, 6.50},
	{1978, 6.51, 1.36, -0.78, 7.60},
	{1979, 18.52, 0.32, 0.67, 11.30},
	{1980, 31.74, -0.55, -2.99, 13.50},
	{1981, -4.70, 4.50, 8.20, 10.30},
	{1982, 20.42, 37.10, 32.81, 6.20},
	{1983, 22.34, 9.84, 3.20, 3.20},
	{1984, 6.15, 16.40, 13.73, 4.30},
	{1985, 31.24, 27.21, 25.71, 3.60},
	{1986, 18.49, 20.26, 24.28, 1.90},
	{1987, 5.81, 1.54, -4.96, 3.60},
	{1988, 16.54, 12.88, 8.22, 4.10},
	{1989, 31.48, 15.65, 17.69, 4.80},
	{1990, -3.06, 7.05, 6.24, 5.40},
	{1991, 30.23, 19.34, 15.00, 4.20},
	{1992, 7.49, 10.30, 9.36, 3.00},
	{1993, 9.97, 14.59, 14.21, 3.00},
	{1994, 1.33, -3.35, -8.04, 2.60},
	{1995, 37.20, 22.31, 23.48, 2.80},
	{1996, 22.68, 3.37, 1.43, 3.00},
	{1997, 33.10, 12.21, 9.94, 2.30},
	{1998, 28.34, 8.51, 14.92, 1.60},
	{1999, 20.89, 0.87, -8.25, 2.20},
	{2000, -9.03, 9.33, 16.66, 3.40},
	{2001, -11.85, 8.92, 5.57, 2.80},
	{2002, -21.97, 12.07, 15.12, 1.60},
	{2003, 28.36, 11.59, 0.38, 2.30},
	{2004, 10.74, 7.36, 4.49, 2.70},
	{2005, 4.83, 4.97, 2.87, 3.40},
	{2006, 15.61, 5.76, 1.96, 3.20},
	{2007, 5.48, 4.54, 10.21, 2.80},
	{2008, -36.55, -5.07, 20.10, 3.80},
	{2009, 25.94, 23.33, -11.12, -0.40},
	{2010, 14.82, 10.79, 8.46, 1.60},
	{2011, 2.10, 12.58, 16.04, 3.20},
	{2012, 15.89, 10.12, 2.97, 2.10},
	{2013, 32.15, -1.06, -9.10, 1.50},
	{2014, 13.52, 10.38, 10.75, 1.60},
	{2015, 1.38, -0.70, 1.28, 0.10},
	{2016, 11.77, 10.37, 0.69, 1.30},
	{2017, 21.61, 9.72, 2.80, 2.10},
	{2018, -4.23, -2.76, -0.02, 2.40},
	{2019, 31.22, 15.33, 9.64, 1.80},
	{2020, 18.02, 10.41, 11.33, 1.20},
	{2021, 28.47, 0.93, -4.42, 4.70},
	{2022, -18.04, -14.49, -17.83, 8.00},
	{2023, 26.06, 8.51, 3.88, 4.10},
	{2024, 24.88, 2.61, -1.64, 2.90},
}

// historicalDecimal returns the dataset rows for years [frm, to] inclusive,
// converted from percent to decimal.
func historicalDecimal(frm, to int) [][]float64 {
	ifrm := frm - From
	ito := to - From
	out := make([][]float64, 0, ito-ifrm+1)
	for i := ifrm; i <= ito; i++ {
		r := historicalData[i]
		out = append(out, []float64{
			r.SP500 / 100.0,
			r.BondsBaa / 100.0,
			r.TNotes / 100.0,
			r.Inflation / 100.0,
		})
	}
	return out
}

// historicalYears returns the calendar years for [frm, to] inclusive.
func historicalYears(frm, to int) []int {
	out := make([]int, 0, to-frm+1)
	for y := frm; y <= to; y++ {
		out = append(out, y)
	}
	return out
}

// trailingAverage returns the column means, in decimal, over the last n years
// of the embedded dataset. Used by the "default" preset.
func trailingAverage(n int) []float64 {
	frm := To - n + 1
	rows := historicalDecimal(frm, To)
	means := make([]float64, NumAssetClasses)
	for _, row := range rows {
		for k := range means {
			means[k] += row[k]
		}
	}
	for k := range means {
		means[k] /= float64(len(rows))
	}
	return means
}
