package rates

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Fixed preset vectors, in percent. The "default" preset is the 30-year
// trailing average of the embedded dataset and is computed at init.
var (
	optimisticRates   = []float64{8.0, 5.0, 4.0, 2.5}
	conservativeRates = []float64{6.0, 4.0, 3.3, 2.8}
	defaultRates      []float64
)

func init() {
	means := trailingAverage(30)
	defaultRates = make([]float64, NumAssetClasses)
	for k, m := range means {
		defaultRates[k] = 100.0 * m
	}
}

var fixedPresetMethods = map[string]bool{
	"default":      true,
	"optimistic":   true,
	"conservative": true,
}

var historicalRangeMethods = map[string]bool{
	"historical":         true,
	"historical average": true,
	"histochastic":       true,
}

// builtinMetadata documents the built-in methods for the registry.
var builtinMetadata = map[string]Metadata{
	"default": {
		Method:        "default",
		Description:   "30-year trailing historical average deterministic rates.",
		Deterministic: true,
		Constant:      true,
	},
	"optimistic": {
		Method:        "optimistic",
		Description:   "Optimistic fixed rates based on industry forecasts.",
		Deterministic: true,
		Constant:      true,
	},
	"conservative": {
		Method:        "conservative",
		Description:   "Conservative fixed rate assumptions.",
		Deterministic: true,
		Constant:      true,
	},
	"user": {
		Method:      "user",
		Description: "User-specified fixed annual rates (percent).",
		Required: map[string]ParamSpec{
			"values": {
				Type:        "list[float] length 4",
				Description: "Rates in percent: [Stocks, Bonds Baa, T-Notes, Inflation]",
				Example:     "[7.0, 4.5, 3.5, 2.5]",
			},
		},
		Deterministic: true,
		Constant:      true,
	},
	"historical": {
		Method:      "historical",
		Description: "Historical year-by-year returns over selected range.",
		Required: map[string]ParamSpec{
			"frm": {Type: "int", Description: "Starting historical year (inclusive).", Example: "1969"},
		},
		Optional: map[string]ParamSpec{
			"to": {Type: "int", Description: "Ending historical year (inclusive). Defaults to frm + plan horizon - 1, injected by the plan."},
		},
		Deterministic: true,
	},
	"historical average": {
		Method:      "historical average",
		Description: "Fixed rates equal to historical average over selected range.",
		Required: map[string]ParamSpec{
			"frm": {Type: "int", Example: "1969"},
			"to":  {Type: "int", Example: "2002"},
		},
		Deterministic: true,
		Constant:      true,
	},
	"stochastic": {
		Method:      "stochastic",
		Description: "Multivariate normal stochastic model using user-provided mean and volatility.",
		Required: map[string]ParamSpec{
			"values": {Type: "list[float] length 4", Description: "Mean returns in percent.", Example: "[7.0, 4.5, 3.5, 2.5]"},
			"stdev":  {Type: "list[float] length 4", Description: "Standard deviations in percent.", Example: "[17.0, 8.0, 6.0, 2.0]"},
		},
		Optional: map[string]ParamSpec{
			"corr": {
				Type:        "4x4 matrix or list[6]",
				Description: "Pearson correlation matrix or upper-triangle off-diagonals.",
				Example:     "[0.2, 0.1, 0.0, 0.3, 0.1, 0.2]",
			},
		},
	},
	"histochastic": {
		Method:      "histochastic",
		Description: "Multivariate normal model using historical mean and covariance.",
		Required: map[string]ParamSpec{
			"frm": {Type: "int", Example: "1969"},
			"to":  {Type: "int", Example: "2002"},
		},
	},
}

// BuiltinModel implements the fixed, historical, and multivariate-normal
// stochastic methods.
type BuiltinModel struct {
	method string
	params map[string]any

	frm, to int
	values  []float64 // percent, for user/stochastic
	stdev   []float64 // percent, for stochastic
	corr    *mat.SymDense

	rng *rand.Rand
	log Logger
}

// newBuiltin builds a BuiltinModel from a validated config map.
func newBuiltin(method string, cfg map[string]any, src rand.Source, log Logger) (*BuiltinModel, error) {
	meta, ok := builtinMetadata[method]
	if !ok {
		return nil, fmt.Errorf("unknown builtin rate method %q", method)
	}
	params, err := validateParams(meta, cfg)
	if err != nil {
		return nil, err
	}

	m := &BuiltinModel{
		method: method,
		params: params,
		rng:    rand.New(src),
		log:    log,
	}

	if historicalRangeMethods[method] {
		if m.frm, err = asInt(params["frm"]); err != nil {
			return nil, fmt.Errorf("rate model %q: frm: %w", method, err)
		}
		m.to = m.frm
		if v, ok := params["to"]; ok {
			if m.to, err = asInt(v); err != nil {
				return nil, fmt.Errorf("rate model %q: to: %w", method, err)
			}
		}
		if err := checkRange(m.frm, m.to); err != nil {
			return nil, err
		}
	}

	if v, ok := params["values"]; ok {
		if m.values, err = asFloats(v); err != nil {
			return nil, err
		}
		if len(m.values) != NumAssetClasses {
			return nil, fmt.Errorf("values must have %d items, got %d", NumAssetClasses, len(m.values))
		}
	}
	if v, ok := params["stdev"]; ok {
		if m.stdev, err = asFloats(v); err != nil {
			return nil, err
		}
		if len(m.stdev) != NumAssetClasses {
			return nil, fmt.Errorf("stdev must have %d items, got %d", NumAssetClasses, len(m.stdev))
		}
	}
	if v, ok := params["corr"]; ok {
		if m.corr, err = buildCorrMatrix(v); err != nil {
			return nil, err
		}
		m.params["corr"] = corrToRows(m.corr)
	}

	return m, nil
}

// Method implements Model.
func (m *BuiltinModel) Method() string { return m.method }

// Params implements Model.
func (m *BuiltinModel) Params() map[string]any { return m.params }

// Deterministic implements Model.
func (m *BuiltinModel) Deterministic() bool { return builtinMetadata[m.method].Deterministic }

// Constant implements Model.
func (m *BuiltinModel) Constant() bool { return builtinMetadata[m.method].Constant }

// Generate implements Model.
func (m *BuiltinModel) Generate(n int) ([][]float64, error) {
	switch m.method {
	case "default":
		return repeatRow(n, toDecimal(defaultRates)), nil
	case "optimistic":
		return repeatRow(n, toDecimal(optimisticRates)), nil
	case "conservative":
		return repeatRow(n, toDecimal(conservativeRates)), nil
	case "user":
		return repeatRow(n, toDecimal(m.values)), nil
	case "historical":
		return m.generateHistorical(n), nil
	case "historical average":
		return m.generateHistoricalAverage(n), nil
	case "stochastic":
		return m.generateStochastic(n)
	case "histochastic":
		return m.generateHistochastic(n)
	}
	return nil, fmt.Errorf("method %q not implemented", m.method)
}

// generateHistorical cycles through the selected window modulo its span.
func (m *BuiltinModel) generateHistorical(n int) [][]float64 {
	window := historicalDecimal(m.frm, m.to)
	span := len(window)
	out := make([][]float64, n)
	for i := range out {
		row := make([]float64, NumAssetClasses)
		copy(row, window[i%span])
		out[i] = row
	}
	return out
}

func (m *BuiltinModel) generateHistoricalAverage(n int) [][]float64 {
	means, stdev, corr, _ := windowDistribution(m.frm, m.to)
	m.params["values"] = toPercent(means)
	m.params["stdev"] = toPercent(stdev)
	m.params["corr"] = corrToRows(corr)
	return repeatRow(n, means)
}

func (m *BuiltinModel) generateHistochastic(n int) ([][]float64, error) {
	means, stdev, corr, covar := windowDistribution(m.frm, m.to)
	m.params["values"] = toPercent(means)
	m.params["stdev"] = toPercent(stdev)
	m.params["corr"] = corrToRows(corr)
	return m.drawMultivariateNormal(n, means, covar)
}

func (m *BuiltinModel) generateStochastic(n int) ([][]float64, error) {
	means := toDecimal(m.values)
	stdev := toDecimal(m.stdev)
	corr := m.corr
	if corr == nil {
		corr = identitySym(NumAssetClasses)
	}
	m.params["corr"] = corrToRows(corr)
	covar := buildCovar(stdev, corr)
	return m.drawMultivariateNormal(n, means, covar)
}

func (m *BuiltinModel) drawMultivariateNormal(n int, means []float64, covar *mat.SymDense) ([][]float64, error) {
	dist, ok := distmv.NewNormal(means, covar, m.rng)
	if !ok {
		return nil, fmt.Errorf("covariance matrix is not positive definite")
	}
	out := make([][]float64, n)
	for i := range out {
		out[i] = dist.Rand(nil)
	}
	return out, nil
}

// windowDistribution computes column means, standard deviations, correlation
// and covariance over the historical window [frm, to], in decimal.
func windowDistribution(frm, to int) (means, stdev []float64, corr, covar *mat.SymDense) {
	window := historicalDecimal(frm, to)
	rows := len(window)
	data := mat.NewDense(rows, NumAssetClasses, nil)
	for i, row := range window {
		data.SetRow(i, row)
	}

	covar = mat.NewSymDense(NumAssetClasses, nil)
	stat.CovarianceMatrix(covar, data, nil)

	means = make([]float64, NumAssetClasses)
	stdev = make([]float64, NumAssetClasses)
	for k := 0; k < NumAssetClasses; k++ {
		col := mat.Col(nil, k, data)
		means[k] = stat.Mean(col, nil)
		stdev[k] = stat.StdDev(col, nil)
	}

	corr = mat.NewSymDense(NumAssetClasses, nil)
	stat.CorrelationMatrix(corr, data, nil)
	return means, stdev, corr, covar
}

// buildCorrMatrix accepts a full 4x4 matrix or the six upper-triangle
// off-diagonals and returns a symmetric correlation matrix.
func buildCorrMatrix(v any) (*mat.SymDense, error) {
	// Flat list of upper-triangle off-diagonals?
	if flat, err := asFloats(v); err == nil {
		if len(flat) != NumAssetClasses*(NumAssetClasses-1)/2 {
			return nil, fmt.Errorf("correlation list must have %d items, got %d",
				NumAssetClasses*(NumAssetClasses-1)/2, len(flat))
		}
		corr := identitySym(NumAssetClasses)
		x := 0
		for i := 0; i < NumAssetClasses; i++ {
			for j := i + 1; j < NumAssetClasses; j++ {
				corr.SetSym(i, j, flat[x])
				x++
			}
		}
		return corr, nil
	}

	rows, ok := v.([]any)
	if !ok {
		if rr, isRows := v.([][]float64); isRows {
			return corrFromRows(rr)
		}
		return nil, fmt.Errorf("unable to process correlation of type %T", v)
	}
	rr := make([][]float64, len(rows))
	for i, r := range rows {
		f, err := asFloats(r)
		if err != nil {
			return nil, fmt.Errorf("correlation row %d: %w", i, err)
		}
		rr[i] = f
	}
	return corrFromRows(rr)
}

func corrFromRows(rr [][]float64) (*mat.SymDense, error) {
	if len(rr) != NumAssetClasses {
		return nil, fmt.Errorf("correlation matrix must be %dx%d", NumAssetClasses, NumAssetClasses)
	}
	const tol = 1e-9
	corr := mat.NewSymDense(NumAssetClasses, nil)
	for i := 0; i < NumAssetClasses; i++ {
		if len(rr[i]) != NumAssetClasses {
			return nil, fmt.Errorf("correlation matrix must be %dx%d", NumAssetClasses, NumAssetClasses)
		}
		for j := i; j < NumAssetClasses; j++ {
			if diff := rr[i][j] - rr[j][i]; diff > tol || diff < -tol {
				return nil, fmt.Errorf("correlation matrix must be symmetric")
			}
			corr.SetSym(i, j, rr[i][j])
		}
	}
	return corr, nil
}

// buildCovar scales a correlation matrix by the standard deviations.
func buildCovar(stdev []float64, corr *mat.SymDense) *mat.SymDense {
	n := len(stdev)
	covar := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			covar.SetSym(i, j, corr.At(i, j)*stdev[i]*stdev[j])
		}
	}
	return covar
}

func identitySym(n int) *mat.SymDense {
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		s.SetSym(i, i, 1.0)
	}
	return s
}

func corrToRows(corr *mat.SymDense) [][]float64 {
	n, _ := corr.Dims()
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			out[i][j] = corr.At(i, j)
		}
	}
	return out
}

func toDecimal(pct []float64) []float64 {
	out := make([]float64, len(pct))
	for i, v := range pct {
		out[i] = v / 100.0
	}
	return out
}

func toPercent(dec []float64) []float64 {
	out := make([]float64, len(dec))
	for i, v := range dec {
		out[i] = v * 100.0
	}
	return out
}
