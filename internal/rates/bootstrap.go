package rates

import (
	"fmt"

	"golang.org/x/exp/rand"
)

var bootstrapMetadata = Metadata{
	Method: "bootstrap_sor",
	Description: "Historical bootstrap model for sequence-of-returns analysis. " +
		"Supports IID, block, circular, and stationary bootstrap variants. Defaults to IID.",
	Required: map[string]ParamSpec{
		"frm": {Type: "int", Description: "First historical year (inclusive).", Example: "1969"},
		"to":  {Type: "int", Description: "Last historical year (inclusive).", Example: "2002"},
	},
	Optional: map[string]ParamSpec{
		"bootstrap_type": {
			Type:        "str",
			Description: "Type of bootstrap to perform.",
			Allowed:     []string{"iid", "block", "circular", "stationary"},
			Default:     "iid",
			Example:     `"block"`,
		},
		"block_size": {
			Type:        "int",
			Default:     1,
			Description: "Block length for block-based bootstraps.",
			Example:     "5",
		},
		"crisis_years": {
			Type:        "list[int]",
			Description: "Years to overweight in sampling.",
			Example:     "[1973, 1974, 2000, 2008]",
		},
		"crisis_weight": {
			Type:        "float",
			Default:     1.0,
			Description: "Sampling multiplier for crisis years.",
			Example:     "2.0",
		},
	},
}

// BootstrapModel resamples the historical window with one of four bootstrap
// schemes, optionally overweighting crisis years.
type BootstrapModel struct {
	params map[string]any

	frm, to       int
	bootstrapType string
	blockSize     int
	crisisYears   []int
	crisisWeight  float64

	data    [][]float64 // window rows, decimal
	years   []int
	weights []float64 // nil means uniform

	rng *rand.Rand
	log Logger
}

// newBootstrap builds a BootstrapModel from a validated config map.
func newBootstrap(cfg map[string]any, src rand.Source, log Logger) (*BootstrapModel, error) {
	params, err := validateParams(bootstrapMetadata, cfg)
	if err != nil {
		return nil, err
	}

	m := &BootstrapModel{
		params:       params,
		crisisWeight: 1.0,
		rng:          rand.New(src),
		log:          log,
	}

	if m.frm, err = asInt(params["frm"]); err != nil {
		return nil, fmt.Errorf("bootstrap_sor: frm: %w", err)
	}
	if m.to, err = asInt(params["to"]); err != nil {
		return nil, fmt.Errorf("bootstrap_sor: to: %w", err)
	}
	if m.frm > m.to {
		return nil, fmt.Errorf("bootstrap_sor: frm must be <= to")
	}
	if err := checkRange(m.frm, m.to); err != nil {
		return nil, err
	}

	m.bootstrapType, _ = params["bootstrap_type"].(string)
	switch m.bootstrapType {
	case "iid", "block", "circular", "stationary":
	default:
		return nil, fmt.Errorf("unknown bootstrap_type %q", m.bootstrapType)
	}
	if m.blockSize, err = asInt(params["block_size"]); err != nil {
		return nil, fmt.Errorf("bootstrap_sor: block_size: %w", err)
	}
	if m.blockSize < 1 {
		return nil, fmt.Errorf("block_size must be >= 1")
	}
	if v, ok := params["crisis_years"]; ok {
		ys, err := asFloats(v)
		if err != nil {
			return nil, fmt.Errorf("bootstrap_sor: crisis_years: %w", err)
		}
		for _, y := range ys {
			m.crisisYears = append(m.crisisYears, int(y))
		}
	}
	if v, ok := params["crisis_weight"]; ok {
		if m.crisisWeight, err = asFloat(v); err != nil {
			return nil, fmt.Errorf("bootstrap_sor: crisis_weight: %w", err)
		}
	}

	m.data = historicalDecimal(m.frm, m.to)
	m.years = historicalYears(m.frm, m.to)
	if m.weights, err = m.buildSamplingWeights(); err != nil {
		return nil, err
	}

	return m, nil
}

// Method implements Model.
func (m *BootstrapModel) Method() string { return "bootstrap_sor" }

// Params implements Model.
func (m *BootstrapModel) Params() map[string]any { return m.params }

// Deterministic implements Model.
func (m *BootstrapModel) Deterministic() bool { return false }

// Constant implements Model.
func (m *BootstrapModel) Constant() bool { return false }

// buildSamplingWeights returns normalized per-year sampling probabilities, or
// nil when sampling is uniform.
func (m *BootstrapModel) buildSamplingWeights() ([]float64, error) {
	if len(m.crisisYears) == 0 || m.crisisWeight == 1.0 {
		return nil, nil
	}
	crisis := map[int]bool{}
	for _, y := range m.crisisYears {
		crisis[y] = true
	}
	weights := make([]float64, len(m.years))
	total := 0.0
	for i, y := range m.years {
		w := 1.0
		if crisis[y] {
			w *= m.crisisWeight
		}
		if w < 0 {
			w = 0
		}
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return nil, fmt.Errorf("crisis weighting produced zero probability mass")
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights, nil
}

// choice draws an index in [0, n) with the given probabilities; nil means uniform.
func (m *BootstrapModel) choice(n int, probs []float64) int {
	if probs == nil {
		return m.rng.Intn(n)
	}
	u := m.rng.Float64()
	cum := 0.0
	for i := 0; i < n; i++ {
		cum += probs[i]
		if u < cum {
			return i
		}
	}
	return n - 1
}

// Generate implements Model.
func (m *BootstrapModel) Generate(n int) ([][]float64, error) {
	switch m.bootstrapType {
	case "iid":
		return m.iidBootstrap(n), nil
	case "block":
		return m.blockBootstrap(n)
	case "circular":
		return m.circularBootstrap(n), nil
	case "stationary":
		return m.stationaryBootstrap(n), nil
	}
	return nil, fmt.Errorf("unknown bootstrap_type %q", m.bootstrapType)
}

func (m *BootstrapModel) iidBootstrap(n int) [][]float64 {
	t := len(m.data)
	out := make([][]float64, n)
	for i := range out {
		out[i] = cloneRow(m.data[m.choice(t, m.weights)])
	}
	return out
}

func (m *BootstrapModel) blockBootstrap(n int) ([][]float64, error) {
	t := len(m.data)
	maxStart := t - m.blockSize + 1
	if maxStart <= 0 {
		return nil, fmt.Errorf("block_size larger than available historical window")
	}

	var startProbs []float64
	if m.weights != nil {
		startProbs = make([]float64, maxStart)
		total := 0.0
		for i := 0; i < maxStart; i++ {
			startProbs[i] = m.weights[i]
			total += m.weights[i]
		}
		for i := range startProbs {
			startProbs[i] /= total
		}
	}

	out := make([][]float64, 0, n+m.blockSize)
	for len(out) < n {
		start := m.choice(maxStart, startProbs)
		for b := 0; b < m.blockSize; b++ {
			out = append(out, cloneRow(m.data[start+b]))
		}
	}
	return out[:n], nil
}

func (m *BootstrapModel) circularBootstrap(n int) [][]float64 {
	t := len(m.data)
	out := make([][]float64, 0, n+m.blockSize)
	for len(out) < n {
		start := m.choice(t, m.weights)
		for b := 0; b < m.blockSize; b++ {
			out = append(out, cloneRow(m.data[(start+b)%t]))
		}
	}
	return out[:n]
}

// stationaryBootstrap implements the Politis-Romano scheme: with probability
// 1/blockSize jump to a fresh random start, else advance by one (wrapping).
func (m *BootstrapModel) stationaryBootstrap(n int) [][]float64 {
	t := len(m.data)
	p := 1.0 / float64(m.blockSize)

	out := make([][]float64, n)
	idx := m.choice(t, m.weights)
	for i := 0; i < n; i++ {
		out[i] = cloneRow(m.data[idx])
		if m.rng.Float64() < p {
			idx = m.choice(t, m.weights)
		} else {
			idx = (idx + 1) % t
		}
	}
	return out
}

func cloneRow(row []float64) []float64 {
	out := make([]float64, len(row))
	copy(out, row)
	return out
}
