package rates

import (
	"fmt"
	"sort"
)

// Asset-class column indices of a generated series.
const (
	Stocks = iota
	BondsBaa
	TNotes
	Inflation
	NumAssetClasses
)

// Logger is the minimal logging surface rate models need. The plan's buffered
// logger satisfies it.
type Logger interface {
	Warnf(format string, args ...any)
	Infof(format string, args ...any)
}

// Model generates an (N, 4) series of annual rates in decimal.
//
// Deterministic models produce identical output on successive Generate calls
// with the same state. Constant models produce the same row for every year.
type Model interface {
	// Generate returns n rows of [stocks, bondsBaa, tnotes, inflation] rates.
	Generate(n int) ([][]float64, error)
	// Deterministic reports whether successive Generate calls yield identical output.
	Deterministic() bool
	// Constant reports whether every generated row is identical.
	Constant() bool
	// Method returns the method name this model was built from.
	Method() string
	// Params returns the normalized parameters, suitable for config round-trip.
	Params() map[string]any
}

// ParamSpec documents one model parameter for the metadata registry.
type ParamSpec struct {
	Type        string
	Description string
	Example     string
	Default     any
	Allowed     []string
}

// Metadata describes one rate model method.
type Metadata struct {
	Method        string
	Description   string
	Required      map[string]ParamSpec
	Optional      map[string]ParamSpec
	Deterministic bool
	Constant      bool
}

// validateParams checks cfg against the method's required/optional parameter
// specs: required keys must be present, optional keys get their defaults, and
// unknown keys are rejected. "method", "rate_seed" and "reproducible_rates"
// are always accepted.
func validateParams(meta Metadata, cfg map[string]any) (map[string]any, error) {
	normalized := map[string]any{}

	var reqKeys []string
	for k := range meta.Required {
		reqKeys = append(reqKeys, k)
	}
	sort.Strings(reqKeys)
	for _, k := range reqKeys {
		v, ok := cfg[k]
		if !ok || v == nil {
			return nil, fmt.Errorf("rate model %q requires parameter %q", meta.Method, k)
		}
		normalized[k] = v
	}

	for k, spec := range meta.Optional {
		if v, ok := cfg[k]; ok && v != nil {
			normalized[k] = v
		} else if spec.Default != nil {
			normalized[k] = spec.Default
		}
	}

	allowed := map[string]bool{"method": true, "rate_seed": true, "reproducible_rates": true}
	for k := range meta.Required {
		allowed[k] = true
	}
	for k := range meta.Optional {
		allowed[k] = true
	}
	for k := range cfg {
		if !allowed[k] {
			return nil, fmt.Errorf("unknown parameter %q for rate model %q", k, meta.Method)
		}
	}

	return normalized, nil
}

// asFloats coerces a parameter value into a float64 slice. Accepts []float64,
// []int and []any of numbers.
func asFloats(v any) ([]float64, error) {
	switch t := v.(type) {
	case []float64:
		return t, nil
	case []int:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out, nil
	case []any:
		out := make([]float64, len(t))
		for i, x := range t {
			f, err := asFloat(x)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list of numbers, got %T", v)
}

func asFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

func asInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}

// checkRange validates a [frm, to] historical window against the embedded
// dataset bounds.
func checkRange(frm, to int) error {
	if frm < From || frm > To {
		return fmt.Errorf("lower range frm=%d out of bounds [%d, %d]", frm, From, To)
	}
	if to < From || to > To {
		return fmt.Errorf("upper range to=%d out of bounds [%d, %d]", to, From, To)
	}
	if frm >= to {
		return fmt.Errorf("unacceptable range [%d, %d]", frm, to)
	}
	return nil
}

// repeatRow builds an (n, 4) series where every row equals rates.
func repeatRow(n int, rates []float64) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		row := make([]float64, NumAssetClasses)
		copy(row, rates)
		out[i] = row
	}
	return out
}
