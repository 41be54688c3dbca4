package rates

import (
	"fmt"
	"math"
)

// Table is a minimal tabular rates input: a year column plus the four rate
// columns. Percent values are auto-detected and converted to decimal.
type Table struct {
	Years   []int
	Columns map[string][]float64
}

// Canonical rate column names and accepted aliases.
var columnAliases = map[string]string{
	"S&P 500":       "S&P 500",
	"Bonds Baa":     "Bonds Baa",
	"Corporate Baa": "Bonds Baa",
	"TNotes":        "TNotes",
	"T Bonds":       "TNotes",
	"Inflation":     "Inflation",
	"inflation":     "Inflation",
}

var requiredColumns = []string{"S&P 500", "Bonds Baa", "TNotes", "Inflation"}

var tabularMetadata = Metadata{
	Method:      "tabular",
	Description: "Time-indexed rates supplied as a table.",
	Required: map[string]ParamSpec{
		"table": {
			Type:        "rates.Table",
			Description: "Must contain year and S&P 500, Bonds Baa, TNotes, Inflation columns.",
		},
	},
	Deterministic: true,
}

// TabularModel returns the first N rows of a caller-supplied table.
type TabularModel struct {
	params map[string]any
	table  *Table
}

func newTabular(cfg map[string]any, log Logger) (*TabularModel, error) {
	params, err := validateParams(tabularMetadata, cfg)
	if err != nil {
		return nil, err
	}
	table, ok := params["table"].(*Table)
	if !ok {
		return nil, fmt.Errorf("tabular rate model requires a *rates.Table, got %T", params["table"])
	}
	if len(table.Years) == 0 {
		return nil, fmt.Errorf("tabular rate model: missing year column")
	}
	return &TabularModel{params: params, table: table}, nil
}

// Method implements Model.
func (m *TabularModel) Method() string { return "tabular" }

// Params implements Model.
func (m *TabularModel) Params() map[string]any { return m.params }

// Deterministic implements Model.
func (m *TabularModel) Deterministic() bool { return true }

// Constant implements Model.
func (m *TabularModel) Constant() bool { return false }

// Generate implements Model.
func (m *TabularModel) Generate(n int) ([][]float64, error) {
	cols := make([][]float64, len(requiredColumns))
	for k, canonical := range requiredColumns {
		var found []float64
		for alias, target := range columnAliases {
			if target != canonical {
				continue
			}
			if col, ok := m.table.Columns[alias]; ok {
				found = col
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("missing required rate column %q in table", canonical)
		}
		cols[k] = found
	}

	rows := len(m.table.Years)
	for k, col := range cols {
		if len(col) != rows {
			return nil, fmt.Errorf("column %q has %d rows, year column has %d",
				requiredColumns[k], len(col), rows)
		}
	}
	if rows < n {
		return nil, fmt.Errorf("table does not contain enough rows for requested years: have %d, need %d", rows, n)
	}

	// If values look like percentages, convert.
	sum, count := 0.0, 0
	for _, col := range cols {
		for _, v := range col[:n] {
			sum += math.Abs(v)
			count++
		}
	}
	scale := 1.0
	if count > 0 && sum/float64(count) > 1.0 {
		scale = 1.0 / 100.0
	}

	out := make([][]float64, n)
	for i := range out {
		row := make([]float64, NumAssetClasses)
		for k := range cols {
			row[k] = cols[k][i] * scale
		}
		out[i] = row
	}
	return out, nil
}
