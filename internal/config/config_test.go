package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/owlplanner/owlgo/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coupleTOML = `
case_name = "jack and jill"
description = "regression couple"

[basic_info]
status = "married"
names = ["Jack", "Jill"]
date_of_birth = ["1964-01-15", "1967-06-02"]
life_expectancy = [85, 88]
start_date = "01-01"

[savings_assets]
taxable_savings_balances = [90.0, 60.0]
tax_deferred_savings_balances = [600.0, 150.0]
tax_free_savings_balances = [70.0, 40.0]
beneficiary_fractions = [1.0, 1.0, 1.0]

[fixed_income]
pension_monthly_amounts = [0.0, 0.0]
pension_ages = [65.0, 65.0]
social_security_pia_amounts = [2333.0, 2083.0]
social_security_ages = [67.0, 70.0]

[rates_selection]
method = "historical"
from = 1969
to = 2002
dividend_rate = 1.8
obbba_expiration_year = 2032

[asset_allocation]
type = "individual"
interpolation_method = "s-curve"
generic = [
  [[60.0, 40.0, 0.0, 0.0], [70.0, 30.0, 0.0, 0.0]],
  [[50.0, 50.0, 0.0, 0.0], [70.0, 30.0, 0.0, 0.0]],
]

[optimization_parameters]
spending_profile = "flat"
surviving_spouse_spending_percent = 60.0
objective = "maxSpending"

[solver_options]
maxRothConversion = 100.0
bequest = 500.0

[my_notes]
reviewed = "yes"
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTOML(t *testing.T) {
	cfg, err := Load(writeTemp(t, "case.toml", coupleTOML))
	require.NoError(t, err)

	assert.Equal(t, "jack and jill", cfg.CaseName)
	assert.Equal(t, "married", cfg.BasicInfo.Status)
	assert.Equal(t, []string{"Jack", "Jill"}, cfg.BasicInfo.Names)
	assert.Equal(t, "historical", cfg.RatesSelection.Method)
	assert.Equal(t, 1969, cfg.RatesSelection.From)
	assert.Equal(t, 100.0, cfg.SolverOptions.MaxRothConversion)

	// Unknown sections are preserved.
	require.Contains(t, cfg.Extra, "my_notes")
}

func TestRoundTripPreservesKeysAndUnknownSections(t *testing.T) {
	cfg, err := Load(writeTemp(t, "case.toml", coupleTOML))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "saved.toml")
	require.NoError(t, Save(cfg, out))

	cfg2, err := Load(out)
	require.NoError(t, err)

	assert.Equal(t, cfg.CaseName, cfg2.CaseName)
	assert.Equal(t, cfg.BasicInfo, cfg2.BasicInfo)
	assert.Equal(t, cfg.SavingsAssets, cfg2.SavingsAssets)
	assert.Equal(t, cfg.FixedIncome, cfg2.FixedIncome)
	assert.Equal(t, cfg.RatesSelection, cfg2.RatesSelection)
	assert.Equal(t, cfg.AssetAllocation, cfg2.AssetAllocation)
	assert.Equal(t, cfg.OptimizationParameters, cfg2.OptimizationParameters)
	assert.Equal(t, cfg.SolverOptions, cfg2.SolverOptions)
	require.Contains(t, cfg2.Extra, "my_notes")
}

func TestLoadYAML(t *testing.T) {
	yamlCase := `
case_name: solo
basic_info:
  status: single
  names: [Joe]
  date_of_birth: ["1961-01-15"]
  life_expectancy: [80]
savings_assets:
  taxable_savings_balances: [100.0]
  tax_deferred_savings_balances: [200.0]
  tax_free_savings_balances: [50.0]
fixed_income:
  pension_monthly_amounts: [0.0]
  pension_ages: [65.0]
  social_security_pia_amounts: [0.0]
  social_security_ages: [67.0]
rates_selection:
  method: default
asset_allocation:
  type: account
optimization_parameters:
  spending_profile: flat
  objective: maxSpending
solver_options: {}
`
	cfg, err := Load(writeTemp(t, "case.yaml", yamlCase))
	require.NoError(t, err)
	assert.Equal(t, "solo", cfg.CaseName)
	assert.Equal(t, "single", cfg.BasicInfo.Status)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing status", func(c *Config) { c.BasicInfo.Status = "" }},
		{"unknown status", func(c *Config) { c.BasicInfo.Status = "divorced" }},
		{"married needs two", func(c *Config) { c.BasicInfo.Names = []string{"solo"} }},
		{"dob mismatch", func(c *Config) { c.BasicInfo.DateOfBirth = []string{"1964-01-15"} }},
		{"negative balances", func(c *Config) { c.SavingsAssets.TaxableSavingsBalances = []float64{-1, 2} }},
		{"bad objective", func(c *Config) { c.OptimizationParameters.Objective = "maxFun" }},
		{"previous MAGIs shape", func(c *Config) { c.SolverOptions.PreviousMAGIs = []float64{1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeTemp(t, "case.toml", coupleTOML))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestUnsupportedExtension(t *testing.T) {
	_, err := Load(writeTemp(t, "case.json", "{}"))
	assert.Error(t, err)
}

func TestToPlanBuildsCouple(t *testing.T) {
	cfg, err := Load(writeTemp(t, "case.toml", coupleTOML))
	require.NoError(t, err)

	p, objective, opts, err := ToPlan(cfg)
	require.NoError(t, err)
	assert.Equal(t, plan.MaxSpending, objective)
	assert.Equal(t, 2, p.NumIndividuals())
	assert.Equal(t, 100000.0, opts.MaxRothConversion)
	assert.Equal(t, 500000.0, opts.Bequest)
	assert.NotNil(t, p.Tau())
}

func TestToPlanReverseRollReproducible(t *testing.T) {
	withTransforms := coupleTOML + `
`
	cfg, err := Load(writeTemp(t, "case.toml", withTransforms))
	require.NoError(t, err)
	cfg.RatesSelection.From = 1970
	cfg.RatesSelection.To = 1980
	cfg.RatesSelection.ReverseSequence = true
	cfg.RatesSelection.RollSequence = 4

	p1, _, _, err := ToPlan(cfg)
	require.NoError(t, err)
	p2, _, _, err := ToPlan(cfg)
	require.NoError(t, err)

	// Save, reload, rebuild: tau matrices match exactly.
	out := filepath.Join(t.TempDir(), "case.toml")
	require.NoError(t, Save(cfg, out))
	cfg2, err := Load(out)
	require.NoError(t, err)
	assert.True(t, cfg2.RatesSelection.ReverseSequence)
	assert.Equal(t, 4, cfg2.RatesSelection.RollSequence)

	p3, _, _, err := ToPlan(cfg2)
	require.NoError(t, err)

	assert.Equal(t, p1.Tau(), p2.Tau())
	assert.Equal(t, p1.Tau(), p3.Tau())
}

func TestToPlanOptsScaling(t *testing.T) {
	cfg, err := Load(writeTemp(t, "case.toml", coupleTOML))
	require.NoError(t, err)
	cfg.SolverOptions.NetSpending = 80.0
	cfg.SolverOptions.PreviousMAGIs = []float64{100.0, 110.0}

	_, _, opts, err := ToPlan(cfg)
	require.NoError(t, err)
	assert.Equal(t, 80000.0, opts.NetSpending)
	assert.Equal(t, [2]float64{100000.0, 110000.0}, opts.PreviousMAGIs)
}

func TestToPlanWithSSLP(t *testing.T) {
	cfg, err := Load(writeTemp(t, "case.toml", coupleTOML))
	require.NoError(t, err)
	cfg.SolverOptions.WithSSLP = true

	_, _, opts, err := ToPlan(cfg)
	require.NoError(t, err)
	assert.True(t, opts.WithSSLP)

	// The key survives a round trip.
	out := filepath.Join(t.TempDir(), "case.toml")
	require.NoError(t, Save(cfg, out))
	cfg2, err := Load(out)
	require.NoError(t, err)
	assert.True(t, cfg2.SolverOptions.WithSSLP)
}
