// Package config reads and writes case files. TOML is the native format;
// YAML is accepted for compatibility. Unknown top-level sections are carried
// through save/load untouched.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config mirrors the case-file layout.
type Config struct {
	CaseName    string `toml:"case_name" yaml:"case_name"`
	Description string `toml:"description,omitempty" yaml:"description,omitempty"`

	BasicInfo                 BasicInfo              `toml:"basic_info" yaml:"basic_info"`
	SavingsAssets             SavingsAssets          `toml:"savings_assets" yaml:"savings_assets"`
	HouseholdFinancialProfile HFPRef                 `toml:"household_financial_profile,omitempty" yaml:"household_financial_profile,omitempty"`
	FixedIncome               FixedIncome            `toml:"fixed_income" yaml:"fixed_income"`
	RatesSelection            RatesSelection         `toml:"rates_selection" yaml:"rates_selection"`
	AssetAllocation           AssetAllocation        `toml:"asset_allocation" yaml:"asset_allocation"`
	OptimizationParameters    OptimizationParameters `toml:"optimization_parameters" yaml:"optimization_parameters"`
	SolverOptions             SolverOptions          `toml:"solver_options" yaml:"solver_options"`

	// Extra holds unknown top-level sections, preserved on round-trip.
	Extra map[string]any `toml:"-" yaml:"-"`
}

// BasicInfo identifies the individuals.
type BasicInfo struct {
	Status         string   `toml:"status" yaml:"status"` // single | married
	Names          []string `toml:"names" yaml:"names"`
	DateOfBirth    []string `toml:"date_of_birth" yaml:"date_of_birth"`
	LifeExpectancy []int    `toml:"life_expectancy" yaml:"life_expectancy"`
	StartDate      string   `toml:"start_date,omitempty" yaml:"start_date,omitempty"`
}

// SavingsAssets holds balances in thousands of dollars.
type SavingsAssets struct {
	TaxableSavingsBalances        []float64 `toml:"taxable_savings_balances" yaml:"taxable_savings_balances"`
	TaxDeferredSavingsBalances    []float64 `toml:"tax_deferred_savings_balances" yaml:"tax_deferred_savings_balances"`
	TaxFreeSavingsBalances        []float64 `toml:"tax_free_savings_balances" yaml:"tax_free_savings_balances"`
	BeneficiaryFractions          []float64 `toml:"beneficiary_fractions,omitempty" yaml:"beneficiary_fractions,omitempty"`
	SpousalSurplusDepositFraction *float64  `toml:"spousal_surplus_deposit_fraction,omitempty" yaml:"spousal_surplus_deposit_fraction,omitempty"`
}

// HFPRef points at the external Household Financial Profile file.
type HFPRef struct {
	HFPFileName string `toml:"HFP_file_name,omitempty" yaml:"HFP_file_name,omitempty"`
}

// FixedIncome holds pension and Social Security parameters.
type FixedIncome struct {
	PensionMonthlyAmounts    []float64 `toml:"pension_monthly_amounts" yaml:"pension_monthly_amounts"`
	PensionAges              []float64 `toml:"pension_ages" yaml:"pension_ages"`
	PensionIndexed           []bool    `toml:"pension_indexed,omitempty" yaml:"pension_indexed,omitempty"`
	SocialSecurityPIAAmounts []float64 `toml:"social_security_pia_amounts" yaml:"social_security_pia_amounts"`
	SocialSecurityAges       []float64 `toml:"social_security_ages" yaml:"social_security_ages"`
}

// RatesSelection configures the rate model and tax-side rate knobs.
type RatesSelection struct {
	Method                   string      `toml:"method" yaml:"method"`
	From                     int         `toml:"from,omitempty" yaml:"from,omitempty"`
	To                       int         `toml:"to,omitempty" yaml:"to,omitempty"`
	Values                   []float64   `toml:"values,omitempty" yaml:"values,omitempty"`
	StandardDeviations       []float64   `toml:"standard_deviations,omitempty" yaml:"standard_deviations,omitempty"`
	Correlations             [][]float64 `toml:"correlations,omitempty" yaml:"correlations,omitempty"`
	RateSeed                 *uint64     `toml:"rate_seed,omitempty" yaml:"rate_seed,omitempty"`
	ReproducibleRates        bool        `toml:"reproducible_rates,omitempty" yaml:"reproducible_rates,omitempty"`
	ReverseSequence          bool        `toml:"reverse_sequence,omitempty" yaml:"reverse_sequence,omitempty"`
	RollSequence             int         `toml:"roll_sequence,omitempty" yaml:"roll_sequence,omitempty"`
	HeirsRateOnTaxDeferred   *float64    `toml:"heirs_rate_on_tax_deferred_estate,omitempty" yaml:"heirs_rate_on_tax_deferred_estate,omitempty"`
	DividendRate             *float64    `toml:"dividend_rate,omitempty" yaml:"dividend_rate,omitempty"`
	OBBBAExpirationYear      int         `toml:"obbba_expiration_year,omitempty" yaml:"obbba_expiration_year,omitempty"`
	BootstrapType            string      `toml:"bootstrap_type,omitempty" yaml:"bootstrap_type,omitempty"`
	BlockSize                int         `toml:"block_size,omitempty" yaml:"block_size,omitempty"`
	CrisisYears              []int       `toml:"crisis_years,omitempty" yaml:"crisis_years,omitempty"`
	CrisisWeight             *float64    `toml:"crisis_weight,omitempty" yaml:"crisis_weight,omitempty"`
}

// AssetAllocation configures the glide path.
type AssetAllocation struct {
	InterpolationMethod string        `toml:"interpolation_method,omitempty" yaml:"interpolation_method,omitempty"`
	InterpolationCenter float64       `toml:"interpolation_center,omitempty" yaml:"interpolation_center,omitempty"`
	InterpolationWidth  float64       `toml:"interpolation_width,omitempty" yaml:"interpolation_width,omitempty"`
	Type                string        `toml:"type" yaml:"type"`
	Generic             [][][]float64 `toml:"generic,omitempty" yaml:"generic,omitempty"`
}

// OptimizationParameters configures the spending profile and objective.
type OptimizationParameters struct {
	SpendingProfile               string  `toml:"spending_profile" yaml:"spending_profile"`
	SurvivingSpouseSpendingPercent float64 `toml:"surviving_spouse_spending_percent,omitempty" yaml:"surviving_spouse_spending_percent,omitempty"`
	SmileDip                      float64 `toml:"smile_dip,omitempty" yaml:"smile_dip,omitempty"`
	SmileIncrease                 float64 `toml:"smile_increase,omitempty" yaml:"smile_increase,omitempty"`
	SmileDelay                    int     `toml:"smile_delay,omitempty" yaml:"smile_delay,omitempty"`
	Objective                     string  `toml:"objective" yaml:"objective"`
}

// SolverOptions configures a solve.
type SolverOptions struct {
	MaxRothConversion    float64    `toml:"maxRothConversion,omitempty" yaml:"maxRothConversion,omitempty"`
	NoRothConversions    string     `toml:"noRothConversions,omitempty" yaml:"noRothConversions,omitempty"`
	WithMedicare         string     `toml:"withMedicare,omitempty" yaml:"withMedicare,omitempty"`
	WithSCLoop           bool       `toml:"withSCLoop,omitempty" yaml:"withSCLoop,omitempty"`
	WithSSLP             bool       `toml:"withSSLP,omitempty" yaml:"withSSLP,omitempty"`
	StartRothConversions int        `toml:"startRothConversions,omitempty" yaml:"startRothConversions,omitempty"`
	Bequest              float64    `toml:"bequest,omitempty" yaml:"bequest,omitempty"`
	NetSpending          float64    `toml:"netSpending,omitempty" yaml:"netSpending,omitempty"`
	PreviousMAGIs        []float64  `toml:"previousMAGIs,omitempty" yaml:"previousMAGIs,omitempty"`
	XORConstraints       bool       `toml:"xorConstraints,omitempty" yaml:"xorConstraints,omitempty"`
	SpendingSlack        float64    `toml:"spendingSlack,omitempty" yaml:"spendingSlack,omitempty"`
	WithSSTaxability     *float64   `toml:"withSSTaxability,omitempty" yaml:"withSSTaxability,omitempty"`
	Solver               string     `toml:"solver,omitempty" yaml:"solver,omitempty"`
}

var knownSections = map[string]bool{
	"case_name":                   true,
	"description":                 true,
	"basic_info":                  true,
	"savings_assets":              true,
	"household_financial_profile": true,
	"fixed_income":                true,
	"rates_selection":             true,
	"asset_allocation":            true,
	"optimization_parameters":     true,
	"solver_options":              true,
}

// Load reads a case file, dispatching on extension (.toml, .yaml, .yml).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case file: %w", err)
	}

	var cfg Config
	raw := map[string]any{}
	switch ext(path) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported case file extension %q", ext(path))
	}

	for k, v := range raw {
		if !knownSections[k] {
			if cfg.Extra == nil {
				cfg.Extra = map[string]any{}
			}
			cfg.Extra[k] = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a case file in the format implied by the extension, merging
// preserved unknown sections back in.
func Save(cfg *Config, path string) error {
	var body []byte
	var err error
	switch ext(path) {
	case ".toml":
		body, err = toml.Marshal(cfg)
		if err == nil && len(cfg.Extra) > 0 {
			merged := map[string]any{}
			if err = toml.Unmarshal(body, &merged); err == nil {
				for k, v := range cfg.Extra {
					merged[k] = v
				}
				body, err = toml.Marshal(merged)
			}
		}
	case ".yaml", ".yml":
		body, err = yaml.Marshal(cfg)
		if err == nil && len(cfg.Extra) > 0 {
			merged := map[string]any{}
			if err = yaml.Unmarshal(body, &merged); err == nil {
				for k, v := range cfg.Extra {
					merged[k] = v
				}
				body, err = yaml.Marshal(merged)
			}
		}
	default:
		return fmt.Errorf("unsupported case file extension %q", ext(path))
	}
	if err != nil {
		return fmt.Errorf("encode case file: %w", err)
	}
	return os.WriteFile(path, body, 0o644)
}

// Validate fails fast on malformed input before any plan is built.
func (c *Config) Validate() error {
	nI := len(c.BasicInfo.Names)
	switch c.BasicInfo.Status {
	case "single":
		if nI != 1 {
			return fmt.Errorf("status single requires exactly 1 name, got %d", nI)
		}
	case "married":
		if nI != 2 {
			return fmt.Errorf("status married requires exactly 2 names, got %d", nI)
		}
	case "":
		return fmt.Errorf("basic_info.status is required")
	default:
		return fmt.Errorf("unknown status %q", c.BasicInfo.Status)
	}

	if len(c.BasicInfo.DateOfBirth) != nI || len(c.BasicInfo.LifeExpectancy) != nI {
		return fmt.Errorf("date_of_birth and life_expectancy must each have %d entries", nI)
	}

	for _, arr := range [][]float64{
		c.SavingsAssets.TaxableSavingsBalances,
		c.SavingsAssets.TaxDeferredSavingsBalances,
		c.SavingsAssets.TaxFreeSavingsBalances,
	} {
		if len(arr) != 0 && len(arr) != nI {
			return fmt.Errorf("savings balance arrays must have %d entries", nI)
		}
		for _, v := range arr {
			if v < 0 {
				return fmt.Errorf("savings balances must be non-negative")
			}
		}
	}

	if p := c.SolverOptions.PreviousMAGIs; len(p) != 0 && len(p) != 2 {
		return fmt.Errorf("previousMAGIs must have exactly 2 entries")
	}

	if obj := c.OptimizationParameters.Objective; obj != "" &&
		obj != "maxSpending" && obj != "maxBequest" {
		return fmt.Errorf("unknown objective %q", obj)
	}
	return nil
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
