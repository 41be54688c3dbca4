package config

import (
	"fmt"

	"github.com/owlplanner/owlgo/internal/plan"
)

// ToPlan builds a Plan plus solve options from a validated config. Balance
// arrays are in thousands of dollars; the plan works in dollars.
func ToPlan(c *Config) (*plan.Plan, plan.Objective, plan.Options, error) {
	var opts plan.Options

	p, err := plan.NewPlan(c.BasicInfo.Names, c.BasicInfo.DateOfBirth,
		c.BasicInfo.LifeExpectancy, c.CaseName)
	if err != nil {
		return nil, "", opts, err
	}

	nI := len(c.BasicInfo.Names)
	taxable := scaleK(orZeros(c.SavingsAssets.TaxableSavingsBalances, nI))
	deferred := scaleK(orZeros(c.SavingsAssets.TaxDeferredSavingsBalances, nI))
	free := scaleK(orZeros(c.SavingsAssets.TaxFreeSavingsBalances, nI))
	if err := p.SetAccountBalances(taxable, deferred, free); err != nil {
		return nil, "", opts, err
	}
	if phi := c.SavingsAssets.BeneficiaryFractions; len(phi) > 0 {
		if err := p.SetBeneficiaryFractions(phi); err != nil {
			return nil, "", opts, err
		}
	}
	if eta := c.SavingsAssets.SpousalSurplusDepositFraction; eta != nil {
		if err := p.SetSpousalSurplusFraction(*eta); err != nil {
			return nil, "", opts, err
		}
	}

	if len(c.FixedIncome.PensionMonthlyAmounts) > 0 {
		if err := p.SetPension(c.FixedIncome.PensionMonthlyAmounts,
			c.FixedIncome.PensionAges, c.FixedIncome.PensionIndexed); err != nil {
			return nil, "", opts, err
		}
	}
	if len(c.FixedIncome.SocialSecurityPIAAmounts) > 0 {
		if err := p.SetSocialSecurity(c.FixedIncome.SocialSecurityPIAAmounts,
			c.FixedIncome.SocialSecurityAges); err != nil {
			return nil, "", opts, err
		}
	}

	op := c.OptimizationParameters
	profile := op.SpendingProfile
	if profile == "" {
		profile = "flat"
	}
	survivor := op.SurvivingSpouseSpendingPercent
	if survivor == 0 {
		survivor = 60
	}
	if err := p.SetSpendingProfile(profile, survivor); err != nil {
		return nil, "", opts, err
	}
	if profile == "smile" {
		dip, inc := op.SmileDip, op.SmileIncrease
		if dip == 0 {
			dip = 15
		}
		if inc == 0 {
			inc = 12
		}
		p.SetSmileParameters(dip, inc, op.SmileDelay)
	}

	aa := c.AssetAllocation
	if aa.InterpolationMethod != "" {
		if err := p.SetInterpolationMethod(aa.InterpolationMethod); err != nil {
			return nil, "", opts, err
		}
	}
	if aa.InterpolationCenter != 0 || aa.InterpolationWidth != 0 {
		p.SetInterpolationWindow(aa.InterpolationCenter, aa.InterpolationWidth)
	}
	if aa.Type != "" && len(aa.Generic) > 0 {
		if err := p.SetAllocationRatios(aa.Type, aa.Generic); err != nil {
			return nil, "", opts, err
		}
	}

	rs := c.RatesSelection
	if rs.HeirsRateOnTaxDeferred != nil {
		if err := p.SetHeirsTaxRate(*rs.HeirsRateOnTaxDeferred); err != nil {
			return nil, "", opts, err
		}
	}
	if rs.DividendRate != nil {
		if err := p.SetDividendRate(*rs.DividendRate); err != nil {
			return nil, "", opts, err
		}
	}
	if rs.OBBBAExpirationYear != 0 {
		p.SetExpirationYear(rs.OBBBAExpirationYear)
	}

	method := rs.Method
	if method == "" {
		method = "default"
	}
	rateCfg := map[string]any{}
	if rs.From != 0 {
		rateCfg["frm"] = rs.From
	}
	if rs.To != 0 {
		rateCfg["to"] = rs.To
	}
	if len(rs.Values) > 0 {
		rateCfg["values"] = rs.Values
	}
	if len(rs.StandardDeviations) > 0 {
		rateCfg["stdev"] = rs.StandardDeviations
	}
	if len(rs.Correlations) > 0 {
		rateCfg["corr"] = rs.Correlations
	}
	if rs.BootstrapType != "" {
		rateCfg["bootstrap_type"] = rs.BootstrapType
	}
	if rs.BlockSize != 0 {
		rateCfg["block_size"] = rs.BlockSize
	}
	if len(rs.CrisisYears) > 0 {
		rateCfg["crisis_years"] = rs.CrisisYears
	}
	if rs.CrisisWeight != nil {
		rateCfg["crisis_weight"] = *rs.CrisisWeight
	}

	var rateOpts []plan.RateOption
	if rs.ReproducibleRates && rs.RateSeed != nil {
		rateOpts = append(rateOpts, plan.WithSeed(*rs.RateSeed))
	}
	if rs.ReverseSequence {
		rateOpts = append(rateOpts, plan.WithReverse(true))
	}
	if rs.RollSequence != 0 {
		rateOpts = append(rateOpts, plan.WithRoll(rs.RollSequence))
	}
	if err := p.SetRates(method, rateCfg, rateOpts...); err != nil {
		return nil, "", opts, err
	}

	// Solver-option amounts share the $k units of the balance arrays.
	so := c.SolverOptions
	opts = plan.Options{
		Bequest:              so.Bequest * 1000.0,
		NetSpending:          so.NetSpending * 1000.0,
		MaxRothConversion:    so.MaxRothConversion * 1000.0,
		NoRothConversions:    so.NoRothConversions,
		StartRothConversions: so.StartRothConversions,
		WithSCLoop:           so.WithSCLoop,
		WithSSLP:             so.WithSSLP,
		XORConstraints:       so.XORConstraints,
		SpendingSlack:        so.SpendingSlack,
		SSTaxFraction:        so.WithSSTaxability,
	}
	if so.WithMedicare != "" {
		opts.WithMedicare = plan.MedicareMode(so.WithMedicare)
	}
	if len(so.PreviousMAGIs) == 2 {
		opts.PreviousMAGIs = [2]float64{so.PreviousMAGIs[0] * 1000.0, so.PreviousMAGIs[1] * 1000.0}
	}

	objective := plan.Objective(c.OptimizationParameters.Objective)
	if objective == "" {
		objective = plan.MaxSpending
	}

	return p, objective, opts, nil
}

func orZeros(arr []float64, n int) []float64 {
	if len(arr) == n {
		return arr
	}
	return make([]float64, n)
}

func scaleK(arr []float64) []float64 {
	out := make([]float64, len(arr))
	for i, v := range arr {
		out[i] = v * 1000.0
	}
	return out
}

// MustObjective converts a string, failing on unknown values.
func MustObjective(s string) (plan.Objective, error) {
	switch s {
	case "maxSpending":
		return plan.MaxSpending, nil
	case "maxBequest":
		return plan.MaxBequest, nil
	}
	return "", fmt.Errorf("unknown objective %q", s)
}
