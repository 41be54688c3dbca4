package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxParamsRegimeBoundary(t *testing.T) {
	// Couple, nobody dies within the window, boundary at 2029.
	sigma, theta, delta := TaxParams([]int{1980, 1982}, 1, 99, 6, 2029, 2026)

	// 2026-2028 use TCJA 2025 values for MFJ.
	assert.Equal(t, 30000.0, sigma[0])
	assert.Equal(t, 0.12, theta[1][0])
	assert.Equal(t, 23850.0, delta[0][0])
	assert.Equal(t, 96950.0-23850.0, delta[1][2])

	// 2029 on uses pre-TCJA 2026 values.
	assert.Equal(t, 16600.0, sigma[3])
	assert.Equal(t, 0.15, theta[1][3])
	assert.Equal(t, 23700.0, delta[0][3])
	assert.Equal(t, 0.396, theta[6][5])
}

func TestTaxParamsSurvivorDropsToSingle(t *testing.T) {
	// Spouse 0 dies at year 2; boundary beyond the window keeps TCJA tables.
	sigma, theta, delta := TaxParams([]int{1980, 1982}, 0, 2, 4, 2099, 2026)

	assert.Equal(t, 30000.0, sigma[0])
	assert.Equal(t, 15000.0, sigma[2])
	assert.Equal(t, 11925.0, delta[0][2])
	assert.Equal(t, theta[3][1], theta[3][2]) // rates identical across statuses
}

func TestTaxParamsExtra65Deduction(t *testing.T) {
	// Single, born 1962: turns 65 in 2027 (year index 1).
	sigma, _, _ := TaxParams([]int{1962}, 0, 99, 3, 2099, 2026)
	assert.Equal(t, 15000.0, sigma[0])
	assert.Equal(t, 15000.0+2000.0, sigma[1])
	assert.Equal(t, 15000.0+2000.0, sigma[2])
}

func TestTaxableSocialSecurityStacking(t *testing.T) {
	// Below the lower threshold: nothing taxable.
	assert.Zero(t, TaxableSocialSecurity(20000, 10000, 0, 1))

	// Between thresholds: 50% of the excess.
	// PI = 0.5*20000 + 30000 = 40000; lo=32000, hi=44000 -> 0.5*8000.
	assert.InDelta(t, 4000.0, TaxableSocialSecurity(20000, 30000, 0, 1), 1e-9)

	// Above the upper threshold: 50% band plus 85% of the excess.
	// PI = 0.5*20000 + 60000 = 70000 -> 0.5*12000 + 0.85*26000 = 28100,
	// capped at 0.85*20000 = 17000.
	assert.InDelta(t, 17000.0, TaxableSocialSecurity(20000, 60000, 0, 1), 1e-9)

	// Tax-exempt interest counts toward provisional income.
	withExempt := TaxableSocialSecurity(20000, 25000, 5000, 1)
	without := TaxableSocialSecurity(20000, 25000, 0, 1)
	assert.Greater(t, withExempt, without)

	assert.Zero(t, TaxableSocialSecurity(0, 100000, 0, 0))
}

func TestTaxableSocialSecurityCapFraction(t *testing.T) {
	// High income: Psi = taxable/SS pins at 0.85.
	ss := 54000.0
	taxable := TaxableSocialSecurity(ss, 84000, 0, 1)
	assert.InDelta(t, 0.85, taxable/ss, 1e-9)
}

func TestCapitalGainsTaxTiers(t *testing.T) {
	// All gains inside the 0% tier.
	assert.Zero(t, CapitalGainsTax(10000, 20000, 30000, 1, 1.0))

	// Gains straddling the 0/15 boundary (MFJ top of 0% = 96700).
	tax := CapitalGainsTax(90000, 20000, 110000, 1, 1.0)
	assert.InDelta(t, 0.15*(110000-96700), tax, 1e-9)

	// Gains in the 20% tier.
	tax = CapitalGainsTax(700000, 50000, 750000, 1, 1.0)
	want := 0.20*50000 + niitRate*50000 // NIIT applies well above threshold
	assert.InDelta(t, want, tax, 1e-9)

	// Inflation indexing scales the tier tops.
	assert.Zero(t, CapitalGainsTax(90000, 20000, 110000, 1, 2.0))
}

func TestCapitalGainsNIIT(t *testing.T) {
	// MFJ threshold 250k: MAGI 260k with 30k gains -> NIIT on 10k.
	tax := CapitalGainsTax(200000, 30000, 260000, 1, 1.0)
	want := 0.15*30000 + niitRate*10000
	assert.InDelta(t, want, tax, 1e-9)
}

func TestMediCostsEligibilityAndLookback(t *testing.T) {
	thisyear := 2026
	gamma := constGamma(10)
	magi := make([]float64, 10)

	// Born 1958: age 68 at start, eligible the whole horizon.
	costs := MediCosts([]int{1958}, []int{10}, magi, [2]float64{0, 0}, gamma, 99, 10, thisyear)
	base := 185.00 * 12
	for n := 0; n < 10; n++ {
		assert.InDelta(t, base, costs[n], 1e-9, "year %d", n)
	}

	// Not yet 65: no cost until the 65th year.
	costs = MediCosts([]int{1963}, []int{10}, magi, [2]float64{0, 0}, gamma, 99, 10, thisyear)
	turn65 := 1963 + 65 - thisyear
	for n := 0; n < turn65; n++ {
		assert.Zero(t, costs[n])
	}
	assert.InDelta(t, base, costs[turn65], 1e-9)
}

func TestMediCostsIRMAATiers(t *testing.T) {
	thisyear := 2026
	gamma := constGamma(6)
	magi := []float64{120000, 140000, 0, 0, 0, 0} // affect years 2 and 3 via lookback

	costs := MediCosts([]int{1958}, []int{6}, magi, [2]float64{0, 0}, gamma, 99, 6, thisyear)
	base := 185.00 * 12
	assert.InDelta(t, base, costs[0], 1e-9)
	// 120000 exceeds the first single-filer threshold (106000) only.
	assert.InDelta(t, base+74.00*12, costs[2], 1e-9)
	// 140000 also exceeds the second (133000).
	assert.InDelta(t, base+(74.00+111.00)*12, costs[3], 1e-9)
}

func TestMediCostsPreviousMAGIs(t *testing.T) {
	thisyear := 2026
	gamma := constGamma(4)
	magi := make([]float64, 4)

	// Pre-plan MAGIs land in years 0 and 1 through the two-year lookback.
	costs := MediCosts([]int{1958}, []int{4}, magi, [2]float64{300000, 120000}, gamma, 99, 4, thisyear)
	base := 185.00 * 12
	// 300000 crosses single thresholds 106k, 133k, 167k, 200k.
	assert.InDelta(t, base+(74.00+111.00+110.90+111.00)*12, costs[0], 1e-9)
	// 120000 crosses only the first.
	assert.InDelta(t, base+74.00*12, costs[1], 1e-9)
	assert.InDelta(t, base, costs[2], 1e-9)
}

func TestMediCostsThresholdBoundary(t *testing.T) {
	thisyear := 2026
	gamma := constGamma(4)
	magi := make([]float64, 4)

	// MAGI exactly at a threshold selects the higher bracket.
	costs := MediCosts([]int{1958}, []int{4}, magi, [2]float64{106000, 0}, gamma, 99, 4, thisyear)
	base := 185.00 * 12
	assert.InDelta(t, base+74.00*12, costs[0], 1e-9)
}

func TestIRMAATablesCumulative(t *testing.T) {
	thisyear := 2026
	gamma := constGamma(4)
	l, c := IRMAATables([]int{1958, 1956}, []int{4, 4}, gamma, 99, 4, thisyear)

	// Joint thresholds while both alive.
	assert.Equal(t, 212000.0, l[0][1])
	// Two eligible individuals: premiums doubled, cumulative across tiers.
	assert.InDelta(t, 2*185.00*12, c[0][0], 1e-9)
	assert.InDelta(t, 2*(185.00+74.00)*12, c[0][1], 1e-9)
}
