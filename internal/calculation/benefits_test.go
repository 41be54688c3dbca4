package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFRA(t *testing.T) {
	assert.Equal(t, 66.0, FRA(1940))
	assert.Equal(t, 66.0, FRA(1954))
	for i, y := range []int{1954, 1955, 1956, 1957, 1958, 1959} {
		assert.InDelta(t, 2.0*float64(i)/12.0, FRA(y)-66.0, 1e-9, "yob %d", y)
	}
	assert.Equal(t, 67.0, FRA(1960))
	assert.Equal(t, 67.0, FRA(1969))
}

func TestSelfFactor(t *testing.T) {
	factors66 := []float64{0.75, 0.80, 0.866667, 0.9333333, 1.0, 1.08, 1.16, 1.24, 1.32}
	factors67 := []float64{0.70, 0.75, 0.80, 0.866667, 0.9333333, 1.0, 1.08, 1.16, 1.24}
	for i := 0; i < 9; i++ {
		age := float64(62 + i)
		assert.InDelta(t, factors66[i], SelfFactor(66, age, false), 1e-3, "fra 66 age %v", age)
		assert.InDelta(t, factors67[i], SelfFactor(67, age, false), 1e-3, "fra 67 age %v", age)
		if age > 62 {
			assert.InDelta(t, factors66[i], SelfFactor(66, age-1.0/12.0, true), 1e-3)
			assert.InDelta(t, factors67[i], SelfFactor(67, age-1.0/12.0, true), 1e-3)
		}
	}

	// SSA 1955-cohort examples.
	fra := 66.0 + 2.0/12.0
	assert.InDelta(t, 1.0, SelfFactor(fra, fra, false), 1e-3)
	assert.InDelta(t, 1.06667, SelfFactor(fra, 67, false), 1e-3)
	assert.InDelta(t, 1.14667, SelfFactor(fra, 68, false), 1e-3)
	assert.InDelta(t, 1.22667, SelfFactor(fra, 69, false), 1e-3)
	assert.InDelta(t, 1.22667, SelfFactor(66.0+3.0/12.0, 69.0+1.0/12.0, false), 1e-3)
	assert.InDelta(t, 1.30667, SelfFactor(fra, 70, false), 1e-3)
}

func TestSpousalFactor(t *testing.T) {
	factors66 := []float64{0.70, 0.75, 0.833333, 0.9166667, 1.0, 1.0, 1.0, 1.0, 1.0}
	factors67 := []float64{0.65, 0.70, 0.75, 0.833333, 0.9166667, 1.0, 1.0, 1.0, 1.0}
	for i := 0; i < 9; i++ {
		age := float64(62 + i)
		assert.InDelta(t, factors66[i], SpousalFactor(66, age, false), 1e-3)
		assert.InDelta(t, factors67[i], SpousalFactor(67, age, false), 1e-3)
	}

	fra := 66.0 + 2.0/12.0
	assert.InDelta(t, 1.0, SpousalFactor(fra, fra, false), 1e-3)
	assert.InDelta(t, 2*0.4931, SpousalFactor(fra, 66, false), 1e-3)
	assert.InDelta(t, 2*0.4514, SpousalFactor(fra, 65, false), 1e-3)
	assert.InDelta(t, 2*0.4097, SpousalFactor(fra, 64, false), 1e-3)
	assert.InDelta(t, 2*0.3708, SpousalFactor(fra, 63, false), 1e-3)
	assert.InDelta(t, 2*0.3458, SpousalFactor(fra, 62, false), 1e-3)
}

func TestSpousalBenefits(t *testing.T) {
	assert.Equal(t, []float64{0}, SpousalBenefits([]float64{2800}))
	assert.Equal(t, []float64{0, 0}, SpousalBenefits([]float64{2800, 1400}))
	assert.Equal(t, []float64{0, 400}, SpousalBenefits([]float64{2800, 1000}))
	assert.Equal(t, []float64{500, 0}, SpousalBenefits([]float64{1000, 3000}))
}

func TestPensionBenefitsProration(t *testing.T) {
	thisyear := 2026
	gamma := constGamma(21)

	// Born Jan 1966, pension of $1000/month starting at age 65.5.
	pi := PensionBenefits(
		[]float64{1000}, []float64{65.5},
		[]int{1966}, []int{1}, []int{20},
		[]bool{true}, gamma, 20, thisyear)

	// Age 65.5 reached in 2031 -> year index 5; first year prorated by half.
	for n := 0; n < 5; n++ {
		assert.Zero(t, pi[0][n], "year %d", n)
	}
	assert.InDelta(t, 6000.0, pi[0][5], 1e-9)
	assert.InDelta(t, 12000.0, pi[0][6], 1e-9)
	assert.InDelta(t, 12000.0, pi[0][19], 1e-9)
}

func TestPensionBenefitsNotIndexed(t *testing.T) {
	thisyear := 2026
	gamma := make([]float64, 11)
	gamma[0] = 1.0
	for n := 1; n <= 10; n++ {
		gamma[n] = gamma[n-1] * 1.03
	}

	pi := PensionBenefits(
		[]float64{1000}, []float64{60},
		[]int{1966}, []int{1}, []int{10},
		[]bool{false}, gamma, 10, thisyear)

	// Pre-discounted so that gamma multiplication keeps nominal constant.
	for n := 0; n < 10; n++ {
		assert.InDelta(t, 12000.0, pi[0][n]*gamma[n], 1e-6, "year %d", n)
	}
}

func TestPensionAlreadyStartedNoProration(t *testing.T) {
	thisyear := 2026
	gamma := constGamma(11)
	pi := PensionBenefits(
		[]float64{500}, []float64{60.5},
		[]int{1960}, []int{1}, []int{10},
		[]bool{true}, gamma, 10, thisyear)

	// Started before the plan; every year gets the full amount.
	assert.InDelta(t, 6000.0, pi[0][0], 1e-9)
	assert.InDelta(t, 6000.0, pi[0][5], 1e-9)
}

func TestSocialSecurityBenefitsSeries(t *testing.T) {
	thisyear := 2026
	// Born 1962 (FRA 67), claiming at 70: factor 1.24.
	zeta := SocialSecurityBenefits(
		[]float64{2000}, []float64{70},
		[]int{1962}, []int{1}, []int{25},
		25, thisyear)

	start := 1962 + 70 - thisyear // year index 6
	for n := 0; n < start; n++ {
		assert.Zero(t, zeta[0][n])
	}
	assert.InDelta(t, 12*2000*1.24, zeta[0][start], 1e-6)
}

func TestSocialSecuritySpousalTopUp(t *testing.T) {
	thisyear := 2026
	zeta := SocialSecurityBenefits(
		[]float64{2800, 1000}, []float64{67, 67},
		[]int{1960, 1960}, []int{1, 1}, []int{25, 25},
		25, thisyear)

	// Spouse 1 gets own PIA plus $400 spousal top-up at FRA.
	start := 1960 + 67 - thisyear
	assert.InDelta(t, 12*2800.0, zeta[0][start], 1e-6)
	assert.InDelta(t, 12*1400.0, zeta[1][start], 1e-6)
}

func TestRMDFractions(t *testing.T) {
	thisyear := 2026
	// Born 1951: turns 73 in 2024, already subject to RMD at plan start (age 75).
	rho := RMDFractions([]int{1951}, 10, thisyear, nil)
	assert.InDelta(t, 1.0/24.6, rho[0][0], 1e-9) // age 75
	assert.InDelta(t, 1.0/23.7, rho[0][1], 1e-9)

	// Born 1970: age 56 at start; no RMD within a 10-year window.
	rho = RMDFractions([]int{1970}, 10, thisyear, nil)
	for n := 0; n < 10; n++ {
		assert.Zero(t, rho[0][n])
	}

	// Born 1960: reaches 73 in 2033, but RMD age is 75 after 2032.
	rho = RMDFractions([]int{1960}, 12, thisyear, nil)
	age73 := 1960 + 73 - thisyear
	assert.Zero(t, rho[0][age73])
	age75 := 1960 + 75 - thisyear
	assert.InDelta(t, 1.0/24.6, rho[0][age75], 1e-9)
}

func TestSpendingProfileFlat(t *testing.T) {
	xi, err := SpendingProfile("flat", 0.6, 7, 10, 15, 12, 0)
	require.NoError(t, err)
	for n := 0; n < 7; n++ {
		assert.Equal(t, 1.0, xi[n])
	}
	for n := 7; n < 10; n++ {
		assert.Equal(t, 0.6, xi[n])
	}
}

func TestSpendingProfileSmilePreservesSum(t *testing.T) {
	nN, nD := 30, 22
	fraction := 0.6
	xi, err := SpendingProfile("smile", fraction, nD, nN, 15, 12, 0)
	require.NoError(t, err)

	sum := 0.0
	for _, v := range xi {
		sum += v
	}
	want := float64(nN) - (1.0-fraction)*float64(nN-nD)
	assert.InDelta(t, want, sum, 1e-9)
}

func TestSpendingProfileSmileDelay(t *testing.T) {
	xi, err := SpendingProfile("smile", 1.0, 30, 30, 15, 12, 5)
	require.NoError(t, err)
	// Head is held flat at the first smile value.
	for n := 0; n < 5; n++ {
		assert.Equal(t, xi[5], xi[n])
	}
}

func TestSpendingProfileUnknown(t *testing.T) {
	_, err := SpendingProfile("sawtooth", 1.0, 10, 10, 0, 0, 0)
	assert.Error(t, err)
}

func constGamma(n int) []float64 {
	g := make([]float64, n)
	for i := range g {
		g[i] = 1.0
	}
	return g
}
