package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchPlan(t *testing.T) *Plan {
	t.Helper()
	p := singlePlan(t, 3)
	require.NoError(t, p.SetAccountBalances([]float64{80000}, []float64{60000}, []float64{20000}))
	return p
}

func TestRunHistoricalRange(t *testing.T) {
	p := batchPlan(t)
	require.NoError(t, p.SetRates("historical", map[string]any{"frm": 1969, "to": 1980}))

	dist, err := p.RunHistoricalRange(context.Background(), MaxSpending, Options{}, 1969, 1972)
	require.NoError(t, err)
	require.Len(t, dist.Cases, 4)
	assert.Equal(t, 4, dist.Succeeded+dist.Failed)

	// Results tagged by start year, in order.
	for i, bc := range dist.Cases {
		assert.Equal(t, 1969+i, bc.Tag)
	}
	assert.GreaterOrEqual(t, dist.Succeeded, 1)
}

func TestRunHistoricalRangeValidation(t *testing.T) {
	p := batchPlan(t)
	require.NoError(t, p.SetRates("default", nil))

	_, err := p.RunHistoricalRange(context.Background(), MaxSpending, Options{}, 1980, 1970)
	assert.Error(t, err)

	// Window sliding past the end of the dataset.
	_, err = p.RunHistoricalRange(context.Background(), MaxSpending, Options{}, 2023, 2024)
	assert.Error(t, err)
}

func TestRunMC(t *testing.T) {
	p := batchPlan(t)
	require.NoError(t, p.SetRates("stochastic", map[string]any{
		"values": []float64{7, 4, 3, 2},
		"stdev":  []float64{5, 3, 3, 1},
	}, WithSeed(42)))

	dist, err := p.RunMC(context.Background(), MaxSpending, Options{}, 3)
	require.NoError(t, err)
	require.Len(t, dist.Cases, 3)
	assert.GreaterOrEqual(t, dist.Succeeded, 1)

	// Independent draws: solved cases should not be identical.
	var bases []float64
	for _, bc := range dist.Cases {
		if bc.Status == StatusSolved {
			bases = append(bases, bc.Basis)
		}
	}
	if len(bases) >= 2 {
		different := false
		for i := 1; i < len(bases); i++ {
			if bases[i] != bases[0] {
				different = true
			}
		}
		assert.True(t, different, "Monte Carlo draws produced identical bases: %v", bases)
	}
}

func TestRunBatchCancellation(t *testing.T) {
	p := batchPlan(t)
	require.NoError(t, p.SetRates("historical", map[string]any{"frm": 1969, "to": 1980}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dist, err := p.RunHistoricalRange(ctx, MaxSpending, Options{}, 1969, 1975)
	require.NoError(t, err)
	assert.True(t, dist.Cancelled)
	// Partial (possibly empty) results are returned, never an error.
	assert.LessOrEqual(t, dist.Succeeded+dist.Failed, 7)
}

func TestCloneIndependence(t *testing.T) {
	p := batchPlan(t)
	require.NoError(t, p.SetRates("default", nil))

	c, err := p.clone("clone")
	require.NoError(t, err)
	require.NoError(t, c.Solve(context.Background(), MaxSpending, Options{}))
	assert.Equal(t, StatusSolved, c.CaseStatus)
	// The original remains untouched.
	assert.Equal(t, StatusUnsolved, p.CaseStatus)
	assert.Nil(t, p.Results)
}
