package output

import (
	"context"
	"strings"
	"testing"

	"github.com/owlplanner/owlgo/internal/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solvedPlan(t *testing.T) *plan.Plan {
	t.Helper()
	p, err := plan.NewPlan([]string{"Joe"}, []string{"1961-01-15"}, []int{67}, "report_case")
	require.NoError(t, err)
	require.NoError(t, p.SetAccountBalances([]float64{50000}, []float64{50000}, []float64{10000}))
	require.NoError(t, p.SetRates("conservative", nil))
	require.NoError(t, p.Solve(context.Background(), plan.MaxSpending, plan.Options{}))
	if p.CaseStatus != plan.StatusSolved {
		t.Skipf("reference solver did not solve the fixture: %s", p.CaseStatus)
	}
	return p
}

func TestConsoleReportContainsAggregates(t *testing.T) {
	p := solvedPlan(t)
	report := ConsoleReport(p)
	assert.Contains(t, report, "report_case")
	assert.Contains(t, report, "Net spending basis")
	assert.Contains(t, report, "Terminal bequest")
}

func TestConsoleReportUnsolved(t *testing.T) {
	p, err := plan.NewPlan([]string{"Joe"}, []string{"1961-01-15"}, []int{80}, "empty")
	require.NoError(t, err)
	report := ConsoleReport(p)
	assert.Contains(t, report, "unsolved")
	assert.Contains(t, report, "No results")
}

func TestCSVSeries(t *testing.T) {
	p := solvedPlan(t)
	data, err := CSVSeries(p)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// Header plus one row per plan year.
	assert.Len(t, lines, 1+p.Horizon())
	assert.Contains(t, lines[0], "net_spending")
	assert.Contains(t, lines[0], "taxable_0")
}

func TestCSVSeriesRequiresResults(t *testing.T) {
	p, err := plan.NewPlan([]string{"Joe"}, []string{"1961-01-15"}, []int{80}, "empty")
	require.NoError(t, err)
	_, err = CSVSeries(p)
	assert.Error(t, err)
}
