// Package output renders solved cases for the console and CSV export.
package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/owlplanner/owlgo/internal/plan"
	"github.com/shopspring/decimal"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00D4AA"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
)

// ConsoleReport renders a summary of a solved plan.
func ConsoleReport(p *plan.Plan) string {
	var sb strings.Builder
	rule := strings.Repeat("=", 72)

	sb.WriteString(rule + "\n")
	sb.WriteString(titleStyle.Render(fmt.Sprintf("CASE %s", p.Name)) + "\n")
	sb.WriteString(rule + "\n")

	status := string(p.CaseStatus)
	if p.CaseStatus == plan.StatusSolved {
		status = okStyle.Render(status)
	} else {
		status = warnStyle.Render(status)
	}
	sb.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Status:"), status))
	if p.ConvergenceType != "" {
		sb.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Convergence:"), p.ConvergenceType))
	}

	res := p.Results
	if res == nil {
		sb.WriteString(warnStyle.Render("No results available.") + "\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Net spending basis:"), money(res.Basis)))
	sb.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Lifetime net spending:"), money(res.TotalNetSpending)))
	sb.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Terminal bequest:"), money(res.Bequest)))
	if res.PartialBequest > 0 {
		sb.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Partial bequest:"), money(res.PartialBequest)))
	}

	sb.WriteString("\n" + labelStyle.Render("Year-by-year (nominal):") + "\n")
	sb.WriteString(fmt.Sprintf("%4s %14s %14s %14s %14s\n",
		"year", "net spending", "withdrawals", "conversions", "medicare"))
	for n := 0; n < p.Horizon(); n++ {
		wTot, xTot := 0.0, 0.0
		for i := 0; i < p.NumIndividuals(); i++ {
			for j := 0; j < plan.NumAccounts; j++ {
				wTot += res.Withdrawals[i][j][n]
			}
			xTot += res.Conversions[i][n]
		}
		sb.WriteString(fmt.Sprintf("%4d %14s %14s %14s %14s\n",
			n, money(res.NetSpending[n]), money(wTot), money(xTot), money(res.Medicare[n])))
	}

	return sb.String()
}

// DistributionReport renders the outcome of a batch run.
func DistributionReport(title string, dist *plan.Distribution) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(title) + "\n")
	sb.WriteString(fmt.Sprintf("%s %d succeeded, %d failed\n",
		labelStyle.Render("Cases:"), dist.Succeeded, dist.Failed))
	if dist.Cancelled {
		sb.WriteString(warnStyle.Render("Run cancelled; partial results shown.") + "\n")
	}
	sb.WriteString(fmt.Sprintf("%8s %12s %14s %14s %s\n", "tag", "status", "basis", "bequest", "convergence"))
	for _, bc := range dist.Cases {
		sb.WriteString(fmt.Sprintf("%8d %12s %14s %14s %s\n",
			bc.Tag, bc.Status, money(bc.Basis), money(bc.Bequest), bc.ConvergenceType))
	}
	return sb.String()
}

func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}
