package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/owlplanner/owlgo/internal/plan"
	"github.com/shopspring/decimal"
)

// CSVSeries writes the per-year series of a solved plan, one row per year.
func CSVSeries(p *plan.Plan) ([]byte, error) {
	res := p.Results
	if res == nil {
		return nil, errNoResults
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)

	header := []string{"year", "net_spending", "gross_spending", "ordinary_taxes",
		"capgain_taxes", "medicare", "magi"}
	for i := 0; i < p.NumIndividuals(); i++ {
		tag := strconv.Itoa(i)
		header = append(header,
			"taxable_"+tag, "tax_deferred_"+tag, "tax_free_"+tag,
			"withdrawals_"+tag, "conversions_"+tag, "deposits_"+tag)
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for n := 0; n < p.Horizon(); n++ {
		row := []string{
			strconv.Itoa(n),
			fixed(res.NetSpending[n]),
			fixed(res.GrossSpending[n]),
			fixed(res.OrdinaryTaxes[n]),
			fixed(res.CapGainTaxes[n]),
			fixed(res.Medicare[n]),
			fixed(res.MAGI[n]),
		}
		for i := 0; i < p.NumIndividuals(); i++ {
			wTot := 0.0
			for j := 0; j < plan.NumAccounts; j++ {
				wTot += res.Withdrawals[i][j][n]
			}
			row = append(row,
				fixed(res.Balances[i][plan.Taxable][n]),
				fixed(res.Balances[i][plan.TaxDeferred][n]),
				fixed(res.Balances[i][plan.TaxFree][n]),
				fixed(wTot),
				fixed(res.Conversions[i][n]),
				fixed(res.Deposits[i][n]))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
