package plan

import (
	"fmt"
	"sort"
)

// TimeLists is the Household Financial Profile: anticipated wages,
// contributions, planned conversions and big-ticket items per individual per
// plan year, all in nominal dollars.
type TimeLists struct {
	Wages          [][]float64
	OtherIncome    [][]float64
	CtrbTaxable    [][]float64
	Ctrb401k       [][]float64
	CtrbRoth401k   [][]float64
	CtrbIRA        [][]float64
	CtrbRothIRA    [][]float64
	PlannedRothX   [][]float64
	BigTicketItems [][]float64
}

// NewTimeLists returns an all-zero profile for nI individuals over nN years.
func NewTimeLists(nI, nN int) *TimeLists {
	mk := func() [][]float64 { return zeros2(nI, nN) }
	return &TimeLists{
		Wages:          mk(),
		OtherIncome:    mk(),
		CtrbTaxable:    mk(),
		Ctrb401k:       mk(),
		CtrbRoth401k:   mk(),
		CtrbIRA:        mk(),
		CtrbRothIRA:    mk(),
		PlannedRothX:   mk(),
		BigTicketItems: mk(),
	}
}

// Validate checks shapes and sign rules: all series must cover nI x nN, and
// only big-ticket items may be negative.
func (tl *TimeLists) Validate(nI, nN int) error {
	check := func(name string, series [][]float64, allowNegative bool) error {
		if len(series) != nI {
			return fmt.Errorf("%s: expected %d individuals, got %d", name, nI, len(series))
		}
		var missing []int
		for i, row := range series {
			if len(row) < nN {
				missing = append(missing, i)
				continue
			}
			if !allowNegative {
				for n, v := range row[:nN] {
					if v < 0 {
						return fmt.Errorf("%s: negative value %.2f for individual %d year %d", name, v, i, n)
					}
				}
			}
		}
		if len(missing) > 0 {
			sort.Ints(missing)
			return fmt.Errorf("%s: rows %v do not cover all %d plan years", name, missing, nN)
		}
		return nil
	}

	for _, c := range []struct {
		name  string
		data  [][]float64
		negOK bool
	}{
		{"anticipated wages", tl.Wages, false},
		{"other inc.", tl.OtherIncome, false},
		{"taxable ctrb", tl.CtrbTaxable, false},
		{"401k ctrb", tl.Ctrb401k, false},
		{"Roth 401k ctrb", tl.CtrbRoth401k, false},
		{"IRA ctrb", tl.CtrbIRA, false},
		{"Roth IRA ctrb", tl.CtrbRothIRA, false},
		{"Roth conv", tl.PlannedRothX, false},
		{"big-ticket items", tl.BigTicketItems, true},
	} {
		if err := check(c.name, c.data, c.negOK); err != nil {
			return err
		}
	}
	return nil
}

// deferredContrib returns 401k + IRA contributions for (i, n).
func (tl *TimeLists) deferredContrib(i, n int) float64 {
	return tl.Ctrb401k[i][n] + tl.CtrbIRA[i][n]
}

// freeContrib returns Roth 401k + Roth IRA contributions for (i, n).
func (tl *TimeLists) freeContrib(i, n int) float64 {
	return tl.CtrbRoth401k[i][n] + tl.CtrbRothIRA[i][n]
}
