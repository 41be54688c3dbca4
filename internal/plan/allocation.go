package plan

import (
	"math"

	"github.com/owlplanner/owlgo/internal/rates"
)

// buildAllocations interpolates initial to final allocation targets along the
// plan horizon and stores the per-(individual, account, asset, year) weights.
// Modes share glide pairs at different granularities: one per individual, one
// per (individual, account), or one for the whole household.
func (p *Plan) buildAllocations() {
	p.alpha = make([][][][]float64, p.nI)
	for i := 0; i < p.nI; i++ {
		p.alpha[i] = make([][][]float64, NumAccounts)
		for j := 0; j < NumAccounts; j++ {
			pair := p.allocPair(i, j)
			p.alpha[i][j] = make([][]float64, rates.NumAssetClasses)
			for k := 0; k < rates.NumAssetClasses; k++ {
				p.alpha[i][j][k] = make([]float64, p.nN)
			}
			for n := 0; n < p.nN; n++ {
				t := p.glideFactor(n)
				sum := 0.0
				raw := make([]float64, rates.NumAssetClasses)
				for k := 0; k < rates.NumAssetClasses; k++ {
					raw[k] = pair[0][k] + t*(pair[1][k]-pair[0][k])
					sum += raw[k]
				}
				for k := 0; k < rates.NumAssetClasses; k++ {
					p.alpha[i][j][k][n] = raw[k] / sum
				}
			}
		}
	}
}

// allocPair resolves which initial/final pair governs (i, j) under the
// current allocation mode.
func (p *Plan) allocPair(i, j int) [][]float64 {
	switch p.allocType {
	case "individual":
		return p.allocInitial[i]
	case "account":
		return p.allocInitial[i*NumAccounts+j]
	default: // spouses
		return p.allocInitial[0]
	}
}

// glideFactor maps a year index to [0, 1] along the glide path.
func (p *Plan) glideFactor(n int) float64 {
	if p.nN <= 1 {
		return 0
	}
	if p.interpMethod == "s-curve" {
		w := p.interpWidth
		if w <= 0 {
			w = 1
		}
		return 1.0 / (1.0 + math.Exp(-(float64(n)-p.interpCenter)/w))
	}
	return float64(n) / float64(p.nN-1)
}

// accountReturn returns the allocation-weighted return for (i, j) in year n.
// No dividend-yield term is added; dividends on taxable stock holdings enter
// only the income rows of the constraints.
func (p *Plan) accountReturn(i, j, n int) float64 {
	r := 0.0
	for k := 0; k < rates.NumAssetClasses; k++ {
		r += p.alpha[i][j][k][n] * p.tau[k][n]
	}
	return r
}

// stockFraction returns the stocks weight of (i, j) in year n.
func (p *Plan) stockFraction(i, j, n int) float64 {
	return p.alpha[i][j][rates.Stocks][n]
}
