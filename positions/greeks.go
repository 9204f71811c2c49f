package positions

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/optpricer/models"
)

// Greeks calculates Delta, Gamma, Theta, Vega and Rho for the contract side.
// It fails with ErrDegenerateModel when sigma*sqrt(T) is zero.
// Apart from d1 the sensitivities ignore the dividend yield: there is no
// exp(-qT) factor on the spot terms even though the prices carry one.
func (b *BlackScholes) Greeks() (Greeks, error) {
	if b.degenerate {
		return Greeks{}, fmt.Errorf("%w: greeks undefined with sigma*sqrt(T)=0 (%s)", models.ErrDegenerateModel, b.contract)
	}

	c := b.contract
	S, K, T, r, sigma := c.Spot(), c.Strike(), c.Years(), c.Rate(), c.Sigma()
	sqrtT := math.Sqrt(T)
	pvStrike := K * math.Exp(-r*T)
	pdf := normPDF(b.d1)

	g := Greeks{
		Gamma: pdf / (S * sigma * sqrtT),
		Vega:  S * sqrtT * pdf,
	}

	decay := -(S * sigma * pdf) / (2 * sqrtT)
	if c.Side() == models.Put {
		g.Delta = normCDF(b.d1) - 1
		g.Theta = decay + r*pvStrike*normCDF(-b.d2)
		g.Rho = -T * pvStrike * normCDF(-b.d2)
	} else {
		g.Delta = normCDF(b.d1)
		g.Theta = decay - r*pvStrike*normCDF(b.d2)
		g.Rho = T * pvStrike * normCDF(b.d2)
	}

	for _, v := range []float64{g.Delta, g.Gamma, g.Theta, g.Vega, g.Rho} {
		if !finite(v) {
			return Greeks{}, fmt.Errorf("%w: non-finite greeks %+v (%s)", models.ErrDegenerateModel, g, c)
		}
	}

	return g, nil
}
