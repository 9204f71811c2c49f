package positions

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/optpricer/models"
	"gonum.org/v1/gonum/stat/distuv"
)

// minVolTime is the smallest sigma*sqrt(T) for which d1/d2 are evaluated.
const minVolTime = 1e-12

// BlackScholes is the closed-form Black-Scholes-Merton engine with a
// continuous dividend yield.
type BlackScholes struct {
	contract   models.Contract
	d1         float64
	d2         float64
	degenerate bool
	call       float64
	put        float64
}

// NewBlackScholes prices the contract on both sides. The contract side must be
// set since Price and Greeks depend on it.
func NewBlackScholes(c models.Contract) (*BlackScholes, error) {
	if !c.Side().Valid() {
		return nil, fmt.Errorf("%w: black-scholes requires call or put, got %v", models.ErrInvalidSide, c.Side())
	}

	b := &BlackScholes{contract: c}
	in := bsmInputs{
		S:     c.Spot(),
		K:     c.Strike(),
		T:     c.Years(),
		r:     c.Rate(),
		q:     c.Dividend(),
		sigma: c.Sigma(),
	}

	b.d1, b.d2, b.degenerate = in.d()
	b.call = in.price(models.Call)
	b.put = in.price(models.Put)

	if !finite(b.call) || !finite(b.put) {
		return nil, fmt.Errorf("%w: black-scholes produced call=%v put=%v for %s", models.ErrDegenerateModel, b.call, b.put, c)
	}

	return b, nil
}

func (b *BlackScholes) Name() string              { return "black-scholes" }
func (b *BlackScholes) CallPrice() float64        { return b.call }
func (b *BlackScholes) PutPrice() float64         { return b.put }
func (b *BlackScholes) Contract() models.Contract { return b.contract }

// Price returns the price on the contract's side.
func (b *BlackScholes) Price() float64 {
	return models.PriceFor(b, b.contract.Side())
}

// Payoff returns the intrinsic value of the contract at the current spot.
func (b *BlackScholes) Payoff() float64 {
	return models.Intrinsic(b.contract.Side(), b.contract.Spot(), b.contract.Strike())
}

// D1 returns d1, or NaN when sigma*sqrt(T) is zero.
func (b *BlackScholes) D1() float64 { return b.d1 }

// D2 returns d2, or NaN when sigma*sqrt(T) is zero.
func (b *BlackScholes) D2() float64 { return b.d2 }

// bsmInputs is one evaluation point of the closed form.
type bsmInputs struct {
	S, K, T, r, q, sigma float64
}

func (in bsmInputs) volTime() float64 {
	return in.sigma * math.Sqrt(in.T)
}

// d returns d1 and d2, or NaN and degenerate=true when sigma*sqrt(T) is zero.
func (in bsmInputs) d() (d1, d2 float64, degenerate bool) {
	vt := in.volTime()
	if !(vt > minVolTime) {
		return math.NaN(), math.NaN(), true
	}
	d1 = (math.Log(in.S/in.K) + (in.r-in.q+0.5*in.sigma*in.sigma)*in.T) / vt
	d2 = d1 - vt
	return d1, d2, false
}

// price evaluates the closed form. With no diffusion left the option is worth
// its discounted forward payoff, which is the intrinsic value at expiry.
func (in bsmInputs) price(side models.Side) float64 {
	fwdSpot := in.S * math.Exp(-in.q*in.T)
	pvStrike := in.K * math.Exp(-in.r*in.T)

	d1, d2, degenerate := in.d()
	if degenerate {
		return models.Intrinsic(side, fwdSpot, pvStrike)
	}

	if side == models.Put {
		return pvStrike*normCDF(-d2) - fwdSpot*normCDF(-d1)
	}
	return fwdSpot*normCDF(d1) - pvStrike*normCDF(d2)
}

func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

func normPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
