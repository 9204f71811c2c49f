package positions

import (
	"github.com/bcdannyboy/optpricer/models"
	"gonum.org/v1/gonum/mat"
)

// Greeks holds the first-order sensitivities of a Black-Scholes price.
type Greeks struct {
	Delta float64 // dV/dS
	Gamma float64 // d2V/dS2
	Theta float64 // dV/dt, per year
	Vega  float64 // dV/dsigma, per unit of volatility
	Rho   float64 // dV/dr, per unit of rate
}

// GridSpec bounds a spot x volatility price grid.
type GridSpec struct {
	MinSpot     float64
	MaxSpot     float64
	MinVol      float64
	MaxVol      float64
	Granularity int
}

// PriceGrid holds prices over ascending spot and volatility samples.
// Values.At(i, j) is the price at (Spots[j], Vols[i]).
type PriceGrid struct {
	Side   models.Side
	Spots  []float64
	Vols   []float64
	Values *mat.Dense
}
