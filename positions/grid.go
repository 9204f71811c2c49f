package positions

import (
	"fmt"

	"github.com/bcdannyboy/optpricer/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// PriceGrid recomputes the price on the contract side at every (spot, vol)
// pair of the grid, holding strike, rate, dividend yield and maturity fixed.
// A zero volatility sample is priced at its deterministic limit.
func (b *BlackScholes) PriceGrid(spec GridSpec) (*PriceGrid, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	c := b.contract
	grid := &PriceGrid{
		Side:   c.Side(),
		Spots:  linspace(spec.MinSpot, spec.MaxSpot, spec.Granularity),
		Vols:   linspace(spec.MinVol, spec.MaxVol, spec.Granularity),
		Values: mat.NewDense(spec.Granularity, spec.Granularity, nil),
	}

	for i, vol := range grid.Vols {
		for j, spot := range grid.Spots {
			in := bsmInputs{S: spot, K: c.Strike(), T: c.Years(), r: c.Rate(), q: c.Dividend(), sigma: vol}
			v := in.price(c.Side())
			if !finite(v) {
				return nil, fmt.Errorf("%w: grid price %v at spot=%v vol=%v", models.ErrDegenerateModel, v, spot, vol)
			}
			grid.Values.Set(i, j, v)
		}
	}

	return grid, nil
}

func (g GridSpec) validate() error {
	bounds := []float64{g.MinSpot, g.MaxSpot, g.MinVol, g.MaxVol}
	for _, v := range bounds {
		if !finite(v) {
			return fmt.Errorf("%w: grid bounds must be finite, got %+v", models.ErrInvalidParameter, g)
		}
	}

	switch {
	case g.Granularity < 1:
		return fmt.Errorf("%w: grid granularity must be >= 1, got %d", models.ErrInvalidParameter, g.Granularity)
	case g.MinSpot > g.MaxSpot:
		return fmt.Errorf("%w: min spot %v > max spot %v", models.ErrInvalidParameter, g.MinSpot, g.MaxSpot)
	case g.MinVol > g.MaxVol:
		return fmt.Errorf("%w: min vol %v > max vol %v", models.ErrInvalidParameter, g.MinVol, g.MaxVol)
	case g.MinSpot <= 0:
		return fmt.Errorf("%w: min spot must be > 0, got %v", models.ErrInvalidParameter, g.MinSpot)
	case g.MinVol < 0:
		return fmt.Errorf("%w: min vol must be >= 0, got %v", models.ErrInvalidParameter, g.MinVol)
	}
	return nil
}

// linspace returns n evenly spaced samples over [lo, hi]; n == 1 yields lo.
func linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}
