package models

// PricingEngine is the capability shared by every valuation model. Model
// specific outputs (Greeks, grids, ensembles, trees) live on the concrete types.
type PricingEngine interface {
	Name() string
	CallPrice() float64
	PutPrice() float64
}

// PriceFor returns the engine's price for the requested side.
func PriceFor(e PricingEngine, side Side) float64 {
	if side == Put {
		return e.PutPrice()
	}
	return e.CallPrice()
}
