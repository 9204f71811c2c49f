package models

import (
	"fmt"
	"math"
)

// Trinomial is the three-branch lattice engine. Row n+k of an n-step lattice
// holds the price level S*u^k.
type Trinomial struct {
	contract Contract
	steps    int
	dt       float64
	up       float64
	down     float64
	pu       float64
	pm       float64
	pd       float64
	assets   *Lattice
	calls    *Lattice
	puts     *Lattice
}

// NewTrinomial builds the asset-price lattice forward and fills the call and
// put value lattices by backward induction. The dividend yield is ignored.
func NewTrinomial(c Contract, cfg LatticeConfig) (*Trinomial, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	t := &Trinomial{
		contract: c,
		steps:    cfg.Steps,
		dt:       c.Years() / float64(cfg.Steps),
		up:       1,
		down:     1,
		pm:       1,
	}

	if t.dt > 0 {
		sigma, r := c.Sigma(), c.Rate()
		t.up = math.Exp(sigma * math.Sqrt(2*t.dt))
		t.down = 1 / t.up

		grow := math.Exp(r * t.dt / 2)
		hi := math.Exp(sigma * math.Sqrt(t.dt/2))
		lo := math.Exp(-sigma * math.Sqrt(t.dt/2))

		t.pu = math.Pow((grow-lo)/(hi-lo), 2)
		t.pd = math.Pow((hi-grow)/(hi-lo), 2)
		t.pm = 1 - t.pu - t.pd

		for _, p := range []float64{t.pu, t.pm, t.pd} {
			if !(p >= 0 && p <= 1) {
				return nil, fmt.Errorf("%w: trinomial probabilities pu=%v pm=%v pd=%v outside [0, 1] for dt=%v",
					ErrDegenerateModel, t.pu, t.pm, t.pd, t.dt)
			}
		}
	}

	t.generate()
	if err := t.induce(cfg.Workers); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Trinomial) generate() {
	const m = 1.0
	n := t.steps

	t.assets = newTrinomialLattice(n)
	t.assets.set(0, n, t.contract.Spot())

	for i := 1; i <= n; i++ {
		lo, hi := t.assets.Band(i)
		t.assets.set(i, lo, t.assets.get(i-1, lo+1)*t.down)
		t.assets.set(i, hi, t.assets.get(i-1, hi-1)*t.up)
		for r := lo + 1; r < hi; r++ {
			t.assets.set(i, r, t.assets.get(i-1, r)*m)
		}
	}
}

func (t *Trinomial) induce(workers int) error {
	n := t.steps
	t.calls = newTrinomialLattice(n)
	t.puts = newTrinomialLattice(n)

	strike := t.contract.Strike()
	lo, hi := t.assets.Band(n)
	for r := lo; r <= hi; r++ {
		s := t.assets.get(n, r)
		t.calls.set(n, r, Intrinsic(Call, s, strike))
		t.puts.set(n, r, Intrinsic(Put, s, strike))
	}

	// Every reached row at depth i has its three children inside the band of
	// depth i+1, so no boundary checks are needed.
	discount := math.Exp(-t.contract.Rate() * t.dt)
	for i := n - 1; i >= 0; i-- {
		i := i
		err := sweepLevel(t.calls, i, workers, func(r int) {
			t.calls.set(i, r, discount*t.expect(t.calls, i+1, r))
			t.puts.set(i, r, discount*t.expect(t.puts, i+1, r))
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *Trinomial) expect(v *Lattice, depth, r int) float64 {
	return t.pu*v.get(depth, r+1) + t.pm*v.get(depth, r) + t.pd*v.get(depth, r-1)
}

func (t *Trinomial) Name() string       { return "trinomial" }
func (t *Trinomial) CallPrice() float64 { return t.calls.get(0, t.steps) }
func (t *Trinomial) PutPrice() float64  { return t.puts.get(0, t.steps) }
func (t *Trinomial) Contract() Contract { return t.contract }
func (t *Trinomial) Steps() int         { return t.steps }

// Factors returns the up and down multipliers per step; the middle branch is 1.
func (t *Trinomial) Factors() (up, down float64) { return t.up, t.down }

// Probabilities returns the risk-neutral up, middle and down probabilities.
func (t *Trinomial) Probabilities() (pu, pm, pd float64) { return t.pu, t.pm, t.pd }

// Assets returns the asset-price lattice; the root sits on row Steps().
func (t *Trinomial) Assets() *Lattice { return t.assets }

func (t *Trinomial) CallValues() *Lattice { return t.calls }
func (t *Trinomial) PutValues() *Lattice  { return t.puts }
