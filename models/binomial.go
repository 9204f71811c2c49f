package models

import (
	"fmt"
	"math"
)

// Binomial is the Cox-Ross-Rubinstein lattice engine.
type Binomial struct {
	contract Contract
	steps    int
	dt       float64
	up       float64
	down     float64
	prob     float64
	assets   *Lattice
	calls    *Lattice
	puts     *Lattice
}

// NewBinomial builds the asset-price lattice forward and fills the call and
// put value lattices by backward induction. The dividend yield is ignored.
func NewBinomial(c Contract, cfg LatticeConfig) (*Binomial, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	b := &Binomial{
		contract: c,
		steps:    cfg.Steps,
		dt:       c.Years() / float64(cfg.Steps),
		up:       1,
		down:     1,
		prob:     0.5,
	}

	// At expiry the tree is flat and every node is worth its intrinsic value.
	if b.dt > 0 {
		b.up = math.Exp(c.Sigma() * math.Sqrt(b.dt))
		b.down = 1 / b.up
		b.prob = (math.Exp(c.Rate()*b.dt) - b.down) / (b.up - b.down)
		if !(b.prob > 0 && b.prob < 1) {
			return nil, fmt.Errorf("%w: binomial up-probability %v outside (0, 1) for dt=%v", ErrDegenerateModel, b.prob, b.dt)
		}
	}

	b.generate()
	if err := b.induce(cfg.Workers); err != nil {
		return nil, err
	}

	return b, nil
}

func (b *Binomial) generate() {
	b.assets = newBinomialLattice(b.steps)
	b.assets.set(0, 0, b.contract.Spot())

	for i := 1; i <= b.steps; i++ {
		b.assets.set(i, 0, b.assets.get(i-1, 0)*b.up)
		for j := 1; j <= i; j++ {
			b.assets.set(i, j, b.assets.get(i-1, j-1)*b.down)
		}
	}
}

func (b *Binomial) induce(workers int) error {
	b.calls = newBinomialLattice(b.steps)
	b.puts = newBinomialLattice(b.steps)

	strike := b.contract.Strike()
	for j := 0; j <= b.steps; j++ {
		s := b.assets.get(b.steps, j)
		b.calls.set(b.steps, j, Intrinsic(Call, s, strike))
		b.puts.set(b.steps, j, Intrinsic(Put, s, strike))
	}

	discount := math.Exp(-b.contract.Rate() * b.dt)
	q := b.prob
	for i := b.steps - 1; i >= 0; i-- {
		i := i
		err := sweepLevel(b.calls, i, workers, func(j int) {
			b.calls.set(i, j, discount*(q*b.calls.get(i+1, j)+(1-q)*b.calls.get(i+1, j+1)))
			b.puts.set(i, j, discount*(q*b.puts.get(i+1, j)+(1-q)*b.puts.get(i+1, j+1)))
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Binomial) Name() string       { return "binomial" }
func (b *Binomial) CallPrice() float64 { return b.calls.get(0, 0) }
func (b *Binomial) PutPrice() float64  { return b.puts.get(0, 0) }
func (b *Binomial) Contract() Contract { return b.contract }
func (b *Binomial) Steps() int         { return b.steps }

// Factors returns the up and down multipliers per step.
func (b *Binomial) Factors() (up, down float64) { return b.up, b.down }

// Probability returns the risk-neutral up-probability.
func (b *Binomial) Probability() float64 { return b.prob }

// Assets returns the asset-price lattice; state 0 is the top of each depth.
func (b *Binomial) Assets() *Lattice { return b.assets }

func (b *Binomial) CallValues() *Lattice { return b.calls }
func (b *Binomial) PutValues() *Lattice  { return b.puts }
