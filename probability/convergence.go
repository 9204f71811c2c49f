package probability

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/bcdannyboy/optpricer/models"
	"github.com/bcdannyboy/optpricer/positions"
	"golang.org/x/sync/errgroup"
)

// SweepModel names the engine whose convergence is measured.
type SweepModel string

const (
	SweepMonteCarlo SweepModel = "mc"
	SweepBinomial   SweepModel = "binomial"
	SweepTrinomial  SweepModel = "trinomial"
)

// ParseSweepModel accepts the engine names used on the command line.
func ParseSweepModel(s string) (SweepModel, error) {
	switch SweepModel(s) {
	case SweepMonteCarlo, "monte-carlo":
		return SweepMonteCarlo, nil
	case SweepBinomial:
		return SweepBinomial, nil
	case SweepTrinomial:
		return SweepTrinomial, nil
	}
	return "", fmt.Errorf("%w: unknown sweep model %q", models.ErrInvalidParameter, s)
}

// SweepOptions tunes a convergence sweep.
type SweepOptions struct {
	Seed     uint64 // Monte Carlo seed, shared by every point
	Workers  int    // Points priced concurrently; <= 0 uses GOMAXPROCS
	Progress func() // Called once per finished point, may be nil
}

// SweepPoint is one engine run compared with the Black-Scholes reference.
type SweepPoint struct {
	Count   int // Iterations for Monte Carlo, steps for the lattices
	Call    float64
	Put     float64
	RefCall float64
	RefPut  float64
	CallErr float64
	PutErr  float64
	StdErr  float64 // Monte Carlo call standard error, 0 for lattices
	Elapsed time.Duration
}

// Sweep prices the contract with model at each count and reports the absolute
// distance to the Black-Scholes price. Points come back in the order of counts.
// The reference ignores the dividend yield, like the engines under test.
func Sweep(ctx context.Context, c models.Contract, model SweepModel, counts []int, opts SweepOptions) ([]SweepPoint, error) {
	model, err := ParseSweepModel(string(model))
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: no counts to sweep", models.ErrInvalidParameter)
	}

	ref, err := reference(c)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	points := make([]SweepPoint, len(counts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, n := range counts {
		i, n := i, n
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			engine, stdErr, err := run(c, model, n, opts.Seed)
			if err != nil {
				return fmt.Errorf("%s with %d: %w", model, n, err)
			}

			points[i] = SweepPoint{
				Count:   n,
				Call:    engine.CallPrice(),
				Put:     engine.PutPrice(),
				RefCall: ref.CallPrice(),
				RefPut:  ref.PutPrice(),
				CallErr: math.Abs(engine.CallPrice() - ref.CallPrice()),
				PutErr:  math.Abs(engine.PutPrice() - ref.PutPrice()),
				StdErr:  stdErr,
				Elapsed: time.Since(start),
			}

			if opts.Progress != nil {
				opts.Progress()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

func reference(c models.Contract) (*positions.BlackScholes, error) {
	side := c.Side()
	if !side.Valid() {
		side = models.Call
	}
	noDiv, err := models.NewContract(c.Spot(), c.Strike(), c.Days(), c.Rate(), 0, c.Sigma(), side)
	if err != nil {
		return nil, err
	}
	return positions.NewBlackScholes(noDiv)
}

// run prices one point. Engines run single-threaded since the sweep already
// spreads points across workers.
func run(c models.Contract, model SweepModel, n int, seed uint64) (models.PricingEngine, float64, error) {
	switch model {
	case SweepMonteCarlo:
		mc, err := models.NewMonteCarlo(c, models.MonteCarloConfig{Iterations: n, Seed: seed, Workers: 1})
		if err != nil {
			return nil, 0, err
		}
		return mc, mc.StandardError(models.Call), nil
	case SweepBinomial:
		b, err := models.NewBinomial(c, models.LatticeConfig{Steps: n})
		return b, 0, err
	case SweepTrinomial:
		t, err := models.NewTrinomial(c, models.LatticeConfig{Steps: n})
		return t, 0, err
	}
	return nil, 0, fmt.Errorf("%w: unknown sweep model %q", models.ErrInvalidParameter, model)
}
