package models

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// pathBlock is the number of paths drawn from one derived random stream.
// Fixing it keeps the ensemble independent of the worker count.
const pathBlock = 1024

// MonteCarloConfig holds the simulation parameters of a MonteCarlo engine.
type MonteCarloConfig struct {
	Iterations int         // Number of simulated paths, >= 1
	Seed       uint64      // Seed of the derived per-block streams
	Source     rand.Source // Optional; when set, paths are drawn sequentially from it
	Workers    int         // Block workers; <= 0 uses GOMAXPROCS
}

// MonteCarlo prices a contract from simulated geometric Brownian motion paths.
type MonteCarlo struct {
	contract   Contract
	iterations int
	days       int
	paths      *mat.Dense // (days+1) x iterations
	callPrice  float64
	putPrice   float64
	callStdErr float64
	putStdErr  float64
}

// NewMonteCarlo simulates cfg.Iterations paths over the contract's days to
// maturity, one step per day, and prices both sides from the terminal row.
// The dividend yield is ignored.
func NewMonteCarlo(c Contract, cfg MonteCarloConfig) (*MonteCarlo, error) {
	if cfg.Iterations < 1 {
		return nil, fmt.Errorf("%w: iterations must be >= 1, got %d", ErrInvalidParameter, cfg.Iterations)
	}

	m := &MonteCarlo{
		contract:   c,
		iterations: cfg.Iterations,
		days:       c.Days(),
		paths:      mat.NewDense(c.Days()+1, cfg.Iterations, nil),
	}

	if err := m.simulate(cfg); err != nil {
		return nil, err
	}
	m.price()

	return m, nil
}

func (m *MonteCarlo) simulate(cfg MonteCarloConfig) error {
	raw := m.paths.RawMatrix()
	for i := 0; i < m.iterations; i++ {
		raw.Data[i] = m.contract.Spot()
	}
	if m.days == 0 {
		return nil
	}

	dt := m.contract.Years() / float64(m.days)
	sigma := m.contract.Sigma()
	drift := (m.contract.Rate() - 0.5*sigma*sigma) * dt
	diffusion := sigma * math.Sqrt(dt)

	if cfg.Source != nil {
		m.fill(raw, 0, m.iterations, drift, diffusion, rand.New(cfg.Source))
		return nil
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var g errgroup.Group
	g.SetLimit(workers)

	blocks := (m.iterations + pathBlock - 1) / pathBlock
	for b := 0; b < blocks; b++ {
		b := b
		g.Go(func() error {
			start := b * pathBlock
			end := start + pathBlock
			if end > m.iterations {
				end = m.iterations
			}
			rng := rand.New(rand.NewSource(blockSeed(cfg.Seed, b)))
			m.fill(raw, start, end, drift, diffusion, rng)
			return nil
		})
	}

	return g.Wait()
}

// fill steps paths [start, end) day by day. Within a day every path takes
// one fresh draw, in path order.
func (m *MonteCarlo) fill(raw blas64.General, start, end int, drift, diffusion float64, rng *rand.Rand) {
	for t := 1; t <= m.days; t++ {
		prev := raw.Data[(t-1)*raw.Stride : (t-1)*raw.Stride+m.iterations]
		cur := raw.Data[t*raw.Stride : t*raw.Stride+m.iterations]
		for i := start; i < end; i++ {
			cur[i] = prev[i] * math.Exp(drift+diffusion*rng.NormFloat64())
		}
	}
}

// blockSeed derives an independent stream seed for a block (splitmix64).
func blockSeed(seed uint64, block int) uint64 {
	z := seed + uint64(block+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func (m *MonteCarlo) price() {
	discount := math.Exp(-m.contract.Rate() * m.contract.Years())
	strike := m.contract.Strike()

	terminal := m.Terminal()
	calls := make([]float64, len(terminal))
	puts := make([]float64, len(terminal))
	for i, s := range terminal {
		calls[i] = discount * math.Max(s-strike, 0)
		puts[i] = discount * math.Max(strike-s, 0)
	}

	var callStd, putStd float64
	m.callPrice, callStd = stat.MeanStdDev(calls, nil)
	m.putPrice, putStd = stat.MeanStdDev(puts, nil)

	n := float64(len(terminal))
	if n > 1 {
		m.callStdErr = callStd / math.Sqrt(n)
		m.putStdErr = putStd / math.Sqrt(n)
	}
}

func (m *MonteCarlo) Name() string       { return "monte-carlo" }
func (m *MonteCarlo) CallPrice() float64 { return m.callPrice }
func (m *MonteCarlo) PutPrice() float64  { return m.putPrice }
func (m *MonteCarlo) Contract() Contract { return m.contract }
func (m *MonteCarlo) Iterations() int    { return m.iterations }
func (m *MonteCarlo) Days() int          { return m.days }

// StandardError returns the sample standard error of the discounted payoff.
func (m *MonteCarlo) StandardError(side Side) float64 {
	if side == Put {
		return m.putStdErr
	}
	return m.callStdErr
}

// Paths exposes the ensemble, (days+1) rows by iterations columns, as a
// read-only view.
func (m *MonteCarlo) Paths() mat.Matrix {
	return readOnly{m.paths}
}

// Path returns a copy of path i, one price per day including day 0.
func (m *MonteCarlo) Path(i int) []float64 {
	return mat.Col(nil, i, m.paths)
}

// Terminal returns a copy of the maturity row.
func (m *MonteCarlo) Terminal() []float64 {
	return mat.Row(nil, m.days, m.paths)
}

// readOnly hides the concrete *mat.Dense so callers cannot mutate engine state.
type readOnly struct {
	m *mat.Dense
}

func (r readOnly) Dims() (int, int)    { return r.m.Dims() }
func (r readOnly) At(i, j int) float64 { return r.m.At(i, j) }
func (r readOnly) T() mat.Matrix       { return mat.Transpose{Matrix: r} }
