package models

import (
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// minParallelWidth is the narrowest induction level split across workers.
const minParallelWidth = 256

// LatticeConfig holds the discretization parameters of the lattice engines.
type LatticeConfig struct {
	Steps   int // Number of time steps, >= 1
	Workers int // Level workers during backward induction; <= 1 runs serially
}

func (cfg LatticeConfig) validate() error {
	if cfg.Steps < 1 {
		return fmt.Errorf("%w: steps must be >= 1, got %d", ErrInvalidParameter, cfg.Steps)
	}
	return nil
}

// Lattice is a banded tree: each depth stores only its reached states, so an
// unreached state can never be read back as a zero price.
//
// State indices are absolute. For a binomial lattice depth i spans states
// [0, i]; for a trinomial lattice with n steps it spans rows [n-i, n+i].
type Lattice struct {
	levels    [][]float64
	first     []int
	height    int
	stateRows bool
}

func newBinomialLattice(steps int) *Lattice {
	l := &Lattice{
		levels: make([][]float64, steps+1),
		first:  make([]int, steps+1),
		height: steps + 1,
	}
	for i := range l.levels {
		l.levels[i] = make([]float64, i+1)
	}
	return l
}

func newTrinomialLattice(steps int) *Lattice {
	l := &Lattice{
		levels:    make([][]float64, steps+1),
		first:     make([]int, steps+1),
		height:    2*steps + 1,
		stateRows: true,
	}
	for i := range l.levels {
		l.levels[i] = make([]float64, 2*i+1)
		l.first[i] = steps - i
	}
	return l
}

// Depths returns the number of time levels, steps+1.
func (l *Lattice) Depths() int { return len(l.levels) }

// States returns the number of distinct state indices across all depths.
func (l *Lattice) States() int { return l.height }

// Band returns the inclusive range of reached state indices at depth.
func (l *Lattice) Band(depth int) (lo, hi int) {
	lo = l.first[depth]
	return lo, lo + len(l.levels[depth]) - 1
}

// Reached reports whether state is reachable at depth.
func (l *Lattice) Reached(depth, state int) bool {
	if depth < 0 || depth >= len(l.levels) {
		return false
	}
	lo, hi := l.Band(depth)
	return state >= lo && state <= hi
}

// At returns the value at (depth, state) and whether that state is reached.
func (l *Lattice) At(depth, state int) (float64, bool) {
	if !l.Reached(depth, state) {
		return 0, false
	}
	return l.levels[depth][state-l.first[depth]], true
}

// Level returns a copy of the reached values at depth, lowest state index first.
func (l *Lattice) Level(depth int) []float64 {
	out := make([]float64, len(l.levels[depth]))
	copy(out, l.levels[depth])
	return out
}

// Dense renders the lattice as a rectangular matrix with zeros outside the
// band. Binomial lattices are depth x state; trinomial lattices are
// state x depth. Use Reached to tell a real zero from an unreached cell.
func (l *Lattice) Dense() *mat.Dense {
	var d *mat.Dense
	if l.stateRows {
		d = mat.NewDense(l.height, len(l.levels), nil)
	} else {
		d = mat.NewDense(len(l.levels), l.height, nil)
	}
	for depth, level := range l.levels {
		for k, v := range level {
			state := l.first[depth] + k
			if l.stateRows {
				d.Set(state, depth, v)
			} else {
				d.Set(depth, state, v)
			}
		}
	}
	return d
}

func (l *Lattice) get(depth, state int) float64 {
	return l.levels[depth][state-l.first[depth]]
}

func (l *Lattice) set(depth, state int, v float64) {
	l.levels[depth][state-l.first[depth]] = v
}

// sweepLevel calls fn over the reached states of depth, split into chunks
// across workers when the level is wide enough. It returns once every chunk
// is done, which is the barrier between dependent levels.
func sweepLevel(l *Lattice, depth, workers int, fn func(state int)) error {
	lo, hi := l.Band(depth)
	width := hi - lo + 1
	if workers <= 1 || width < minParallelWidth {
		for s := lo; s <= hi; s++ {
			fn(s)
		}
		return nil
	}

	chunk := (width + workers - 1) / workers
	var g errgroup.Group
	for start := lo; start <= hi; start += chunk {
		start := start
		end := start + chunk - 1
		if end > hi {
			end = hi
		}
		g.Go(func() error {
			for s := start; s <= end; s++ {
				fn(s)
			}
			return nil
		})
	}
	return g.Wait()
}
