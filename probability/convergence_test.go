package probability

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/bcdannyboy/optpricer/models"
	"github.com/bcdannyboy/optpricer/positions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sweepContract(t *testing.T) models.Contract {
	t.Helper()
	c, err := models.NewContract(100, 110, 182, 0.05, 0, 0.25, models.Call)
	require.NoError(t, err)
	return c
}

func TestParseSweepModel(t *testing.T) {
	for in, want := range map[string]SweepModel{"mc": SweepMonteCarlo, "monte-carlo": SweepMonteCarlo, "binomial": SweepBinomial, "trinomial": SweepTrinomial} {
		got, err := ParseSweepModel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseSweepModel("bs")
	assert.True(t, errors.Is(err, models.ErrInvalidParameter))
}

func TestSweepLattices(t *testing.T) {
	c := sweepContract(t)
	ref, err := positions.NewBlackScholes(c)
	require.NoError(t, err)

	counts := []int{500, 10, 100, 50}
	for _, model := range []SweepModel{SweepBinomial, SweepTrinomial} {
		var done int32
		points, err := Sweep(context.Background(), c, model, counts, SweepOptions{
			Workers:  2,
			Progress: func() { atomic.AddInt32(&done, 1) },
		})
		require.NoError(t, err)
		require.Len(t, points, len(counts))
		assert.Equal(t, int32(len(counts)), atomic.LoadInt32(&done))

		for i, p := range points {
			assert.Equal(t, counts[i], p.Count, "points keep the order of counts")
			assert.Equal(t, ref.CallPrice(), p.RefCall)
			assert.Equal(t, ref.PutPrice(), p.RefPut)
			assert.InDelta(t, p.CallErr, abs(p.Call-p.RefCall), 1e-15)
			assert.Equal(t, 0.0, p.StdErr)
		}
		assert.Less(t, points[0].CallErr, 0.01, string(model))
		assert.Less(t, points[0].CallErr, points[1].CallErr, string(model))
	}
}

func TestSweepMonteCarlo(t *testing.T) {
	c := sweepContract(t)
	counts := []int{500, 20000}

	a, err := Sweep(context.Background(), c, SweepMonteCarlo, counts, SweepOptions{Seed: 4})
	require.NoError(t, err)
	b, err := Sweep(context.Background(), c, SweepMonteCarlo, counts, SweepOptions{Seed: 4, Workers: 1})
	require.NoError(t, err)

	for i := range counts {
		assert.Equal(t, a[i].Call, b[i].Call)
		assert.Greater(t, a[i].StdErr, 0.0)
	}
	assert.Less(t, a[1].StdErr, a[0].StdErr)
	assert.InDelta(t, a[1].RefCall, a[1].Call, 4*a[1].StdErr)
}

func TestSweepModelAlias(t *testing.T) {
	c := sweepContract(t)

	alias, err := Sweep(context.Background(), c, "monte-carlo", []int{100}, SweepOptions{Seed: 1})
	require.NoError(t, err)
	canonical, err := Sweep(context.Background(), c, SweepMonteCarlo, []int{100}, SweepOptions{Seed: 1})
	require.NoError(t, err)

	assert.Greater(t, alias[0].StdErr, 0.0)
	assert.Equal(t, canonical[0].Call, alias[0].Call)
	assert.Equal(t, canonical[0].StdErr, alias[0].StdErr)
}

func TestSweepReferenceIgnoresDividend(t *testing.T) {
	c, err := models.NewContract(100, 110, 182, 0.05, 0.03, 0.25, models.SideUnset)
	require.NoError(t, err)

	points, err := Sweep(context.Background(), c, SweepBinomial, []int{200}, SweepOptions{})
	require.NoError(t, err)
	assert.Less(t, points[0].CallErr, 0.02)
}

func TestSweepErrors(t *testing.T) {
	c := sweepContract(t)

	_, err := Sweep(context.Background(), c, "bs", []int{10}, SweepOptions{})
	assert.True(t, errors.Is(err, models.ErrInvalidParameter))

	_, err = Sweep(context.Background(), c, SweepBinomial, nil, SweepOptions{})
	assert.True(t, errors.Is(err, models.ErrInvalidParameter))

	_, err = Sweep(context.Background(), c, SweepTrinomial, []int{10, 0}, SweepOptions{})
	assert.True(t, errors.Is(err, models.ErrInvalidParameter))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Sweep(ctx, c, SweepBinomial, []int{10, 20}, SweepOptions{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
