package report

import (
	"math"
	"testing"
	"time"

	"github.com/bcdannyboy/optpricer/models"
	"github.com/bcdannyboy/optpricer/positions"
	"github.com/bcdannyboy/optpricer/probability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhhuango/json"
)

func testContract(t *testing.T) models.Contract {
	t.Helper()
	c, err := models.NewContract(100, 110, 180, 0.05, 0, 0.25, models.Call)
	require.NoError(t, err)
	return c
}

func TestRound(t *testing.T) {
	b := NewBuilder(2)
	assert.Equal(t, "3.14", b.Round(3.14159).String())
	assert.Equal(t, "-0.01", b.Round(-0.005).String())
	assert.Equal(t, "0", b.Round(math.NaN()).String())
	assert.Equal(t, "0", b.Round(math.Inf(1)).String())

	assert.Equal(t, "3", NewBuilder(-1).Round(3.2).String())
}

func TestModelDocs(t *testing.T) {
	c := testContract(t)
	b := NewBuilder(4)

	bs, err := positions.NewBlackScholes(c)
	require.NoError(t, err)
	doc := b.Model(bs, 0)
	assert.Equal(t, "black-scholes", doc.Name)
	assert.Equal(t, b.Round(bs.CallPrice()), doc.Call)
	assert.Empty(t, doc.Elapsed)
	assert.Nil(t, doc.CallStdErr)

	mc, err := models.NewMonteCarlo(c, models.MonteCarloConfig{Iterations: 500, Seed: 1})
	require.NoError(t, err)
	doc = b.Model(mc, time.Millisecond)
	assert.Equal(t, 500, doc.Iterations)
	require.NotNil(t, doc.CallStdErr)
	assert.True(t, doc.CallStdErr.IsPositive())
	assert.Equal(t, "1ms", doc.Elapsed)

	bin, err := models.NewBinomial(c, models.LatticeConfig{Steps: 50})
	require.NoError(t, err)
	doc = b.Model(bin, 0)
	assert.Equal(t, 50, doc.Steps)
	require.Len(t, doc.Probs, 2)
	total, _ := doc.Probs[0].Add(doc.Probs[1]).Float64()
	assert.InDelta(t, 1, total, 1e-4)

	tri, err := models.NewTrinomial(c, models.LatticeConfig{Steps: 50})
	require.NoError(t, err)
	doc = b.Model(tri, 0)
	assert.Len(t, doc.Probs, 3)
	require.NotNil(t, doc.Up)
	assert.True(t, doc.Up.GreaterThan(*doc.Down))
}

func TestGreeksDoc(t *testing.T) {
	c := testContract(t)
	b := NewBuilder(4)

	bs, err := positions.NewBlackScholes(c)
	require.NoError(t, err)
	g, err := bs.Greeks()
	require.NoError(t, err)

	doc := b.Greeks(models.Put, g)
	assert.Equal(t, "put", doc.Side)
	assert.Equal(t, b.Round(g.Delta), doc.Delta)
	assert.Equal(t, b.Round(g.Rho), doc.Rho)
}

func TestGridAndTree(t *testing.T) {
	c := testContract(t)
	b := NewBuilder(3)

	bs, err := positions.NewBlackScholes(c)
	require.NoError(t, err)
	grid, err := bs.PriceGrid(positions.GridSpec{MinSpot: 90, MaxSpot: 110, MinVol: 0.1, MaxVol: 0.3, Granularity: 3})
	require.NoError(t, err)

	gd := b.Grid(grid)
	assert.Equal(t, "call", gd.Side)
	require.Len(t, gd.Values, 3)
	assert.Len(t, gd.Values[0], 3)
	assert.Equal(t, "100", gd.Spots[1].String())
	assert.Equal(t, "0.2", gd.Vols[1].String())

	tri, err := models.NewTrinomial(c, models.LatticeConfig{Steps: 3})
	require.NoError(t, err)
	tree := b.Tree("trinomial", "assets", tri.Assets())
	require.Len(t, tree.Levels, 4)
	for depth, level := range tree.Levels {
		assert.Len(t, level, 2*depth+1)
	}
}

func TestReportJSON(t *testing.T) {
	c := testContract(t)
	b := NewBuilder(4)

	points := []probability.SweepPoint{{Count: 10, Call: 1.23456, RefCall: 1.2, CallErr: 0.03456, Elapsed: time.Second}}
	rep := Report{
		Contract: b.Contract(c),
		Risk: b.Risk(probability.RiskReport{
			CallITM: 0.25, PutITM: 0.75, Confidence: 0.95, Mode: probability.PercentReturns, VaR: -0.2, CVaR: -0.3,
		}),
		Sweep: b.Sweep(probability.SweepBinomial, points),
	}

	data, err := json.Marshal(rep)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.NotContains(t, out, "models")
	assert.NotContains(t, out, "grids")
	assert.NotContains(t, out, "greeks")

	contract := out["contract"].(map[string]interface{})
	assert.Equal(t, "110", contract["strike"])
	assert.Equal(t, "call", contract["side"])
	assert.Equal(t, float64(180), contract["days"])

	risk := out["risk"].(map[string]interface{})
	assert.Equal(t, "percent", risk["returns"])
	assert.Equal(t, "-0.2", risk["var"])

	sweep := out["sweep"].(map[string]interface{})
	assert.Equal(t, "binomial", sweep["model"])
	first := sweep["points"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "1.2346", first["call"])
	assert.Equal(t, "1s", first["elapsed"])
}
