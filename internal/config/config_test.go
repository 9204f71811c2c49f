package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bcdannyboy/optpricer/models"
	"github.com/bcdannyboy/optpricer/probability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	c, err := cfg.ContractSpec()
	require.NoError(t, err)
	assert.Equal(t, 100.0, c.Spot())
	assert.Equal(t, 110.0, c.Strike())
	assert.Equal(t, 365, c.Days())
	assert.InDelta(t, 1.0, c.Years(), 1e-12)
	assert.Equal(t, models.Call, c.Side())

	assert.Equal(t, 10, cfg.GridSpec().Granularity)
	assert.Equal(t, 100, cfg.MonteCarloSpec().Iterations)
	assert.Equal(t, 100, cfg.LatticeSpec().Steps)

	mode, err := cfg.ReturnMode()
	require.NoError(t, err)
	assert.Equal(t, probability.PercentReturns, mode)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "optpricer.yaml", `
contract:
  spot: 95
  strike: 100
  days: 30
  side: put
monte_carlo:
  iterations: 5000
  seed: 42
lattice:
  steps: 250
sweep:
  model: trinomial
  counts: [10, 20]
logging:
  level: debug
`)

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 95.0, cfg.Contract.Spot)
	assert.Equal(t, 100.0, cfg.Contract.Strike)
	assert.Equal(t, 30, cfg.Contract.Days)
	assert.Equal(t, 0.25, cfg.Contract.Sigma, "unset keys keep their defaults")
	assert.Equal(t, 5000, cfg.MonteCarlo.Iterations)
	assert.Equal(t, uint64(42), cfg.MonteCarlo.Seed)
	assert.Equal(t, 250, cfg.Lattice.Steps)
	assert.Equal(t, "trinomial", cfg.Sweep.Model)
	assert.Equal(t, []int{10, 20}, cfg.Sweep.Counts)
	assert.Equal(t, "debug", cfg.Logging.Level)

	c, err := cfg.ContractSpec()
	require.NoError(t, err)
	assert.Equal(t, models.Put, c.Side())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	bad := writeFile(t, "bad.yaml", "contract: [1, 2")
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	envFile := writeFile(t, ".env", "OPTPRICER_STRIKE=120\nOPTPRICER_LOG_FORMAT=console\n")
	t.Setenv("OPTPRICER_SPOT", "105.5")
	t.Setenv("OPTPRICER_SEED", "7")
	t.Setenv("OPTPRICER_SWEEP_COUNTS", "100, 1000")
	t.Setenv("OPTPRICER_SIDE", "p")
	// godotenv.Load never overrides variables already present.
	t.Setenv("OPTPRICER_STRIKE", "")
	require.NoError(t, os.Unsetenv("OPTPRICER_STRIKE"))
	t.Setenv("OPTPRICER_LOG_FORMAT", "")
	require.NoError(t, os.Unsetenv("OPTPRICER_LOG_FORMAT"))

	cfg, err := Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, 105.5, cfg.Contract.Spot)
	assert.Equal(t, 120.0, cfg.Contract.Strike)
	assert.Equal(t, uint64(7), cfg.MonteCarlo.Seed)
	assert.Equal(t, []int{100, 1000}, cfg.Sweep.Counts)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "p", cfg.Contract.Side)
}

func TestLoadEnvParseErrors(t *testing.T) {
	t.Setenv("OPTPRICER_SPOT", "abc")
	t.Setenv("OPTPRICER_DAYS", "1.5")

	_, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPTPRICER_SPOT")
	assert.Contains(t, err.Error(), "OPTPRICER_DAYS")
}

func TestContractSpecInvalid(t *testing.T) {
	cfg := Default()
	cfg.Contract.Side = "straddle"
	_, err := cfg.ContractSpec()
	assert.True(t, errors.Is(err, models.ErrInvalidSide))

	cfg = Default()
	cfg.Contract.Spot = -1
	cfg.Contract.Sigma = 0
	_, err = cfg.ContractSpec()
	assert.True(t, errors.Is(err, models.ErrInvalidParameter))
}
