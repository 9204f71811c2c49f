package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/bcdannyboy/optpricer/models"
	"github.com/bcdannyboy/optpricer/positions"
	"github.com/bcdannyboy/optpricer/probability"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment override, e.g. OPTPRICER_SPOT.
const EnvPrefix = "OPTPRICER_"

// ContractConfig represents the priced contract
type ContractConfig struct {
	Spot     float64 `yaml:"spot"`
	Strike   float64 `yaml:"strike"`
	Days     int     `yaml:"days"`
	Rate     float64 `yaml:"rate"`
	Dividend float64 `yaml:"dividend"`
	Sigma    float64 `yaml:"sigma"`
	Side     string  `yaml:"side"`
}

// MonteCarloConfig represents simulation and tail-risk settings
type MonteCarloConfig struct {
	Iterations int     `yaml:"iterations"`
	Seed       uint64  `yaml:"seed"`
	Workers    int     `yaml:"workers"`    // <= 0 uses GOMAXPROCS
	Confidence float64 `yaml:"confidence"` // VaR/CVaR level
	Returns    string  `yaml:"returns"`    // abs or pct
}

// LatticeConfig represents binomial and trinomial settings
type LatticeConfig struct {
	Steps   int `yaml:"steps"`
	Workers int `yaml:"workers"`
}

// GridConfig represents the Black-Scholes price grid bounds
type GridConfig struct {
	MinSpot     float64 `yaml:"min_spot"`
	MaxSpot     float64 `yaml:"max_spot"`
	MinVol      float64 `yaml:"min_vol"`
	MaxVol      float64 `yaml:"max_vol"`
	Granularity int     `yaml:"granularity"`
}

// SweepConfig represents a convergence sweep
type SweepConfig struct {
	Model   string `yaml:"model"`
	Counts  []int  `yaml:"counts"`
	Workers int    `yaml:"workers"` // <= 0 uses the physical core count
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // error, warn, info, debug, verbose
	Format string `yaml:"format"` // json or console
}

// ReportConfig represents output formatting
type ReportConfig struct {
	Precision int32 `yaml:"precision"`
}

type Config struct {
	Contract   ContractConfig   `yaml:"contract"`
	MonteCarlo MonteCarloConfig `yaml:"monte_carlo"`
	Lattice    LatticeConfig    `yaml:"lattice"`
	Grid       GridConfig       `yaml:"grid"`
	Sweep      SweepConfig      `yaml:"sweep"`
	Logging    LoggingConfig    `yaml:"logging"`
	Report     ReportConfig     `yaml:"report"`
}

// Default returns the dashboard defaults of the pricing models.
func Default() *Config {
	return &Config{
		Contract: ContractConfig{
			Spot:   100,
			Strike: 110,
			Days:   365,
			Rate:   0.05,
			Sigma:  0.25,
			Side:   "call",
		},
		MonteCarlo: MonteCarloConfig{
			Iterations: 100,
			Confidence: 0.95,
			Returns:    "pct",
		},
		Lattice: LatticeConfig{
			Steps:   100,
			Workers: 1,
		},
		Grid: GridConfig{
			MinSpot:     75,
			MaxSpot:     125,
			MinVol:      0.01,
			MaxVol:      1.00,
			Granularity: 10,
		},
		Sweep: SweepConfig{
			Model:  "binomial",
			Counts: []int{10, 50, 100, 250, 500},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Report: ReportConfig{
			Precision: 4,
		},
	}
}

// Load starts from Default, overlays the YAML file at path (if any), loads
// envFiles (".env" when none are given; a missing file is ignored) and
// finally applies OPTPRICER_* environment variables.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv() error {
	var err error
	err = multierr.Append(err, envFloat("SPOT", &cfg.Contract.Spot))
	err = multierr.Append(err, envFloat("STRIKE", &cfg.Contract.Strike))
	err = multierr.Append(err, envInt("DAYS", &cfg.Contract.Days))
	err = multierr.Append(err, envFloat("RATE", &cfg.Contract.Rate))
	err = multierr.Append(err, envFloat("DIVIDEND", &cfg.Contract.Dividend))
	err = multierr.Append(err, envFloat("SIGMA", &cfg.Contract.Sigma))
	envString("SIDE", &cfg.Contract.Side)

	err = multierr.Append(err, envInt("ITERATIONS", &cfg.MonteCarlo.Iterations))
	err = multierr.Append(err, envUint("SEED", &cfg.MonteCarlo.Seed))
	err = multierr.Append(err, envInt("MC_WORKERS", &cfg.MonteCarlo.Workers))
	err = multierr.Append(err, envFloat("CONFIDENCE", &cfg.MonteCarlo.Confidence))
	envString("RETURNS", &cfg.MonteCarlo.Returns)

	err = multierr.Append(err, envInt("STEPS", &cfg.Lattice.Steps))
	err = multierr.Append(err, envInt("LATTICE_WORKERS", &cfg.Lattice.Workers))

	envString("SWEEP_MODEL", &cfg.Sweep.Model)
	err = multierr.Append(err, envInts("SWEEP_COUNTS", &cfg.Sweep.Counts))

	envString("LOG_LEVEL", &cfg.Logging.Level)
	envString("LOG_FORMAT", &cfg.Logging.Format)
	return err
}

// ContractSpec builds the validated contract described by the configuration.
func (cfg *Config) ContractSpec() (models.Contract, error) {
	side, err := models.ParseSide(cfg.Contract.Side)
	if err != nil {
		return models.Contract{}, err
	}
	c := cfg.Contract
	return models.NewContract(c.Spot, c.Strike, c.Days, c.Rate, c.Dividend, c.Sigma, side)
}

func (cfg *Config) GridSpec() positions.GridSpec {
	g := cfg.Grid
	return positions.GridSpec{
		MinSpot:     g.MinSpot,
		MaxSpot:     g.MaxSpot,
		MinVol:      g.MinVol,
		MaxVol:      g.MaxVol,
		Granularity: g.Granularity,
	}
}

func (cfg *Config) MonteCarloSpec() models.MonteCarloConfig {
	return models.MonteCarloConfig{
		Iterations: cfg.MonteCarlo.Iterations,
		Seed:       cfg.MonteCarlo.Seed,
		Workers:    cfg.MonteCarlo.Workers,
	}
}

func (cfg *Config) LatticeSpec() models.LatticeConfig {
	return models.LatticeConfig{Steps: cfg.Lattice.Steps, Workers: cfg.Lattice.Workers}
}

func (cfg *Config) ReturnMode() (probability.ReturnMode, error) {
	return probability.ParseReturnMode(cfg.MonteCarlo.Returns)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func envString(key string, dst *string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func envFloat(key string, dst *float64) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = f
	return nil
}

func envInt(key string, dst *int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = i
	return nil
}

func envUint(key string, dst *uint64) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	u, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = u
	return nil
}

func envInts(key string, dst *[]int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		i, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		out = append(out, i)
	}
	*dst = out
	return nil
}
