package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/bcdannyboy/optpricer/internal/config"
	"github.com/spf13/pflag"
)

const (
	modelBS        = "bs"
	modelMC        = "mc"
	modelBinomial  = "binomial"
	modelTrinomial = "trinomial"
	modelAll       = "all"
)

var allModels = []string{modelBS, modelMC, modelBinomial, modelTrinomial}

type options struct {
	configPath string
	envFile    string
	models     []string
	grid       bool
	sweep      bool
	trees      bool
	pretty     bool

	flags *pflag.FlagSet
	// values bound to flags; applied over the configuration only when set
	spot, strike, rate, dividend, sigma, confidence float64
	days, iterations, steps, workers                int
	seed                                            uint64
	side, returns, sweepModel, logLevel, logFormat  string
	counts                                          []int
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := pflag.NewFlagSet("optpricer", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	o.flags = fs

	var model string
	fs.StringVarP(&o.configPath, "config", "c", "", "YAML configuration file")
	fs.StringVar(&o.envFile, "env-file", ".env", "dotenv file loaded before OPTPRICER_* variables")
	fs.StringVarP(&model, "model", "m", modelAll, "bs, mc, binomial, trinomial or all (comma separated)")

	fs.Float64Var(&o.spot, "spot", 0, "spot price of the underlying")
	fs.Float64Var(&o.strike, "strike", 0, "strike price")
	fs.IntVar(&o.days, "days", 0, "calendar days to maturity")
	fs.Float64Var(&o.rate, "rate", 0, "continuously compounded risk-free rate")
	fs.Float64Var(&o.dividend, "dividend", 0, "continuous dividend yield")
	fs.Float64Var(&o.sigma, "sigma", 0, "annualised volatility")
	fs.StringVar(&o.side, "side", "", "call or put")

	fs.IntVar(&o.iterations, "iterations", 0, "Monte Carlo paths")
	fs.Uint64Var(&o.seed, "seed", 0, "Monte Carlo seed")
	fs.IntVar(&o.steps, "steps", 0, "lattice time steps")
	fs.Float64Var(&o.confidence, "confidence", 0, "VaR/CVaR confidence level")
	fs.StringVar(&o.returns, "returns", "", "return mode for VaR: abs or pct")

	fs.BoolVar(&o.grid, "grid", false, "add the Black-Scholes spot x volatility price grid")
	fs.BoolVar(&o.trees, "trees", false, "add the lattice asset and value trees")
	fs.BoolVar(&o.sweep, "sweep", false, "run a convergence sweep against Black-Scholes instead of pricing")
	fs.StringVar(&o.sweepModel, "sweep-model", "", "engine swept: mc, binomial or trinomial")
	fs.IntSliceVar(&o.counts, "counts", nil, "iteration or step counts for the sweep")
	fs.IntVar(&o.workers, "workers", 0, "sweep workers, 0 uses the physical core count")

	fs.StringVar(&o.logLevel, "log-level", "", "error, warn, info, debug or verbose")
	fs.StringVar(&o.logFormat, "log-format", "", "json or console")
	fs.BoolVar(&o.pretty, "pretty", false, "indent the JSON output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	models, err := parseModels(model)
	if err != nil {
		return nil, err
	}
	o.models = models
	return o, nil
}

func parseModels(s string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case modelAll:
			return allModels, nil
		case "black-scholes":
			name = modelBS
		case "monte-carlo":
			name = modelMC
		case modelBS, modelMC, modelBinomial, modelTrinomial:
		default:
			return nil, fmt.Errorf("unknown model %q", name)
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out, nil
}

// apply overlays the flags given on the command line onto cfg.
func (o *options) apply(cfg *config.Config) {
	set := o.flags.Changed
	overrides := []struct {
		name  string
		apply func()
	}{
		{"spot", func() { cfg.Contract.Spot = o.spot }},
		{"strike", func() { cfg.Contract.Strike = o.strike }},
		{"days", func() { cfg.Contract.Days = o.days }},
		{"rate", func() { cfg.Contract.Rate = o.rate }},
		{"dividend", func() { cfg.Contract.Dividend = o.dividend }},
		{"sigma", func() { cfg.Contract.Sigma = o.sigma }},
		{"side", func() { cfg.Contract.Side = o.side }},
		{"iterations", func() { cfg.MonteCarlo.Iterations = o.iterations }},
		{"seed", func() { cfg.MonteCarlo.Seed = o.seed }},
		{"confidence", func() { cfg.MonteCarlo.Confidence = o.confidence }},
		{"returns", func() { cfg.MonteCarlo.Returns = o.returns }},
		{"steps", func() { cfg.Lattice.Steps = o.steps }},
		{"sweep-model", func() { cfg.Sweep.Model = o.sweepModel }},
		{"counts", func() { cfg.Sweep.Counts = o.counts }},
		{"workers", func() { cfg.Sweep.Workers = o.workers }},
		{"log-level", func() { cfg.Logging.Level = o.logLevel }},
		{"log-format", func() { cfg.Logging.Format = o.logFormat }},
	}
	for _, ov := range overrides {
		if set(ov.name) {
			ov.apply()
		}
	}
}
