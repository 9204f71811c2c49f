package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bcdannyboy/optpricer/internal/config"
	"github.com/bcdannyboy/optpricer/internal/report"
	"github.com/bcdannyboy/optpricer/models"
	"github.com/bcdannyboy/optpricer/positions"
	"github.com/bcdannyboy/optpricer/probability"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// result collects everything one engine contributes to the report.
type result struct {
	model  report.ModelDoc
	greeks []report.GreeksDoc
	grids  []report.GridDoc
	risk   *report.RiskDoc
	trees  []report.TreeDoc
	errs   []report.ErrorDoc
}

// price runs the selected engines concurrently. A degenerate model is
// reported in the document and does not stop the others; any other error
// fails the run.
func price(ctx context.Context, cfg *config.Config, opts *options, c models.Contract, log *zap.Logger, b *report.Builder, rep *report.Report) error {
	results := make([]*result, len(opts.models))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range opts.models {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			start := time.Now()
			res, err := priceModel(name, cfg, opts, c, b)
			elapsed := time.Since(start)

			if errors.Is(err, models.ErrDegenerateModel) {
				log.Warn("model skipped", zap.String("model", name), zap.Error(err))
				results[i] = &result{errs: []report.ErrorDoc{{Model: name, Error: err.Error()}}}
				return nil
			}
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			res.model.Elapsed = elapsed.String()
			log.Info("priced",
				zap.String("model", res.model.Name),
				zap.String("call", res.model.Call.String()),
				zap.String("put", res.model.Put.String()),
				zap.Duration("elapsed", elapsed),
			)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, res := range results {
		if res.model.Name != "" {
			rep.Models = append(rep.Models, res.model)
		}
		rep.Greeks = append(rep.Greeks, res.greeks...)
		rep.Grids = append(rep.Grids, res.grids...)
		if res.risk != nil {
			rep.Risk = res.risk
		}
		rep.Trees = append(rep.Trees, res.trees...)
		rep.Errors = append(rep.Errors, res.errs...)
	}
	return nil
}

func priceModel(name string, cfg *config.Config, opts *options, c models.Contract, b *report.Builder) (*result, error) {
	switch name {
	case modelBS:
		return priceBlackScholes(cfg, opts, c, b)
	case modelMC:
		return priceMonteCarlo(cfg, c, b)
	case modelBinomial:
		bin, err := models.NewBinomial(c, cfg.LatticeSpec())
		if err != nil {
			return nil, err
		}
		res := &result{model: b.Model(bin, 0)}
		if opts.trees {
			res.trees = latticeTrees(b, bin.Name(), bin.Assets(), bin.CallValues(), bin.PutValues())
		}
		return res, nil
	case modelTrinomial:
		tri, err := models.NewTrinomial(c, cfg.LatticeSpec())
		if err != nil {
			return nil, err
		}
		res := &result{model: b.Model(tri, 0)}
		if opts.trees {
			res.trees = latticeTrees(b, tri.Name(), tri.Assets(), tri.CallValues(), tri.PutValues())
		}
		return res, nil
	}
	return nil, fmt.Errorf("unknown model %q", name)
}

// priceBlackScholes prices the contract side and adds Greeks, and the grid
// when asked, for both the call and the put.
func priceBlackScholes(cfg *config.Config, opts *options, c models.Contract, b *report.Builder) (*result, error) {
	bs, err := positions.NewBlackScholes(c)
	if err != nil {
		return nil, err
	}
	res := &result{model: b.Model(bs, 0)}

	for _, side := range []models.Side{models.Call, models.Put} {
		sc, err := c.WithSide(side)
		if err != nil {
			return nil, err
		}
		sbs, err := positions.NewBlackScholes(sc)
		if err != nil {
			return nil, err
		}

		// A zero volatility-time still has a price but no Greeks.
		greeks, err := sbs.Greeks()
		switch {
		case errors.Is(err, models.ErrDegenerateModel):
			if side == models.Call {
				res.errs = append(res.errs, report.ErrorDoc{Model: bs.Name() + " greeks", Error: err.Error()})
			}
		case err != nil:
			return nil, err
		default:
			res.greeks = append(res.greeks, b.Greeks(side, greeks))
		}

		if opts.grid {
			grid, err := sbs.PriceGrid(cfg.GridSpec())
			if err != nil {
				return nil, err
			}
			res.grids = append(res.grids, b.Grid(grid))
		}
	}
	return res, nil
}

func priceMonteCarlo(cfg *config.Config, c models.Contract, b *report.Builder) (*result, error) {
	mc, err := models.NewMonteCarlo(c, cfg.MonteCarloSpec())
	if err != nil {
		return nil, err
	}

	mode, err := cfg.ReturnMode()
	if err != nil {
		return nil, err
	}
	risk, err := probability.Summarize(mc, cfg.MonteCarlo.Confidence, mode)
	if err != nil {
		return nil, err
	}

	return &result{model: b.Model(mc, 0), risk: b.Risk(risk)}, nil
}

func latticeTrees(b *report.Builder, model string, assets, calls, puts *models.Lattice) []report.TreeDoc {
	return []report.TreeDoc{
		b.Tree(model, "assets", assets),
		b.Tree(model, "calls", calls),
		b.Tree(model, "puts", puts),
	}
}
