package main

import (
	"context"
	"io"
	"runtime"
	"time"

	"github.com/bcdannyboy/optpricer/internal/config"
	"github.com/bcdannyboy/optpricer/models"
	"github.com/bcdannyboy/optpricer/probability"
	"github.com/shirou/gopsutil/cpu"
	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"go.uber.org/zap"
)

func sweep(ctx context.Context, cfg *config.Config, c models.Contract, log *zap.Logger, progress io.Writer) (probability.SweepModel, []probability.SweepPoint, error) {
	model, err := probability.ParseSweepModel(cfg.Sweep.Model)
	if err != nil {
		return "", nil, err
	}

	workers := cfg.Sweep.Workers
	if workers <= 0 {
		workers = defaultWorkers(log)
	}
	log.Info("starting convergence sweep",
		zap.String("model", string(model)),
		zap.Ints("counts", cfg.Sweep.Counts),
		zap.Int("workers", workers),
	)

	p := mpb.New(mpb.WithOutput(progress), mpb.WithWidth(64))
	bar := p.AddBar(int64(len(cfg.Sweep.Counts)),
		mpb.PrependDecorators(
			decor.Name(string(model)),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
		),
	)

	start := time.Now()
	points, err := probability.Sweep(ctx, c, model, cfg.Sweep.Counts, probability.SweepOptions{
		Seed:     cfg.MonteCarlo.Seed,
		Workers:  workers,
		Progress: bar.Increment,
	})
	if err != nil {
		bar.Abort(false)
	}
	p.Wait()
	if err != nil {
		return "", nil, err
	}

	log.Info("sweep complete", zap.Int("points", len(points)), zap.Duration("elapsed", time.Since(start)))
	return model, points, nil
}

// defaultWorkers sizes the sweep pool to the physical core count.
func defaultWorkers(log *zap.Logger) int {
	n, err := cpu.Counts(false)
	if err != nil || n < 1 {
		log.Debug("physical core count unavailable, using NumCPU", zap.Error(err))
		return runtime.NumCPU()
	}
	return n
}
