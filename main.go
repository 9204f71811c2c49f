package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/bcdannyboy/optpricer/internal/config"
	"github.com/bcdannyboy/optpricer/internal/logger"
	"github.com/bcdannyboy/optpricer/internal/report"
	"github.com/spf13/pflag"
	"github.com/xhhuango/json"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one CLI invocation and returns the process exit code. The
// report goes to stdout; logs and the sweep progress bar go to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "optpricer: %v\n", err)
		return 2
	}

	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		fmt.Fprintf(stderr, "optpricer: failed to load configuration: %v\n", err)
		return 1
	}
	opts.apply(cfg)

	log, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "optpricer: failed to build logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	rep, err := execute(ctx, cfg, opts, log, stderr)
	if err != nil {
		log.Error("optpricer failed", zap.Error(err))
		return 1
	}

	if err := writeReport(stdout, rep, opts.pretty); err != nil {
		log.Error("failed to write report", zap.Error(err))
		return 1
	}
	return 0
}

func execute(ctx context.Context, cfg *config.Config, opts *options, log *zap.Logger, progress io.Writer) (*report.Report, error) {
	c, err := cfg.ContractSpec()
	if err != nil {
		return nil, err
	}
	log.Debug("contract", zap.Stringer("contract", c))

	b := report.NewBuilder(cfg.Report.Precision)
	rep := &report.Report{Contract: b.Contract(c)}

	if opts.sweep {
		model, points, err := sweep(ctx, cfg, c, log, progress)
		if err != nil {
			return nil, err
		}
		rep.Sweep = b.Sweep(model, points)
		return rep, nil
	}

	if err := price(ctx, cfg, opts, c, log, b, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func writeReport(w io.Writer, rep *report.Report, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(rep, "", "  ")
	} else {
		data, err = json.Marshal(rep)
	}
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
