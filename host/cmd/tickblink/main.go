// Command tickblink runs the periodic time base on a Linux host, toggling a
// GPIO line once per interval.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"pwmsync/core"
	"pwmsync/host/gpio"
	"pwmsync/host/hostlog"
	"pwmsync/host/ticksrc"
)

const (
	flagChip     = "chip"
	flagLine     = "line"
	flagRate     = "rate"
	flagInterval = "interval"
	flagDuration = "duration"
	flagFake     = "fake"
	flagVerbose  = "verbose"
)

func main() {
	app := &cli.App{
		Name:  "tickblink",
		Usage: "toggle a GPIO line from a fixed-rate tick",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagChip,
				Value: gpio.DefaultChip,
				Usage: "GPIO chip",
			},
			&cli.IntFlag{
				Name:  flagLine,
				Value: 17,
				Usage: "line offset on the chip",
			},
			&cli.UintFlag{
				Name:  flagRate,
				Value: core.TickRateHz,
				Usage: "tick rate in Hz",
			},
			&cli.DurationFlag{
				Name:  flagInterval,
				Value: core.ToggleInterval,
				Usage: "time between toggles",
			},
			&cli.DurationFlag{
				Name:  flagDuration,
				Usage: "stop after this long (0 runs until interrupted)",
			},
			&cli.BoolFlag{
				Name:  flagFake,
				Usage: "toggle an in-memory line instead of hardware",
			},
			&cli.BoolFlag{
				Name:    flagVerbose,
				Aliases: []string{"v"},
				Usage:   "log core debug output",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) (err error) {
	logger, err := hostlog.New("tickblink", c.Bool(flagVerbose))
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	hostlog.RouteCoreDebug(logger)

	var out gpio.Toggler
	if c.Bool(flagFake) {
		out = gpio.NewFakeToggler()
	} else {
		line, err := gpio.NewLineToggler(c.String(flagChip), c.Int(flagLine))
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, line.Err()) }()
		out = line
	}
	defer func() { err = multierr.Append(err, out.Close()) }()

	src := ticksrc.New(nil)
	tb, err := core.ConfigureTimeBase(src, out, uint32(c.Uint(flagRate)), c.Duration(flagInterval))
	if err != nil {
		return err
	}
	defer src.Stop()
	logger.Info("time base running",
		zap.Uint32("threshold", tb.Threshold()),
		zap.Duration("interval", c.Duration(flagInterval)))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d := c.Duration(flagDuration); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	<-ctx.Done()
	logger.Info("stopped", zap.Uint32("toggles", tb.Toggles()), zap.Bool("level", out.Level()))
	return nil
}
