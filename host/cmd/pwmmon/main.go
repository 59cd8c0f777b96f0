// Command pwmmon follows the firmware debug UART and prints its log,
// decoding event ring dumps.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"pwmsync/core"
	"pwmsync/host/hostlog"
	"pwmsync/host/monitor"
	"pwmsync/host/serial"
)

const (
	flagDevice     = "device"
	flagBaud       = "baud"
	flagEventsOnly = "events-only"
	flagVerbose    = "verbose"
)

func main() {
	app := &cli.App{
		Name:  "pwmmon",
		Usage: "follow the signal generator's debug log",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagDevice,
				Value: "/dev/ttyACM0",
				Usage: "serial device path",
			},
			&cli.IntFlag{
				Name:  flagBaud,
				Value: serial.DefaultBaud,
				Usage: "baud rate",
			},
			&cli.BoolFlag{
				Name:  flagEventsOnly,
				Usage: "print decoded events only",
			},
			&cli.BoolFlag{
				Name:    flagVerbose,
				Aliases: []string{"v"},
				Usage:   "log every line received",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger, err := hostlog.New("pwmmon", c.Bool(flagVerbose))
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cfg := serial.DefaultConfig(c.String(flagDevice))
	cfg.Baud = c.Int(flagBaud)

	mon, err := monitor.Connect(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := mon.Close(); err != nil {
			logger.Warn("close", zap.Error(err))
		}
	}()
	logger.Info("connected", zap.String("device", cfg.Device), zap.Int("baud", cfg.Baud))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := c.App.Writer
	eventsOnly := c.Bool(flagEventsOnly)
	err = mon.Run(ctx, func(l monitor.Line) error {
		switch {
		case l.Event != nil:
			e := l.Event
			fmt.Fprintf(w, "%-12s %-5s %10d %10d\n", core.EventName(e.Type), timerName(e.Timer), e.Value1, e.Value2)
		case eventsOnly:
		case l.Tag == "":
			fmt.Fprintln(w, l.Text)
		default:
			fmt.Fprintf(w, "[%s] %s\n", l.Tag, l.Text)
		}
		return nil
	})
	if err == context.Canceled {
		return nil
	}
	return err
}

func timerName(t core.TimerID) string {
	if t == 0 {
		return "-"
	}
	return t.String()
}
