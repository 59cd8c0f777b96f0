// Command pwmsim runs a signal generator profile against the simulated
// timer block and prints the measured duty and phase of every output.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"pwmsync/core"
	"pwmsync/generator"
	"pwmsync/generator/config"
	"pwmsync/host/hostlog"
	"pwmsync/sim"
)

const (
	flagConfig  = "config"
	flagMode    = "mode"
	flagDuty    = "duty"
	flagCycles  = "cycles"
	flagVerbose = "verbose"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "pwmsim",
		Usage: "run a PWM profile on the timer simulator",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  flagConfig,
				Usage: "JSON profile (overrides --mode)",
			},
			&cli.StringFlag{
				Name:  flagMode,
				Value: string(generator.ModeIndependent),
				Usage: "built-in profile: independent, synchronized, center-aligned or timebase",
			},
			&cli.StringFlag{
				Name:  flagDuty,
				Usage: "override the duty mode: static or ramp",
			},
			&cli.UintFlag{
				Name:  flagCycles,
				Value: 3,
				Usage: "PWM cycles to simulate (seconds in timebase mode)",
			},
			&cli.BoolFlag{
				Name:    flagVerbose,
				Aliases: []string{"v"},
				Usage:   "log core debug output",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	logger, err := hostlog.New("pwmsim", c.Bool(flagVerbose))
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	hostlog.RouteCoreDebug(logger)

	profile, err := loadProfile(c)
	if err != nil {
		return err
	}
	logger.Info("profile loaded",
		zap.String("mode", string(profile.Mode)),
		zap.String("duty", string(profile.Duty)),
		zap.Uint32("core_clock_hz", profile.CoreClockHz))

	board := newBoard()
	mgr := generator.NewManager(profile)

	if profile.Mode == generator.ModeTimeBase {
		return runTimeBase(c.App.Writer, mgr, board, c.Uint(flagCycles))
	}
	if err := mgr.Initialize(nil); err != nil {
		return err
	}
	return runPWM(c.App.Writer, mgr, board, c.Uint(flagCycles))
}

func loadProfile(c *cli.Context) (*generator.Profile, error) {
	var p *generator.Profile
	if path := c.String(flagConfig); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read profile: %w", err)
		}
		if p, err = config.LoadConfig(data); err != nil {
			return nil, fmt.Errorf("load profile %s: %w", path, err)
		}
	} else {
		switch generator.Mode(c.String(flagMode)) {
		case generator.ModeIndependent:
			p = config.DefaultIndependent()
		case generator.ModeSynchronized:
			p = config.DefaultSynchronized()
		case generator.ModeCenterAligned:
			p = config.DefaultCenterAligned()
		case generator.ModeTimeBase:
			p = config.DefaultTimeBase()
		default:
			return nil, fmt.Errorf("unknown mode %q", c.String(flagMode))
		}
	}
	if d := c.String(flagDuty); d != "" {
		p.Duty = generator.DutyMode(d)
	}
	if err := config.Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

type board struct {
	timers *sim.Timers
	pins   *sim.Pins
}

func newBoard() *board {
	b := &board{timers: sim.NewTimers(), pins: sim.NewPins()}
	core.ResetTimers()
	core.SetTimerDriver(b.timers)
	core.SetPinDriver(b.pins)
	core.SetClockDriver(&sim.Clock{})
	return b
}

func runPWM(w io.Writer, mgr *generator.Manager, b *board, cycles uint) error {
	var outs []sim.Output
	for _, pt := range mgr.Timers() {
		for _, ch := range pt.Config.Channels {
			outs = append(outs, sim.Output{Timer: pt.ID, Channel: ch.Channel})
		}
	}
	if len(outs) == 0 {
		return fmt.Errorf("profile has no outputs")
	}
	ticks := b.timers.CycleTicks(outs[0].Timer)
	loop := mgr.Loop()

	fmt.Fprintf(w, "%-6s %-5s %-4s %8s %8s\n", "cycle", "timer", "ch", "duty%", "rise")
	for n := uint(1); n <= cycles; n++ {
		ms := b.timers.Run(ticks, outs, func() { loop.Step() })
		for i, m := range ms {
			fmt.Fprintf(w, "%-6d %-5s OC%-2d %8.2f %8d\n", n, outs[i].Timer, outs[i].Channel, m.Duty()*100, m.First)
		}
	}

	fmt.Fprintf(w, "\ncounters after %d cycles:", cycles)
	if master, ok := core.Master(); ok {
		fmt.Fprintf(w, " %s(master)=%d", master, b.timers.Counter(master))
	}
	for _, pt := range mgr.Timers() {
		fmt.Fprintf(w, " %s=%d", pt.ID, b.timers.Counter(pt.ID))
	}
	fmt.Fprintln(w)
	return nil
}

func runTimeBase(w io.Writer, mgr *generator.Manager, b *board, seconds uint) error {
	ticker := &sim.Ticker{}
	if err := mgr.InitializeTimeBase(ticker, nil); err != nil {
		return err
	}
	pin, err := generator.ParsePin(mgr.Profile().TimeBase.Output)
	if err != nil {
		return err
	}
	for s := uint(1); s <= seconds; s++ {
		ticker.Fire(int(ticker.Rate))
		fmt.Fprintf(w, "t=%ds %s toggles=%d level=%v\n", s, pin, b.pins.Toggles(pin), b.pins.Level(pin))
	}
	return nil
}
