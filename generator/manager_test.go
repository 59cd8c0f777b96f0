package generator_test

import (
	"errors"
	"testing"

	"pwmsync/core"
	"pwmsync/generator"
	"pwmsync/generator/config"
	"pwmsync/sim"
)

type board struct {
	timers *sim.Timers
	pins   *sim.Pins
}

func setupBoard(t *testing.T, clockHz uint32) *board {
	t.Helper()
	return setupBoardClock(t, &sim.Clock{Hz: clockHz})
}

// setupBoardClock registers a simulated board whose timers follow clk
func setupBoardClock(t *testing.T, clk *sim.Clock) *board {
	t.Helper()
	b := &board{timers: sim.NewTimers(), pins: sim.NewPins()}
	b.timers.FollowClock(clk)
	core.ResetTimers()
	core.SetTimerDriver(b.timers)
	core.SetPinDriver(b.pins)
	core.SetClockDriver(clk)
	return b
}

// f4Clock is an STM32F4 at 168 MHz: TIM1/TIM8 on APB2 at 168 MHz, the
// rest on APB1 at 84 MHz
func f4Clock() *sim.Clock {
	return &sim.Clock{
		Hz: 168_000_000,
		TimerHz: map[core.TimerID]uint32{
			core.TIM2: 84_000_000,
			core.TIM3: 84_000_000,
			core.TIM4: 84_000_000,
			core.TIM5: 84_000_000,
		},
	}
}

func outputs(mgr *generator.Manager) []sim.Output {
	var outs []sim.Output
	for _, pt := range mgr.Timers() {
		for _, ch := range pt.Config.Channels {
			outs = append(outs, sim.Output{Timer: pt.ID, Channel: ch.Channel})
		}
	}
	return outs
}

func TestIndependentProfile(t *testing.T) {
	b := setupBoard(t, core.ReferenceClockHz)
	mgr := generator.NewManager(config.DefaultIndependent())
	if err := mgr.Initialize(nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if len(mgr.Timers()) != 2 {
		t.Fatalf("expected 2 timers, got %d", len(mgr.Timers()))
	}
	for _, pt := range mgr.Timers() {
		if pt.Config.Period != core.ReferencePeriod || pt.Config.Prescaler != 1 {
			t.Errorf("%s: expected %d/1, got %d/%d", pt.ID, core.ReferencePeriod, pt.Config.Period, pt.Config.Prescaler)
		}
	}

	outs := outputs(mgr)
	loop := mgr.Loop()
	step := func() { loop.Step() }
	for cycle, want := range [][]float64{
		{0.25, 0.375, 0.25, 0.375},
		{0.25, 0.375, 0.25, 0.375},
		{0.75, 0.5, 0.75, 0.5},
	} {
		ms := b.timers.Run(core.ReferencePeriod, outs, step)
		for i, m := range ms {
			if m.Duty() != want[i] {
				t.Errorf("cycle %d %s OC%d: expected %v, got %v", cycle+1, outs[i].Timer, outs[i].Channel, want[i], m.Duty())
			}
		}
	}
}

func TestSynchronizedProfile(t *testing.T) {
	b := setupBoard(t, core.ReferenceClockHz)
	mgr := generator.NewManager(config.DefaultSynchronized())
	if err := mgr.Initialize(nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if m, ok := core.Master(); !ok || m != core.TIM4 {
		t.Fatalf("expected TIM4 master, got %s", m)
	}
	for _, pt := range mgr.Timers() {
		if pt.Role != core.RoleSlave {
			t.Errorf("%s should be a slave", pt.ID)
		}
	}

	b.timers.TickN(3*core.ReferencePeriod + 777)
	c2, c3, c4 := b.timers.Counter(core.TIM2), b.timers.Counter(core.TIM3), b.timers.Counter(core.TIM4)
	if c2 != c4 || c3 != c4 {
		t.Errorf("not phase locked: TIM2=%d TIM3=%d TIM4=%d", c2, c3, c4)
	}
}

func TestSynchronizedOnF4Clocks(t *testing.T) {
	// 84 MHz timer clock: TIM2 is 32-bit (84000/1), TIM3 16-bit (42000/2),
	// both 84000 ticks per cycle
	b := setupBoard(t, 84_000_000)
	p := config.DefaultSynchronized()
	p.CoreClockHz = 84_000_000
	mgr := generator.NewManager(p)
	if err := mgr.Initialize(nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if b.timers.CycleTicks(core.TIM2) != b.timers.CycleTicks(core.TIM3) {
		t.Fatalf("cycle mismatch: %d vs %d", b.timers.CycleTicks(core.TIM2), b.timers.CycleTicks(core.TIM3))
	}

	outs := outputs(mgr)
	ms := b.timers.Run(84000, outs, nil)
	for i, m := range ms {
		if m.First != 0 {
			t.Errorf("%s OC%d: pulse starts at %d, want 0", outs[i].Timer, outs[i].Channel, m.First)
		}
	}
}

func TestSynchronizedAcrossBuses(t *testing.T) {
	clk := f4Clock()
	b := setupBoardClock(t, clk)
	p := config.DefaultSynchronized()
	p.CoreClockHz = clk.Hz
	p.MasterTimer = uint8(core.TIM1)
	mgr := generator.NewManager(p)
	if err := mgr.Initialize(nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	master, ok := core.GetTimer(core.TIM1)
	if !ok {
		t.Fatal("TIM1 not configured")
	}
	masterTicks := uint64(master.Config.Period) * uint64(master.Config.Prescaler)
	for _, pt := range mgr.Timers() {
		// pulse period == slave cycle, in seconds: m/masterHz == s/slaveHz
		slaveTicks := uint64(pt.Config.Period) * uint64(pt.Config.Prescaler)
		if masterTicks*uint64(clk.TimerClock(pt.ID)) != slaveTicks*uint64(clk.TimerClock(core.TIM1)) {
			t.Errorf("%s: master pulse %d ticks at %d Hz, slave cycle %d ticks at %d Hz",
				pt.ID, masterTicks, clk.TimerClock(core.TIM1), slaveTicks, clk.TimerClock(pt.ID))
		}
		if b.timers.CycleTicks(pt.ID) != b.timers.CycleTicks(core.TIM1) {
			t.Errorf("%s: cycle %d sim ticks, master %d", pt.ID, b.timers.CycleTicks(pt.ID), b.timers.CycleTicks(core.TIM1))
		}
	}

	// A master firing twice per slave cycle would cut every duty in half
	cycle := b.timers.CycleTicks(core.TIM1)
	outs := outputs(mgr)
	loop := mgr.Loop()
	step := func() { loop.Step() }
	for n, want := range [][]float64{
		{0.25, 0.375, 0.25, 0.375},
		{0.25, 0.375, 0.25, 0.375},
		{0.75, 0.5, 0.75, 0.5},
		{0.75, 0.5, 0.75, 0.5},
	} {
		ms := b.timers.Run(cycle, outs, step)
		for i, m := range ms {
			if m.Duty() != want[i] {
				t.Errorf("cycle %d %s OC%d: expected %v, got %v", n+1, outs[i].Timer, outs[i].Channel, want[i], m.Duty())
			}
		}
	}
}

func TestSynchronizedClockRatio(t *testing.T) {
	// 84000 slave ticks at 84 MHz is not a whole number of ticks at 83.999999 MHz
	// The simulator cannot divide down to that clock, so only planning runs
	clk := &sim.Clock{Hz: 84_000_000, TimerHz: map[core.TimerID]uint32{core.TIM4: 83_999_999}}
	setupBoard(t, clk.Hz)
	core.SetClockDriver(clk)
	p := config.DefaultSynchronized()
	p.CoreClockHz = clk.Hz
	mgr := generator.NewManager(p)
	err := mgr.Initialize(nil)
	if !errors.Is(err, core.ErrClockRatio) {
		t.Fatalf("expected ErrClockRatio, got %v", err)
	}
	if _, ok := core.Master(); ok {
		t.Error("no master should be designated")
	}
}

func TestUnknownTimers(t *testing.T) {
	setupBoard(t, core.ReferenceClockHz)
	p := config.DefaultIndependent()
	p.Timers[1].Timer = 6
	if err := generator.NewManager(p).Initialize(nil); !errors.Is(err, core.ErrNoSuchTimer) {
		t.Errorf("timer 6: expected ErrNoSuchTimer, got %v", err)
	}

	setupBoard(t, core.ReferenceClockHz)
	p = config.DefaultSynchronized()
	p.MasterTimer = 7
	if err := generator.NewManager(p).Initialize(nil); !errors.Is(err, core.ErrNoSuchTimer) {
		t.Errorf("master 7: expected ErrNoSuchTimer, got %v", err)
	}
}

func TestZeroTargetDuty(t *testing.T) {
	b := setupBoard(t, core.ReferenceClockHz)
	p := config.DefaultIndependent()
	p.Timers = p.Timers[:1]
	p.Timers[0].Channels[0].TargetPermille = generator.Permille(0)
	mgr := generator.NewManager(p)
	if err := mgr.Initialize(nil); err != nil {
		t.Fatal(err)
	}
	step := func() { mgr.Loop().Step() }
	b.timers.Run(2*core.ReferencePeriod, nil, step)
	ms := b.timers.Run(core.ReferencePeriod, []sim.Output{{Timer: core.TIM2, Channel: core.OC2}}, step)
	if ms[0].Asserted != 0 {
		t.Errorf("expected OC2 driven to 0%%, got %v", ms[0].Duty())
	}
}

func TestCenterAlignedProfile(t *testing.T) {
	b := setupBoard(t, core.ReferenceClockHz)
	mgr := generator.NewManager(config.DefaultCenterAligned())
	if err := mgr.Initialize(nil); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	pt := mgr.Timers()[0]
	if pt.Config.Mode != core.CenterAligned1 || pt.Config.Period != core.ReferencePeriod/2 {
		t.Errorf("unexpected TIM1 setup: mode=%d period=%d", pt.Config.Mode, pt.Config.Period)
	}
	ms := b.timers.MeasureCycle(core.TIM1, core.OC1, core.OC2)
	if ms[0].Duty() != 0.5 || ms[1].Duty() != 0.75 {
		t.Errorf("expected 50%%/75%%, got %v/%v", ms[0].Duty(), ms[1].Duty())
	}
}

func TestRampProfile(t *testing.T) {
	b := setupBoard(t, core.ReferenceClockHz)
	p := config.DefaultIndependent()
	p.Duty = generator.DutyRamp
	mgr := generator.NewManager(p)
	if err := mgr.Initialize(nil); err != nil {
		t.Fatal(err)
	}
	b.timers.Run(core.ReferencePeriod, nil, func() { mgr.Loop().Step() })

	pt := mgr.Timers()[0]
	if got := pt.Compare(core.OC2); got != core.ReferencePeriod-1 {
		t.Errorf("expected ramp compare %d, got %d", core.ReferencePeriod-1, got)
	}
}

func TestTimeBaseProfile(t *testing.T) {
	b := setupBoard(t, core.ReferenceClockHz)
	mgr := generator.NewManager(config.DefaultTimeBase())

	if err := mgr.Initialize(nil); err == nil {
		t.Error("Initialize should refuse a time base profile")
	}

	ticker := &sim.Ticker{}
	if err := mgr.InitializeTimeBase(ticker, nil); err != nil {
		t.Fatalf("InitializeTimeBase: %v", err)
	}
	ticker.Fire(2000)

	led := core.Pin{Port: core.PortD, Num: 12}
	if b.pins.Toggles(led) != 4 {
		t.Errorf("expected 4 toggles in 2 s, got %d", b.pins.Toggles(led))
	}
	if mgr.TimeBase().Toggles() != 4 {
		t.Errorf("time base counted %d toggles", mgr.TimeBase().Toggles())
	}
	if err := mgr.InitializeTimeBase(ticker, nil); err == nil {
		t.Error("second initialization should fail")
	}
}

func TestClockMismatch(t *testing.T) {
	setupBoard(t, 72_000_000)
	mgr := generator.NewManager(config.DefaultIndependent())
	if err := mgr.Initialize(nil); !errors.Is(err, core.ErrClockMismatch) {
		t.Errorf("expected ErrClockMismatch, got %v", err)
	}
}

func TestUnequalSlaveCycles(t *testing.T) {
	// 131071 ticks per cycle: TIM2 takes it whole, TIM3 needs a prescaler of
	// 2 and truncates to 65535 x 2 = 131070, so a shared master cannot serve both
	setupBoard(t, 131_071_000)
	p := config.DefaultSynchronized()
	p.CoreClockHz = 131_071_000
	mgr := generator.NewManager(p)
	if err := mgr.Initialize(nil); err == nil {
		t.Error("expected unequal cycle lengths to be rejected")
	}
}

func TestParsePin(t *testing.T) {
	pin, err := generator.ParsePin(generator.PinConfig{Port: "C", Pin: 9})
	if err != nil || pin != (core.Pin{Port: core.PortC, Num: 9}) {
		t.Errorf("expected PC9, got %s (%v)", pin, err)
	}
	for _, bad := range []generator.PinConfig{{Port: "", Pin: 1}, {Port: "AB", Pin: 1}, {Port: "F", Pin: 1}, {Port: "A", Pin: 16}} {
		if _, err := generator.ParsePin(bad); err == nil {
			t.Errorf("expected error for %+v", bad)
		}
	}
}
