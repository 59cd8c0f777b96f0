package generator

import (
	"errors"
	"time"

	"pwmsync/core"
)

// Manager brings up one profile on the registered core drivers
type Manager struct {
	profile *Profile

	timers   []*core.PWMTimer
	loop     *core.UpdateLoop
	timeBase *core.TimeBase

	initialized bool
}

// NewManager creates a manager for a validated profile
func NewManager(p *Profile) *Manager {
	return &Manager{profile: p}
}

// Profile returns the managed profile
func (m *Manager) Profile() *Profile {
	return m.profile
}

// ParsePin converts a configured pin name into a core.Pin
func ParsePin(pc PinConfig) (core.Pin, error) {
	if len(pc.Port) != 1 || pc.Port[0] < 'A' || pc.Port[0] > 'E' {
		return core.Pin{}, errors.New("generator: bad port " + pc.Port)
	}
	if pc.Pin > 15 {
		return core.Pin{}, errors.New("generator: pin number out of range on port " + pc.Port)
	}
	return core.Pin{Port: core.Port(pc.Port[0] - 'A'), Num: pc.Pin}, nil
}

// Initialize provisions the core clock, configures the profile's timers and
// prepares the duty update loop. delay bounds the loop's polling rate.
func (m *Manager) Initialize(delay func()) error {
	if m.initialized {
		return errors.New("generator: already initialized")
	}
	p := m.profile

	if err := core.MustClock().SetCoreClock(p.CoreClockHz); err != nil {
		return err
	}

	var err error
	switch p.Mode {
	case ModeIndependent:
		err = m.startIndependent(core.EdgeAligned)
	case ModeCenterAligned:
		err = m.startIndependent(core.CenterAligned1)
	case ModeSynchronized:
		err = m.startSynchronized()
	case ModeTimeBase:
		return errors.New("generator: time base profile has no PWM timers")
	default:
		return errors.New("generator: unsupported mode " + string(p.Mode))
	}
	if err != nil {
		return err
	}

	m.loop = core.NewUpdateLoop(p.RampBound, delay)
	for i, pt := range m.timers {
		if err := m.loop.Manage(pt.ID, m.sequence(p.Timers[i], pt)); err != nil {
			return err
		}
	}

	m.initialized = true
	return nil
}

// InitializeTimeBase provisions the core clock and starts the periodic tick.
// A nil out toggles the profile's output pin through the pin driver.
func (m *Manager) InitializeTimeBase(src core.TickSource, out core.OutputToggler) error {
	if m.initialized {
		return errors.New("generator: already initialized")
	}
	p := m.profile

	if err := core.MustClock().SetCoreClock(p.CoreClockHz); err != nil {
		return err
	}

	if out == nil {
		pin, err := ParsePin(p.TimeBase.Output)
		if err != nil {
			return err
		}
		if err := core.MustPin().ConfigureOutput(pin); err != nil {
			return err
		}
		out = core.PinToggler{Driver: core.MustPin(), Pin: pin}
	}

	interval := time.Duration(p.TimeBase.ToggleIntervalMs) * time.Millisecond
	tb, err := core.ConfigureTimeBase(src, out, p.TimeBase.TickRateHz, interval)
	if err != nil {
		return err
	}
	m.timeBase = tb
	m.initialized = true
	return nil
}

// Run polls the update loop forever
func (m *Manager) Run() {
	if m.loop == nil {
		panic("generator: Run before Initialize")
	}
	m.loop.Run()
}

// Loop returns the duty update loop, nil before Initialize
func (m *Manager) Loop() *core.UpdateLoop {
	return m.loop
}

// TimeBase returns the running time base, nil unless InitializeTimeBase ran
func (m *Manager) TimeBase() *core.TimeBase {
	return m.timeBase
}

// Timers returns the configured PWM timers in profile order
func (m *Manager) Timers() []*core.PWMTimer {
	return m.timers
}

func (m *Manager) startIndependent(mode core.CountMode) error {
	for _, tc := range m.profile.Timers {
		cfg, err := m.timerConfig(tc, mode)
		if err != nil {
			return err
		}
		pt, err := core.ConfigureTimer(cfg)
		if err != nil {
			return err
		}
		m.timers = append(m.timers, pt)
	}
	return nil
}

func (m *Manager) startSynchronized() error {
	p := m.profile
	master := core.TimerID(p.MasterTimer)
	if !core.MustTimer().Has(master) {
		return &core.ConfigError{Op: "designate master", Timer: master, Err: core.ErrNoSuchTimer}
	}
	masterHz := core.MustClock().TimerClock(master)

	// Cycles are compared in master ticks: slaves may sit on a slower bus
	cfgs := make([]core.TimerConfig, 0, len(p.Timers))
	var cycle uint32
	for _, tc := range p.Timers {
		cfg, err := m.timerConfig(tc, core.EdgeAligned)
		if err != nil {
			return err
		}
		ticks, err := masterTicks(cfg, masterHz)
		if err != nil {
			return err
		}
		if cycle != 0 && ticks != cycle {
			return errors.New("generator: synchronized timers need equal cycle lengths")
		}
		cycle = ticks
		cfgs = append(cfgs, cfg)
	}

	// One master pulse per slave cycle keeps every reset on a wrap
	if err := core.DesignateMaster(master, cycle); err != nil {
		return err
	}
	for _, cfg := range cfgs {
		trig, err := core.MasterTrigger(cfg.Timer)
		if err != nil {
			return err
		}
		pt, err := core.AttachSlave(cfg, trig)
		if err != nil {
			return err
		}
		m.timers = append(m.timers, pt)
	}
	return core.StartSlaves()
}

// masterTicks converts one PWM cycle of a slave into ticks of a master
// clocked at masterHz
func masterTicks(cfg core.TimerConfig, masterHz uint32) (uint32, error) {
	slaveHz := uint64(core.MustClock().TimerClock(cfg.Timer))
	if slaveHz == 0 {
		return 0, &core.ConfigError{Op: "sync cycle", Timer: cfg.Timer, Err: core.ErrInvalidFrequency}
	}
	scaled := uint64(cfg.Period) * uint64(cfg.Prescaler) * uint64(masterHz)
	if scaled%slaveHz != 0 {
		return 0, &core.ConfigError{Op: "sync cycle", Timer: cfg.Timer, Err: core.ErrClockRatio}
	}
	ticks := scaled / slaveHz
	if ticks == 0 || ticks > 1<<32-1 {
		return 0, &core.ConfigError{Op: "sync cycle", Timer: cfg.Timer, Err: core.ErrPeriodOverflow}
	}
	return uint32(ticks), nil
}

// timerConfig derives period, prescaler and compare values from the
// timer's input clock and the profile's PWM frequency
func (m *Manager) timerConfig(tc TimerConfig, mode core.CountMode) (core.TimerConfig, error) {
	id := core.TimerID(tc.Timer)
	if !core.MustTimer().Has(id) {
		return core.TimerConfig{}, &core.ConfigError{Op: "plan pwm", Timer: id, Err: core.ErrNoSuchTimer}
	}
	pwmHz := m.profile.PWMFrequencyHz
	if mode != core.EdgeAligned {
		// Center-aligned counting covers the period twice per cycle
		pwmHz *= 2
	}
	period, prescaler, err := core.PlanPWM(core.MustClock().TimerClock(id), pwmHz, core.MustTimer().MaxPeriod(id))
	if err != nil {
		return core.TimerConfig{}, &core.ConfigError{Op: "plan pwm", Timer: id, Err: err}
	}

	cfg := core.TimerConfig{
		Timer:     id,
		Mode:      mode,
		Period:    period,
		Prescaler: prescaler,
	}
	for _, ch := range tc.Channels {
		pin, err := ParsePin(ch.Pin)
		if err != nil {
			return core.TimerConfig{}, err
		}
		pol := core.ActiveHigh
		if ch.ActiveLow {
			pol = core.ActiveLow
		}
		cfg.Channels = append(cfg.Channels, core.ChannelConfig{
			Channel:  core.Channel(ch.Channel),
			Compare:  core.CompareForPermille(ch.InitialPermille, period),
			Polarity: pol,
			Pin:      core.PinFunction{Pin: pin, AF: ch.AF},
		})
	}
	return cfg, nil
}

// sequence builds the duty sequence the update loop applies to one timer
func (m *Manager) sequence(tc TimerConfig, pt *core.PWMTimer) core.DutySequence {
	period := pt.Config.Period
	if m.profile.Duty == DutyRamp {
		r := &core.RampDuty{Period: period, Bound: m.profile.RampBound}
		for _, ch := range tc.Channels {
			r.Channels = append(r.Channels, core.RampChannel{Channel: core.Channel(ch.Channel), Offset: ch.RampOffset})
		}
		return r
	}
	seq := make(core.StaticDuty, 0, len(tc.Channels))
	for _, ch := range tc.Channels {
		seq = append(seq, core.DutyTarget{
			Channel: core.Channel(ch.Channel),
			Compare: core.CompareForPermille(*ch.TargetPermille, period),
		})
	}
	return seq
}
