// PWM timer configuration
// Programs one counter peripheral as a free-running PWM generator
package core

// Role of a configured timer
type Role uint8

const (
	RoleIndependent Role = iota
	RoleMaster
	RoleSlave
)

// ChannelConfig describes one output-compare channel
type ChannelConfig struct {
	Channel  Channel
	Compare  uint32 // initial compare value; above the period means always asserted
	Polarity Polarity
	Pin      PinFunction // bound before the output is enabled
}

// TimerConfig describes one timer's counting setup and its PWM channels
type TimerConfig struct {
	Timer     TimerID
	Mode      CountMode
	Period    uint32 // counter ticks per cycle
	Prescaler uint32 // input clock divisor, >= 1
	Channels  []ChannelConfig
}

// PWMTimer is a configured, registered timer
type PWMTimer struct {
	ID      TimerID
	Config  TimerConfig
	Role    Role
	Trigger TriggerInput // valid for RoleSlave

	enabled uint8                // bit per channel
	compare [MaxChannels]uint32 // last value written per channel
}

// Global registry of configured timers
var pwmTimers = make(map[TimerID]*PWMTimer)

// validate checks the structural parameters of a configuration. Mode and
// slave-mode combinations are left to the caller.
func (c *TimerConfig) validate(op string, drv TimerDriver) error {
	if !drv.Has(c.Timer) {
		return configError(op, c.Timer, 0, ErrNoSuchTimer)
	}
	if c.Period == 0 {
		return configError(op, c.Timer, 0, ErrInvalidPeriod)
	}
	if c.Prescaler == 0 || c.Prescaler > 1<<16 {
		return configError(op, c.Timer, 0, ErrInvalidPrescaler)
	}
	if c.Period > drv.MaxPeriod(c.Timer) {
		return configError(op, c.Timer, 0, ErrPeriodOverflow)
	}
	var seen uint8
	for _, ch := range c.Channels {
		if ch.Channel < OC1 || ch.Channel > OC4 {
			return configError(op, c.Timer, ch.Channel, ErrInvalidChannel)
		}
		bit := uint8(1) << (ch.Channel - 1)
		if seen&bit != 0 {
			return configError(op, c.Timer, ch.Channel, ErrDuplicateChannel)
		}
		seen |= bit
		if !ch.Pin.Valid() {
			return configError(op, c.Timer, ch.Channel, ErrInvalidPinFunction)
		}
	}
	return nil
}

// ConfigureTimer configures an independent PWM timer and starts it.
// Initial compare values are loaded with an update event before the
// counter starts so the first cycle is already correct.
func ConfigureTimer(cfg TimerConfig) (*PWMTimer, error) {
	p, err := configureTimer("configure timer", cfg, RoleIndependent)
	if err != nil {
		return nil, err
	}

	drv := MustTimer()
	drv.GenerateUpdate(cfg.Timer)
	drv.ClearUpdateFlag(cfg.Timer)
	drv.EnableCounter(cfg.Timer)

	DebugPrintln("[PWM] " + cfg.Timer.String() + " running period=" + utoa(cfg.Period) +
		" prescaler=" + utoa(cfg.Prescaler))
	return p, nil
}

// configureTimer resets the peripheral and applies mode, period, prescaler and
// channels. The counter is left stopped.
func configureTimer(op string, cfg TimerConfig, role Role) (*PWMTimer, error) {
	drv := MustTimer()
	if err := cfg.validate(op, drv); err != nil {
		return nil, err
	}

	// Pins first: an enabled channel without a routed pin is configured but
	// never reaches the outside world. validate has checked every pin, so a
	// failure here is a driver fault.
	for _, ch := range cfg.Channels {
		if err := MustPin().BindPin(ch.Pin); err != nil {
			return nil, configError(op, cfg.Timer, ch.Channel, err)
		}
	}

	forgetSync(cfg.Timer)

	t := cfg.Timer
	drv.Reset(t)
	drv.SetMode(t, cfg.Mode)
	drv.SetPrescaler(t, cfg.Prescaler)
	drv.SetPeriod(t, cfg.Period)
	drv.EnablePreload(t)

	p := &PWMTimer{
		ID:     t,
		Config: cfg,
		Role:   role,
	}
	p.Config.Channels = append([]ChannelConfig(nil), cfg.Channels...)

	for _, ch := range cfg.Channels {
		drv.ConfigurePWM(t, ch.Channel, ch.Polarity)
		drv.SetCompare(t, ch.Channel, ch.Compare)
		drv.EnableOutput(t, ch.Channel)
		p.enabled |= 1 << (ch.Channel - 1)
		p.compare[ch.Channel-1] = ch.Compare
	}

	pwmTimers[t] = p
	RecordEvent(EvtConfigure, t, cfg.Period, cfg.Prescaler)
	return p, nil
}

// GetTimer returns a configured timer
func GetTimer(t TimerID) (*PWMTimer, bool) {
	p, ok := pwmTimers[t]
	return p, ok
}

// ResetTimers forgets every configured timer and synchronization relationship.
// Hardware state is left untouched.
func ResetTimers() {
	pwmTimers = make(map[TimerID]*PWMTimer)
	masterTimer = 0
	slaveTimers = nil
}

// Enabled reports whether a channel output was enabled on this timer
func (p *PWMTimer) Enabled(ch Channel) bool {
	if ch < OC1 || ch > OC4 {
		return false
	}
	return p.enabled&(1<<(ch-1)) != 0
}

// Compare returns the last compare value written to a channel. With preload
// enabled it becomes active at the next update event.
func (p *PWMTimer) Compare(ch Channel) uint32 {
	if !p.Enabled(ch) {
		return 0
	}
	return p.compare[ch-1]
}

// SetCompare writes a new compare value to an enabled channel
func (p *PWMTimer) SetCompare(ch Channel, value uint32) error {
	if !p.Enabled(ch) {
		return configError("set compare", p.ID, ch, ErrChannelDisabled)
	}
	p.writeCompare(ch, value)
	return nil
}

func (p *PWMTimer) writeCompare(ch Channel, value uint32) {
	p.compare[ch-1] = value
	MustTimer().SetCompare(p.ID, ch, value)
}

// Duty returns the duty fraction the channel will produce once its last
// compare write is active
func (p *PWMTimer) Duty(ch Channel) float64 {
	return DutyFraction(p.Compare(ch), p.Config.Period)
}
