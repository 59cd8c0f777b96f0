package config

import (
	"encoding/json"
	"errors"

	"pwmsync/core"
	"pwmsync/generator"
)

// LoadConfig parses a JSON profile, fills in defaults and validates it
func LoadConfig(jsonData []byte) (*generator.Profile, error) {
	var profile generator.Profile

	err := json.Unmarshal(jsonData, &profile)
	if err != nil {
		return nil, err
	}

	applyDefaults(&profile)

	if err := Validate(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// applyDefaults fills in missing values
func applyDefaults(p *generator.Profile) {
	if p.Mode == "" {
		p.Mode = generator.ModeIndependent
	}
	if p.CoreClockHz == 0 {
		p.CoreClockHz = core.ReferenceClockHz
	}
	if p.PWMFrequencyHz == 0 {
		p.PWMFrequencyHz = core.ReferencePWMHz
	}
	if p.Duty == "" {
		p.Duty = generator.DutyStatic
	}
	if p.RampBound == 0 {
		p.RampBound = core.ReferencePeriod
	}
	if p.Mode == generator.ModeSynchronized && p.MasterTimer == 0 {
		p.MasterTimer = uint8(core.TIM4)
	}

	if p.TimeBase.TickRateHz == 0 {
		p.TimeBase.TickRateHz = core.TickRateHz
	}
	if p.TimeBase.ToggleIntervalMs == 0 {
		p.TimeBase.ToggleIntervalMs = uint32(core.ToggleInterval.Milliseconds())
	}
	if p.TimeBase.Output.Port == "" {
		p.TimeBase.Output = generator.PinConfig{Port: "D", Pin: 12}
	}

	// A channel without an explicit target keeps its initial duty. An
	// explicit 0 drives the output to 0%.
	for i := range p.Timers {
		for j := range p.Timers[i].Channels {
			ch := &p.Timers[i].Channels[j]
			if ch.TargetPermille == nil {
				ch.TargetPermille = generator.Permille(ch.InitialPermille)
			}
		}
	}
}

// Validate rejects profiles that would configure inert or conflicting hardware
func Validate(p *generator.Profile) error {
	switch p.Mode {
	case generator.ModeIndependent, generator.ModeSynchronized, generator.ModeCenterAligned, generator.ModeTimeBase:
	default:
		return errors.New("config: unknown mode " + string(p.Mode))
	}
	switch p.Duty {
	case generator.DutyStatic, generator.DutyRamp:
	default:
		return errors.New("config: unknown duty mode " + string(p.Duty))
	}
	if p.CoreClockHz == 0 {
		return errors.New("config: core_clock_hz must be set")
	}

	if p.Mode == generator.ModeTimeBase {
		if _, err := generator.ParsePin(p.TimeBase.Output); err != nil {
			return err
		}
		if p.TimeBase.TickRateHz == 0 || p.TimeBase.ToggleIntervalMs == 0 {
			return errors.New("config: time base rate and interval must be set")
		}
		return nil
	}

	if p.PWMFrequencyHz == 0 {
		return errors.New("config: pwm_frequency_hz must be set")
	}
	if len(p.Timers) == 0 {
		return errors.New("config: no timers configured")
	}
	if p.Mode == generator.ModeCenterAligned && len(p.Timers) != 1 {
		return errors.New("config: center-aligned mode drives exactly one timer")
	}

	seen := make(map[uint8]bool)
	for _, t := range p.Timers {
		if t.Timer == 0 {
			return errors.New("config: timer number missing")
		}
		if !core.KnownTimer(core.TimerID(t.Timer)) {
			return errors.New("config: no such timer " + core.TimerID(t.Timer).String())
		}
		if seen[t.Timer] {
			return errors.New("config: " + core.TimerID(t.Timer).String() + " listed twice")
		}
		seen[t.Timer] = true
		if len(t.Channels) == 0 {
			return errors.New("config: " + core.TimerID(t.Timer).String() + " has no channels")
		}
		for _, ch := range t.Channels {
			if ch.Channel < 1 || ch.Channel > core.MaxChannels {
				return errors.New("config: " + core.TimerID(t.Timer).String() + " channel out of range")
			}
			if _, err := generator.ParsePin(ch.Pin); err != nil {
				return err
			}
		}
	}

	if p.Mode == generator.ModeSynchronized {
		if !core.KnownTimer(core.TimerID(p.MasterTimer)) {
			return errors.New("config: no such master timer " + core.TimerID(p.MasterTimer).String())
		}
		if seen[p.MasterTimer] {
			return errors.New("config: master " + core.TimerID(p.MasterTimer).String() + " cannot also drive outputs")
		}
	}
	return nil
}

// DefaultIndependent returns two free-running timers, TIM2 on PA1/PA2 and
// TIM3 on PC8/PC9, starting at 25%/37.5% and refreshed to 75%/50%.
func DefaultIndependent() *generator.Profile {
	p := &generator.Profile{
		Mode:           generator.ModeIndependent,
		CoreClockHz:    core.ReferenceClockHz,
		PWMFrequencyHz: core.ReferencePWMHz,
		Timers:         defaultPWMTimers(),
		Duty:           generator.DutyStatic,
	}
	applyDefaults(p)
	return p
}

// DefaultSynchronized returns the same outputs as DefaultIndependent with
// TIM2 and TIM3 reset by TIM4's update pulse.
func DefaultSynchronized() *generator.Profile {
	p := DefaultIndependent()
	p.Mode = generator.ModeSynchronized
	p.MasterTimer = uint8(core.TIM4)
	return p
}

// DefaultCenterAligned returns TIM1 center-aligned on PA8/PA9 at 50%/75%
func DefaultCenterAligned() *generator.Profile {
	p := &generator.Profile{
		Mode:           generator.ModeCenterAligned,
		CoreClockHz:    core.ReferenceClockHz,
		PWMFrequencyHz: core.ReferencePWMHz,
		Timers: []generator.TimerConfig{
			{
				Timer: uint8(core.TIM1),
				Channels: []generator.ChannelConfig{
					{Channel: 1, Pin: generator.PinConfig{Port: "A", Pin: 8}, AF: 1, InitialPermille: 500},
					{Channel: 2, Pin: generator.PinConfig{Port: "A", Pin: 9}, AF: 1, InitialPermille: 750},
				},
			},
		},
		Duty: generator.DutyStatic,
	}
	applyDefaults(p)
	return p
}

// DefaultTimeBase returns a 1 kHz tick toggling the board LED every 500 ms
func DefaultTimeBase() *generator.Profile {
	p := &generator.Profile{
		Mode:        generator.ModeTimeBase,
		CoreClockHz: core.ReferenceClockHz,
	}
	applyDefaults(p)
	return p
}

func defaultPWMTimers() []generator.TimerConfig {
	return []generator.TimerConfig{
		{
			Timer: uint8(core.TIM2),
			Channels: []generator.ChannelConfig{
				{Channel: 2, Pin: generator.PinConfig{Port: "A", Pin: 1}, AF: 1, InitialPermille: 250, TargetPermille: generator.Permille(750)},
				{Channel: 3, Pin: generator.PinConfig{Port: "A", Pin: 2}, AF: 1, InitialPermille: 375, TargetPermille: generator.Permille(500)},
			},
		},
		{
			Timer: uint8(core.TIM3),
			Channels: []generator.ChannelConfig{
				{Channel: 3, Pin: generator.PinConfig{Port: "C", Pin: 8}, AF: 2, InitialPermille: 250, TargetPermille: generator.Permille(750)},
				{Channel: 4, Pin: generator.PinConfig{Port: "C", Pin: 9}, AF: 2, InitialPermille: 375, TargetPermille: generator.Permille(500)},
			},
		},
	}
}
