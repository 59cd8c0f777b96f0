// Duty-cycle update loop
// Compare registers are rewritten only after a timer's update flag has been
// seen set. With compare preload enabled the new values become active at the
// following wrap, never in the middle of a cycle.
package core

// DutyTarget is one compare value to apply to one channel
type DutyTarget struct {
	Channel Channel
	Compare uint32
}

// DutySequence yields the targets to apply at a period boundary. counter is
// the loop's free-running duty counter.
type DutySequence interface {
	Targets(counter uint32) []DutyTarget
}

// StaticDuty applies the same targets at every boundary
type StaticDuty []DutyTarget

func (s StaticDuty) Targets(uint32) []DutyTarget {
	return s
}

// RampChannel is one channel swept by a RampDuty
type RampChannel struct {
	Channel Channel
	Offset  uint32 // counter offset, shifts this channel along the ramp
}

// RampDuty sweeps compare values from 0 towards the period as the duty
// counter runs from 0 to bound.
type RampDuty struct {
	Period   uint32
	Bound    uint32
	Channels []RampChannel

	targets []DutyTarget
}

// NewRampDuty returns a ramp over period for the given channels, without offsets
func NewRampDuty(period, bound uint32, channels ...Channel) *RampDuty {
	r := &RampDuty{Period: period, Bound: bound}
	for _, ch := range channels {
		r.Channels = append(r.Channels, RampChannel{Channel: ch})
	}
	return r
}

func (r *RampDuty) Targets(counter uint32) []DutyTarget {
	if r.Bound == 0 {
		return nil
	}
	if cap(r.targets) < len(r.Channels) {
		r.targets = make([]DutyTarget, len(r.Channels))
	}
	r.targets = r.targets[:len(r.Channels)]
	for i, ch := range r.Channels {
		pos := uint64((counter + ch.Offset) % r.Bound)
		r.targets[i] = DutyTarget{
			Channel: ch.Channel,
			Compare: uint32(pos * uint64(r.Period) / uint64(r.Bound)),
		}
	}
	return r.targets
}

type managedTimer struct {
	timer   *PWMTimer
	seq     DutySequence
	updates uint32
}

// UpdateLoop polls managed timers and refreshes their compare values
type UpdateLoop struct {
	timers  []managedTimer
	counter uint32
	bound   uint32
	delay   func()
}

// NewUpdateLoop creates a loop whose duty counter wraps at bound. delay is
// called once per iteration to bound the polling rate; nil means no delay.
func NewUpdateLoop(bound uint32, delay func()) *UpdateLoop {
	if delay == nil {
		delay = func() {}
	}
	return &UpdateLoop{bound: bound, delay: delay}
}

// Manage adds a configured timer to the loop. Every channel the sequence
// targets must be enabled on the timer.
func (l *UpdateLoop) Manage(t TimerID, seq DutySequence) error {
	const op = "manage timer"
	p, ok := pwmTimers[t]
	if !ok {
		return configError(op, t, 0, ErrNotConfigured)
	}
	for i := range l.timers {
		if l.timers[i].timer.ID == t {
			return configError(op, t, 0, ErrAlreadyManaged)
		}
	}
	targets := seq.Targets(0)
	if len(targets) == 0 {
		return configError(op, t, 0, ErrEmptySequence)
	}
	for _, tgt := range targets {
		if !p.Enabled(tgt.Channel) {
			return configError(op, t, tgt.Channel, ErrChannelDisabled)
		}
	}
	l.timers = append(l.timers, managedTimer{timer: p, seq: seq})
	return nil
}

// Step runs one loop iteration and returns how many timers were refreshed
func (l *UpdateLoop) Step() int {
	drv := MustTimer()
	refreshed := 0
	for i := range l.timers {
		m := &l.timers[i]
		if !drv.UpdateFlag(m.timer.ID) {
			continue
		}
		drv.ClearUpdateFlag(m.timer.ID)
		for _, tgt := range m.seq.Targets(l.counter) {
			m.timer.writeCompare(tgt.Channel, tgt.Compare)
		}
		m.updates++
		refreshed++
		RecordEvent(EvtDutyUpdate, m.timer.ID, l.counter, m.updates)
		// Boundaries come faster than the UART drains; drop rather than stall
		DebugAsync("[DUTY] " + m.timer.ID.String() + " boundary " + utoa(m.updates))
	}

	l.counter++
	if l.counter >= l.bound {
		l.counter = 0
	}

	l.delay()
	return refreshed
}

// Run polls forever
func (l *UpdateLoop) Run() {
	for {
		l.Step()
	}
}

// Counter returns the free-running duty counter
func (l *UpdateLoop) Counter() uint32 {
	return l.counter
}

// Updates returns how many boundaries the loop has acted on for t
func (l *UpdateLoop) Updates(t TimerID) uint32 {
	for i := range l.timers {
		if l.timers[i].timer.ID == t {
			return l.timers[i].updates
		}
	}
	return 0
}
