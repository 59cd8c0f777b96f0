// Package sim is a register-level model of STM32 general-purpose and
// advanced timers. It implements core.TimerDriver so the configuration,
// synchronization and update-loop code can run, and be measured, on a host.
//
// One call to Tick advances the simulation clock, the fastest timer clock,
// by one tick; timers on slower buses get a divider. The model
// keeps the behaviors the PWM code relies on: buffered prescaler, optional
// auto-reload and compare preload committed at update events, the latched
// update flag, TRGO on update, and reset/trigger/external-clock slave modes.
package sim

import (
	"sort"

	"pwmsync/core"
)

type timer struct {
	maxPeriod uint32
	advanced  bool

	// The timer sees one input tick every div simulation ticks
	div, divCount uint32

	cen  bool
	arpe bool
	mode core.CountMode
	down bool

	period, periodPreload       uint32
	prescaler, prescalerPreload uint32
	prescaleCount               uint32
	cnt                         uint32
	uif                         bool

	pwm       [core.MaxChannels]bool
	ocpe      [core.MaxChannels]bool
	activeLow [core.MaxChannels]bool
	ccxe      [core.MaxChannels]bool
	moe       bool
	ccr       [core.MaxChannels]uint32
	ccrShadow [core.MaxChannels]uint32

	mms core.MasterMode
	sms core.SlaveMode
	ts  core.TriggerInput
}

// Timers is a set of simulated timers sharing one input clock
type Timers struct {
	timers map[core.TimerID]*timer
	order  []core.TimerID
	now    uint64
}

// NewTimers returns the timer set of an STM32F4: TIM1 and TIM8 advanced,
// TIM2 and TIM5 32-bit, TIM3 and TIM4 16-bit.
func NewTimers() *Timers {
	s := &Timers{timers: make(map[core.TimerID]*timer)}
	s.add(core.TIM1, 1<<16, true)
	s.add(core.TIM2, 1<<32-1, false)
	s.add(core.TIM3, 1<<16, false)
	s.add(core.TIM4, 1<<16, false)
	s.add(core.TIM5, 1<<32-1, false)
	s.add(core.TIM8, 1<<16, true)
	return s
}

func (s *Timers) add(id core.TimerID, maxPeriod uint32, advanced bool) {
	s.timers[id] = &timer{maxPeriod: maxPeriod, advanced: advanced, div: 1, prescaler: 1, prescalerPreload: 1}
	s.order = append(s.order, id)
	sort.Slice(s.order, func(i, j int) bool { return s.order[i] < s.order[j] })
}

// Has implements core.TimerDriver
func (s *Timers) Has(id core.TimerID) bool {
	_, ok := s.timers[id]
	return ok
}

func (s *Timers) get(id core.TimerID) *timer {
	tm, ok := s.timers[id]
	if !ok {
		panic("sim: no such timer " + id.String())
	}
	return tm
}

// Reset implements core.TimerDriver
func (s *Timers) Reset(id core.TimerID) {
	tm := s.get(id)
	*tm = timer{maxPeriod: tm.maxPeriod, advanced: tm.advanced, div: tm.div, divCount: tm.divCount, prescaler: 1, prescalerPreload: 1}
}

// SetClockDivider makes id count once every n simulation ticks, as a timer on
// a bus running at 1/n of the fastest timer clock does. Resets keep it.
func (s *Timers) SetClockDivider(id core.TimerID, n uint32) {
	if n == 0 {
		n = 1
	}
	tm := s.get(id)
	tm.div = n
	tm.divCount = 0
}

// FollowClock sets every timer's divider from c, relative to c.Hz. Timer
// clocks must divide c.Hz evenly.
func (s *Timers) FollowClock(c *Clock) {
	for _, id := range s.order {
		hz := c.TimerClock(id)
		if hz == 0 || c.Hz%hz != 0 {
			panic("sim: " + id.String() + " clock does not divide the simulation clock")
		}
		s.SetClockDivider(id, c.Hz/hz)
	}
}

// SetMode implements core.TimerDriver
func (s *Timers) SetMode(id core.TimerID, mode core.CountMode) {
	tm := s.get(id)
	tm.mode = mode
	tm.down = false
}

// SetPrescaler implements core.TimerDriver. The prescaler is always buffered.
func (s *Timers) SetPrescaler(id core.TimerID, divisor uint32) {
	s.get(id).prescalerPreload = divisor
}

// SetPeriod implements core.TimerDriver
func (s *Timers) SetPeriod(id core.TimerID, period uint32) {
	tm := s.get(id)
	tm.periodPreload = period
	if !tm.arpe {
		tm.period = period
	}
}

// MaxPeriod implements core.TimerDriver
func (s *Timers) MaxPeriod(id core.TimerID) uint32 {
	return s.get(id).maxPeriod
}

// EnablePreload implements core.TimerDriver
func (s *Timers) EnablePreload(id core.TimerID) {
	s.get(id).arpe = true
}

// ConfigurePWM implements core.TimerDriver
func (s *Timers) ConfigurePWM(id core.TimerID, ch core.Channel, pol core.Polarity) {
	tm := s.get(id)
	i := ch - 1
	tm.pwm[i] = true
	tm.ocpe[i] = true
	tm.activeLow[i] = pol == core.ActiveLow
}

// SetCompare implements core.TimerDriver
func (s *Timers) SetCompare(id core.TimerID, ch core.Channel, value uint32) {
	tm := s.get(id)
	i := ch - 1
	tm.ccrShadow[i] = value
	if !tm.ocpe[i] {
		tm.ccr[i] = value
	}
}

// EnableOutput implements core.TimerDriver
func (s *Timers) EnableOutput(id core.TimerID, ch core.Channel) {
	tm := s.get(id)
	tm.ccxe[ch-1] = true
	if tm.advanced {
		tm.moe = true
	}
}

// SetMasterMode implements core.TimerDriver
func (s *Timers) SetMasterMode(id core.TimerID, mode core.MasterMode) {
	s.get(id).mms = mode
}

// SetSlaveMode implements core.TimerDriver
func (s *Timers) SetSlaveMode(id core.TimerID, mode core.SlaveMode, trig core.TriggerInput) {
	tm := s.get(id)
	tm.sms = mode
	tm.ts = trig
}

// InternalTrigger implements core.TimerDriver
func (s *Timers) InternalTrigger(slave, master core.TimerID) (core.TriggerInput, bool) {
	return core.STM32InternalTrigger(slave, master)
}

// GenerateUpdate implements core.TimerDriver
func (s *Timers) GenerateUpdate(id core.TimerID) {
	tm := s.get(id)
	tm.cnt = 0
	tm.down = false
	tm.prescaleCount = 0
	tm.update()
}

// EnableCounter implements core.TimerDriver
func (s *Timers) EnableCounter(id core.TimerID) {
	s.get(id).cen = true
}

// Running implements core.TimerDriver
func (s *Timers) Running(id core.TimerID) bool {
	return s.get(id).cen
}

// UpdateFlag implements core.TimerDriver
func (s *Timers) UpdateFlag(id core.TimerID) bool {
	return s.get(id).uif
}

// ClearUpdateFlag implements core.TimerDriver
func (s *Timers) ClearUpdateFlag(id core.TimerID) {
	s.get(id).uif = false
}

// Stop clears the counter enable bit, as a fault or debugger would
func (s *Timers) Stop(id core.TimerID) {
	s.get(id).cen = false
}

// Counter returns the current counter value
func (s *Timers) Counter(id core.TimerID) uint32 {
	return s.get(id).cnt
}

// ActiveCompare returns the compare value currently used by the comparator
func (s *Timers) ActiveCompare(id core.TimerID, ch core.Channel) uint32 {
	return s.get(id).ccr[ch-1]
}

// ActivePeriod returns the period currently used by the counter
func (s *Timers) ActivePeriod(id core.TimerID) uint32 {
	return s.get(id).period
}

// ActivePrescaler returns the prescaler currently dividing the input clock
func (s *Timers) ActivePrescaler(id core.TimerID) uint32 {
	return s.get(id).prescaler
}

// Output returns the level of a channel's output pin. Disabled channels read low.
func (s *Timers) Output(id core.TimerID, ch core.Channel) bool {
	tm := s.get(id)
	i := ch - 1
	if !tm.ccxe[i] || !tm.pwm[i] || (tm.advanced && !tm.moe) {
		return false
	}
	ref := tm.cnt < tm.ccr[i]
	return ref != tm.activeLow[i]
}

// Now returns the number of ticks simulated so far
func (s *Timers) Now() uint64 {
	return s.now
}

// Tick advances the simulation clock by one tick. Undivided timers see one
// input tick; divided ones see one every few calls.
func (s *Timers) Tick() {
	s.now++
	var pulses []core.TimerID
	for _, id := range s.order {
		tm := s.timers[id]
		tm.divCount++
		if tm.divCount < tm.div {
			continue
		}
		tm.divCount = 0
		if !tm.cen || tm.sms == core.SlaveExternalClock1 {
			continue
		}
		if tm.prescale() && tm.count() && tm.mms == core.MasterUpdate {
			pulses = append(pulses, id)
		}
	}
	for _, master := range pulses {
		s.trigger(master)
	}
}

// TickN advances n ticks
func (s *Timers) TickN(n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

// trigger delivers master's TRGO pulse to every slave listening for it
func (s *Timers) trigger(master core.TimerID) {
	for _, id := range s.order {
		tm := s.timers[id]
		if tm.sms == core.SlaveDisabled {
			continue
		}
		if src, ok := core.STM32InternalTrigger(id, master); !ok || src != tm.ts {
			continue
		}
		switch tm.sms {
		case core.SlaveReset:
			tm.cnt = 0
			tm.down = false
			tm.prescaleCount = 0
			tm.update()
		case core.SlaveTrigger:
			tm.cen = true
		case core.SlaveExternalClock1:
			if tm.cen && tm.prescale() {
				tm.count()
			}
		}
	}
}

// prescale reports whether this tick reaches the counter
func (tm *timer) prescale() bool {
	tm.prescaleCount++
	if tm.prescaleCount < tm.prescaler {
		return false
	}
	tm.prescaleCount = 0
	return true
}

// count advances the counter one step and reports whether an update occurred
func (tm *timer) count() bool {
	if tm.period == 0 {
		return false
	}
	if tm.mode == core.EdgeAligned {
		tm.cnt++
		if tm.cnt >= tm.period {
			tm.cnt = 0
			tm.update()
			return true
		}
		return false
	}

	// Center-aligned: 0 .. period-1 and back, holding each end for one step
	if !tm.down {
		if tm.cnt+1 >= tm.period {
			tm.down = true
			if tm.mode != core.CenterAligned1 {
				tm.update()
				return true
			}
			return false
		}
		tm.cnt++
		return false
	}
	if tm.cnt == 0 {
		tm.down = false
		if tm.mode != core.CenterAligned2 {
			tm.update()
			return true
		}
		return false
	}
	tm.cnt--
	return false
}

// update commits buffered registers and latches the update flag
func (tm *timer) update() {
	tm.period = tm.periodPreload
	tm.prescaler = tm.prescalerPreload
	for i := range tm.ccr {
		if tm.ocpe[i] {
			tm.ccr[i] = tm.ccrShadow[i]
		}
	}
	tm.uif = true
}
