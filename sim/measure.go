package sim

import "pwmsync/core"

// Measurement counts how many samples of an output were asserted
type Measurement struct {
	Asserted uint64
	Samples  uint64
	// First is the sample index of the first asserted sample, -1 if none
	First int64
}

// Duty returns the asserted fraction
func (m Measurement) Duty() float64 {
	if m.Samples == 0 {
		return 0
	}
	return float64(m.Asserted) / float64(m.Samples)
}

func (m *Measurement) sample(level bool) {
	if level {
		if m.First < 0 {
			m.First = int64(m.Samples)
		}
		m.Asserted++
	}
	m.Samples++
}

// Output names one channel of one timer
type Output struct {
	Timer   core.TimerID
	Channel core.Channel
}

// CycleTicks returns the simulation ticks in one PWM cycle of a timer,
// using its active period, prescaler and clock divider
func (s *Timers) CycleTicks(id core.TimerID) uint64 {
	tm := s.get(id)
	n := uint64(tm.period) * uint64(tm.prescaler) * uint64(tm.div)
	if tm.mode != core.EdgeAligned {
		n *= 2
	}
	return n
}

// Run samples outs before each of ticks ticks. after, if not nil, runs
// once after every tick, the way a polling loop interleaves with hardware.
func (s *Timers) Run(ticks uint64, outs []Output, after func()) []Measurement {
	ms := make([]Measurement, len(outs))
	for i := range ms {
		ms[i].First = -1
	}
	for n := uint64(0); n < ticks; n++ {
		for i, o := range outs {
			ms[i].sample(s.Output(o.Timer, o.Channel))
		}
		s.Tick()
		if after != nil {
			after()
		}
	}
	return ms
}

// MeasureDuty samples the given channels of one timer before each of ticks ticks
func (s *Timers) MeasureDuty(id core.TimerID, ticks uint64, chs ...core.Channel) []Measurement {
	outs := make([]Output, len(chs))
	for i, ch := range chs {
		outs[i] = Output{Timer: id, Channel: ch}
	}
	return s.Run(ticks, outs, nil)
}

// MeasureCycle measures exactly one PWM cycle of a timer
func (s *Timers) MeasureCycle(id core.TimerID, chs ...core.Channel) []Measurement {
	return s.MeasureDuty(id, s.CycleTicks(id), chs...)
}
