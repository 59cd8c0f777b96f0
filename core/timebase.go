// Periodic interrupt time base
// A fixed-rate tick divides down to a slower toggle on a digital output.
package core

import (
	"sync/atomic"
	"time"
)

// TickSource is a periodic interrupt source
type TickSource interface {
	// StartTicks runs handler rateHz times per second from interrupt context
	StartTicks(rateHz uint32, handler func()) error
}

// OutputToggler inverts one digital output
type OutputToggler interface {
	Toggle()
}

// PinToggler toggles a pin through a PinDriver
type PinToggler struct {
	Driver PinDriver
	Pin    Pin
}

func (p PinToggler) Toggle() {
	p.Driver.Toggle(p.Pin)
}

// TimeBase counts ticks and toggles its output every threshold ticks.
// Tick runs in interrupt context; the counters may be read from anywhere.
type TimeBase struct {
	threshold uint32
	ticks     uint32
	toggles   uint32
	out       OutputToggler
}

// ConfigureTimeBase starts src at tickRate and toggles out once per interval.
// Interrupts stay masked until the handler state is complete, so an early
// tick cannot observe a half-built TimeBase.
func ConfigureTimeBase(src TickSource, out OutputToggler, tickRate uint32, interval time.Duration) (*TimeBase, error) {
	threshold, err := TickThreshold(tickRate, interval)
	if err != nil {
		return nil, err
	}

	tb := &TimeBase{
		threshold: threshold,
		out:       out,
	}
	state := maskInterrupts()
	err = src.StartTicks(tickRate, tb.Tick)
	unmaskInterrupts(state)
	if err != nil {
		return nil, err
	}

	DebugPrintln("[TICK] " + utoa(tickRate) + " Hz, toggle every " + utoa(threshold) + " ticks")
	return tb, nil
}

// Tick is the interrupt handler. It never blocks.
func (tb *TimeBase) Tick() {
	if atomic.AddUint32(&tb.ticks, 1) < tb.threshold {
		return
	}
	atomic.StoreUint32(&tb.ticks, 0)
	tb.out.Toggle()
	n := atomic.AddUint32(&tb.toggles, 1)
	RecordEvent(EvtToggle, 0, n, tb.threshold)
}

// Ticks returns ticks counted since the last toggle
func (tb *TimeBase) Ticks() uint32 {
	return atomic.LoadUint32(&tb.ticks)
}

// Toggles returns how many times the output has been toggled
func (tb *TimeBase) Toggles() uint32 {
	return atomic.LoadUint32(&tb.toggles)
}

// Threshold returns the number of ticks between toggles
func (tb *TimeBase) Threshold() uint32 {
	return tb.threshold
}
