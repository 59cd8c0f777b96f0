package sim

import (
	"pwmsync/core"
)

// Clock is a fixed-frequency core.ClockDriver. Timers run at the core clock
// unless TimerHz names a different bus clock for them.
type Clock struct {
	Hz      uint32
	TimerHz map[core.TimerID]uint32
}

// SetCoreClock implements core.ClockDriver
func (c *Clock) SetCoreClock(hz uint32) error {
	if c.Hz == 0 {
		c.Hz = hz
	}
	if c.Hz != hz {
		return core.ErrClockMismatch
	}
	return nil
}

// CoreClock implements core.ClockDriver
func (c *Clock) CoreClock() uint32 {
	return c.Hz
}

// TimerClock implements core.ClockDriver
func (c *Clock) TimerClock(id core.TimerID) uint32 {
	if hz, ok := c.TimerHz[id]; ok {
		return hz
	}
	return c.Hz
}

// Pins records pin bindings and digital output levels
type Pins struct {
	bound   map[core.Pin]uint8
	outputs map[core.Pin]bool
	toggles map[core.Pin]int
}

// NewPins returns an empty pin model
func NewPins() *Pins {
	return &Pins{
		bound:   make(map[core.Pin]uint8),
		outputs: make(map[core.Pin]bool),
		toggles: make(map[core.Pin]int),
	}
}

// BindPin implements core.PinDriver
func (p *Pins) BindPin(fn core.PinFunction) error {
	if !fn.Valid() {
		return core.ErrInvalidPinFunction
	}
	p.bound[fn.Pin] = fn.AF
	return nil
}

// ConfigureOutput implements core.PinDriver
func (p *Pins) ConfigureOutput(pin core.Pin) error {
	if !pin.Valid() {
		return core.ErrInvalidPinFunction
	}
	p.outputs[pin] = false
	return nil
}

// Toggle implements core.PinDriver
func (p *Pins) Toggle(pin core.Pin) {
	p.outputs[pin] = !p.outputs[pin]
	p.toggles[pin]++
}

// Bound returns the alternate function a pin is bound to
func (p *Pins) Bound(pin core.Pin) (uint8, bool) {
	af, ok := p.bound[pin]
	return af, ok
}

// Level returns the level of a digital output
func (p *Pins) Level(pin core.Pin) bool {
	return p.outputs[pin]
}

// Toggles returns how many times a digital output was toggled
func (p *Pins) Toggles(pin core.Pin) int {
	return p.toggles[pin]
}

// Ticker is a core.TickSource fired by hand
type Ticker struct {
	Rate    uint32
	handler func()
}

// StartTicks implements core.TickSource
func (t *Ticker) StartTicks(rateHz uint32, handler func()) error {
	if rateHz == 0 {
		return core.ErrInvalidTickRate
	}
	t.Rate = rateHz
	t.handler = handler
	return nil
}

// Fire runs the handler n times, as n tick interrupts would
func (t *Ticker) Fire(n int) {
	for i := 0; i < n; i++ {
		if t.handler != nil {
			t.handler()
		}
	}
}
