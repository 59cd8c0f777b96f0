package core

// Port identifies a GPIO port (A, B, C, ...)
type Port uint8

const (
	PortA Port = iota
	PortB
	PortC
	PortD
	PortE
)

// Pin identifies one pin on a GPIO port
type Pin struct {
	Port Port
	Num  uint8
}

// PinFunction binds a pin to a peripheral alternate function
type PinFunction struct {
	Pin Pin
	AF  uint8
}

// Valid reports whether the pin exists on the largest supported package
func (p Pin) Valid() bool {
	return p.Port <= PortE && p.Num <= 15
}

// Valid reports whether fn names an existing pin and alternate function
func (fn PinFunction) Valid() bool {
	return fn.AF <= 15 && fn.Pin.Valid()
}

// ClockDriver provisions the core clock and reports peripheral clocks.
type ClockDriver interface {
	// SetCoreClock brings the core clock to hz or reports why it cannot
	SetCoreClock(hz uint32) error

	// CoreClock returns the current core clock in Hz
	CoreClock() uint32

	// TimerClock returns the input clock of a timer in Hz
	TimerClock(t TimerID) uint32
}

// PinDriver binds pins to peripheral functions and drives plain outputs.
type PinDriver interface {
	// BindPin routes a pin to a peripheral alternate function (push-pull, fast)
	BindPin(fn PinFunction) error

	// ConfigureOutput configures a pin as a push-pull digital output
	ConfigureOutput(pin Pin) error

	// Toggle inverts a digital output. Must be safe to call from an interrupt.
	Toggle(pin Pin)
}

var (
	clockDriver ClockDriver
	pinDriver   PinDriver
)

// SetClockDriver is called by target-specific code to register its driver.
func SetClockDriver(d ClockDriver) {
	clockDriver = d
}

// MustClock returns the configured driver or panics if missing.
func MustClock() ClockDriver {
	if clockDriver == nil {
		panic("clock driver not configured")
	}
	return clockDriver
}

// SetPinDriver is called by target-specific code to register its driver.
func SetPinDriver(d PinDriver) {
	pinDriver = d
}

// MustPin returns the configured driver or panics if missing.
func MustPin() PinDriver {
	if pinDriver == nil {
		panic("pin driver not configured")
	}
	return pinDriver
}

// String returns the conventional name, e.g. "PA1"
func (p Pin) String() string {
	return "P" + string(rune('A'+p.Port)) + itoa(int(p.Num))
}

// String returns the timer name, e.g. "TIM2"
func (t TimerID) String() string {
	return "TIM" + itoa(int(t))
}
