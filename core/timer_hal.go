package core

// TimerID identifies one hardware counter unit (TIM1, TIM2, ...)
type TimerID uint8

const (
	TIM1 TimerID = 1
	TIM2 TimerID = 2
	TIM3 TimerID = 3
	TIM4 TimerID = 4
	TIM5 TimerID = 5
	TIM8 TimerID = 8
)

// Channel is an output-compare channel number (1-4)
type Channel uint8

const (
	OC1 Channel = 1
	OC2 Channel = 2
	OC3 Channel = 3
	OC4 Channel = 4

	MaxChannels = 4
)

// CountMode selects edge-aligned or center-aligned counting. Direction is always up.
type CountMode uint8

const (
	EdgeAligned CountMode = iota
	CenterAligned1
	CenterAligned2
	CenterAligned3
)

// Polarity of an output-compare channel
type Polarity uint8

const (
	ActiveHigh Polarity = iota
	ActiveLow
)

// MasterMode selects what a timer drives onto its trigger output (TRGO)
type MasterMode uint8

const (
	MasterReset MasterMode = iota
	MasterEnable
	MasterUpdate
)

// SlaveMode selects how a timer reacts to its trigger input
type SlaveMode uint8

const (
	SlaveDisabled SlaveMode = iota
	SlaveReset
	SlaveGated
	SlaveTrigger
	SlaveExternalClock1
)

// TriggerInput is an internal trigger line (ITR0-ITR3)
type TriggerInput uint8

const (
	ITR0 TriggerInput = iota
	ITR1
	ITR2
	ITR3
)

// TimerDriver is the abstract timer interface that core code uses.
// Platform-specific implementations handle the actual register writes.
// Period and prescaler values are logical: drivers encode the hardware
// value (ARR = period-1, PSC = prescaler-1).
type TimerDriver interface {
	// Has reports whether the chip has timer t. Every other method may
	// assume it does.
	Has(t TimerID) bool

	// Reset returns the peripheral to its reset state and enables its clock
	Reset(t TimerID)

	// SetMode sets counting mode, up direction, continuous (not one-pulse) mode
	SetMode(t TimerID, mode CountMode)

	// SetPrescaler sets the input clock divisor (>= 1)
	SetPrescaler(t TimerID, divisor uint32)

	// SetPeriod sets the number of counter ticks per cycle
	SetPeriod(t TimerID, period uint32)

	// MaxPeriod returns the largest period the counter can hold
	MaxPeriod(t TimerID) uint32

	// EnablePreload buffers period writes until the next update event
	EnablePreload(t TimerID)

	// ConfigurePWM sets PWM mode 1 (asserted while counter < compare),
	// enables compare preload and applies polarity. The output stays disabled.
	ConfigurePWM(t TimerID, ch Channel, pol Polarity)

	// SetCompare writes a channel compare value (preloaded if enabled)
	SetCompare(t TimerID, ch Channel, value uint32)

	// EnableOutput enables the channel output (and main output on advanced timers)
	EnableOutput(t TimerID, ch Channel)

	// SetMasterMode routes an internal event to the trigger output
	SetMasterMode(t TimerID, mode MasterMode)

	// SetSlaveMode configures the slave mode controller and its trigger input
	SetSlaveMode(t TimerID, mode SlaveMode, trig TriggerInput)

	// InternalTrigger returns the trigger input on which slave sees master's TRGO
	InternalTrigger(slave, master TimerID) (TriggerInput, bool)

	// GenerateUpdate forces an update event so preloaded values take effect
	GenerateUpdate(t TimerID)

	// EnableCounter starts the counter
	EnableCounter(t TimerID)

	// Running reports whether the counter is enabled
	Running(t TimerID) bool

	// UpdateFlag reports the latched update interrupt flag
	UpdateFlag(t TimerID) bool

	// ClearUpdateFlag acknowledges the update interrupt flag
	ClearUpdateFlag(t TimerID)
}

// Global singleton used by core code.
var timerDriver TimerDriver

// SetTimerDriver is called by target-specific code to register its driver.
func SetTimerDriver(d TimerDriver) {
	timerDriver = d
}

// MustTimer returns the configured driver or panics if missing.
func MustTimer() TimerDriver {
	if timerDriver == nil {
		panic("timer driver not configured")
	}
	return timerDriver
}
