package generator

// Mode selects which signal generator configuration runs. Exactly one is
// active per boot.
type Mode string

const (
	// ModeIndependent runs each PWM timer on its own free-running counter
	ModeIndependent Mode = "independent"
	// ModeSynchronized resets every PWM timer from one master's update pulse
	ModeSynchronized Mode = "synchronized"
	// ModeCenterAligned runs a single center-aligned timer
	ModeCenterAligned Mode = "center-aligned"
	// ModeTimeBase only runs the periodic tick and its toggling output
	ModeTimeBase Mode = "timebase"
)

// DutyMode selects how the update loop picks new compare values
type DutyMode string

const (
	// DutyStatic writes each channel's target duty at every period boundary
	DutyStatic DutyMode = "static"
	// DutyRamp sweeps each channel's duty with the loop's duty counter
	DutyRamp DutyMode = "ramp"
)

// PinConfig names a GPIO pin, e.g. {"A", 1}
type PinConfig struct {
	Port string `json:"port"`
	Pin  uint8  `json:"pin"`
}

// ChannelConfig is one PWM output
type ChannelConfig struct {
	Channel         uint8     `json:"channel"`          // 1-4
	Pin             PinConfig `json:"pin"`              // output pin
	AF              uint8     `json:"af"`               // alternate function number
	InitialPermille uint32    `json:"initial_permille"` // duty before the first refresh
	TargetPermille  *uint32   `json:"target_permille"`  // duty written by the update loop; nil keeps the initial duty
	RampOffset      uint32    `json:"ramp_offset"`      // duty counter offset in ramp mode
	ActiveLow       bool      `json:"active_low"`
}

// Permille returns a pointer for ChannelConfig.TargetPermille
func Permille(v uint32) *uint32 {
	return &v
}

// TimerConfig is one PWM timer and its channels
type TimerConfig struct {
	Timer    uint8           `json:"timer"`
	Channels []ChannelConfig `json:"channels"`
}

// TimeBaseConfig is the periodic tick and its toggling output
type TimeBaseConfig struct {
	TickRateHz       uint32    `json:"tick_rate_hz"`
	ToggleIntervalMs uint32    `json:"toggle_interval_ms"`
	Output           PinConfig `json:"output"`
}

// Profile is a complete, statically configured signal generator
type Profile struct {
	Mode           Mode   `json:"mode"`
	CoreClockHz    uint32 `json:"core_clock_hz"`
	PWMFrequencyHz uint32 `json:"pwm_frequency_hz"`

	// MasterTimer drives the slaves in ModeSynchronized
	MasterTimer uint8         `json:"master_timer"`
	Timers      []TimerConfig `json:"timers"`

	Duty      DutyMode `json:"duty"`
	RampBound uint32   `json:"ramp_bound"` // duty counter wraps here

	TimeBase TimeBaseConfig `json:"time_base"`
}
