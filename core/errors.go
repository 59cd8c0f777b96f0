package core

import "errors"

// Configuration errors. Register writes themselves cannot fail; everything
// that would leave an output silently inert is rejected up front instead.
var (
	ErrInvalidPeriod      = errors.New("period must be greater than zero")
	ErrInvalidPrescaler   = errors.New("prescaler must be at least 1")
	ErrPeriodOverflow     = errors.New("period does not fit the counter")
	ErrInvalidChannel     = errors.New("channel out of range")
	ErrDuplicateChannel   = errors.New("channel configured twice")
	ErrChannelDisabled    = errors.New("channel not enabled on timer")
	ErrNotConfigured      = errors.New("timer not configured")
	ErrNoSuchTimer        = errors.New("no such timer on this chip")
	ErrAlreadyManaged     = errors.New("timer already managed by the update loop")
	ErrClockRatio         = errors.New("master and slave clocks give no whole pulse period")
	ErrMasterNotRunning   = errors.New("master timer not running")
	ErrNoMaster           = errors.New("no master timer designated")
	ErrTriggerRoute       = errors.New("trigger input does not route from master")
	ErrCenterAlignedSlave = errors.New("center-aligned mode cannot be reset by a trigger")
	ErrSlaveIsMaster      = errors.New("timer is already the master")
	ErrClockMismatch      = errors.New("core clock differs from requested frequency")
	ErrInvalidFrequency   = errors.New("frequency out of range")
	ErrInvalidTickRate    = errors.New("tick rate or interval out of range")
	ErrEmptySequence      = errors.New("duty sequence has no targets")
	ErrInvalidPinFunction = errors.New("alternate function out of range")
)

// ConfigError describes a rejected configuration step
type ConfigError struct {
	Op      string
	Timer   TimerID
	Channel Channel
	Err     error
}

func (e *ConfigError) Error() string {
	msg := e.Op
	if e.Timer != 0 {
		msg += " " + e.Timer.String()
	}
	if e.Channel != 0 {
		msg += " OC" + itoa(int(e.Channel))
	}
	return msg + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configError(op string, t TimerID, ch Channel, err error) error {
	return &ConfigError{Op: op, Timer: t, Channel: ch, Err: err}
}
