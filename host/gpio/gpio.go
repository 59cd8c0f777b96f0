// Package gpio drives the time base output on a Linux host.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "pwmsync/core"

// Toggler inverts one output line and releases it on Close
type Toggler interface {
	core.OutputToggler

	// Level returns the last level written
	Level() bool

	// Close releases GPIO resources.
	Close() error
}

// DefaultChip is the GPIO chip used when none is given
const DefaultChip = "gpiochip0"
