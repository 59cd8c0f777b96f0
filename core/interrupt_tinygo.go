//go:build tinygo

package core

import "runtime/interrupt"

// maskInterrupts masks all interrupts (PRIMASK) and returns the previous state
func maskInterrupts() interrupt.State {
	return interrupt.Disable()
}

// unmaskInterrupts restores the mask saved by maskInterrupts
func unmaskInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
