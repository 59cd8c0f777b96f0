//go:build !tinygo

package core

import "sync/atomic"

// irqState stands in for the saved interrupt mask on regular Go
type irqState uintptr

// maskDepth counts open mask sections so host tests can see what ran masked
var maskDepth atomic.Int32

// maskInterrupts only tracks nesting on regular Go (host tests and simulation)
func maskInterrupts() irqState {
	maskDepth.Add(1)
	return 0
}

// unmaskInterrupts closes the section opened by maskInterrupts
func unmaskInterrupts(irqState) {
	maskDepth.Add(-1)
}
