//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"
)

// LineToggler toggles a GPIO output line on real hardware
type LineToggler struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line

	mu    sync.Mutex
	level bool
	err   error
}

// NewLineToggler requests offset on chip as an output, initially low
func NewLineToggler(chip string, offset int) (*LineToggler, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := c.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("request output line %d: %w", offset, err)
	}

	return &LineToggler{chip: c, line: line}, nil
}

// Toggle inverts the line. Write errors are kept for Err.
func (l *LineToggler) Toggle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := !l.level
	v := 0
	if next {
		v = 1
	}
	if err := l.line.SetValue(v); err != nil {
		l.err = multierr.Append(l.err, err)
		return
	}
	l.level = next
}

// Level returns the last level written
func (l *LineToggler) Level() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Err returns the accumulated write errors
func (l *LineToggler) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Close releases the line and the chip
func (l *LineToggler) Close() error {
	return multierr.Combine(l.line.Close(), l.chip.Close())
}
