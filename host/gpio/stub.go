//go:build !linux

package gpio

import "errors"

// LineToggler is not available on non-Linux platforms.
type LineToggler struct{}

// NewLineToggler returns an error on non-Linux platforms.
func NewLineToggler(chip string, offset int) (*LineToggler, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Toggle is a no-op on non-Linux platforms.
func (l *LineToggler) Toggle() {}

// Level always reports low on non-Linux platforms.
func (l *LineToggler) Level() bool { return false }

// Err reports that the platform is unsupported.
func (l *LineToggler) Err() error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (l *LineToggler) Close() error {
	return nil
}
