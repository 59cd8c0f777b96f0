// Package serial opens the firmware's debug UART on the host. The link is
// receive-only: the firmware prints debug lines and event ring dumps and
// accepts no commands.
package serial

import (
	"errors"
	"io"
	"time"
)

// Port is a receive-only link to the firmware
type Port interface {
	io.ReadCloser

	// Flush drops bytes received before the port was opened
	Flush() error
}

// Config describes the debug UART on the host side
type Config struct {
	Device      string        // e.g. "/dev/ttyACM0", "COM3"
	Baud        int           // must match the firmware's UART
	ReadTimeout time.Duration // 0 blocks
}

// DefaultBaud matches the firmware's debug UART
const DefaultBaud = 115200

// DefaultDevice is the ST-LINK virtual COM port on Linux
const DefaultDevice = "/dev/ttyACM0"

// DefaultConfig returns the configuration for the board's debug UART
func DefaultConfig(device string) *Config {
	if device == "" {
		device = DefaultDevice
	}
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// Validate rejects configurations the UART cannot open
func (c *Config) Validate() error {
	switch {
	case c == nil:
		return errors.New("serial: nil config")
	case c.Device == "":
		return errors.New("serial: no device")
	case c.Baud <= 0:
		return errors.New("serial: baud rate must be positive")
	case c.ReadTimeout < 0:
		return errors.New("serial: negative read timeout")
	}
	return nil
}
