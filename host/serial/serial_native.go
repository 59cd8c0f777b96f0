package serial

import (
	"fmt"

	"github.com/tarm/serial"
)

var _ Port = (*NativePort)(nil)

// NativePort is a Port backed by github.com/tarm/serial
type NativePort struct {
	port   *serial.Port
	device string
}

// Open opens and flushes the debug UART
func Open(cfg *Config) (*NativePort, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}
	return &NativePort{port: port, device: cfg.Device}, nil
}

// Device returns the path the port was opened on
func (p *NativePort) Device() string {
	return p.device
}

func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

// Flush implements Port
func (p *NativePort) Flush() error {
	return p.port.Flush()
}

// Close implements Port
func (p *NativePort) Close() error {
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}
