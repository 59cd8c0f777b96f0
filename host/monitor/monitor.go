// Package monitor follows the firmware's debug log over a serial link and
// decodes the tagged lines it prints (boot, tick, events, failures).
package monitor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"pwmsync/core"
	"pwmsync/host/serial"
)

// Line is one decoded log line
type Line struct {
	// Tag is the bracketed prefix without brackets, e.g. "EVENTS"
	Tag string
	// Text is everything after the tag
	Text string
	// Event is set for event ring entries
	Event *core.Event
}

// ErrNotEvent is returned by ParseEvent for lines that are not ring entries
var ErrNotEvent = errors.New("not an event line")

// ParseLine splits a log line into its tag and text. Event ring entries
// are decoded as well; the dump's header and footer carry no event.
func ParseLine(s string) Line {
	s = strings.TrimRight(s, "\r\n")
	if !strings.HasPrefix(s, "[") {
		return Line{Text: s}
	}
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return Line{Text: s}
	}
	l := Line{Tag: s[1:end], Text: strings.TrimSpace(s[end+1:])}
	if l.Tag == "EVENTS" {
		if evt, err := ParseEvent(l.Text); err == nil {
			l.Event = &evt
		}
	}
	return l
}

// ParseEvent decodes "NAME [TIMn] v1=X v2=Y"
func ParseEvent(text string) (core.Event, error) {
	fields := strings.Fields(text)
	if len(fields) < 3 {
		return core.Event{}, ErrNotEvent
	}
	evt := core.Event{Type: eventType(fields[0])}
	if evt.Type == 0 {
		return core.Event{}, ErrNotEvent
	}
	rest := fields[1:]
	if strings.HasPrefix(rest[0], "TIM") {
		n, err := strconv.ParseUint(rest[0][3:], 10, 8)
		if err != nil {
			return core.Event{}, fmt.Errorf("bad timer %q: %w", rest[0], err)
		}
		evt.Timer = core.TimerID(n)
		rest = rest[1:]
	}
	if len(rest) != 2 {
		return core.Event{}, ErrNotEvent
	}
	var err error
	if evt.Value1, err = parseValue(rest[0], "v1="); err != nil {
		return core.Event{}, err
	}
	if evt.Value2, err = parseValue(rest[1], "v2="); err != nil {
		return core.Event{}, err
	}
	return evt, nil
}

func parseValue(field, prefix string) (uint32, error) {
	if !strings.HasPrefix(field, prefix) {
		return 0, ErrNotEvent
	}
	v, err := strconv.ParseUint(field[len(prefix):], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad value %q: %w", field, err)
	}
	return uint32(v), nil
}

func eventType(name string) uint8 {
	for t := uint8(core.EvtConfigure); t <= core.EvtToggle; t++ {
		if core.EventName(t) == name {
			return t
		}
	}
	return 0
}

// Monitor reads log lines from a firmware link
type Monitor struct {
	port   io.ReadCloser
	logger *zap.Logger
	closer []io.Closer
}

// New wraps an already open link. Extra closers are released with it.
func New(port io.ReadCloser, logger *zap.Logger, closers ...io.Closer) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{port: port, logger: logger, closer: closers}
}

// Connect opens the serial device described by cfg
func Connect(cfg *serial.Config, logger *zap.Logger) (*Monitor, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := port.Flush(); err != nil {
		return nil, multierr.Append(fmt.Errorf("flush %s: %w", cfg.Device, err), port.Close())
	}
	return New(port, logger), nil
}

// Run delivers each line to handle until the link ends, ctx is done or
// handle returns an error
func (m *Monitor) Run(ctx context.Context, handle func(Line) error) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(m.port)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			l := ParseLine(s)
			if l.Tag == "FAIL" {
				m.logger.Error("firmware reported failure", zap.String("detail", l.Text))
			} else {
				m.logger.Debug("line", zap.String("tag", l.Tag), zap.String("text", l.Text))
			}
			if err := handle(l); err != nil {
				return err
			}
		}
	}
}

// Close releases the link and any extra closers
func (m *Monitor) Close() error {
	err := m.port.Close()
	for _, c := range m.closer {
		err = multierr.Append(err, c.Close())
	}
	return err
}
