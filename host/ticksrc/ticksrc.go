// Package ticksrc provides a core.TickSource for host builds, driven by a
// clock.Clock so tests can advance time by hand.
package ticksrc

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"pwmsync/core"
)

// Source delivers ticks from a clock ticker. Ticks the ticker drops while
// the handler is busy are made up from the elapsed time, so the handler
// runs once per period on average.
type Source struct {
	clock clock.Clock

	mu     sync.Mutex
	ticker *clock.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

// New returns a source on clk, or on the wall clock when clk is nil
func New(clk clock.Clock) *Source {
	if clk == nil {
		clk = clock.New()
	}
	return &Source{clock: clk}
}

// StartTicks implements core.TickSource
func (s *Source) StartTicks(rateHz uint32, handler func()) error {
	if rateHz == 0 || uint64(rateHz) > uint64(time.Second) {
		return core.ErrInvalidTickRate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		return errors.New("ticksrc: already started")
	}

	period := time.Second / time.Duration(rateHz)
	s.ticker = s.clock.Ticker(period)
	s.done = make(chan struct{})
	last := s.clock.Now()

	s.wg.Add(1)
	go func(c <-chan time.Time, done <-chan struct{}) {
		defer s.wg.Done()
		for {
			select {
			case <-done:
				return
			case <-c:
				now := s.clock.Now()
				for now.Sub(last) >= period {
					last = last.Add(period)
					handler()
				}
			}
		}
	}(s.ticker.C, s.done)
	return nil
}

// Stop halts the ticker and waits for the handler to return
func (s *Source) Stop() {
	s.mu.Lock()
	if s.ticker == nil {
		s.mu.Unlock()
		return
	}
	s.ticker.Stop()
	close(s.done)
	s.ticker = nil
	s.mu.Unlock()
	s.wg.Wait()
}
