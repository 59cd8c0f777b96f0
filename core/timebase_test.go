package core_test

import (
	"errors"
	"testing"
	"time"

	"pwmsync/core"
	"pwmsync/sim"
)

func TestTimeBaseSquareWave(t *testing.T) {
	_, pins := setupSim(t)
	led := core.Pin{Port: core.PortD, Num: 12}
	if err := pins.ConfigureOutput(led); err != nil {
		t.Fatal(err)
	}

	ticker := &sim.Ticker{}
	tb, err := core.ConfigureTimeBase(ticker, core.PinToggler{Driver: pins, Pin: led}, core.TickRateHz, core.ToggleInterval)
	if err != nil {
		t.Fatalf("ConfigureTimeBase: %v", err)
	}
	if ticker.Rate != core.TickRateHz {
		t.Errorf("expected tick rate %d, got %d", core.TickRateHz, ticker.Rate)
	}
	if tb.Threshold() != 500 {
		t.Errorf("expected threshold 500, got %d", tb.Threshold())
	}

	// 499 ticks: no toggle yet
	ticker.Fire(499)
	if pins.Level(led) || tb.Toggles() != 0 || tb.Ticks() != 499 {
		t.Fatalf("early toggle: level=%v toggles=%d ticks=%d", pins.Level(led), tb.Toggles(), tb.Ticks())
	}

	// 500th tick toggles and restarts the count
	ticker.Fire(1)
	if !pins.Level(led) || tb.Ticks() != 0 {
		t.Fatalf("expected high output and reset count, got level=%v ticks=%d", pins.Level(led), tb.Ticks())
	}

	// One second more: a full 1 Hz period, back high
	ticker.Fire(1000)
	if !pins.Level(led) {
		t.Error("output should be high after 1.5 s")
	}
	if tb.Toggles() != 3 || pins.Toggles(led) != 3 {
		t.Errorf("expected 3 toggles, got %d (pin %d)", tb.Toggles(), pins.Toggles(led))
	}
}

func TestTimeBaseErrors(t *testing.T) {
	_, pins := setupSim(t)
	out := core.PinToggler{Driver: pins, Pin: core.Pin{Port: core.PortD, Num: 12}}

	if _, err := core.ConfigureTimeBase(&sim.Ticker{}, out, 0, time.Second); !errors.Is(err, core.ErrInvalidTickRate) {
		t.Errorf("zero rate: expected ErrInvalidTickRate, got %v", err)
	}
	if _, err := core.ConfigureTimeBase(&sim.Ticker{}, out, 1000, time.Microsecond); !errors.Is(err, core.ErrInvalidTickRate) {
		t.Errorf("interval shorter than a tick: expected ErrInvalidTickRate, got %v", err)
	}
}
