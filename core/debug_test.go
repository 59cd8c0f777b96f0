package core

import (
	"strings"
	"testing"
	"time"
)

func TestEventRingOrder(t *testing.T) {
	ClearEventRing()
	defer ClearEventRing()

	for i := uint32(0); i < EventRingSize+3; i++ {
		RecordEvent(EvtDutyUpdate, TIM2, i, 0)
	}

	events := Events()
	if len(events) != EventRingSize {
		t.Fatalf("expected %d events, got %d", EventRingSize, len(events))
	}
	// The three oldest were overwritten
	if events[0].Value1 != 3 {
		t.Errorf("expected oldest event value 3, got %d", events[0].Value1)
	}
	if last := events[len(events)-1].Value1; last != EventRingSize+2 {
		t.Errorf("expected newest event value %d, got %d", EventRingSize+2, last)
	}
}

func TestDumpEventRing(t *testing.T) {
	ClearEventRing()
	defer ClearEventRing()

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	RecordEvent(EvtConfigure, TIM2, 64000, 1)
	RecordEvent(EvtToggle, 0, 1, 500)
	DumpEventRing()

	want := []string{
		"[EVENTS] === Event Ring Dump ===",
		"[EVENTS] CONFIGURE TIM2 v1=64000 v2=1",
		"[EVENTS] TOGGLE v1=1 v2=500",
		"[EVENTS] === End Dump ===",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("unexpected dump:\n%s", strings.Join(lines, "\n"))
	}
}

func TestDebugPrintlnRespectsEnable(t *testing.T) {
	var n int
	SetDebugWriter(func(string) { n++ })
	defer SetDebugWriter(func(string) {})

	SetDebugEnabled(false)
	DebugPrintln("hidden")
	SetDebugEnabled(true)
	DebugPrintln("shown")
	SetDebugEnabled(false)

	if n != 1 {
		t.Errorf("expected 1 message, got %d", n)
	}
}

func TestEventName(t *testing.T) {
	if EventName(EvtSlaveAttach) != "SLAVE_ATTACH" {
		t.Errorf("unexpected name %s", EventName(EvtSlaveAttach))
	}
	if EventName(0) != "UNKNOWN" {
		t.Errorf("unexpected name %s", EventName(0))
	}
}

func TestDebugAsyncDropsWhenDisabled(t *testing.T) {
	lines := make(chan string, 4)
	SetDebugWriter(func(s string) { lines <- s })
	defer SetDebugWriter(func(string) {})
	InitAsyncDebug()

	SetDebugEnabled(false)
	DebugAsync("dropped")
	SetDebugEnabled(true)
	DebugAsync("queued")
	SetDebugEnabled(false)

	select {
	case s := <-lines:
		if s != "queued" {
			t.Errorf("expected the enabled message, got %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("queued message never written")
	}
}
