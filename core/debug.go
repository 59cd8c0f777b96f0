package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a configuration or update step for post-mortem analysis
type Event struct {
	Type   uint8
	Timer  TimerID
	Value1 uint32 // Context-dependent value
	Value2 uint32 // Context-dependent value
}

// Event type codes
const (
	EvtConfigure   = 1 // timer configured: period, prescaler
	EvtMaster      = 2 // master designated: period, prescaler
	EvtSlaveAttach = 3 // slave attached: master, trigger input
	EvtSlaveStart  = 4 // slave counter started
	EvtDutyUpdate  = 5 // compare values refreshed: duty counter, update count
	EvtToggle      = 6 // time base toggled: toggle count, threshold
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether DebugPrintln produces output
	debugEnabled bool

	// Event ring buffer, shared between foreground and the tick interrupt
	eventRing     [EventRingSize]Event
	eventRingHead uint8

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// InitAsyncDebug starts the async debug output goroutine.
// Call this from main() after SetDebugWriter. Later calls do nothing.
func InitAsyncDebug() {
	if debugChan != nil {
		return
	}
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message without blocking; drops it if debug
// output is disabled, the channel is full or async output was never started
func DebugAsync(msg string) {
	if debugChan == nil || !debugEnabled {
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}

// RecordEvent stores an event in the ring buffer. Safe from interrupt context.
func RecordEvent(eventType uint8, t TimerID, value1, value2 uint32) {
	state := maskInterrupts()
	idx := eventRingHead
	eventRing[idx] = Event{
		Type:   eventType,
		Timer:  t,
		Value1: value1,
		Value2: value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
	unmaskInterrupts(state)
}

// Events returns the recorded events, oldest first
func Events() []Event {
	state := maskInterrupts()
	defer unmaskInterrupts(state)

	events := make([]Event, 0, EventRingSize)
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(eventRingHead+i)%EventRingSize]
		if evt.Type == 0 {
			continue
		}
		events = append(events, evt)
	}
	return events
}

// EventName returns a short name for an event type
func EventName(eventType uint8) string {
	switch eventType {
	case EvtConfigure:
		return "CONFIGURE"
	case EvtMaster:
		return "MASTER"
	case EvtSlaveAttach:
		return "SLAVE_ATTACH"
	case EvtSlaveStart:
		return "SLAVE_START"
	case EvtDutyUpdate:
		return "DUTY_UPDATE"
	case EvtToggle:
		return "TOGGLE"
	}
	return "UNKNOWN"
}

// DumpEventRing writes the event ring through the debug writer
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENTS] === Event Ring Dump ===")
	for _, evt := range Events() {
		line := "[EVENTS] " + EventName(evt.Type)
		if evt.Timer != 0 {
			line += " " + evt.Timer.String()
		}
		debugPrintln(line + " v1=" + utoa(evt.Value1) + " v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	state := maskInterrupts()
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
	unmaskInterrupts(state)
}
