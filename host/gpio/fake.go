package gpio

import "sync"

// FakeToggler records toggles in memory
type FakeToggler struct {
	mu      sync.Mutex
	level   bool
	toggles int
	closed  bool
}

// NewFakeToggler creates a fake output starting low
func NewFakeToggler() *FakeToggler {
	return &FakeToggler{}
}

// Toggle inverts the recorded level
func (f *FakeToggler) Toggle() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.level = !f.level
	f.toggles++
}

// Level returns the recorded level
func (f *FakeToggler) Level() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}

// Toggles returns how many times Toggle ran
func (f *FakeToggler) Toggles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.toggles
}

// Close marks the fake closed
func (f *FakeToggler) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close was called
func (f *FakeToggler) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
