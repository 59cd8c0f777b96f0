package gpio

import "testing"

var (
	_ Toggler = (*FakeToggler)(nil)
	_ Toggler = (*LineToggler)(nil)
)

func TestFakeToggler(t *testing.T) {
	f := NewFakeToggler()
	if f.Level() {
		t.Fatal("fake should start low")
	}
	f.Toggle()
	f.Toggle()
	f.Toggle()
	if !f.Level() {
		t.Error("level after three toggles should be high")
	}
	if f.Toggles() != 3 {
		t.Errorf("Toggles() = %d, want 3", f.Toggles())
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if !f.Closed() {
		t.Error("Closed() = false after Close")
	}
}
