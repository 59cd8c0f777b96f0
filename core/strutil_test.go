package core

import "testing"

func TestIntegerFormatting(t *testing.T) {
	for n, want := range map[uint32]string{0: "0", 7: "7", 64000: "64000", 1<<32 - 1: "4294967295"} {
		if got := utoa(n); got != want {
			t.Errorf("utoa(%d) = %q, want %q", n, got, want)
		}
	}
	for n, want := range map[int]string{0: "0", 12: "12", -3: "-3"} {
		if got := itoa(n); got != want {
			t.Errorf("itoa(%d) = %q, want %q", n, got, want)
		}
	}
}
