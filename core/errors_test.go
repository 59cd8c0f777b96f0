package core

import (
	"errors"
	"testing"
)

func TestConfigErrorFormat(t *testing.T) {
	err := configError("attach slave", TIM2, 0, ErrNoMaster)
	if got, want := err.Error(), "attach slave TIM2: no master timer designated"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	err = configError("set compare", TIM3, OC4, ErrChannelDisabled)
	if got, want := err.Error(), "set compare TIM3 OC4: channel not enabled on timer"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	err = configError("start slaves", 0, 0, ErrNoMaster)
	if got, want := err.Error(), "start slaves: no master timer designated"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestConfigErrorUnwrap(t *testing.T) {
	err := configError("configure timer", TIM2, OC1, ErrInvalidChannel)
	if !errors.Is(err, ErrInvalidChannel) {
		t.Error("ConfigError should unwrap to its cause")
	}
	var ce *ConfigError
	if !errors.As(err, &ce) || ce.Timer != TIM2 || ce.Channel != OC1 {
		t.Errorf("errors.As failed or lost context: %+v", ce)
	}
}

func TestInternalTriggerRoutes(t *testing.T) {
	tests := []struct {
		slave, master TimerID
		want          TriggerInput
		ok            bool
	}{
		{TIM2, TIM4, ITR3, true},
		{TIM3, TIM4, ITR3, true},
		{TIM2, TIM1, ITR0, true},
		{TIM3, TIM1, ITR0, true},
		{TIM4, TIM1, ITR0, true},
		{TIM3, TIM2, ITR1, true},
		{TIM2, TIM5, 0, false},
		{TIM2, TIM2, 0, false},
		{TimerID(9), TIM1, 0, false},
	}
	for _, tt := range tests {
		got, ok := STM32InternalTrigger(tt.slave, tt.master)
		if ok != tt.ok || got != tt.want {
			t.Errorf("%s from %s: expected ITR%d ok=%v, got ITR%d ok=%v",
				tt.slave, tt.master, tt.want, tt.ok, got, ok)
		}
	}
}

func TestNames(t *testing.T) {
	if s := TIM8.String(); s != "TIM8" {
		t.Errorf("expected TIM8, got %s", s)
	}
	if s := (Pin{Port: PortD, Num: 12}).String(); s != "PD12" {
		t.Errorf("expected PD12, got %s", s)
	}
}

func TestKnownTimer(t *testing.T) {
	for _, id := range []TimerID{TIM1, TIM2, TIM3, TIM4, TIM5, TIM8} {
		if !KnownTimer(id) {
			t.Errorf("%s should be known", id)
		}
	}
	for _, id := range []TimerID{0, 6, 7, 9} {
		if KnownTimer(id) {
			t.Errorf("%s should be unknown", id)
		}
	}
}
