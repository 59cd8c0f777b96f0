package core_test

import (
	"errors"
	"testing"

	"pwmsync/core"
	"pwmsync/sim"
)

func attach(t *testing.T, cfg core.TimerConfig) *core.PWMTimer {
	t.Helper()
	trig, err := core.MasterTrigger(cfg.Timer)
	if err != nil {
		t.Fatalf("MasterTrigger(%s): %v", cfg.Timer, err)
	}
	p, err := core.AttachSlave(cfg, trig)
	if err != nil {
		t.Fatalf("AttachSlave(%s): %v", cfg.Timer, err)
	}
	return p
}

func TestSlavesPhaseLockToMaster(t *testing.T) {
	timers, _ := setupSim(t)

	if err := core.DesignateMaster(core.TIM4, core.ReferencePeriod); err != nil {
		t.Fatalf("DesignateMaster: %v", err)
	}
	if timers.ActivePeriod(core.TIM4) != core.ReferencePeriod || timers.ActivePrescaler(core.TIM4) != 1 {
		t.Errorf("master split: %d/%d", timers.ActivePeriod(core.TIM4), timers.ActivePrescaler(core.TIM4))
	}

	// The master runs alone for a while before the slaves start
	timers.TickN(1000)

	p2 := attach(t, referenceTIM2())
	p3 := attach(t, referenceTIM3())
	if p2.Role != core.RoleSlave || p2.Trigger != core.ITR3 {
		t.Errorf("TIM2: role=%d trigger=ITR%d", p2.Role, p2.Trigger)
	}
	if p3.Trigger != core.ITR3 {
		t.Errorf("TIM3: trigger=ITR%d", p3.Trigger)
	}
	if timers.Running(core.TIM2) || timers.Running(core.TIM3) {
		t.Fatal("slaves must stay stopped until StartSlaves")
	}
	if err := core.StartSlaves(); err != nil {
		t.Fatalf("StartSlaves: %v", err)
	}

	// Up to the master's next update the slaves lag it by 1000 ticks
	timers.TickN(core.ReferencePeriod - 1000)
	for _, id := range []core.TimerID{core.TIM2, core.TIM3, core.TIM4} {
		if c := timers.Counter(id); c != 0 {
			t.Errorf("%s counter after the master pulse: expected 0, got %d", id, c)
		}
	}

	// From then on every slave cycle begins with a master pulse
	outs := []sim.Output{
		{Timer: core.TIM2, Channel: core.OC2},
		{Timer: core.TIM2, Channel: core.OC3},
		{Timer: core.TIM3, Channel: core.OC3},
		{Timer: core.TIM3, Channel: core.OC4},
	}
	for cycle := 0; cycle < 3; cycle++ {
		ms := timers.Run(core.ReferencePeriod, outs, nil)
		for i, m := range ms {
			if m.First != 0 {
				t.Errorf("cycle %d output %d: rising edge at %d, want 0", cycle, i, m.First)
			}
		}
		checkDuty(t, "TIM2 OC2", ms[0], 0.25)
		checkDuty(t, "TIM2 OC3", ms[1], 0.375)
		checkDuty(t, "TIM3 OC3", ms[2], 0.25)
		checkDuty(t, "TIM3 OC4", ms[3], 0.375)
	}

	timers.TickN(12345)
	c2, c3, c4 := timers.Counter(core.TIM2), timers.Counter(core.TIM3), timers.Counter(core.TIM4)
	if c2 != c4 || c3 != c4 {
		t.Errorf("counters drifted: TIM2=%d TIM3=%d TIM4=%d", c2, c3, c4)
	}

	if diff := core.Slaves(); len(diff) != 2 || diff[0] != core.TIM2 || diff[1] != core.TIM3 {
		t.Errorf("unexpected slave list %v", diff)
	}
	if m, ok := core.Master(); !ok || m != core.TIM4 {
		t.Errorf("expected TIM4 as master, got %s ok=%v", m, ok)
	}
}

func TestMasterSplitsLongCycle(t *testing.T) {
	timers, _ := setupSim(t)

	// 84000 ticks do not fit a 16-bit counter: 42000 x 2
	if err := core.DesignateMaster(core.TIM4, 84000); err != nil {
		t.Fatal(err)
	}
	if timers.ActivePeriod(core.TIM4) != 42000 || timers.ActivePrescaler(core.TIM4) != 2 {
		t.Errorf("expected 42000/2, got %d/%d", timers.ActivePeriod(core.TIM4), timers.ActivePrescaler(core.TIM4))
	}
	if timers.CycleTicks(core.TIM4) != 84000 {
		t.Errorf("pulse spacing changed: %d", timers.CycleTicks(core.TIM4))
	}

	if err := core.DesignateMaster(core.TIM4, 65537); !errors.Is(err, core.ErrPeriodOverflow) {
		t.Errorf("prime cycle: expected ErrPeriodOverflow, got %v", err)
	}
	if err := core.DesignateMaster(core.TIM4, 0); !errors.Is(err, core.ErrInvalidPeriod) {
		t.Errorf("zero cycle: expected ErrInvalidPeriod, got %v", err)
	}
}

func TestAttachSlaveErrors(t *testing.T) {
	timers, _ := setupSim(t)

	if _, err := core.AttachSlave(referenceTIM2(), core.ITR3); !errors.Is(err, core.ErrNoMaster) {
		t.Errorf("no master: expected ErrNoMaster, got %v", err)
	}
	if _, err := core.MasterTrigger(core.TIM2); !errors.Is(err, core.ErrNoMaster) {
		t.Errorf("no master: expected ErrNoMaster, got %v", err)
	}
	if err := core.StartSlaves(); !errors.Is(err, core.ErrNoMaster) {
		t.Errorf("no master: expected ErrNoMaster, got %v", err)
	}

	if err := core.DesignateMaster(core.TIM4, core.ReferencePeriod); err != nil {
		t.Fatal(err)
	}

	// ITR0 on TIM2 carries TIM1, not TIM4
	if _, err := core.AttachSlave(referenceTIM2(), core.ITR0); !errors.Is(err, core.ErrTriggerRoute) {
		t.Errorf("wrong trigger: expected ErrTriggerRoute, got %v", err)
	}

	self := referenceTIM2()
	self.Timer = core.TIM4
	if _, err := core.AttachSlave(self, core.ITR3); !errors.Is(err, core.ErrSlaveIsMaster) {
		t.Errorf("master as slave: expected ErrSlaveIsMaster, got %v", err)
	}

	center := referenceTIM2()
	center.Mode = core.CenterAligned1
	if _, err := core.AttachSlave(center, core.ITR3); !errors.Is(err, core.ErrCenterAlignedSlave) {
		t.Errorf("center-aligned slave: expected ErrCenterAlignedSlave, got %v", err)
	}

	timers.Stop(core.TIM4)
	if _, err := core.AttachSlave(referenceTIM2(), core.ITR3); !errors.Is(err, core.ErrMasterNotRunning) {
		t.Errorf("stopped master: expected ErrMasterNotRunning, got %v", err)
	}
	if len(core.Slaves()) != 0 {
		t.Errorf("rejected slaves must not be recorded: %v", core.Slaves())
	}
}

func TestUnroutableMaster(t *testing.T) {
	setupSim(t)

	if err := core.DesignateMaster(core.TIM5, core.ReferencePeriod); err != nil {
		t.Fatal(err)
	}
	if _, err := core.MasterTrigger(core.TIM2); !errors.Is(err, core.ErrTriggerRoute) {
		t.Errorf("TIM5 cannot drive TIM2: expected ErrTriggerRoute, got %v", err)
	}
	if trig, err := core.MasterTrigger(core.TIM3); err != nil || trig != core.ITR2 {
		t.Errorf("TIM5 drives TIM3 on ITR2: got ITR%d (%v)", trig, err)
	}
}

func TestReconfiguringMasterDropsIt(t *testing.T) {
	setupSim(t)

	if err := core.DesignateMaster(core.TIM4, core.ReferencePeriod); err != nil {
		t.Fatal(err)
	}
	cfg := referenceTIM3()
	cfg.Timer = core.TIM4
	cfg.Channels[0].Pin.Pin = core.Pin{Port: core.PortD, Num: 14}
	cfg.Channels[1].Pin.Pin = core.Pin{Port: core.PortD, Num: 15}
	if _, err := core.ConfigureTimer(cfg); err != nil {
		t.Fatal(err)
	}
	if _, ok := core.Master(); ok {
		t.Error("a timer reconfigured for PWM is no longer the master")
	}
}

func TestUnknownTimersRejected(t *testing.T) {
	setupSim(t)

	if err := core.DesignateMaster(7, core.ReferencePeriod); !errors.Is(err, core.ErrNoSuchTimer) {
		t.Errorf("master TIM7: expected ErrNoSuchTimer, got %v", err)
	}
	if _, ok := core.Master(); ok {
		t.Error("a rejected master must not be designated")
	}

	if err := core.DesignateMaster(core.TIM4, core.ReferencePeriod); err != nil {
		t.Fatal(err)
	}
	if _, err := core.MasterTrigger(6); !errors.Is(err, core.ErrNoSuchTimer) {
		t.Errorf("trigger for TIM6: expected ErrNoSuchTimer, got %v", err)
	}
	cfg := referenceTIM2()
	cfg.Timer = 6
	if _, err := core.AttachSlave(cfg, core.ITR3); !errors.Is(err, core.ErrNoSuchTimer) {
		t.Errorf("slave TIM6: expected ErrNoSuchTimer, got %v", err)
	}
	if len(core.Slaves()) != 0 {
		t.Errorf("expected no slaves, got %v", core.Slaves())
	}
}
