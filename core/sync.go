// Timer synchronization
// One master timer emits its update event on TRGO; slave timers in reset
// mode restart their counters on every pulse and so share the master's
// phase origin.
package core

var (
	masterTimer TimerID // 0 when no master is designated
	slaveTimers []TimerID
)

// DesignateMaster configures t as a pure pulse generator firing every
// updatePeriod timer-clock ticks and starts it. updatePeriod is split into
// a prescaler and a period that fit the counter.
func DesignateMaster(t TimerID, updatePeriod uint32) error {
	const op = "designate master"
	drv := MustTimer()
	if !drv.Has(t) {
		return configError(op, t, 0, ErrNoSuchTimer)
	}
	if updatePeriod == 0 {
		return configError(op, t, 0, ErrInvalidPeriod)
	}
	period, prescaler, ok := splitTicks(updatePeriod, drv.MaxPeriod(t))
	if !ok {
		return configError(op, t, 0, ErrPeriodOverflow)
	}

	cfg := TimerConfig{
		Timer:     t,
		Mode:      EdgeAligned,
		Period:    period,
		Prescaler: prescaler,
	}
	if _, err := configureTimer(op, cfg, RoleMaster); err != nil {
		return err
	}

	drv.SetMasterMode(t, MasterUpdate)
	drv.GenerateUpdate(t)
	drv.ClearUpdateFlag(t)
	drv.EnableCounter(t)

	masterTimer = t
	RecordEvent(EvtMaster, t, period, prescaler)
	DebugPrintln("[SYNC] master " + t.String() + " pulse every " + utoa(updatePeriod) + " ticks")
	return nil
}

// MasterTrigger returns the trigger input on which slave receives the
// designated master's pulse.
func MasterTrigger(slave TimerID) (TriggerInput, error) {
	if masterTimer == 0 {
		return 0, configError("master trigger", slave, 0, ErrNoMaster)
	}
	drv := MustTimer()
	if !drv.Has(slave) {
		return 0, configError("master trigger", slave, 0, ErrNoSuchTimer)
	}
	trig, ok := drv.InternalTrigger(slave, masterTimer)
	if !ok {
		return 0, configError("master trigger", slave, 0, ErrTriggerRoute)
	}
	return trig, nil
}

// AttachSlave configures cfg.Timer as a slave that resets on every master
// pulse seen on trig. The slave is left stopped until StartSlaves.
func AttachSlave(cfg TimerConfig, trig TriggerInput) (*PWMTimer, error) {
	const op = "attach slave"
	drv := MustTimer()

	switch {
	case !drv.Has(cfg.Timer):
		return nil, configError(op, cfg.Timer, 0, ErrNoSuchTimer)
	case masterTimer == 0:
		return nil, configError(op, cfg.Timer, 0, ErrNoMaster)
	case cfg.Timer == masterTimer:
		return nil, configError(op, cfg.Timer, 0, ErrSlaveIsMaster)
	case !drv.Running(masterTimer):
		// A slave waiting on a stopped master never leaves reset
		return nil, configError(op, cfg.Timer, 0, ErrMasterNotRunning)
	case cfg.Mode != EdgeAligned:
		return nil, configError(op, cfg.Timer, 0, ErrCenterAlignedSlave)
	}
	if want, ok := drv.InternalTrigger(cfg.Timer, masterTimer); !ok || want != trig {
		return nil, configError(op, cfg.Timer, 0, ErrTriggerRoute)
	}

	p, err := configureTimer(op, cfg, RoleSlave)
	if err != nil {
		return nil, err
	}
	drv.SetSlaveMode(cfg.Timer, SlaveReset, trig)
	p.Trigger = trig

	slaveTimers = append(slaveTimers, cfg.Timer)
	RecordEvent(EvtSlaveAttach, cfg.Timer, uint32(masterTimer), uint32(trig))
	return p, nil
}

// StartSlaves loads every slave's initial registers with an update event and
// then starts all slave counters.
func StartSlaves() error {
	if masterTimer == 0 {
		return configError("start slaves", 0, 0, ErrNoMaster)
	}
	drv := MustTimer()
	for _, t := range slaveTimers {
		drv.GenerateUpdate(t)
		drv.ClearUpdateFlag(t)
	}
	for _, t := range slaveTimers {
		drv.EnableCounter(t)
		RecordEvent(EvtSlaveStart, t, 0, 0)
	}
	DebugPrintln("[SYNC] started " + itoa(len(slaveTimers)) + " slaves on " + masterTimer.String())
	return nil
}

// Master returns the designated master timer, if any
func Master() (TimerID, bool) {
	return masterTimer, masterTimer != 0
}

// Slaves returns the attached slave timers in attach order
func Slaves() []TimerID {
	return append([]TimerID(nil), slaveTimers...)
}

// forgetSync drops t from any synchronization relationship before it is
// reconfigured.
func forgetSync(t TimerID) {
	if masterTimer == t {
		masterTimer = 0
	}
	for i, s := range slaveTimers {
		if s == t {
			slaveTimers = append(slaveTimers[:i], slaveTimers[i+1:]...)
			break
		}
	}
}
