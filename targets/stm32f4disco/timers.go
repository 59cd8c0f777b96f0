//go:build stm32f4disco

package main

import (
	"runtime/volatile"
	"unsafe"

	"pwmsync/core"
)

// timRegs is the register block shared by TIM1-TIM5 and TIM8
type timRegs struct {
	CR1   volatile.Register32 // 0x00
	CR2   volatile.Register32 // 0x04
	SMCR  volatile.Register32 // 0x08
	DIER  volatile.Register32 // 0x0C
	SR    volatile.Register32 // 0x10
	EGR   volatile.Register32 // 0x14
	CCMR1 volatile.Register32 // 0x18
	CCMR2 volatile.Register32 // 0x1C
	CCER  volatile.Register32 // 0x20
	CNT   volatile.Register32 // 0x24
	PSC   volatile.Register32 // 0x28
	ARR   volatile.Register32 // 0x2C
	RCR   volatile.Register32 // 0x30
	CCR   [4]volatile.Register32
	BDTR  volatile.Register32 // 0x44
}

const (
	timCR1_CEN      = 1 << 0
	timCR1_OPM      = 1 << 3
	timCR1_DIR      = 1 << 4
	timCR1_CMS_Pos  = 5
	timCR1_CMS_Msk  = 0x3 << timCR1_CMS_Pos
	timCR1_ARPE     = 1 << 7
	timCR2_MMS_Pos  = 4
	timCR2_MMS_Msk  = 0x7 << timCR2_MMS_Pos
	timSMCR_SMS_Msk = 0x7
	timSMCR_TS_Pos  = 4
	timSMCR_TS_Msk  = 0x7 << timSMCR_TS_Pos
	timSR_UIF       = 1 << 0
	timEGR_UG       = 1 << 0
	timBDTR_MOE     = 1 << 15

	// Output compare fields of one channel within CCMRx
	timOCxPE      = 1 << 3
	timOCxM_Pos   = 4
	timOCxM_Msk   = 0x7 << timOCxM_Pos
	timOCxM_PWM1  = 0x6
	timCCMR_Shift = 8

	timSMS_Reset   = 0x4
	timSMS_Gated   = 0x5
	timSMS_Trigger = 0x6
	timSMS_ECM1    = 0x7
	timMMS_Reset   = 0x0
	timMMS_Enable  = 0x1
	timMMS_Update  = 0x2
)

// timerUnit is one physical timer: registers, clock gate and counter width
type timerUnit struct {
	regs     *timRegs
	enr      *volatile.Register32
	rstr     *volatile.Register32
	bit      uint32
	width    uint32
	advanced bool
}

// stm32TimerDriver implements core.TimerDriver on the STM32F4 timer blocks
type stm32TimerDriver struct {
	units map[core.TimerID]*timerUnit
}

func timAt(addr uintptr) *timRegs {
	return (*timRegs)(unsafe.Pointer(addr))
}

func newTimerDriver() *stm32TimerDriver {
	return &stm32TimerDriver{
		units: map[core.TimerID]*timerUnit{
			core.TIM1: {regs: timAt(0x40010000), enr: &rcc.APB2ENR, rstr: &rcc.APB2RSTR, bit: 1 << 0, width: 1 << 16, advanced: true},
			core.TIM2: {regs: timAt(0x40000000), enr: &rcc.APB1ENR, rstr: &rcc.APB1RSTR, bit: 1 << 0, width: 1<<32 - 1},
			core.TIM3: {regs: timAt(0x40000400), enr: &rcc.APB1ENR, rstr: &rcc.APB1RSTR, bit: 1 << 1, width: 1 << 16},
			core.TIM4: {regs: timAt(0x40000800), enr: &rcc.APB1ENR, rstr: &rcc.APB1RSTR, bit: 1 << 2, width: 1 << 16},
			core.TIM5: {regs: timAt(0x40000C00), enr: &rcc.APB1ENR, rstr: &rcc.APB1RSTR, bit: 1 << 3, width: 1<<32 - 1},
			core.TIM8: {regs: timAt(0x40010400), enr: &rcc.APB2ENR, rstr: &rcc.APB2RSTR, bit: 1 << 1, width: 1 << 16, advanced: true},
		},
	}
}

func (d *stm32TimerDriver) Has(t core.TimerID) bool {
	_, ok := d.units[t]
	return ok
}

func (d *stm32TimerDriver) unit(t core.TimerID) *timerUnit {
	u, ok := d.units[t]
	if !ok {
		panic("no such timer on this board")
	}
	return u
}

func (d *stm32TimerDriver) Reset(t core.TimerID) {
	u := d.unit(t)
	u.enr.SetBits(u.bit)
	u.rstr.SetBits(u.bit)
	u.rstr.ClearBits(u.bit)
}

func (d *stm32TimerDriver) SetMode(t core.TimerID, mode core.CountMode) {
	r := d.unit(t).regs
	r.CR1.ClearBits(timCR1_DIR | timCR1_OPM)
	r.CR1.ReplaceBits(uint32(mode), 0x3, timCR1_CMS_Pos)
}

func (d *stm32TimerDriver) SetPrescaler(t core.TimerID, divisor uint32) {
	d.unit(t).regs.PSC.Set(divisor - 1)
}

func (d *stm32TimerDriver) SetPeriod(t core.TimerID, period uint32) {
	d.unit(t).regs.ARR.Set(period - 1)
}

func (d *stm32TimerDriver) MaxPeriod(t core.TimerID) uint32 {
	return d.unit(t).width
}

func (d *stm32TimerDriver) EnablePreload(t core.TimerID) {
	d.unit(t).regs.CR1.SetBits(timCR1_ARPE)
}

// ccmr returns the capture/compare mode register and field shift of a channel
func (u *timerUnit) ccmr(ch core.Channel) (*volatile.Register32, uint8) {
	shift := uint8((ch-1)&1) * timCCMR_Shift
	if ch <= core.OC2 {
		return &u.regs.CCMR1, shift
	}
	return &u.regs.CCMR2, shift
}

func (d *stm32TimerDriver) ConfigurePWM(t core.TimerID, ch core.Channel, pol core.Polarity) {
	u := d.unit(t)
	reg, shift := u.ccmr(ch)
	reg.ReplaceBits(timOCxM_PWM1, 0x7, timOCxM_Pos+shift)
	reg.SetBits(timOCxPE << shift)

	ccxp := uint32(1) << (4*uint32(ch-1) + 1)
	if pol == core.ActiveLow {
		u.regs.CCER.SetBits(ccxp)
	} else {
		u.regs.CCER.ClearBits(ccxp)
	}
}

func (d *stm32TimerDriver) SetCompare(t core.TimerID, ch core.Channel, value uint32) {
	d.unit(t).regs.CCR[ch-1].Set(value)
}

func (d *stm32TimerDriver) EnableOutput(t core.TimerID, ch core.Channel) {
	u := d.unit(t)
	u.regs.CCER.SetBits(1 << (4 * uint32(ch-1)))
	if u.advanced {
		u.regs.BDTR.SetBits(timBDTR_MOE)
	}
}

func (d *stm32TimerDriver) SetMasterMode(t core.TimerID, mode core.MasterMode) {
	var mms uint32
	switch mode {
	case core.MasterEnable:
		mms = timMMS_Enable
	case core.MasterUpdate:
		mms = timMMS_Update
	default:
		mms = timMMS_Reset
	}
	d.unit(t).regs.CR2.ReplaceBits(mms, 0x7, timCR2_MMS_Pos)
}

func (d *stm32TimerDriver) SetSlaveMode(t core.TimerID, mode core.SlaveMode, trig core.TriggerInput) {
	var sms uint32
	switch mode {
	case core.SlaveReset:
		sms = timSMS_Reset
	case core.SlaveGated:
		sms = timSMS_Gated
	case core.SlaveTrigger:
		sms = timSMS_Trigger
	case core.SlaveExternalClock1:
		sms = timSMS_ECM1
	}
	r := d.unit(t).regs
	// TS must be written while SMS is disabled
	r.SMCR.ClearBits(timSMCR_SMS_Msk)
	r.SMCR.ReplaceBits(uint32(trig), 0x7, timSMCR_TS_Pos)
	r.SMCR.ReplaceBits(sms, 0x7, 0)
}

func (d *stm32TimerDriver) InternalTrigger(slave, master core.TimerID) (core.TriggerInput, bool) {
	return core.STM32InternalTrigger(slave, master)
}

func (d *stm32TimerDriver) GenerateUpdate(t core.TimerID) {
	d.unit(t).regs.EGR.Set(timEGR_UG)
}

func (d *stm32TimerDriver) EnableCounter(t core.TimerID) {
	d.unit(t).regs.CR1.SetBits(timCR1_CEN)
}

func (d *stm32TimerDriver) Running(t core.TimerID) bool {
	return d.unit(t).regs.CR1.HasBits(timCR1_CEN)
}

func (d *stm32TimerDriver) UpdateFlag(t core.TimerID) bool {
	return d.unit(t).regs.SR.HasBits(timSR_UIF)
}

func (d *stm32TimerDriver) ClearUpdateFlag(t core.TimerID) {
	// SR bits are rc_w0: writing 1 leaves the other flags alone
	d.unit(t).regs.SR.Set(^uint32(timSR_UIF))
}
