//go:build stm32f4disco

package main

import (
	"machine"
	"runtime/volatile"
	"unsafe"

	"pwmsync/core"
)

// rccRegs covers the RCC registers up to the APB2 clock enables
type rccRegs struct {
	CR       volatile.Register32 // 0x00
	PLLCFGR  volatile.Register32 // 0x04
	CFGR     volatile.Register32 // 0x08
	CIR      volatile.Register32 // 0x0C
	AHB1RSTR volatile.Register32 // 0x10
	AHB2RSTR volatile.Register32 // 0x14
	AHB3RSTR volatile.Register32 // 0x18
	_        volatile.Register32 // 0x1C
	APB1RSTR volatile.Register32 // 0x20
	APB2RSTR volatile.Register32 // 0x24
	_        [2]volatile.Register32
	AHB1ENR  volatile.Register32 // 0x30
	AHB2ENR  volatile.Register32 // 0x34
	AHB3ENR  volatile.Register32 // 0x38
	_        volatile.Register32 // 0x3C
	APB1ENR  volatile.Register32 // 0x40
	APB2ENR  volatile.Register32 // 0x44
}

var rcc = (*rccRegs)(unsafe.Pointer(uintptr(0x40023800)))

const (
	rccCFGR_HPRE_Pos  = 4
	rccCFGR_PPRE1_Pos = 10
	rccCFGR_PPRE2_Pos = 13
)

// rccClock reports the clock tree the runtime brought up before main.
// The PLL is not reprogrammed here: TinyGo's runtime owns it.
type rccClock struct{}

func (rccClock) SetCoreClock(hz uint32) error {
	if machine.CPUFrequency() != hz {
		return core.ErrClockMismatch
	}
	return nil
}

func (rccClock) CoreClock() uint32 {
	return machine.CPUFrequency()
}

// TimerClock returns the timer kernel clock. Timers on a divided APB bus
// run at twice the bus clock.
func (c rccClock) TimerClock(t core.TimerID) uint32 {
	ahb := c.ahbClock()
	pos := uint32(rccCFGR_PPRE1_Pos)
	if t == core.TIM1 || t == core.TIM8 {
		pos = rccCFGR_PPRE2_Pos
	}
	ppre := (rcc.CFGR.Get() >> pos) & 0x7
	if ppre < 4 {
		return ahb
	}
	div := uint32(1) << (ppre - 3)
	return ahb / div * 2
}

func (rccClock) ahbClock() uint32 {
	hpre := (rcc.CFGR.Get() >> rccCFGR_HPRE_Pos) & 0xF
	if hpre < 8 {
		return machine.CPUFrequency()
	}
	// 1000 -> /2 ... 1011 -> /16, 1100 -> /64 ... 1111 -> /512
	shift := hpre - 7
	if hpre >= 12 {
		shift++
	}
	return machine.CPUFrequency() >> shift
}
