//go:build stm32f4disco

package main

import (
	"runtime/volatile"
	"unsafe"

	"pwmsync/core"
)

type sysTickRegs struct {
	CSR   volatile.Register32
	RVR   volatile.Register32
	CVR   volatile.Register32
	CALIB volatile.Register32
}

var sysTick = (*sysTickRegs)(unsafe.Pointer(uintptr(0xE000E010)))

const (
	sysTickCSR_ENABLE  = 1 << 0
	sysTickCSR_TICKINT = 1 << 1
	// CLKSOURCE (bit 2) left clear: SysTick counts the AHB clock divided by 8
)

var sysTickHandler func()

// sysTickSource implements core.TickSource on the Cortex-M SysTick timer
type sysTickSource struct{}

func (sysTickSource) StartTicks(rateHz uint32, handler func()) error {
	reload, err := core.SysTickReload(rccClock{}.ahbClock(), rateHz)
	if err != nil {
		return err
	}
	sysTickHandler = handler

	sysTick.CSR.Set(0)
	sysTick.RVR.Set(reload)
	sysTick.CVR.Set(0)
	sysTick.CSR.Set(sysTickCSR_ENABLE | sysTickCSR_TICKINT)
	return nil
}

//export SysTick_Handler
func handleSysTick() {
	if h := sysTickHandler; h != nil {
		h()
	}
}
