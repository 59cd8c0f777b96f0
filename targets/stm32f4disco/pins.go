//go:build stm32f4disco

package main

import (
	"runtime/volatile"
	"unsafe"

	"pwmsync/core"
)

type gpioRegs struct {
	MODER   volatile.Register32 // 0x00
	OTYPER  volatile.Register32 // 0x04
	OSPEEDR volatile.Register32 // 0x08
	PUPDR   volatile.Register32 // 0x0C
	IDR     volatile.Register32 // 0x10
	ODR     volatile.Register32 // 0x14
	BSRR    volatile.Register32 // 0x18
	LCKR    volatile.Register32 // 0x1C
	AFR     [2]volatile.Register32
}

const (
	gpioBase   = 0x40020000
	gpioStride = 0x400

	gpioModeOutput    = 0x1
	gpioModeAlternate = 0x2
	gpioSpeedHigh     = 0x2
)

func gpioPort(p core.Port) *gpioRegs {
	return (*gpioRegs)(unsafe.Pointer(uintptr(gpioBase + uintptr(p)*gpioStride)))
}

// gpioDriver implements core.PinDriver with direct register access, since
// machine.Pin has no alternate function API on this family
type gpioDriver struct{}

func (gpioDriver) enable(p core.Port) {
	rcc.AHB1ENR.SetBits(1 << uint32(p))
}

func (d gpioDriver) BindPin(fn core.PinFunction) error {
	if !fn.Valid() {
		return core.ErrInvalidPinFunction
	}
	d.enable(fn.Pin.Port)
	r := gpioPort(fn.Pin.Port)
	n := fn.Pin.Num

	r.AFR[n/8].ReplaceBits(uint32(fn.AF), 0xF, (n%8)*4)
	r.OTYPER.ClearBits(1 << n)
	r.OSPEEDR.ReplaceBits(gpioSpeedHigh, 0x3, n*2)
	r.PUPDR.ReplaceBits(0, 0x3, n*2)
	r.MODER.ReplaceBits(gpioModeAlternate, 0x3, n*2)
	return nil
}

func (d gpioDriver) ConfigureOutput(pin core.Pin) error {
	if !pin.Valid() {
		return core.ErrInvalidPinFunction
	}
	d.enable(pin.Port)
	r := gpioPort(pin.Port)
	r.OTYPER.ClearBits(1 << pin.Num)
	r.PUPDR.ReplaceBits(0, 0x3, pin.Num*2)
	r.BSRR.Set(1 << (pin.Num + 16))
	r.MODER.ReplaceBits(gpioModeOutput, 0x3, pin.Num*2)
	return nil
}

// Toggle goes through BSRR so the write is a single store
func (gpioDriver) Toggle(pin core.Pin) {
	r := gpioPort(pin.Port)
	if r.ODR.HasBits(1 << pin.Num) {
		r.BSRR.Set(1 << (pin.Num + 16))
	} else {
		r.BSRR.Set(1 << pin.Num)
	}
}
