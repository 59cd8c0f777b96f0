//go:build stm32f4disco

package main

import (
	"pwmsync/core"
	"pwmsync/generator"
	"pwmsync/generator/config"
)

// profileName selects the profile this image runs. Override at build time:
//
//	tinygo flash -target=stm32f4disco -ldflags="-X main.profileName=synchronized" ./targets/stm32f4disco
var profileName = "independent"

// GetProfile returns the profile selected by profileName, moved onto
// timers the runtime leaves free
func GetProfile() *generator.Profile {
	var p *generator.Profile
	switch generator.Mode(profileName) {
	case generator.ModeSynchronized:
		p = config.DefaultSynchronized()
	case generator.ModeCenterAligned:
		p = config.DefaultCenterAligned()
	case generator.ModeTimeBase:
		p = config.DefaultTimeBase()
	default:
		p = config.DefaultIndependent()
	}
	remapForBoard(p)
	return p
}

// remapForBoard moves outputs off resources the runtime owns on this board.
// The TinyGo runtime drives its sleep clock from TIM3, so the TIM3 outputs
// move to TIM4 channels 3/4 on the red and blue LEDs (PD14, PD15) and TIM1
// takes over as master. PA2 carries the debug UART, so TIM2 OC3 moves to PB10.
func remapForBoard(p *generator.Profile) {
	for i := range p.Timers {
		t := &p.Timers[i]
		for j := range t.Channels {
			ch := &t.Channels[j]
			switch core.TimerID(t.Timer) {
			case core.TIM3:
				ch.Pin = generator.PinConfig{Port: "D", Pin: 11 + ch.Channel}
				ch.AF = 2
			case core.TIM2:
				if ch.Pin == (generator.PinConfig{Port: "A", Pin: 2}) {
					ch.Pin = generator.PinConfig{Port: "B", Pin: 10}
				}
			}
		}
		if core.TimerID(t.Timer) == core.TIM3 {
			t.Timer = uint8(core.TIM4)
		}
	}
	if p.Mode == generator.ModeSynchronized {
		p.MasterTimer = uint8(core.TIM1)
	}
}
