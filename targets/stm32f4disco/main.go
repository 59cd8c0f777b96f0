//go:build stm32f4disco

package main

import (
	"machine"
	"runtime"
	"time"

	"pwmsync/core"
	"pwmsync/generator"
	"pwmsync/generator/config"

	"tinygo.org/x/drivers/delay"
)

// pollInterval spaces the update loop's flag polls
const pollInterval = 25 * time.Microsecond

func main() {
	InitDebugUART()
	// Per-boundary duty logs go through the async queue
	core.InitAsyncDebug()

	core.SetClockDriver(rccClock{})
	core.SetPinDriver(gpioDriver{})
	core.SetTimerDriver(newTimerDriver())

	profile := GetProfile()
	// The runtime has already brought the PLL up; plan against what it chose
	profile.CoreClockHz = machine.CPUFrequency()
	if err := config.Validate(profile); err != nil {
		fail(err)
	}
	core.DebugPrintln("[BOOT] profile " + profileName)

	manager := generator.NewManager(profile)

	if profile.Mode == generator.ModeTimeBase {
		if err := manager.InitializeTimeBase(sysTickSource{}, nil); err != nil {
			fail(err)
		}
		for {
			time.Sleep(time.Second)
		}
	}

	if err := manager.Initialize(pollDelay); err != nil {
		fail(err)
	}
	core.DumpEventRing()
	manager.Run()
}

// pollDelay busy-waits, then lets the debug worker drain its queue
func pollDelay() {
	delay.Sleep(pollInterval)
	runtime.Gosched()
}

// fail reports a configuration error and blinks the red LED forever
func fail(err error) {
	core.DebugPrintln("[FAIL] " + err.Error())
	core.DumpEventRing()

	led := machine.LED_RED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}
}
