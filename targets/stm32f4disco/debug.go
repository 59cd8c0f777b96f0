//go:build stm32f4disco

package main

import (
	"machine"

	"pwmsync/core"
)

var (
	debugUART    *machine.UART
	debugEnabled bool
)

// InitDebugUART brings up the default UART (USART2, TX=PA2, RX=PA3) at
// 115200 baud and routes core debug output to it
func InitDebugUART() {
	debugUART = machine.DefaultUART

	err := debugUART.Configure(machine.UARTConfig{BaudRate: 115200})
	if err != nil {
		debugEnabled = false
		return
	}
	debugEnabled = true

	core.SetDebugWriter(DebugPrintln)
	core.SetDebugEnabled(true)

	DebugPrintln("[BOOT] debug UART 115200 on PA2")
}

// DebugPrintln writes a string to the debug UART with newline
func DebugPrintln(s string) {
	if !debugEnabled || debugUART == nil {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
