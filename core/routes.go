package core

// Internal trigger routing for the STM32F3/F4 advanced and general-purpose
// timers (reference manual, "TIMx internal trigger connection"). Row is the
// slave, column the ITR line, value the master driving it. On the F3 the
// TIM5 entries are TIM15; this table uses the F4 names.
var itrRoutes = map[TimerID][4]TimerID{
	TIM1: {TIM5, TIM2, TIM3, TIM4},
	TIM2: {TIM1, TIM8, TIM3, TIM4},
	TIM3: {TIM1, TIM2, TIM5, TIM4},
	TIM4: {TIM1, TIM2, TIM3, TIM8},
	TIM5: {TIM2, TIM3, TIM4, TIM8},
	TIM8: {TIM1, TIM2, TIM4, TIM5},
}

// KnownTimer reports whether t is one of the timers the routing table covers
func KnownTimer(t TimerID) bool {
	_, ok := itrRoutes[t]
	return ok
}

// STM32InternalTrigger returns the ITR line on which slave receives master's TRGO
func STM32InternalTrigger(slave, master TimerID) (TriggerInput, bool) {
	row, ok := itrRoutes[slave]
	if !ok {
		return 0, false
	}
	for i, m := range row {
		if m == master {
			return TriggerInput(i), true
		}
	}
	return 0, false
}
