package core

import "time"

// Reference board clock. The HSI runs at 8 MHz; the PLL takes HSI/2 and
// multiplies by 16, giving 64 MHz on the core and on the timer inputs.
const (
	ReferenceClockHz = 8_000_000 / 2 * 16
	ReferencePWMHz   = 1_000

	// ReferencePeriod is the counter ticks per PWM cycle at the reference
	// clock with no prescaling: 64 MHz / 1 kHz = 64000.
	ReferencePeriod    = ReferenceClockHz / ReferencePWMHz
	ReferencePrescaler = 1
)

// Time base defaults: a 1 kHz tick and a 500 ms toggle give a 1 Hz square
// wave on the output.
const (
	TickRateHz     = 1_000
	ToggleInterval = 500 * time.Millisecond

	// SysTick counts the AHB clock divided by 8
	sysTickDivider = 8
	sysTickMaxLoad = 1<<24 - 1
)

// PlanPWM splits timerClock/pwmHz counter ticks into a period and the smallest
// prescaler that keeps the period within maxPeriod.
func PlanPWM(timerClock, pwmHz, maxPeriod uint32) (period, prescaler uint32, err error) {
	if pwmHz == 0 || timerClock/pwmHz < 2 {
		return 0, 0, ErrInvalidFrequency
	}
	total := timerClock / pwmHz
	prescaler = ceilDiv(total, maxPeriod)
	if prescaler > 1<<16 {
		return 0, 0, ErrPeriodOverflow
	}
	return total / prescaler, prescaler, nil
}

// splitTicks factors total counter ticks into period*prescaler exactly,
// choosing the smallest prescaler whose period fits maxPeriod.
func splitTicks(total, maxPeriod uint32) (period, prescaler uint32, ok bool) {
	if total == 0 {
		return 0, 0, false
	}
	for prescaler = ceilDiv(total, maxPeriod); prescaler <= 1<<16; prescaler++ {
		if total%prescaler == 0 {
			return total / prescaler, prescaler, true
		}
	}
	return 0, 0, false
}

func ceilDiv(a, b uint32) uint32 {
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}

// TickThreshold returns how many ticks at tickRate make up interval.
func TickThreshold(tickRate uint32, interval time.Duration) (uint32, error) {
	if tickRate == 0 || interval <= 0 {
		return 0, ErrInvalidTickRate
	}
	n := uint64(tickRate) * uint64(interval) / uint64(time.Second)
	if n == 0 || n > 1<<32-1 {
		return 0, ErrInvalidTickRate
	}
	return uint32(n), nil
}

// SysTickReload returns the reload value for a tickRate interrupt with the
// SysTick clocked from AHB/8. At 64 MHz and 1 kHz this is 7999.
func SysTickReload(coreClock, tickRate uint32) (uint32, error) {
	if tickRate == 0 {
		return 0, ErrInvalidTickRate
	}
	counts := coreClock / sysTickDivider / tickRate
	if counts == 0 || counts-1 > sysTickMaxLoad {
		return 0, ErrInvalidTickRate
	}
	return counts - 1, nil
}

// DutyFraction is the fraction of a period a channel is asserted.
// Compare values above the period saturate at 1.
func DutyFraction(compare, period uint32) float64 {
	if period == 0 {
		return 0
	}
	if compare > period {
		compare = period
	}
	return float64(compare) / float64(period)
}

// CompareForPermille converts a duty in parts per thousand into a compare value.
func CompareForPermille(permille, period uint32) uint32 {
	return uint32(uint64(permille) * uint64(period) / 1000)
}
