package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze "today" when
// exercising the current-day drop in the NOAA daily resample. Production code
// uses the real clock; tests inject a fake via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
