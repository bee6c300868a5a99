package domain

import "time"

// FreezeClock pins the package clock to t until the returned func is called.
func FreezeClock(t time.Time) (restore func()) {
	prev := now
	now = func() time.Time { return t }
	return func() { now = prev }
}
