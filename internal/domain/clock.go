package domain

import "time"

// timestampPrecision is the finest resolution every supported store keeps.
const timestampPrecision = time.Microsecond

// now is replaced in tests that need a frozen clock.
var now = func() time.Time {
	return time.Now().UTC()
}

func currentTime() time.Time {
	return now().Truncate(timestampPrecision)
}

// nextTimestamp returns the current time, or prev plus one tick if the clock
// has not moved past prev. Mutations use it so UpdatedAt strictly increases.
func nextTimestamp(prev time.Time) time.Time {
	t := currentTime()
	if !t.After(prev) {
		return prev.Add(timestampPrecision)
	}
	return t
}
