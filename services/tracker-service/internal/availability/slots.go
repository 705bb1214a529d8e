// Package availability computes open booking slots for the scheduling
// view from the current appointment load.
package availability

import "time"

// Interval is a half-open busy span, typically one appointment.
type Interval struct {
	Start time.Time
	End   time.Time
}

// AvailableSlots returns the start times within [windowStart, windowEnd)
// where an appointment of the given length would fit without touching
// any busy interval. Starts already in the past relative to now are
// skipped. All inputs are expected in the same location.
func AvailableSlots(windowStart, windowEnd time.Time, duration, step time.Duration, busy []Interval, now time.Time) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}
	if !windowEnd.After(windowStart) || windowStart.Add(duration).After(windowEnd) {
		return nil
	}

	var slots []time.Time
	for start := windowStart; !start.Add(duration).After(windowEnd); start = start.Add(step) {
		if start.Before(now) {
			continue
		}
		if free(start, start.Add(duration), busy) {
			slots = append(slots, start)
		}
	}
	return slots
}

// free reports whether [start, end) misses every busy interval. Two
// half-open spans overlap iff each starts before the other ends, so an
// appointment ending exactly when a slot begins does not block it.
func free(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		if start.Before(b.End) && b.Start.Before(end) {
			return false
		}
	}
	return true
}
