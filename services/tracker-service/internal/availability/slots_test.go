package availability

import (
	"testing"
	"time"
)

func TestAvailableSlots_AvoidsBusyIntervals(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	windowStart := day.Add(9 * time.Hour)
	windowEnd := day.Add(11 * time.Hour)

	busy := []Interval{
		{Start: day.Add(9*time.Hour + 30*time.Minute), End: day.Add(10*time.Hour + 30*time.Minute)},
	}

	slots := AvailableSlots(windowStart, windowEnd, 30*time.Minute, 30*time.Minute, busy, day)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[0].Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("expected first slot 09:00, got %s", slots[0].Format(time.RFC3339))
	}
	if !slots[1].Equal(day.Add(10*time.Hour + 30*time.Minute)) {
		t.Fatalf("expected second slot 10:30, got %s", slots[1].Format(time.RFC3339))
	}
}

func TestAvailableSlots_AdjacentBusyDoesNotBlock(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	windowStart := day.Add(9 * time.Hour)
	windowEnd := day.Add(10 * time.Hour)

	// Busy ends exactly where a slot starts; half-open intervals do not touch.
	busy := []Interval{
		{Start: day.Add(8 * time.Hour), End: day.Add(9 * time.Hour)},
	}

	slots := AvailableSlots(windowStart, windowEnd, 60*time.Minute, 30*time.Minute, busy, day)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if !slots[0].Equal(windowStart) {
		t.Fatalf("expected slot at 09:00, got %s", slots[0].Format(time.RFC3339))
	}
}

func TestAvailableSlots_SkipsPastStarts(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	windowStart := day.Add(9 * time.Hour)
	windowEnd := day.Add(10 * time.Hour)

	now := day.Add(9*time.Hour + 16*time.Minute)
	slots := AvailableSlots(windowStart, windowEnd, 15*time.Minute, 15*time.Minute, nil, now)
	if len(slots) != 2 {
		t.Fatalf("expected 2 future slots, got %d", len(slots))
	}
	if !slots[0].Equal(day.Add(9*time.Hour + 30*time.Minute)) {
		t.Fatalf("expected first future slot 09:30, got %s", slots[0].Format(time.RFC3339))
	}
}

func TestAvailableSlots_DegenerateInputs(t *testing.T) {
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	if slots := AvailableSlots(day, day.Add(time.Hour), 0, 15*time.Minute, nil, day); slots != nil {
		t.Fatalf("zero duration: expected nil, got %d slots", len(slots))
	}
	if slots := AvailableSlots(day, day, 15*time.Minute, 15*time.Minute, nil, day); slots != nil {
		t.Fatalf("empty window: expected nil, got %d slots", len(slots))
	}
	if slots := AvailableSlots(day, day.Add(10*time.Minute), 15*time.Minute, 5*time.Minute, nil, day); slots != nil {
		t.Fatalf("window shorter than duration: expected nil, got %d slots", len(slots))
	}
}
