package slotgen

import (
	"errors"
	"testing"
	"time"

	"github.com/nutribook/nutribook/services/booking-service/internal/domain"
)

func TestDaySlots_Basic(t *testing.T) {
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	slots, err := DaySlots(day, "09:00", "10:00", 30*time.Minute)
	if err != nil {
		t.Fatalf("DaySlots failed: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[0].Start.Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("expected first slot 09:00, got %s", slots[0].Start.Format(time.RFC3339))
	}
	if !slots[0].End.Equal(day.Add(9*time.Hour + 30*time.Minute)) {
		t.Fatalf("expected first slot end 09:30, got %s", slots[0].End.Format(time.RFC3339))
	}
	if !slots[1].Start.Equal(day.Add(9*time.Hour + 30*time.Minute)) {
		t.Fatalf("expected second slot 09:30, got %s", slots[1].Start.Format(time.RFC3339))
	}
}

func TestDaySlots_DropsShortRemainder(t *testing.T) {
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	// 09:00-10:15 with 30-minute slots: 09:00 and 09:30 fit, 10:00-10:30 does not.
	slots, err := DaySlots(day, "09:00", "10:15", 30*time.Minute)
	if err != nil {
		t.Fatalf("DaySlots failed: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
}

func TestDaySlots_Validation(t *testing.T) {
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		start, end string
		duration   time.Duration
	}{
		{"end before start", "10:00", "09:00", 30 * time.Minute},
		{"end equals start", "09:00", "09:00", 30 * time.Minute},
		{"zero duration", "09:00", "10:00", 0},
		{"negative duration", "09:00", "10:00", -time.Minute},
		{"bad clock", "9am", "10:00", 30 * time.Minute},
	}
	for _, tc := range cases {
		if _, err := DaySlots(day, tc.start, tc.end, tc.duration); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestRangeSlots_MultipleDays(t *testing.T) {
	from := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)

	slots, err := RangeSlots(from, to, "09:00", "11:00", time.Hour)
	if err != nil {
		t.Fatalf("RangeSlots failed: %v", err)
	}
	// 2 slots per day across 3 days.
	if len(slots) != 6 {
		t.Fatalf("expected 6 slots, got %d", len(slots))
	}
	for i := 1; i < len(slots); i++ {
		if slots[i].Start.Before(slots[i-1].End) && slots[i].End.After(slots[i-1].Start) {
			t.Fatalf("slots %d and %d overlap", i-1, i)
		}
	}
}

func TestRangeSlots_RejectsReversedRange(t *testing.T) {
	from := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	if _, err := RangeSlots(from, to, "09:00", "10:00", 30*time.Minute); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
