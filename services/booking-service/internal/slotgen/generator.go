package slotgen

import (
	"fmt"
	"time"

	"github.com/nutribook/nutribook/services/booking-service/internal/domain"
)

// Slot is one candidate interval produced by the generator. Candidates are
// half-open [Start, End) and never overlap within a day.
type Slot struct {
	Start time.Time
	End   time.Time
}

// DaySlots returns consecutive candidate slots of length duration within the
// working window [startClock, endClock) of the given calendar day. Clocks use
// "15:04" notation and are interpreted in day's location. A trailing remainder
// shorter than duration is not emitted.
func DaySlots(day time.Time, startClock, endClock string, duration time.Duration) ([]Slot, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", domain.ErrValidation)
	}
	start, err := clockOn(day, startClock)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start time %q", domain.ErrValidation, startClock)
	}
	end, err := clockOn(day, endClock)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end time %q", domain.ErrValidation, endClock)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: working hours end must be after start", domain.ErrValidation)
	}

	var slots []Slot
	for t := start; !t.Add(duration).After(end); t = t.Add(duration) {
		slots = append(slots, Slot{Start: t, End: t.Add(duration)})
	}
	return slots, nil
}

// RangeSlots generates candidates for every calendar day in [from, to]
// inclusive. from and to are dates (time-of-day ignored).
func RangeSlots(from, to time.Time, startClock, endClock string, duration time.Duration) ([]Slot, error) {
	fromDay := truncateToDay(from)
	toDay := truncateToDay(to)
	if toDay.Before(fromDay) {
		return nil, fmt.Errorf("%w: date range end before start", domain.ErrValidation)
	}

	var slots []Slot
	for day := fromDay; !day.After(toDay); day = day.AddDate(0, 0, 1) {
		daySlots, err := DaySlots(day, startClock, endClock, duration)
		if err != nil {
			return nil, err
		}
		slots = append(slots, daySlots...)
	}
	return slots, nil
}

func clockOn(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
