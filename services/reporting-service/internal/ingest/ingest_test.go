package ingest

import (
	"testing"
	"time"
)

func TestBookingDay(t *testing.T) {
	base := bookingPayload{
		AppointmentID: "appt-1",
		ServiceID:     "svc-1",
		StartTime:     "2026-03-02T09:00:00Z",
		CancelledAt:   "2026-03-01T18:30:00Z",
	}

	day, err := bookingDay(base, "booked")
	if err != nil {
		t.Fatalf("bookingDay failed: %v", err)
	}
	if day.Format("2006-01-02") != "2026-03-02" {
		t.Fatalf("booked should use start_time, got %v", day)
	}

	day, err = bookingDay(base, "cancelled")
	if err != nil {
		t.Fatalf("bookingDay failed: %v", err)
	}
	if day.Format("2006-01-02") != "2026-03-01" {
		t.Fatalf("cancelled should use cancelled_at, got %v", day)
	}

	missing := base
	missing.ServiceID = ""
	if _, err := bookingDay(missing, "booked"); err == nil {
		t.Fatal("expected error for missing service_id")
	}

	bad := base
	bad.StartTime = "not-a-time"
	if _, err := bookingDay(bad, "booked"); err == nil {
		t.Fatal("expected error for invalid start_time")
	}
}

func TestSessionWindow(t *testing.T) {
	payload := sessionEndedPayload{
		SessionID: "sess-1",
		CallType:  "video",
		StartedAt: "2026-03-02T09:00:00Z",
		EndedAt:   "2026-03-02T09:25:30Z",
	}
	startedAt, endedAt, err := sessionWindow(payload)
	if err != nil {
		t.Fatalf("sessionWindow failed: %v", err)
	}
	if got := endedAt.Sub(startedAt); got != 25*time.Minute+30*time.Second {
		t.Fatalf("unexpected duration %v", got)
	}

	payload.EndedAt = ""
	if _, _, err := sessionWindow(payload); err == nil {
		t.Fatal("expected error for missing ended_at")
	}
}

func TestOrderIncrements(t *testing.T) {
	cases := []struct {
		status    string
		placed    int
		confirmed int
		cancelled int
		ok        bool
	}{
		{"pending", 1, 0, 0, true},
		{"confirmed", 0, 1, 0, true},
		{"cancelled", 0, 0, 1, true},
		{"shipped", 0, 0, 0, false},
	}
	for _, tc := range cases {
		placed, confirmed, cancelled, ok := orderIncrements(tc.status)
		if placed != tc.placed || confirmed != tc.confirmed || cancelled != tc.cancelled || ok != tc.ok {
			t.Fatalf("orderIncrements(%q) = %d,%d,%d,%v", tc.status, placed, confirmed, cancelled, ok)
		}
	}
}
