package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func reserveReq(slotID, userID, idemKey string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(`{"slot_id":"`+slotID+`"}`))
	if userID != "" {
		r.Header.Set("X-User-Id", userID)
	}
	if idemKey != "" {
		r.Header.Set("Idempotency-Key", idemKey)
	}
	return r
}

func TestReserveSlot(t *testing.T) {
	store := newFakeStore()
	slotID := store.addSlot("svc-1", time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC), 30*time.Minute)
	h := NewAppointmentHandler(store, testLogger())

	rec := httptest.NewRecorder()
	h.Reserve(rec, reserveReq(slotID, "user-1", ""))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "booked" || resp.SlotID != slotID || resp.UserID != "user-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	// The slot is now booked: a second attempt conflicts.
	rec = httptest.NewRecorder()
	h.Reserve(rec, reserveReq(slotID, "user-2", ""))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for booked slot, got %d", rec.Code)
	}
}

func TestReserveRequiresAuth(t *testing.T) {
	store := newFakeStore()
	h := NewAppointmentHandler(store, testLogger())

	rec := httptest.NewRecorder()
	h.Reserve(rec, reserveReq("slot-1", "", ""))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestReserveUnknownSlot(t *testing.T) {
	store := newFakeStore()
	h := NewAppointmentHandler(store, testLogger())

	rec := httptest.NewRecorder()
	h.Reserve(rec, reserveReq("missing", "user-1", ""))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestReserveIdempotencyReplay(t *testing.T) {
	store := newFakeStore()
	slotID := store.addSlot("svc-1", time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC), 30*time.Minute)
	h := NewAppointmentHandler(store, testLogger())

	rec := httptest.NewRecorder()
	h.Reserve(rec, reserveReq(slotID, "user-1", "key-1"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var first appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	// Retry with the same key replays the original booking, no second row.
	rec = httptest.NewRecorder()
	h.Reserve(rec, reserveReq(slotID, "user-1", "key-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 replay, got %d", rec.Code)
	}
	var second appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if second.AppointmentID != first.AppointmentID {
		t.Fatalf("replay returned a different appointment: %s vs %s", second.AppointmentID, first.AppointmentID)
	}
}

func TestReserveConcurrentSingleWinner(t *testing.T) {
	store := newFakeStore()
	slotID := store.addSlot("svc-1", time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC), 30*time.Minute)
	h := NewAppointmentHandler(store, testLogger())

	const attempts = 20
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			h.Reserve(rec, reserveReq(slotID, "user-"+string(rune('a'+i)), ""))
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one winner, got %d", created)
	}
	if conflicts != attempts-1 {
		t.Fatalf("expected %d conflicts, got %d", attempts-1, conflicts)
	}
}

func TestCancelAppointment(t *testing.T) {
	store := newFakeStore()
	slotID := store.addSlot("svc-1", time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC), 30*time.Minute)
	h := NewAppointmentHandler(store, testLogger())

	rec := httptest.NewRecorder()
	h.Reserve(rec, reserveReq(slotID, "user-1", ""))
	var appt appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	cancelBody := `{"appointment_id":"` + appt.AppointmentID + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/cancel", strings.NewReader(cancelBody))
	req.Header.Set("X-User-Id", "user-1")
	rec = httptest.NewRecorder()
	h.Cancel(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var cancelled appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &cancelled); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if cancelled.Status != "cancelled" || cancelled.CancelledAt == "" {
		t.Fatalf("unexpected cancel response: %+v", cancelled)
	}

	// Cancel again: idempotent, same stored row back.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/appointments/cancel", strings.NewReader(cancelBody))
	req.Header.Set("X-User-Id", "user-1")
	rec = httptest.NewRecorder()
	h.Cancel(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat cancel, got %d", rec.Code)
	}

	// The slot is bookable again.
	rec = httptest.NewRecorder()
	h.Reserve(rec, reserveReq(slotID, "user-2", ""))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected slot to be available after cancel, got %d", rec.Code)
	}
}

func TestCancelOtherUsersAppointment(t *testing.T) {
	store := newFakeStore()
	slotID := store.addSlot("svc-1", time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC), 30*time.Minute)
	h := NewAppointmentHandler(store, testLogger())

	rec := httptest.NewRecorder()
	h.Reserve(rec, reserveReq(slotID, "user-1", ""))
	var appt appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	cancelBody := `{"appointment_id":"` + appt.AppointmentID + `"}`

	// Another client cannot cancel it, and must not learn it exists.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/cancel", strings.NewReader(cancelBody))
	req.Header.Set("X-User-Id", "user-2")
	rec = httptest.NewRecorder()
	h.Cancel(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign appointment, got %d", rec.Code)
	}

	// A dietitian can.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/appointments/cancel", strings.NewReader(cancelBody))
	req.Header.Set("X-User-Id", "user-3")
	req.Header.Set("X-Role", "dietitian")
	rec = httptest.NewRecorder()
	h.Cancel(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for dietitian cancel, got %d", rec.Code)
	}
}

func TestListAppointments(t *testing.T) {
	store := newFakeStore()
	h := NewAppointmentHandler(store, testLogger())
	for i := 0; i < 3; i++ {
		slotID := store.addSlot("svc-1", time.Date(2024, 6, 3, 9+i, 0, 0, 0, time.UTC), 30*time.Minute)
		rec := httptest.NewRecorder()
		h.Reserve(rec, reserveReq(slotID, "user-1", ""))
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed booking %d failed: %d", i, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	req.Header.Set("X-User-Id", "user-1")
	rec := httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var items []appointmentItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 appointments, got %d", len(items))
	}
}
