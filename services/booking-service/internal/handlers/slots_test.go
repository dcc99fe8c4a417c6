package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nutribook/nutribook/services/booking-service/internal/storage"
)

func TestGenerateSlots(t *testing.T) {
	store := newFakeStore()
	store.catalog["svc-1"] = storage.CatalogEntry{ServiceID: "svc-1", Name: "Initial consultation", DurationMinutes: 30, Active: true}
	h := NewSlotHandler(store, catalogFake{s: store}, testLogger())

	body := `{"service_id":"svc-1","from_date":"2024-06-03","start_time":"09:00","end_time":"10:00"}`
	rec := httptest.NewRecorder()
	h.Generate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/slots/generate", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp generateSlotsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// 09:00-10:00 with the service's 30 minute duration fits exactly two slots.
	if resp.Generated != 2 || resp.Inserted != 2 || resp.Skipped != 0 {
		t.Fatalf("unexpected counts: %+v", resp)
	}

	// Re-running the same request inserts nothing new.
	rec = httptest.NewRecorder()
	h.Generate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/slots/generate", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on rerun, got %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Inserted != 0 || resp.Skipped != 2 {
		t.Fatalf("rerun should skip existing slots: %+v", resp)
	}
}

func TestGenerateSlotsValidation(t *testing.T) {
	store := newFakeStore()
	h := NewSlotHandler(store, catalogFake{s: store}, testLogger())

	cases := []struct {
		name string
		body string
	}{
		{"missing service", `{"from_date":"2024-06-03"}`},
		{"bad date", `{"service_id":"svc-1","from_date":"June 3rd"}`},
		{"unknown service for duration", `{"service_id":"nope","from_date":"2024-06-03"}`},
		{"zero duration", `{"service_id":"svc-1","from_date":"2024-06-03","duration_minutes":-5}`},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.Generate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/slots/generate", strings.NewReader(tc.body)))
		if rec.Code == http.StatusOK {
			t.Fatalf("%s: expected failure, got 200", tc.name)
		}
	}
}

func TestGenerateAll(t *testing.T) {
	store := newFakeStore()
	store.catalog["svc-1"] = storage.CatalogEntry{ServiceID: "svc-1", Name: "Initial consultation", DurationMinutes: 60, Active: true}
	store.catalog["svc-2"] = storage.CatalogEntry{ServiceID: "svc-2", Name: "Follow-up", DurationMinutes: 30, Active: true}
	store.catalog["svc-3"] = storage.CatalogEntry{ServiceID: "svc-3", Name: "Retired plan", DurationMinutes: 30, Active: false}
	h := NewSlotHandler(store, catalogFake{s: store}, testLogger())

	body := `{"from_date":"2024-06-03","to_date":"2024-06-04","start_time":"09:00","end_time":"11:00"}`
	rec := httptest.NewRecorder()
	h.GenerateAll(rec, httptest.NewRequest(http.MethodPost, "/api/v1/slots/generate-all", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var results []generateSlotsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// Inactive services are skipped entirely.
	if len(results) != 2 {
		t.Fatalf("expected 2 services, got %d", len(results))
	}
	totals := map[string]int{}
	for _, r := range results {
		totals[r.ServiceID] = r.Inserted
	}
	// Two days, 09:00-11:00: four 30-minute slots or two 60-minute slots per day.
	if totals["svc-1"] != 4 || totals["svc-2"] != 8 {
		t.Fatalf("unexpected inserted counts: %v", totals)
	}
}

func TestPublicSlots(t *testing.T) {
	store := newFakeStore()
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	first := store.addSlot("svc-1", day.Add(9*time.Hour), 30*time.Minute)
	store.addSlot("svc-1", day.Add(10*time.Hour), 30*time.Minute)
	store.addSlot("svc-2", day.Add(9*time.Hour), 30*time.Minute)
	store.addSlot("svc-1", day.AddDate(0, 0, 1).Add(9*time.Hour), 30*time.Minute)
	h := NewSlotHandler(store, catalogFake{s: store}, testLogger())

	rec := httptest.NewRecorder()
	h.PublicSlots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?service_id=svc-1&date=2024-06-03", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var items []slotItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 slots for svc-1 on the day, got %d", len(items))
	}
	if items[0].StartTime != "2024-06-03T09:00:00Z" {
		t.Fatalf("slots not ordered by start time: %+v", items)
	}

	// A booked slot drops out of the public listing.
	ah := NewAppointmentHandler(store, testLogger())
	rec = httptest.NewRecorder()
	ah.Reserve(rec, reserveReq(first, "user-1", ""))
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed booking failed: %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.PublicSlots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?service_id=svc-1&date=2024-06-03", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 available slot after booking, got %d", len(items))
	}
}

func TestPublicSlotsValidation(t *testing.T) {
	store := newFakeStore()
	h := NewSlotHandler(store, catalogFake{s: store}, testLogger())

	rec := httptest.NewRecorder()
	h.PublicSlots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?service_id=svc-1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without date, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.PublicSlots(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?service_id=svc-1&date=garbage", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rec.Code)
	}
}
