package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nutribook/nutribook/services/booking-service/internal/domain"
	"github.com/nutribook/nutribook/services/booking-service/internal/model"
	"github.com/nutribook/nutribook/services/booking-service/internal/slotgen"
	"github.com/nutribook/nutribook/services/booking-service/internal/storage"
)

type SlotStore interface {
	InsertGenerated(ctx context.Context, serviceID string, slots []slotgen.Slot) (int, error)
	ListAvailable(ctx context.Context, serviceID string, day time.Time) ([]model.TimeSlot, error)
}

type CatalogStore interface {
	Get(ctx context.Context, serviceID string) (storage.CatalogEntry, error)
	ListActive(ctx context.Context) ([]storage.CatalogEntry, error)
}

type SlotHandler struct {
	slots   SlotStore
	catalog CatalogStore
	logger  *slog.Logger
}

func NewSlotHandler(slots SlotStore, catalog CatalogStore, logger *slog.Logger) *SlotHandler {
	return &SlotHandler{slots: slots, catalog: catalog, logger: logger}
}

type generateSlotsRequest struct {
	ServiceID       string `json:"service_id"`
	FromDate        string `json:"from_date"`
	ToDate          string `json:"to_date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type generateSlotsResponse struct {
	ServiceID string `json:"service_id"`
	Generated int    `json:"generated"`
	Inserted  int    `json:"inserted"`
	Skipped   int    `json:"skipped"`
}

type slotItem struct {
	SlotID    string `json:"slot_id"`
	ServiceID string `json:"service_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

// Generate creates the slot grid for one service over a date range. Re-running
// the same request is safe: slots that already exist are skipped, never
// duplicated, and booked slots are untouched.
func (h *SlotHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req generateSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	if req.ServiceID == "" {
		http.Error(w, "service_id required", http.StatusBadRequest)
		return
	}

	resp, err := h.generateForService(r.Context(), req)
	if err != nil {
		writeDomainError(w, h.logger, err, "failed to generate slots")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type generateAllRequest struct {
	FromDate        string `json:"from_date"`
	ToDate          string `json:"to_date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

// GenerateAll runs slot generation for every active service in the catalog,
// using each service's own consultation duration unless an override is given.
func (h *SlotHandler) GenerateAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req generateAllRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	services, err := h.catalog.ListActive(r.Context())
	if err != nil {
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}

	results := make([]generateSlotsResponse, 0, len(services))
	for _, svc := range services {
		resp, err := h.generateForService(r.Context(), generateSlotsRequest{
			ServiceID:       svc.ServiceID,
			FromDate:        req.FromDate,
			ToDate:          req.ToDate,
			StartTime:       req.StartTime,
			EndTime:         req.EndTime,
			DurationMinutes: req.DurationMinutes,
		})
		if err != nil {
			writeDomainError(w, h.logger, err, "failed to generate slots")
			return
		}
		results = append(results, resp)
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *SlotHandler) generateForService(ctx context.Context, req generateSlotsRequest) (generateSlotsResponse, error) {
	fromDate := strings.TrimSpace(req.FromDate)
	toDate := strings.TrimSpace(req.ToDate)
	if toDate == "" {
		toDate = fromDate
	}
	from, err := time.ParseInLocation("2006-01-02", fromDate, time.UTC)
	if err != nil {
		return generateSlotsResponse{}, fmt.Errorf("invalid from_date: %w", domain.ErrValidation)
	}
	to, err := time.ParseInLocation("2006-01-02", toDate, time.UTC)
	if err != nil {
		return generateSlotsResponse{}, fmt.Errorf("invalid to_date: %w", domain.ErrValidation)
	}

	startClock := strings.TrimSpace(req.StartTime)
	if startClock == "" {
		startClock = "09:00"
	}
	endClock := strings.TrimSpace(req.EndTime)
	if endClock == "" {
		endClock = "17:00"
	}

	durationMins := req.DurationMinutes
	if durationMins == 0 {
		entry, err := h.catalog.Get(ctx, req.ServiceID)
		if err != nil {
			return generateSlotsResponse{}, err
		}
		durationMins = entry.DurationMinutes
	}

	slots, err := slotgen.RangeSlots(from, to, startClock, endClock, time.Duration(durationMins)*time.Minute)
	if err != nil {
		return generateSlotsResponse{}, err
	}

	inserted, err := h.slots.InsertGenerated(ctx, req.ServiceID, slots)
	if err != nil {
		return generateSlotsResponse{}, err
	}
	return generateSlotsResponse{
		ServiceID: req.ServiceID,
		Generated: len(slots),
		Inserted:  inserted,
		Skipped:   len(slots) - inserted,
	}, nil
}

// PublicSlots lists the still-bookable slots for a service on a given day.
func (h *SlotHandler) PublicSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	dateStr := strings.TrimSpace(r.URL.Query().Get("date"))
	if serviceID == "" || dateStr == "" {
		http.Error(w, "service_id and date are required", http.StatusBadRequest)
		return
	}
	day, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	slots, err := h.slots.ListAvailable(r.Context(), serviceID, day)
	if err != nil {
		http.Error(w, "failed to list slots", http.StatusInternalServerError)
		return
	}

	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotItem{
			SlotID:    s.ID,
			ServiceID: s.ServiceID,
			StartTime: s.StartTime.UTC().Format(time.RFC3339),
			EndTime:   s.EndTime.UTC().Format(time.RFC3339),
			Status:    string(s.Status),
		})
	}
	writeJSON(w, http.StatusOK, items)
}
