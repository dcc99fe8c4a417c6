package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nutribook/nutribook/services/booking-service/internal/model"
)

type AppointmentStore interface {
	Reserve(ctx context.Context, slotID, userID, idemKey string) (model.Appointment, bool, error)
	Cancel(ctx context.Context, appointmentID, requestedBy string, elevated bool) (model.Appointment, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Appointment, error)
}

type AppointmentHandler struct {
	store  AppointmentStore
	logger *slog.Logger
}

func NewAppointmentHandler(store AppointmentStore, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{store: store, logger: logger}
}

type reserveRequest struct {
	SlotID string `json:"slot_id"`
}

type appointmentItem struct {
	AppointmentID string `json:"appointment_id"`
	UserID        string `json:"user_id"`
	ServiceID     string `json:"service_id"`
	SlotID        string `json:"slot_id"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	CancelledAt   string `json:"cancelled_at,omitempty"`
}

func appointmentToItem(appt model.Appointment) appointmentItem {
	item := appointmentItem{
		AppointmentID: appt.ID,
		UserID:        appt.UserID,
		ServiceID:     appt.ServiceID,
		SlotID:        appt.SlotID,
		Status:        appt.Status,
		CreatedAt:     appt.CreatedAt.UTC().Format(time.RFC3339),
	}
	if appt.CancelledAt != nil {
		item.CancelledAt = appt.CancelledAt.UTC().Format(time.RFC3339)
	}
	return item
}

// Reserve books a time slot for the authenticated user. Exactly one of any
// set of concurrent requests for the same slot succeeds; the rest get 409.
// An Idempotency-Key header makes retries replay the original booking with
// 200 instead of creating a second one.
func (h *AppointmentHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SlotID = strings.TrimSpace(req.SlotID)
	if req.SlotID == "" {
		http.Error(w, "slot_id required", http.StatusBadRequest)
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	appt, replayed, err := h.store.Reserve(r.Context(), req.SlotID, userID, idemKey)
	if err != nil {
		writeDomainError(w, h.logger, err, "failed to reserve slot")
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, appointmentToItem(appt))
}

type cancelRequest struct {
	AppointmentID string `json:"appointment_id"`
}

// Cancel releases the appointment's slot back to available. Repeating a
// cancel returns the stored cancelled appointment with 200.
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	role := strings.TrimSpace(r.Header.Get("X-Role"))
	elevated := role == "admin" || role == "dietitian"

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	appt, err := h.store.Cancel(r.Context(), req.AppointmentID, userID, elevated)
	if err != nil {
		writeDomainError(w, h.logger, err, "failed to cancel appointment")
		return
	}
	writeJSON(w, http.StatusOK, appointmentToItem(appt))
}

// List returns the authenticated user's appointments, newest first.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	appts, err := h.store.ListByUser(r.Context(), userID, limit)
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		items = append(items, appointmentToItem(appt))
	}
	writeJSON(w, http.StatusOK, items)
}
