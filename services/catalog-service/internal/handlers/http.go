package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nutribook/nutribook/services/catalog-service/internal/storage"
)

type Handler struct {
	repo *storage.Repository
}

func New(repo *storage.Repository) *Handler {
	return &Handler{repo: repo}
}

func userIDFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}

func roleFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Role"))
}

func serviceToMap(svc storage.ConsultationService) map[string]any {
	return map[string]any{
		"service_id":       svc.ID,
		"name":             svc.Name,
		"description":      svc.Description,
		"duration_minutes": svc.DurationMins,
		"price":            svc.Price,
		"active":           svc.Active,
		"created_at":       svc.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":       svc.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// UpsertService creates or updates a consultation service. Dietitian/admin
// only; the gateway injects the role header after verifying the token.
func (h *Handler) UpsertService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	role := roleFromHeader(r)
	if role != "admin" && role != "dietitian" {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req struct {
		ServiceID    string  `json:"service_id"`
		Name         string  `json:"name"`
		Description  string  `json:"description"`
		DurationMins int     `json:"duration_minutes"`
		Price        float64 `json:"price"`
		Active       *bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.DurationMins <= 0 {
		http.Error(w, "name and duration_minutes required", http.StatusBadRequest)
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	svc, err := h.repo.UpsertService(r.Context(), storage.ConsultationService{
		ID:           strings.TrimSpace(req.ServiceID),
		Name:         req.Name,
		Description:  req.Description,
		DurationMins: req.DurationMins,
		Price:        strconv.FormatFloat(req.Price, 'f', 2, 64),
		Active:       active,
	})
	if err != nil {
		http.Error(w, "failed to save service", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(serviceToMap(svc))
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Public listing only shows active services; staff can ask for everything.
	activeOnly := true
	role := roleFromHeader(r)
	if (role == "admin" || role == "dietitian") && r.URL.Query().Get("include_inactive") == "true" {
		activeOnly = false
	}

	services, err := h.repo.ListServices(r.Context(), activeOnly, 100)
	if err != nil {
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(services))
	for _, svc := range services {
		out = append(out, serviceToMap(svc))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	if serviceID == "" {
		http.Error(w, "service_id required", http.StatusBadRequest)
		return
	}

	svc, err := h.repo.GetService(r.Context(), serviceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load service", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(serviceToMap(svc))
}

func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	role := roleFromHeader(r)
	if role != "admin" && role != "dietitian" {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req struct {
		Name         string  `json:"name"`
		Description  string  `json:"description"`
		DurationDays int     `json:"duration_days"`
		Price        float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.DurationDays <= 0 {
		http.Error(w, "name and duration_days required", http.StatusBadRequest)
		return
	}

	id, err := h.repo.CreatePlan(r.Context(), storage.NutritionPlan{
		Name:         req.Name,
		Description:  strings.TrimSpace(req.Description),
		DurationDays: req.DurationDays,
		Price:        strconv.FormatFloat(req.Price, 'f', 2, 64),
		Active:       true,
	})
	if err != nil {
		http.Error(w, "failed to create plan", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	plans, err := h.repo.ListPlans(r.Context(), true, 100)
	if err != nil {
		http.Error(w, "failed to list plans", http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(plans))
	for _, p := range plans {
		out = append(out, map[string]any{
			"plan_id":       p.ID,
			"name":          p.Name,
			"description":   p.Description,
			"duration_days": p.DurationDays,
			"price":         p.Price,
			"created_at":    p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func orderToMap(o storage.PlanOrder) map[string]any {
	return map[string]any{
		"order_id":   o.ID,
		"user_id":    o.UserID,
		"plan_id":    o.PlanID,
		"status":     o.Status,
		"created_at": o.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at": o.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := userIDFromHeader(r)
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		PlanID string `json:"plan_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.PlanID = strings.TrimSpace(req.PlanID)
	if req.PlanID == "" {
		http.Error(w, "plan_id required", http.StatusBadRequest)
		return
	}

	order, err := h.repo.PlaceOrder(r.Context(), userID, req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			http.Error(w, "plan not found", http.StatusNotFound)
		case errors.Is(err, storage.ErrOrderState):
			http.Error(w, "plan is not active", http.StatusConflict)
		default:
			http.Error(w, "failed to place order", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(orderToMap(order))
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(string) (storage.PlanOrder, error)) {
	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" {
		http.Error(w, "order_id required", http.StatusBadRequest)
		return
	}

	order, err := fn(req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			http.Error(w, "order not found", http.StatusNotFound)
		case errors.Is(err, storage.ErrOrderState):
			http.Error(w, "order state does not allow this transition", http.StatusConflict)
		default:
			http.Error(w, "failed to update order", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(orderToMap(order))
}

// ConfirmOrder is a dietitian/admin action; there is no payment step, a
// confirmed order simply activates the plan for the user.
func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	role := roleFromHeader(r)
	if role != "admin" && role != "dietitian" {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	h.transition(w, r, func(id string) (storage.PlanOrder, error) {
		return h.repo.ConfirmOrder(r.Context(), id)
	})
}

// CancelOrder lets a user cancel their own order; staff may cancel any.
// Foreign orders come back as not-found, never forbidden.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := userIDFromHeader(r)
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	role := roleFromHeader(r)
	elevated := role == "admin" || role == "dietitian"
	h.transition(w, r, func(id string) (storage.PlanOrder, error) {
		return h.repo.CancelOrder(r.Context(), id, userID, elevated)
	})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := userIDFromHeader(r)
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	orders, err := h.repo.ListOrdersByUser(r.Context(), userID, 50)
	if err != nil {
		http.Error(w, "failed to list orders", http.StatusInternalServerError)
		return
	}
	out := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderToMap(o))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
