package reports

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

func (h *Handler) DailyBookings(w http.ResponseWriter, r *http.Request) {
	h.rangeQuery(w, r, func(from, to time.Time) (any, error) {
		return h.repo.DailyBookings(r.Context(), from, to)
	})
}

func (h *Handler) DailyCalls(w http.ResponseWriter, r *http.Request) {
	h.rangeQuery(w, r, func(from, to time.Time) (any, error) {
		return h.repo.DailyCalls(r.Context(), from, to)
	})
}

func (h *Handler) DailyPlanOrders(w http.ResponseWriter, r *http.Request) {
	h.rangeQuery(w, r, func(from, to time.Time) (any, error) {
		return h.repo.DailyPlanOrders(r.Context(), from, to)
	})
}

func (h *Handler) DailySignups(w http.ResponseWriter, r *http.Request) {
	h.rangeQuery(w, r, func(from, to time.Time) (any, error) {
		return h.repo.DailySignups(r.Context(), from, to)
	})
}

// rangeQuery parses from/to dates (default: the trailing 30 days) and writes
// the query result as JSON.
func (h *Handler) rangeQuery(w http.ResponseWriter, r *http.Request, query func(from, to time.Time) (any, error)) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "invalid from date, want YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			http.Error(w, "invalid to date, want YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		to = t
	}
	if to.Before(from) {
		http.Error(w, "to must not be before from", http.StatusBadRequest)
		return
	}

	result, err := query(from, to)
	if err != nil {
		h.logger.Error("report query failed", "err", err, "path", r.URL.Path)
		http.Error(w, "failed to load report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
}
