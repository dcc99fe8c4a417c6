package reports

import (
	"context"
	"time"

	"github.com/nutribook/nutribook/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

type BookingRow struct {
	Day            string `json:"day"`
	ServiceID      string `json:"service_id"`
	BookedCount    int64  `json:"booked_count"`
	CancelledCount int64  `json:"cancelled_count"`
}

func (r *Repository) DailyBookings(ctx context.Context, from, to time.Time) ([]BookingRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT day, service_id, booked_count, cancelled_count
		FROM daily_booking_metrics
		WHERE day >= $1::date AND day <= $2::date
		ORDER BY day, service_id
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BookingRow
	for rows.Next() {
		var row BookingRow
		var day time.Time
		if err := rows.Scan(&day, &row.ServiceID, &row.BookedCount, &row.CancelledCount); err != nil {
			return nil, err
		}
		row.Day = day.Format("2006-01-02")
		out = append(out, row)
	}
	return out, rows.Err()
}

type CallRow struct {
	Day                  string `json:"day"`
	CallType             string `json:"call_type"`
	TotalCalls           int64  `json:"total_calls"`
	EndedCount           int64  `json:"ended_count"`
	StaleCount           int64  `json:"stale_count"`
	TotalDurationSeconds int64  `json:"total_duration_seconds"`
}

func (r *Repository) DailyCalls(ctx context.Context, from, to time.Time) ([]CallRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT day, call_type, total_calls, ended_count, stale_count, total_duration_seconds
		FROM daily_call_metrics
		WHERE day >= $1::date AND day <= $2::date
		ORDER BY day, call_type
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallRow
	for rows.Next() {
		var row CallRow
		var day time.Time
		if err := rows.Scan(&day, &row.CallType, &row.TotalCalls, &row.EndedCount, &row.StaleCount, &row.TotalDurationSeconds); err != nil {
			return nil, err
		}
		row.Day = day.Format("2006-01-02")
		out = append(out, row)
	}
	return out, rows.Err()
}

type PlanOrderRow struct {
	Day            string `json:"day"`
	PlacedCount    int64  `json:"placed_count"`
	ConfirmedCount int64  `json:"confirmed_count"`
	CancelledCount int64  `json:"cancelled_count"`
}

func (r *Repository) DailyPlanOrders(ctx context.Context, from, to time.Time) ([]PlanOrderRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT day, placed_count, confirmed_count, cancelled_count
		FROM daily_plan_order_metrics
		WHERE day >= $1::date AND day <= $2::date
		ORDER BY day
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlanOrderRow
	for rows.Next() {
		var row PlanOrderRow
		var day time.Time
		if err := rows.Scan(&day, &row.PlacedCount, &row.ConfirmedCount, &row.CancelledCount); err != nil {
			return nil, err
		}
		row.Day = day.Format("2006-01-02")
		out = append(out, row)
	}
	return out, rows.Err()
}

type SignupRow struct {
	Day         string `json:"day"`
	Role        string `json:"role"`
	SignupCount int64  `json:"signup_count"`
}

func (r *Repository) DailySignups(ctx context.Context, from, to time.Time) ([]SignupRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT day, role, signup_count
		FROM daily_signup_metrics
		WHERE day >= $1::date AND day <= $2::date
		ORDER BY day, role
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SignupRow
	for rows.Next() {
		var row SignupRow
		var day time.Time
		if err := rows.Scan(&day, &row.Role, &row.SignupCount); err != nil {
			return nil, err
		}
		row.Day = day.Format("2006-01-02")
		out = append(out, row)
	}
	return out, rows.Err()
}
