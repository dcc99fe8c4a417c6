// Package ingest folds platform events into the reporting tables. Raw events
// are kept in per-stream tables keyed by event id, aggregates are maintained
// with upserts so replays and redeliveries stay idempotent.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/nutribook/nutribook/libs/db"
	"github.com/nutribook/nutribook/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

type Ingestor struct {
	pool   *db.Pool
	logger *slog.Logger
}

func New(pool *db.Pool, logger *slog.Logger) *Ingestor {
	return &Ingestor{pool: pool, logger: logger}
}

type bookingPayload struct {
	AppointmentID string `json:"appointment_id"`
	UserID        string `json:"user_id"`
	ServiceID     string `json:"service_id"`
	StartTime     string `json:"start_time"`
	CancelledAt   string `json:"cancelled_at"`
}

func (i *Ingestor) AppointmentBooked(ctx context.Context, msg kafka.Message) error {
	return i.handleBookingEvent(ctx, msg, "booked")
}

func (i *Ingestor) AppointmentCancelled(ctx context.Context, msg kafka.Message) error {
	return i.handleBookingEvent(ctx, msg, "cancelled")
}

func (i *Ingestor) handleBookingEvent(ctx context.Context, msg kafka.Message, kind string) error {
	var payload bookingPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		i.logger.Error("invalid booking payload", "err", err, "topic", msg.Topic)
		return nil
	}
	day, err := bookingDay(payload, kind)
	if err != nil {
		i.logger.Error("invalid booking event", "err", err, "topic", msg.Topic)
		return nil
	}

	meta := kafkax.ExtractEventMeta(msg)

	tx, err := i.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO booking_events (event_id, event_type, appointment_id, service_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING
	`, meta.EventID, meta.EventType, payload.AppointmentID, payload.ServiceID, day)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}

	bookedInc := 0
	cancelledInc := 0
	if kind == "booked" {
		bookedInc = 1
	} else {
		cancelledInc = 1
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO daily_booking_metrics (service_id, day, booked_count, cancelled_count)
		VALUES ($1, $2::date, $3, $4)
		ON CONFLICT (service_id, day)
		DO UPDATE SET booked_count = daily_booking_metrics.booked_count + EXCLUDED.booked_count,
		              cancelled_count = daily_booking_metrics.cancelled_count + EXCLUDED.cancelled_count,
		              updated_at = now()
	`, payload.ServiceID, day, bookedInc, cancelledInc); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	i.logger.Info("booking metric recorded", "appointment_id", payload.AppointmentID, "event_type", meta.EventType)
	return nil
}

func bookingDay(payload bookingPayload, kind string) (time.Time, error) {
	if payload.AppointmentID == "" || payload.ServiceID == "" {
		return time.Time{}, errors.New("missing booking fields")
	}
	raw := payload.StartTime
	if kind == "cancelled" && payload.CancelledAt != "" {
		raw = payload.CancelledAt
	}
	if raw == "" {
		return time.Time{}, errors.New("missing event timestamp")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

type sessionEndedPayload struct {
	SessionID     string `json:"session_id"`
	AppointmentID string `json:"appointment_id"`
	CallType      string `json:"call_type"`
	Reason        string `json:"reason"`
	StartedAt     string `json:"started_at"`
	EndedAt       string `json:"ended_at"`
}

func (i *Ingestor) SessionEnded(ctx context.Context, msg kafka.Message) error {
	var payload sessionEndedPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		i.logger.Error("invalid session payload", "err", err, "topic", msg.Topic)
		return nil
	}
	startedAt, endedAt, err := sessionWindow(payload)
	if err != nil {
		i.logger.Error("invalid session event", "err", err, "topic", msg.Topic)
		return nil
	}
	durationSeconds := int64(endedAt.Sub(startedAt) / time.Second)
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	meta := kafkax.ExtractEventMeta(msg)

	tx, err := i.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO call_events (event_id, session_id, appointment_id, call_type, reason, started_at, ended_at, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
	`, meta.EventID, payload.SessionID, payload.AppointmentID, payload.CallType, payload.Reason, startedAt, endedAt, durationSeconds)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}

	endedInc := 0
	staleInc := 0
	if payload.Reason == "stale" {
		staleInc = 1
	} else {
		endedInc = 1
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO daily_call_metrics (call_type, day, total_calls, ended_count, stale_count, total_duration_seconds)
		VALUES ($1, $2::date, 1, $3, $4, $5)
		ON CONFLICT (call_type, day)
		DO UPDATE SET total_calls = daily_call_metrics.total_calls + 1,
		              ended_count = daily_call_metrics.ended_count + EXCLUDED.ended_count,
		              stale_count = daily_call_metrics.stale_count + EXCLUDED.stale_count,
		              total_duration_seconds = daily_call_metrics.total_duration_seconds + EXCLUDED.total_duration_seconds,
		              updated_at = now()
	`, payload.CallType, startedAt, endedInc, staleInc, durationSeconds); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	i.logger.Info("call metric recorded", "session_id", payload.SessionID, "reason", payload.Reason)
	return nil
}

func sessionWindow(payload sessionEndedPayload) (time.Time, time.Time, error) {
	if payload.SessionID == "" || payload.CallType == "" || payload.StartedAt == "" || payload.EndedAt == "" {
		return time.Time{}, time.Time{}, errors.New("missing session fields")
	}
	startedAt, err := time.Parse(time.RFC3339, payload.StartedAt)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endedAt, err := time.Parse(time.RFC3339, payload.EndedAt)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return startedAt.UTC(), endedAt.UTC(), nil
}

type planOrderPayload struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	PlanID  string `json:"plan_id"`
	Status  string `json:"status"`
}

// PlanOrderEvent handles the placed/confirmed/cancelled order topics. The
// payload status names the transition so one handler serves all three.
func (i *Ingestor) PlanOrderEvent(ctx context.Context, msg kafka.Message) error {
	var payload planOrderPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		i.logger.Error("invalid plan order payload", "err", err, "topic", msg.Topic)
		return nil
	}
	if payload.OrderID == "" || payload.PlanID == "" {
		i.logger.Error("missing plan order fields", "topic", msg.Topic)
		return nil
	}
	placedInc, confirmedInc, cancelledInc, ok := orderIncrements(payload.Status)
	if !ok {
		i.logger.Error("unknown plan order status", "status", payload.Status, "topic", msg.Topic)
		return nil
	}

	meta := kafkax.ExtractEventMeta(msg)
	day := msg.Time.UTC()
	if msg.Time.IsZero() {
		day = time.Now().UTC()
	}

	tx, err := i.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO plan_order_events (event_id, event_type, order_id, plan_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING
	`, meta.EventID, meta.EventType, payload.OrderID, payload.PlanID, day)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO daily_plan_order_metrics (day, placed_count, confirmed_count, cancelled_count)
		VALUES ($1::date, $2, $3, $4)
		ON CONFLICT (day)
		DO UPDATE SET placed_count = daily_plan_order_metrics.placed_count + EXCLUDED.placed_count,
		              confirmed_count = daily_plan_order_metrics.confirmed_count + EXCLUDED.confirmed_count,
		              cancelled_count = daily_plan_order_metrics.cancelled_count + EXCLUDED.cancelled_count,
		              updated_at = now()
	`, day, placedInc, confirmedInc, cancelledInc); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	i.logger.Info("plan order metric recorded", "order_id", payload.OrderID, "status", payload.Status)
	return nil
}

func orderIncrements(status string) (placed, confirmed, cancelled int, ok bool) {
	switch status {
	case "pending":
		return 1, 0, 0, true
	case "confirmed":
		return 0, 1, 0, true
	case "cancelled":
		return 0, 0, 1, true
	default:
		return 0, 0, 0, false
	}
}

func (i *Ingestor) UserCreated(ctx context.Context, msg kafka.Message) error {
	var payload struct {
		UserID    string `json:"user_id"`
		Role      string `json:"role"`
		CreatedAt string `json:"created_at"`
	}
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		i.logger.Error("invalid user payload", "err", err, "topic", msg.Topic)
		return nil
	}
	if payload.UserID == "" || payload.Role == "" {
		i.logger.Error("missing user fields", "topic", msg.Topic)
		return nil
	}
	createdAt := time.Now().UTC()
	if t, err := time.Parse(time.RFC3339, payload.CreatedAt); err == nil {
		createdAt = t.UTC()
	}

	_, err := i.pool.Exec(ctx, `
		INSERT INTO daily_signup_metrics (day, role, signup_count)
		VALUES ($1::date, $2, 1)
		ON CONFLICT (day, role)
		DO UPDATE SET signup_count = daily_signup_metrics.signup_count + 1,
		              updated_at = now()
	`, createdAt, payload.Role)
	if err != nil {
		return err
	}
	i.logger.Info("signup recorded", "role", payload.Role)
	return nil
}

func (i *Ingestor) AuthAudit(ctx context.Context, msg kafka.Message) error {
	var payload struct {
		EventType string          `json:"event_type"`
		ActorID   string          `json:"actor_id"`
		Metadata  json.RawMessage `json:"metadata"`
		CreatedAt string          `json:"created_at"`
	}
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		i.logger.Error("invalid auth audit payload", "err", err, "topic", msg.Topic)
		return nil
	}
	if payload.EventType == "" || payload.CreatedAt == "" {
		i.logger.Error("missing auth audit fields", "topic", msg.Topic)
		return nil
	}
	if _, err := time.Parse(time.RFC3339, payload.CreatedAt); err != nil {
		i.logger.Error("invalid auth audit created_at", "err", err)
		return nil
	}

	_, err := i.pool.Exec(ctx, `
		INSERT INTO security_audit_events (event_type, actor_id, metadata, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4)
	`, payload.EventType, payload.ActorID, payload.Metadata, payload.CreatedAt)
	if err != nil {
		return err
	}
	i.logger.Info("security audit recorded", "event_type", payload.EventType)
	return nil
}
