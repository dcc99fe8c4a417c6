package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nutribook/nutribook/libs/db"
	"github.com/nutribook/nutribook/libs/outbox"
)

// ErrOrderState is returned for plan order transitions that the current
// status does not allow (confirming a cancelled order and the like).
var ErrOrderState = errors.New("order state does not allow this transition")

type Repository struct {
	pool       *db.Pool
	outboxRepo *outbox.Repository
}

func NewRepository(pool *db.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{pool: pool, outboxRepo: outboxRepo}
}

type ConsultationService struct {
	ID           string
	Name         string
	Description  string
	DurationMins int
	Price        string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UpsertService writes the service and emits catalog.service.upserted.v1 in
// the same transaction, so downstream projections never miss an update.
func (r *Repository) UpsertService(ctx context.Context, svc ConsultationService) (ConsultationService, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return ConsultationService{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO consultation_services (id, name, description, duration_minutes, price, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			description = EXCLUDED.description,
			duration_minutes = EXCLUDED.duration_minutes,
			price = EXCLUDED.price,
			active = EXCLUDED.active,
			updated_at = now()
		RETURNING created_at, updated_at
	`, svc.ID, svc.Name, svc.Description, svc.DurationMins, svc.Price, svc.Active).Scan(&svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		return ConsultationService{}, err
	}

	payload, err := json.Marshal(map[string]any{
		"service_id":       svc.ID,
		"name":             svc.Name,
		"duration_minutes": svc.DurationMins,
		"price":            svc.Price,
		"active":           svc.Active,
	})
	if err != nil {
		return ConsultationService{}, err
	}
	if err := r.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "consultation_service",
		AggregateID:   svc.ID,
		EventType:     "catalog.service.upserted.v1",
		Payload:       payload,
	}); err != nil {
		return ConsultationService{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return ConsultationService{}, err
	}
	return svc, nil
}

func (r *Repository) GetService(ctx context.Context, id string) (ConsultationService, error) {
	var svc ConsultationService
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, description, duration_minutes, price::text, active, created_at, updated_at
		FROM consultation_services
		WHERE id = $1
	`, id).Scan(&svc.ID, &svc.Name, &svc.Description, &svc.DurationMins, &svc.Price, &svc.Active, &svc.CreatedAt, &svc.UpdatedAt)
	return svc, err
}

func (r *Repository) ListServices(ctx context.Context, activeOnly bool, limit int) ([]ConsultationService, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, description, duration_minutes, price::text, active, created_at, updated_at
		FROM consultation_services
		WHERE NOT $1 OR active
		ORDER BY name ASC
		LIMIT $2
	`, activeOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ConsultationService
	for rows.Next() {
		var svc ConsultationService
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Description, &svc.DurationMins, &svc.Price, &svc.Active, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

type NutritionPlan struct {
	ID           string
	Name         string
	Description  string
	DurationDays int
	Price        string
	Active       bool
	CreatedAt    time.Time
}

func (r *Repository) CreatePlan(ctx context.Context, plan NutritionPlan) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO nutrition_plans (id, name, description, duration_days, price, active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, plan.Name, plan.Description, plan.DurationDays, plan.Price, plan.Active)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) ListPlans(ctx context.Context, activeOnly bool, limit int) ([]NutritionPlan, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, description, duration_days, price::text, active, created_at
		FROM nutrition_plans
		WHERE NOT $1 OR active
		ORDER BY created_at DESC
		LIMIT $2
	`, activeOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NutritionPlan
	for rows.Next() {
		var p NutritionPlan
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.DurationDays, &p.Price, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

type PlanOrder struct {
	ID        string
	UserID    string
	PlanID    string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlaceOrder creates a pending order against an active plan. Confirmation is
// an explicit second step by a dietitian or admin; there is no payment leg.
func (r *Repository) PlaceOrder(ctx context.Context, userID, planID string) (PlanOrder, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return PlanOrder{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var active bool
	if err := tx.QueryRow(ctx, `
		SELECT active FROM nutrition_plans WHERE id = $1
	`, planID).Scan(&active); err != nil {
		return PlanOrder{}, err
	}
	if !active {
		return PlanOrder{}, ErrOrderState
	}

	order := PlanOrder{UserID: userID, PlanID: planID, Status: "pending"}
	err = tx.QueryRow(ctx, `
		INSERT INTO plan_orders (user_id, plan_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING id::text, created_at, updated_at
	`, userID, planID).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Partial unique index: one pending order per (user, plan).
			return PlanOrder{}, ErrOrderState
		}
		return PlanOrder{}, err
	}

	if err := r.insertOrderEvent(ctx, tx, order, "catalog.plan.order.placed.v1"); err != nil {
		return PlanOrder{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return PlanOrder{}, err
	}
	return order, nil
}

// ConfirmOrder moves a pending order to confirmed. Confirming twice is a
// no-op; a cancelled order cannot be confirmed. Confirmation is a staff
// action, so it is not scoped to an owner.
func (r *Repository) ConfirmOrder(ctx context.Context, orderID string) (PlanOrder, error) {
	return r.transitionOrder(ctx, orderID, "", true, "confirmed", "catalog.plan.order.confirmed.v1")
}

// CancelOrder cancels a pending or confirmed order; cancelling twice is a
// no-op. Non-elevated callers may only cancel their own orders; foreign
// order ids surface as not-found so order ids don't leak across users.
func (r *Repository) CancelOrder(ctx context.Context, orderID, callerID string, elevated bool) (PlanOrder, error) {
	return r.transitionOrder(ctx, orderID, callerID, elevated, "cancelled", "catalog.plan.order.cancelled.v1")
}

func deniedOrderAccess(order PlanOrder, callerID string, elevated bool) bool {
	return !elevated && order.UserID != callerID
}

func (r *Repository) transitionOrder(ctx context.Context, orderID, callerID string, elevated bool, target, eventType string) (PlanOrder, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return PlanOrder{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var order PlanOrder
	err = tx.QueryRow(ctx, `
		SELECT id::text, user_id::text, plan_id::text, status, created_at, updated_at
		FROM plan_orders
		WHERE id = $1
		FOR UPDATE
	`, orderID).Scan(&order.ID, &order.UserID, &order.PlanID, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return PlanOrder{}, err
	}
	if deniedOrderAccess(order, callerID, elevated) {
		return PlanOrder{}, pgx.ErrNoRows
	}

	if order.Status == target {
		return order, tx.Commit(ctx)
	}
	if target == "confirmed" && order.Status != "pending" {
		return PlanOrder{}, ErrOrderState
	}

	_, err = tx.Exec(ctx, `
		UPDATE plan_orders SET status = $2, updated_at = now() WHERE id = $1
	`, orderID, target)
	if err != nil {
		return PlanOrder{}, err
	}
	order.Status = target

	if err := r.insertOrderEvent(ctx, tx, order, eventType); err != nil {
		return PlanOrder{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return PlanOrder{}, err
	}
	return order, nil
}

func (r *Repository) insertOrderEvent(ctx context.Context, tx pgx.Tx, order PlanOrder, eventType string) error {
	payload, err := json.Marshal(map[string]any{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"plan_id":  order.PlanID,
		"status":   order.Status,
	})
	if err != nil {
		return err
	}
	return r.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "plan_order",
		AggregateID:   order.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}

func (r *Repository) ListOrdersByUser(ctx context.Context, userID string, limit int) ([]PlanOrder, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, user_id::text, plan_id::text, status, created_at, updated_at
		FROM plan_orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlanOrder
	for rows.Next() {
		var o PlanOrder
		if err := rows.Scan(&o.ID, &o.UserID, &o.PlanID, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
