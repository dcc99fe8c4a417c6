package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nutribook/nutribook/libs/db"
	"github.com/nutribook/nutribook/libs/outbox"
	"github.com/nutribook/nutribook/services/booking-service/internal/domain"
	"github.com/nutribook/nutribook/services/booking-service/internal/model"
)

type AppointmentRepository struct {
	pool       *db.Pool
	outboxRepo *outbox.Repository
}

func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outboxRepo: outboxRepo}
}

// Reserve books a slot for a user. The slot transition available->booked and
// the appointment insert commit as one transaction; the conditional UPDATE on
// status is the only guard against concurrent reservations, so exactly one
// caller wins and the rest see ErrSlotUnavailable.
//
// When idemKey is non-empty, a previously finalized reservation with the same
// (user, key) is replayed instead of re-booking; replayed reports that case.
func (r *AppointmentRepository) Reserve(ctx context.Context, slotID, userID, idemKey string) (appt model.Appointment, replayed bool, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if idemKey != "" {
		storedID, err := r.lockIdempotencyKey(ctx, tx, userID, idemKey)
		if err != nil {
			return model.Appointment{}, false, err
		}
		if storedID != "" {
			appt, err := r.getByIDTx(ctx, tx, storedID)
			if err != nil {
				return model.Appointment{}, false, err
			}
			return appt, true, tx.Commit(ctx)
		}
	}

	var serviceID string
	var slotStart, slotEnd time.Time
	err = tx.QueryRow(ctx, `
		SELECT service_id::text, start_time, end_time
		FROM time_slots
		WHERE id = $1
	`, slotID).Scan(&serviceID, &slotStart, &slotEnd)
	if err != nil {
		if isNoRows(err) {
			return model.Appointment{}, false, fmt.Errorf("slot %s: %w", slotID, domain.ErrNotFound)
		}
		return model.Appointment{}, false, err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (user_id, service_id, slot_id, status)
		VALUES ($1, $2, $3, 'booked')
		RETURNING id::text, created_at
	`, userID, serviceID, slotID).Scan(&appt.ID, &appt.CreatedAt)
	if err != nil {
		return model.Appointment{}, false, err
	}
	appt.UserID = userID
	appt.ServiceID = serviceID
	appt.SlotID = slotID
	appt.Status = model.AppointmentBooked

	// The single atomic conditional update: no row means another booking won.
	tag, err := tx.Exec(ctx, `
		UPDATE time_slots
		SET status = 'booked', appointment_id = $2
		WHERE id = $1 AND status = 'available'
	`, slotID, appt.ID)
	if err != nil {
		return model.Appointment{}, false, err
	}
	if tag.RowsAffected() == 0 {
		return model.Appointment{}, false, fmt.Errorf("slot %s: %w", slotID, domain.ErrSlotUnavailable)
	}

	payload, err := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"user_id":        userID,
		"service_id":     serviceID,
		"slot_id":        slotID,
		"start_time":     slotStart.UTC().Format(time.RFC3339),
		"end_time":       slotEnd.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return model.Appointment{}, false, err
	}
	if err := r.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     "booking.appointment.booked.v1",
		Payload:       payload,
	}); err != nil {
		return model.Appointment{}, false, err
	}

	if idemKey != "" {
		if err := r.finalizeIdempotency(ctx, tx, userID, idemKey, appt.ID); err != nil {
			return model.Appointment{}, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, false, err
	}
	return appt, false, nil
}

// Cancel marks the appointment cancelled and returns its slot to available.
// Cancelling an already cancelled appointment is an idempotent no-op.
// elevated callers (admins, dietitians) may cancel any appointment; others
// only their own.
func (r *AppointmentRepository) Cancel(ctx context.Context, appointmentID, requestedBy string, elevated bool) (model.Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var appt model.Appointment
	err = tx.QueryRow(ctx, `
		SELECT id::text, user_id::text, service_id::text, slot_id::text, status, created_at, cancelled_at
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, appointmentID).Scan(&appt.ID, &appt.UserID, &appt.ServiceID, &appt.SlotID, &appt.Status, &appt.CreatedAt, &appt.CancelledAt)
	if err != nil {
		if isNoRows(err) {
			return model.Appointment{}, fmt.Errorf("appointment %s: %w", appointmentID, domain.ErrNotFound)
		}
		return model.Appointment{}, err
	}

	if !elevated && appt.UserID != requestedBy {
		// Do not leak other users' appointment ids.
		return model.Appointment{}, fmt.Errorf("appointment %s: %w", appointmentID, domain.ErrNotFound)
	}

	if appt.Status == model.AppointmentCancelled {
		return appt, tx.Commit(ctx)
	}

	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `
		UPDATE appointments
		SET status = 'cancelled', cancelled_at = $2
		WHERE id = $1
	`, appt.ID, now)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.AppointmentCancelled
	appt.CancelledAt = &now

	_, err = tx.Exec(ctx, `
		UPDATE time_slots
		SET status = 'available', appointment_id = NULL
		WHERE id = $1 AND appointment_id = $2
	`, appt.SlotID, appt.ID)
	if err != nil {
		return model.Appointment{}, err
	}

	payload, err := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"user_id":        appt.UserID,
		"service_id":     appt.ServiceID,
		"slot_id":        appt.SlotID,
		"cancelled_at":   now.Format(time.RFC3339),
	})
	if err != nil {
		return model.Appointment{}, err
	}
	if err := r.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     "booking.appointment.cancelled.v1",
		Payload:       payload,
	}); err != nil {
		return model.Appointment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func (r *AppointmentRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, user_id::text, service_id::text, slot_id::text, status, created_at, cancelled_at
		FROM appointments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		var appt model.Appointment
		if err := rows.Scan(&appt.ID, &appt.UserID, &appt.ServiceID, &appt.SlotID, &appt.Status, &appt.CreatedAt, &appt.CancelledAt); err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (r *AppointmentRepository) getByIDTx(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error) {
	var appt model.Appointment
	err := tx.QueryRow(ctx, `
		SELECT id::text, user_id::text, service_id::text, slot_id::text, status, created_at, cancelled_at
		FROM appointments
		WHERE id = $1
	`, id).Scan(&appt.ID, &appt.UserID, &appt.ServiceID, &appt.SlotID, &appt.Status, &appt.CreatedAt, &appt.CancelledAt)
	if err != nil {
		if isNoRows(err) {
			return model.Appointment{}, fmt.Errorf("appointment %s: %w", id, domain.ErrNotFound)
		}
		return model.Appointment{}, err
	}
	return appt, nil
}

// lockIdempotencyKey claims the (user, key) row for this transaction,
// inserting it when it does not yet exist. A non-empty appointmentID means a
// previous request already finalized and the caller should replay it.
// Concurrent requests with the same key block on the row lock until the
// winner commits.
func (r *AppointmentRepository) lockIdempotencyKey(ctx context.Context, tx pgx.Tx, userID, key string) (appointmentID string, err error) {
	_, err = tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (user_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (user_id, idempotency_key) DO NOTHING
	`, userID, key)
	if err != nil {
		return "", err
	}

	err = tx.QueryRow(ctx, `
		SELECT COALESCE(appointment_id::text, '')
		FROM booking_idempotency_keys
		WHERE user_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, userID, key).Scan(&appointmentID)
	if err != nil {
		return "", err
	}
	return appointmentID, nil
}

func (r *AppointmentRepository) finalizeIdempotency(ctx context.Context, tx pgx.Tx, userID, key, appointmentID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET appointment_id = $3, updated_at = now()
		WHERE user_id = $1 AND idempotency_key = $2
	`, userID, key, appointmentID)
	return err
}
