package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/nutribook/nutribook/libs/db"
	"github.com/nutribook/nutribook/services/booking-service/internal/model"
	"github.com/nutribook/nutribook/services/booking-service/internal/slotgen"
)

type SlotRepository struct {
	pool *db.Pool
}

func NewSlotRepository(pool *db.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

// InsertGenerated persists candidate slots, skipping any (service, start)
// pair that already exists. Re-running generation over an overlapping range
// is therefore idempotent. Returns the number of newly created slots.
func (r *SlotRepository) InsertGenerated(ctx context.Context, serviceID string, slots []slotgen.Slot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created := 0
	for _, s := range slots {
		tag, err := tx.Exec(ctx, `
			INSERT INTO time_slots (service_id, start_time, end_time, status)
			VALUES ($1, $2, $3, 'available')
			ON CONFLICT (service_id, start_time) DO NOTHING
		`, serviceID, s.Start, s.End)
		if err != nil {
			return 0, fmt.Errorf("insert slot: %w", err)
		}
		created += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return created, nil
}

// ListAvailable returns the available slots for one service on one calendar
// day, ordered by start time ascending.
func (r *SlotRepository) ListAvailable(ctx context.Context, serviceID string, day time.Time) ([]model.TimeSlot, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, service_id::text, start_time, end_time, status, appointment_id::text, created_at
		FROM time_slots
		WHERE service_id = $1
			AND status = 'available'
			AND start_time >= $2
			AND start_time < $3
		ORDER BY start_time ASC
	`, serviceID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []model.TimeSlot
	for rows.Next() {
		var s model.TimeSlot
		if err := rows.Scan(&s.ID, &s.ServiceID, &s.StartTime, &s.EndTime, &s.Status, &s.AppointmentID, &s.CreatedAt); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return slots, nil
}
