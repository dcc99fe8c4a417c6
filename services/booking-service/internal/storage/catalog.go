package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/nutribook/nutribook/libs/db"
	"github.com/nutribook/nutribook/services/booking-service/internal/domain"
)

// CatalogEntry is the booking-local projection of a consultation service,
// maintained from catalog.service.upserted.v1 events.
type CatalogEntry struct {
	ServiceID       string    `json:"service_id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	Active          bool      `json:"active"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CatalogRepository struct {
	pool *db.Pool
}

func NewCatalogRepository(pool *db.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) Upsert(ctx context.Context, entry CatalogEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO service_catalog (service_id, name, duration_minutes, active, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (service_id)
		DO UPDATE SET name = EXCLUDED.name, duration_minutes = EXCLUDED.duration_minutes,
		              active = EXCLUDED.active, updated_at = now()
	`, entry.ServiceID, entry.Name, entry.DurationMinutes, entry.Active)
	return err
}

func (r *CatalogRepository) Get(ctx context.Context, serviceID string) (CatalogEntry, error) {
	var entry CatalogEntry
	err := r.pool.QueryRow(ctx, `
		SELECT service_id::text, name, duration_minutes, active, updated_at
		FROM service_catalog
		WHERE service_id = $1
	`, serviceID).Scan(&entry.ServiceID, &entry.Name, &entry.DurationMinutes, &entry.Active, &entry.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return CatalogEntry{}, fmt.Errorf("service %s: %w", serviceID, domain.ErrNotFound)
		}
		return CatalogEntry{}, err
	}
	return entry, nil
}

func (r *CatalogRepository) ListActive(ctx context.Context) ([]CatalogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT service_id::text, name, duration_minutes, active, updated_at
		FROM service_catalog
		WHERE active
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []CatalogEntry
	for rows.Next() {
		var entry CatalogEntry
		if err := rows.Scan(&entry.ServiceID, &entry.Name, &entry.DurationMinutes, &entry.Active, &entry.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
