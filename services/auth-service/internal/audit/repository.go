// Package audit keeps the security trail for the identity service: who
// registered, who signed in (or failed to), and when signing keys rotated.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nutribook/nutribook/libs/db"
	"github.com/nutribook/nutribook/libs/outbox"
)

// Actions recorded by the auth service. Reporting mirrors these through
// auth.audit.v1, so renaming one is a wire change.
const (
	ActionUserRegistered = "user.registered"
	ActionUserLogin      = "user.login"
	ActionLoginFailed    = "user.login_failed"
	ActionKeyRotated     = "jwt.rotate"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

const insertEventSQL = `
	INSERT INTO audit_events (event_type, actor_id, metadata)
	VALUES ($1, NULLIF($2, ''), $3)
`

// Record writes one audit row. Details are free-form and stored as JSON;
// actorID may be empty for system actions such as key rotation.
func (r *Repository) Record(ctx context.Context, action string, actorID string, details map[string]any) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, insertEventSQL, action, actorID, raw)
	return err
}

// RecordWithOutbox writes the audit row and mirrors it to Kafka in one
// transaction, for security tooling that tails the audit stream.
func (r *Repository) RecordWithOutbox(ctx context.Context, outboxRepo *outbox.Repository, action string, actorID string, details map[string]any) error {
	if outboxRepo == nil {
		return r.Record(ctx, action, actorID, details)
	}

	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"event_type": action,
		"actor_id":   actorID,
		"metadata":   details,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, insertEventSQL, action, actorID, raw); err != nil {
		return err
	}
	if err := outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "audit_event",
		AggregateID:   "auth",
		EventType:     "auth.audit.v1",
		Payload:       payload,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type AuditEvent struct {
	ID        int64           `json:"id"`
	EventType string          `json:"event_type"`
	ActorID   string          `json:"actor_id,omitempty"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt string          `json:"created_at"`
}

// ListRecent returns the newest events first, capped at 200 per page.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]AuditEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_type, COALESCE(actor_id::text, ''), metadata, created_at
		FROM audit_events
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		var createdAt time.Time
		if err := rows.Scan(&e.ID, &e.EventType, &e.ActorID, &e.Metadata, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		events = append(events, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}
