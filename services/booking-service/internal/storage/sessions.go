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
	"github.com/nutribook/nutribook/services/booking-service/internal/session"
)

type SessionRepository struct {
	pool       *db.Pool
	outboxRepo *outbox.Repository
}

func NewSessionRepository(pool *db.Pool, outboxRepo *outbox.Repository) *SessionRepository {
	return &SessionRepository{pool: pool, outboxRepo: outboxRepo}
}

// Create starts a call session for a booked appointment. A partial unique
// index on (appointment_id) over non-ended rows enforces at most one live
// session per appointment; violating it maps to ErrSessionExists.
func (r *SessionRepository) Create(ctx context.Context, appointmentID, initiatorID string, callType model.CallType, offer string) (model.CallSession, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.CallSession{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var apptStatus string
	err = tx.QueryRow(ctx, `
		SELECT status FROM appointments WHERE id = $1
	`, appointmentID).Scan(&apptStatus)
	if err != nil {
		if isNoRows(err) {
			return model.CallSession{}, fmt.Errorf("appointment %s: %w", appointmentID, domain.ErrNotFound)
		}
		return model.CallSession{}, err
	}
	if apptStatus != model.AppointmentBooked {
		return model.CallSession{}, fmt.Errorf("appointment %s is %s: %w", appointmentID, apptStatus, domain.ErrInvalidState)
	}

	sess := model.CallSession{
		AppointmentID: appointmentID,
		InitiatorID:   initiatorID,
		CallType:      callType,
		Status:        model.SessionInitiating,
		Offer:         offer,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO call_sessions (appointment_id, initiator_id, call_type, status, offer)
		VALUES ($1, $2, $3, 'initiating', $4)
		RETURNING id::text, started_at
	`, appointmentID, initiatorID, string(callType), offer).Scan(&sess.ID, &sess.StartedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.CallSession{}, fmt.Errorf("appointment %s: %w", appointmentID, domain.ErrSessionExists)
		}
		return model.CallSession{}, err
	}

	payload, err := json.Marshal(map[string]any{
		"session_id":     sess.ID,
		"appointment_id": appointmentID,
		"initiator_id":   initiatorID,
		"call_type":      string(callType),
		"started_at":     sess.StartedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return model.CallSession{}, err
	}
	if err := r.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "call_session",
		AggregateID:   sess.ID,
		EventType:     "call.session.started.v1",
		Payload:       payload,
	}); err != nil {
		return model.CallSession{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.CallSession{}, err
	}
	return sess, nil
}

// Get loads a session together with its ICE candidates in submission order.
// afterSeq is a polling cursor; pass 0 for the full candidate log.
func (r *SessionRepository) Get(ctx context.Context, sessionID string, afterSeq int64) (model.CallSession, []model.IceCandidate, error) {
	var sess model.CallSession
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, appointment_id::text, initiator_id::text, call_type, status, offer, answer, started_at, ended_at
		FROM call_sessions
		WHERE id = $1
	`, sessionID).Scan(&sess.ID, &sess.AppointmentID, &sess.InitiatorID, &sess.CallType, &sess.Status, &sess.Offer, &sess.Answer, &sess.StartedAt, &sess.EndedAt)
	if err != nil {
		if isNoRows(err) {
			return model.CallSession{}, nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
		}
		return model.CallSession{}, nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT seq, session_id::text, candidate, created_at
		FROM ice_candidates
		WHERE session_id = $1 AND seq > $2
		ORDER BY seq ASC
	`, sessionID, afterSeq)
	if err != nil {
		return model.CallSession{}, nil, err
	}
	defer rows.Close()

	var candidates []model.IceCandidate
	for rows.Next() {
		var c model.IceCandidate
		if err := rows.Scan(&c.Seq, &c.SessionID, &c.Candidate, &c.CreatedAt); err != nil {
			return model.CallSession{}, nil, err
		}
		candidates = append(candidates, c)
	}
	if rows.Err() != nil {
		return model.CallSession{}, nil, rows.Err()
	}
	return sess, candidates, nil
}

// SubmitAnswer records the callee's SDP answer and activates the session.
func (r *SessionRepository) SubmitAnswer(ctx context.Context, sessionID, answer string) (model.CallSession, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.CallSession{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sess, err := lockSession(ctx, tx, sessionID)
	if err != nil {
		return model.CallSession{}, err
	}
	if err := session.ValidateAnswer(sess.Status); err != nil {
		return model.CallSession{}, err
	}

	err = tx.QueryRow(ctx, `
		UPDATE call_sessions
		SET answer = $2, status = 'active'
		WHERE id = $1
		RETURNING status
	`, sessionID, answer).Scan(&sess.Status)
	if err != nil {
		return model.CallSession{}, err
	}
	sess.Answer = &answer

	if err := tx.Commit(ctx); err != nil {
		return model.CallSession{}, err
	}
	return sess, nil
}

// AddIceCandidate appends a candidate to the session's trickle log. The
// bigserial seq preserves submission order for pollers.
func (r *SessionRepository) AddIceCandidate(ctx context.Context, sessionID, candidate string) (model.IceCandidate, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.IceCandidate{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sess, err := lockSession(ctx, tx, sessionID)
	if err != nil {
		return model.IceCandidate{}, err
	}
	if err := session.ValidateAddCandidate(sess.Status); err != nil {
		return model.IceCandidate{}, err
	}

	cand := model.IceCandidate{SessionID: sessionID, Candidate: candidate}
	err = tx.QueryRow(ctx, `
		INSERT INTO ice_candidates (session_id, candidate)
		VALUES ($1, $2)
		RETURNING seq, created_at
	`, sessionID, candidate).Scan(&cand.Seq, &cand.CreatedAt)
	if err != nil {
		return model.IceCandidate{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.IceCandidate{}, err
	}
	return cand, nil
}

// End terminates the session. Ending an already ended session is an
// idempotent no-op returning the stored row.
func (r *SessionRepository) End(ctx context.Context, sessionID string) (model.CallSession, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.CallSession{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sess, err := lockSession(ctx, tx, sessionID)
	if err != nil {
		return model.CallSession{}, err
	}
	alreadyEnded, err := session.ValidateEnd(sess.Status)
	if err != nil {
		return model.CallSession{}, err
	}
	if alreadyEnded {
		return sess, tx.Commit(ctx)
	}

	sess, err = endSessionTx(ctx, tx, r.outboxRepo, sess, "ended")
	if err != nil {
		return model.CallSession{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.CallSession{}, err
	}
	return sess, nil
}

// EndStale force-ends live sessions started before the cutoff. The sweeper
// runs this periodically so abandoned calls do not pin the one-live-session
// slot for their appointment forever.
func (r *SessionRepository) EndStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT id::text, appointment_id::text, initiator_id::text, call_type, status, offer, answer, started_at, ended_at
		FROM call_sessions
		WHERE status <> 'ended' AND started_at < $1
		ORDER BY started_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, cutoff, limit)
	if err != nil {
		return 0, err
	}
	stale, err := scanSessions(rows)
	if err != nil {
		return 0, err
	}

	for _, sess := range stale {
		if _, err := endSessionTx(ctx, tx, r.outboxRepo, sess, "stale"); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(stale), nil
}

func endSessionTx(ctx context.Context, tx pgx.Tx, outboxRepo *outbox.Repository, sess model.CallSession, reason string) (model.CallSession, error) {
	now := time.Now().UTC()
	_, err := tx.Exec(ctx, `
		UPDATE call_sessions
		SET status = 'ended', ended_at = $2
		WHERE id = $1
	`, sess.ID, now)
	if err != nil {
		return model.CallSession{}, err
	}
	sess.Status = model.SessionEnded
	sess.EndedAt = &now

	payload, err := json.Marshal(map[string]any{
		"session_id":     sess.ID,
		"appointment_id": sess.AppointmentID,
		"call_type":      string(sess.CallType),
		"reason":         reason,
		"started_at":     sess.StartedAt.UTC().Format(time.RFC3339),
		"ended_at":       now.Format(time.RFC3339),
	})
	if err != nil {
		return model.CallSession{}, err
	}
	if err := outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "call_session",
		AggregateID:   sess.ID,
		EventType:     "call.session.ended.v1",
		Payload:       payload,
	}); err != nil {
		return model.CallSession{}, err
	}
	return sess, nil
}

func lockSession(ctx context.Context, tx pgx.Tx, sessionID string) (model.CallSession, error) {
	var sess model.CallSession
	err := tx.QueryRow(ctx, `
		SELECT id::text, appointment_id::text, initiator_id::text, call_type, status, offer, answer, started_at, ended_at
		FROM call_sessions
		WHERE id = $1
		FOR UPDATE
	`, sessionID).Scan(&sess.ID, &sess.AppointmentID, &sess.InitiatorID, &sess.CallType, &sess.Status, &sess.Offer, &sess.Answer, &sess.StartedAt, &sess.EndedAt)
	if err != nil {
		if isNoRows(err) {
			return model.CallSession{}, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
		}
		return model.CallSession{}, err
	}
	return sess, nil
}

func scanSessions(rows pgx.Rows) ([]model.CallSession, error) {
	defer rows.Close()
	var out []model.CallSession
	for rows.Next() {
		var sess model.CallSession
		if err := rows.Scan(&sess.ID, &sess.AppointmentID, &sess.InitiatorID, &sess.CallType, &sess.Status, &sess.Offer, &sess.Answer, &sess.StartedAt, &sess.EndedAt); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}
