package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nutribook/nutribook/services/booking-service/internal/model"
)

type SessionStore interface {
	Create(ctx context.Context, appointmentID, initiatorID string, callType model.CallType, offer string) (model.CallSession, error)
	Get(ctx context.Context, sessionID string, afterSeq int64) (model.CallSession, []model.IceCandidate, error)
	SubmitAnswer(ctx context.Context, sessionID, answer string) (model.CallSession, error)
	AddIceCandidate(ctx context.Context, sessionID, candidate string) (model.IceCandidate, error)
	End(ctx context.Context, sessionID string) (model.CallSession, error)
}

// SessionHandler exposes the WebRTC signalling surface: offer on create,
// answer once, ICE candidates appended and polled by seq. Media never touches
// the platform.
type SessionHandler struct {
	store  SessionStore
	logger *slog.Logger
}

func NewSessionHandler(store SessionStore, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: logger}
}

type createSessionRequest struct {
	AppointmentID string `json:"appointment_id"`
	CallType      string `json:"call_type"`
	Offer         string `json:"offer"`
}

type sessionItem struct {
	SessionID     string `json:"session_id"`
	AppointmentID string `json:"appointment_id"`
	InitiatorID   string `json:"initiator_id"`
	CallType      string `json:"call_type"`
	Status        string `json:"status"`
	Offer         string `json:"offer"`
	Answer        string `json:"answer,omitempty"`
	StartedAt     string `json:"started_at"`
	EndedAt       string `json:"ended_at,omitempty"`
}

type candidateItem struct {
	Seq       int64  `json:"seq"`
	Candidate string `json:"candidate"`
	CreatedAt string `json:"created_at"`
}

type sessionDetailResponse struct {
	sessionItem
	IceCandidates []candidateItem `json:"ice_candidates"`
}

func sessionToItem(sess model.CallSession) sessionItem {
	item := sessionItem{
		SessionID:     sess.ID,
		AppointmentID: sess.AppointmentID,
		InitiatorID:   sess.InitiatorID,
		CallType:      string(sess.CallType),
		Status:        string(sess.Status),
		Offer:         sess.Offer,
		StartedAt:     sess.StartedAt.UTC().Format(time.RFC3339),
	}
	if sess.Answer != nil {
		item.Answer = *sess.Answer
	}
	if sess.EndedAt != nil {
		item.EndedAt = sess.EndedAt.UTC().Format(time.RFC3339)
	}
	return item
}

// Create opens a signalling session against a booked appointment. A second
// live session for the same appointment is rejected with 409.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	req.Offer = strings.TrimSpace(req.Offer)
	callType := model.CallType(strings.TrimSpace(req.CallType))
	if req.AppointmentID == "" || req.Offer == "" {
		http.Error(w, "appointment_id and offer required", http.StatusBadRequest)
		return
	}
	if !callType.Valid() {
		http.Error(w, "call_type must be video or voice", http.StatusBadRequest)
		return
	}

	sess, err := h.store.Create(r.Context(), req.AppointmentID, userID, callType, req.Offer)
	if err != nil {
		writeDomainError(w, h.logger, err, "failed to create call session")
		return
	}
	writeJSON(w, http.StatusCreated, sessionToItem(sess))
}

// Get returns the session plus its candidate log. after_seq lets pollers ask
// only for candidates they have not seen yet.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}
	var afterSeq int64
	if raw := strings.TrimSpace(r.URL.Query().Get("after_seq")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			http.Error(w, "invalid after_seq", http.StatusBadRequest)
			return
		}
		afterSeq = n
	}

	sess, candidates, err := h.store.Get(r.Context(), sessionID, afterSeq)
	if err != nil {
		writeDomainError(w, h.logger, err, "failed to load call session")
		return
	}

	resp := sessionDetailResponse{
		sessionItem:   sessionToItem(sess),
		IceCandidates: make([]candidateItem, 0, len(candidates)),
	}
	for _, c := range candidates {
		resp.IceCandidates = append(resp.IceCandidates, candidateItem{
			Seq:       c.Seq,
			Candidate: c.Candidate,
			CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type answerRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

// Answer records the callee's SDP answer; the session goes active. Only a
// session still in initiating accepts an answer.
func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Answer = strings.TrimSpace(req.Answer)
	if req.SessionID == "" || req.Answer == "" {
		http.Error(w, "session_id and answer required", http.StatusBadRequest)
		return
	}

	sess, err := h.store.SubmitAnswer(r.Context(), req.SessionID, req.Answer)
	if err != nil {
		writeDomainError(w, h.logger, err, "failed to submit answer")
		return
	}
	writeJSON(w, http.StatusOK, sessionToItem(sess))
}

type addCandidateRequest struct {
	SessionID string `json:"session_id"`
	Candidate string `json:"candidate"`
}

// AddCandidate appends one ICE candidate to the session's relay log.
func (h *SessionHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req addCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Candidate = strings.TrimSpace(req.Candidate)
	if req.SessionID == "" || req.Candidate == "" {
		http.Error(w, "session_id and candidate required", http.StatusBadRequest)
		return
	}

	cand, err := h.store.AddIceCandidate(r.Context(), req.SessionID, req.Candidate)
	if err != nil {
		writeDomainError(w, h.logger, err, "failed to add candidate")
		return
	}
	writeJSON(w, http.StatusCreated, candidateItem{
		Seq:       cand.Seq,
		Candidate: cand.Candidate,
		CreatedAt: cand.CreatedAt.UTC().Format(time.RFC3339),
	})
}

type endSessionRequest struct {
	SessionID string `json:"session_id"`
}

// End terminates the session. Ending twice returns the stored ended session.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req endSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}

	sess, err := h.store.End(r.Context(), req.SessionID)
	if err != nil {
		writeDomainError(w, h.logger, err, "failed to end call session")
		return
	}
	writeJSON(w, http.StatusOK, sessionToItem(sess))
}
