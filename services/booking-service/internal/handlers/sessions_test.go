package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func createSessionReq(appointmentID, userID, callType string) *http.Request {
	body := `{"appointment_id":"` + appointmentID + `","call_type":"` + callType + `","offer":"v=0 offer-sdp"}`
	r := httptest.NewRequest(http.MethodPost, "/api/v1/call-sessions", strings.NewReader(body))
	if userID != "" {
		r.Header.Set("X-User-Id", userID)
	}
	return r
}

func mustCreateSession(t *testing.T, h *SessionHandler, appointmentID string) sessionItem {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Create(rec, createSessionReq(appointmentID, "user-1", "video"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session failed: %d %s", rec.Code, rec.Body.String())
	}
	var sess sessionItem
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return sess
}

func TestCreateSession(t *testing.T) {
	store := newFakeStore()
	apptID := store.addBookedAppointment("user-1", "svc-1")
	h := NewSessionHandler(store, testLogger())

	sess := mustCreateSession(t, h, apptID)
	if sess.Status != "initiating" || sess.CallType != "video" || sess.Offer == "" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	// Only one live session per appointment.
	rec := httptest.NewRecorder()
	h.Create(rec, createSessionReq(apptID, "user-2", "voice"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for second live session, got %d", rec.Code)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	store := newFakeStore()
	apptID := store.addBookedAppointment("user-1", "svc-1")
	h := NewSessionHandler(store, testLogger())

	rec := httptest.NewRecorder()
	h.Create(rec, createSessionReq(apptID, "user-1", "telepathy"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad call_type, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Create(rec, createSessionReq("missing", "user-1", "video"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown appointment, got %d", rec.Code)
	}
}

func TestCreateSessionRejectsCancelledAppointment(t *testing.T) {
	store := newFakeStore()
	apptID := store.addBookedAppointment("user-1", "svc-1")
	if _, err := store.Cancel(context.Background(), apptID, "user-1", false); err != nil {
		t.Fatalf("seed cancel failed: %v", err)
	}
	h := NewSessionHandler(store, testLogger())

	rec := httptest.NewRecorder()
	h.Create(rec, createSessionReq(apptID, "user-1", "video"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for cancelled appointment, got %d", rec.Code)
	}
}

func TestAnswerSession(t *testing.T) {
	store := newFakeStore()
	apptID := store.addBookedAppointment("user-1", "svc-1")
	h := NewSessionHandler(store, testLogger())
	sess := mustCreateSession(t, h, apptID)

	body := `{"session_id":"` + sess.SessionID + `","answer":"v=0 answer-sdp"}`
	rec := httptest.NewRecorder()
	h.Answer(rec, httptest.NewRequest(http.MethodPost, "/api/v1/call-sessions/answer", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var answered sessionItem
	if err := json.Unmarshal(rec.Body.Bytes(), &answered); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if answered.Status != "active" || answered.Answer != "v=0 answer-sdp" {
		t.Fatalf("unexpected session after answer: %+v", answered)
	}

	// A second answer hits an active session and is rejected.
	rec = httptest.NewRecorder()
	h.Answer(rec, httptest.NewRequest(http.MethodPost, "/api/v1/call-sessions/answer", strings.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for repeated answer, got %d", rec.Code)
	}
}

func TestCandidateOrderingAndPolling(t *testing.T) {
	store := newFakeStore()
	apptID := store.addBookedAppointment("user-1", "svc-1")
	h := NewSessionHandler(store, testLogger())
	sess := mustCreateSession(t, h, apptID)

	candidates := []string{"candidate:1 udp", "candidate:2 tcp", "candidate:3 relay"}
	for _, c := range candidates {
		body := `{"session_id":"` + sess.SessionID + `","candidate":"` + c + `"}`
		rec := httptest.NewRecorder()
		h.AddCandidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/call-sessions/candidates", strings.NewReader(body)))
		if rec.Code != http.StatusCreated {
			t.Fatalf("add candidate failed: %d %s", rec.Code, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/call-sessions?session_id="+sess.SessionID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var detail sessionDetailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(detail.IceCandidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(detail.IceCandidates))
	}
	for i, c := range detail.IceCandidates {
		if c.Candidate != candidates[i] {
			t.Fatalf("candidate %d out of order: got %q want %q", i, c.Candidate, candidates[i])
		}
		if i > 0 && c.Seq <= detail.IceCandidates[i-1].Seq {
			t.Fatalf("seq not strictly increasing at %d", i)
		}
	}

	// Poll with a cursor: only candidates after the given seq come back.
	afterSeq := detail.IceCandidates[0].Seq
	rec = httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/call-sessions?session_id="+sess.SessionID+"&after_seq="+strconv.FormatInt(afterSeq, 10), nil))
	var tail sessionDetailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tail); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(tail.IceCandidates) != 2 {
		t.Fatalf("expected 2 candidates after cursor, got %d", len(tail.IceCandidates))
	}
	if tail.IceCandidates[0].Candidate != candidates[1] {
		t.Fatalf("unexpected first candidate after cursor: %q", tail.IceCandidates[0].Candidate)
	}
}

func TestEndSessionIdempotent(t *testing.T) {
	store := newFakeStore()
	apptID := store.addBookedAppointment("user-1", "svc-1")
	h := NewSessionHandler(store, testLogger())
	sess := mustCreateSession(t, h, apptID)

	body := `{"session_id":"` + sess.SessionID + `"}`
	rec := httptest.NewRecorder()
	h.End(rec, httptest.NewRequest(http.MethodPost, "/api/v1/call-sessions/end", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var ended sessionItem
	if err := json.Unmarshal(rec.Body.Bytes(), &ended); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if ended.Status != "ended" || ended.EndedAt == "" {
		t.Fatalf("unexpected session after end: %+v", ended)
	}

	// Ending again is a no-op with the stored row.
	rec = httptest.NewRecorder()
	h.End(rec, httptest.NewRequest(http.MethodPost, "/api/v1/call-sessions/end", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat end, got %d", rec.Code)
	}

	// Candidates and answers are rejected once ended.
	candBody := `{"session_id":"` + sess.SessionID + `","candidate":"candidate:1 udp"}`
	rec = httptest.NewRecorder()
	h.AddCandidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/call-sessions/candidates", strings.NewReader(candBody)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for candidate on ended session, got %d", rec.Code)
	}

	// The appointment is free for a fresh session afterwards.
	rec = httptest.NewRecorder()
	h.Create(rec, createSessionReq(apptID, "user-1", "voice"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected new session after end, got %d", rec.Code)
	}
}

