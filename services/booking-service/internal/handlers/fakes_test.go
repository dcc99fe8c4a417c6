package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/nutribook/nutribook/services/booking-service/internal/domain"
	"github.com/nutribook/nutribook/services/booking-service/internal/model"
	"github.com/nutribook/nutribook/services/booking-service/internal/session"
	"github.com/nutribook/nutribook/services/booking-service/internal/slotgen"
	"github.com/nutribook/nutribook/services/booking-service/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeStore backs all the handler store interfaces with an in-memory map
// guarded by one mutex, so the transactional contracts (one reservation
// winner per slot, one live session per appointment) hold under concurrency
// the same way the row locks make them hold in Postgres.
type fakeStore struct {
	mu           sync.Mutex
	nextID       int
	slots        map[string]*model.TimeSlot
	appointments map[string]*model.Appointment
	sessions     map[string]*model.CallSession
	candidates   map[string][]model.IceCandidate
	idempotency  map[string]string
	catalog      map[string]storage.CatalogEntry
	nextSeq      int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		slots:        make(map[string]*model.TimeSlot),
		appointments: make(map[string]*model.Appointment),
		sessions:     make(map[string]*model.CallSession),
		candidates:   make(map[string][]model.IceCandidate),
		idempotency:  make(map[string]string),
		catalog:      make(map[string]storage.CatalogEntry),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return prefix + "-" + strconv.Itoa(f.nextID)
}

func (f *fakeStore) addSlot(serviceID string, start time.Time, duration time.Duration) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("slot")
	f.slots[id] = &model.TimeSlot{
		ID:        id,
		ServiceID: serviceID,
		StartTime: start,
		EndTime:   start.Add(duration),
		Status:    model.SlotAvailable,
		CreatedAt: time.Now().UTC(),
	}
	return id
}

func (f *fakeStore) addBookedAppointment(userID, serviceID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("appt")
	f.appointments[id] = &model.Appointment{
		ID:        id,
		UserID:    userID,
		ServiceID: serviceID,
		SlotID:    f.id("slot"),
		Status:    model.AppointmentBooked,
		CreatedAt: time.Now().UTC(),
	}
	return id
}

func (f *fakeStore) InsertGenerated(_ context.Context, serviceID string, slots []slotgen.Slot) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inserted := 0
	for _, s := range slots {
		exists := false
		for _, existing := range f.slots {
			if existing.ServiceID == serviceID && existing.StartTime.Equal(s.Start) {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		id := f.id("slot")
		f.slots[id] = &model.TimeSlot{
			ID:        id,
			ServiceID: serviceID,
			StartTime: s.Start,
			EndTime:   s.End,
			Status:    model.SlotAvailable,
			CreatedAt: time.Now().UTC(),
		}
		inserted++
	}
	return inserted, nil
}

func (f *fakeStore) ListAvailable(_ context.Context, serviceID string, day time.Time) ([]model.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)
	var out []model.TimeSlot
	for _, s := range f.slots {
		if s.ServiceID != serviceID || s.Status != model.SlotAvailable {
			continue
		}
		if s.StartTime.Before(dayStart) || !s.StartTime.Before(dayEnd) {
			continue
		}
		out = append(out, *s)
	}
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			if out[j].StartTime.Before(out[i].StartTime) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

// catalogFake adapts fakeStore's catalog map to the CatalogStore interface;
// fakeStore itself cannot carry the method because SessionStore also names a
// Get.
type catalogFake struct{ s *fakeStore }

func (c catalogFake) Get(_ context.Context, serviceID string) (storage.CatalogEntry, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	entry, ok := c.s.catalog[serviceID]
	if !ok {
		return storage.CatalogEntry{}, fmt.Errorf("service %s: %w", serviceID, domain.ErrNotFound)
	}
	return entry, nil
}

func (c catalogFake) ListActive(_ context.Context) ([]storage.CatalogEntry, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var out []storage.CatalogEntry
	for _, entry := range c.s.catalog {
		if entry.Active {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (f *fakeStore) Reserve(_ context.Context, slotID, userID, idemKey string) (model.Appointment, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if idemKey != "" {
		if apptID, ok := f.idempotency[userID+"/"+idemKey]; ok && apptID != "" {
			return *f.appointments[apptID], true, nil
		}
	}

	slot, ok := f.slots[slotID]
	if !ok {
		return model.Appointment{}, false, fmt.Errorf("slot %s: %w", slotID, domain.ErrNotFound)
	}
	if slot.Status != model.SlotAvailable {
		return model.Appointment{}, false, fmt.Errorf("slot %s: %w", slotID, domain.ErrSlotUnavailable)
	}

	id := f.id("appt")
	appt := &model.Appointment{
		ID:        id,
		UserID:    userID,
		ServiceID: slot.ServiceID,
		SlotID:    slotID,
		Status:    model.AppointmentBooked,
		CreatedAt: time.Now().UTC(),
	}
	f.appointments[id] = appt
	slot.Status = model.SlotBooked
	slot.AppointmentID = &id
	if idemKey != "" {
		f.idempotency[userID+"/"+idemKey] = id
	}
	return *appt, false, nil
}

func (f *fakeStore) Cancel(_ context.Context, appointmentID, requestedBy string, elevated bool) (model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	appt, ok := f.appointments[appointmentID]
	if !ok {
		return model.Appointment{}, fmt.Errorf("appointment %s: %w", appointmentID, domain.ErrNotFound)
	}
	if !elevated && appt.UserID != requestedBy {
		return model.Appointment{}, fmt.Errorf("appointment %s: %w", appointmentID, domain.ErrNotFound)
	}
	if appt.Status == model.AppointmentCancelled {
		return *appt, nil
	}
	now := time.Now().UTC()
	appt.Status = model.AppointmentCancelled
	appt.CancelledAt = &now
	if slot, ok := f.slots[appt.SlotID]; ok {
		slot.Status = model.SlotAvailable
		slot.AppointmentID = nil
	}
	return *appt, nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID string, limit int) ([]model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Appointment
	for _, appt := range f.appointments {
		if appt.UserID == userID {
			out = append(out, *appt)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, appointmentID, initiatorID string, callType model.CallType, offer string) (model.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	appt, ok := f.appointments[appointmentID]
	if !ok {
		return model.CallSession{}, fmt.Errorf("appointment %s: %w", appointmentID, domain.ErrNotFound)
	}
	if appt.Status != model.AppointmentBooked {
		return model.CallSession{}, fmt.Errorf("appointment %s is %s: %w", appointmentID, appt.Status, domain.ErrInvalidState)
	}
	for _, sess := range f.sessions {
		if sess.AppointmentID == appointmentID && session.Live(sess.Status) {
			return model.CallSession{}, fmt.Errorf("appointment %s: %w", appointmentID, domain.ErrSessionExists)
		}
	}

	id := f.id("sess")
	sess := &model.CallSession{
		ID:            id,
		AppointmentID: appointmentID,
		InitiatorID:   initiatorID,
		CallType:      callType,
		Status:        model.SessionInitiating,
		Offer:         offer,
		StartedAt:     time.Now().UTC(),
	}
	f.sessions[id] = sess
	return *sess, nil
}

func (f *fakeStore) Get(_ context.Context, sessionID string, afterSeq int64) (model.CallSession, []model.IceCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[sessionID]
	if !ok {
		return model.CallSession{}, nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	var out []model.IceCandidate
	for _, c := range f.candidates[sessionID] {
		if c.Seq > afterSeq {
			out = append(out, c)
		}
	}
	return *sess, out, nil
}

func (f *fakeStore) SubmitAnswer(_ context.Context, sessionID, answer string) (model.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[sessionID]
	if !ok {
		return model.CallSession{}, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	if err := session.ValidateAnswer(sess.Status); err != nil {
		return model.CallSession{}, err
	}
	sess.Answer = &answer
	sess.Status = model.SessionActive
	return *sess, nil
}

func (f *fakeStore) AddIceCandidate(_ context.Context, sessionID, candidate string) (model.IceCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[sessionID]
	if !ok {
		return model.IceCandidate{}, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	if err := session.ValidateAddCandidate(sess.Status); err != nil {
		return model.IceCandidate{}, err
	}
	f.nextSeq++
	cand := model.IceCandidate{
		Seq:       f.nextSeq,
		SessionID: sessionID,
		Candidate: candidate,
		CreatedAt: time.Now().UTC(),
	}
	f.candidates[sessionID] = append(f.candidates[sessionID], cand)
	return cand, nil
}

func (f *fakeStore) End(_ context.Context, sessionID string) (model.CallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[sessionID]
	if !ok {
		return model.CallSession{}, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	alreadyEnded, err := session.ValidateEnd(sess.Status)
	if err != nil {
		return model.CallSession{}, err
	}
	if alreadyEnded {
		return *sess, nil
	}
	now := time.Now().UTC()
	sess.Status = model.SessionEnded
	sess.EndedAt = &now
	return *sess, nil
}
