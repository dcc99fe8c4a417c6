package model

import "time"

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
)

// TimeSlot is one bookable interval for a service. Slots are generated ahead
// of time and flip between available and booked; they are never deleted once
// an appointment has referenced them.
type TimeSlot struct {
	ID            string
	ServiceID     string
	StartTime     time.Time
	EndTime       time.Time
	Status        SlotStatus
	AppointmentID *string
	CreatedAt     time.Time
}

const (
	AppointmentBooked    = "booked"
	AppointmentCancelled = "cancelled"
)

type Appointment struct {
	ID          string
	UserID      string
	ServiceID   string
	SlotID      string
	Status      string
	CreatedAt   time.Time
	CancelledAt *time.Time
}

type CallType string

const (
	CallVideo CallType = "video"
	CallVoice CallType = "voice"
)

func (t CallType) Valid() bool {
	return t == CallVideo || t == CallVoice
}

type SessionStatus string

const (
	SessionInitiating SessionStatus = "initiating"
	SessionActive     SessionStatus = "active"
	SessionEnded      SessionStatus = "ended"
)

// CallSession records the signalling handshake for a consultation call.
// The platform relays offer/answer/ICE candidates; it never carries media.
type CallSession struct {
	ID            string
	AppointmentID string
	InitiatorID   string
	CallType      CallType
	Status        SessionStatus
	Offer         string
	Answer        *string
	StartedAt     time.Time
	EndedAt       *time.Time
}

// IceCandidate rows are append-only; Seq is assigned by the store and defines
// relay replay order (arrival order).
type IceCandidate struct {
	Seq       int64
	SessionID string
	Candidate string
	CreatedAt time.Time
}
