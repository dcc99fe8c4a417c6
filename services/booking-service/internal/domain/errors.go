package domain

import "errors"

// Error taxonomy shared by the booking core. Handlers translate these to
// HTTP statuses; storage implementations translate driver errors into them.
var (
	// ErrValidation covers malformed input: bad date ranges, non-positive
	// durations, unknown call types.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSlotUnavailable is returned when a reservation loses the race for a
	// slot (or the slot was already booked). Callers re-prompt slot selection.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrSessionExists is returned when an appointment already has a live
	// (initiating or active) call session.
	ErrSessionExists = errors.New("active call session already exists")

	// ErrInvalidState is returned for illegal call-session transitions, e.g.
	// answering a session that is not initiating or adding candidates after
	// the session ended.
	ErrInvalidState = errors.New("invalid session state")
)
