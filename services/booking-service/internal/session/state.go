package session

import (
	"fmt"

	"github.com/nutribook/nutribook/services/booking-service/internal/domain"
	"github.com/nutribook/nutribook/services/booking-service/internal/model"
)

// Transition rules for the call-session state machine:
//
//	initiating --answer--> active --end--> ended
//	initiating -----------end------------> ended
//
// ended is terminal; ICE candidates may arrive while initiating or active.
// Both the Postgres store and the handler test fakes consult these rules so
// the contract cannot drift between them.

func ValidateAnswer(status model.SessionStatus) error {
	switch status {
	case model.SessionInitiating:
		return nil
	case model.SessionActive:
		return fmt.Errorf("%w: session already answered", domain.ErrInvalidState)
	case model.SessionEnded:
		return fmt.Errorf("%w: session has ended", domain.ErrInvalidState)
	default:
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidState, status)
	}
}

func ValidateAddCandidate(status model.SessionStatus) error {
	switch status {
	case model.SessionInitiating, model.SessionActive:
		return nil
	case model.SessionEnded:
		return fmt.Errorf("%w: session has ended", domain.ErrInvalidState)
	default:
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidState, status)
	}
}

// ValidateEnd reports whether the session is already ended. Ending an ended
// session is an idempotent no-op, never an error, and a terminal session is
// never mutated again.
func ValidateEnd(status model.SessionStatus) (alreadyEnded bool, err error) {
	switch status {
	case model.SessionInitiating, model.SessionActive:
		return false, nil
	case model.SessionEnded:
		return true, nil
	default:
		return false, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidState, status)
	}
}

// Live reports whether a session still blocks the creation of a new session
// for the same appointment.
func Live(status model.SessionStatus) bool {
	return status == model.SessionInitiating || status == model.SessionActive
}
