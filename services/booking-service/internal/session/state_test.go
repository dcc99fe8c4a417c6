package session

import (
	"errors"
	"testing"

	"github.com/nutribook/nutribook/services/booking-service/internal/domain"
	"github.com/nutribook/nutribook/services/booking-service/internal/model"
)

func TestValidateAnswer(t *testing.T) {
	if err := ValidateAnswer(model.SessionInitiating); err != nil {
		t.Fatalf("answer from initiating should be legal: %v", err)
	}
	if err := ValidateAnswer(model.SessionActive); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("answer from active should be invalid state, got %v", err)
	}
	if err := ValidateAnswer(model.SessionEnded); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("answer from ended should be invalid state, got %v", err)
	}
}

func TestValidateAddCandidate(t *testing.T) {
	if err := ValidateAddCandidate(model.SessionInitiating); err != nil {
		t.Fatalf("candidate while initiating should be legal: %v", err)
	}
	if err := ValidateAddCandidate(model.SessionActive); err != nil {
		t.Fatalf("candidate while active should be legal: %v", err)
	}
	if err := ValidateAddCandidate(model.SessionEnded); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("candidate after end should be invalid state, got %v", err)
	}
}

func TestValidateEnd(t *testing.T) {
	alreadyEnded, err := ValidateEnd(model.SessionInitiating)
	if err != nil || alreadyEnded {
		t.Fatalf("initiating session is not already ended, got (%v, %v)", alreadyEnded, err)
	}
	alreadyEnded, err = ValidateEnd(model.SessionActive)
	if err != nil || alreadyEnded {
		t.Fatalf("active session is not already ended, got (%v, %v)", alreadyEnded, err)
	}
	alreadyEnded, err = ValidateEnd(model.SessionEnded)
	if err != nil || !alreadyEnded {
		t.Fatalf("ended session should report already ended, got (%v, %v)", alreadyEnded, err)
	}
	if _, err := ValidateEnd(model.SessionStatus("bogus")); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("unknown status should be invalid state, got %v", err)
	}
}

func TestLive(t *testing.T) {
	if !Live(model.SessionInitiating) || !Live(model.SessionActive) {
		t.Fatal("initiating and active sessions are live")
	}
	if Live(model.SessionEnded) {
		t.Fatal("ended session is not live")
	}
}
