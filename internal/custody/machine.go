// Package custody implements the handoff/return state machine of a booking.
//
//	Pending --handover--> In-Custody --return--> Completed
//
// Transitions only move forward, one step at a time. Each step is unlocked by
// a one-time scan token minted by the provider and presented by the seeker.
package custody

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/stow/internal/domain"
)

var (
	ErrInvalidTransition = errors.New("invalid custody transition")
	ErrAlreadyCompleted  = errors.New("custody already completed")
)

// Action names the physical step a scan token authorises.
type Action string

const (
	ActionHandover Action = "handover"
	ActionReturn   Action = "return"
)

// Next returns the state that follows s.
func Next(s domain.CustodyState) (domain.CustodyState, error) {
	switch s {
	case domain.CustodyPending:
		return domain.CustodyInCustody, nil
	case domain.CustodyInCustody:
		return domain.CustodyCompleted, nil
	case domain.CustodyCompleted:
		return "", ErrAlreadyCompleted
	default:
		return "", ErrInvalidTransition
	}
}

// ActionFor returns the action a token minted in state s would perform.
func ActionFor(s domain.CustodyState) (Action, error) {
	switch s {
	case domain.CustodyPending:
		return ActionHandover, nil
	case domain.CustodyInCustody:
		return ActionReturn, nil
	case domain.CustodyCompleted:
		return "", ErrAlreadyCompleted
	default:
		return "", ErrInvalidTransition
	}
}

// Advance moves b one step forward at now: it updates the custody state,
// mirrors it into the booking status, stamps the matching timestamp and
// consumes the scan token. b is left untouched on error.
func Advance(b *domain.Booking, now time.Time) error {
	next, err := Next(b.CustodyState)
	if err != nil {
		return err
	}

	switch next {
	case domain.CustodyInCustody:
		b.Status = domain.BookingInCustody
		b.HandedOverAt = &now
	case domain.CustodyCompleted:
		b.Status = domain.BookingCompleted
		b.CompletedAt = &now
	}

	b.CustodyState = next
	b.ScanToken = nil
	b.UpdatedAt = now

	return nil
}

// NewToken returns a fresh unguessable scan token.
func NewToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
