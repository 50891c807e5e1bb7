package custody

import (
	"errors"

	custodyfsm "github.com/kirinyoku/stow/internal/custody"
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrForbidden         = errors.New("forbidden")
	ErrBookingCancelled  = errors.New("booking is cancelled")
	ErrInvalidToken      = errors.New("invalid or expired QR code")
	ErrTooManyAttempts   = errors.New("too many scan attempts")
	ErrAlreadyCompleted  = custodyfsm.ErrAlreadyCompleted
	ErrInvalidTransition = custodyfsm.ErrInvalidTransition
)
