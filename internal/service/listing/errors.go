package listing

import "errors"

var (
	ErrListingNotFound   = errors.New("listing not found")
	ErrForbidden         = errors.New("not your listing")
	ErrInvalidInput      = errors.New("invalid listing")
	ErrLocationRequired  = errors.New("map location (latitude & longitude) is required")
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrNoSpaceRemaining  = errors.New("no space left to split")
	ErrActiveBookings    = errors.New("cannot delete a listing with active bookings")
)
