package booking

import "errors"

var (
	ErrInvalidTimeRange  = errors.New("end time must be after start time")
	ErrListingNotFound   = errors.New("listing not found")
	ErrListingInactive   = errors.New("listing is not accepting bookings")
	ErrSelfBooking       = errors.New("cannot book your own listing")
	ErrSubSlotNotFound   = errors.New("sub-slot not found on this listing")
	ErrSlotUnavailable   = errors.New("time slot already booked")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrForbidden         = errors.New("forbidden")
	ErrAlreadyCancelled  = errors.New("booking already cancelled")
	ErrCustodyInProgress = errors.New("cannot cancel while items are in custody")
	ErrAlreadyCompleted  = errors.New("cannot cancel a completed booking")
)
