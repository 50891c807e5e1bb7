package redisrepo

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const ns = "stow:v1"

// maxSlotDays caps how many per-day slot keys a single booking invalidates.
// Days beyond the cap expire with the slot cache TTL.
const maxSlotDays = 400

func KeyListing(id uuid.UUID) string {
	return fmt.Sprintf("%s:listing:%s", ns, id)
}

// KeySlots is the cache key of the free slots of a listing (or one of its
// sub-slots) on a UTC day formatted as 2006-01-02.
func KeySlots(listingID uuid.UUID, subSlotID *uuid.UUID, day string) string {
	scope := "all"
	if subSlotID != nil {
		scope = subSlotID.String()
	}
	return fmt.Sprintf("%s:listing:%s:slots:%s:%s", ns, listingID, scope, day)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func KeyIdemBooking(userID uuid.UUID, idemKey string) string {
	return fmt.Sprintf("%s:idem:bookings:%s:%s", ns, userID, idemKey)
}

func ChannelBookingsChanged() string {
	return ns + ":bookings:changed"
}

// SlotDays lists the UTC days touched by the half-open range [start, end).
func SlotDays(start, end time.Time) []string {
	if !end.After(start) {
		return nil
	}

	first := start.UTC().Truncate(24 * time.Hour)
	last := end.UTC().Add(-time.Nanosecond).Truncate(24 * time.Hour)

	var days []string
	for d := first; !d.After(last) && len(days) < maxSlotDays; d = d.Add(24 * time.Hour) {
		days = append(days, d.Format(time.DateOnly))
	}

	return days
}
