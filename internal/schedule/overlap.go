// Package schedule decides whether time intervals on a single resource collide.
package schedule

import (
	"time"

	"github.com/kirinyoku/stow/internal/domain"
)

// Overlaps reports whether a and b share any instant under half-open
// semantics. Touching endpoints do not overlap.
func Overlaps(a, b domain.Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// HasConflict reports whether proposed overlaps any of the existing intervals.
// The caller restricts existing to live bookings on the same resource.
func HasConflict(existing []domain.Interval, proposed domain.Interval) bool {
	for _, e := range existing {
		if Overlaps(proposed, e) {
			return true
		}
	}
	return false
}

// FreeSlots cuts [from, to) into consecutive blocks of the given size and
// returns the ones that do not conflict with existing. The last block is
// clipped to to.
func FreeSlots(from, to time.Time, block time.Duration, existing []domain.Interval) []domain.Interval {
	if block <= 0 || !to.After(from) {
		return nil
	}

	var out []domain.Interval
	for cursor := from; cursor.Before(to); cursor = cursor.Add(block) {
		end := cursor.Add(block)
		if end.After(to) {
			end = to
		}

		slot := domain.Interval{Start: cursor, End: end}
		if !HasConflict(existing, slot) {
			out = append(out, slot)
		}
	}

	return out
}
