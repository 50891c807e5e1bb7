package booking

import (
	"math"
	"time"
)

// DefaultRefundCutoff is how long before the start a seeker must cancel to be
// refunded in full.
const DefaultRefundCutoff = 24 * time.Hour

// Refund returns the refund owed when a booking worth total that starts at
// start is cancelled at now. Cancelling at least cutoff ahead refunds 100%,
// anything later refunds nothing.
func Refund(total float64, start, now time.Time, cutoff time.Duration) (amount float64, percent int) {
	if start.Sub(now) >= cutoff {
		percent = 100
	}

	amount = math.Round(total*float64(percent)) / 100

	return amount, percent
}
