package listing

import (
	"fmt"
	"math"
)

// SplitSuffix is appended to the title of the listing carved out by a split.
const SplitSuffix = " (Split)"

// planSplit validates shrinking a length×width space to newLength×newWidth
// and returns the dimensions of the remainder.
//
// Shrinking one axis leaves a strip of the freed length (or width) across the
// full other axis. Shrinking both keeps the original length and derives the
// width from the freed area. Dimensions are rounded to two decimals.
func planSplit(length, width, newLength, newWidth float64) (remLength, remWidth float64, err error) {
	if newLength <= 0 || newWidth <= 0 {
		return 0, 0, fmt.Errorf("%w: new dimensions must be positive", ErrInvalidDimensions)
	}

	if newLength >= length && newWidth >= width {
		return 0, 0, fmt.Errorf("%w: new dimensions must be smaller than current dimensions in at least one axis", ErrInvalidDimensions)
	}

	if newLength > length || newWidth > width {
		return 0, 0, fmt.Errorf("%w: new dimensions cannot exceed original dimensions on any axis", ErrInvalidDimensions)
	}

	remainder := length*width - newLength*newWidth
	if remainder <= 0 {
		return 0, 0, ErrNoSpaceRemaining
	}

	switch {
	case newLength < length && newWidth == width:
		return round2(length - newLength), width, nil
	case newWidth < width && newLength == length:
		return length, round2(width - newWidth), nil
	default:
		return length, round2(remainder / length), nil
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
