package models

import (
	"fmt"
	"math"
)

// Split is a three-way percentage partition. The meaning of each share
// depends on where it is used: lot profit (reinvestment, reserve, net) or
// cash balance (reinvestment, store cash, salary).
type Split [3]float64

// Sum returns the total of the three shares.
func (s Split) Sum() float64 {
	return s[0] + s[1] + s[2]
}

// Adjust sets share idx to value. When the total would exceed 100 the excess
// is taken from the two other shares in proportion to their current size,
// never driving either below zero.
func (s Split) Adjust(idx int, value float64) Split {
	next := s
	next[idx] = value

	total := next.Sum()
	if total <= 100 {
		return next
	}

	excess := total - 100
	var others float64
	for i := range next {
		if i != idx {
			others += next[i]
		}
	}
	if others <= 0 {
		return next
	}

	for i := range next {
		if i == idx {
			continue
		}
		share := next[i] / others
		next[i] = max(0, next[i]-excess*share)
	}
	return next
}

// Distribute partitions amount according to the split percentages.
func (s Split) Distribute(amount float64) [3]float64 {
	return [3]float64{
		amount * s[0] / 100,
		amount * s[1] / 100,
		amount * s[2] / 100,
	}
}

// Validate rejects splits with a negative share or a total other than 100.
func (s Split) Validate() error {
	for _, share := range s {
		if share < 0 {
			return NewValidationError("split", "shares cannot be negative")
		}
	}
	if math.Abs(s.Sum()-100) > 1e-9 {
		return NewValidationError("split", fmt.Sprintf("shares must add up to 100, got %g", s.Sum()))
	}
	return nil
}
