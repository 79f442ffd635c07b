package errors

import "math"

// ValidateAlpha validates an audit error tolerance.
// Alpha must lie in the open interval (0, 1); 0 would demand unanimity
// across every trial and 1 would accept any outcome.
func ValidateAlpha(alpha float64) error {
	if math.IsNaN(alpha) || alpha <= 0 || alpha >= 1 {
		return New(ErrCodeInvalidConfig, "alpha must be in (0, 1), got %v", alpha)
	}
	return nil
}

// ValidatePositive validates that a named count parameter is at least 1.
func ValidatePositive(name string, v int) error {
	if v < 1 {
		return New(ErrCodeInvalidConfig, "%s must be positive, got %d", name, v)
	}
	return nil
}

// ValidateNonNegative validates that a named count parameter is not negative.
// Zero is commonly used for "unknown" or "use the default".
func ValidateNonNegative(name string, v int) error {
	if v < 0 {
		return New(ErrCodeInvalidConfig, "%s must not be negative, got %d", name, v)
	}
	return nil
}

// ValidateSeats validates the number of seats against the candidate count.
func ValidateSeats(seats, candidates int) error {
	if seats < 1 {
		return New(ErrCodeInvalidConfig, "seats must be positive, got %d", seats)
	}
	if seats > candidates {
		return New(ErrCodeInvalidConfig, "seats (%d) exceed candidates (%d)", seats, candidates)
	}
	return nil
}
