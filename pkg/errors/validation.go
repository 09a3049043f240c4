package errors

import (
	"strings"
	"unicode"
)

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	for _, r := range rawURL {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "URL contains invalid control characters")
		}
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateRange checks that v lies within [lo, hi].
func ValidateRange(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return New(ErrCodeInvalidInput, "%s must be between %d and %d, got %d", name, lo, hi, v)
	}
	return nil
}

// ValidateMin checks that v is at least lo.
func ValidateMin(name string, v, lo int) error {
	if v < lo {
		return New(ErrCodeInvalidInput, "%s must be >= %d, got %d", name, lo, v)
	}
	return nil
}

// ValidateNonNegative checks that a float parameter is not negative (or NaN).
func ValidateNonNegative(name string, v float64) error {
	if !(v >= 0) {
		return New(ErrCodeInvalidInput, "%s must be >= 0, got %g", name, v)
	}
	return nil
}
