package utils

import (
	"strconv"
	"strings"
	"time"
)

// Clock returns the current time; services take one so tests can pin it.
type Clock func() time.Time

// StoreClock returns a clock that reports the current time in loc.
func StoreClock(loc *time.Location) Clock {
	return func() time.Time {
		return time.Now().In(loc)
	}
}

// WithinHourWindow reports whether t falls in [startHour, endHour) of its own location.
func WithinHourWindow(t time.Time, startHour, endHour int) bool {
	h := t.Hour()
	return h >= startHour && h < endHour
}

// FormatAmount prints an amount without trailing zeros ("240", "12.5").
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// FormatCurrency prefixes an amount with the store currency label.
func FormatCurrency(label string, amount float64) string {
	return strings.TrimSpace(label + " " + FormatAmount(amount))
}

// SafeStringPointer returns a pointer to s, or nil when s is empty
func SafeStringPointer(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// DerefString safely dereferences a string pointer
func DerefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Contains checks if a slice contains a specific item
func Contains[T comparable](slice []T, item T) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// RemoveDuplicates removes duplicate items from a slice, keeping first occurrences
func RemoveDuplicates[T comparable](slice []T) []T {
	keys := make(map[T]bool)
	var result []T

	for _, item := range slice {
		if !keys[item] {
			keys[item] = true
			result = append(result, item)
		}
	}

	return result
}
