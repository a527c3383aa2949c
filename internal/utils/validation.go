package utils

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	var messages []string
	for _, err := range ve {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, ", ")
}

// Add appends a field error.
func (ve *ValidationErrors) Add(field, message string) {
	*ve = append(*ve, ValidationError{Field: field, Message: message})
}

// OrNil returns nil when no errors were collected, so callers can `return errs.OrNil()`.
func (ve ValidationErrors) OrNil() error {
	if len(ve) == 0 {
		return nil
	}
	return ve
}

var (
	tenDigitPhone = regexp.MustCompile(`^[0-9]{10}$`)
	controlChars  = regexp.MustCompile(`[\x00-\x08\x0b-\x1f\x7f]`)
	markupTags    = regexp.MustCompile(`<[^>]*>`)
)

// IsTenDigitPhone reports whether phone, after trimming surrounding whitespace,
// is exactly ten ASCII digits.
func IsTenDigitPhone(phone string) bool {
	return tenDigitPhone.MatchString(strings.TrimSpace(phone))
}

// SanitizeString removes control characters and markup from free-text input
func SanitizeString(input string) string {
	sanitized := controlChars.ReplaceAllString(input, "")
	sanitized = markupTags.ReplaceAllString(sanitized, "")
	return strings.TrimSpace(sanitized)
}

// InlineImageSize returns the decoded byte size of an inline image. Data URLs
// ("data:image/png;base64,....") are measured after base64 decoding; anything
// else is a reference and reports zero.
func InlineImageSize(imageURL string) (int64, error) {
	if !strings.HasPrefix(imageURL, "data:") {
		return 0, nil
	}
	comma := strings.IndexByte(imageURL, ',')
	if comma < 0 {
		return 0, fmt.Errorf("malformed data URL")
	}
	meta, payload := imageURL[5:comma], imageURL[comma+1:]
	if !strings.HasPrefix(meta, "image/") {
		return 0, fmt.Errorf("data URL is not an image")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return int64(len(payload)), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return 0, fmt.Errorf("invalid base64 image payload: %w", err)
	}
	return int64(len(decoded)), nil
}
