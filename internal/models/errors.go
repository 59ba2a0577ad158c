package models

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

var (
	ErrRecommendationNotFound = errors.New("recommendation not found")
	ErrRecommendationExpired  = errors.New("recommendation expired")
	ErrRecommendationInactive = errors.New("recommendation inactive")
	ErrSavedSearchNotFound    = errors.New("saved search not found")
)

// ValidationError reports a single rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InconsistentEntityTypeError is returned when the recommended entity type does not
// match the direction of the recommendation.
type InconsistentEntityTypeError struct {
	Kind       RecommendationKind
	EntityType EntityType
}

func (e *InconsistentEntityTypeError) Error() string {
	return fmt.Sprintf("recommended_entity_type %q does not match recommendation_kind %q (want %q)",
		e.EntityType, e.Kind, e.Kind.EntityType())
}

// ValidationErrors flattens a (possibly joined) error into its field errors.
func ValidationErrors(err error) []*ValidationError {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*ValidationError
		for _, e := range joined.Unwrap() {
			out = append(out, ValidationErrors(e)...)
		}
		return out
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return []*ValidationError{ve}
	}
	return nil
}

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// validateUnitInterval rejects NaN and anything outside [0,1].
func validateUnitInterval(field string, v float64) error {
	if !(v >= 0 && v <= 1) {
		return newValidationError(field, "must be between 0 and 1, got %v", v)
	}
	return nil
}

func validateMaxLen(field, value string, max int) error {
	if n := utf8.RuneCountInString(value); n > max {
		return newValidationError(field, "must be at most %d characters, got %d", max, n)
	}
	return nil
}

// validateOptionalPattern only checks value when it is present.
func validateOptionalPattern(field string, value *string, re *regexp.Regexp) error {
	if value == nil || *value == "" {
		return nil
	}
	if !re.MatchString(*value) {
		return newValidationError(field, "has invalid format")
	}
	return nil
}
