package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks bad input: missing book, empty or gapped page set.
	ErrValidation = errors.New("validation error")
	// ErrClassification marks an external classifier failure after retries.
	ErrClassification = errors.New("classification error")
	// ErrInvalidBoundary marks a boundary-detector contract violation.
	ErrInvalidBoundary = errors.New("invalid boundary")
	// ErrHighFailureRate marks a classification circuit-breaker trip.
	ErrHighFailureRate = errors.New("high failure rate")
	// ErrPersistence marks a store write failure after retries.
	ErrPersistence = errors.New("persistence error")
	// ErrConfiguration marks unusable runtime configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNoMatch reports that no soundscape cleared the confidence threshold.
	// It is a valid empty-match outcome, never a job failure.
	ErrNoMatch = errors.New("no match")
	// ErrTransient marks failures with no more specific classification.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes phase context while tagging it
// with the provided marker for later kind classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, phase, operation, message string, err error) error {
	detail := buildDetail(phase, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorKind maps an error to the kind string recorded in processing-error
// reports and surfaced to monitoring collaborators.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrClassification):
		return "classification"
	case errors.Is(err, ErrInvalidBoundary):
		return "invalid_boundary"
	case errors.Is(err, ErrHighFailureRate):
		return "high_failure_rate"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNoMatch):
		return "no_match"
	default:
		return "transient"
	}
}

// IsFatal reports whether an error must fail the whole job. Per the pipeline
// contract only bad input, boundary contract violations, and circuit-breaker
// trips abort processing; unit-level failures are recorded and skipped.
func IsFatal(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidBoundary) ||
		errors.Is(err, ErrHighFailureRate) ||
		errors.Is(err, ErrConfiguration)
}

func buildDetail(phase, operation, message string) string {
	parts := make([]string, 0, 3)
	if phase = strings.TrimSpace(phase); phase != "" {
		parts = append(parts, phase)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
