package service

import (
	"errors"

	"github.com/minwoo/facetrack/internal/matcher"
)

// Sentinel errors for the resolution engine. Anything that is not one of
// these (or a matcher.ErrDimensionMismatch) is reported as a persistence
// failure at the pipeline boundary.
var (
	ErrCameraNotFound = errors.New("camera not found")
	ErrValidation     = errors.New("invalid detection payload")
	ErrPersistence    = errors.New("persistence failure")
)

// Failure kinds reported per item in a batch result.
const (
	FailureNotFound          = "not_found"
	FailureDimensionMismatch = "dimension_mismatch"
	FailureValidation        = "validation_error"
	FailurePersistence       = "persistence_error"
)

// failureKind maps a resolution error to the kind exposed to batch callers.
func failureKind(err error) string {
	switch {
	case errors.Is(err, ErrCameraNotFound):
		return FailureNotFound
	case errors.Is(err, matcher.ErrDimensionMismatch):
		return FailureDimensionMismatch
	case errors.Is(err, ErrValidation):
		return FailureValidation
	default:
		return FailurePersistence
	}
}
