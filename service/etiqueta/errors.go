package etiqueta

import (
	"errors"
	"fmt"
)

// Error taxonomy for the etiqueta pipeline. Controllers map these onto HTTP
// codes; OCR failures stay distinct from a legitimate below-threshold score
// so the caller can tell "retake the photo" from "label is wrong".
var (
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks an unknown question id.
	ErrNotFound = errors.New("etiqueta question not found")

	// ErrOcrExtraction marks an unreadable or illegible image. Never
	// reported as a similarity score of 0.
	ErrOcrExtraction = errors.New("ocr extraction failed")

	// ErrInternal marks storage or service failures.
	ErrInternal = errors.New("internal error")
)

// validationError builds a user-facing validation failure.
func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
