package ocr

import (
	"errors"
	"fmt"
)

// Extraction errors. ErrNoText and ErrInvalidImage mean the label is absent
// or unreadable; callers must not fold these into a low similarity score.
var (
	// ErrImageTooLarge is returned when the image exceeds the provider limit
	// for synchronous processing (20MB for Cloud Vision).
	ErrImageTooLarge = errors.New("image size exceeds the maximum limit (20MB)")

	// ErrInvalidImage is returned when the bytes are not a supported image
	// encoding (JPEG, PNG, WebP, BMP).
	ErrInvalidImage = errors.New("invalid or corrupted image data")

	// ErrExtractionFailed is returned when the recognition provider fails.
	ErrExtractionFailed = errors.New("OCR extraction failed")

	// ErrNoText is returned when the image contains no readable text.
	ErrNoText = errors.New("image contains no readable text")

	// ErrMissingCredentials is returned when no Google Cloud credentials are
	// configured in the environment.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS")
)

// Error wraps extraction failures with the failing operation and detail.
type Error struct {
	Op      string
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapError wraps err as an *Error unless it already is one.
func WrapError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var oe *Error
	if errors.As(err, &oe) {
		return err
	}

	return &Error{Op: op, Err: err, Details: details}
}
