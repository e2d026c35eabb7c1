/*
 * @module service/ocr/engine
 * @description OCR engine abstraction used by the etiqueta scoring pipeline
 * @architecture adapter pattern - wraps the external text-recognition provider
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow create worker -> extract -> terminate worker (every exit path)
 * @rules extraction runs bounded by the caller timeout; the worker never outlives the call
 * @dependencies context, io, time
 * @refs service/ocr/google_vision.go, service/etiqueta/service.go
 */

package ocr

import (
	"context"
	"io"
	"time"
)

// Engine extracts text from label images.
type Engine interface {
	// ExtractImage runs text recognition on a single image. The worker
	// backing the call is terminated before ExtractImage returns, on every
	// exit path including context cancellation.
	ExtractImage(ctx context.Context, image io.Reader) (*Result, error)
}

// Result is the outcome of one extraction.
type Result struct {
	// Text is the recognized text in reading order.
	Text string `json:"text"`

	// Confidence is the average confidence over all detected symbols (0..1).
	Confidence float32 `json:"confidence"`

	// LanguageCodes lists languages detected on the label, when available.
	LanguageCodes []string `json:"language_codes,omitempty"`

	// ProcessedAt is when the extraction completed.
	ProcessedAt time.Time `json:"processed_at"`

	// ProcessingDuration is how long the extraction took.
	ProcessingDuration time.Duration `json:"processing_duration"`
}
