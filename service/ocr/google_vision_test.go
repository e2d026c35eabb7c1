/*
 * @module service/ocr/google_vision_test
 * @description Unit tests for the Vision engine's local validation and response processing
 * @architecture test layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow input validation and annotation processing without API calls
 * @rules tests never reach the Vision API; invalid input must fail before any network IO
 * @dependencies testing, stretchr/testify
 */

package ocr

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func TestExtractImageRejectsOversizedInput(t *testing.T) {
	engine := NewGoogleVisionEngine(time.Second)

	big := make([]byte, MaxImageSizeBytes+1)
	copy(big, pngHeader)

	_, err := engine.ExtractImage(context.Background(), bytes.NewReader(big))
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestExtractImageRejectsUnknownEncoding(t *testing.T) {
	engine := NewGoogleVisionEngine(time.Second)

	_, err := engine.ExtractImage(context.Background(), bytes.NewReader([]byte("plain text, not an image")))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, isSupportedImage(pngHeader))
	assert.True(t, isSupportedImage([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.True(t, isSupportedImage([]byte{0x42, 0x4D, 0x00}))
	assert.False(t, isSupportedImage([]byte{0x00, 0x01}))
	assert.False(t, isSupportedImage(nil))
}

func TestNewGoogleVisionEngineDefaultTimeout(t *testing.T) {
	engine := NewGoogleVisionEngine(0)
	assert.Equal(t, DefaultExtractTimeout, engine.timeout)

	engine = NewGoogleVisionEngine(-time.Second)
	assert.Equal(t, DefaultExtractTimeout, engine.timeout)
}

func TestProcessAnnotationNoText(t *testing.T) {
	_, err := processAnnotation(&visionpb.AnnotateImageResponse{})
	assert.ErrorIs(t, err, ErrNoText)

	_, err = processAnnotation(&visionpb.AnnotateImageResponse{
		FullTextAnnotation: &visionpb.TextAnnotation{Text: "   "},
	})
	assert.ErrorIs(t, err, ErrNoText)
}

func TestProcessAnnotationAggregatesConfidence(t *testing.T) {
	annotation := &visionpb.AnnotateImageResponse{
		FullTextAnnotation: &visionpb.TextAnnotation{
			Text: "CLASSE ENERGETICA A",
			Pages: []*visionpb.Page{
				{
					Blocks: []*visionpb.Block{
						{Confidence: 0.9},
						{Confidence: 0.7},
					},
				},
			},
		},
	}

	result, err := processAnnotation(annotation)
	require.NoError(t, err)
	assert.Equal(t, "CLASSE ENERGETICA A", result.Text)
	assert.InDelta(t, 0.8, float64(result.Confidence), 0.0001)
}

func TestWrapErrorPreservesSentinel(t *testing.T) {
	wrapped := WrapError("ExtractImage", ErrInvalidImage, "unrecognized image encoding")

	assert.ErrorIs(t, wrapped, ErrInvalidImage)

	var ocrErr *Error
	require.True(t, errors.As(wrapped, &ocrErr))
	assert.Equal(t, "ExtractImage", ocrErr.Op)
	assert.Equal(t, "unrecognized image encoding", ocrErr.Details)
}
