/*
 * @module service/ocr/google_vision
 * @description Google Cloud Vision implementation of the OCR engine
 * @architecture adapter pattern
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow client created per extraction call, closed on every exit path
 * @rules synchronous TEXT_DETECTION on inline content; 20MB size cap; per-call timeout
 * @dependencies cloud.google.com/go/vision/v2, google.golang.org/api/option
 * @refs service/ocr/engine.go
 */

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

const (
	// MaxImageSizeBytes is the Cloud Vision limit for synchronous requests.
	MaxImageSizeBytes = 20 * 1024 * 1024

	// DefaultExtractTimeout bounds a single extraction call.
	DefaultExtractTimeout = 30 * time.Second
)

// Image encodings accepted for label photos.
var imageMagic = map[string][]byte{
	"jpeg": {0xFF, 0xD8, 0xFF},
	"png":  {0x89, 0x50, 0x4E, 0x47},
	"webp": {0x52, 0x49, 0x46, 0x46},
	"bmp":  {0x42, 0x4D},
}

// GoogleVisionEngine implements Engine with the Cloud Vision API.
// A fresh annotator client is created for every extraction and closed before
// the call returns, so a hung request cannot leak gRPC resources past the
// configured timeout.
type GoogleVisionEngine struct {
	timeout time.Duration
	opts    []option.ClientOption
}

// NewGoogleVisionEngine builds the engine with credentials from environment.
// GOOGLE_CREDENTIALS (inline JSON) takes precedence over
// GOOGLE_APPLICATION_CREDENTIALS (file path); application default credentials
// are the fallback.
func NewGoogleVisionEngine(timeout time.Duration) *GoogleVisionEngine {
	if timeout <= 0 {
		timeout = DefaultExtractTimeout
	}

	var opts []option.ClientOption
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	}

	return &GoogleVisionEngine{timeout: timeout, opts: opts}
}

// ExtractImage runs TEXT_DETECTION on a single label image.
func (g *GoogleVisionEngine) ExtractImage(ctx context.Context, image io.Reader) (*Result, error) {
	const op = "ExtractImage"
	startTime := time.Now()

	imgBytes, err := io.ReadAll(image)
	if err != nil {
		return nil, WrapError(op, err, "failed to read image data")
	}

	if len(imgBytes) > MaxImageSizeBytes {
		return nil, WrapError(op, ErrImageTooLarge, fmt.Sprintf("image size: %d bytes", len(imgBytes)))
	}

	if !isSupportedImage(imgBytes) {
		return nil, WrapError(op, ErrInvalidImage, "unrecognized image encoding")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	client, err := vision.NewImageAnnotatorClient(ctx, g.opts...)
	if err != nil {
		if len(g.opts) == 0 {
			return nil, WrapError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapError(op, err, "failed to create vision client")
	}
	defer client.Close()

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: imgBytes},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, WrapError(op, ErrExtractionFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}

	if len(resp.Responses) == 0 {
		return nil, WrapError(op, ErrExtractionFailed, "no response from Vision API")
	}

	annotation := resp.Responses[0]
	if annotation.Error != nil {
		return nil, WrapError(op, ErrExtractionFailed, fmt.Sprintf("Vision API error: %s", annotation.Error.Message))
	}

	result, err := processAnnotation(annotation)
	if err != nil {
		return nil, WrapError(op, err, "failed to process Vision API response")
	}

	result.ProcessedAt = time.Now()
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	return result, nil
}

// processAnnotation extracts text and aggregate confidence from one response.
func processAnnotation(annotation *visionpb.AnnotateImageResponse) (*Result, error) {
	full := annotation.FullTextAnnotation
	if full == nil || strings.TrimSpace(full.Text) == "" {
		return nil, ErrNoText
	}

	var confidenceSum float32
	var confidenceCount int
	languageSet := make(map[string]bool)

	for _, page := range full.Pages {
		for _, block := range page.Blocks {
			if block.Confidence > 0 {
				confidenceSum += block.Confidence
				confidenceCount++
			}
			for _, paragraph := range block.Paragraphs {
				for _, word := range paragraph.Words {
					for _, symbol := range word.Symbols {
						if symbol.Property != nil {
							for _, lang := range symbol.Property.DetectedLanguages {
								if lang.LanguageCode != "" {
									languageSet[lang.LanguageCode] = true
								}
							}
						}
					}
				}
			}
		}
	}

	var avgConfidence float32
	if confidenceCount > 0 {
		avgConfidence = confidenceSum / float32(confidenceCount)
	}

	var languages []string
	for lang := range languageSet {
		languages = append(languages, lang)
	}

	return &Result{
		Text:          full.Text,
		Confidence:    avgConfidence,
		LanguageCodes: languages,
	}, nil
}

// isSupportedImage checks the magic bytes against the accepted encodings.
func isSupportedImage(data []byte) bool {
	for _, magic := range imageMagic {
		if len(data) >= len(magic) && bytes.Equal(data[:len(magic)], magic) {
			return true
		}
	}
	return false
}
