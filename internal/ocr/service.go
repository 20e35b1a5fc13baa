// Package ocr recognizes meter reading values from photos using Google Cloud
// Vision. Recognized values only pre-fill the submission form; they are never
// written to a reading group without going through submission validation.
package ocr

import (
	"context"
	"io"
)

// Recognizer extracts a meter reading value from a photo.
type Recognizer interface {
	RecognizeReading(ctx context.Context, image io.Reader) (*Result, error)
}

// Result is a recognized meter reading.
type Result struct {
	// Value is the reading formatted with two decimal places, e.g. "1234.50".
	Value string `json:"value"`
	// RawText is the full recognized text, kept for operator review.
	RawText string `json:"raw_text,omitempty"`
}
