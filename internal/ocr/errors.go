package ocr

import "errors"

var (
	// ErrNoReadingFound is returned when the recognized text contains no
	// numeric token usable as a meter reading.
	ErrNoReadingFound = errors.New("ocr: no reading value found")
	// ErrMissingCredentials is returned when no Google Cloud credentials are
	// configured.
	ErrMissingCredentials = errors.New("ocr: missing Google Cloud credentials")
)
