package ocr

import (
	"context"
	"io"
	"os"

	vision "cloud.google.com/go/vision/apiv1"
	"google.golang.org/api/option"
)

// GoogleVisionRecognizer implements Recognizer using Google Cloud Vision
// document text detection.
type GoogleVisionRecognizer struct {
	client *vision.ImageAnnotatorClient
}

// NewGoogleVisionRecognizer creates a recognizer with credentials from the
// environment: GOOGLE_CREDENTIALS inline JSON, GOOGLE_APPLICATION_CREDENTIALS
// file path, or application default credentials.
func NewGoogleVisionRecognizer(ctx context.Context) (*GoogleVisionRecognizer, error) {
	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, ErrMissingCredentials
		}
	}
	if err != nil {
		return nil, err
	}
	return &GoogleVisionRecognizer{client: client}, nil
}

// RecognizeReading extracts a meter reading value from a photo.
func (g *GoogleVisionRecognizer) RecognizeReading(ctx context.Context, image io.Reader) (*Result, error) {
	img, err := vision.NewImageFromReader(image)
	if err != nil {
		return nil, err
	}

	annotation, err := g.client.DetectDocumentText(ctx, img, nil)
	if err != nil {
		return nil, err
	}
	if annotation == nil || annotation.Text == "" {
		return nil, ErrNoReadingFound
	}

	value, err := ExtractReadingValue(annotation.Text)
	if err != nil {
		return nil, err
	}
	return &Result{Value: value, RawText: annotation.Text}, nil
}

// Close releases the underlying API client.
func (g *GoogleVisionRecognizer) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}
