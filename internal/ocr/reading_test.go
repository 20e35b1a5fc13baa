package ocr

import (
	"errors"
	"testing"
)

func TestExtractReadingValue(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"single value", "1234", "1234.00"},
		{"picks the largest token", "No. 55 kWh 1234.5 rev 3", "1234.50"},
		{"comma decimal separator", "Zählerstand 1234,75", "1234.75"},
		{"value embedded in text", "meter reading: 00042 units", "42.00"},
		{"decimal beats larger-looking integer prefix", "12 9876.25 340", "9876.25"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractReadingValue(tc.text)
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if got != tc.want {
				t.Errorf("ExtractReadingValue(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestExtractReadingValue_NoNumbers(t *testing.T) {
	if _, err := ExtractReadingValue("no digits here"); !errors.Is(err, ErrNoReadingFound) {
		t.Fatalf("expected ErrNoReadingFound, got %v", err)
	}
	if _, err := ExtractReadingValue(""); !errors.Is(err, ErrNoReadingFound) {
		t.Fatalf("expected ErrNoReadingFound for empty text, got %v", err)
	}
}
