package ocr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// ExtractReadingValue picks the largest numeric token from recognized text
// and formats it with two decimal places. Meter displays surround the counter
// with smaller figures (serial numbers, unit markings); the counter is
// reliably the largest value on the face.
func ExtractReadingValue(text string) (string, error) {
	tokens := numberPattern.FindAllString(text, -1)
	if len(tokens) == 0 {
		return "", ErrNoReadingFound
	}

	best := 0.0
	found := false
	for _, token := range tokens {
		normalized := strings.ReplaceAll(token, ",", ".")
		value, err := strconv.ParseFloat(normalized, 64)
		if err != nil {
			continue
		}
		if !found || value > best {
			best = value
			found = true
		}
	}
	if !found {
		return "", ErrNoReadingFound
	}
	return fmt.Sprintf("%.2f", best), nil
}
