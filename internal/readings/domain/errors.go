package readings

import "errors"

var (
	// ErrInvalidReadingOrder is returned when the current reading is below the previous one.
	ErrInvalidReadingOrder = errors.New("readings: current reading is below previous reading")
	// ErrInvalidReadingDate is returned when the reading date cannot be parsed.
	ErrInvalidReadingDate = errors.New("readings: invalid reading date")
	// ErrInvalidMeterType is returned for meter types other than water or electric.
	ErrInvalidMeterType = errors.New("readings: invalid meter type")
	// ErrNotFound is returned when a reading group does not exist.
	ErrNotFound = errors.New("readings: reading group not found")
	// ErrEmptyKey is returned when the team or room id is missing.
	ErrEmptyKey = errors.New("readings: empty team or room id")
	// ErrNilGroup is returned when persisting a nil group.
	ErrNilGroup = errors.New("readings: nil reading group")
)
