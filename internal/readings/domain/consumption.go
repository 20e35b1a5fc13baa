package readings

// Consumption returns the usage between two meter readings. It fails when the
// current reading is below the previous one; corrections must be submitted as
// a full overwrite, never as a negative delta.
func Consumption(previousReading, currentReading float64) (float64, error) {
	if currentReading < previousReading {
		return 0, ErrInvalidReadingOrder
	}
	return currentReading - previousReading, nil
}
