package readings

// DeriveStatus maps meter presence and the team's water requirement to a
// group status. Electric is always required to bill; water only when the team
// bills it by consumption.
func DeriveStatus(hasWater, hasElectric, waterRequired bool) Status {
	if hasElectric && (!waterRequired || hasWater) {
		return StatusPending
	}
	return StatusIncomplete
}
