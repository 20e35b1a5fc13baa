package readings

import "time"

// Status is the lifecycle state of a reading group.
type Status string

const (
	// StatusIncomplete means at least one required meter reading is missing.
	StatusIncomplete Status = "incomplete"
	// StatusPending means the group is complete and ready for invoicing.
	StatusPending Status = "pending"
	// StatusBilled means an invoice was generated from the group.
	StatusBilled Status = "billed"
	// StatusPaid mirrors the invoice being paid.
	StatusPaid Status = "paid"
)

// MeterType identifies which meter a reading belongs to.
type MeterType string

const (
	MeterWater    MeterType = "water"
	MeterElectric MeterType = "electric"
)

// ParseMeterType validates a meter type string.
func ParseMeterType(value string) (MeterType, error) {
	switch MeterType(value) {
	case MeterWater, MeterElectric:
		return MeterType(value), nil
	default:
		return "", ErrInvalidMeterType
	}
}

// MeterReading is one meter's recorded values within a reading group.
type MeterReading struct {
	PreviousReading  float64
	CurrentReading   float64
	Consumption      float64
	PreviousPhotoURL string
	CurrentPhotoURL  string
}

// ReadingGroup merges the water and electric readings for one room and one
// billing period. Identity: (team, room, reading date).
type ReadingGroup struct {
	ID          string
	TeamID      string
	RoomID      string
	RoomNumber  string
	TenantName  string
	ReadingDate time.Time
	Water       *MeterReading
	Electric    *MeterReading
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Reading returns the sub-record for the given meter, nil when absent.
func (g *ReadingGroup) Reading(meter MeterType) *MeterReading {
	if g == nil {
		return nil
	}
	switch meter {
	case MeterWater:
		return g.Water
	case MeterElectric:
		return g.Electric
	}
	return nil
}

// SetReading replaces the sub-record for the given meter. Resubmitting the
// same meter for the same period overwrites the prior values; no history is
// kept here.
func (g *ReadingGroup) SetReading(meter MeterType, reading MeterReading) {
	switch meter {
	case MeterWater:
		g.Water = &reading
	case MeterElectric:
		g.Electric = &reading
	}
}

// RecomputeStatus re-derives the group status from meter presence. Billed and
// paid are terminal for merges; corrections never move a group back.
func (g *ReadingGroup) RecomputeStatus(waterRequired bool) {
	if g.Status == StatusBilled || g.Status == StatusPaid {
		return
	}
	g.Status = DeriveStatus(g.Water != nil, g.Electric != nil, waterRequired)
}

// Clone returns a detached copy with its own meter sub-records.
func (g *ReadingGroup) Clone() *ReadingGroup {
	if g == nil {
		return nil
	}
	copy := *g
	if g.Water != nil {
		water := *g.Water
		copy.Water = &water
	}
	if g.Electric != nil {
		electric := *g.Electric
		copy.Electric = &electric
	}
	return &copy
}
