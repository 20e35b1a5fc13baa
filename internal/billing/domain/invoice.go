package billing

import "time"

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// ReadingSnapshot is a copy of one meter's reading taken at generation time,
// kept on the invoice for audit display. The live reading group may be
// corrected later; the snapshot is not.
type ReadingSnapshot struct {
	Meter            string  `json:"meter"`
	PreviousReading  float64 `json:"previous_reading"`
	CurrentReading   float64 `json:"current_reading"`
	Consumption      float64 `json:"consumption"`
	PreviousPhotoURL string  `json:"previous_photo_url,omitempty"`
	CurrentPhotoURL  string  `json:"current_photo_url,omitempty"`
}

// Invoice is one bill generated from a reading group. At most one invoice
// exists per reading group.
type Invoice struct {
	ID             string `json:"id"`
	TeamID         string `json:"team_id"`
	InvoiceNumber  string `json:"invoice_number"`
	RoomID         string `json:"room_id"`
	RoomNumber     string `json:"room_number"`
	TenantID       string `json:"tenant_id,omitempty"`
	TenantName     string `json:"tenant_name"`
	ReadingGroupID string `json:"reading_group_id"`

	IssueDate time.Time  `json:"issue_date"`
	DueDate   time.Time  `json:"due_date"`
	Status    Status     `json:"status"`
	PaidDate  *time.Time `json:"paid_date,omitempty"`

	Currency            string  `json:"currency"`
	WaterConsumption    float64 `json:"water_consumption"`
	WaterRatePerUnit    float64 `json:"water_rate_per_unit"`
	WaterAmount         float64 `json:"water_amount"`
	ElectricConsumption float64 `json:"electric_consumption"`
	ElectricRatePerUnit float64 `json:"electric_rate_per_unit"`
	ElectricAmount      float64 `json:"electric_amount"`
	Subtotal            float64 `json:"subtotal"`
	Tax                 float64 `json:"tax"`
	Total               float64 `json:"total"`

	Readings []ReadingSnapshot `json:"readings,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy.
func (inv *Invoice) Clone() *Invoice {
	if inv == nil {
		return nil
	}
	clone := *inv
	if inv.PaidDate != nil {
		paid := *inv.PaidDate
		clone.PaidDate = &paid
	}
	if inv.Readings != nil {
		clone.Readings = make([]ReadingSnapshot, len(inv.Readings))
		copy(clone.Readings, inv.Readings)
	}
	return &clone
}
