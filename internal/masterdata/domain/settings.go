package masterdata

// WaterBillingMode selects how water usage is billed.
type WaterBillingMode string

const (
	// WaterBillingMetered bills water by measured consumption.
	WaterBillingMetered WaterBillingMode = "metered"
	// WaterBillingFixed bills water as a flat monthly fee.
	WaterBillingFixed WaterBillingMode = "fixed"
)

// TeamSettings holds per-team billing configuration.
type TeamSettings struct {
	TeamID              string
	Currency            string
	TaxRate             float64
	WaterBillingMode    WaterBillingMode
	WaterFixedFee       float64
	WaterRatePerUnit    float64
	ElectricRatePerUnit float64
	InvoicePrefix       string
	PaymentTermsDays    int
	// DueDateDayOfMonth overrides payment terms when set to 1..31; 0 disables it.
	DueDateDayOfMonth int
}

// WaterRequired reports whether a water reading is needed to complete a
// reading group. Teams without settings default to metered water.
func (s *TeamSettings) WaterRequired() bool {
	return s == nil || s.WaterBillingMode != WaterBillingFixed
}
