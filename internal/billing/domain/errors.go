package billing

import "errors"

var (
	// ErrMissingElectricReading rejects generation for a group without an
	// electric reading; electric is always required to bill.
	ErrMissingElectricReading = errors.New("billing: missing electric reading")
	// ErrMissingWaterReading rejects generation when water is metered and no
	// water reading is present.
	ErrMissingWaterReading = errors.New("billing: missing water reading")
	// ErrSettingsNotConfigured rejects generation for a team without billing
	// settings.
	ErrSettingsNotConfigured = errors.New("billing: team settings not configured")
	// ErrRoomNotFound rejects generation when the group's room cannot be
	// resolved.
	ErrRoomNotFound = errors.New("billing: room not found")
	// ErrInvoiceNotFound reports a lookup for an invoice that does not exist.
	ErrInvoiceNotFound = errors.New("billing: invoice not found")
	// ErrNilInvoice reports a nil invoice passed to a write.
	ErrNilInvoice = errors.New("billing: nil invoice")
)
