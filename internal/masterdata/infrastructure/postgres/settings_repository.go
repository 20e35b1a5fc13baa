package postgres

import (
	"context"
	"database/sql"
	"errors"

	masterdata "meterdesk/internal/masterdata/domain"
)

// SettingsRepository is a Postgres implementation for team billing settings.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository constructs a repository.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// FindSettings loads team settings. Returns nil when the team has none.
func (r *SettingsRepository) FindSettings(ctx context.Context, teamID string) (*masterdata.TeamSettings, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("settings repo: nil db")
	}
	if teamID == "" {
		return nil, errors.New("settings repo: empty team id")
	}

	row := r.db.QueryRowContext(ctx, `
SELECT team_id, currency, tax_rate, water_billing_mode, water_fixed_fee,
	water_rate_per_unit, electric_rate_per_unit, invoice_prefix,
	payment_terms_days, COALESCE(due_date_day_of_month, 0)
FROM team_settings
WHERE team_id = $1`, teamID)

	var settings masterdata.TeamSettings
	var mode string
	err := row.Scan(
		&settings.TeamID,
		&settings.Currency,
		&settings.TaxRate,
		&mode,
		&settings.WaterFixedFee,
		&settings.WaterRatePerUnit,
		&settings.ElectricRatePerUnit,
		&settings.InvoicePrefix,
		&settings.PaymentTermsDays,
		&settings.DueDateDayOfMonth,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	settings.WaterBillingMode = masterdata.WaterBillingMode(mode)
	return &settings, nil
}
