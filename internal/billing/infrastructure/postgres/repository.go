package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	billing "meterdesk/internal/billing/domain"
	"meterdesk/internal/storage"
)

const collection = "invoices"

// Repository is a Postgres implementation for invoices. The schema carries a
// uniqueness constraint on reading_group_id; Create surfaces it as
// storage.ConstraintViolation so the generator can recover the winning row.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `
id, team_id, invoice_number, room_id, room_number, tenant_id, tenant_name, reading_group_id,
issue_date, due_date, status, paid_date, currency,
water_consumption, water_rate_per_unit, water_amount,
electric_consumption, electric_rate_per_unit, electric_amount,
subtotal, tax, total, readings, created_at, updated_at`

// FindByReadingGroup loads the invoice generated from a reading group.
// Returns nil when absent.
func (r *Repository) FindByReadingGroup(ctx context.Context, teamID, readingGroupID string) (*billing.Invoice, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("invoice repo: nil db")
	}

	row := r.db.QueryRowContext(ctx, `
SELECT `+selectColumns+`
FROM invoices
WHERE team_id = $1 AND reading_group_id = $2
LIMIT 1`, teamID, readingGroupID)
	return scanInvoice(row)
}

// GetByID loads an invoice by id. Returns nil when absent.
func (r *Repository) GetByID(ctx context.Context, teamID, id string) (*billing.Invoice, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("invoice repo: nil db")
	}

	row := r.db.QueryRowContext(ctx, `
SELECT `+selectColumns+`
FROM invoices
WHERE team_id = $1 AND id = $2`, teamID, id)
	return scanInvoice(row)
}

// CountByTeam counts a team's invoices.
func (r *Repository) CountByTeam(ctx context.Context, teamID string) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("invoice repo: nil db")
	}

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM invoices WHERE team_id = $1`, teamID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new invoice.
func (r *Repository) Create(ctx context.Context, invoice *billing.Invoice) error {
	if r == nil || r.db == nil {
		return errors.New("invoice repo: nil db")
	}
	if invoice == nil {
		return billing.ErrNilInvoice
	}

	snapshots, err := json.Marshal(invoice.Readings)
	if err != nil {
		return fmt.Errorf("marshal reading snapshots: %w", err)
	}

	var paidDate any
	if invoice.PaidDate != nil {
		paidDate = invoice.PaidDate.UTC()
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO invoices (
	id, team_id, invoice_number, room_id, room_number, tenant_id, tenant_name, reading_group_id,
	issue_date, due_date, status, paid_date, currency,
	water_consumption, water_rate_per_unit, water_amount,
	electric_consumption, electric_rate_per_unit, electric_amount,
	subtotal, tax, total, readings, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25
)`,
		invoice.ID, invoice.TeamID, invoice.InvoiceNumber, invoice.RoomID, invoice.RoomNumber,
		invoice.TenantID, invoice.TenantName, invoice.ReadingGroupID,
		invoice.IssueDate.UTC(), invoice.DueDate.UTC(), string(invoice.Status), paidDate, invoice.Currency,
		invoice.WaterConsumption, invoice.WaterRatePerUnit, invoice.WaterAmount,
		invoice.ElectricConsumption, invoice.ElectricRatePerUnit, invoice.ElectricAmount,
		invoice.Subtotal, invoice.Tax, invoice.Total, snapshots,
		invoice.CreatedAt.UTC(), invoice.UpdatedAt.UTC())
	return storage.MapError(collection, err)
}

// MarkPaid records payment of an invoice.
func (r *Repository) MarkPaid(ctx context.Context, teamID, id string, paidAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("invoice repo: nil db")
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE invoices SET status = $3, paid_date = $4, updated_at = $4
WHERE team_id = $1 AND id = $2`, teamID, id, string(billing.StatusPaid), paidAt.UTC())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return billing.ErrInvoiceNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*billing.Invoice, error) {
	var invoice billing.Invoice
	var status string
	var paidDate sql.NullTime
	var snapshots []byte

	err := row.Scan(
		&invoice.ID, &invoice.TeamID, &invoice.InvoiceNumber, &invoice.RoomID, &invoice.RoomNumber,
		&invoice.TenantID, &invoice.TenantName, &invoice.ReadingGroupID,
		&invoice.IssueDate, &invoice.DueDate, &status, &paidDate, &invoice.Currency,
		&invoice.WaterConsumption, &invoice.WaterRatePerUnit, &invoice.WaterAmount,
		&invoice.ElectricConsumption, &invoice.ElectricRatePerUnit, &invoice.ElectricAmount,
		&invoice.Subtotal, &invoice.Tax, &invoice.Total, &snapshots,
		&invoice.CreatedAt, &invoice.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	invoice.Status = billing.Status(status)
	if paidDate.Valid {
		paid := paidDate.Time.UTC()
		invoice.PaidDate = &paid
	}
	if len(snapshots) > 0 {
		if err := json.Unmarshal(snapshots, &invoice.Readings); err != nil {
			return nil, fmt.Errorf("unmarshal reading snapshots: %w", err)
		}
	}
	return &invoice, nil
}
