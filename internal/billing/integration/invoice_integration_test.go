package integration_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	billingapp "meterdesk/internal/billing/application"
	billing "meterdesk/internal/billing/domain"
	billingrepo "meterdesk/internal/billing/infrastructure/postgres"
	masterdatarepo "meterdesk/internal/masterdata/infrastructure/postgres"
	readingsapp "meterdesk/internal/readings/application"
	readings "meterdesk/internal/readings/domain"
	readingsrepo "meterdesk/internal/readings/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestInvoice_GenerateIsIdempotentAndMarksGroupBilled(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := applyInvoiceMigrations(db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	ctx := context.Background()
	teamID := "team-int-billing"
	roomID := "room-int-301"
	tenantID := "tenant-int-301"

	_, _ = db.ExecContext(ctx, "DELETE FROM invoices WHERE team_id = $1", teamID)
	_, _ = db.ExecContext(ctx, "DELETE FROM reading_groups WHERE team_id = $1", teamID)
	_, _ = db.ExecContext(ctx, "DELETE FROM rooms WHERE team_id = $1", teamID)
	_, _ = db.ExecContext(ctx, "DELETE FROM tenants WHERE team_id = $1", teamID)
	_, _ = db.ExecContext(ctx, "DELETE FROM team_settings WHERE team_id = $1", teamID)

	if err := seedBillingMasterdata(ctx, db, teamID, roomID, tenantID); err != nil {
		t.Fatalf("seed masterdata: %v", err)
	}

	groupRepo := readingsrepo.NewRepository(db)
	settingsRepo := masterdatarepo.NewSettingsRepository(db)

	submitService, err := readingsapp.NewSubmitService(groupRepo, settingsRepo, readingsapp.SystemClock{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("submit service: %v", err)
	}
	invoiceService, err := billingapp.NewInvoiceService(
		billingrepo.NewRepository(db),
		groupRepo,
		masterdatarepo.NewRoomRepository(db),
		masterdatarepo.NewTenantRepository(db),
		settingsRepo,
		billingapp.SystemClock{},
		zerolog.Nop(),
	)
	if err != nil {
		t.Fatalf("invoice service: %v", err)
	}

	if _, err := submitService.Submit(ctx, readingsapp.Submission{
		TeamID:          teamID,
		RoomID:          roomID,
		RoomNumber:      "301",
		ReadingDate:     "2026-06-20",
		Meter:           readings.MeterWater,
		PreviousReading: 100,
		CurrentReading:  110,
	}); err != nil {
		t.Fatalf("submit water: %v", err)
	}
	group, err := submitService.Submit(ctx, readingsapp.Submission{
		TeamID:          teamID,
		RoomID:          roomID,
		RoomNumber:      "301",
		ReadingDate:     "2026-06-20",
		Meter:           readings.MeterElectric,
		PreviousReading: 2000,
		CurrentReading:  2100,
	})
	if err != nil {
		t.Fatalf("submit electric: %v", err)
	}
	if group.Status != readings.StatusPending {
		t.Fatalf("expected pending group, got %s", group.Status)
	}

	invoice, created, err := invoiceService.Generate(ctx, teamID, group.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !created {
		t.Fatalf("expected a new invoice")
	}
	if invoice.InvoiceNumber != "INV-2026-001" {
		t.Fatalf("invoice number mismatch: %s", invoice.InvoiceNumber)
	}
	if invoice.TenantName != "Somsak Jaidee" {
		t.Fatalf("tenant name mismatch: %s", invoice.TenantName)
	}
	if invoice.Subtotal != 700 || invoice.Tax != 49 || invoice.Total != 749 {
		t.Fatalf("amounts mismatch: %+v", invoice)
	}
	if invoice.DueDate.Format("2006-01-02") != "2026-07-05" {
		t.Fatalf("due date mismatch: %s", invoice.DueDate)
	}

	reloaded, err := groupRepo.GetByID(ctx, teamID, group.ID)
	if err != nil {
		t.Fatalf("reload group: %v", err)
	}
	if reloaded.Status != readings.StatusBilled {
		t.Fatalf("expected billed group, got %s", reloaded.Status)
	}

	again, created, err := invoiceService.Generate(ctx, teamID, group.ID)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if created || again.ID != invoice.ID {
		t.Fatalf("second generate must return the existing invoice")
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM invoices WHERE team_id = $1", teamID).Scan(&count); err != nil {
		t.Fatalf("count invoices: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 invoice row, got %d", count)
	}

	paid, err := invoiceService.MarkPaid(ctx, teamID, invoice.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != billing.StatusPaid || paid.PaidDate == nil {
		t.Fatalf("expected paid invoice, got %+v", paid)
	}

	reloaded, err = groupRepo.GetByID(ctx, teamID, group.ID)
	if err != nil {
		t.Fatalf("reload group after pay: %v", err)
	}
	if reloaded.Status != readings.StatusPaid {
		t.Fatalf("expected paid group, got %s", reloaded.Status)
	}
}

func seedBillingMasterdata(ctx context.Context, db *sql.DB, teamID, roomID, tenantID string) error {
	if _, err := db.ExecContext(ctx, `
INSERT INTO team_settings (
	team_id, currency, tax_rate, water_billing_mode, water_fixed_fee,
	water_rate_per_unit, electric_rate_per_unit, invoice_prefix,
	payment_terms_days, due_date_day_of_month
) VALUES ($1,'THB',7,'metered',0,25,4.5,'INV',30,5)`, teamID); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `
INSERT INTO rooms (id, team_id, room_number, building, floor, tenant_id)
VALUES ($1,$2,'301','A','3',$3)`, roomID, teamID, tenantID); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO tenants (id, team_id, name, room_id)
VALUES ($1,$2,'Somsak Jaidee',$3)`, tenantID, teamID, roomID)
	return err
}

func applyInvoiceMigrations(db *sql.DB) error {
	root := projectRoot()
	files := []string{
		filepath.Join(root, "migrations", "001_masterdata.sql"),
		filepath.Join(root, "migrations", "002_reading_groups.sql"),
		filepath.Join(root, "migrations", "003_invoices.sql"),
	}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := db.Exec(string(content)); err != nil {
			return err
		}
	}
	return nil
}

func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return filepath.Clean(filepath.Join(dir, "..", "..", ".."))
}
