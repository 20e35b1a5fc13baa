package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	billing "meterdesk/internal/billing/domain"
	billingmemory "meterdesk/internal/billing/infrastructure/memory"
	masterdata "meterdesk/internal/masterdata/domain"
	masterdatamemory "meterdesk/internal/masterdata/infrastructure/memory"
	readings "meterdesk/internal/readings/domain"
	readingsmemory "meterdesk/internal/readings/infrastructure/memory"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type fixture struct {
	invoices *billingmemory.Repository
	groups   *readingsmemory.Repository
	master   *masterdatamemory.Repository
	service  *InvoiceService
}

func defaultSettings() masterdata.TeamSettings {
	return masterdata.TeamSettings{
		TeamID:              "team-a",
		Currency:            "THB",
		TaxRate:             7,
		WaterBillingMode:    masterdata.WaterBillingMetered,
		WaterRatePerUnit:    25,
		ElectricRatePerUnit: 4.5,
		InvoicePrefix:       "INV",
		DueDateDayOfMonth:   5,
	}
}

func newFixture(t *testing.T, settings *masterdata.TeamSettings) *fixture {
	t.Helper()
	f := &fixture{
		invoices: billingmemory.NewRepository(),
		groups:   readingsmemory.NewRepository(),
		master:   masterdatamemory.NewRepository(),
	}
	f.master.PutRoom(masterdata.Room{ID: "room-101", TeamID: "team-a", RoomNumber: "101", TenantID: "tenant-1"})
	f.master.PutTenant(masterdata.Tenant{ID: "tenant-1", TeamID: "team-a", Name: "Somsak Jaidee", RoomID: "room-101"})
	if settings != nil {
		f.master.PutSettings(*settings)
	}

	service, err := NewInvoiceService(
		f.invoices, f.groups, f.master, f.master, f.master,
		fixedClock{at: time.Date(2024, 6, 25, 12, 0, 0, 0, time.UTC)}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new invoice service: %v", err)
	}
	f.service = service
	return f
}

func (f *fixture) seedGroup(t *testing.T, group *readings.ReadingGroup) {
	t.Helper()
	if err := f.groups.Create(context.Background(), group); err != nil {
		t.Fatalf("seed reading group: %v", err)
	}
}

func pendingGroup() *readings.ReadingGroup {
	return &readings.ReadingGroup{
		ID:          "rg-1",
		TeamID:      "team-a",
		RoomID:      "room-101",
		RoomNumber:  "101",
		TenantName:  "Somsak",
		ReadingDate: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
		Water:       &readings.MeterReading{PreviousReading: 90, CurrentReading: 100, Consumption: 10},
		Electric:    &readings.MeterReading{PreviousReading: 2000, CurrentReading: 2100, Consumption: 100},
		Status:      readings.StatusPending,
	}
}

func TestGenerate_CreatesInvoiceAndMarksGroupBilled(t *testing.T) {
	settings := defaultSettings()
	f := newFixture(t, &settings)
	f.seedGroup(t, pendingGroup())

	invoice, created, err := f.service.Generate(context.Background(), "team-a", "rg-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !created {
		t.Fatal("expected created=true on first generation")
	}

	if invoice.InvoiceNumber != "INV-2024-001" {
		t.Errorf("invoice number = %s, want INV-2024-001", invoice.InvoiceNumber)
	}
	if want := time.Date(2024, 7, 5, 0, 0, 0, 0, time.UTC); !invoice.DueDate.Equal(want) {
		t.Errorf("due date = %s, want %s", invoice.DueDate.Format("2006-01-02"), want.Format("2006-01-02"))
	}
	if invoice.WaterAmount != 250 || invoice.ElectricAmount != 450 || invoice.Subtotal != 700 || invoice.Tax != 49 || invoice.Total != 749 {
		t.Errorf("unexpected amounts: %+v", invoice)
	}
	if invoice.TenantName != "Somsak Jaidee" {
		t.Errorf("tenant name = %s, want the resolved tenant's name", invoice.TenantName)
	}
	if len(invoice.Readings) != 2 {
		t.Errorf("expected two reading snapshots, got %d", len(invoice.Readings))
	}

	group, err := f.groups.GetByID(context.Background(), "team-a", "rg-1")
	if err != nil {
		t.Fatalf("get group: %v", err)
	}
	if group.Status != readings.StatusBilled {
		t.Errorf("group status = %s, want billed", group.Status)
	}
}

func TestGenerate_SecondCallReturnsExistingInvoice(t *testing.T) {
	settings := defaultSettings()
	f := newFixture(t, &settings)
	f.seedGroup(t, pendingGroup())

	first, created, err := f.service.Generate(context.Background(), "team-a", "rg-1")
	if err != nil || !created {
		t.Fatalf("first generate: created=%v err=%v", created, err)
	}
	second, created, err := f.service.Generate(context.Background(), "team-a", "rg-1")
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if created {
		t.Fatal("second generation must not report created")
	}
	if second.ID != first.ID {
		t.Fatalf("second call returned a different invoice: %s vs %s", second.ID, first.ID)
	}
	if f.invoices.Len() != 1 {
		t.Fatalf("expected one persisted invoice, got %d", f.invoices.Len())
	}
}

func TestGenerate_ConcurrentCallsProduceOneInvoice(t *testing.T) {
	settings := defaultSettings()
	f := newFixture(t, &settings)
	f.seedGroup(t, pendingGroup())

	const callers = 4
	var wg sync.WaitGroup
	ids := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			invoice, _, err := f.service.Generate(context.Background(), "team-a", "rg-1")
			if invoice != nil {
				ids[i] = invoice.ID
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("caller %d got invoice %s, caller 0 got %s", i, ids[i], ids[0])
		}
	}
	if f.invoices.Len() != 1 {
		t.Fatalf("expected one persisted invoice, got %d", f.invoices.Len())
	}
}

func TestGenerate_PreconditionFailures(t *testing.T) {
	t.Run("unknown reading group", func(t *testing.T) {
		settings := defaultSettings()
		f := newFixture(t, &settings)
		if _, _, err := f.service.Generate(context.Background(), "team-a", "rg-missing"); !errors.Is(err, readings.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("missing electric reading", func(t *testing.T) {
		settings := defaultSettings()
		f := newFixture(t, &settings)
		group := pendingGroup()
		group.Electric = nil
		group.Status = readings.StatusIncomplete
		f.seedGroup(t, group)
		if _, _, err := f.service.Generate(context.Background(), "team-a", "rg-1"); !errors.Is(err, billing.ErrMissingElectricReading) {
			t.Fatalf("expected ErrMissingElectricReading, got %v", err)
		}
	})

	t.Run("missing water reading while metered", func(t *testing.T) {
		settings := defaultSettings()
		f := newFixture(t, &settings)
		group := pendingGroup()
		group.Water = nil
		group.Status = readings.StatusIncomplete
		f.seedGroup(t, group)
		if _, _, err := f.service.Generate(context.Background(), "team-a", "rg-1"); !errors.Is(err, billing.ErrMissingWaterReading) {
			t.Fatalf("expected ErrMissingWaterReading, got %v", err)
		}
	})

	t.Run("settings not configured", func(t *testing.T) {
		f := newFixture(t, nil)
		f.seedGroup(t, pendingGroup())
		if _, _, err := f.service.Generate(context.Background(), "team-a", "rg-1"); !errors.Is(err, billing.ErrSettingsNotConfigured) {
			t.Fatalf("expected ErrSettingsNotConfigured, got %v", err)
		}
	})

	t.Run("room not found", func(t *testing.T) {
		settings := defaultSettings()
		f := newFixture(t, &settings)
		group := pendingGroup()
		group.RoomID = "room-gone"
		f.seedGroup(t, group)
		if _, _, err := f.service.Generate(context.Background(), "team-a", "rg-1"); !errors.Is(err, billing.ErrRoomNotFound) {
			t.Fatalf("expected ErrRoomNotFound, got %v", err)
		}
	})

	t.Run("no write happens on precondition failure", func(t *testing.T) {
		settings := defaultSettings()
		f := newFixture(t, &settings)
		group := pendingGroup()
		group.Electric = nil
		f.seedGroup(t, group)
		_, _, _ = f.service.Generate(context.Background(), "team-a", "rg-1")
		if f.invoices.Len() != 0 {
			t.Fatalf("expected no invoice, got %d", f.invoices.Len())
		}
	})
}

func TestGenerate_FixedWaterModeSkipsWaterPrecondition(t *testing.T) {
	settings := defaultSettings()
	settings.WaterBillingMode = masterdata.WaterBillingFixed
	settings.WaterFixedFee = 120
	settings.TaxRate = 0
	f := newFixture(t, &settings)
	group := pendingGroup()
	group.Water = nil
	f.seedGroup(t, group)

	invoice, created, err := f.service.Generate(context.Background(), "team-a", "rg-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !created {
		t.Fatal("expected created=true")
	}
	if invoice.WaterAmount != 120 {
		t.Errorf("water amount = %v, want the fixed fee 120", invoice.WaterAmount)
	}
	if invoice.WaterConsumption != 0 {
		t.Errorf("water consumption = %v, want 0", invoice.WaterConsumption)
	}
	if len(invoice.Readings) != 1 {
		t.Errorf("expected only the electric snapshot, got %d", len(invoice.Readings))
	}
}

func TestGenerate_TenantLookupFailureFallsBackToGroupName(t *testing.T) {
	settings := defaultSettings()
	f := newFixture(t, &settings)
	// Room references a tenant that no longer exists.
	f.master.PutRoom(masterdata.Room{ID: "room-101", TeamID: "team-a", RoomNumber: "101", TenantID: "tenant-gone"})
	f.seedGroup(t, pendingGroup())

	invoice, _, err := f.service.Generate(context.Background(), "team-a", "rg-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if invoice.TenantName != "Somsak" {
		t.Errorf("tenant name = %s, want the group's denormalized name", invoice.TenantName)
	}
}

func TestGenerate_NumberSequenceAdvancesPerTeam(t *testing.T) {
	settings := defaultSettings()
	f := newFixture(t, &settings)
	f.master.PutRoom(masterdata.Room{ID: "room-102", TeamID: "team-a", RoomNumber: "102"})

	first := pendingGroup()
	second := pendingGroup()
	second.ID = "rg-2"
	second.RoomID = "room-102"
	second.RoomNumber = "102"
	f.seedGroup(t, first)
	f.seedGroup(t, second)

	inv1, _, err := f.service.Generate(context.Background(), "team-a", "rg-1")
	if err != nil {
		t.Fatalf("generate rg-1: %v", err)
	}
	inv2, _, err := f.service.Generate(context.Background(), "team-a", "rg-2")
	if err != nil {
		t.Fatalf("generate rg-2: %v", err)
	}

	if inv1.InvoiceNumber != "INV-2024-001" || inv2.InvoiceNumber != "INV-2024-002" {
		t.Errorf("numbers = %s, %s; want INV-2024-001, INV-2024-002", inv1.InvoiceNumber, inv2.InvoiceNumber)
	}
}

// statusWriteFailRepo persists groups normally but refuses status updates.
type statusWriteFailRepo struct {
	*readingsmemory.Repository
	err error
}

func (r *statusWriteFailRepo) UpdateStatus(ctx context.Context, teamID, id string, status readings.Status) error {
	return r.err
}

func TestGenerate_StatusWriteFailureStillReturnsInvoice(t *testing.T) {
	settings := defaultSettings()
	f := newFixture(t, &settings)
	f.seedGroup(t, pendingGroup())

	failing := &statusWriteFailRepo{Repository: f.groups, err: errors.New("status write failed")}
	service, err := NewInvoiceService(
		f.invoices, failing, f.master, f.master, f.master,
		fixedClock{at: time.Date(2024, 6, 25, 12, 0, 0, 0, time.UTC)}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new invoice service: %v", err)
	}

	invoice, created, err := service.Generate(context.Background(), "team-a", "rg-1")
	if err == nil {
		t.Fatal("expected the failed status write to surface")
	}
	if invoice == nil {
		t.Fatal("the persisted invoice must be returned alongside the error")
	}
	if !created {
		t.Fatal("expected created=true: the invoice row was written")
	}
	if f.invoices.Len() != 1 {
		t.Fatalf("expected one persisted invoice, got %d", f.invoices.Len())
	}

	// The inconsistency window is real: the group still reports pending.
	group, err := f.groups.GetByID(context.Background(), "team-a", "rg-1")
	if err != nil {
		t.Fatalf("get group: %v", err)
	}
	if group.Status != readings.StatusPending {
		t.Errorf("group status = %s, want pending", group.Status)
	}
}

func TestGenerate_AllowsRegenerationAfterOutOfBandDelete(t *testing.T) {
	settings := defaultSettings()
	f := newFixture(t, &settings)
	f.seedGroup(t, pendingGroup())

	first, _, err := f.service.Generate(context.Background(), "team-a", "rg-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := f.invoices.Delete(context.Background(), "team-a", first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// The group still reports billed, but the invoice is gone; generation is
	// keyed on invoice existence and must succeed again.
	second, created, err := f.service.Generate(context.Background(), "team-a", "rg-1")
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if !created {
		t.Fatal("expected a fresh invoice after out-of-band deletion")
	}
	if second.ID == first.ID {
		t.Fatal("expected a new invoice id")
	}
}

func TestMarkPaid(t *testing.T) {
	settings := defaultSettings()
	f := newFixture(t, &settings)
	f.seedGroup(t, pendingGroup())

	invoice, _, err := f.service.Generate(context.Background(), "team-a", "rg-1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	paid, err := f.service.MarkPaid(context.Background(), "team-a", invoice.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != billing.StatusPaid {
		t.Errorf("status = %s, want paid", paid.Status)
	}
	if paid.PaidDate == nil {
		t.Error("expected paid date to be set")
	}

	group, err := f.groups.GetByID(context.Background(), "team-a", "rg-1")
	if err != nil {
		t.Fatalf("get group: %v", err)
	}
	if group.Status != readings.StatusPaid {
		t.Errorf("group status = %s, want paid", group.Status)
	}

	// Idempotent: marking again returns the invoice unchanged.
	again, err := f.service.MarkPaid(context.Background(), "team-a", invoice.ID)
	if err != nil {
		t.Fatalf("mark paid twice: %v", err)
	}
	if !again.PaidDate.Equal(*paid.PaidDate) {
		t.Error("second mark must not change the paid date")
	}
}

func TestMarkPaid_UnknownInvoice(t *testing.T) {
	settings := defaultSettings()
	f := newFixture(t, &settings)
	if _, err := f.service.MarkPaid(context.Background(), "team-a", "inv-missing"); !errors.Is(err, billing.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}
