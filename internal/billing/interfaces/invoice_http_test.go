package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"meterdesk/internal/auth"
	billingapp "meterdesk/internal/billing/application"
	billingmemory "meterdesk/internal/billing/infrastructure/memory"
	masterdata "meterdesk/internal/masterdata/domain"
	masterdatamemory "meterdesk/internal/masterdata/infrastructure/memory"
	readings "meterdesk/internal/readings/domain"
	readingsmemory "meterdesk/internal/readings/infrastructure/memory"
)

type testClock struct{ at time.Time }

func (c testClock) Now() time.Time { return c.at }

// brokenStatusRepo persists groups normally but refuses status updates.
type brokenStatusRepo struct {
	*readingsmemory.Repository
}

func (r *brokenStatusRepo) UpdateStatus(ctx context.Context, teamID, id string, status readings.Status) error {
	return errors.New("status write failed")
}

func newGenerateHandler(t *testing.T, groups readings.Repository) (*InvoiceHandler, *billingmemory.Repository) {
	t.Helper()
	invoices := billingmemory.NewRepository()
	master := masterdatamemory.NewRepository()
	master.PutRoom(masterdata.Room{ID: "room-101", TeamID: "team-a", RoomNumber: "101"})
	master.PutSettings(masterdata.TeamSettings{
		TeamID:              "team-a",
		Currency:            "THB",
		WaterBillingMode:    masterdata.WaterBillingMetered,
		WaterRatePerUnit:    25,
		ElectricRatePerUnit: 4.5,
		InvoicePrefix:       "INV",
		PaymentTermsDays:    30,
	})

	service, err := billingapp.NewInvoiceService(
		invoices, groups, master, master, master,
		testClock{at: time.Date(2024, 6, 25, 12, 0, 0, 0, time.UTC)}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new invoice service: %v", err)
	}
	handler, err := NewInvoiceHandler(service, nil, nil, ExportConfig{})
	if err != nil {
		t.Fatalf("new invoice handler: %v", err)
	}
	return handler, invoices
}

func seedPendingGroup(t *testing.T, repo readings.Repository) {
	t.Helper()
	err := repo.Create(context.Background(), &readings.ReadingGroup{
		ID:          "rg-1",
		TeamID:      "team-a",
		RoomID:      "room-101",
		RoomNumber:  "101",
		ReadingDate: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
		Water:       &readings.MeterReading{PreviousReading: 90, CurrentReading: 100, Consumption: 10},
		Electric:    &readings.MeterReading{PreviousReading: 2000, CurrentReading: 2100, Consumption: 100},
		Status:      readings.StatusPending,
	})
	if err != nil {
		t.Fatalf("seed reading group: %v", err)
	}
}

func generateRequestFor(groupID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/generate",
		strings.NewReader(`{"reading_group_id":"`+groupID+`"}`))
	ctx := auth.WithIdentity(req.Context(), "team-a", auth.RoleOperator, "user-1")
	return req.WithContext(ctx)
}

func TestHandleGenerate_CreatesInvoice(t *testing.T) {
	groups := readingsmemory.NewRepository()
	handler, invoices := newGenerateHandler(t, groups)
	seedPendingGroup(t, groups)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, generateRequestFor("rg-1"))

	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["already_generated"] != false {
		t.Errorf("already_generated = %v, want false", body["already_generated"])
	}
	if _, present := body["warning"]; present {
		t.Error("no warning expected on a clean generation")
	}
	if invoices.Len() != 1 {
		t.Fatalf("expected one persisted invoice, got %d", invoices.Len())
	}
}

func TestHandleGenerate_StatusWriteFailureReportsInvoiceWithWarning(t *testing.T) {
	groups := &brokenStatusRepo{Repository: readingsmemory.NewRepository()}
	handler, invoices := newGenerateHandler(t, groups)
	seedPendingGroup(t, groups.Repository)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, generateRequestFor("rg-1"))

	// The invoice row exists; the response must carry it instead of a 500.
	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["invoice"] == nil {
		t.Fatal("expected the created invoice in the response")
	}
	warning, _ := body["warning"].(string)
	if !strings.Contains(warning, "not marked billed") {
		t.Errorf("warning = %q, want the unmarked-group inconsistency", warning)
	}
	if invoices.Len() != 1 {
		t.Fatalf("expected one persisted invoice, got %d", invoices.Len())
	}
}

func TestHandleGenerate_UnknownGroupIs404(t *testing.T) {
	groups := readingsmemory.NewRepository()
	handler, _ := newGenerateHandler(t, groups)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, generateRequestFor("rg-missing"))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}
