package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	billing "meterdesk/internal/billing/domain"
	masterdata "meterdesk/internal/masterdata/domain"
	"meterdesk/internal/observability/metrics"
	readings "meterdesk/internal/readings/domain"
	"meterdesk/internal/storage"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// InvoiceService generates at most one invoice per reading group and handles
// payment marking. Generation is idempotent: repeated calls for the same
// group return the existing invoice, also when two generators race and the
// loser's create fails on the reading-group uniqueness constraint.
type InvoiceService struct {
	invoices billing.Repository
	groups   readings.Repository
	rooms    masterdata.RoomRepository
	tenants  masterdata.TenantRepository
	settings masterdata.SettingsRepository
	clock    Clock
	logger   zerolog.Logger
}

// NewInvoiceService constructs the service.
func NewInvoiceService(
	invoices billing.Repository,
	groups readings.Repository,
	rooms masterdata.RoomRepository,
	tenants masterdata.TenantRepository,
	settings masterdata.SettingsRepository,
	clock Clock,
	logger zerolog.Logger,
) (*InvoiceService, error) {
	if invoices == nil {
		return nil, errors.New("invoice service: nil invoice repository")
	}
	if groups == nil {
		return nil, errors.New("invoice service: nil reading group repository")
	}
	if rooms == nil {
		return nil, errors.New("invoice service: nil room repository")
	}
	if tenants == nil {
		return nil, errors.New("invoice service: nil tenant repository")
	}
	if settings == nil {
		return nil, errors.New("invoice service: nil settings repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &InvoiceService{
		invoices: invoices,
		groups:   groups,
		rooms:    rooms,
		tenants:  tenants,
		settings: settings,
		clock:    clock,
		logger:   logger,
	}, nil
}

// Generate creates the invoice for a reading group, or returns the existing
// one with created=false when the group was already billed. A non-nil invoice
// returned together with an error means the invoice row was persisted but the
// reading group could not be marked billed; callers must report the invoice
// and the inconsistency, not drop the invoice.
func (s *InvoiceService) Generate(ctx context.Context, teamID, readingGroupID string) (*billing.Invoice, bool, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveInvoiceGenerate(result, time.Since(start))
	}()

	invoice, created, err := s.generate(ctx, teamID, readingGroupID)
	if err != nil {
		result = metrics.ResultError
	}
	return invoice, created, err
}

func (s *InvoiceService) generate(ctx context.Context, teamID, readingGroupID string) (*billing.Invoice, bool, error) {
	group, err := s.groups.GetByID(ctx, teamID, readingGroupID)
	if err != nil {
		return nil, false, err
	}
	if group == nil {
		return nil, false, readings.ErrNotFound
	}

	// The guard is keyed on invoice existence, not the group's status: a
	// group stuck on billed with its invoice gone can be regenerated.
	existing, err := s.invoices.FindByReadingGroup(ctx, teamID, readingGroupID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	if group.Electric == nil {
		return nil, false, billing.ErrMissingElectricReading
	}

	settings, err := s.settings.FindSettings(ctx, teamID)
	if err != nil {
		return nil, false, err
	}
	if settings == nil {
		return nil, false, billing.ErrSettingsNotConfigured
	}
	if settings.WaterBillingMode != masterdata.WaterBillingFixed && group.Water == nil {
		return nil, false, billing.ErrMissingWaterReading
	}

	room, err := s.rooms.GetRoom(ctx, teamID, group.RoomID)
	if err != nil {
		return nil, false, err
	}
	if room == nil {
		return nil, false, billing.ErrRoomNotFound
	}

	tenantID := room.TenantID
	tenantName := group.TenantName
	if tenantID != "" {
		tenant, err := s.tenants.GetTenant(ctx, teamID, tenantID)
		if err != nil || tenant == nil {
			// A broken tenant reference must not block billing; the group
			// carries a denormalized name to fall back on.
			s.logger.Warn().Err(err).
				Str("team_id", teamID).
				Str("tenant_id", tenantID).
				Msg("tenant lookup failed, using denormalized name")
		} else {
			tenantName = tenant.Name
		}
	}

	issueDate := group.ReadingDate
	dueDate := billing.ComputeDueDate(issueDate, settings)
	amounts := billing.ComputeAmounts(group, settings)

	count, err := s.invoices.CountByTeam(ctx, teamID)
	if err != nil {
		return nil, false, err
	}
	number := billing.FormatInvoiceNumber(settings.InvoicePrefix, issueDate.Year(), count+1)

	now := s.clock.Now().UTC()
	invoice := &billing.Invoice{
		ID:             uuid.NewString(),
		TeamID:         teamID,
		InvoiceNumber:  number,
		RoomID:         group.RoomID,
		RoomNumber:     room.RoomNumber,
		TenantID:       tenantID,
		TenantName:     tenantName,
		ReadingGroupID: group.ID,

		IssueDate: issueDate,
		DueDate:   dueDate,
		Status:    billing.StatusPending,

		Currency:            settings.Currency,
		WaterConsumption:    amounts.WaterConsumption,
		WaterRatePerUnit:    amounts.WaterRatePerUnit,
		WaterAmount:         amounts.WaterAmount,
		ElectricConsumption: amounts.ElectricConsumption,
		ElectricRatePerUnit: amounts.ElectricRatePerUnit,
		ElectricAmount:      amounts.ElectricAmount,
		Subtotal:            amounts.Subtotal,
		Tax:                 amounts.Tax,
		Total:               amounts.Total,

		Readings: snapshots(group),

		CreatedAt: now,
		UpdatedAt: now,
	}

	createErr := s.invoices.Create(ctx, invoice)
	if createErr != nil {
		if !storage.IsConstraintViolation(createErr) {
			return nil, false, createErr
		}

		// A concurrent generator won the create for this reading group.
		// Return its invoice rather than erroring.
		metrics.IncInvoiceConflictRecovered()
		s.logger.Debug().
			Str("team_id", teamID).
			Str("reading_group_id", readingGroupID).
			Msg("invoice create lost a race, returning the existing invoice")

		winner, err := s.invoices.FindByReadingGroup(ctx, teamID, readingGroupID)
		if err != nil {
			return nil, false, err
		}
		if winner == nil {
			return nil, false, createErr
		}
		return winner, false, nil
	}

	// The status update is a separate write after invoice creation. When it
	// fails the invoice already exists with the group still reporting its
	// prior status; that window is surfaced, not masked.
	if err := s.groups.UpdateStatus(ctx, teamID, group.ID, readings.StatusBilled); err != nil {
		s.logger.Error().Err(err).
			Str("team_id", teamID).
			Str("reading_group_id", group.ID).
			Str("invoice_id", invoice.ID).
			Msg("invoice created but reading group status update failed")
		return invoice, true, fmt.Errorf("invoice %s created but reading group not marked billed: %w", invoice.InvoiceNumber, err)
	}

	return invoice, true, nil
}

// Get loads one invoice.
func (s *InvoiceService) Get(ctx context.Context, teamID, invoiceID string) (*billing.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, teamID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, billing.ErrInvoiceNotFound
	}
	return invoice, nil
}

// MarkPaid records payment of an invoice. Marking an already-paid invoice is
// a no-op returning the invoice unchanged.
func (s *InvoiceService) MarkPaid(ctx context.Context, teamID, invoiceID string) (*billing.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, teamID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, billing.ErrInvoiceNotFound
	}
	if invoice.Status == billing.StatusPaid {
		return invoice, nil
	}

	paidAt := s.clock.Now().UTC()
	if err := s.invoices.MarkPaid(ctx, teamID, invoiceID, paidAt); err != nil {
		return nil, err
	}
	invoice.Status = billing.StatusPaid
	invoice.PaidDate = &paidAt
	invoice.UpdatedAt = paidAt

	// Best effort: the reading group mirrors the paid state for list views.
	if err := s.groups.UpdateStatus(ctx, teamID, invoice.ReadingGroupID, readings.StatusPaid); err != nil {
		s.logger.Warn().Err(err).
			Str("team_id", teamID).
			Str("reading_group_id", invoice.ReadingGroupID).
			Msg("reading group status not updated after payment")
	}
	return invoice, nil
}

func snapshots(group *readings.ReadingGroup) []billing.ReadingSnapshot {
	var out []billing.ReadingSnapshot
	if group.Water != nil {
		out = append(out, snapshot(string(readings.MeterWater), group.Water))
	}
	if group.Electric != nil {
		out = append(out, snapshot(string(readings.MeterElectric), group.Electric))
	}
	return out
}

func snapshot(meter string, reading *readings.MeterReading) billing.ReadingSnapshot {
	return billing.ReadingSnapshot{
		Meter:            meter,
		PreviousReading:  reading.PreviousReading,
		CurrentReading:   reading.CurrentReading,
		Consumption:      reading.Consumption,
		PreviousPhotoURL: reading.PreviousPhotoURL,
		CurrentPhotoURL:  reading.CurrentPhotoURL,
	}
}
