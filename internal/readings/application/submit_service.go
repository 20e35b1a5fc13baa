package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	masterdata "meterdesk/internal/masterdata/domain"
	"meterdesk/internal/observability/metrics"
	readings "meterdesk/internal/readings/domain"
	"meterdesk/internal/storage"
)

// Submission is one meter's reading for a room and billing period.
type Submission struct {
	TeamID           string
	RoomID           string
	RoomNumber       string
	TenantName       string
	ReadingDate      string
	Meter            readings.MeterType
	PreviousReading  float64
	CurrentReading   float64
	PreviousPhotoURL string
	CurrentPhotoURL  string
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// SubmitService merges meter reading submissions into reading groups. Water
// and electric submissions for the same room and period converge on a single
// row, also when two first submissions race: the loser's create fails on the
// period uniqueness constraint and is folded into the winner's row.
type SubmitService struct {
	repo     readings.Repository
	settings masterdata.SettingsRepository
	clock    Clock
	logger   zerolog.Logger
}

// NewSubmitService constructs the service.
func NewSubmitService(repo readings.Repository, settings masterdata.SettingsRepository, clock Clock, logger zerolog.Logger) (*SubmitService, error) {
	if repo == nil {
		return nil, errors.New("submit service: nil repository")
	}
	if settings == nil {
		return nil, errors.New("submit service: nil settings repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &SubmitService{repo: repo, settings: settings, clock: clock, logger: logger}, nil
}

// Submit validates and merges one meter reading. Validation failures are
// reported before any write; an existing group is never touched by a rejected
// submission.
func (s *SubmitService) Submit(ctx context.Context, sub Submission) (*readings.ReadingGroup, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReadingSubmit(result, time.Since(start))
	}()

	group, err := s.submit(ctx, sub)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return group, nil
}

func (s *SubmitService) submit(ctx context.Context, sub Submission) (*readings.ReadingGroup, error) {
	if sub.TeamID == "" || sub.RoomID == "" {
		return nil, readings.ErrEmptyKey
	}
	meter, err := readings.ParseMeterType(string(sub.Meter))
	if err != nil {
		return nil, err
	}
	readingDate, err := readings.NormalizeReadingDate(sub.ReadingDate)
	if err != nil {
		return nil, err
	}
	consumption, err := readings.Consumption(sub.PreviousReading, sub.CurrentReading)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.FindSettings(ctx, sub.TeamID)
	if err != nil {
		return nil, err
	}
	waterRequired := settings.WaterRequired()

	reading := readings.MeterReading{
		PreviousReading:  sub.PreviousReading,
		CurrentReading:   sub.CurrentReading,
		Consumption:      consumption,
		PreviousPhotoURL: sub.PreviousPhotoURL,
		CurrentPhotoURL:  sub.CurrentPhotoURL,
	}

	existing, err := s.repo.FindByPeriod(ctx, sub.TeamID, sub.RoomID, readingDate)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.merge(ctx, existing, sub, meter, reading, waterRequired)
	}

	now := s.clock.Now().UTC()
	group := &readings.ReadingGroup{
		ID:          uuid.NewString(),
		TeamID:      sub.TeamID,
		RoomID:      sub.RoomID,
		RoomNumber:  sub.RoomNumber,
		TenantName:  sub.TenantName,
		ReadingDate: readingDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	group.SetReading(meter, reading)
	group.RecomputeStatus(waterRequired)

	createErr := s.repo.Create(ctx, group)
	if createErr == nil {
		return group, nil
	}
	if !storage.IsConstraintViolation(createErr) {
		return nil, createErr
	}

	// A concurrent submitter created the row between lookup and create.
	// Re-read and merge into the winning row.
	metrics.IncReadingConflictRecovered()
	s.logger.Debug().
		Str("team_id", sub.TeamID).
		Str("room_id", sub.RoomID).
		Str("period", readings.PeriodKey(readingDate)).
		Msg("reading group create lost a race, merging into existing row")

	existing, err = s.repo.FindByPeriod(ctx, sub.TeamID, sub.RoomID, readingDate)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		// The winning row disappeared before the re-read; surface the
		// original conflict rather than looping.
		return nil, createErr
	}
	return s.merge(ctx, existing, sub, meter, reading, waterRequired)
}

func (s *SubmitService) merge(ctx context.Context, group *readings.ReadingGroup, sub Submission, meter readings.MeterType, reading readings.MeterReading, waterRequired bool) (*readings.ReadingGroup, error) {
	group.SetReading(meter, reading)
	group.RecomputeStatus(waterRequired)
	if sub.RoomNumber != "" {
		group.RoomNumber = sub.RoomNumber
	}
	if sub.TenantName != "" {
		group.TenantName = sub.TenantName
	}
	group.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Update(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}
