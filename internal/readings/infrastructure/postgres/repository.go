package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	readings "meterdesk/internal/readings/domain"
	"meterdesk/internal/storage"
)

const collection = "reading_groups"

// Repository is a Postgres implementation for reading groups. The schema
// carries a uniqueness constraint on (team_id, room_id, reading_date); Create
// surfaces it as storage.ConstraintViolation so the merge engine can recover.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `
id, team_id, room_id, room_number, tenant_name, reading_date,
water_previous, water_current, water_consumption, water_previous_photo_url, water_current_photo_url,
electric_previous, electric_current, electric_consumption, electric_previous_photo_url, electric_current_photo_url,
status, created_at, updated_at`

// FindByPeriod loads a group by its merge key. Returns nil when absent.
func (r *Repository) FindByPeriod(ctx context.Context, teamID, roomID string, readingDate time.Time) (*readings.ReadingGroup, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading group repo: nil db")
	}
	if teamID == "" || roomID == "" {
		return nil, readings.ErrEmptyKey
	}

	row := r.db.QueryRowContext(ctx, `
SELECT `+selectColumns+`
FROM reading_groups
WHERE team_id = $1 AND room_id = $2 AND reading_date = $3
LIMIT 1`, teamID, roomID, readings.PeriodKey(readingDate))
	return scanGroup(row)
}

// GetByID loads a group by id. Returns nil when absent.
func (r *Repository) GetByID(ctx context.Context, teamID, id string) (*readings.ReadingGroup, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading group repo: nil db")
	}

	row := r.db.QueryRowContext(ctx, `
SELECT `+selectColumns+`
FROM reading_groups
WHERE team_id = $1 AND id = $2`, teamID, id)
	return scanGroup(row)
}

// Create inserts a new group.
func (r *Repository) Create(ctx context.Context, group *readings.ReadingGroup) error {
	if r == nil || r.db == nil {
		return errors.New("reading group repo: nil db")
	}
	if group == nil {
		return readings.ErrNilGroup
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO reading_groups (
	id, team_id, room_id, room_number, tenant_name, reading_date,
	water_previous, water_current, water_consumption, water_previous_photo_url, water_current_photo_url,
	electric_previous, electric_current, electric_consumption, electric_previous_photo_url, electric_current_photo_url,
	status, created_at, updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19
)`, groupArgs(group)...)
	return storage.MapError(collection, err)
}

// Update overwrites the mutable fields of an existing group.
func (r *Repository) Update(ctx context.Context, group *readings.ReadingGroup) error {
	if r == nil || r.db == nil {
		return errors.New("reading group repo: nil db")
	}
	if group == nil {
		return readings.ErrNilGroup
	}

	waterPrev, waterCur, waterCons, waterPrevURL, waterCurURL := meterArgs(group.Water)
	elecPrev, elecCur, elecCons, elecPrevURL, elecCurURL := meterArgs(group.Electric)
	result, err := r.db.ExecContext(ctx, `
UPDATE reading_groups SET
	room_number = $3, tenant_name = $4,
	water_previous = $5, water_current = $6, water_consumption = $7,
	water_previous_photo_url = $8, water_current_photo_url = $9,
	electric_previous = $10, electric_current = $11, electric_consumption = $12,
	electric_previous_photo_url = $13, electric_current_photo_url = $14,
	status = $15, updated_at = $16
WHERE id = $1 AND team_id = $2`,
		group.ID, group.TeamID, group.RoomNumber, group.TenantName,
		waterPrev, waterCur, waterCons, waterPrevURL, waterCurURL,
		elecPrev, elecCur, elecCons, elecPrevURL, elecCurURL,
		string(group.Status), group.UpdatedAt.UTC())
	if err != nil {
		return storage.MapError(collection, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return readings.ErrNotFound
	}
	return nil
}

// UpdateStatus updates only the status of a group.
func (r *Repository) UpdateStatus(ctx context.Context, teamID, id string, status readings.Status) error {
	if r == nil || r.db == nil {
		return errors.New("reading group repo: nil db")
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE reading_groups SET status = $3, updated_at = NOW()
WHERE team_id = $1 AND id = $2`, teamID, id, string(status))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return readings.ErrNotFound
	}
	return nil
}

func groupArgs(group *readings.ReadingGroup) []any {
	waterPrev, waterCur, waterCons, waterPrevURL, waterCurURL := meterArgs(group.Water)
	elecPrev, elecCur, elecCons, elecPrevURL, elecCurURL := meterArgs(group.Electric)
	return []any{
		group.ID,
		group.TeamID,
		group.RoomID,
		group.RoomNumber,
		group.TenantName,
		readings.PeriodKey(group.ReadingDate),
		waterPrev, waterCur, waterCons, waterPrevURL, waterCurURL,
		elecPrev, elecCur, elecCons, elecPrevURL, elecCurURL,
		string(group.Status),
		group.CreatedAt.UTC(),
		group.UpdatedAt.UTC(),
	}
}

func meterArgs(reading *readings.MeterReading) (any, any, any, any, any) {
	if reading == nil {
		return nil, nil, nil, nil, nil
	}
	return reading.PreviousReading, reading.CurrentReading, reading.Consumption, reading.PreviousPhotoURL, reading.CurrentPhotoURL
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*readings.ReadingGroup, error) {
	var group readings.ReadingGroup
	var readingDate time.Time
	var status string
	var waterPrev, waterCur, waterCons, elecPrev, elecCur, elecCons sql.NullFloat64
	var waterPrevURL, waterCurURL, elecPrevURL, elecCurURL sql.NullString

	err := row.Scan(
		&group.ID, &group.TeamID, &group.RoomID, &group.RoomNumber, &group.TenantName, &readingDate,
		&waterPrev, &waterCur, &waterCons, &waterPrevURL, &waterCurURL,
		&elecPrev, &elecCur, &elecCons, &elecPrevURL, &elecCurURL,
		&status, &group.CreatedAt, &group.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	group.ReadingDate = readings.DayStart(readingDate)
	group.Status = readings.Status(status)
	group.Water = scanMeter(waterPrev, waterCur, waterCons, waterPrevURL, waterCurURL)
	group.Electric = scanMeter(elecPrev, elecCur, elecCons, elecPrevURL, elecCurURL)
	return &group, nil
}

func scanMeter(prev, cur, cons sql.NullFloat64, prevURL, curURL sql.NullString) *readings.MeterReading {
	if !prev.Valid || !cur.Valid {
		return nil
	}
	return &readings.MeterReading{
		PreviousReading:  prev.Float64,
		CurrentReading:   cur.Float64,
		Consumption:      cons.Float64,
		PreviousPhotoURL: prevURL.String,
		CurrentPhotoURL:  curURL.String,
	}
}
