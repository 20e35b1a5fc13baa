package memory

import (
	"context"
	"sync"
	"time"

	readings "meterdesk/internal/readings/domain"
	"meterdesk/internal/storage"
)

const periodConstraint = "reading_groups_period_key"

// Repository is an in-memory reading group store. It enforces the same
// period uniqueness constraint as the Postgres schema, so merge race
// handling can be exercised without a database.
type Repository struct {
	mu       sync.Mutex
	byPeriod map[string]*readings.ReadingGroup
	byID     map[string]*readings.ReadingGroup
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{
		byPeriod: make(map[string]*readings.ReadingGroup),
		byID:     make(map[string]*readings.ReadingGroup),
	}
}

func periodKey(teamID, roomID string, readingDate time.Time) string {
	return teamID + "|" + roomID + "|" + readings.PeriodKey(readingDate)
}

// FindByPeriod loads a group by its merge key.
func (r *Repository) FindByPeriod(ctx context.Context, teamID, roomID string, readingDate time.Time) (*readings.ReadingGroup, error) {
	_ = ctx
	if teamID == "" || roomID == "" {
		return nil, readings.ErrEmptyKey
	}
	r.mu.Lock()
	group := r.byPeriod[periodKey(teamID, roomID, readingDate)]
	r.mu.Unlock()
	return group.Clone(), nil
}

// GetByID loads a group by id.
func (r *Repository) GetByID(ctx context.Context, teamID, id string) (*readings.ReadingGroup, error) {
	_ = ctx
	r.mu.Lock()
	group := r.byID[id]
	r.mu.Unlock()
	if group == nil || group.TeamID != teamID {
		return nil, nil
	}
	return group.Clone(), nil
}

// Create inserts a new group, rejecting duplicate period keys.
func (r *Repository) Create(ctx context.Context, group *readings.ReadingGroup) error {
	_ = ctx
	if group == nil {
		return readings.ErrNilGroup
	}
	key := periodKey(group.TeamID, group.RoomID, group.ReadingDate)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byPeriod[key]; exists {
		return &storage.ConstraintViolation{Collection: "reading_groups", Constraint: periodConstraint}
	}
	stored := group.Clone()
	r.byPeriod[key] = stored
	r.byID[stored.ID] = stored
	return nil
}

// Update overwrites an existing group.
func (r *Repository) Update(ctx context.Context, group *readings.ReadingGroup) error {
	_ = ctx
	if group == nil {
		return readings.ErrNilGroup
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[group.ID]; !exists {
		return readings.ErrNotFound
	}
	stored := group.Clone()
	r.byPeriod[periodKey(group.TeamID, group.RoomID, group.ReadingDate)] = stored
	r.byID[group.ID] = stored
	return nil
}

// UpdateStatus updates only the status of a group.
func (r *Repository) UpdateStatus(ctx context.Context, teamID, id string, status readings.Status) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	group := r.byID[id]
	if group == nil || group.TeamID != teamID {
		return readings.ErrNotFound
	}
	group.Status = status
	return nil
}

// Len returns the number of stored groups, for duplicate-row assertions.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byPeriod)
}
