package memory

import (
	"context"
	"sync"

	masterdata "meterdesk/internal/masterdata/domain"
)

// Repository is an in-memory masterdata store for tests and local runs.
type Repository struct {
	mu       sync.RWMutex
	rooms    map[string]*masterdata.Room
	tenants  map[string]*masterdata.Tenant
	settings map[string]*masterdata.TeamSettings
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{
		rooms:    make(map[string]*masterdata.Room),
		tenants:  make(map[string]*masterdata.Tenant),
		settings: make(map[string]*masterdata.TeamSettings),
	}
}

// PutRoom stores a room.
func (r *Repository) PutRoom(room masterdata.Room) {
	r.mu.Lock()
	r.rooms[room.TeamID+"|"+room.ID] = &room
	r.mu.Unlock()
}

// PutTenant stores a tenant.
func (r *Repository) PutTenant(tenant masterdata.Tenant) {
	r.mu.Lock()
	r.tenants[tenant.TeamID+"|"+tenant.ID] = &tenant
	r.mu.Unlock()
}

// PutSettings stores team settings.
func (r *Repository) PutSettings(settings masterdata.TeamSettings) {
	r.mu.Lock()
	r.settings[settings.TeamID] = &settings
	r.mu.Unlock()
}

// GetRoom loads a room by id.
func (r *Repository) GetRoom(ctx context.Context, teamID, roomID string) (*masterdata.Room, error) {
	_ = ctx
	r.mu.RLock()
	room := r.rooms[teamID+"|"+roomID]
	r.mu.RUnlock()
	if room == nil {
		return nil, nil
	}
	copy := *room
	return &copy, nil
}

// GetTenant loads a tenant by id.
func (r *Repository) GetTenant(ctx context.Context, teamID, tenantID string) (*masterdata.Tenant, error) {
	_ = ctx
	r.mu.RLock()
	tenant := r.tenants[teamID+"|"+tenantID]
	r.mu.RUnlock()
	if tenant == nil {
		return nil, nil
	}
	copy := *tenant
	return &copy, nil
}

// FindSettings loads team settings.
func (r *Repository) FindSettings(ctx context.Context, teamID string) (*masterdata.TeamSettings, error) {
	_ = ctx
	r.mu.RLock()
	settings := r.settings[teamID]
	r.mu.RUnlock()
	if settings == nil {
		return nil, nil
	}
	copy := *settings
	return &copy, nil
}
