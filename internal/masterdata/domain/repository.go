package masterdata

import "context"

// RoomRepository resolves rooms by id. Lookups return nil when absent.
type RoomRepository interface {
	GetRoom(ctx context.Context, teamID, roomID string) (*Room, error)
}

// TenantRepository resolves tenants by id. Lookups return nil when absent.
type TenantRepository interface {
	GetTenant(ctx context.Context, teamID, tenantID string) (*Tenant, error)
}

// SettingsRepository resolves per-team billing settings. Lookups return nil
// when the team has not configured settings yet.
type SettingsRepository interface {
	FindSettings(ctx context.Context, teamID string) (*TeamSettings, error)
}
