package postgres

import (
	"context"
	"database/sql"
	"errors"

	masterdata "meterdesk/internal/masterdata/domain"
)

// TenantRepository is a Postgres implementation for tenants.
type TenantRepository struct {
	db *sql.DB
}

// NewTenantRepository constructs a repository.
func NewTenantRepository(db *sql.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// GetTenant loads a tenant by id. Returns nil when absent.
func (r *TenantRepository) GetTenant(ctx context.Context, teamID, tenantID string) (*masterdata.Tenant, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tenant repo: nil db")
	}
	if teamID == "" || tenantID == "" {
		return nil, errors.New("tenant repo: empty team or tenant id")
	}

	row := r.db.QueryRowContext(ctx, `
SELECT id, team_id, name, COALESCE(phone, ''), COALESCE(email, ''), COALESCE(room_id, ''), created_at, updated_at
FROM tenants
WHERE team_id = $1 AND id = $2`, teamID, tenantID)

	var tenant masterdata.Tenant
	err := row.Scan(&tenant.ID, &tenant.TeamID, &tenant.Name, &tenant.Phone, &tenant.Email, &tenant.RoomID, &tenant.CreatedAt, &tenant.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}
