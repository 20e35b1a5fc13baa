package postgres

import (
	"context"
	"database/sql"
	"errors"

	masterdata "meterdesk/internal/masterdata/domain"
)

// RoomRepository is a Postgres implementation for rooms.
type RoomRepository struct {
	db *sql.DB
}

// NewRoomRepository constructs a repository.
func NewRoomRepository(db *sql.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// GetRoom loads a room by id. Returns nil when absent.
func (r *RoomRepository) GetRoom(ctx context.Context, teamID, roomID string) (*masterdata.Room, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("room repo: nil db")
	}
	if teamID == "" || roomID == "" {
		return nil, errors.New("room repo: empty team or room id")
	}

	row := r.db.QueryRowContext(ctx, `
SELECT id, team_id, room_number, building, floor, COALESCE(tenant_id, ''), created_at, updated_at
FROM rooms
WHERE team_id = $1 AND id = $2`, teamID, roomID)

	var room masterdata.Room
	err := row.Scan(&room.ID, &room.TeamID, &room.RoomNumber, &room.Building, &room.Floor, &room.TenantID, &room.CreatedAt, &room.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}
