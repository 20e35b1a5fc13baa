package auth

import (
	"context"
	"database/sql"
	"errors"

	masterdatarepo "meterdesk/internal/masterdata/infrastructure/postgres"
)

var (
	// ErrTeamMismatch indicates resource belongs to a different team.
	ErrTeamMismatch = errors.New("team mismatch")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("resource not found")
)

// RoomTeamChecker validates room team ownership.
type RoomTeamChecker interface {
	EnsureRoomTeam(ctx context.Context, teamID, roomID string) error
}

// RoomChecker checks room ownership using masterdata.
type RoomChecker struct {
	repo *masterdatarepo.RoomRepository
}

// NewRoomChecker constructs a RoomChecker.
func NewRoomChecker(db *sql.DB) *RoomChecker {
	if db == nil {
		return nil
	}
	return &RoomChecker{repo: masterdatarepo.NewRoomRepository(db)}
}

// EnsureRoomTeam verifies a room belongs to the team.
func (c *RoomChecker) EnsureRoomTeam(ctx context.Context, teamID, roomID string) error {
	if c == nil || c.repo == nil {
		return nil
	}
	if teamID == "" || roomID == "" {
		return nil
	}
	room, err := c.repo.GetRoom(ctx, teamID, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrNotFound
	}
	if room.TeamID != teamID {
		return ErrTeamMismatch
	}
	return nil
}
