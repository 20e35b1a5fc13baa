package readings

import (
	"context"
	"time"
)

// Repository persists reading groups. FindByPeriod and GetByID return nil
// when no row exists. Create fails with storage.ConstraintViolation when the
// (team, room, reading date) key is already taken.
type Repository interface {
	FindByPeriod(ctx context.Context, teamID, roomID string, readingDate time.Time) (*ReadingGroup, error)
	GetByID(ctx context.Context, teamID, id string) (*ReadingGroup, error)
	Create(ctx context.Context, group *ReadingGroup) error
	Update(ctx context.Context, group *ReadingGroup) error
	UpdateStatus(ctx context.Context, teamID, id string, status Status) error
}
