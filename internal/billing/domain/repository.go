package billing

import (
	"context"
	"time"
)

// Repository persists invoices. The backing store enforces a uniqueness
// constraint on reading_group_id; Create surfaces a violation of it as
// storage.ConstraintViolation. Lookups return nil when absent.
type Repository interface {
	FindByReadingGroup(ctx context.Context, teamID, readingGroupID string) (*Invoice, error)
	GetByID(ctx context.Context, teamID, id string) (*Invoice, error)
	CountByTeam(ctx context.Context, teamID string) (int, error)
	Create(ctx context.Context, invoice *Invoice) error
	MarkPaid(ctx context.Context, teamID, id string, paidAt time.Time) error
}
