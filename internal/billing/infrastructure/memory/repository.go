package memory

import (
	"context"
	"sync"
	"time"

	billing "meterdesk/internal/billing/domain"
	"meterdesk/internal/storage"
)

const readingGroupConstraint = "invoices_reading_group_key"

// Repository is an in-memory invoice store. It enforces the same
// reading-group uniqueness constraint as the Postgres schema, so generate
// race handling can be exercised without a database.
type Repository struct {
	mu      sync.Mutex
	byGroup map[string]*billing.Invoice
	byID    map[string]*billing.Invoice
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{
		byGroup: make(map[string]*billing.Invoice),
		byID:    make(map[string]*billing.Invoice),
	}
}

func groupKey(teamID, readingGroupID string) string {
	return teamID + "|" + readingGroupID
}

// FindByReadingGroup loads the invoice generated from a reading group.
func (r *Repository) FindByReadingGroup(ctx context.Context, teamID, readingGroupID string) (*billing.Invoice, error) {
	_ = ctx
	r.mu.Lock()
	invoice := r.byGroup[groupKey(teamID, readingGroupID)]
	r.mu.Unlock()
	return invoice.Clone(), nil
}

// GetByID loads an invoice by id.
func (r *Repository) GetByID(ctx context.Context, teamID, id string) (*billing.Invoice, error) {
	_ = ctx
	r.mu.Lock()
	invoice := r.byID[id]
	r.mu.Unlock()
	if invoice == nil || invoice.TeamID != teamID {
		return nil, nil
	}
	return invoice.Clone(), nil
}

// CountByTeam counts a team's invoices.
func (r *Repository) CountByTeam(ctx context.Context, teamID string) (int, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, invoice := range r.byID {
		if invoice.TeamID == teamID {
			count++
		}
	}
	return count, nil
}

// Create inserts a new invoice, rejecting a second invoice for the same
// reading group.
func (r *Repository) Create(ctx context.Context, invoice *billing.Invoice) error {
	_ = ctx
	if invoice == nil {
		return billing.ErrNilInvoice
	}
	key := groupKey(invoice.TeamID, invoice.ReadingGroupID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byGroup[key]; exists {
		return &storage.ConstraintViolation{Collection: "invoices", Constraint: readingGroupConstraint}
	}
	stored := invoice.Clone()
	r.byGroup[key] = stored
	r.byID[stored.ID] = stored
	return nil
}

// MarkPaid records payment of an invoice.
func (r *Repository) MarkPaid(ctx context.Context, teamID, id string, paidAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	invoice := r.byID[id]
	if invoice == nil || invoice.TeamID != teamID {
		return billing.ErrInvoiceNotFound
	}
	paid := paidAt
	invoice.Status = billing.StatusPaid
	invoice.PaidDate = &paid
	invoice.UpdatedAt = paidAt
	return nil
}

// Delete removes an invoice, simulating an out-of-band deletion.
func (r *Repository) Delete(ctx context.Context, teamID, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	invoice := r.byID[id]
	if invoice == nil || invoice.TeamID != teamID {
		return billing.ErrInvoiceNotFound
	}
	delete(r.byID, id)
	delete(r.byGroup, groupKey(invoice.TeamID, invoice.ReadingGroupID))
	return nil
}

// Len returns the number of stored invoices, for duplicate-row assertions.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
