package storage

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound indicates a row that was expected to exist is missing.
var ErrNotFound = errors.New("storage: not found")

// ConstraintViolation is raised when a write is rejected by a uniqueness
// constraint. Merge and invoice-generation retry logic branches on this type
// instead of inspecting error text.
type ConstraintViolation struct {
	Collection string
	Constraint string
}

// Error implements the error interface.
func (e *ConstraintViolation) Error() string {
	if e.Constraint == "" {
		return fmt.Sprintf("storage: %s: uniqueness constraint violated", e.Collection)
	}
	return fmt.Sprintf("storage: %s: uniqueness constraint %s violated", e.Collection, e.Constraint)
}

// IsConstraintViolation reports whether err carries a uniqueness violation.
func IsConstraintViolation(err error) bool {
	var violation *ConstraintViolation
	return errors.As(err, &violation)
}

// MapError translates driver errors into the storage contract. Unique
// violations become ConstraintViolation; everything else passes through.
func MapError(collection string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return &ConstraintViolation{Collection: collection, Constraint: pgErr.ConstraintName}
	}
	return err
}
