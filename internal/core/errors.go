package core

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound means the referenced order or customer does not exist, or is in
	// the trash where a live record was required.
	ErrNotFound = errors.New("not found")
	// ErrPreconditionFailed means the record exists but is not in a state that allows the operation.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrValidation means the caller supplied malformed or out-of-range data.
	ErrValidation = errors.New("validation failed")
	// ErrConflict means a uniqueness constraint could not be satisfied after retrying.
	ErrConflict = errors.New("conflict")
)

const sqlStateUniqueViolation = "23505"

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func orderNotFound(orderID int) error {
	return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
}

// isUniqueViolation reports whether err is a unique violation on the named constraint.
// An empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != sqlStateUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
