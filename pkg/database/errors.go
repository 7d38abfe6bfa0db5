package database

import (
	"github.com/lib/pq"
	"github.com/tenantgate/tenantgate/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful
// messages. Returns nil if the error is not a pq.Error, letting the caller
// fall back to errors.Internal.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	case "23505": // unique_violation — e.g. a duplicate (tenant, role, resource, action) rule
		return errors.Conflict("a record with these values already exists: " + pqErr.Constraint)
	case "23503": // foreign_key_violation
		return errors.BadRequest("referenced record does not exist")
	case "23502": // not_null_violation
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{col: "must not be empty"})
	case "23514": // check_violation
		return errors.BadRequest("data validation failed: " + pqErr.Constraint)
	default:
		return nil
	}
}
