package postgresql

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// uniqueViolationConstraint returns the violated constraint name when err is a
// unique violation
func uniqueViolationConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// constraintFields maps unique constraints to the API field they protect
var constraintFields = map[string]string{
	"users_email_key":              "email",
	"leave_requests_pkey":          "id",
	"leave_request_reviewers_pkey": "reviewers",
}

func constraintField(constraint string) string {
	if f, ok := constraintFields[constraint]; ok {
		return f
	}
	return constraint
}
