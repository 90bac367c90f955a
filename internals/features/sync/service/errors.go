package service

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	ErrUnknownEntityType = errors.New("Unknown entity type")
	ErrForbidden         = errors.New("Forbidden")
	ErrMalformedChange   = errors.New("Malformed change")
	ErrStaleWrite        = errors.New("Conflict: stale write")
)

func forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// describeTxError: pesan error transaksi tier yang bisa dibaca client.
func describeTxError(err error) string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgMessage(pgxErr.Code, pgxErr.Message, pgxErr.ConstraintName)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pgMessage(string(pqErr.Code), pqErr.Message, pqErr.Constraint)
	}
	return err.Error()
}

func pgMessage(code, msg, constraint string) string {
	switch code {
	case "23505":
		return fmt.Sprintf("Duplicate row (unique violation %s)", constraint)
	case "23503":
		return fmt.Sprintf("Missing reference (FK violation %s)", constraint)
	case "23502":
		return "Missing required field: " + msg
	case "22P02", "22007", "22008":
		return "Invalid value: " + msg
	default:
		return msg
	}
}
