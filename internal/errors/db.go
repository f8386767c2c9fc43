package errors

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapStoreError maps Postgres record-store failures to AppError instances.
// - context cancellation/deadline → Canceled
// - undefined table → Internal with a migration hint
// - connection exceptions → Transport
// - anything else → Internal.
func MapStoreError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeCanceled, Message: op + " canceled", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UndefinedTable:
			return Wrapf(err, ErrCodeInternal, "%s: session_records table missing (run migrations)", op)
		case pgerrcode.IsConnectionException(pgErr.Code):
			return Wrap(err, ErrCodeTransport, op+": database connection failed")
		}
	}
	return Wrap(err, ErrCodeInternal, op)
}
