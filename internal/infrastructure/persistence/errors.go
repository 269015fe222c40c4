package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/venueos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes the repositories translate
const (
	pgCodeLockNotAvailable     = "55P03"
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeUniqueViolation      = "23505"
)

// translateError maps driver-level failures onto the domain error taxonomy.
// A NOWAIT lock that cannot be granted, a serialization failure and a
// deadlock all roll back the transaction and are retryable, so they collapse
// into ErrLockContention. A unique violation becomes ErrAlreadyExists so two
// receipts racing the same batch number surface as a conflict instead of a
// raw driver error. A blown context deadline becomes ErrTimeout.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeLockNotAvailable, pgCodeSerializationFailure, pgCodeDeadlockDetected:
			return shared.ErrLockContention
		case pgCodeUniqueViolation:
			return shared.ErrAlreadyExists
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return shared.ErrTimeout
	}
	return err
}
