package inventory

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/venueos/backend/internal/domain/shared"
)

// MovementRecorder receives counter events as stock moves. Implementations
// must be safe for concurrent use.
type MovementRecorder interface {
	// RecordDeduction records one deduction attempt with its outcome label
	RecordDeduction(ctx context.Context, movementType, outcome string)

	// RecordReceipt records one received stock batch
	RecordReceipt(ctx context.Context, materialID string)

	// RecordSpoilage records the cost written off when a batch expires
	RecordSpoilage(ctx context.Context, materialID string, cost decimal.Decimal)
}

// deductionOutcome labels a deduction attempt for the movement counters
func deductionOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, shared.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, shared.ErrLockContention):
		return "lock_contention"
	default:
		return "error"
	}
}
