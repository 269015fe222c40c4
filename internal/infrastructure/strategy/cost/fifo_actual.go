package cost

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/venueos/backend/internal/domain/inventory"
	"github.com/venueos/backend/internal/domain/shared/strategy"
)

// FIFOActualCostStrategy prices a quantity at the exact cost the FIFO
// allocator would charge right now: each unit carries the receipt cost of
// the batch it would be drawn from.
type FIFOActualCostStrategy struct {
	strategy.BaseStrategy
}

// NewFIFOActualCostStrategy creates a new FIFO-actual cost strategy
func NewFIFOActualCostStrategy() *FIFOActualCostStrategy {
	return &FIFOActualCostStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"fifo_actual",
			strategy.StrategyTypeCost,
			"Actual batch cost under first-in-first-out consumption",
		),
	}
}

// Method returns the costing method
func (s *FIFOActualCostStrategy) Method() strategy.CostMethod {
	return strategy.CostMethodFIFOActual
}

// QuoteCost runs a dry FIFO allocation over the entries and sums the cost
// impacts. Nothing is mutated.
func (s *FIFOActualCostStrategy) QuoteCost(
	ctx context.Context,
	costCtx strategy.CostContext,
	entries []strategy.StockEntry,
) (strategy.CostResult, error) {
	result := strategy.CostResult{Method: s.Method()}

	batches := entriesToBatches(entries)
	inventory.SortBatchesFIFO(batches)

	plan, err := inventory.PlanFIFOAllocation(costCtx.Quantity, batches)
	if err != nil {
		return result, err
	}

	result.TotalCost = plan.TotalCost
	result.UnitCost = plan.WeightedAverageCost()
	result.AvailableQuantity = plan.TotalAvailable
	result.FullyCovered = plan.FullySatisfied
	return result, nil
}

// entriesToBatches lifts costing entries into allocator candidates
func entriesToBatches(entries []strategy.StockEntry) []*inventory.StockBatch {
	batches := make([]*inventory.StockBatch, 0, len(entries))
	for _, e := range entries {
		id, err := uuid.Parse(e.BatchID)
		if err != nil {
			id = uuid.Nil
		}
		b := &inventory.StockBatch{
			BatchNumber:       e.BatchNumber,
			InitialQuantity:   e.RemainingQuantity,
			RemainingQuantity: e.RemainingQuantity,
			CostPerUnit:       e.UnitCost,
			ReceivedDate:      e.ReceivedDate,
			Status:            inventory.BatchStatusActive,
		}
		b.ID = id
		batches = append(batches, b)
	}
	return batches
}

// sumRemaining totals the remaining quantity across entries
func sumRemaining(entries []strategy.StockEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.RemainingQuantity)
	}
	return total
}
