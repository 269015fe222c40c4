package cost

import (
	"context"

	"github.com/venueos/backend/internal/domain/shared/strategy"
)

// StandardCostStrategy prices a quantity at the material's static unit cost,
// ignoring batches entirely.
type StandardCostStrategy struct {
	strategy.BaseStrategy
}

// NewStandardCostStrategy creates a new standard-cost strategy
func NewStandardCostStrategy() *StandardCostStrategy {
	return &StandardCostStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"standard_cost",
			strategy.StrategyTypeCost,
			"Static material unit cost, independent of batches",
		),
	}
}

// Method returns the costing method
func (s *StandardCostStrategy) Method() strategy.CostMethod {
	return strategy.CostMethodStandard
}

// QuoteCost computes quantity times the material's standard unit cost
func (s *StandardCostStrategy) QuoteCost(
	ctx context.Context,
	costCtx strategy.CostContext,
	entries []strategy.StockEntry,
) (strategy.CostResult, error) {
	return strategy.CostResult{
		Method:            s.Method(),
		UnitCost:          costCtx.StandardUnitCost,
		TotalCost:         costCtx.Quantity.Mul(costCtx.StandardUnitCost),
		AvailableQuantity: sumRemaining(entries),
		FullyCovered:      true,
	}, nil
}
