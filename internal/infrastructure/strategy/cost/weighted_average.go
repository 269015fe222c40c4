package cost

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/venueos/backend/internal/domain/shared/strategy"
)

// WeightedAverageCostStrategy prices a quantity at the stock-weighted mean
// unit cost across all active batches.
type WeightedAverageCostStrategy struct {
	strategy.BaseStrategy
}

// NewWeightedAverageCostStrategy creates a new weighted-average cost strategy
func NewWeightedAverageCostStrategy() *WeightedAverageCostStrategy {
	return &WeightedAverageCostStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"weighted_average",
			strategy.StrategyTypeCost,
			"Stock-weighted mean unit cost across active batches",
		),
	}
}

// Method returns the costing method
func (s *WeightedAverageCostStrategy) Method() strategy.CostMethod {
	return strategy.CostMethodWeightedAverage
}

// QuoteCost computes quantity times the weighted mean unit cost. With no
// remaining stock the quote is zero, not an error.
func (s *WeightedAverageCostStrategy) QuoteCost(
	ctx context.Context,
	costCtx strategy.CostContext,
	entries []strategy.StockEntry,
) (strategy.CostResult, error) {
	result := strategy.CostResult{Method: s.Method()}

	totalQty := decimal.Zero
	totalValue := decimal.Zero
	for _, e := range entries {
		totalQty = totalQty.Add(e.RemainingQuantity)
		totalValue = totalValue.Add(e.RemainingQuantity.Mul(e.UnitCost))
	}

	result.AvailableQuantity = totalQty
	result.FullyCovered = costCtx.Quantity.LessThanOrEqual(totalQty)

	if totalQty.IsZero() {
		result.UnitCost = decimal.Zero
		result.TotalCost = decimal.Zero
		return result, nil
	}

	result.UnitCost = totalValue.Div(totalQty)
	result.TotalCost = costCtx.Quantity.Mul(result.UnitCost)
	return result, nil
}
