package strategy

import (
	"github.com/venueos/backend/internal/domain/shared/strategy"
	"github.com/venueos/backend/internal/infrastructure/strategy/cost"
)

// NewRegistryWithDefaults creates a registry with all costing strategies
// registered. defaultMethod selects the venue-wide policy; empty selects
// FIFO-actual.
func NewRegistryWithDefaults(defaultMethod strategy.CostMethod) (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	for _, s := range []strategy.CostingStrategy{
		cost.NewFIFOActualCostStrategy(),
		cost.NewWeightedAverageCostStrategy(),
		cost.NewStandardCostStrategy(),
	} {
		if err := r.RegisterCostStrategy(s); err != nil {
			return nil, err
		}
	}

	if defaultMethod == "" {
		defaultMethod = strategy.CostMethodFIFOActual
	}
	if err := r.SetDefaultCostMethod(defaultMethod); err != nil {
		return nil, err
	}
	return r, nil
}
