package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/venueos/backend/internal/domain/shared"
	"github.com/venueos/backend/internal/domain/shared/strategy"
)

// StrategyRegistry manages costing strategy registrations
type StrategyRegistry struct {
	mu             sync.RWMutex
	costStrategies map[strategy.CostMethod]strategy.CostingStrategy
	defaultMethod  strategy.CostMethod
}

// NewStrategyRegistry creates a new strategy registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		costStrategies: make(map[strategy.CostMethod]strategy.CostingStrategy),
	}
}

// RegisterCostStrategy registers a costing strategy by its method
func (r *StrategyRegistry) RegisterCostStrategy(s strategy.CostingStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	method := s.Method()
	if _, exists := r.costStrategies[method]; exists {
		return fmt.Errorf("%w: cost strategy '%s' already registered", shared.ErrAlreadyExists, method)
	}
	r.costStrategies[method] = s
	return nil
}

// SetDefaultCostMethod sets the method used when callers do not name one
func (r *StrategyRegistry) SetDefaultCostMethod(method strategy.CostMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.costStrategies[method]; !exists {
		return fmt.Errorf("%w: cost strategy '%s' not registered", shared.ErrNotFound, method)
	}
	r.defaultMethod = method
	return nil
}

// GetCostStrategy returns the strategy for a method, or the default when the
// method is empty
func (r *StrategyRegistry) GetCostStrategy(method strategy.CostMethod) (strategy.CostingStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if method == "" {
		method = r.defaultMethod
		if method == "" {
			return nil, fmt.Errorf("%w: no default cost strategy set", shared.ErrNotFound)
		}
	}

	s, exists := r.costStrategies[method]
	if !exists {
		return nil, fmt.Errorf("%w: cost strategy '%s' not found", shared.ErrNotFound, method)
	}
	return s, nil
}

// ListCostMethods returns all registered cost methods
func (r *StrategyRegistry) ListCostMethods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	methods := make([]string, 0, len(r.costStrategies))
	for method := range r.costStrategies {
		methods = append(methods, method.String())
	}
	sort.Strings(methods)
	return methods
}
