package strategy

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CostMethod represents the inventory costing method
type CostMethod string

const (
	CostMethodFIFOActual      CostMethod = "fifo_actual"
	CostMethodWeightedAverage CostMethod = "weighted_average"
	CostMethodStandard        CostMethod = "standard_cost"
)

// String returns the string representation of the cost method
func (m CostMethod) String() string {
	return string(m)
}

// IsValid returns true if the cost method is valid
func (m CostMethod) IsValid() bool {
	switch m {
	case CostMethodFIFOActual, CostMethodWeightedAverage, CostMethodStandard:
		return true
	default:
		return false
	}
}

// StockEntry is a costing view of one active batch
type StockEntry struct {
	BatchID           string
	BatchNumber       string
	RemainingQuantity decimal.Decimal
	UnitCost          decimal.Decimal
	ReceivedDate      time.Time
}

// CostContext provides context for a cost quote
type CostContext struct {
	MaterialID string
	Quantity   decimal.Decimal
	// StandardUnitCost is the material's last-known unit cost, used by the
	// standard-cost method and as fallback when no entries exist.
	StandardUnitCost decimal.Decimal
}

// CostResult contains the result of a cost quote
type CostResult struct {
	Method            CostMethod
	UnitCost          decimal.Decimal
	TotalCost         decimal.Decimal
	AvailableQuantity decimal.Decimal
	// FullyCovered is false when the quote spans more quantity than the
	// entries hold; the quote then prices only what is available.
	FullyCovered bool
}

// CostingStrategy prices a quantity of a material against its active batches
type CostingStrategy interface {
	Strategy
	// Method returns the costing method implemented by this strategy
	Method() CostMethod
	// QuoteCost prices the quantity in costCtx against the given entries.
	// Entries must be pre-sorted ascending by ReceivedDate.
	QuoteCost(ctx context.Context, costCtx CostContext, entries []StockEntry) (CostResult, error)
}
