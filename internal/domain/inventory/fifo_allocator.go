package inventory

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/venueos/backend/internal/domain/shared"
)

// AllocationEntry is one batch draw inside an allocation plan
type AllocationEntry struct {
	BatchID     uuid.UUID
	BatchNumber string
	// Quantity drawn from this batch
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
	// CostImpact = Quantity * UnitCost
	CostImpact decimal.Decimal
	// RemainingInBatch is what the batch would hold after the draw
	RemainingInBatch decimal.Decimal
	FullyDepleted    bool
}

// AllocationPlan is the outcome of planning a FIFO draw across batches.
// TotalAvailable always covers the whole candidate set so callers can
// distinguish "fully satisfied" from "short by X".
type AllocationPlan struct {
	Requested      decimal.Decimal
	Entries        []AllocationEntry
	TotalAllocated decimal.Decimal
	TotalCost      decimal.Decimal
	TotalAvailable decimal.Decimal
	FullySatisfied bool
}

// Shortfall returns how much of the request the candidate set cannot cover
func (p *AllocationPlan) Shortfall() decimal.Decimal {
	if p.FullySatisfied {
		return decimal.Zero
	}
	return p.Requested.Sub(p.TotalAvailable)
}

// WeightedAverageCost returns TotalCost / TotalAllocated, zero when nothing
// was allocated
func (p *AllocationPlan) WeightedAverageCost() decimal.Decimal {
	if p.TotalAllocated.IsZero() {
		return decimal.Zero
	}
	return p.TotalCost.Div(p.TotalAllocated)
}

// SortBatchesFIFO orders batches oldest receipt first. The sort is stable so
// equal received dates keep their insertion order, which makes the tie-break
// arbitrary but deterministic.
func SortBatchesFIFO(batches []*StockBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].ReceivedDate.Before(batches[j].ReceivedDate)
	})
}

// FilterAvailable returns only batches eligible for FIFO allocation,
// preserving order
func FilterAvailable(batches []*StockBatch) []*StockBatch {
	available := make([]*StockBatch, 0, len(batches))
	for _, b := range batches {
		if b.IsAvailable() {
			available = append(available, b)
		}
	}
	return available
}

// PlanFIFOAllocation computes which batches to draw from and how much,
// oldest first. Candidates must be pre-sorted ascending by ReceivedDate;
// non-available batches are skipped. The function has no side effects: it
// never mutates the batches it reads.
func PlanFIFOAllocation(requested decimal.Decimal, candidates []*StockBatch) (*AllocationPlan, error) {
	if !requested.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "requested quantity must be positive")
	}

	plan := &AllocationPlan{
		Requested:      requested,
		TotalAllocated: decimal.Zero,
		TotalCost:      decimal.Zero,
		TotalAvailable: decimal.Zero,
	}

	stillNeeded := requested
	for _, batch := range candidates {
		if !batch.IsAvailable() {
			continue
		}
		plan.TotalAvailable = plan.TotalAvailable.Add(batch.RemainingQuantity)
		if !stillNeeded.IsPositive() {
			continue
		}

		draw := decimal.Min(batch.RemainingQuantity, stillNeeded)
		remaining := batch.RemainingQuantity.Sub(draw)
		costImpact := draw.Mul(batch.CostPerUnit)

		plan.Entries = append(plan.Entries, AllocationEntry{
			BatchID:          batch.ID,
			BatchNumber:      batch.BatchNumber,
			Quantity:         draw,
			UnitCost:         batch.CostPerUnit,
			CostImpact:       costImpact,
			RemainingInBatch: remaining,
			FullyDepleted:    remaining.IsZero(),
		})
		plan.TotalAllocated = plan.TotalAllocated.Add(draw)
		plan.TotalCost = plan.TotalCost.Add(costImpact)
		stillNeeded = stillNeeded.Sub(draw)
	}

	plan.FullySatisfied = plan.TotalAllocated.Equal(requested)
	return plan, nil
}

// Apply executes the plan against the given batches by id. It is all or
// nothing at the caller's transaction level; the first failing deduction
// aborts and the caller must roll back.
func (p *AllocationPlan) Apply(batches []*StockBatch) error {
	byID := make(map[uuid.UUID]*StockBatch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}
	for _, entry := range p.Entries {
		batch, ok := byID[entry.BatchID]
		if !ok {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("planned batch %s is not in the locked set", entry.BatchNumber))
		}
		if err := batch.Deduct(entry.Quantity); err != nil {
			return err
		}
	}
	return nil
}
