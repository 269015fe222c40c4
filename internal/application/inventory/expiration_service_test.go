package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venueos/backend/internal/domain/inventory"
	"go.uber.org/zap"
)

func newExpirationFixture(t *testing.T) (*BatchExpirationService, *testFixture) {
	t.Helper()
	f := newTestFixture(t, nil)
	scope := NewNoOpTransactionScope(f.materialRepo, f.batchRepo, f.movementRepo)
	return NewBatchExpirationService(f.batchRepo, scope, zap.NewNop()), f
}

func (f *testFixture) receivePerishable(t *testing.T, name string, expiresAt time.Time) *inventory.StockBatch {
	t.Helper()
	material := f.createMaterial(t, name, name+"-SKU")
	batch, err := f.service.CreateStockBatch(context.Background(), CreateBatchRequest{
		MaterialID:     material.ID,
		Quantity:       decimal.NewFromInt(10),
		CostPerUnit:    decimal.NewFromFloat(2.00),
		ReceivedDate:   expiresAt.AddDate(0, 0, -7),
		ExpirationDate: &expiresAt,
	})
	require.NoError(t, err)
	return batch
}

func TestBatchExpirationService_ExpireOverdueBatches(t *testing.T) {
	ctx := context.Background()

	t.Run("expires overdue batches and leaves fresh ones", func(t *testing.T) {
		svc, f := newExpirationFixture(t)
		overdue := f.receivePerishable(t, "Milk", time.Now().Add(-24*time.Hour))
		fresh := f.receivePerishable(t, "Cream", time.Now().Add(72*time.Hour))

		stats, err := svc.ExpireOverdueBatches(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalCandidates)
		assert.Equal(t, 1, stats.Expired)
		assert.Equal(t, 0, stats.Failed)

		expired, err := f.batchRepo.FindByID(ctx, overdue.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.BatchStatusExpired, expired.Status)

		untouched, err := f.batchRepo.FindByID(ctx, fresh.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.BatchStatusActive, untouched.Status)
	})

	t.Run("sweep records a spoilage write-off movement", func(t *testing.T) {
		svc, f := newExpirationFixture(t)
		overdue := f.receivePerishable(t, "Milk", time.Now().Add(-24*time.Hour))

		_, err := svc.ExpireOverdueBatches(ctx)
		require.NoError(t, err)

		movements, err := f.movementRepo.FindByBatch(ctx, overdue.ID)
		require.NoError(t, err)
		require.Len(t, movements, 2)
		writeOff := movements[len(movements)-1]
		assert.Equal(t, inventory.MovementTypeSpoilage, writeOff.MovementType)
		assert.True(t, writeOff.Quantity.Equal(decimal.NewFromInt(-10)))
		assert.True(t, writeOff.PreviousStock.Equal(decimal.NewFromInt(10)))
		assert.True(t, writeOff.NewStock.IsZero())
		assert.True(t, writeOff.CostImpact.Equal(decimal.NewFromInt(-20)))
	})

	t.Run("written-off quantity leaves the aggregate", func(t *testing.T) {
		svc, f := newExpirationFixture(t)
		overdue := f.receivePerishable(t, "Milk", time.Now().Add(-24*time.Hour))

		_, err := svc.ExpireOverdueBatches(ctx)
		require.NoError(t, err)

		material, err := f.materialRepo.FindByID(ctx, overdue.MaterialID)
		require.NoError(t, err)
		assert.True(t, material.CurrentStock.IsZero())

		// Movement ledger still sums to the aggregate
		sum, err := f.movementRepo.SumQuantityByMaterial(ctx, overdue.MaterialID)
		require.NoError(t, err)
		assert.True(t, sum.Equal(material.CurrentStock))
	})

	t.Run("sweep reports the spoilage cost to the recorder", func(t *testing.T) {
		svc, f := newExpirationFixture(t)
		rec := &stubRecorder{}
		svc.SetMovementRecorder(rec)
		overdue := f.receivePerishable(t, "Milk", time.Now().Add(-24*time.Hour))

		_, err := svc.ExpireOverdueBatches(ctx)
		require.NoError(t, err)

		require.Len(t, rec.spoilages, 1)
		assert.Equal(t, overdue.MaterialID.String(), rec.spoilages[0].materialID)
		assert.True(t, rec.spoilages[0].cost.Equal(decimal.NewFromInt(20)))
	})

	t.Run("no candidates is a no-op", func(t *testing.T) {
		svc, _ := newExpirationFixture(t)
		stats, err := svc.ExpireOverdueBatches(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalCandidates)
	})

	t.Run("skips batches deducted to depletion after the scan", func(t *testing.T) {
		svc, f := newExpirationFixture(t)
		overdue := f.receivePerishable(t, "Milk", time.Now().Add(-24*time.Hour))

		// Deplete through the domain path before the sweep transitions it
		require.NoError(t, overdue.Deduct(decimal.NewFromInt(10)))
		require.NoError(t, f.batchRepo.Update(ctx, overdue))

		stats, err := svc.ExpireOverdueBatches(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalCandidates)

		batch, err := f.batchRepo.FindByID(ctx, overdue.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.BatchStatusDepleted, batch.Status)
	})
}
