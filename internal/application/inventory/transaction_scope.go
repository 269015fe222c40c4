package inventory

import (
	"context"

	"github.com/venueos/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to inventory repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically. Implementations run at the strictest isolation the store
// offers and enforce a bounded timeout.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all inventory repositories
// within one transaction. Batch rows, movement rows and the material
// aggregate row must always move together, which is why the deduction path
// only ever touches them through this interface.
type TransactionalRepositories interface {
	// MaterialRepo returns the raw material repository scoped to the current transaction
	MaterialRepo() inventory.RawMaterialRepository
	// BatchRepo returns the stock batch repository scoped to the current transaction
	BatchRepo() inventory.StockBatchRepository
	// MovementRepo returns the movement repository scoped to the current transaction
	MovementRepo() inventory.MovementRepository
}

// NoOpTransactionScope is a transaction scope without real transactions,
// for tests over in-memory repositories.
type NoOpTransactionScope struct {
	materialRepo inventory.RawMaterialRepository
	batchRepo    inventory.StockBatchRepository
	movementRepo inventory.MovementRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	materialRepo inventory.RawMaterialRepository,
	batchRepo inventory.StockBatchRepository,
	movementRepo inventory.MovementRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		materialRepo: materialRepo,
		batchRepo:    batchRepo,
		movementRepo: movementRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// MaterialRepo returns the raw material repository.
func (s *NoOpTransactionScope) MaterialRepo() inventory.RawMaterialRepository {
	return s.materialRepo
}

// BatchRepo returns the stock batch repository.
func (s *NoOpTransactionScope) BatchRepo() inventory.StockBatchRepository {
	return s.batchRepo
}

// MovementRepo returns the movement repository.
func (s *NoOpTransactionScope) MovementRepo() inventory.MovementRepository {
	return s.movementRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
