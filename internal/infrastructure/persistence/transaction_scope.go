package persistence

import (
	"context"
	"database/sql"
	"time"

	appinv "github.com/venueos/backend/internal/application/inventory"
	"github.com/venueos/backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// DefaultTransactionTimeout bounds every deduction transaction. Exceeding it
// rolls back and surfaces ErrTimeout, which callers treat exactly like lock
// contention.
const DefaultTransactionTimeout = 10 * time.Second

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every Execute runs at serializable isolation under a hard deadline, so a
// deduction's batch updates, movement rows and aggregate stock update commit
// or roll back as one unit.
type GormTransactionScope struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormTransactionScope creates a scope with the default timeout
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return NewGormTransactionScopeWithTimeout(db, DefaultTransactionTimeout)
}

// NewGormTransactionScopeWithTimeout creates a scope with a custom timeout
func NewGormTransactionScopeWithTimeout(db *gorm.DB, timeout time.Duration) *GormTransactionScope {
	if timeout <= 0 {
		timeout = DefaultTransactionTimeout
	}
	return &GormTransactionScope{db: db, timeout: timeout}
}

// Execute runs fn inside one serializable database transaction. Any error
// from fn rolls the transaction back; contention and deadline failures are
// translated into the domain taxonomy before being returned.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	return translateError(err)
}

// gormTransactionalRepositories exposes repositories bound to one open
// transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// MaterialRepo returns the raw material repository scoped to the transaction
func (r *gormTransactionalRepositories) MaterialRepo() inventory.RawMaterialRepository {
	return NewGormRawMaterialRepository(r.tx)
}

// BatchRepo returns the stock batch repository scoped to the transaction
func (r *gormTransactionalRepositories) BatchRepo() inventory.StockBatchRepository {
	return NewGormStockBatchRepository(r.tx)
}

// MovementRepo returns the movement repository scoped to the transaction
func (r *gormTransactionalRepositories) MovementRepo() inventory.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appinv.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
