package repository

import (
	"context"

	"gorm.io/gorm"
)

type contextKey string

const txKey contextKey = "gorm_tx"

// TransactionManager runs multi-repository units of work (summary replace +
// revenue cascade + approval reset, special-case upsert + cost fold) in one
// database transaction, injected through the context.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &transactionManager{db: db}
}

func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	// Joining an already-open transaction keeps composed service calls in
	// a single commit instead of stacking savepoints.
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey, tx)
		return fn(txCtx)
	})
}

// GetDB returns the transaction handle carried by the context, or the root
// DB when the call runs outside a transaction.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}
