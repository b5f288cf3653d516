package driver

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TransactionManager runs a function inside one database transaction.
// Services wrap every operation in it so a redemption's side effects commit
// or roll back as a unit.
type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type transactionManager struct {
	conn PostgresPool
}

func NewTransactionManager(conn PostgresPool) TransactionManager {
	return &transactionManager{conn: conn}
}

func (tm *transactionManager) ExecuteTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := tm.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
