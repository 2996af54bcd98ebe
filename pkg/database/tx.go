package database

import (
	"context"
	"fmt"
)

// TxRunner runs a function inside a single database transaction.
type TxRunner interface {
	// InTx commits when fn returns nil and rolls back otherwise.
	// The context passed to fn carries the transaction.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type scopeTxRunner struct{}

// NewTxRunner returns a TxRunner that begins transactions on the scoped connection.
func NewTxRunner() TxRunner {
	return &scopeTxRunner{}
}

var _ TxRunner = (*scopeTxRunner)(nil)

func (r *scopeTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	scope, ok := GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(WithTx(ctx, tx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
