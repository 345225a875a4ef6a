package db

import (
	"context"
	"fmt"

	pgx "github.com/jackc/pgx/v4"
)

// TxBeginner is implemented by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error
}

type PgTxManager struct {
	db TxBeginner
}

func NewTxManager(db TxBeginner) *PgTxManager {
	return &PgTxManager{db: db}
}

// WithTx commits when fn returns nil and rolls back on error or panic.
func (m *PgTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) (err error) {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
