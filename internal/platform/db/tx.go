package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

// TxKey carries the transaction for the current unit of work through the
// request context. Repositories pick it up via TxFromContext so that every
// statement issued between resolve and commit runs on the same transaction.
const TxKey contextKey = "db_tx"

// ContextWithTx returns a child context carrying tx.
func ContextWithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, TxKey, tx)
}

// TxFromContext retrieves the current transaction from ctx, or nil if the
// caller is not inside a unit of work.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(TxKey).(pgx.Tx)
	return tx
}

// UnitOfWork executes fn as a single atomic commit against storage. Every
// mutating service operation runs exactly one unit of work: resolve, mutate,
// commit.
type UnitOfWork func(ctx context.Context, fn func(ctx context.Context) error) error

// Passthrough is a UnitOfWork with no transactional wrapping, for callers
// (and tests) whose repository commits each statement on its own.
func Passthrough(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// PoolUnitOfWork returns a UnitOfWork that wraps fn in one transaction on
// pool.
func PoolUnitOfWork(pool *pgxpool.Pool) UnitOfWork {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return WithTx(ctx, pool, fn)
	}
}

// WithTx runs fn inside a single transaction: it begins on pool, injects the
// transaction into the context, and commits when fn returns nil. Any error
// from fn rolls the transaction back and is returned unwrapped so sentinel
// errors survive for errors.Is at the call boundary.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ContextWithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
