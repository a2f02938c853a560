package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const (
	PoolKey contextKey = "db_pool"
	TxKey   contextKey = "db_tx"
)

// WithPool stores the connection pool in the context so repositories and
// WithTx can reach it without being handed the pool explicitly.
func WithPool(ctx context.Context, pool *pgxpool.Pool) context.Context {
	return context.WithValue(ctx, PoolKey, pool)
}

// PoolFromContext retrieves the connection pool from the context.
func PoolFromContext(ctx context.Context) *pgxpool.Pool {
	pool, _ := ctx.Value(PoolKey).(*pgxpool.Pool)
	return pool
}

// WithTx begins a transaction on the pool carried by the context and returns
// a derived context that carries the transaction. Repositories route their
// statements through the transaction when one is present, so everything done
// under the returned context commits or rolls back as a unit.
func WithTx(ctx context.Context) (context.Context, pgx.Tx, error) {
	pool := PoolFromContext(ctx)
	if pool == nil {
		return ctx, nil, fmt.Errorf("no database pool in context")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return ctx, nil, fmt.Errorf("begin transaction: %w", err)
	}

	return context.WithValue(ctx, TxKey, tx), tx, nil
}

// TxFromContext retrieves the active transaction from the context, or nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(TxKey).(pgx.Tx)
	return tx
}
