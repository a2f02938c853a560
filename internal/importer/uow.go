package importer

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emrflow/emrflow/internal/platform/db"
)

type pgUnitOfWork struct {
	pool *pgxpool.Pool
}

// NewPgUnitOfWork scopes each row to one database transaction. Repositories
// pick the transaction up from the context, so every write a row performs
// commits or rolls back together.
func NewPgUnitOfWork(pool *pgxpool.Pool) UnitOfWork {
	return &pgUnitOfWork{pool: pool}
}

func (u *pgUnitOfWork) Begin(ctx context.Context) (context.Context, Tx, error) {
	txCtx, tx, err := db.WithTx(db.WithPool(ctx, u.pool))
	if err != nil {
		return ctx, nil, err
	}
	return txCtx, tx, nil
}
