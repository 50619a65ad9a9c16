// Package repository implements PostgreSQL persistence for carts, products,
// promotions, orders and user profiles. Queries run against a DBTX so the
// same code serves both pool connections and transactions.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx used by queries. Both *pgxpool.Pool and pgx.Tx
// satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// New creates a Queries instance bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries holds all query methods. It is safe for concurrent use.
type Queries struct {
	db DBTX
}

// WithTx returns a Queries bound to an open transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// Store combines pool-bound queries with transaction support.
type Store struct {
	*Queries
	pool *pgxpool.Pool
}

// NewStore creates a Store backed by a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Queries: New(pool),
		pool:    pool,
	}
}

// ExecTx runs fn inside a database transaction. If fn returns an error the
// transaction is rolled back and that error is returned.
func (s *Store) ExecTx(ctx context.Context, fn func(Querier) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(s.Queries.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
