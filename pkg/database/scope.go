package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conn is the subset of pgx shared by pooled connections and transactions.
// Repositories only ever talk to the database through it.
type Conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Begin(ctx context.Context) (pgx.Tx, error)
}

var (
	_ Conn = (*pgxpool.Conn)(nil)
	_ Conn = (pgx.Tx)(nil)
)

// Scope wraps a connection acquired for one unit of work and ensures cleanup.
// Inside RunInTx, Conn is the open transaction.
type Scope struct {
	Conn Conn

	pooled *pgxpool.Conn
}

// Close releases the connection to the pool.
// This MUST be called, normally with defer scope.Close().
func (s *Scope) Close() {
	if s == nil || s.pooled == nil {
		return
	}
	s.pooled.Release()
	s.pooled = nil
}

// InTx reports whether the scope is bound to a transaction.
func (s *Scope) InTx() bool {
	_, ok := s.Conn.(pgx.Tx)
	return ok
}

// Acquire takes a connection from the pool.
// The returned Scope MUST be closed with defer scope.Close().
func (db *DB) Acquire(ctx context.Context) (*Scope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &Scope{Conn: conn, pooled: conn}, nil
}

// RunInTx runs fn inside a transaction on the scope found in ctx. The context
// handed to fn carries a scope bound to the transaction, so repository calls
// made with it join the transaction. When ctx is already inside a transaction
// a savepoint is used. The transaction commits when fn returns nil.
func RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
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

	if err = fn(SetScope(ctx, &Scope{Conn: tx})); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
