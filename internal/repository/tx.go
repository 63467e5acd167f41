package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var (
	// ReadOnly is used for every query-only operation.
	ReadOnly = pgx.TxOptions{AccessMode: pgx.ReadOnly}

	// Snapshot gives multi-statement reads a single consistent view.
	Snapshot = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

	// ReadWrite is used for create, update and delete.
	ReadWrite = pgx.TxOptions{}
)

// Transactor runs a unit of work inside a single database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, opts pgx.TxOptions, fn func(db DBTX) error) error
}

type pgTransactor struct {
	db TxStarter
}

// NewTransactor wraps a pool (or anything that can begin a transaction).
func NewTransactor(db TxStarter) Transactor {
	return &pgTransactor{db: db}
}

// WithinTx commits when fn returns nil and rolls back otherwise.
func (t *pgTransactor) WithinTx(ctx context.Context, opts pgx.TxOptions, fn func(db DBTX) error) error {
	tx, err := t.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
