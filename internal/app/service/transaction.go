package service

import (
	"context"
	"database/sql"
	"fmt"
)

// TxFunc runs fn inside one database transaction. The transaction commits
// only when fn returns nil; any error rolls everything back.
type TxFunc func(ctx context.Context, fn func(tx *sql.Tx) error) error

// NewTxFunc binds TxFunc to a live database handle.
func NewTxFunc(db *sql.DB) TxFunc {
	return func(ctx context.Context, fn func(tx *sql.Tx) error) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}
}
