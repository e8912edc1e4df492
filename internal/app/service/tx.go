package service

import (
	"context"
	"database/sql"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/common"
)

// withTx runs fn in one transaction: commit when fn succeeds, rollback otherwise.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return common.DependencyError("begin transaction", err)
	}
	defer tx.Rollback() // no-op after Commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return common.DependencyError("commit transaction", err)
	}
	return nil
}
