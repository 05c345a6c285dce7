package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/mockstock/server/internal/domain"
)

// unitOfWork implements domain.UnitOfWork over database/sql transactions.
// Isolation stays at read committed; consistency comes from the FOR UPDATE
// row locks the stores take at first read. Serialization and deadlock
// failures are still translated to ErrTradeConflict so callers can retry.
type unitOfWork struct {
	db *DB
}

func NewUnitOfWork(db *DB) domain.UnitOfWork {
	return &unitOfWork{db: db}
}

func (u *unitOfWork) Do(ctx context.Context, fn func(tx domain.Tx) error) error {
	dbTx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := fn(dbTx); err != nil {
		return translateConflict(err)
	}

	if err := dbTx.Commit(); err != nil {
		return translateConflict(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// unwrap asserts the opaque handle back to the sql transaction this package
// produced in Do.
func unwrap(tx domain.Tx) (*sql.Tx, error) {
	dbTx, ok := tx.(*sql.Tx)
	if !ok {
		return nil, fmt.Errorf("postgres: foreign transaction handle %T", tx)
	}
	return dbTx, nil
}

// translateConflict maps SQLSTATE class 40 (serialization_failure,
// deadlock_detected) to the retryable domain error.
func translateConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "40" {
		return fmt.Errorf("%w: %s", domain.ErrTradeConflict, pqErr.Message)
	}
	return err
}
