package orm

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Storm owns the database handle and the executor repositories run on.
// Inside WithTransaction the executor is the transaction itself.
type Storm struct {
	db         *sqlx.DB
	executor   DBExecutor
	middleware []QueryMiddleware
}

// NewStorm creates a new Storm instance with the given database connection
func NewStorm(db *sqlx.DB) *Storm {
	return &Storm{
		db:       db,
		executor: db,
	}
}

func (s *Storm) withExecutor(executor DBExecutor) *Storm {
	return &Storm{
		db:         s.db,
		executor:   executor,
		middleware: s.middleware,
	}
}

// Use registers query middleware for every repository built from this Storm
func (s *Storm) Use(mw ...QueryMiddleware) {
	s.middleware = append(s.middleware, mw...)
}

// Middleware returns the registered query middleware
func (s *Storm) Middleware() []QueryMiddleware {
	return s.middleware
}

// WithTransaction executes fn within a database transaction.
// Nested calls reuse the surrounding transaction.
func (s *Storm) WithTransaction(ctx context.Context, fn func(*Storm) error) error {
	return s.WithTransactionOptions(ctx, nil, fn)
}

// WithTransactionOptions executes fn within a transaction with specific options
func (s *Storm) WithTransactionOptions(ctx context.Context, opts *TransactionOptions, fn func(*Storm) error) error {
	if s.IsTransaction() {
		return fn(s)
	}

	if s.db == nil {
		return fmt.Errorf("cannot start transaction: executor is not a database connection")
	}

	tx, err := s.db.BeginTxx(ctx, opts.ToTxOptions())
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(s.withExecutor(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", ParsePostgreSQLError(err, "commit", ""))
	}

	return nil
}

// IsTransaction reports whether the executor is a transaction
func (s *Storm) IsTransaction() bool {
	_, ok := s.executor.(*sqlx.Tx)
	return ok
}

// GetExecutor returns the current database executor
func (s *Storm) GetExecutor() DBExecutor {
	return s.executor
}

// GetDB returns the underlying database connection
func (s *Storm) GetDB() *sqlx.DB {
	return s.db
}
