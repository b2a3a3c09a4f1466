// Package tx defines the transaction boundary the domain layer works
// against. The PostgreSQL implementation lives in
// infrastructure/storage/postgres.
package tx

import "context"

// Manager runs functions inside a database transaction.
type Manager interface {
	// RunInTransaction commits when fn returns nil and rolls back when
	// it returns an error. A call made inside a running transaction
	// joins it rather than opening a second one.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only transactions for reads that need one
// consistent snapshot across several queries.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction; writes inside
	// fn fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
