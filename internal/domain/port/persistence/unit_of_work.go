package persistence

import (
	"context"
)

// UnitOfWork coordinates a database transaction across repositories.
// Repositories returned for a context produced by Begin run inside that
// transaction; for any other context they use the shared connection.
type UnitOfWork interface {
	// Begin starts a new transaction and returns a transactional context
	Begin(ctx context.Context) (context.Context, error)

	// Commit commits the transaction in the given context
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction in the given context
	Rollback(ctx context.Context) error

	Users(ctx context.Context) UserRepository
	CreditEntries(ctx context.Context) CreditEntryRepository
	Videos(ctx context.Context) VideoRepository
	Transactions(ctx context.Context) TransactionRepository
	Integrations(ctx context.Context) IntegrationRepository
	Sessions(ctx context.Context) SessionRepository
}

// InTransaction reports whether ctx already carries an open transaction
type InTransaction interface {
	InTransaction(ctx context.Context) bool
}

// WithinTx runs fn inside a transaction, joining one already open in ctx.
// fn's error rolls the transaction back.
func WithinTx(ctx context.Context, uow UnitOfWork, fn func(txCtx context.Context) error) (err error) {
	if it, ok := uow.(InTransaction); ok && it.InTransaction(ctx) {
		return fn(ctx)
	}

	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = uow.Rollback(txCtx)
			panic(p)
		}
	}()

	if err = fn(txCtx); err != nil {
		_ = uow.Rollback(txCtx)
		return err
	}
	return uow.Commit(txCtx)
}
