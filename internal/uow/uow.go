package uow

import (
	"context"

	"github.com/jackc/pgx/v5"

	postgresrepo "github.com/kirinyoku/stow/internal/repository/postgres"
)

// maxAttempts bounds how many times a transaction is replayed after a
// serialization failure or deadlock.
const maxAttempts = 3

// AfterCommit is a function that runs after a successful transaction commit.
type AfterCommit func(ctx context.Context)

// Transactor is what services depend on to run a unit of work.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx postgresrepo.DB, after func(AfterCommit)) error) error
}

type runner interface {
	RunTx(ctx context.Context, opts *pgx.TxOptions, fn func(ctx context.Context, tx postgresrepo.DB) error) error
}

// UoW represents a unit of work.
type UoW struct {
	store     runner
	retryable func(error) bool
}

func NewUoW(store *postgresrepo.Store) *UoW {
	return &UoW{store: store, retryable: postgresrepo.IsRetryable}
}

// Do runs fn inside a serializable transaction. After a successful commit,
// it executes all after-commit hooks.
func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx postgresrepo.DB, after func(AfterCommit)) error,
) error {
	return u.DoWithOpts(ctx, nil, fn)
}

// DoWithOpts runs fn inside the transaction with the given options. A
// serialization failure replays fn in a fresh transaction; hooks registered
// by a failed attempt are discarded.
func (u *UoW) DoWithOpts(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx postgresrepo.DB, after func(AfterCommit)) error,
) error {
	var (
		hooks []AfterCommit
		err   error
	)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		hooks = hooks[:0]

		err = u.store.RunTx(ctx, opts, func(ctx context.Context, tx postgresrepo.DB) error {
			return fn(ctx, tx, func(h AfterCommit) {
				hooks = append(hooks, h)
			})
		})
		if err == nil || !u.retryable(err) || ctx.Err() != nil {
			break
		}
	}

	if err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}
