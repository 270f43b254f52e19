package repository

import "context"

// TransactionManager runs a function inside a single database transaction.
// The borrowing approval check-then-set runs under this so two concurrent
// approvals cannot double-allocate one copy of a book.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
