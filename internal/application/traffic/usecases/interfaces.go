package usecases

import (
	"context"
)

// TransactionManager runs a function inside a store transaction that is
// propagated to repositories through the context.
type TransactionManager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TokenHasher hashes service access tokens for storage.
type TokenHasher interface {
	Hash(token string) (string, error)
	Verify(token, hash string) error
}
