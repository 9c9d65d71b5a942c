package auth

import (
	"context"
	"errors"
)

// ErrEmailExists is returned by repositories on unique email violations.
var ErrEmailExists = errors.New("email already registered")

// Repository abstracts user and identity persistence.
type Repository interface {
	Create(ctx context.Context, email, nickname, passwordHash string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, bool, error)
	GetByID(ctx context.Context, id int64) (User, bool, error)
	GetIdentity(ctx context.Context, provider, providerSubject string) (Identity, bool, error)
	UpsertIdentity(ctx context.Context, identity Identity) (Identity, error)
}
