package identity

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	// GetByUsername returns nil, nil when no such user exists.
	GetByUsername(ctx context.Context, username string) (*User, error)
}
