package repository

import (
	"context"

	"cabshare/internal/domain"
)

// UserRepository defines the persistence operations for the user table.
type UserRepository interface {
	// LoadUsers reads every stored user. A missing table yields no users.
	LoadUsers(ctx context.Context) ([]*domain.User, error)

	// SaveUsers replaces the stored table with users.
	SaveUsers(ctx context.Context, users []*domain.User) error
}
