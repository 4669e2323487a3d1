package repository

import (
	"context"

	"taskloop/internal/domain"
)

// UserRepository defines persistence operations for User entities and
// their token sets. AddToken and RemoveToken are single-statement
// operations so concurrent logins never clobber each other.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// GetByIDAndToken returns the user only when a token row with the
	// given access scope and exact token string is still present.
	GetByIDAndToken(ctx context.Context, id int64, token, access string) (*domain.User, error)
	AddToken(ctx context.Context, userID int64, token domain.UserToken) error
	RemoveToken(ctx context.Context, userID int64, token string) error
}
