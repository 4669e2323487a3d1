package repository

import (
	"context"
	"time"

	"taskloop/internal/domain"
)

// TodoRepository exposes owner-scoped persistence operations for todos.
// Every lookup and mutation filters on the owning user id, so one user's
// items are invisible to everyone else. Absent and foreign rows are
// reported identically as a not-found error.
type TodoRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, todo *domain.Todo) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Todo, error)
	Get(ctx context.Context, userID, id int64) (*domain.Todo, error)
	// Update applies the mutable fields in a single guarded statement and
	// returns the post-update row. A nil text leaves the text unchanged.
	Update(ctx context.Context, userID, id int64, text *string, completed bool, completedAt *time.Time) (*domain.Todo, error)
	Delete(ctx context.Context, userID, id int64) error
}
