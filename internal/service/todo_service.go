package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskloop/internal/domain"
	"taskloop/internal/repository"
)

// ErrTodoNotFound is returned for missing items and, identically, for
// items owned by someone else.
var ErrTodoNotFound = errors.New("todo not found")

// TodoService coordinates owner-scoped todo operations. Every call takes
// the resolved owner id and never exposes another user's items.
type TodoService interface {
	Create(ctx context.Context, ownerID int64, text string) (*domain.Todo, error)
	List(ctx context.Context, ownerID int64) ([]domain.Todo, error)
	Get(ctx context.Context, ownerID, id int64) (*domain.Todo, error)
	Update(ctx context.Context, ownerID, id int64, patch domain.TodoPatch) (*domain.Todo, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

type todoService struct {
	todos repository.TodoRepository
}

func NewTodoService(todos repository.TodoRepository) TodoService {
	return &todoService{todos: todos}
}

func (s *todoService) Create(ctx context.Context, ownerID int64, text string) (*domain.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Reason: "text is required"}
	}

	todo := &domain.Todo{
		UserID: ownerID,
		Text:   text,
	}

	if _, err := s.todos.Create(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *todoService) List(ctx context.Context, ownerID int64) ([]domain.Todo, error) {
	return s.todos.ListByUser(ctx, ownerID)
}

func (s *todoService) Get(ctx context.Context, ownerID, id int64) (*domain.Todo, error) {
	todo, err := s.todos.Get(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}
	return todo, nil
}

// Update applies a partial patch. CompletedAt is derived here and only
// here: set when the patch marks the item completed, cleared when
// completed is false or absent. Clients can never supply it.
func (s *todoService) Update(ctx context.Context, ownerID, id int64, patch domain.TodoPatch) (*domain.Todo, error) {
	var text *string
	if patch.Text != nil {
		trimmed := strings.TrimSpace(*patch.Text)
		if trimmed == "" {
			return nil, &ValidationError{Reason: "text is required"}
		}
		text = &trimmed
	}

	completed := patch.Completed != nil && *patch.Completed
	var completedAt *time.Time
	if completed {
		now := time.Now().UTC()
		completedAt = &now
	}

	todo, err := s.todos.Update(ctx, ownerID, id, text, completed, completedAt)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}
	return todo, nil
}

func (s *todoService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.todos.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTodoNotFound
		}
		return err
	}
	return nil
}
