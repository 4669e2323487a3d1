package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskloop/internal/domain"
	"taskloop/internal/repository"
)

const createTodosTable = `
CREATE TABLE IF NOT EXISTS todos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	text TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	completed_at DATETIME NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

const createTodosUserIndex = `
CREATE INDEX IF NOT EXISTS idx_todos_user_id ON todos(user_id);
`

type TodoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) repository.TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTodosTable); err != nil {
		return fmt.Errorf("create todos table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createTodosUserIndex); err != nil {
		return fmt.Errorf("create todos index: %w", err)
	}
	return nil
}

func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) (int64, error) {
	now := time.Now().UTC()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO todos (user_id, text, completed, completed_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		todo.UserID,
		todo.Text,
		todo.Completed,
		nullTime(todo.CompletedAt),
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert todo: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("todo last insert id: %w", err)
	}
	todo.ID = id
	return id, nil
}

func (r *TodoRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Todo, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, text, completed, completed_at, created_at, updated_at
FROM todos
WHERE user_id = ?
ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	todos := []domain.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *todo)
	}
	return todos, rows.Err()
}

func (r *TodoRepository) Get(ctx context.Context, userID, id int64) (*domain.Todo, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, text, completed, completed_at, created_at, updated_at
FROM todos
WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	return scanTodo(row)
}

// Update mutates the row in one guarded statement and reads back the
// result. The user_id filter makes foreign rows look exactly like
// missing ones.
func (r *TodoRepository) Update(ctx context.Context, userID, id int64, text *string, completed bool, completedAt *time.Time) (*domain.Todo, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE todos
SET text = COALESCE(?, text), completed = ?, completed_at = ?, updated_at = ?
WHERE id = ? AND user_id = ?`,
		text,
		completed,
		nullTime(completedAt),
		time.Now().UTC(),
		id,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("todo update rows affected: %w", err)
	}
	if aff == 0 {
		return nil, repository.ErrNotFound
	}

	return r.Get(ctx, userID, id)
}

func (r *TodoRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM todos
WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("todo delete rows affected: %w", err)
	}
	if aff == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanTodo(scanner interface {
	Scan(dest ...any) error
}) (*domain.Todo, error) {
	var (
		todo        domain.Todo
		completedAt sql.NullTime
	)

	if err := scanner.Scan(
		&todo.ID,
		&todo.UserID,
		&todo.Text,
		&todo.Completed,
		&completedAt,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan todo: %w", err)
	}

	if completedAt.Valid {
		t := completedAt.Time.UTC()
		todo.CompletedAt = &t
	}
	return &todo, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
