package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"taskloop/internal/auth"
	"taskloop/internal/repository"
	"taskloop/internal/repository/sqlite"
)

const testSecret = "test-secret"

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func newTestRepos(t *testing.T) (repository.UserRepository, repository.TodoRepository) {
	t.Helper()

	db := newTestDB(t)
	users := sqlite.NewUserRepository(db)
	todos := sqlite.NewTodoRepository(db)

	ctx := context.Background()
	require.NoError(t, users.Init(ctx))
	require.NoError(t, todos.Init(ctx))

	return users, todos
}

func newTestServices(t *testing.T) (UserService, TodoService) {
	t.Helper()

	users, todos := newTestRepos(t)
	return NewUserService(users, auth.NewCodec(testSecret)), NewTodoService(todos)
}
