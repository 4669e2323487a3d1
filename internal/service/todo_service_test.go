package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskloop/internal/domain"
)

func registerTestUser(t *testing.T, users UserService, email string) *domain.User {
	t.Helper()
	user, err := users.Register(context.Background(), email, "secret1")
	require.NoError(t, err)
	return user
}

func TestTodoService_CreateAndGet(t *testing.T) {
	users, todos := newTestServices(t)
	ctx := context.Background()
	owner := registerTestUser(t, users, "a@x.com")

	todo, err := todos.Create(ctx, owner.ID, "  buy milk  ")
	require.NoError(t, err)
	assert.Equal(t, "buy milk", todo.Text)
	assert.False(t, todo.Completed)
	assert.Nil(t, todo.CompletedAt)

	got, err := todos.Get(ctx, owner.ID, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, todo.ID, got.ID)
	assert.Equal(t, "buy milk", got.Text)
}

func TestTodoService_CreateValidation(t *testing.T) {
	users, todos := newTestServices(t)
	ctx := context.Background()
	owner := registerTestUser(t, users, "a@x.com")

	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := todos.Create(ctx, owner.ID, text)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
	}
}

func TestTodoService_CompletionInvariant(t *testing.T) {
	users, todos := newTestServices(t)
	ctx := context.Background()
	owner := registerTestUser(t, users, "a@x.com")

	todo, err := todos.Create(ctx, owner.ID, "buy milk")
	require.NoError(t, err)

	completed := true
	updated, err := todos.Update(ctx, owner.ID, todo.ID, domain.TodoPatch{Completed: &completed})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	require.NotNil(t, updated.CompletedAt)

	completed = false
	updated, err = todos.Update(ctx, owner.ID, todo.ID, domain.TodoPatch{Completed: &completed})
	require.NoError(t, err)
	assert.False(t, updated.Completed)
	assert.Nil(t, updated.CompletedAt)

	// omitting completed clears the flag and the timestamp
	completed = true
	_, err = todos.Update(ctx, owner.ID, todo.ID, domain.TodoPatch{Completed: &completed})
	require.NoError(t, err)

	text := "buy bread"
	updated, err = todos.Update(ctx, owner.ID, todo.ID, domain.TodoPatch{Text: &text})
	require.NoError(t, err)
	assert.Equal(t, "buy bread", updated.Text)
	assert.False(t, updated.Completed)
	assert.Nil(t, updated.CompletedAt)
}

func TestTodoService_UpdateValidation(t *testing.T) {
	users, todos := newTestServices(t)
	ctx := context.Background()
	owner := registerTestUser(t, users, "a@x.com")

	todo, err := todos.Create(ctx, owner.ID, "buy milk")
	require.NoError(t, err)

	empty := "   "
	_, err = todos.Update(ctx, owner.ID, todo.ID, domain.TodoPatch{Text: &empty})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestTodoService_OwnershipIsolation(t *testing.T) {
	users, todos := newTestServices(t)
	ctx := context.Background()
	alice := registerTestUser(t, users, "alice@x.com")
	bob := registerTestUser(t, users, "bob@x.com")

	todo, err := todos.Create(ctx, alice.ID, "buy milk")
	require.NoError(t, err)

	// foreign items must look exactly like missing ones
	_, err = todos.Get(ctx, bob.ID, todo.ID)
	require.ErrorIs(t, err, ErrTodoNotFound)

	completed := true
	_, err = todos.Update(ctx, bob.ID, todo.ID, domain.TodoPatch{Completed: &completed})
	require.ErrorIs(t, err, ErrTodoNotFound)

	require.ErrorIs(t, todos.Delete(ctx, bob.ID, todo.ID), ErrTodoNotFound)

	// and the item is untouched for its owner
	got, err := todos.Get(ctx, alice.ID, todo.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)

	list, err := todos.List(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTodoService_List(t *testing.T) {
	users, todos := newTestServices(t)
	ctx := context.Background()
	owner := registerTestUser(t, users, "a@x.com")

	_, err := todos.Create(ctx, owner.ID, "first")
	require.NoError(t, err)
	_, err = todos.Create(ctx, owner.ID, "second")
	require.NoError(t, err)

	list, err := todos.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Text)
	assert.Equal(t, "second", list[1].Text)
}

func TestTodoService_Delete(t *testing.T) {
	users, todos := newTestServices(t)
	ctx := context.Background()
	owner := registerTestUser(t, users, "a@x.com")

	todo, err := todos.Create(ctx, owner.ID, "buy milk")
	require.NoError(t, err)

	require.NoError(t, todos.Delete(ctx, owner.ID, todo.ID))

	_, err = todos.Get(ctx, owner.ID, todo.ID)
	require.ErrorIs(t, err, ErrTodoNotFound)

	require.ErrorIs(t, todos.Delete(ctx, owner.ID, todo.ID), ErrTodoNotFound)
}
