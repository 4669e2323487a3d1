package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskloop/internal/domain"
	"taskloop/internal/repository"
)

const (
	createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`
	createUserTokensTable = `
CREATE TABLE IF NOT EXISTS user_tokens (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	access TEXT NOT NULL,
	token TEXT NOT NULL
);
`
	createUserTokensIndex = `
CREATE INDEX IF NOT EXISTS idx_user_tokens_token ON user_tokens(token);
`
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createUserTokensTable); err != nil {
		return fmt.Errorf("create user tokens table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createUserTokensIndex); err != nil {
		return fmt.Errorf("create user tokens index: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (email, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?)`,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return 0, repository.ErrDuplicateEmail
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user last insert id: %w", err)
	}
	user.ID = id
	return id, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, email, password_hash, created_at, updated_at
FROM users
WHERE email = ?`,
		email,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	return r.attachTokens(ctx, user)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, email, password_hash, created_at, updated_at
FROM users
WHERE id = ?`,
		id,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	return r.attachTokens(ctx, user)
}

// GetByIDAndToken requires both the decoded user id and the exact raw
// token with the given access scope to still be on file. A removed row
// means the token no longer authenticates, signature or not.
func (r *UserRepository) GetByIDAndToken(ctx context.Context, id int64, token, access string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT u.id, u.email, u.password_hash, u.created_at, u.updated_at
FROM users u
JOIN user_tokens t ON t.user_id = u.id
WHERE u.id = ? AND t.token = ? AND t.access = ?`,
		id,
		token,
		access,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	return r.attachTokens(ctx, user)
}

// AddToken appends a token in a single INSERT, so concurrent logins for
// the same user never lose each other's tokens.
func (r *UserRepository) AddToken(ctx context.Context, userID int64, token domain.UserToken) error {
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO user_tokens (user_id, access, token)
VALUES (?, ?, ?)`,
		userID,
		token.Access,
		token.Token,
	); err != nil {
		return fmt.Errorf("insert user token: %w", err)
	}
	return nil
}

func (r *UserRepository) RemoveToken(ctx context.Context, userID int64, token string) error {
	// deleting an absent token is not an error
	if _, err := r.db.ExecContext(ctx, `
DELETE FROM user_tokens
WHERE user_id = ? AND token = ?`,
		userID,
		token,
	); err != nil {
		return fmt.Errorf("delete user token: %w", err)
	}
	return nil
}

func (r *UserRepository) attachTokens(ctx context.Context, user *domain.User) (*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT access, token
FROM user_tokens
WHERE user_id = ?
ORDER BY id ASC`,
		user.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query user tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tok domain.UserToken
		if err := rows.Scan(&tok.Access, &tok.Token); err != nil {
			return nil, fmt.Errorf("scan user token: %w", err)
		}
		user.Tokens = append(user.Tokens, tok)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user tokens: %w", err)
	}
	return user, nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}
