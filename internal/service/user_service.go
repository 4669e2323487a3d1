package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"taskloop/internal/auth"
	"taskloop/internal/domain"
	"taskloop/internal/repository"
)

var (
	// ErrInvalidCredentials covers both unknown emails and wrong
	// passwords so responses never reveal whether an account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when registering an already used email.
	ErrEmailTaken = errors.New("email already registered")
)

// ValidationError reports a rejected input together with the violated
// constraint.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

const minPasswordLength = 6

// UserService describes user lifecycle and token operations.
type UserService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GenerateAuthToken(ctx context.Context, user *domain.User) (string, error)
	FindByToken(ctx context.Context, token string) (*domain.User, error)
	RemoveToken(ctx context.Context, user *domain.User, token string) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type userService struct {
	users repository.UserRepository
	codec *auth.Codec
}

func NewUserService(users repository.UserRepository, codec *auth.Codec) UserService {
	return &userService{
		users: users,
		codec: codec,
	}
}

func (s *userService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)

	if email == "" {
		return nil, &ValidationError{Reason: "email is required"}
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, &ValidationError{Reason: fmt.Sprintf("%s is not a valid email", email)}
	}
	if len(password) < minPasswordLength {
		return nil, &ValidationError{Reason: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}

	// the only place a password is ever hashed: the field is being newly set
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

// GenerateAuthToken issues a signed token for the user and records it in
// the stored token set. The append is a single insert, so concurrent
// logins each keep their own token.
func (s *userService) GenerateAuthToken(ctx context.Context, user *domain.User) (string, error) {
	token, err := s.codec.Issue(user.ID, domain.AccessAuth)
	if err != nil {
		return "", err
	}

	if err := s.users.AddToken(ctx, user.ID, domain.UserToken{Access: domain.AccessAuth, Token: token}); err != nil {
		return "", err
	}
	return token, nil
}

// FindByToken resolves a raw token to its user. The signature check runs
// first and fails without touching the directory; the directory lookup
// then requires the exact token to still be in the user's stored set,
// which is what makes logout effective.
func (s *userService) FindByToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Access != domain.AccessAuth {
		return nil, auth.ErrInvalidToken
	}

	user, err := s.users.GetByIDAndToken(ctx, claims.UserID, token, domain.AccessAuth)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) RemoveToken(ctx context.Context, user *domain.User, token string) error {
	return s.users.RemoveToken(ctx, user.ID, token)
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// sanitizeUser strips the credential and token set before anything
// leaves the service; only id and email are ever serialized outward.
func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
