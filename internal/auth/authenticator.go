package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/fairshare/internal/models"
	"github.com/mmynk/fairshare/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("no account for this email")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("email is required")
	ErrInvalidName        = errors.New("name is required")
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping the passwordless flow for another method
// (passwords, magic links, OAuth) without changing the service layer code.
type Authenticator interface {
	// Register creates a new user account with the given email and name.
	Register(ctx context.Context, email, name string) (*models.User, error)

	// Authenticate returns the user registered with email.
	Authenticate(ctx context.Context, email string) (*models.User, error)
}

// UserStorage defines the interface for user persistence operations.
// This allows the authenticator to be independent of the storage implementation.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// PasswordlessAuthenticator signs users in on email match alone.
type PasswordlessAuthenticator struct {
	storage UserStorage
}

// NewPasswordlessAuthenticator creates a new passwordless authenticator.
func NewPasswordlessAuthenticator(storage UserStorage) *PasswordlessAuthenticator {
	return &PasswordlessAuthenticator{storage: storage}
}

// Register creates a new user account. Returns ErrEmailExists if the email
// is already registered.
func (a *PasswordlessAuthenticator) Register(ctx context.Context, email, name string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}

	user := &models.User{Email: email, Name: name}
	if err := a.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate returns the user with a matching email, or
// ErrInvalidCredentials.
func (a *PasswordlessAuthenticator) Authenticate(ctx context.Context, email string) (*models.User, error) {
	user, err := a.storage.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
