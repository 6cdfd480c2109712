package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/fairshare/internal/auth"
	"github.com/mmynk/fairshare/internal/models"
)

// AuthService handles account creation and passwordless sign-in.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

// SignInResult is a signed-in user and their session token.
type SignInResult struct {
	User  models.User
	Token string
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, email, name string) (models.User, error) {
	s.logger.Info("Register request", "email", email)

	user, err := s.authenticator.Register(ctx, email, name)
	if err != nil {
		s.logger.Warn("Registration failed", "email", email, "error", err)
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			return models.User{}, connect.NewError(connect.CodeAlreadyExists, err)
		case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrInvalidName):
			return models.User{}, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return models.User{}, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User registered successfully", "email", user.Email)
	return *user, nil
}

// SignIn authenticates by email alone and issues a session token.
func (s *AuthService) SignIn(ctx context.Context, email string) (SignInResult, error) {
	s.logger.Info("SignIn request", "email", email)

	user, err := s.authenticator.Authenticate(ctx, email)
	if err != nil {
		s.logger.Warn("SignIn failed", "email", email, "error", err)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return SignInResult{}, connect.NewError(connect.CodeUnauthenticated, err)
		}
		return SignInResult{}, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "email", user.Email, "error", err)
		return SignInResult{}, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("User signed in successfully", "email", user.Email)
	return SignInResult{User: *user, Token: token}, nil
}
