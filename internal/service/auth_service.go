package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/jobtracker/internal/domain"
	"github.com/yourorg/jobtracker/internal/observability/metrics"
	"github.com/yourorg/jobtracker/internal/security/auth"
)

// UserCache is an optional read-through cache in front of the user store,
// keyed by email. Users are immutable after registration, so cached entries
// can never go stale.
type UserCache interface {
	GetUser(ctx context.Context, email string) (*domain.User, bool)
	SetUser(ctx context.Context, email string, user *domain.User)
}

// AuthService owns the credential lifecycle and the auth gate: registration,
// login and resolving bearer tokens to users.
type AuthService struct {
	users  domain.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager
	cache  UserCache // may be nil
	logger *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users domain.UserRepository,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenManager,
	cache UserCache,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		cache:  cache,
		logger: logger,
	}
}

// Register creates a new user account. Email is stored and compared exactly
// as given (case-sensitive). Payload shape validation happens at the
// handler; this enforces uniqueness and never persists the plaintext.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, domain.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
	}

	// The unique index backstops the existence check under concurrency.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	metrics.ObserveRegistration()
	s.logger.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login verifies credentials and returns a bearer token bound to the user.
// Unknown email and wrong password both return ErrInvalidCredentials; the
// caller must not be able to tell them apart.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Info("login attempt with unknown email", slog.String("email", email))
		metrics.ObserveLogin("failed")
		return "", nil, domain.ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Info("login failed with wrong password", slog.String("email", email))
		metrics.ObserveLogin("failed")
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	metrics.ObserveLogin("ok")
	s.logger.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return token, user, nil
}

// Authenticate resolves an Authorization header value to a user. Any
// failure — missing Bearer scheme, bad token, no matching user — returns
// ErrInvalidToken so the outward response is uniform.
func (s *AuthService) Authenticate(ctx context.Context, authHeader string) (*domain.User, error) {
	token, err := auth.ExtractBearer(authHeader)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	return s.AuthenticateToken(ctx, token)
}

// AuthenticateToken resolves a raw bearer token to a user.
func (s *AuthService) AuthenticateToken(ctx context.Context, token string) (*domain.User, error) {
	email, err := s.tokens.Verify(token)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	if s.cache != nil {
		if user, ok := s.cache.GetUser(ctx, email); ok {
			return user, nil
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// A valid token whose subject no longer resolves gets the same
		// error as a bad token.
		return nil, domain.ErrInvalidToken
	}

	if s.cache != nil {
		s.cache.SetUser(ctx, email, user)
	}

	return user, nil
}
