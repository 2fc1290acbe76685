package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/pushp314/shortlink-backend/internal/database"
	"github.com/pushp314/shortlink-backend/internal/models"
	"github.com/pushp314/shortlink-backend/internal/repository"
	"github.com/pushp314/shortlink-backend/internal/token"
	"github.com/pushp314/shortlink-backend/pkg/apperrors"
	"github.com/pushp314/shortlink-backend/pkg/logger"
)

// AuthService registers users, verifies credentials and manages bearer tokens.
type AuthService struct {
	users     *repository.UserRepository
	tokens    *token.Manager
	blacklist *database.Blacklist
}

func NewAuthService(users *repository.UserRepository, tokens *token.Manager, blacklist *database.Blacklist) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		blacklist: blacklist,
	}
}

// Register creates a new user with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		return nil, apperrors.Internal("Failed to hash password")
	}

	user := &models.User{
		Username:       username,
		Email:          email,
		HashedPassword: string(hashed),
		IsActive:       true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if err == repository.ErrDuplicate {
			logger.Warn().Str("username", username).Msg("Registration failed: username or email taken")
			return nil, apperrors.Conflict("Username already registered")
		}
		logger.Error().Err(err).Msg("Failed to create user")
		return nil, apperrors.Internal("Failed to create user")
	}

	logger.Info().Uint("user_id", user.ID).Str("username", username).Msg("User registered")
	return user, nil
}

// Authenticate returns the user only when the password matches. Unknown
// username and wrong password are indistinguishable to the caller: both
// return nil.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperrors.Internal("Failed to look up user")
	}
	if user == nil {
		return nil, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		logger.Warn().Str("username", username).Msg("Login failed: invalid password")
		return nil, nil
	}
	return user, nil
}

// IssueToken produces a signed bearer token for the user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	tok, err := s.tokens.Generate(user.Username)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate token")
		return "", apperrors.Internal("Failed to generate token")
	}
	return tok, nil
}

// ResolveToken maps a bearer token to its user. Any verification failure,
// revoked jti or missing user yields (nil, nil) so callers can treat the
// request as anonymous.
func (s *AuthService) ResolveToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return nil, nil
	}
	if s.blacklist.IsRevoked(ctx, claims.ID) {
		return nil, nil
	}

	user, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, apperrors.Internal("Failed to look up user")
	}
	if user == nil || !user.IsActive {
		return nil, nil
	}
	return user, nil
}

// RevokeToken blacklists the token's jti for the rest of its lifetime.
// Invalid tokens are ignored: logging out with a dead token is a no-op.
func (s *AuthService) RevokeToken(ctx context.Context, tokenString string) {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return
	}
	ttl := claims.RemainingLife(timeNow())
	if err := s.blacklist.Revoke(ctx, claims.ID, ttl); err != nil {
		logger.Warn().Err(err).Msg("Failed to blacklist token")
	}
}
