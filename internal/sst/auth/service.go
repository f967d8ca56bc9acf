package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	e "github.com/globalled/sst/internal/sst/errors"
	"github.com/globalled/sst/internal/sst/models"
	"go.uber.org/zap"
)

// UserStore is the slice of the repository the authenticator needs.
type UserStore interface {
	GetActiveUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetActiveUser(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (uint, error)
}

// Service authenticates users and resolves the identity of token holders.
type Service struct {
	users  UserStore
	secret string
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewService constructs a Service signing tokens with secret for ttl.
// A non-positive ttl falls back to DefaultTokenTTL.
func NewService(users UserStore, secret string, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{
		users:  users,
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
		logger: logger.Named("auth_service"),
	}
}

// Authenticate verifies email and secret against an active user and issues
// a token. Every kind of rejection yields the same ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, secret string) (*models.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || secret == "" {
		return nil, e.ErrInvalidCredentials
	}

	user, err := s.users.GetActiveUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			burnVerify(secret)
			return nil, e.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := VerifyPassword(user.PasswordHash, secret); err != nil {
		s.logger.Info("Rejected login", zap.Uint("user_id", user.ID))
		return nil, e.ErrInvalidCredentials
	}

	token, err := GenerateToken(user.ID, string(user.Role), s.secret, s.now(), s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &models.Session{Token: token, User: user.Profile()}, nil
}

// CurrentUser returns the public profile of the actor bound to ctx.
func (s *Service) CurrentUser(ctx context.Context) (*models.PublicProfile, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, e.ErrUnauthenticated
	}

	user, err := s.users.GetActiveUser(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer active", e.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	profile := user.Profile()
	return &profile, nil
}

// Register creates an active user with a bcrypt hash of secret.
func (s *Service) Register(ctx context.Context, name, email, secret string, role models.Role) (uint, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if strings.TrimSpace(name) == "" || email == "" {
		return 0, fmt.Errorf("%w: name and email are required", e.ErrInvalidInput)
	}
	if role == "" {
		role = models.RoleOperator
	}

	hash, err := HashPassword(secret)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}

	id, err := s.users.CreateUser(ctx, &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("User registered", zap.Uint("user_id", id), zap.String("role", string(role)))
	return id, nil
}
