package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/pizzashop/order-service/internal/auth"
	"github.com/pizzashop/order-service/internal/domain"
	"github.com/pizzashop/order-service/internal/observability"
	"github.com/pizzashop/order-service/internal/repository"
	apperrors "github.com/pizzashop/order-service/pkg/util"
)

// AuthService coordinates registration, login and session lifecycle.
type AuthService struct {
	users      repository.UserRepository
	sessions   *auth.SessionManager
	telemetry  *observability.Telemetry
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies bundles the service's collaborators.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Sessions   *auth.SessionManager
	Telemetry  *observability.Telemetry
	Logger     *zap.Logger
	BcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		sessions:   deps.Sessions,
		telemetry:  deps.Telemetry,
		logger:     deps.Logger,
		bcryptCost: deps.BcryptCost,
	}
}

// Register creates a new diner account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", apperrors.NewValidationError("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Roles:        []domain.RoleGrant{{Role: domain.RoleDiner}},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return nil, "", err
	}

	s.telemetry.SessionOpened()
	s.logger.Info("user registered",
		zap.Int64("user_id", user.ID),
		zap.String("email", email))
	return user, token, nil
}

// Login authenticates a user and opens a new session. Multiple
// concurrent sessions per user are permitted.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.telemetry.RecordAuth(false)
			s.logger.Warn("login failed", zap.String("email", email))
			return nil, "", apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.telemetry.RecordAuth(false)
		s.logger.Warn("login failed", zap.String("email", email))
		return nil, "", apperrors.NewUnauthorized("invalid credentials")
	}

	token, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return nil, "", err
	}

	s.telemetry.RecordAuth(true)
	s.telemetry.SessionOpened()
	s.logger.Info("login success",
		zap.Int64("user_id", user.ID),
		zap.String("email", email))
	return user, token, nil
}

// Logout revokes the session token. Revoking an already-revoked token
// succeeds as a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return err
	}
	s.telemetry.SessionClosed()
	s.logger.Info("logout success")
	return nil
}

// UpdateUser changes the email and/or password of the target user.
// Ownership is enforced by the authorization guard upstream.
func (s *AuthService) UpdateUser(ctx context.Context, userID int64, email, password string) (*domain.User, error) {
	hash := ""
	if password != "" {
		var err error
		hash, err = auth.HashPassword(password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
	}

	user, err := s.users.Update(ctx, userID, email, hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"userId": userID})
		}
		return nil, err
	}

	s.logger.Info("user updated", zap.Int64("user_id", userID))
	return user, nil
}
