package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/pizzashop/order-service/internal/auth"
	"github.com/pizzashop/order-service/internal/domain"
	"github.com/pizzashop/order-service/internal/repository"
	apperrors "github.com/pizzashop/order-service/pkg/util"
)

// FranchiseService manages franchises and their stores.
type FranchiseService struct {
	franchises repository.FranchiseRepository
	users      repository.UserRepository
	logger     *zap.Logger
}

// FranchiseDependencies bundles the service's collaborators.
type FranchiseDependencies struct {
	FranchiseRepo repository.FranchiseRepository
	UserRepo      repository.UserRepository
	Logger        *zap.Logger
}

// NewFranchiseService builds the service.
func NewFranchiseService(deps FranchiseDependencies) *FranchiseService {
	return &FranchiseService{
		franchises: deps.FranchiseRepo,
		users:      deps.UserRepo,
		logger:     deps.Logger,
	}
}

// List returns all franchises with their stores and admins.
func (s *FranchiseService) List(ctx context.Context) ([]domain.Franchise, error) {
	return s.franchises.List(ctx)
}

// ListForUser returns the franchises the user administers.
func (s *FranchiseService) ListForUser(ctx context.Context, userID int64) ([]domain.Franchise, error) {
	return s.franchises.ListForUser(ctx, userID)
}

// Create registers a franchise and grants each listed admin a
// franchisee role on it. Unknown admin emails fail the whole call.
func (s *FranchiseService) Create(ctx context.Context, name string, adminEmails []string) (*domain.Franchise, error) {
	if name == "" {
		return nil, apperrors.NewValidationError("franchise name required", nil)
	}

	admins := make([]domain.User, 0, len(adminEmails))
	for _, email := range adminEmails {
		user, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
			}
			return nil, err
		}
		admins = append(admins, *user)
	}

	franchise := &domain.Franchise{Name: name, Admins: admins}
	if err := s.franchises.Create(ctx, franchise); err != nil {
		return nil, err
	}

	s.logger.Info("franchise created",
		zap.Int64("franchise_id", franchise.ID),
		zap.String("name", name))
	return franchise, nil
}

// Delete removes a franchise together with its stores and the
// franchisee grants bound to it. Deleting an absent id is not found,
// not success.
func (s *FranchiseService) Delete(ctx context.Context, franchiseID int64) error {
	if err := s.franchises.Delete(ctx, franchiseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("franchise", map[string]any{"franchiseId": franchiseID})
		}
		return err
	}
	s.logger.Info("franchise deleted", zap.Int64("franchise_id", franchiseID))
	return nil
}

// CreateStore adds a store to the franchise. Allowed for global admins
// and for the franchise's own admins.
func (s *FranchiseService) CreateStore(ctx context.Context, actor *domain.User, franchiseID int64, name string) (*domain.Store, error) {
	if name == "" {
		return nil, apperrors.NewValidationError("store name required", nil)
	}

	franchise, err := s.loadAuthorized(ctx, actor, franchiseID)
	if err != nil {
		return nil, err
	}

	store := &domain.Store{FranchiseID: franchise.ID, Name: name}
	if err := s.franchises.CreateStore(ctx, store); err != nil {
		return nil, err
	}

	s.logger.Info("store created",
		zap.Int64("franchise_id", franchise.ID),
		zap.Int64("store_id", store.ID))
	return store, nil
}

// DeleteStore removes a store, subject to the same authorization rule
// as CreateStore.
func (s *FranchiseService) DeleteStore(ctx context.Context, actor *domain.User, franchiseID, storeID int64) error {
	if _, err := s.loadAuthorized(ctx, actor, franchiseID); err != nil {
		return err
	}

	if err := s.franchises.DeleteStore(ctx, franchiseID, storeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("store", map[string]any{"storeId": storeID})
		}
		return err
	}

	s.logger.Info("store deleted",
		zap.Int64("franchise_id", franchiseID),
		zap.Int64("store_id", storeID))
	return nil
}

func (s *FranchiseService) loadAuthorized(ctx context.Context, actor *domain.User, franchiseID int64) (*domain.Franchise, error) {
	franchise, err := s.franchises.GetByID(ctx, franchiseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("franchise", map[string]any{"franchiseId": franchiseID})
		}
		return nil, err
	}

	if auth.HasRole(actor, domain.RoleAdmin) || auth.HasObjectRole(actor, domain.RoleFranchisee, franchise.ID) {
		return franchise, nil
	}
	return nil, apperrors.NewForbidden("unable to manage this franchise")
}
