package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/pizzashop/order-service/internal/api/dto"
	"github.com/pizzashop/order-service/internal/auth"
	"github.com/pizzashop/order-service/internal/domain"
	"github.com/pizzashop/order-service/internal/service"
	apperrors "github.com/pizzashop/order-service/pkg/util"
)

// FranchiseHandler exposes franchise and store endpoints.
type FranchiseHandler struct {
	franchises *service.FranchiseService
}

// NewFranchiseHandler constructs handler.
func NewFranchiseHandler(franchiseService *service.FranchiseService) *FranchiseHandler {
	return &FranchiseHandler{franchises: franchiseService}
}

// List handles GET /franchise. Anyone may list; admin detail (franchise
// admins) is included only for admin callers.
func (h *FranchiseHandler) List(c *fiber.Ctx) error {
	franchises, err := h.franchises.List(c.UserContext())
	if err != nil {
		return err
	}

	user, _ := auth.UserFromContext(c)
	includeAdmins := auth.HasRole(user, domain.RoleAdmin)
	return c.JSON(dto.NewFranchiseResponses(franchises, includeAdmins))
}

// ListForUser handles GET /franchise/:userId, guarded self-or-admin.
func (h *FranchiseHandler) ListForUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("userId"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid userId", nil)
	}

	franchises, err := h.franchises.ListForUser(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewFranchiseResponses(franchises, true))
}

// Create handles POST /franchise. Admin-only by route guard.
func (h *FranchiseHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateFranchiseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	emails := make([]string, 0, len(req.Admins))
	for _, admin := range req.Admins {
		emails = append(emails, admin.Email)
	}

	franchise, err := h.franchises.Create(c.UserContext(), req.Name, emails)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewFranchiseResponse(franchise, true))
}

// Delete handles DELETE /franchise/:franchiseId. Admin-only by route
// guard; stores are removed together with the franchise.
func (h *FranchiseHandler) Delete(c *fiber.Ctx) error {
	franchiseID, err := strconv.ParseInt(c.Params("franchiseId"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid franchiseId", nil)
	}

	if err := h.franchises.Delete(c.UserContext(), franchiseID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "franchise deleted"})
}

// CreateStore handles POST /franchise/:franchiseId/store.
func (h *FranchiseHandler) CreateStore(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}

	franchiseID, err := strconv.ParseInt(c.Params("franchiseId"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid franchiseId", nil)
	}

	var req dto.CreateStoreRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	store, err := h.franchises.CreateStore(c.UserContext(), user, franchiseID, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(dto.StoreResponse{ID: store.ID, Name: store.Name})
}

// DeleteStore handles DELETE /franchise/:franchiseId/store/:storeId.
func (h *FranchiseHandler) DeleteStore(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}

	franchiseID, err := strconv.ParseInt(c.Params("franchiseId"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid franchiseId", nil)
	}
	storeID, err := strconv.ParseInt(c.Params("storeId"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid storeId", nil)
	}

	if err := h.franchises.DeleteStore(c.UserContext(), user, franchiseID, storeID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "store deleted"})
}
