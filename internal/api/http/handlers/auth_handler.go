package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/pizzashop/order-service/internal/api/dto"
	"github.com/pizzashop/order-service/internal/auth"
	"github.com/pizzashop/order-service/internal/service"
	apperrors "github.com/pizzashop/order-service/pkg/util"
)

// AuthHandler exposes registration, login, logout and user updates.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("name, email, and password are required", nil)
	}

	user, token, err := h.auth.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.AuthResponse{User: dto.NewUserResponse(user), Token: token})
}

// Login handles PUT /auth.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password are required", nil)
	}

	user, token, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.AuthResponse{User: dto.NewUserResponse(user), Token: token})
}

// Logout handles DELETE /auth.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := auth.ReadBearerToken(c)
	if token == "" {
		return apperrors.NewValidationError("no token provided", nil)
	}
	if err := h.auth.Logout(c.UserContext(), token); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "logout successful"})
}

// UpdateUser handles PUT /auth/:userId. Ownership is enforced by the
// self-or-admin guard on the route.
func (h *AuthHandler) UpdateUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("userId"), 10, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid userId", nil)
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.UpdateUser(c.UserContext(), userID, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}
