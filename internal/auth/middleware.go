package auth

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pizzashop/order-service/internal/domain"
	"github.com/pizzashop/order-service/internal/observability"
	apperrors "github.com/pizzashop/order-service/pkg/util"
)

const principalKey = "auth_user"

// Middleware is the two-stage authorization guard: an optional
// token-resolution stage followed by per-route requirement stages.
type Middleware struct {
	sessions  *SessionManager
	telemetry *observability.Telemetry
}

// NewMiddleware constructs the guard.
func NewMiddleware(sessions *SessionManager, telemetry *observability.Telemetry) *Middleware {
	return &Middleware{sessions: sessions, telemetry: telemetry}
}

// WithUser resolves the bearer token into a principal when one is
// present and valid. It never rejects; routes decide whether an
// authenticated identity is required.
func (m *Middleware) WithUser(c *fiber.Ctx) error {
	token := readBearerToken(c)
	if token != "" {
		if user, ok := m.sessions.Validate(c.UserContext(), token); ok {
			c.Locals(principalKey, user)
		}
	}
	return c.Next()
}

// RequireAuth rejects requests that did not resolve an identity.
func (m *Middleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := UserFromContext(c); !ok {
			return apperrors.NewUnauthorized("unauthorized")
		}
		return c.Next()
	}
}

// RequireRole rejects authenticated callers lacking the role.
func (m *Middleware) RequireRole(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("unauthorized")
		}
		if !HasRole(user, role) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireSelfOrAdmin enforces the ownership rule: the acting identity
// must match the route parameter or hold the admin role.
func (m *Middleware) RequireSelfOrAdmin(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("unauthorized")
		}
		targetID, err := strconv.ParseInt(c.Params(param), 10, 64)
		if err != nil {
			return apperrors.NewValidationError("invalid "+param, nil)
		}
		if user.ID != targetID && !HasRole(user, domain.RoleAdmin) {
			m.telemetry.RecordAuth(false)
			return apperrors.NewForbidden("unauthorized")
		}
		m.telemetry.RecordAuth(true)
		return c.Next()
	}
}

// UserFromContext retrieves the authenticated identity, if any.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}

// ReadBearerToken extracts the raw token from the Authorization header.
func ReadBearerToken(c *fiber.Ctx) string {
	return readBearerToken(c)
}

func readBearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
