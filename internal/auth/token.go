package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pizzashop/order-service/internal/domain"
)

// TokenManager signs and verifies session tokens. Tokens carry no
// expiry; validity is governed by presence in the credential store.
type TokenManager struct {
	secret []byte
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// RoleClaim is the wire form of a role grant inside a token.
type RoleClaim struct {
	Role     domain.Role `json:"role"`
	ObjectID int64       `json:"objectId,omitempty"`
}

// Claims describes the JWT payload: a plain snapshot of the identity.
type Claims struct {
	UserID int64       `json:"id"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Roles  []RoleClaim `json:"roles"`
	jwt.RegisteredClaims
}

// User reconstructs the identity embedded in the claims.
func (c *Claims) User() *domain.User {
	user := &domain.User{
		ID:    c.UserID,
		Name:  c.Name,
		Email: c.Email,
		Roles: make([]domain.RoleGrant, 0, len(c.Roles)),
	}
	for _, claim := range c.Roles {
		user.Roles = append(user.Roles, domain.RoleGrant{Role: claim.Role, ObjectID: claim.ObjectID})
	}
	return user
}

// GenerateToken builds and signs a JWT embedding the user snapshot.
func (tm *TokenManager) GenerateToken(user *domain.User) (string, error) {
	roles := make([]RoleClaim, 0, len(user.Roles))
	for _, grant := range user.Roles {
		roles = append(roles, RoleClaim{Role: grant.Role, ObjectID: grant.ObjectID})
	}

	claims := &Claims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Roles:  roles,
		// A unique jti guarantees distinct token strings per issuance,
		// so revoking one session never touches another.
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// ParseToken verifies the signature and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
