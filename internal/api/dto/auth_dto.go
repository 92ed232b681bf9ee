package dto

import "github.com/pizzashop/order-service/internal/domain"

// RegisterRequest payload for new users.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest payload for self-or-admin user updates.
type UpdateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RoleResponse is the wire form of one role grant.
type RoleResponse struct {
	Role     domain.Role `json:"role"`
	ObjectID int64       `json:"objectId,omitempty"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID    int64          `json:"id"`
	Name  string         `json:"name"`
	Email string         `json:"email"`
	Roles []RoleResponse `json:"roles"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	roles := make([]RoleResponse, 0, len(user.Roles))
	for _, grant := range user.Roles {
		roles = append(roles, RoleResponse{Role: grant.Role, ObjectID: grant.ObjectID})
	}
	return UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Roles: roles,
	}
}
