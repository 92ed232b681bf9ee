package domain

import "time"

// Role enumerates the grants a user may hold.
type Role string

const (
	RoleDiner      Role = "diner"
	RoleFranchisee Role = "franchisee"
	RoleAdmin      Role = "admin"
)

// RoleGrant attaches a role to a user, optionally scoped to an object
// such as the franchise a franchisee administers.
type RoleGrant struct {
	Role     Role
	ObjectID int64
}

// User is the domain model for registered identities.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Roles        []RoleGrant
	CreatedAt    time.Time
}
