package auth

import "github.com/pizzashop/order-service/internal/domain"

// HasRole reports whether the user holds the role, ignoring any object
// scoping. A plain set-membership test over the role grants.
func HasRole(user *domain.User, role domain.Role) bool {
	if user == nil {
		return false
	}
	for _, grant := range user.Roles {
		if grant.Role == role {
			return true
		}
	}
	return false
}

// HasObjectRole reports whether the user holds the role scoped to the
// given object, such as a franchisee grant on a specific franchise.
func HasObjectRole(user *domain.User, role domain.Role, objectID int64) bool {
	if user == nil {
		return false
	}
	for _, grant := range user.Roles {
		if grant.Role == role && grant.ObjectID == objectID {
			return true
		}
	}
	return false
}
