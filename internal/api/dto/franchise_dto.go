package dto

import "github.com/pizzashop/order-service/internal/domain"

// FranchiseAdminRequest references an admin by email.
type FranchiseAdminRequest struct {
	Email string `json:"email"`
}

// CreateFranchiseRequest payload for creating a franchise.
type CreateFranchiseRequest struct {
	Name   string                  `json:"name"`
	Admins []FranchiseAdminRequest `json:"admins"`
}

// CreateStoreRequest payload for adding a store.
type CreateStoreRequest struct {
	Name string `json:"name"`
}

// FranchiseAdminResponse is the public view of a franchise admin.
type FranchiseAdminResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StoreResponse is the public view of a store.
type StoreResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FranchiseResponse is the detailed view of a franchise.
type FranchiseResponse struct {
	ID     int64                    `json:"id"`
	Name   string                   `json:"name"`
	Admins []FranchiseAdminResponse `json:"admins,omitempty"`
	Stores []StoreResponse          `json:"stores"`
}

// NewFranchiseResponse maps a franchise. Admin details are included
// only for privileged callers.
func NewFranchiseResponse(franchise *domain.Franchise, includeAdmins bool) FranchiseResponse {
	stores := make([]StoreResponse, 0, len(franchise.Stores))
	for _, store := range franchise.Stores {
		stores = append(stores, StoreResponse{ID: store.ID, Name: store.Name})
	}

	resp := FranchiseResponse{
		ID:     franchise.ID,
		Name:   franchise.Name,
		Stores: stores,
	}
	if includeAdmins {
		admins := make([]FranchiseAdminResponse, 0, len(franchise.Admins))
		for _, admin := range franchise.Admins {
			admins = append(admins, FranchiseAdminResponse{
				ID:    admin.ID,
				Name:  admin.Name,
				Email: admin.Email,
			})
		}
		resp.Admins = admins
	}
	return resp
}

// NewFranchiseResponses maps a slice of franchises.
func NewFranchiseResponses(franchises []domain.Franchise, includeAdmins bool) []FranchiseResponse {
	out := make([]FranchiseResponse, 0, len(franchises))
	for i := range franchises {
		out = append(out, NewFranchiseResponse(&franchises[i], includeAdmins))
	}
	return out
}
