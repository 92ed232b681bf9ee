package domain

// Franchise groups stores under a set of administering users.
// Stores are owned exclusively by their franchise: deleting the
// franchise removes them as well.
type Franchise struct {
	ID     int64
	Name   string
	Admins []User
	Stores []Store
}

// Store is a single location belonging to a franchise.
type Store struct {
	ID          int64
	FranchiseID int64
	Name        string
}
