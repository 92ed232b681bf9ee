package domain

// MenuItem is a purchasable item. Mutated only by admins.
type MenuItem struct {
	ID          int64
	Title       string
	Description string
	Image       string
	Price       float64
}
