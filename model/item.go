package model

import "time"

const (
	ItemOnSale   = "on_sale"
	ItemReserved = "reserved" // Held by a pending transaction
	ItemSold     = "sold"
	ItemDeleted  = "deleted"
)

type Item struct {
	ID          string    `json:"id" db:"id"`
	SellerID    string    `json:"seller_id" db:"seller_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	CategoryID  string    `json:"category_id" db:"category_id"`
	ConditionID string    `json:"condition_id" db:"condition_id"`
	LocationID  *string   `json:"location_id,omitempty" db:"location_id"`
	BasePrice   float64   `json:"base_price" db:"base_price"`
	Price       float64   `json:"price" db:"price"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	Status      string    `json:"status" db:"status"`
	BuyerID     *string   `json:"buyer_id,omitempty" db:"buyer_id"`
	ViewsCount  int       `json:"views_count" db:"views_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type ItemFilter struct {
	CategoryID  string
	ConditionID string
	LocationID  string
	SellerID    string
	Status      string
	Query       string
	MinPrice    *float64
	MaxPrice    *float64
	Limit       int
	Offset      int
}

// PriceSuggestion is returned by the AI assistant.
type PriceSuggestion struct {
	CategoryID   string  `json:"category_id"`
	CategorySlug string  `json:"category_slug"`
	BasePrice    float64 `json:"base_price"`
	Price        float64 `json:"price"`
	Reasoning    string  `json:"reasoning"`
	Source       string  `json:"source"` // ai, heuristic
}
