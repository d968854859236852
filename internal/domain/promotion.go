package domain

import "time"

// MaxPromotionImages caps the number of banner images in the active set.
const MaxPromotionImages = 4

// Promotion is the set of promotional banner images shown on the storefront.
type Promotion struct {
	ID        string    `json:"id"`
	Images    []Image   `json:"images"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
