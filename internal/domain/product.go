package domain

import (
	"time"
)

// Option selection type constants.
const (
	OptionTypeSingle   = "single"
	OptionTypeMultiple = "multiple"
)

// Image is a hosted asset reference. AssetID is the host-side identifier
// needed to release the asset later.
type Image struct {
	URL     string `json:"url"`
	AssetID string `json:"asset_id"`
}

// Choice is a priced selection such as a size or an addon.
type Choice struct {
	Label         string   `json:"label"`
	Price         float64  `json:"price"`
	DiscountPrice *float64 `json:"discount_price,omitempty"`
}

// OptionGroup is a named group of choices on a product.
type OptionGroup struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Choices  []Choice `json:"choices"`
}

// Product represents a menu item in the catalog. Rating and ReviewCount are
// derived values maintained by the review aggregator, never written directly.
type Product struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	LongDescription string        `json:"long_description,omitempty"`
	CategoryID      string        `json:"category_id"`
	Images          []Image       `json:"images"`
	Sizes           []Choice      `json:"sizes,omitempty"`
	Addons          []Choice      `json:"addons,omitempty"`
	Options         []OptionGroup `json:"options,omitempty"`
	Ingredients     []string      `json:"ingredients,omitempty"`
	CookTime        string        `json:"cook_time,omitempty"`
	Servings        int           `json:"servings,omitempty"`
	Rating          float64       `json:"rating"`
	ReviewCount     int           `json:"review_count"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// IsValidOptionType checks whether the given option group type is valid.
func IsValidOptionType(t string) bool {
	return t == OptionTypeSingle || t == OptionTypeMultiple
}
