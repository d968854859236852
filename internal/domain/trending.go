package domain

// Trending period constants.
const (
	TrendingPeriodDaily   = "daily"
	TrendingPeriodWeekly  = "weekly"
	TrendingPeriodMonthly = "monthly"
)

// ProductSales holds aggregated sales figures for one product over a window.
type ProductSales struct {
	ProductID string  `json:"product_id"`
	Units     int     `json:"units"`
	Revenue   float64 `json:"revenue"`
}

// TrendingProduct is one entry of the trending ranking, joined with live
// catalog data.
type TrendingProduct struct {
	ProductID     string  `json:"product_id"`
	Title         string  `json:"title"`
	CategoryName  string  `json:"category_name,omitempty"`
	Image         *Image  `json:"image,omitempty"`
	Rating        float64 `json:"rating"`
	Units         int     `json:"units"`
	Revenue       float64 `json:"revenue"`
	ChangePercent int     `json:"change_percent"`
	TrendingUp    bool    `json:"trending_up"`
}

// IsValidTrendingPeriod checks whether the given period string is supported.
func IsValidTrendingPeriod(p string) bool {
	switch p {
	case TrendingPeriodDaily, TrendingPeriodWeekly, TrendingPeriodMonthly:
		return true
	}
	return false
}
