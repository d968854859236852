package domain

import "time"

// Payment method constants.
const (
	PaymentMethodCash = "cash"
	PaymentMethodCard = "card"
)

// Order represents a customer order. Items carry denormalized product
// snapshots so an order is unaffected by later catalog changes.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	Name            string      `json:"name"`
	Phone           string      `json:"phone"`
	Country         string      `json:"country"`
	Address         string      `json:"address"`
	City            string      `json:"city"`
	AdditionalInfo  string      `json:"additional_info,omitempty"`
	Items           []OrderItem `json:"items"`
	TotalPrice      float64     `json:"total_price"`
	DiscountPrice   float64     `json:"discount_price"`
	CouponCode      string      `json:"coupon_code,omitempty"`
	IsCouponApplied bool        `json:"is_coupon_applied"`
	PaymentMethod   string      `json:"payment_method"`
	IsPaid          bool        `json:"is_paid"`
	IsDelivered     bool        `json:"is_delivered"`
	DeliveredAt     *time.Time  `json:"delivered_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderItem is a denormalized snapshot of one ordered product.
type OrderItem struct {
	ID        string       `json:"id"`
	OrderID   string       `json:"order_id"`
	ProductID string       `json:"product_id"`
	Name      string       `json:"name"`
	Quantity  int          `json:"quantity"`
	UnitPrice float64      `json:"unit_price"`
	Addons    []OrderAddon `json:"addons,omitempty"`
}

// OrderAddon is an extra applied to an order item.
type OrderAddon struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// ValidPaymentMethods returns the set of accepted payment methods.
func ValidPaymentMethods() []string {
	return []string{PaymentMethodCash, PaymentMethodCard}
}

// IsValidPaymentMethod checks if a payment method string is accepted.
func IsValidPaymentMethod(m string) bool {
	for _, v := range ValidPaymentMethods() {
		if v == m {
			return true
		}
	}
	return false
}

// MarkDelivered flags the order as delivered at the given time.
func (o *Order) MarkDelivered(at time.Time) {
	o.IsDelivered = true
	o.DeliveredAt = &at
}
