package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	pkgkafka "github.com/Mdsakib999/cloud-kitchen-server/pkg/kafka"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/logger"
)

// Kafka topic constants for kitchen domain events.
const (
	TopicOrderCreated    = "kitchen.order.created"
	TopicOrderDelivered  = "kitchen.order.delivered"
	TopicCouponRedeemed  = "kitchen.coupon.redeemed"
	TopicReviewSubmitted = "kitchen.review.submitted"
	TopicProductCreated  = "kitchen.product.created"
	TopicProductUpdated  = "kitchen.product.updated"
	TopicProductDeleted  = "kitchen.product.deleted"
	TopicUserRegistered  = "kitchen.user.registered"
)

// Aggregate type constants.
const (
	AggregateTypeOrder   = "order"
	AggregateTypeCoupon  = "coupon"
	AggregateTypeReview  = "review"
	AggregateTypeProduct = "product"
	AggregateTypeUser    = "user"
)

// Source identifier for events originating from this server.
const SourceKitchenServer = "cloud-kitchen-server"

// OrderCreatedData is the payload for an order.created event (full order snapshot).
type OrderCreatedData struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []OrderItemData `json:"items"`
	TotalPrice      float64         `json:"total_price"`
	DiscountPrice   float64         `json:"discount_price"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	IsCouponApplied bool            `json:"is_coupon_applied"`
	PaymentMethod   string          `json:"payment_method"`
	IsPaid          bool            `json:"is_paid"`
	City            string          `json:"city"`
	Country         string          `json:"country"`
}

// OrderItemData is the event payload for an order item.
type OrderItemData struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// OrderDeliveredData is the payload for an order.delivered event.
type OrderDeliveredData struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// CouponRedeemedData is the payload for a coupon.redeemed event.
type CouponRedeemedData struct {
	Code     string  `json:"code"`
	OrderID  string  `json:"order_id"`
	UserID   string  `json:"user_id"`
	Discount float64 `json:"discount"`
}

// ReviewSubmittedData is the payload for a review.submitted event.
type ReviewSubmittedData struct {
	ReviewID  string `json:"review_id"`
	ProductID string `json:"product_id"`
	UserID    string `json:"user_id"`
	Rating    int    `json:"rating"`
}

// ProductChangedData is the payload for product lifecycle events.
type ProductChangedData struct {
	ProductID  string `json:"product_id"`
	Title      string `json:"title"`
	CategoryID string `json:"category_id,omitempty"`
}

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
}

// Producer publishes kitchen domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderCreated publishes an order.created event with the full order snapshot.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	items := make([]OrderItemData, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemData{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	data := OrderCreatedData{
		ID:              order.ID,
		UserID:          order.UserID,
		Items:           items,
		TotalPrice:      order.TotalPrice,
		DiscountPrice:   order.DiscountPrice,
		CouponCode:      order.CouponCode,
		IsCouponApplied: order.IsCouponApplied,
		PaymentMethod:   order.PaymentMethod,
		IsPaid:          order.IsPaid,
		City:            order.City,
		Country:         order.Country,
	}

	return p.publish(ctx, TopicOrderCreated, order.ID, AggregateTypeOrder, data)
}

// PublishOrderDelivered publishes an order.delivered event.
func (p *Producer) PublishOrderDelivered(ctx context.Context, orderID, userID string, deliveredAt time.Time) error {
	data := OrderDeliveredData{
		OrderID:     orderID,
		UserID:      userID,
		DeliveredAt: deliveredAt,
	}
	return p.publish(ctx, TopicOrderDelivered, orderID, AggregateTypeOrder, data)
}

// PublishCouponRedeemed publishes a coupon.redeemed event.
func (p *Producer) PublishCouponRedeemed(ctx context.Context, code, orderID, userID string, discount float64) error {
	data := CouponRedeemedData{
		Code:     code,
		OrderID:  orderID,
		UserID:   userID,
		Discount: discount,
	}
	return p.publish(ctx, TopicCouponRedeemed, code, AggregateTypeCoupon, data)
}

// PublishReviewSubmitted publishes a review.submitted event.
func (p *Producer) PublishReviewSubmitted(ctx context.Context, review *domain.Review) error {
	data := ReviewSubmittedData{
		ReviewID:  review.ID,
		ProductID: review.ProductID,
		UserID:    review.UserID,
		Rating:    review.Rating,
	}
	return p.publish(ctx, TopicReviewSubmitted, review.ProductID, AggregateTypeReview, data)
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publishProductChange(ctx, TopicProductCreated, product)
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publishProductChange(ctx, TopicProductUpdated, product)
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, productID string) error {
	data := ProductChangedData{ProductID: productID}
	return p.publish(ctx, TopicProductDeleted, productID, AggregateTypeProduct, data)
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		UserID:   user.ID,
		Email:    user.Email,
		Provider: user.Provider,
	}
	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, data)
}

func (p *Producer) publishProductChange(ctx context.Context, topic string, product *domain.Product) error {
	data := ProductChangedData{
		ProductID:  product.ID,
		Title:      product.Title,
		CategoryID: product.CategoryID,
	}
	return p.publish(ctx, topic, product.ID, AggregateTypeProduct, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceKitchenServer, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}
