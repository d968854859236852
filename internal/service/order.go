package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/event"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/repository"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
)

// OrderService implements order placement and fulfilment.
type OrderService struct {
	repo     repository.OrderRepository
	users    repository.UserRepository
	coupons  *CouponService
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	repo repository.OrderRepository,
	users repository.UserRepository,
	coupons *CouponService,
	producer *event.Producer,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		repo:     repo,
		users:    users,
		coupons:  coupons,
		producer: producer,
		logger:   logger,
	}
}

// PlaceOrderItemInput holds the parameters for one order line item.
type PlaceOrderItemInput struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice float64
	Addons    []domain.OrderAddon
}

// PlaceOrderInput holds the parameters for placing an order.
type PlaceOrderInput struct {
	UserID         string
	Name           string
	Phone          string
	Country        string
	Address        string
	City           string
	AdditionalInfo string
	Items          []PlaceOrderItemInput
	CouponCode     string
	PaymentMethod  string
}

// PlaceOrder validates the checkout payload, applies and redeems the coupon
// when one is given, and persists the order. Card payments are recorded as
// paid immediately; cash settles on delivery.
func (s *OrderService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*domain.Order, error) {
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if input.Name == "" || input.Phone == "" || input.Address == "" || input.City == "" {
		return nil, apperrors.InvalidInput("missing required delivery fields")
	}
	if len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one item")
	}
	if !domain.IsValidPaymentMethod(input.PaymentMethod) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}

	now := time.Now().UTC()
	orderID := uuid.New().String()

	// Build item snapshots and the cart total. Prices arrive from the client
	// and are not re-checked against the catalog.
	var cartTotal float64
	items := make([]domain.OrderItem, len(input.Items))
	for i, itemInput := range input.Items {
		if itemInput.Quantity <= 0 {
			return nil, apperrors.InvalidInput("item quantity must be positive")
		}
		if itemInput.UnitPrice < 0 {
			return nil, apperrors.InvalidInput("item unit_price cannot be negative")
		}
		items[i] = domain.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: itemInput.ProductID,
			Name:      itemInput.Name,
			Quantity:  itemInput.Quantity,
			UnitPrice: itemInput.UnitPrice,
			Addons:    itemInput.Addons,
		}
		cartTotal += itemInput.UnitPrice * float64(itemInput.Quantity)
		for _, addon := range itemInput.Addons {
			cartTotal += addon.Price * float64(addon.Quantity)
		}
	}

	var (
		discount      float64
		couponApplied bool
		couponCode    string
	)
	if input.CouponCode != "" {
		coupon, d, err := s.coupons.ValidateCoupon(ctx, input.CouponCode, cartTotal)
		if err != nil {
			return nil, err
		}

		// The store re-checks the limit inside the redemption UPDATE, so a
		// concurrent last-slot race surfaces here and the order is rejected.
		if err := s.coupons.repo.Redeem(ctx, coupon.Code); err != nil {
			if errors.Is(err, domain.ErrCouponLimitReached) {
				return nil, couponError(err)
			}
			return nil, fmt.Errorf("redeem coupon: %w", err)
		}

		discount = d
		couponApplied = true
		couponCode = coupon.Code
	}

	discountedTotal := cartTotal - discount
	if discountedTotal < 0 {
		discountedTotal = 0
	}

	order := &domain.Order{
		ID:              orderID,
		UserID:          input.UserID,
		Name:            input.Name,
		Phone:           input.Phone,
		Country:         input.Country,
		Address:         input.Address,
		City:            input.City,
		AdditionalInfo:  input.AdditionalInfo,
		Items:           items,
		TotalPrice:      cartTotal,
		DiscountPrice:   discountedTotal,
		CouponCode:      couponCode,
		IsCouponApplied: couponApplied,
		PaymentMethod:   input.PaymentMethod,
		IsPaid:          input.PaymentMethod == domain.PaymentMethodCard,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.recordSpending(ctx, order)

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
	if couponApplied {
		if err := s.producer.PublishCouponRedeemed(ctx, couponCode, order.ID, order.UserID, discount); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish coupon.redeemed event",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
		slog.Float64("total_price", order.TotalPrice),
		slog.Bool("coupon_applied", couponApplied),
	)

	return order, nil
}

// GetOrder retrieves an order by its ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	return order, nil
}

// ListOrders returns a filtered, paginated list of orders.
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	return orders, total, nil
}

// ListUserOrders returns the given user's orders, paginated.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error) {
	return s.ListOrders(ctx, repository.OrderFilter{
		UserID:  &userID,
		Page:    page,
		PerPage: perPage,
	})
}

// MarkDelivered flags the order as delivered now.
func (s *OrderService) MarkDelivered(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for delivery: %w", err)
	}

	if order.IsDelivered {
		return nil, apperrors.Conflict("order is already delivered")
	}

	now := time.Now().UTC()
	if err := s.repo.MarkDelivered(ctx, id, now); err != nil {
		return nil, fmt.Errorf("mark order delivered: %w", err)
	}

	order.MarkDelivered(now)

	if err := s.producer.PublishOrderDelivered(ctx, order.ID, order.UserID, now); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.delivered event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order delivered", slog.String("order_id", order.ID))

	return order, nil
}

// DeleteOrder removes an order and its items.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	s.logger.InfoContext(ctx, "order deleted", slog.String("order_id", id))

	return nil
}

// recordSpending adds the order's charged amount to the user's running
// total. Failures are logged, not surfaced; the order already exists.
func (s *OrderService) recordSpending(ctx context.Context, order *domain.Order) {
	user, err := s.users.GetByID(ctx, order.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load user for spending update",
			slog.String("user_id", order.UserID),
			slog.String("error", err.Error()),
		)
		return
	}

	user.TotalSpent += order.DiscountPrice
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "failed to update user spending",
			slog.String("user_id", order.UserID),
			slog.String("error", err.Error()),
		)
	}
}
