package repository

import (
	"context"
	"time"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByUID retrieves a user by their federated subject identifier.
	GetByUID(ctx context.Context, uid string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// List returns all users, most recently registered first.
	List(ctx context.Context) ([]domain.User, error)

	// Delete removes a user from the store by their identifier.
	Delete(ctx context.Context, id string) error
}

// RefreshTokenRepository defines the interface for refresh token persistence operations.
type RefreshTokenRepository interface {
	// Create stores a new refresh token hash.
	Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// GetByHash retrieves a refresh token record by its hash.
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// Revoke revokes a specific refresh token by its hash.
	Revoke(ctx context.Context, tokenHash string) error

	// RevokeByUserID revokes all refresh tokens for the given user.
	RevokeByUserID(ctx context.Context, userID string) error
}

// CouponRepository defines the interface for coupon persistence operations.
type CouponRepository interface {
	// Create inserts a new coupon into the store.
	Create(ctx context.Context, coupon *domain.Coupon) error

	// GetByCode retrieves a coupon by its code.
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)

	// List returns all coupons, most recently created first.
	List(ctx context.Context) ([]domain.Coupon, error)

	// Update modifies an existing coupon in the store.
	Update(ctx context.Context, coupon *domain.Coupon) error

	// Delete removes a coupon from the store by its identifier.
	Delete(ctx context.Context, id string) error

	// Redeem increments the coupon's used count if and only if the coupon
	// is active and the usage limit has not been reached, deactivating the
	// coupon when the limit is hit. The condition is evaluated by the store
	// in a single statement so concurrent redemptions cannot exceed the
	// limit. Returns domain.ErrCouponLimitReached when no row qualifies.
	Redeem(ctx context.Context, code string) error
}

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	UserID  *string
	Page    int
	PerPage int
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts a new order and its items into the store atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its unique identifier, including items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List returns orders matching the given filter along with the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// MarkDelivered flags the order as delivered at the given time.
	MarkDelivered(ctx context.Context, id string, at time.Time) error

	// Delete removes an order and its items from the store.
	Delete(ctx context.Context, id string) error

	// SalesByProduct aggregates ordered units and revenue per product over
	// the half-open window [from, to).
	SalesByProduct(ctx context.Context, from, to time.Time) ([]domain.ProductSales, error)
}

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	CategoryID *string
	Page       int
	PerPage    int
}

// ProductCard is the subset of live product data joined onto trending results.
type ProductCard struct {
	ProductID    string
	Title        string
	CategoryName string
	Image        *domain.Image
	Rating       float64
}

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create inserts a new product into the store.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns products matching the given filter along with the total count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// Update modifies an existing product in the store.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product from the store by its identifier.
	Delete(ctx context.Context, id string) error

	// UpdateRatingStats writes the derived rating and review count.
	UpdateRatingStats(ctx context.Context, productID string, rating float64, reviewCount int) error

	// GetCards returns live display data for the given product IDs. Missing
	// products are simply absent from the result.
	GetCards(ctx context.Context, ids []string) (map[string]ProductCard, error)
}

// CategoryRepository defines the interface for category persistence operations.
type CategoryRepository interface {
	// Create inserts a new category into the store.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves a category by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Category, error)

	// List returns all categories ordered by name.
	List(ctx context.Context) ([]domain.Category, error)

	// Update modifies an existing category in the store.
	Update(ctx context.Context, category *domain.Category) error

	// Delete removes a category from the store by its identifier.
	Delete(ctx context.Context, id string) error
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Upsert inserts the review or, when one already exists for the same
	// (user, product, order) triple, replaces its rating, title, and comment.
	Upsert(ctx context.Context, review *domain.Review) error

	// Aggregate computes the mean rating and review count for a product.
	// A product with no reviews yields (0, 0, nil).
	Aggregate(ctx context.Context, productID string) (float64, int, error)

	// ListByProduct returns reviews for a product, most recent first, with
	// the total count.
	ListByProduct(ctx context.Context, productID string, page, perPage int) ([]domain.Review, int, error)
}

// PromotionRepository defines the interface for promotion persistence operations.
type PromotionRepository interface {
	// Get returns the active promotion set, or nil when none exists.
	Get(ctx context.Context) (*domain.Promotion, error)

	// Replace swaps the active promotion set for the given one.
	Replace(ctx context.Context, promotion *domain.Promotion) error
}

// BlogRepository defines the interface for blog persistence operations.
type BlogRepository interface {
	// Create inserts a new blog post into the store.
	Create(ctx context.Context, blog *domain.Blog) error

	// GetByID retrieves a blog post by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Blog, error)

	// List returns blog posts, most recent first, with the total count.
	List(ctx context.Context, page, perPage int) ([]domain.Blog, int, error)

	// Update modifies an existing blog post in the store.
	Update(ctx context.Context, blog *domain.Blog) error

	// Delete removes a blog post from the store by its identifier.
	Delete(ctx context.Context, id string) error
}
