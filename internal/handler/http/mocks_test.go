package http

import (
	"context"
	"encoding/json"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/assets"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/auth"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/event"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/repository"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/service"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/health"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/httputil"
	pkgkafka "github.com/Mdsakib999/cloud-kitchen-server/pkg/kafka"
)

// --- Test Environment ---

// testEnv assembles the full production router over mocked repositories so
// handler tests exercise the real route layout and middleware chain.
type testEnv struct {
	users      *mockUserRepository
	tokens     *mockRefreshTokenRepository
	coupons    *mockCouponRepository
	orders     *mockOrderRepository
	products   *mockProductRepository
	categories *mockCategoryRepository
	reviews    *mockReviewRepository
	promotions *mockPromotionRepository
	blogs      *mockBlogRepository

	jwt    *auth.JWTManager
	router stdhttp.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := testLogger()
	producer := testEventProducer()
	store := assets.NewMemoryStore()
	jwtManager := auth.NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)

	env := &testEnv{
		users:      new(mockUserRepository),
		tokens:     new(mockRefreshTokenRepository),
		coupons:    new(mockCouponRepository),
		orders:     new(mockOrderRepository),
		products:   new(mockProductRepository),
		categories: new(mockCategoryRepository),
		reviews:    new(mockReviewRepository),
		promotions: new(mockPromotionRepository),
		blogs:      new(mockBlogRepository),
		jwt:        jwtManager,
	}

	couponService := service.NewCouponService(env.coupons, logger)
	svcs := Services{
		Auth:       service.NewAuthService(env.users, env.tokens, jwtManager, nil, producer, logger),
		Users:      service.NewUserService(env.users, store, logger),
		Categories: service.NewCategoryService(env.categories, store, logger),
		Products:   service.NewProductService(env.products, env.categories, store, producer, logger),
		Coupons:    couponService,
		Orders:     service.NewOrderService(env.orders, env.users, couponService, producer, logger),
		Trending:   service.NewTrendingService(env.orders, env.products, nil, time.Minute, logger),
		Reviews:    service.NewReviewService(env.reviews, env.orders, env.products, producer, logger),
		Promotions: service.NewPromotionService(env.promotions, store, logger),
		Blogs:      service.NewBlogService(env.blogs, store, logger),
	}

	env.router = NewRouter(svcs, jwtManager, health.NewHandler(), logger, nil)

	return env
}

// bearer returns an Authorization header value for a signed access token.
func (e *testEnv) bearer(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := e.jwt.GenerateAccessToken(userID, userID+"@example.com", role)
	require.NoError(t, err)
	return "Bearer " + token
}

// adminBearer returns an admin token and primes the stored-role re-check
// that guards every admin route.
func (e *testEnv) adminBearer(t *testing.T) string {
	t.Helper()
	e.users.On("GetByID", mock.Anything, testAdminID).Return(&domain.User{
		ID:   testAdminID,
		Role: domain.RoleAdmin,
	}, nil)
	return e.bearer(t, testAdminID, domain.RoleAdmin)
}

func (e *testEnv) do(req *stdhttp.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// --- Shared Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEventProducer() *event.Producer {
	logger := testLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

// decodeJSON reads the response body into dst.
func decodeJSON(rec *httptest.ResponseRecorder, dst any) error {
	return json.NewDecoder(rec.Body).Decode(dst)
}

// decodeResponse reads the response body into the httputil.Response struct.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

// --- Mock Repositories ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByUID(ctx context.Context, uid string) (*domain.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockRefreshTokenRepository struct {
	mock.Mock
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) RevokeByUserID(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockCouponRepository struct {
	mock.Mock
}

func (m *mockCouponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	args := m.Called(ctx, coupon)
	return args.Error(0)
}

func (m *mockCouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coupon), args.Error(1)
}

func (m *mockCouponRepository) List(ctx context.Context) ([]domain.Coupon, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Coupon), args.Error(1)
}

func (m *mockCouponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	args := m.Called(ctx, coupon)
	return args.Error(0)
}

func (m *mockCouponRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockCouponRepository) Redeem(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *mockOrderRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOrderRepository) SalesByProduct(ctx context.Context, from, to time.Time) ([]domain.ProductSales, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]domain.ProductSales), args.Error(1)
}

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProductRepository) UpdateRatingStats(ctx context.Context, productID string, rating float64, reviewCount int) error {
	args := m.Called(ctx, productID, rating, reviewCount)
	return args.Error(0)
}

func (m *mockProductRepository) GetCards(ctx context.Context, ids []string) (map[string]repository.ProductCard, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[string]repository.ProductCard), args.Error(1)
}

type mockCategoryRepository struct {
	mock.Mock
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *mockCategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Upsert(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) Aggregate(ctx context.Context, productID string) (float64, int, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) ListByProduct(ctx context.Context, productID string, page, perPage int) ([]domain.Review, int, error) {
	args := m.Called(ctx, productID, page, perPage)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

type mockPromotionRepository struct {
	mock.Mock
}

func (m *mockPromotionRepository) Get(ctx context.Context) (*domain.Promotion, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Promotion), args.Error(1)
}

func (m *mockPromotionRepository) Replace(ctx context.Context, promotion *domain.Promotion) error {
	args := m.Called(ctx, promotion)
	return args.Error(0)
}

type mockBlogRepository struct {
	mock.Mock
}

func (m *mockBlogRepository) Create(ctx context.Context, blog *domain.Blog) error {
	args := m.Called(ctx, blog)
	return args.Error(0)
}

func (m *mockBlogRepository) GetByID(ctx context.Context, id string) (*domain.Blog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Blog), args.Error(1)
}

func (m *mockBlogRepository) List(ctx context.Context, page, perPage int) ([]domain.Blog, int, error) {
	args := m.Called(ctx, page, perPage)
	return args.Get(0).([]domain.Blog), args.Int(1), args.Error(2)
}

func (m *mockBlogRepository) Update(ctx context.Context, blog *domain.Blog) error {
	args := m.Called(ctx, blog)
	return args.Error(0)
}

func (m *mockBlogRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
