package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/auth"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/service"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/health"
	"github.com/Mdsakib999/cloud-kitchen-server/pkg/middleware"
)

// Services bundles the application services the router exposes.
type Services struct {
	Auth       *service.AuthService
	Users      *service.UserService
	Categories *service.CategoryService
	Products   *service.ProductService
	Coupons    *service.CouponService
	Orders     *service.OrderService
	Trending   *service.TrendingService
	Reviews    *service.ReviewService
	Promotions *service.PromotionService
	Blogs      *service.BlogService
}

// NewRouter creates a chi router with all API routes registered.
func NewRouter(
	svcs Services,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	pprofCIDRs []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("cloud-kitchen"))
	r.Use(middleware.Tracing("cloud-kitchen"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, pprofCIDRs, logger)

	authn := middleware.Auth(tokenValidator(jwtManager))
	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	storedAdmin := requireStoredAdmin(svcs.Auth, logger)

	authHandler := NewAuthHandler(svcs.Auth, logger)
	userHandler := NewUserHandler(svcs.Users, logger)
	categoryHandler := NewCategoryHandler(svcs.Categories, logger)
	productHandler := NewProductHandler(svcs.Products, logger)
	couponHandler := NewCouponHandler(svcs.Coupons, logger)
	orderHandler := NewOrderHandler(svcs.Orders, logger)
	trendingHandler := NewTrendingHandler(svcs.Trending, logger)
	reviewHandler := NewReviewHandler(svcs.Reviews, logger)
	promotionHandler := NewPromotionHandler(svcs.Promotions, logger)
	blogHandler := NewBlogHandler(svcs.Blogs, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/auth", func(r chi.Router) {
			// Credential endpoints get a per-IP rate limit to slow down
			// brute-force attempts.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(5, 10, logger))
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/federated", authHandler.FederatedLogin)
				r.Post("/refresh", authHandler.Refresh)
			})

			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authn)

			// Ownership is enforced in the handler so admins can edit and
			// delete any account.
			r.Put("/{id}", userHandler.UpdateProfile)
			r.Delete("/{id}", userHandler.DeleteUser)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly, storedAdmin)
				r.Get("/", userHandler.ListUsers)
				r.Put("/{id}/make-admin", userHandler.MakeAdmin)
				r.Put("/{id}/remove-admin", userHandler.RemoveAdmin)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.ListCategories)
			r.Get("/{id}", categoryHandler.GetCategory)

			r.Group(func(r chi.Router) {
				r.Use(authn, adminOnly, storedAdmin)
				r.Post("/", categoryHandler.CreateCategory)
				r.Put("/{id}", categoryHandler.UpdateCategory)
				r.Delete("/{id}", categoryHandler.DeleteCategory)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.With(middleware.CacheControl(60)).Get("/trending", trendingHandler.Trending)
			r.Get("/{id}", productHandler.GetProduct)
			r.Get("/{id}/reviews", reviewHandler.ListProductReviews)

			r.Group(func(r chi.Router) {
				r.Use(authn, adminOnly, storedAdmin)
				r.Post("/", productHandler.CreateProduct)
				r.Put("/{id}", productHandler.UpdateProduct)
				r.Delete("/{id}", productHandler.DeleteProduct)
			})
		})

		r.Route("/coupons", func(r chi.Router) {
			r.With(authn).Post("/validate", couponHandler.ValidateCoupon)

			r.Group(func(r chi.Router) {
				r.Use(authn, adminOnly, storedAdmin)
				r.Post("/", couponHandler.CreateCoupon)
				r.Get("/", couponHandler.ListCoupons)
				r.Put("/{code}", couponHandler.UpdateCoupon)
				r.Delete("/{id}", couponHandler.DeleteCoupon)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(authn)

			r.Post("/", orderHandler.PlaceOrder)
			r.Get("/mine", orderHandler.ListMyOrders)
			r.Get("/{id}", orderHandler.GetOrder)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly, storedAdmin)
				r.Get("/", orderHandler.ListOrders)
				r.Put("/{id}/deliver", orderHandler.DeliverOrder)
				r.Delete("/{id}", orderHandler.DeleteOrder)
			})
		})

		r.With(authn).Post("/reviews", reviewHandler.SubmitReview)

		r.Route("/promotions", func(r chi.Router) {
			r.Get("/", promotionHandler.GetPromotion)
			r.With(authn, adminOnly, storedAdmin).Put("/", promotionHandler.ReplacePromotion)
		})

		r.Route("/blogs", func(r chi.Router) {
			r.Get("/", blogHandler.ListBlogs)
			r.Get("/{id}", blogHandler.GetBlog)

			r.Group(func(r chi.Router) {
				r.Use(authn, adminOnly, storedAdmin)
				r.Post("/", blogHandler.CreateBlog)
				r.Put("/{id}", blogHandler.UpdateBlog)
				r.Delete("/{id}", blogHandler.DeleteBlog)
			})
		})
	})

	return r
}

// tokenValidator adapts the JWT manager to the auth middleware contract.
func tokenValidator(m *auth.JWTManager) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		claims, err := m.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}
}
