package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/repository"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
)

// trendingLimit caps the number of ranked products returned.
const trendingLimit = 6

// TrendingService ranks products by units sold over a rolling window and
// caches the result in Redis for a short TTL.
type TrendingService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewTrendingService creates a new trending service. cache may be nil, in
// which case every call recomputes the ranking.
func NewTrendingService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *TrendingService {
	return &TrendingService{
		orders:   orders,
		products: products,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Trending returns the top products by units sold for the given period,
// joined with live catalog data. Products no longer in the catalog are
// dropped from the result.
func (s *TrendingService) Trending(ctx context.Context, period string) ([]domain.TrendingProduct, error) {
	if period == "" {
		period = domain.TrendingPeriodWeekly
	}
	if !domain.IsValidTrendingPeriod(period) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid period %q, must be daily, weekly or monthly", period))
	}

	if cached, ok := s.fromCache(ctx, period); ok {
		return cached, nil
	}

	result, err := s.compute(ctx, period)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, period, result)

	return result, nil
}

func (s *TrendingService) compute(ctx context.Context, period string) ([]domain.TrendingProduct, error) {
	window := periodWindow(period)
	now := s.now()
	from := now.Add(-window)
	previousFrom := from.Add(-window)

	current, err := s.orders.SalesByProduct(ctx, from, now)
	if err != nil {
		return nil, fmt.Errorf("aggregate current window: %w", err)
	}

	previous, err := s.orders.SalesByProduct(ctx, previousFrom, from)
	if err != nil {
		return nil, fmt.Errorf("aggregate previous window: %w", err)
	}

	previousUnits := make(map[string]int, len(previous))
	for _, p := range previous {
		previousUnits[p.ProductID] = p.Units
	}

	sort.SliceStable(current, func(i, j int) bool {
		if current[i].Units != current[j].Units {
			return current[i].Units > current[j].Units
		}
		return current[i].ProductID < current[j].ProductID
	})
	if len(current) > trendingLimit {
		current = current[:trendingLimit]
	}

	ids := make([]string, len(current))
	for i, sale := range current {
		ids[i] = sale.ProductID
	}

	cards := map[string]repository.ProductCard{}
	if len(ids) > 0 {
		cards, err = s.products.GetCards(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load product cards: %w", err)
		}
	}

	result := make([]domain.TrendingProduct, 0, len(current))
	for _, sale := range current {
		card, ok := cards[sale.ProductID]
		if !ok {
			// Product was removed from the catalog since the sale.
			continue
		}

		change := changePercent(previousUnits[sale.ProductID], sale.Units)

		result = append(result, domain.TrendingProduct{
			ProductID:     sale.ProductID,
			Title:         card.Title,
			CategoryName:  card.CategoryName,
			Image:         card.Image,
			Rating:        card.Rating,
			Units:         sale.Units,
			Revenue:       sale.Revenue,
			ChangePercent: int(math.Abs(math.Round(change))),
			TrendingUp:    change >= 0,
		})
	}

	return result, nil
}

// changePercent computes the percentage change between two window totals.
// A product with no prior sales counts as a 100% rise.
func changePercent(previous, current int) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

func periodWindow(period string) time.Duration {
	switch period {
	case domain.TrendingPeriodDaily:
		return 24 * time.Hour
	case domain.TrendingPeriodMonthly:
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

func trendingCacheKey(period string) string {
	return "trending:" + period
}

// fromCache loads a cached ranking. Cache failures are treated as misses.
func (s *TrendingService) fromCache(ctx context.Context, period string) ([]domain.TrendingProduct, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, trendingCacheKey(period)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.WarnContext(ctx, "trending cache read failed",
				slog.String("period", period),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}

	var result []domain.TrendingProduct
	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.WarnContext(ctx, "trending cache entry corrupt",
			slog.String("period", period),
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	return result, true
}

// toCache stores the ranking. Failures are logged and ignored.
func (s *TrendingService) toCache(ctx context.Context, period string, result []domain.TrendingProduct) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, trendingCacheKey(period), data, s.cacheTTL).Err(); err != nil {
		s.logger.WarnContext(ctx, "trending cache write failed",
			slog.String("period", period),
			slog.String("error", err.Error()),
		)
	}
}
