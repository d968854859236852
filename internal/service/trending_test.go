package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Mdsakib999/cloud-kitchen-server/internal/domain"
	"github.com/Mdsakib999/cloud-kitchen-server/internal/repository"
	apperrors "github.com/Mdsakib999/cloud-kitchen-server/pkg/errors"
)

func newTestTrendingService(orders *mockOrderRepository, products *mockProductRepository) *TrendingService {
	svc := NewTrendingService(orders, products, nil, time.Minute, newTestLogger())
	svc.now = func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func cardFor(id, title string) repository.ProductCard {
	return repository.ProductCard{ProductID: id, Title: title, CategoryName: "Burgers", Rating: 4.5}
}

// --- Trending Tests ---

func TestTrending_RanksByUnitsAndCaps(t *testing.T) {
	orders := new(mockOrderRepository)
	products := new(mockProductRepository)
	svc := newTestTrendingService(orders, products)
	ctx := context.Background()

	now := svc.now()
	from := now.Add(-7 * 24 * time.Hour)
	previousFrom := from.Add(-7 * 24 * time.Hour)

	current := []domain.ProductSales{
		{ProductID: "p1", Units: 3, Revenue: 30},
		{ProductID: "p2", Units: 10, Revenue: 100},
		{ProductID: "p3", Units: 7, Revenue: 70},
		{ProductID: "p4", Units: 2, Revenue: 20},
		{ProductID: "p5", Units: 9, Revenue: 90},
		{ProductID: "p6", Units: 5, Revenue: 50},
		{ProductID: "p7", Units: 1, Revenue: 10},
	}
	orders.On("SalesByProduct", ctx, from, now).Return(current, nil)
	orders.On("SalesByProduct", ctx, previousFrom, from).Return([]domain.ProductSales{
		{ProductID: "p2", Units: 5},
		{ProductID: "p5", Units: 12},
	}, nil)

	cards := map[string]repository.ProductCard{
		"p1": cardFor("p1", "One"), "p2": cardFor("p2", "Two"), "p3": cardFor("p3", "Three"),
		"p4": cardFor("p4", "Four"), "p5": cardFor("p5", "Five"), "p6": cardFor("p6", "Six"),
	}
	products.On("GetCards", ctx, []string{"p2", "p5", "p3", "p6", "p1", "p4"}).Return(cards, nil)

	result, err := svc.Trending(ctx, domain.TrendingPeriodWeekly)

	require.NoError(t, err)
	require.Len(t, result, 6) // p7 falls outside the cap
	assert.Equal(t, "p2", result[0].ProductID)
	assert.Equal(t, "p5", result[1].ProductID)
	assert.Equal(t, 10, result[0].Units)

	// p2: 5 -> 10 is a 100% rise; p5: 12 -> 9 is a 25% fall.
	assert.Equal(t, 100, result[0].ChangePercent)
	assert.True(t, result[0].TrendingUp)
	assert.Equal(t, 25, result[1].ChangePercent)
	assert.False(t, result[1].TrendingUp)

	// p1 had no prior sales: counted as a 100% rise.
	p1 := result[4]
	assert.Equal(t, "p1", p1.ProductID)
	assert.Equal(t, 100, p1.ChangePercent)
	assert.True(t, p1.TrendingUp)
}

func TestTrending_DropsRemovedProducts(t *testing.T) {
	orders := new(mockOrderRepository)
	products := new(mockProductRepository)
	svc := newTestTrendingService(orders, products)
	ctx := context.Background()

	orders.On("SalesByProduct", ctx, mock.Anything, mock.Anything).Return([]domain.ProductSales{
		{ProductID: "p1", Units: 5},
		{ProductID: "p-gone", Units: 4},
	}, nil).Once()
	orders.On("SalesByProduct", ctx, mock.Anything, mock.Anything).Return([]domain.ProductSales{}, nil).Once()

	// p-gone is no longer in the catalog.
	products.On("GetCards", ctx, []string{"p1", "p-gone"}).Return(map[string]repository.ProductCard{
		"p1": cardFor("p1", "One"),
	}, nil)

	result, err := svc.Trending(ctx, domain.TrendingPeriodDaily)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "p1", result[0].ProductID)
}

func TestTrending_DefaultsToWeekly(t *testing.T) {
	orders := new(mockOrderRepository)
	products := new(mockProductRepository)
	svc := newTestTrendingService(orders, products)
	ctx := context.Background()

	now := svc.now()
	from := now.Add(-7 * 24 * time.Hour)
	previousFrom := from.Add(-7 * 24 * time.Hour)

	orders.On("SalesByProduct", ctx, from, now).Return([]domain.ProductSales{}, nil)
	orders.On("SalesByProduct", ctx, previousFrom, from).Return([]domain.ProductSales{}, nil)

	result, err := svc.Trending(ctx, "")

	require.NoError(t, err)
	assert.Empty(t, result)
	orders.AssertExpectations(t)
}

func TestTrending_InvalidPeriod(t *testing.T) {
	svc := newTestTrendingService(new(mockOrderRepository), new(mockProductRepository))

	result, err := svc.Trending(context.Background(), "hourly")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- changePercent Tests ---

func TestChangePercent(t *testing.T) {
	assert.Equal(t, 100.0, changePercent(0, 5))
	assert.Equal(t, 0.0, changePercent(0, 0))
	assert.Equal(t, 100.0, changePercent(5, 10))
	assert.Equal(t, -50.0, changePercent(10, 5))
	assert.Equal(t, -100.0, changePercent(10, 0))
}
