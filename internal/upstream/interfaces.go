package upstream

import (
	"context"
	"time"

	"ordersync/internal/domain"
)

// ProgressFunc is invoked after every fetched page.
type ProgressFunc func(page, fetched, total int)

type ClientInterface interface {
	FetchOrders(ctx context.Context, start, end time.Time, progress ProgressFunc) ([]domain.Order, error)
	FetchProducts(ctx context.Context) ([]domain.Product, error)
	FetchInventory(ctx context.Context) ([]domain.InventoryRow, error)
	RateLimitCheck(ctx context.Context) error
	RateLimit() domain.RateLimitSnapshot
}

var _ ClientInterface = (*Client)(nil)
