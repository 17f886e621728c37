package repository

import (
	"context"

	"ordersync/internal/domain"
)

// OrderRepository persists orders and their line items. Orders passed to
// ReplaceRange carry their items; the write replaces everything in the
// date range atomically so replaying a refresh is idempotent.
type OrderRepository interface {
	ReplaceRange(ctx context.Context, start, end string, orders []domain.Order) error
	FindByRange(ctx context.Context, start, end string) ([]domain.Order, error)
	FindItemsByOrderID(ctx context.Context, orderID string) ([]domain.OrderItem, error)
	CountOrders(ctx context.Context) (int64, error)
	CountItems(ctx context.Context) (int64, error)
	LatestCompletedDate(ctx context.Context) (string, error)
}

type ProductRepository interface {
	Upsert(ctx context.Context, products []domain.Product) error
	ReplaceAll(ctx context.Context, products []domain.Product) error
	FindAll(ctx context.Context) ([]domain.Product, error)
	Count(ctx context.Context) (int64, error)
}

// InventoryRepository rebuilds the whole table on refresh: upstream only
// returns full snapshots and rows have no stable identity.
type InventoryRepository interface {
	Rebuild(ctx context.Context, inventory []domain.InventoryRow) error
	FindAll(ctx context.Context) ([]domain.InventoryRow, error)
	Count(ctx context.Context) (int64, error)
}

// StatusRepository is the persistent key-value ledger polled by external
// callers.
type StatusRepository interface {
	Set(ctx context.Context, values map[string]string) error
	All(ctx context.Context) (map[string]string, error)
}
