package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ordersync/internal/domain"
	"ordersync/internal/repository"
)

const insertBatchSize = 100

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepo{db: db}
}

// ReplaceRange deletes every order completed within [start, end] together
// with its line items, then inserts the fresh set. Items are deleted
// before their orders and inserted after them, all in one transaction, so
// readers never observe an order without its items.
func (r *orderRepo) ReplaceRange(ctx context.Context, start, end string, orders []domain.Order) error {
	orders = dedupeByID(orders)

	var items []domain.OrderItem
	for _, order := range orders {
		for _, item := range order.Items {
			item.ID = 0
			item.OrderID = order.OrderID
			items = append(items, item)
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inRange := tx.Model(&domain.Order{}).Select("order_id").
			Where("completed_date BETWEEN ? AND ?", start, end)
		if err := tx.Where("order_id IN (?)", inRange).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("completed_date BETWEEN ? AND ?", start, end).Delete(&domain.Order{}).Error; err != nil {
			return err
		}

		if len(orders) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).
				CreateInBatches(orders, insertBatchSize).Error; err != nil {
				return err
			}
		}
		if len(items) > 0 {
			if err := tx.CreateInBatches(items, insertBatchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// dedupeByID keeps the last occurrence of each order id, matching
// replace-on-conflict semantics when a fetch yields the same order twice.
func dedupeByID(orders []domain.Order) []domain.Order {
	seen := make(map[string]int, len(orders))
	out := orders[:0]
	for _, order := range orders {
		if i, ok := seen[order.OrderID]; ok {
			out[i] = order
			continue
		}
		seen[order.OrderID] = len(out)
		out = append(out, order)
	}
	return out
}

func (r *orderRepo) FindByRange(ctx context.Context, start, end string) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.WithContext(ctx).
		Where("completed_date BETWEEN ? AND ?", start, end).
		Order("completed_date DESC").
		Find(&out).Error
	return out, err
}

func (r *orderRepo) FindItemsByOrderID(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	var out []domain.OrderItem
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&out).Error
	return out, err
}

func (r *orderRepo) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Order{}).Count(&n).Error
	return n, err
}

func (r *orderRepo) CountItems(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.OrderItem{}).Count(&n).Error
	return n, err
}

func (r *orderRepo) LatestCompletedDate(ctx context.Context) (string, error) {
	var latest *string
	err := r.db.WithContext(ctx).Model(&domain.Order{}).
		Select("MAX(completed_date)").Scan(&latest).Error
	if err != nil || latest == nil {
		return "", err
	}
	return *latest, nil
}
