package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ordersync/internal/domain"
	"ordersync/internal/repository"
)

type productRepo struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) repository.ProductRepository {
	return &productRepo{db: db}
}

// Upsert replaces matching rows by product id, leaving unrelated
// products untouched. This is the default refresh path.
func (r *productRepo) Upsert(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(products, insertBatchSize).Error
}

func (r *productRepo) ReplaceAll(ctx context.Context, products []domain.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.Product{}).Error; err != nil {
			return err
		}
		if len(products) == 0 {
			return nil
		}
		return tx.CreateInBatches(products, insertBatchSize).Error
	})
}

func (r *productRepo) FindAll(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.WithContext(ctx).Order("sku").Find(&out).Error
	return out, err
}

func (r *productRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Product{}).Count(&n).Error
	return n, err
}

type inventoryRepo struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) repository.InventoryRepository {
	return &inventoryRepo{db: db}
}

// Rebuild drops and reloads the whole table in one transaction.
func (r *inventoryRepo) Rebuild(ctx context.Context, inventory []domain.InventoryRow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.InventoryRow{}).Error; err != nil {
			return err
		}
		if len(inventory) == 0 {
			return nil
		}
		for i := range inventory {
			inventory[i].ID = 0
		}
		return tx.CreateInBatches(inventory, insertBatchSize).Error
	})
}

func (r *inventoryRepo) FindAll(ctx context.Context) ([]domain.InventoryRow, error) {
	var out []domain.InventoryRow
	err := r.db.WithContext(ctx).Order("sku").Find(&out).Error
	return out, err
}

func (r *inventoryRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.InventoryRow{}).Count(&n).Error
	return n, err
}
