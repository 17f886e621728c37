package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ordersync/internal/domain"
	"ordersync/internal/repository"
)

type statusRepo struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) repository.StatusRepository {
	return &statusRepo{db: db}
}

func (r *statusRepo) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	entries := make([]domain.StatusEntry, 0, len(values))
	for k, v := range values {
		entries = append(entries, domain.StatusEntry{Key: k, Value: v})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&entries).Error
}

func (r *statusRepo) All(ctx context.Context) (map[string]string, error) {
	var entries []domain.StatusEntry
	if err := r.db.WithContext(ctx).Find(&entries).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Key] = e.Value
	}
	return out, nil
}
