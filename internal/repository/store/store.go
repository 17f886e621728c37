package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ordersync/internal/config"
	"ordersync/internal/domain"
)

// Open connects to the cache store and runs the additive migration.
// AutoMigrate only ever adds missing columns, so the schema can gain
// fields over time without touching existing data.
func Open(cfg config.Cache) (*gorm.DB, error) {
	dialector, err := dialect(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}

	if err := db.AutoMigrate(
		&domain.Order{},
		&domain.OrderItem{},
		&domain.Product{},
		&domain.InventoryRow{},
		&domain.StatusEntry{},
	); err != nil {
		return nil, fmt.Errorf("migrate cache store: %w", err)
	}

	return db, nil
}

func dialect(cfg config.Cache) (gorm.Dialector, error) {
	switch cfg.Dialect {
	case "sqlite", "":
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create cache dir: %w", err)
			}
		}
		// WAL keeps status polls readable mid-refresh; the busy timeout
		// bounds lock waits instead of failing immediately.
		sep := "?"
		if strings.Contains(cfg.Path, "?") {
			sep = "&"
		}
		dsn := cfg.Path + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)"
		return sqlite.Open(dsn), nil
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.MySQLUser, cfg.MySQLPassword, cfg.MySQLHost, cfg.MySQLPort, cfg.MySQLDatabase)
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported cache dialect %q", cfg.Dialect)
	}
}
