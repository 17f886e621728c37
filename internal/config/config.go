package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Upstream Upstream
	Cache    Cache
	Redis    Redis
	RabbitMQ RabbitMQ
	Server   Server
	Schedule Schedule
}

type Upstream struct {
	BaseURL  string // overrides the region-derived base, mostly for tests
	Username string
	Password string
	Region   string
	Version  string

	WebsiteIDs      string
	InventoryFilter string

	OrderPageSize     int
	ProductPageSize   int
	InventoryPageSize int

	FetchOrderDetail bool
	OrderDetailMax   int // 0 means no budget

	RateLimitWait        bool
	RateCheckIntervalSec int

	TimeoutSec int
}

type Cache struct {
	Dialect string // sqlite or mysql
	Path    string // sqlite file path

	MySQLUser     string
	MySQLPassword string
	MySQLHost     string
	MySQLPort     string
	MySQLDatabase string

	LookbackDays int // full refresh window
	LatestDays   int // incremental refresh window
	ChunkDays    int // orchestrator window width
}

type Redis struct {
	Host string
}

type RabbitMQ struct {
	URL      string
	Exchange string
}

type Server struct {
	Port string
}

type Schedule struct {
	Hour              int
	Minute            int
	LatestIntervalMin int // 0 disables the incremental job
}

func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	return &Config{
		Upstream: Upstream{
			BaseURL:              os.Getenv("UPSTREAM_BASE_URL"),
			Username:             os.Getenv("UPSTREAM_USERNAME"),
			Password:             os.Getenv("UPSTREAM_PASSWORD"),
			Region:               getEnv("UPSTREAM_REGION", "us"),
			Version:              getEnv("UPSTREAM_VERSION", "v3"),
			WebsiteIDs:           os.Getenv("UPSTREAM_WEBSITE_IDS"),
			InventoryFilter:      getEnv("UPSTREAM_INVENTORY_FILTER", "OnlySKUsWithInventoryOn"),
			OrderPageSize:        getEnvInt("UPSTREAM_ORDER_PAGE_SIZE", 200),
			ProductPageSize:      getEnvInt("UPSTREAM_PRODUCT_PAGE_SIZE", 500),
			InventoryPageSize:    getEnvInt("UPSTREAM_INVENTORY_PAGE_SIZE", 100),
			FetchOrderDetail:     getEnvBool("UPSTREAM_FETCH_ORDER_DETAIL", false),
			OrderDetailMax:       getEnvInt("UPSTREAM_ORDER_DETAIL_MAX", 0),
			RateLimitWait:        getEnvBool("UPSTREAM_RATE_LIMIT_WAIT", false),
			RateCheckIntervalSec: getEnvInt("UPSTREAM_RATE_CHECK_INTERVAL", 5),
			TimeoutSec:           getEnvInt("UPSTREAM_TIMEOUT", 60),
		},
		Cache: Cache{
			Dialect:       getEnv("CACHE_DIALECT", "sqlite"),
			Path:          getEnv("CACHE_DB_PATH", "data/cache.db"),
			MySQLUser:     os.Getenv("MYSQL_USER"),
			MySQLPassword: os.Getenv("MYSQL_PASSWORD"),
			MySQLHost:     os.Getenv("MYSQL_HOST"),
			MySQLPort:     getEnv("MYSQL_PORT", "3306"),
			MySQLDatabase: os.Getenv("MYSQL_DATABASE"),
			LookbackDays:  maxInt(getEnvInt("CACHE_DAYS", 400), 1),
			LatestDays:    maxInt(getEnvInt("CACHE_LATEST_DAYS", 7), 1),
			ChunkDays:     getEnvInt("CACHE_CHUNK_DAYS", 30),
		},
		Redis: Redis{
			Host: os.Getenv("REDIS_HOST"),
		},
		RabbitMQ: RabbitMQ{
			URL:      os.Getenv("RABBITMQ_URL"),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "sync.exchange"),
		},
		Server: Server{
			Port: getEnv("PORT", "8080"),
		},
		Schedule: Schedule{
			Hour:              getEnvInt("CACHE_HOUR", 2),
			Minute:            getEnvInt("CACHE_MINUTE", 15),
			LatestIntervalMin: getEnvInt("CACHE_LATEST_INTERVAL_MIN", 0),
		},
	}, nil
}

func (c *Config) Validate() error {
	if c.Upstream.Username == "" || c.Upstream.Password == "" {
		return errors.New("missing UPSTREAM_USERNAME or UPSTREAM_PASSWORD")
	}
	if c.Cache.Dialect == "mysql" && c.Cache.MySQLDatabase == "" {
		return errors.New("CACHE_DIALECT=mysql requires MYSQL_DATABASE")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "1" || v == "true" || v == "yes"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
