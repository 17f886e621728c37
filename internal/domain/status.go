package domain

// StatusEntry is one key of the cache_status ledger.
type StatusEntry struct {
	Key   string `json:"key" gorm:"column:key;primaryKey"`
	Value string `json:"value" gorm:"column:value"`
}

func (StatusEntry) TableName() string { return "cache_status" }

// Ledger keys. Callers poll these to observe refresh lifecycle and
// rate-limit telemetry; the last error survives until the next attempt.
const (
	StatusInProgress   = "refresh_in_progress"
	StatusStartedAt    = "refresh_started_at"
	StatusFinishedAt   = "refresh_finished_at"
	StatusError        = "refresh_error"
	StatusKind         = "refresh_kind"
	StatusPage         = "refresh_page"
	StatusFetched      = "refresh_fetched"
	StatusTotal        = "refresh_total"
	StatusFailedDays   = "refresh_failed_days"
	StatusFailedDetail = "refresh_failed_detail"

	StatusOrdersCount     = "orders_count"
	StatusItemsCount      = "items_count"
	StatusProductsCount   = "products_count"
	StatusInventoryCount  = "inventory_count"
	StatusLatestOrderDate = "latest_order_date"

	StatusRateLimitLimit     = "rate_limit_limit"
	StatusRateLimitRemaining = "rate_limit_remaining"
	StatusRateLimitReset     = "rate_limit_reset"
	StatusRateLimitResetAt   = "rate_limit_reset_at"
)

// RateLimitSnapshot is the last telemetry captured from upstream
// response headers. Values are kept as reported; empty means never seen.
type RateLimitSnapshot struct {
	Limit     string `json:"limit"`
	Remaining string `json:"remaining"`
	Reset     string `json:"reset"` // unix seconds, normalized from ms when needed
}
