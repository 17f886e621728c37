package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"ordersync/internal/config"
	"ordersync/internal/domain"
)

const (
	usBase = "https://webservices.ordermanage.com"
	auBase = "https://webservices.aus.ordermanage.com"
)

// Client talks to the upstream order-management service: paginated
// search calls for orders, products and inventory, per-order detail
// calls, and a telemetry probe. Every response refreshes the rate-limit
// snapshot regardless of call type.
type Client struct {
	cfg        config.Upstream
	baseURL    string
	orderVer   string
	catalogVer string
	httpClient *http.Client
	log        *zap.Logger

	mu   sync.RWMutex
	rate domain.RateLimitSnapshot

	gate *quotaGate
}

// NewClient fails fast on missing credentials, before any refresh state
// transition can happen.
func NewClient(cfg config.Upstream, log *zap.Logger) (*Client, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("upstream: missing username or password")
	}

	base := cfg.BaseURL
	if base == "" {
		switch cfg.Region {
		case "au", "aus":
			base = auBase
		default:
			base = usBase
		}
	}

	var orderVer string
	switch cfg.Version {
	case "v304":
		orderVer = "V304"
	case "v3", "v301":
		orderVer = "V301"
	default:
		orderVer = "V300"
	}

	c := &Client{
		cfg:        cfg,
		baseURL:    base,
		orderVer:   orderVer,
		catalogVer: "V300",
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
		log:        log,
	}
	c.gate = &quotaGate{
		remaining: func() string { return c.RateLimit().Remaining },
		probe:     c.RateLimitCheck,
		wait:      cfg.RateLimitWait,
		interval:  time.Duration(cfg.RateCheckIntervalSec) * time.Second,
		log:       log,
	}
	return c, nil
}

// FetchOrders returns normalized orders completed within [start, end]
// inclusive. A failed search call is fatal to the whole span; a failed
// per-order detail call is logged and skipped.
func (c *Client) FetchOrders(ctx context.Context, start, end time.Time, progress ProgressFunc) ([]domain.Order, error) {
	var (
		orders  []domain.Order
		raw     []map[string]any
		details []detailRef
	)

	page := 1
	for {
		if err := c.gate.ensure(ctx); err != nil {
			return nil, err
		}
		resp, err := c.searchOrders(ctx, start, end, page, c.cfg.OrderPageSize)
		if err != nil {
			return nil, err
		}

		pageRows := extractOrderRows(resp)
		for _, row := range pageRows {
			order := normalizeOrder(row, nil)
			if order.OrderID == "" {
				continue
			}
			raw = append(raw, row)
			orders = append(orders, order)
			details = append(details, detailRef{idx: len(orders) - 1, id: order.OrderID, number: order.OrderNumber})
		}

		total := extractTotal(resp)
		if progress != nil {
			progress(page, len(orders), total)
		}

		if len(pageRows) == 0 {
			break
		}
		if total > 0 && len(orders) >= total {
			break
		}
		if total == 0 && len(pageRows) < c.cfg.OrderPageSize {
			break
		}
		page++
	}

	if c.cfg.FetchOrderDetail {
		if err := c.enrichOrders(ctx, orders, raw, details); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

type detailRef struct {
	idx    int
	id     string
	number string
}

func (c *Client) enrichOrders(ctx context.Context, orders []domain.Order, raw []map[string]any, details []detailRef) error {
	fetched := 0
	for _, ref := range details {
		if c.cfg.OrderDetailMax > 0 && fetched >= c.cfg.OrderDetailMax {
			break
		}
		if err := c.gate.ensure(ctx); err != nil {
			return err
		}
		detail, err := c.getOrderDetail(ctx, ref.id, ref.number)
		if err != nil {
			c.log.Warn("order detail fetch failed, skipping",
				zap.String("order_id", ref.id), zap.Error(err))
			continue
		}
		orders[ref.idx] = normalizeOrder(raw[ref.idx], detail)
		fetched++
	}
	return nil
}

// FetchProducts pages through the product catalog.
func (c *Client) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	var all []map[string]any
	page := 1
	for {
		if err := c.gate.ensure(ctx); err != nil {
			return nil, err
		}
		resp, err := c.searchProducts(ctx, page, c.cfg.ProductPageSize)
		if err != nil {
			return nil, err
		}

		pageRows := extractProductRows(resp)
		all = append(all, pageRows...)

		total := extractTotal(resp)
		if len(pageRows) == 0 {
			break
		}
		if total > 0 && len(all) >= total {
			break
		}
		if total == 0 && len(pageRows) < c.cfg.ProductPageSize {
			break
		}
		page++
	}

	products := make([]domain.Product, 0, len(all))
	for _, row := range all {
		products = append(products, normalizeProduct(row))
	}
	return products, nil
}

// FetchInventory pages through the full inventory snapshot.
func (c *Client) FetchInventory(ctx context.Context) ([]domain.InventoryRow, error) {
	var all []map[string]any
	page := 1
	for {
		if err := c.gate.ensure(ctx); err != nil {
			return nil, err
		}
		resp, err := c.searchInventory(ctx, page, c.cfg.InventoryPageSize)
		if err != nil {
			return nil, err
		}

		pageRows := extractInventoryRows(resp)
		all = append(all, pageRows...)

		total := extractTotal(resp)
		if len(pageRows) == 0 {
			break
		}
		if total > 0 && len(all) >= total {
			break
		}
		if total == 0 && len(pageRows) < c.cfg.InventoryPageSize {
			break
		}
		page++
	}

	inventory := make([]domain.InventoryRow, 0, len(all))
	for _, row := range all {
		inventory = append(inventory, normalizeInventory(row))
	}
	return inventory, nil
}

// RateLimitCheck issues a minimal one-row search purely to refresh the
// rate-limit snapshot. It bypasses the quota gate.
func (c *Client) RateLimitCheck(ctx context.Context) error {
	today := time.Now().UTC()
	_, err := c.searchOrders(ctx, today, today, 1, 1)
	return err
}

// RateLimit returns the last captured telemetry.
func (c *Client) RateLimit() domain.RateLimitSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rate
}

func (c *Client) searchOrders(ctx context.Context, start, end time.Time, page, maxRows int) (map[string]any, error) {
	payload := map[string]any{
		"OrderStatus":       "Completed",
		"Page":              page,
		"MaxRows":           maxRows,
		"DateCompletedFrom": start.Format("2006-01-02") + "T00:00:00",
		"DateCompletedTo":   end.Format("2006-01-02") + "T23:59:59",
	}
	if c.cfg.WebsiteIDs != "" {
		payload["WebsiteIDs"] = c.cfg.WebsiteIDs
	}
	return c.post(ctx, c.orderVer+"/OrderService/SearchOrders", payload)
}

// getOrderDetail tries the order number first, then the order id; some
// upstream versions only resolve one of the two.
func (c *Client) getOrderDetail(ctx context.Context, id, number string) (map[string]any, error) {
	var attempts []map[string]any
	if number != "" {
		attempts = append(attempts, map[string]any{"OrderNumber": number})
	}
	if id != "" {
		attempts = append(attempts, map[string]any{"OrderID": id})
	}

	var lastErr error
	for _, attempt := range attempts {
		payload := map[string]any{"ShowKitAsIndividualSKUs": true}
		for k, v := range attempt {
			payload[k] = v
		}
		if c.cfg.WebsiteIDs != "" {
			payload["WebsiteID"] = c.cfg.WebsiteIDs
		}
		resp, err := c.post(ctx, c.orderVer+"/OrderService/GetOrderDetail", payload)
		if err != nil {
			lastErr = err
			continue
		}
		return resp, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return map[string]any{}, nil
}

// searchProducts walks a cascade of filter payloads, widest last; older
// upstream versions reject the modified-date filters.
func (c *Client) searchProducts(ctx context.Context, page, maxRows int) (map[string]any, error) {
	now := time.Now().UTC()
	modifiedFrom := now.AddDate(0, 0, -3650).Format("2006-01-02T15:04:05")
	modifiedTo := now.Format("2006-01-02T15:04:05")

	attempts := []map[string]any{
		{"IsActive": true, "DateModifiedFrom": modifiedFrom, "DateModifiedTo": modifiedTo},
		{"DateModifiedFrom": modifiedFrom, "DateModifiedTo": modifiedTo},
		{"IsActive": true},
		{},
	}

	var lastErr error
	for _, attempt := range attempts {
		payload := map[string]any{"Page": page, "MaxRows": maxRows}
		for k, v := range attempt {
			payload[k] = v
		}
		if c.cfg.WebsiteIDs != "" {
			payload["WebsiteIDs"] = c.cfg.WebsiteIDs
		}
		resp, err := c.post(ctx, c.catalogVer+"/ProductService/SearchProducts", payload)
		if err != nil {
			lastErr = err
			continue
		}
		return resp, nil
	}
	return nil, lastErr
}

func (c *Client) searchInventory(ctx context.Context, page, maxRows int) (map[string]any, error) {
	payload := map[string]any{
		"Page":    page,
		"MaxRows": maxRows,
		"Filter":  c.cfg.InventoryFilter,
	}
	if c.cfg.WebsiteIDs != "" {
		payload["WebsiteIDs"] = c.cfg.WebsiteIDs
	}
	return c.post(ctx, c.catalogVer+"/InventoryService/SearchInventory", payload)
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	c.captureRateLimit(resp.Header)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream %s returned status %d", path, resp.StatusCode)
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func (c *Client) captureRateLimit(h http.Header) {
	limit := h.Get("X-Rate-Limit-Limit")
	remaining := h.Get("X-Rate-Limit-Remaining")
	reset := h.Get("X-Rate-Limit-Reset")
	if limit == "" && remaining == "" && reset == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if limit != "" {
		c.rate.Limit = limit
	}
	if remaining != "" {
		c.rate.Remaining = remaining
	}
	if reset != "" {
		c.rate.Reset = normalizeReset(reset)
	}
}

// normalizeReset converts a millisecond epoch to seconds; some upstream
// regions report one, some the other.
func normalizeReset(v string) string {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return v
	}
	if n > 2_000_000_000_000 {
		n /= 1000
	}
	return strconv.FormatInt(n, 10)
}
