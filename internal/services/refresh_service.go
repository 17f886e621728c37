package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ordersync/internal/config"
	"ordersync/internal/domain"
	rabbit "ordersync/internal/infra/rabbitmq"
	"ordersync/internal/repository"
	"ordersync/internal/upstream"
)

// ErrRefreshInProgress is returned when a refresh of the same kind is
// already running. Different kinds are allowed to interleave.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// RefreshService coordinates synchronization passes against the cache
// store and drives the status ledger through
// Idle -> Running -> Succeeded/Failed. Triggers return immediately; the
// work runs in a detached goroutine and callers poll Status.
type RefreshService struct {
	client    upstream.ClientInterface
	orders    repository.OrderRepository
	products  repository.ProductRepository
	inventory repository.InventoryRepository
	ledger    *Ledger
	publisher rabbit.PublisherInterface
	log       *zap.Logger
	cfg       config.Cache

	now     func() time.Time
	running map[domain.RefreshKind]*atomic.Bool
}

func NewRefreshService(
	client upstream.ClientInterface,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	inventory repository.InventoryRepository,
	ledger *Ledger,
	publisher rabbit.PublisherInterface,
	cfg config.Cache,
	log *zap.Logger,
) *RefreshService {
	running := make(map[domain.RefreshKind]*atomic.Bool)
	for _, kind := range []domain.RefreshKind{
		domain.RefreshOrders, domain.RefreshFull, domain.RefreshLatest,
		domain.RefreshProducts, domain.RefreshInventory,
	} {
		running[kind] = &atomic.Bool{}
	}
	return &RefreshService{
		client:    client,
		orders:    orders,
		products:  products,
		inventory: inventory,
		ledger:    ledger,
		publisher: publisher,
		log:       log,
		cfg:       cfg,
		now:       time.Now,
		running:   running,
	}
}

// RefreshOrders starts a targeted order refresh for [start, end].
func (s *RefreshService) RefreshOrders(start, end time.Time) error {
	return s.trigger(domain.RefreshOrders, func(ctx context.Context) error {
		return s.runOrders(ctx, domain.RefreshOrders, Span{Start: start, End: end})
	})
}

// RefreshLatest refreshes the short trailing window.
func (s *RefreshService) RefreshLatest() error {
	span := s.trailingSpan(s.cfg.LatestDays)
	return s.trigger(domain.RefreshLatest, func(ctx context.Context) error {
		return s.runOrders(ctx, domain.RefreshLatest, span)
	})
}

// RefreshFull refreshes the whole lookback window, then products and
// inventory.
func (s *RefreshService) RefreshFull() error {
	span := s.trailingSpan(s.cfg.LookbackDays)
	return s.trigger(domain.RefreshFull, func(ctx context.Context) error {
		return s.runFull(ctx, span)
	})
}

func (s *RefreshService) RefreshProducts() error {
	return s.trigger(domain.RefreshProducts, s.runProducts)
}

func (s *RefreshService) RefreshInventory() error {
	return s.trigger(domain.RefreshInventory, s.runInventory)
}

func (s *RefreshService) trailingSpan(days int) Span {
	end := s.now().UTC().Truncate(24 * time.Hour)
	return Span{Start: end.AddDate(0, 0, -(days - 1)), End: end}
}

// trigger takes the per-kind flag with a compare-and-swap, so two
// concurrent triggers of the same kind cannot both start. The flag is
// released when the background run finishes.
func (s *RefreshService) trigger(kind domain.RefreshKind, run func(context.Context) error) error {
	if !s.running[kind].CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", ErrRefreshInProgress, kind)
	}

	go func() {
		// Refreshes are not cancellable mid-flight; they run to
		// completion or to their last unrecovered error.
		ctx := context.Background()
		defer s.running[kind].Store(false)

		s.markRunning(ctx, kind)
		err := s.guarded(ctx, run)
		if err != nil {
			s.markFailed(ctx, kind, err)
			return
		}
		s.markSucceeded(ctx, kind)
	}()
	return nil
}

// guarded converts a panic inside a refresh into a Failed status instead
// of taking the process down.
func (s *RefreshService) guarded(ctx context.Context, run func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return run(ctx)
}

func (s *RefreshService) runOrders(ctx context.Context, kind domain.RefreshKind, span Span) error {
	s.publish(ctx, "refresh.started", domain.RefreshEvent{
		Kind: kind, StartDate: dateStr(span.Start), EndDate: dateStr(span.End), At: s.now().UTC(),
	})

	progress := func(page, fetched, total int) {
		_ = s.ledger.Set(ctx, map[string]string{
			domain.StatusPage:    strconv.Itoa(page),
			domain.StatusFetched: strconv.Itoa(fetched),
			domain.StatusTotal:   strconv.Itoa(total),
		})
	}

	orders, failures := fetchOrdersChunked(ctx, s.client, span, s.cfg.ChunkDays, progress, s.log)
	s.flushRateLimit(ctx)
	s.recordFailures(ctx, kind, failures)

	if err := s.orders.ReplaceRange(ctx, dateStr(span.Start), dateStr(span.End), orders); err != nil {
		return fmt.Errorf("replace orders %s: %w", span, err)
	}

	s.log.Info("order refresh complete",
		zap.String("kind", string(kind)),
		zap.String("span", span.String()),
		zap.Int("orders", len(orders)),
		zap.Int("failed_days", len(failures)))

	s.publish(ctx, "refresh.succeeded", domain.RefreshEvent{
		Kind: kind, StartDate: dateStr(span.Start), EndDate: dateStr(span.End),
		FailedDays: len(failures), At: s.now().UTC(),
	})
	return nil
}

func (s *RefreshService) runFull(ctx context.Context, span Span) error {
	if err := s.runOrders(ctx, domain.RefreshFull, span); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.syncProducts(gctx) })
	g.Go(func() error { return s.syncInventory(gctx) })
	return g.Wait()
}

func (s *RefreshService) runProducts(ctx context.Context) error {
	s.publish(ctx, "refresh.started", domain.RefreshEvent{Kind: domain.RefreshProducts, At: s.now().UTC()})
	if err := s.syncProducts(ctx); err != nil {
		return err
	}
	s.publish(ctx, "refresh.succeeded", domain.RefreshEvent{Kind: domain.RefreshProducts, At: s.now().UTC()})
	return nil
}

func (s *RefreshService) runInventory(ctx context.Context) error {
	s.publish(ctx, "refresh.started", domain.RefreshEvent{Kind: domain.RefreshInventory, At: s.now().UTC()})
	if err := s.syncInventory(ctx); err != nil {
		return err
	}
	s.publish(ctx, "refresh.succeeded", domain.RefreshEvent{Kind: domain.RefreshInventory, At: s.now().UTC()})
	return nil
}

func (s *RefreshService) syncProducts(ctx context.Context) error {
	products, err := s.client.FetchProducts(ctx)
	if err != nil {
		return fmt.Errorf("fetch products: %w", err)
	}
	s.flushRateLimit(ctx)
	if err := s.products.Upsert(ctx, products); err != nil {
		return fmt.Errorf("upsert products: %w", err)
	}
	s.log.Info("product refresh complete", zap.Int("products", len(products)))
	return nil
}

func (s *RefreshService) syncInventory(ctx context.Context) error {
	inventory, err := s.client.FetchInventory(ctx)
	if err != nil {
		return fmt.Errorf("fetch inventory: %w", err)
	}
	s.flushRateLimit(ctx)
	if err := s.inventory.Rebuild(ctx, inventory); err != nil {
		return fmt.Errorf("rebuild inventory: %w", err)
	}
	s.log.Info("inventory refresh complete", zap.Int("rows", len(inventory)))
	return nil
}

// RateLimitCheck issues a synchronous telemetry probe and records the
// result on the ledger.
func (s *RefreshService) RateLimitCheck(ctx context.Context) (domain.RateLimitSnapshot, error) {
	err := s.client.RateLimitCheck(ctx)
	s.flushRateLimit(ctx)
	return s.client.RateLimit(), err
}

// Status is the ledger snapshot exposed to polling callers. Counts stay
// strings: the ledger is a string KV table and "" means never recorded.
type Status struct {
	InProgress bool   `json:"in_progress"`
	Kind       string `json:"kind"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	LastError  string `json:"last_error"`

	OrdersCount     string `json:"orders_count"`
	ItemsCount      string `json:"items_count"`
	ProductsCount   string `json:"products_count"`
	InventoryCount  string `json:"inventory_count"`
	LatestOrderDate string `json:"latest_order_date"`

	RateLimitLimit     string `json:"rate_limit_limit"`
	RateLimitRemaining string `json:"rate_limit_remaining"`
	RateLimitResetAt   string `json:"rate_limit_reset_at"`

	Page    string `json:"refresh_page"`
	Fetched string `json:"refresh_fetched"`
	Total   string `json:"refresh_total"`

	FailedDays   string `json:"failed_days"`
	FailedDetail string `json:"failed_detail"`
}

func (s *RefreshService) Status() Status {
	v := s.ledger.Snapshot()
	return Status{
		InProgress:         v[domain.StatusInProgress] == "1",
		Kind:               v[domain.StatusKind],
		StartedAt:          v[domain.StatusStartedAt],
		FinishedAt:         v[domain.StatusFinishedAt],
		LastError:          v[domain.StatusError],
		OrdersCount:        orZero(v[domain.StatusOrdersCount]),
		ItemsCount:         orZero(v[domain.StatusItemsCount]),
		ProductsCount:      orZero(v[domain.StatusProductsCount]),
		InventoryCount:     orZero(v[domain.StatusInventoryCount]),
		LatestOrderDate:    v[domain.StatusLatestOrderDate],
		RateLimitLimit:     v[domain.StatusRateLimitLimit],
		RateLimitRemaining: v[domain.StatusRateLimitRemaining],
		RateLimitResetAt:   v[domain.StatusRateLimitResetAt],
		Page:               orZero(v[domain.StatusPage]),
		Fetched:            orZero(v[domain.StatusFetched]),
		Total:              orZero(v[domain.StatusTotal]),
		FailedDays:         orZero(v[domain.StatusFailedDays]),
		FailedDetail:       v[domain.StatusFailedDetail],
	}
}

func orZero(v string) string {
	if v == "" {
		return "0"
	}
	return v
}

func (s *RefreshService) markRunning(ctx context.Context, kind domain.RefreshKind) {
	s.setStatus(ctx, map[string]string{
		domain.StatusInProgress:   "1",
		domain.StatusKind:         string(kind),
		domain.StatusStartedAt:    s.now().UTC().Format(time.RFC3339),
		domain.StatusError:        "",
		domain.StatusPage:         "0",
		domain.StatusFetched:      "0",
		domain.StatusTotal:        "0",
		domain.StatusFailedDays:   "0",
		domain.StatusFailedDetail: "",
	})
}

func (s *RefreshService) markSucceeded(ctx context.Context, kind domain.RefreshKind) {
	values := map[string]string{
		domain.StatusInProgress: "0",
		domain.StatusFinishedAt: s.now().UTC().Format(time.RFC3339),
	}
	s.addCounts(ctx, values)
	s.setStatus(ctx, values)
}

func (s *RefreshService) markFailed(ctx context.Context, kind domain.RefreshKind, err error) {
	s.log.Error("refresh failed", zap.String("kind", string(kind)), zap.Error(err))
	s.publish(ctx, "refresh.failed", domain.RefreshEvent{Kind: kind, Error: err.Error(), At: s.now().UTC()})
	s.setStatus(ctx, map[string]string{
		domain.StatusInProgress: "0",
		domain.StatusFinishedAt: s.now().UTC().Format(time.RFC3339),
		domain.StatusError:      err.Error(),
	})
}

// addCounts recomputes observability counters from the store after a
// successful pass.
func (s *RefreshService) addCounts(ctx context.Context, values map[string]string) {
	if n, err := s.orders.CountOrders(ctx); err == nil {
		values[domain.StatusOrdersCount] = strconv.FormatInt(n, 10)
	}
	if n, err := s.orders.CountItems(ctx); err == nil {
		values[domain.StatusItemsCount] = strconv.FormatInt(n, 10)
	}
	if n, err := s.products.Count(ctx); err == nil {
		values[domain.StatusProductsCount] = strconv.FormatInt(n, 10)
	}
	if n, err := s.inventory.Count(ctx); err == nil {
		values[domain.StatusInventoryCount] = strconv.FormatInt(n, 10)
	}
	if latest, err := s.orders.LatestCompletedDate(ctx); err == nil && latest != "" {
		values[domain.StatusLatestOrderDate] = latest
	}
}

func (s *RefreshService) recordFailures(ctx context.Context, kind domain.RefreshKind, failures []SpanFailure) {
	if len(failures) == 0 {
		return
	}
	detail := make([]string, 0, len(failures))
	for _, f := range failures {
		detail = append(detail, fmt.Sprintf("%s: %v", dateStr(f.Span.Start), f.Err))
	}
	s.setStatus(ctx, map[string]string{
		domain.StatusFailedDays:   strconv.Itoa(len(failures)),
		domain.StatusFailedDetail: strings.Join(detail, "; "),
	})
	s.publish(ctx, "refresh.partial", domain.RefreshEvent{
		Kind: kind, FailedDays: len(failures), Error: strings.Join(detail, "; "), At: s.now().UTC(),
	})
}

func (s *RefreshService) flushRateLimit(ctx context.Context) {
	rate := s.client.RateLimit()
	if rate.Limit == "" && rate.Remaining == "" && rate.Reset == "" {
		return
	}
	values := map[string]string{
		domain.StatusRateLimitLimit:     rate.Limit,
		domain.StatusRateLimitRemaining: rate.Remaining,
		domain.StatusRateLimitReset:     rate.Reset,
		domain.StatusRateLimitResetAt:   "",
	}
	if epoch, err := strconv.ParseInt(rate.Reset, 10, 64); err == nil && epoch > 0 {
		values[domain.StatusRateLimitResetAt] = time.Unix(epoch, 0).UTC().Format(time.RFC3339)
	}
	s.setStatus(ctx, values)
}

func (s *RefreshService) setStatus(ctx context.Context, values map[string]string) {
	if err := s.ledger.Set(ctx, values); err != nil {
		s.log.Error("status ledger write failed", zap.Error(err))
	}
}

func (s *RefreshService) publish(ctx context.Context, routingKey string, event domain.RefreshEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		s.log.Warn("event publish failed", zap.String("routing_key", routingKey), zap.Error(err))
	}
}
