package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"ordersync/internal/domain"
	"ordersync/internal/upstream"
)

// spanStubClient answers FetchOrders with one synthetic order per day and
// fails any span for which fail returns an error. Other client methods are
// never reached by the chunked fetch.
type spanStubClient struct {
	fail  func(start, end time.Time) error
	calls []Span
}

func (c *spanStubClient) FetchOrders(_ context.Context, start, end time.Time, _ upstream.ProgressFunc) ([]domain.Order, error) {
	c.calls = append(c.calls, Span{Start: start, End: end})
	if c.fail != nil {
		if err := c.fail(start, end); err != nil {
			return nil, err
		}
	}
	var orders []domain.Order
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		orders = append(orders, domain.Order{
			OrderID:       "order-" + d.Format("2006-01-02"),
			CompletedDate: d.Format("2006-01-02"),
		})
	}
	return orders, nil
}

func (c *spanStubClient) FetchProducts(context.Context) ([]domain.Product, error) {
	return nil, nil
}

func (c *spanStubClient) FetchInventory(context.Context) ([]domain.InventoryRow, error) {
	return nil, nil
}

func (c *spanStubClient) RateLimitCheck(context.Context) error { return nil }

func (c *spanStubClient) RateLimit() domain.RateLimitSnapshot { return domain.RateLimitSnapshot{} }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func coveredDates(orders []domain.Order) map[string]bool {
	out := make(map[string]bool, len(orders))
	for _, o := range orders {
		out[o.CompletedDate] = true
	}
	return out
}

func TestFetchOrdersChunked(t *testing.T) {
	tests := []struct {
		name        string
		start, end  string
		chunkDays   int
		fail        func(start, end time.Time) error
		wantDays    int
		wantMissing []string
		wantCalls   int
	}{
		{
			name:      "single chunk covers whole span",
			start:     "2025-06-01",
			end:       "2025-06-10",
			chunkDays: 30,
			wantDays:  10,
			wantCalls: 1,
		},
		{
			name:      "span split into fixed windows",
			start:     "2025-01-01",
			end:       "2025-03-31",
			chunkDays: 30,
			wantDays:  90,
			wantCalls: 3,
		},
		{
			name:      "zero chunk size fetches span whole",
			start:     "2025-06-01",
			end:       "2025-06-30",
			chunkDays: 0,
			wantDays:  30,
			wantCalls: 1,
		},
		{
			name:      "inverted span yields nothing",
			start:     "2025-06-10",
			end:       "2025-06-01",
			chunkDays: 30,
			wantDays:  0,
			wantCalls: 0,
		},
		{
			name:      "one bad day is isolated by bisection",
			start:     "2025-06-01",
			end:       "2025-06-30",
			chunkDays: 30,
			fail: func(start, end time.Time) error {
				bad := day("2025-06-15")
				if !start.After(bad) && !end.Before(bad) {
					return errors.New("upstream returned status 500")
				}
				return nil
			},
			wantDays:    29,
			wantMissing: []string{"2025-06-15"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &spanStubClient{fail: tt.fail}
			orders, failures := fetchOrdersChunked(
				context.Background(), client,
				Span{Start: day(tt.start), End: day(tt.end)},
				tt.chunkDays, nil, zap.NewNop(),
			)

			assert.Len(t, orders, tt.wantDays)
			assert.Len(t, failures, len(tt.wantMissing))
			if tt.wantCalls > 0 {
				assert.Len(t, client.calls, tt.wantCalls)
			}

			covered := coveredDates(orders)
			for _, missing := range tt.wantMissing {
				assert.False(t, covered[missing], "day %s should not have been fetched", missing)
			}
			for i, f := range failures {
				assert.Equal(t, tt.wantMissing[i], f.Span.Start.Format("2006-01-02"))
				assert.Equal(t, 0, f.Span.Days(), "failures must be single days")
			}

			// Every day outside the failed set must appear exactly once.
			for d := day(tt.start); !d.After(day(tt.end)); d = d.AddDate(0, 0, 1) {
				key := d.Format("2006-01-02")
				failed := false
				for _, m := range tt.wantMissing {
					if m == key {
						failed = true
					}
				}
				if !failed {
					assert.True(t, covered[key], "day %s missing from result", key)
				}
			}
		})
	}
}

func TestFetchOrdersChunked_DepthFirst(t *testing.T) {
	// Two 15-day windows; the first fails until bisected below 4 days.
	// Every sub-span of the first window must be resolved before the
	// second window is attempted at all.
	client := &spanStubClient{
		fail: func(start, end time.Time) error {
			if start.Before(day("2025-06-16")) && (Span{Start: start, End: end}).Days() >= 4 {
				return errors.New("timeout")
			}
			return nil
		},
	}

	orders, failures := fetchOrdersChunked(
		context.Background(), client,
		Span{Start: day("2025-06-01"), End: day("2025-06-30")},
		15, nil, zap.NewNop(),
	)

	assert.Len(t, orders, 30)
	assert.Empty(t, failures)

	secondWindow := -1
	for i, call := range client.calls {
		if call.Start.Equal(day("2025-06-16")) && call.End.Equal(day("2025-06-30")) {
			secondWindow = i
		}
	}
	assert.Equal(t, len(client.calls)-1, secondWindow,
		"second window should be attempted only after the first is fully resolved")
}

func TestFetchOrdersChunked_SingleDayNotRetried(t *testing.T) {
	attempts := map[string]int{}
	client := &spanStubClient{
		fail: func(start, end time.Time) error {
			if start.Equal(end) {
				attempts[start.Format("2006-01-02")]++
			}
			if !start.After(day("2025-06-03")) && !end.Before(day("2025-06-03")) {
				return errors.New("boom")
			}
			return nil
		},
	}

	_, failures := fetchOrdersChunked(
		context.Background(), client,
		Span{Start: day("2025-06-01"), End: day("2025-06-05")},
		30, nil, zap.NewNop(),
	)

	assert.Len(t, failures, 1)
	assert.Equal(t, "2025-06-03", failures[0].Span.Start.Format("2006-01-02"))
	assert.Equal(t, 1, attempts["2025-06-03"], "an irreducible day is attempted exactly once")
}

func TestSpanDays(t *testing.T) {
	assert.Equal(t, 0, Span{Start: day("2025-06-01"), End: day("2025-06-01")}.Days())
	assert.Equal(t, 29, Span{Start: day("2025-06-01"), End: day("2025-06-30")}.Days())
	assert.Equal(t, "2025-06-01..2025-06-30", Span{Start: day("2025-06-01"), End: day("2025-06-30")}.String())
}
