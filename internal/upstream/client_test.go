package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ordersync/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler, mutate func(*config.Upstream)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Upstream{
		BaseURL:           srv.URL,
		Username:          "svc",
		Password:          "secret",
		OrderPageSize:     2,
		ProductPageSize:   2,
		InventoryPageSize: 2,
		TimeoutSec:        5,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	client, err := NewClient(cfg, zap.NewNop())
	require.NoError(t, err)
	return client
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(config.Upstream{Username: "svc"}, zap.NewNop())
	assert.Error(t, err)
}

func TestClient_FetchOrdersPaginatesUntilTotal(t *testing.T) {
	requests := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		body := decodeBody(t, r)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "svc", user)
		assert.Equal(t, "secret", pass)

		switch int(body["Page"].(float64)) {
		case 1:
			writeJSON(w, map[string]any{
				"Total": 3,
				"Orders": []any{
					map[string]any{"OrderID": "A-1", "DateCompleted": "2025-06-01T10:00:00"},
					map[string]any{"OrderID": "A-2", "DateCompleted": "2025-06-01T11:00:00"},
				},
			})
		default:
			writeJSON(w, map[string]any{
				"Total": 3,
				"Orders": []any{
					map[string]any{"OrderID": "A-3", "DateCompleted": "2025-06-02T09:00:00"},
				},
			})
		}
	})
	client := newTestClient(t, handler, nil)

	var lastPage, lastFetched, lastTotal int
	progress := func(page, fetched, total int) {
		lastPage, lastFetched, lastTotal = page, fetched, total
	}

	orders, err := client.FetchOrders(context.Background(), day("2025-06-01"), day("2025-06-02"), progress)
	require.NoError(t, err)
	assert.Len(t, orders, 3)
	assert.Equal(t, 2, requests)
	assert.Equal(t, "A-3", orders[2].OrderID)
	assert.Equal(t, "2025-06-02", orders[2].CompletedDate)
	assert.Equal(t, 2, lastPage)
	assert.Equal(t, 3, lastFetched)
	assert.Equal(t, 3, lastTotal)
}

func TestClient_FetchOrdersStopsOnEmptyPage(t *testing.T) {
	requests := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		body := decodeBody(t, r)
		if int(body["Page"].(float64)) == 1 {
			// Full page but no reported total, so the client must probe on.
			writeJSON(w, map[string]any{"Orders": []any{
				map[string]any{"OrderID": "A-1"},
				map[string]any{"OrderID": "A-2"},
			}})
			return
		}
		writeJSON(w, map[string]any{"Orders": []any{}})
	})
	client := newTestClient(t, handler, nil)

	orders, err := client.FetchOrders(context.Background(), day("2025-06-01"), day("2025-06-01"), nil)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, 2, requests)
}

func TestClient_FetchOrdersShortPageWithoutTotal(t *testing.T) {
	requests := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeJSON(w, map[string]any{"Orders": []any{
			map[string]any{"OrderID": "A-1"},
		}})
	})
	client := newTestClient(t, handler, nil)

	orders, err := client.FetchOrders(context.Background(), day("2025-06-01"), day("2025-06-01"), nil)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, 1, requests, "a short page without a total ends the scan")
}

func TestClient_FetchOrdersSkipsRowsWithoutID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"Orders": []any{
			map[string]any{"OrderID": "A-1"},
			map[string]any{"DateCompleted": "2025-06-01"},
		}})
	})
	client := newTestClient(t, handler, nil)

	orders, err := client.FetchOrders(context.Background(), day("2025-06-01"), day("2025-06-01"), nil)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, "A-1", orders[0].OrderID)
}

func TestClient_CapturesRateLimitHeaders(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Rate-Limit-Limit", "500")
		w.Header().Set("X-Rate-Limit-Remaining", "123")
		w.Header().Set("X-Rate-Limit-Reset", "1750000000000") // milliseconds
		writeJSON(w, map[string]any{"Orders": []any{}})
	})
	client := newTestClient(t, handler, nil)

	_, err := client.FetchOrders(context.Background(), day("2025-06-01"), day("2025-06-01"), nil)
	require.NoError(t, err)

	rate := client.RateLimit()
	assert.Equal(t, "500", rate.Limit)
	assert.Equal(t, "123", rate.Remaining)
	assert.Equal(t, "1750000000", rate.Reset, "millisecond epochs are normalized to seconds")
}

func TestClient_FailsFastWhenQuotaExhausted(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Rate-Limit-Remaining", "0")
		writeJSON(w, map[string]any{
			"Total": 4,
			"Orders": []any{
				map[string]any{"OrderID": "A-1"},
				map[string]any{"OrderID": "A-2"},
			},
		})
	})
	client := newTestClient(t, handler, nil)

	_, err := client.FetchOrders(context.Background(), day("2025-06-01"), day("2025-06-01"), nil)
	assert.ErrorIs(t, err, ErrRateLimitExhausted)
}

func TestClient_DetailFailureSkipsOrder(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		if strings.Contains(r.URL.Path, "GetOrderDetail") {
			ref := asString(firstValue(body, "OrderNumber", "OrderID"))
			if ref == "N-1" || ref == "A-1" {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			writeJSON(w, map[string]any{"Order": map[string]any{
				"OrderID":     "A-2",
				"OrderNumber": "N-2",
				"Total":       100.0,
				"OrderItems": []any{
					map[string]any{"SKU": "SKU-1", "Quantity": 2},
				},
			}})
			return
		}
		writeJSON(w, map[string]any{"Total": 2, "Orders": []any{
			map[string]any{"OrderID": "A-1", "OrderNumber": "N-1", "Total": 40.0},
			map[string]any{"OrderID": "A-2", "OrderNumber": "N-2", "Total": 50.0},
		}})
	})
	client := newTestClient(t, handler, func(cfg *config.Upstream) {
		cfg.FetchOrderDetail = true
	})

	orders, err := client.FetchOrders(context.Background(), day("2025-06-01"), day("2025-06-01"), nil)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	// A-1 keeps its listing data; A-2 is replaced by the detail payload.
	assert.Equal(t, 40.0, orders[0].OrderTotal)
	assert.Empty(t, orders[0].Items)
	assert.Equal(t, 100.0, orders[1].OrderTotal)
	require.Len(t, orders[1].Items, 1)
	assert.Equal(t, "SKU-1", orders[1].Items[0].SKU)
	assert.Equal(t, 2.0, orders[1].Units)
}

func TestClient_DetailBudgetCapsEnrichment(t *testing.T) {
	detailCalls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "GetOrderDetail") {
			detailCalls++
			writeJSON(w, map[string]any{"Order": map[string]any{"OrderID": "A-x"}})
			return
		}
		writeJSON(w, map[string]any{"Total": 2, "Orders": []any{
			map[string]any{"OrderID": "A-1"},
			map[string]any{"OrderID": "A-2"},
		}})
	})
	client := newTestClient(t, handler, func(cfg *config.Upstream) {
		cfg.FetchOrderDetail = true
		cfg.OrderDetailMax = 1
	})

	_, err := client.FetchOrders(context.Background(), day("2025-06-01"), day("2025-06-01"), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, detailCalls)
}

func TestClient_ProductFilterCascade(t *testing.T) {
	var bodies []map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		bodies = append(bodies, body)
		// This upstream version rejects the modified-date filters.
		if _, ok := body["DateModifiedFrom"]; ok {
			http.Error(w, "unknown field", http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{"Total": 1, "Products": []any{
			map[string]any{"ProductID": "p-1", "SKU": "SKU-1", "ProductName": "Cabernet"},
		}})
	})
	client := newTestClient(t, handler, nil)

	products, err := client.FetchProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "p-1", products[0].ProductID)
	assert.Equal(t, "Cabernet", products[0].Name)
	assert.Len(t, bodies, 3, "two filtered payloads rejected before the bare IsActive one")
}

func TestClient_FetchInventoryUnwrapsEnvelope(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "OnlySKUsWithInventoryOn", body["Filter"])
		writeJSON(w, map[string]any{"Total": 1, "Inventory": map[string]any{
			"Inventory": []any{
				map[string]any{"SKU": "SKU-1", "InventoryPool": "Main", "CurrentInventory": 12.0},
			},
		}})
	})
	client := newTestClient(t, handler, func(cfg *config.Upstream) {
		cfg.InventoryFilter = "OnlySKUsWithInventoryOn"
	})

	rows, err := client.FetchInventory(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SKU-1", rows[0].SKU)
	assert.Equal(t, 12.0, rows[0].CurrentInventory)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
