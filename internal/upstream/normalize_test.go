package upstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRows_ListAndSingleObject(t *testing.T) {
	list := rows([]any{
		map[string]any{"OrderID": "A-1"},
		map[string]any{"OrderID": "A-2"},
	})
	assert.Len(t, list, 2)

	// A single repeated element arrives as a bare object.
	single := rows(map[string]any{"OrderID": "A-1"})
	require.Len(t, single, 1)
	assert.Equal(t, "A-1", single[0]["OrderID"])

	assert.Nil(t, rows(nil))
	assert.Nil(t, rows("not a row"))
}

func TestAsDate(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"2025-06-15T10:30:00", "2025-06-15"},
		{"2025-06-15T10:30:00Z", "2025-06-15"},
		{"2025-06-15", "2025-06-15"},
		{"2025-06-15 10:30:00", "2025-06-15"},
		{"06/15/2025", "2025-06-15"},
		{"", ""},
		{nil, ""},
		{"2025-06-15X99:99", "2025-06-15X99:99"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, asDate(tt.in), "input %v", tt.in)
	}
}

func TestExtractTotal(t *testing.T) {
	tests := []struct {
		name string
		resp map[string]any
		want int
	}{
		{"total", map[string]any{"Total": 42.0}, 42},
		{"total rows", map[string]any{"TotalRows": 7.0}, 7},
		{"record count", map[string]any{"RecordCount": "19"}, 19},
		{"total record count", map[string]any{"TotalRecordCount": 3.0}, 3},
		{"absent", map[string]any{}, 0},
		{"unparsable", map[string]any{"Total": "many"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractTotal(tt.resp))
		})
	}
}

func TestNormalizeOrder_DetailWinsOverListing(t *testing.T) {
	listing := map[string]any{
		"OrderID":       "A-1",
		"OrderNumber":   "N-1",
		"DateCompleted": "2025-06-14T09:00:00",
		"Total":         40.0,
		"OrderStatus":   "Completed",
	}
	detail := map[string]any{"Order": map[string]any{
		"OrderID":  "A-1",
		"Total":    100.0,
		"Tax":      8.0,
		"Shipping": 12.0,
		"Tip":      5.0,
		"BillContact": map[string]any{
			"Address": "1 Vine St",
			"City":    "Napa",
			"Email":   "buyer@example.com",
		},
		"ShipToAddress": map[string]any{
			"StateCode": "CA",
			"ZipCode":   "94558",
		},
		"OrderItems": []any{
			map[string]any{"SKU": "SKU-1", "Quantity": 2.0, "ExtItemPrice": 60.0},
			map[string]any{"SKU": "SKU-2", "Quantity": 1.0, "ExtItemPrice": 15.0},
		},
	}}

	order := normalizeOrder(listing, detail)

	assert.Equal(t, "A-1", order.OrderID)
	assert.Equal(t, "N-1", order.OrderNumber, "listing fills what detail lacks")
	assert.Equal(t, "2025-06-14", order.CompletedDate)
	assert.Equal(t, 100.0, order.OrderTotal, "detail total replaces listing total")
	assert.Equal(t, 75.0, order.NetSales, "total minus tax, shipping and tip")
	assert.Equal(t, 3.0, order.Units)
	assert.Equal(t, "1 Vine St", order.BillAddress)
	assert.Equal(t, "Napa", order.BillCity)
	assert.Equal(t, "buyer@example.com", order.BillEmail)
	assert.Equal(t, "CA", order.ShipStateCode)
	assert.Equal(t, "94558", order.ShipZip)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 60.0, order.Items[0].NetSales)
}

func TestNormalizeOrder_Defaults(t *testing.T) {
	order := normalizeOrder(map[string]any{"OrderID": "A-1"}, nil)
	assert.Equal(t, "Unknown", order.OrderType)
	assert.Equal(t, "Unknown", order.ShipState)
	assert.Equal(t, 0.0, order.NetSales)
	assert.NotEmpty(t, order.RawJSON)
}

func TestNormalizeOrder_NetSalesNeverNegative(t *testing.T) {
	order := normalizeOrder(map[string]any{
		"OrderID":  "A-1",
		"Total":    10.0,
		"Tax":      8.0,
		"Shipping": 12.0,
	}, nil)
	assert.Equal(t, 0.0, order.NetSales)
}

func TestExtractItems_ContainerVariants(t *testing.T) {
	tests := []struct {
		name string
		info map[string]any
		want int
	}{
		{
			name: "plain list",
			info: map[string]any{"OrderItems": []any{
				map[string]any{"SKU": "a"}, map[string]any{"SKU": "b"},
			}},
			want: 2,
		},
		{
			name: "wrapped envelope",
			info: map[string]any{"OrderItems": map[string]any{"OrderItem": []any{
				map[string]any{"SKU": "a"},
			}}},
			want: 1,
		},
		{
			name: "single item as bare object",
			info: map[string]any{"OrderItems": map[string]any{"OrderItem": map[string]any{"SKU": "a"}}},
			want: 1,
		},
		{
			name: "alternate key",
			info: map[string]any{"Items": []any{map[string]any{"SKU": "a"}}},
			want: 1,
		},
		{
			name: "absent",
			info: map[string]any{},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, extractItems(tt.info), tt.want)
		})
	}
}

func TestNormalizeItem_CoercesStrings(t *testing.T) {
	item := normalizeItem(map[string]any{
		"ProductSKU":    "SKU-9",
		"Name":          "Pinot Noir",
		"Qty":           "3",
		"ExtendedPrice": "74.25",
		"IsNonTaxable":  "true",
	})
	assert.Equal(t, "SKU-9", item.SKU)
	assert.Equal(t, "Pinot Noir", item.ProductName)
	assert.Equal(t, 3.0, item.Quantity)
	assert.Equal(t, 74.25, item.NetSales)
	assert.True(t, item.IsNonTaxable)
}

func TestNormalizeProduct(t *testing.T) {
	p := normalizeProduct(map[string]any{
		"ProductId":    "p-1",
		"Sku":          "SKU-1",
		"Name":         "Rosé",
		"LastModified": "2025-05-01T00:00:00",
	})
	assert.Equal(t, "p-1", p.ProductID)
	assert.Equal(t, "SKU-1", p.SKU)
	assert.Equal(t, "Rosé", p.Name)
	assert.Equal(t, "2025-05-01", p.LastUpdated)
}

func TestNormalizeReset(t *testing.T) {
	assert.Equal(t, "1750000000", normalizeReset("1750000000"))
	assert.Equal(t, "1750000000", normalizeReset("1750000000000"))
	assert.Equal(t, "soon", normalizeReset("soon"))
}
