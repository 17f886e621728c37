package upstream

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"ordersync/internal/domain"
)

// The upstream serializer is loose about shape: a repeated element comes
// back as an array with two rows but as a bare object with one, row
// containers are sometimes wrapped in an extra envelope, and most fields
// have two or three historical spellings. Everything in this file exists
// to flatten that into the fixed record types in internal/domain; nothing
// outside it should ever look at a raw payload.

// rows coerces a decoded JSON value into a list of row maps.
func rows(v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, e := range t {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		return []map[string]any{t}
	default:
		return nil
	}
}

// unwrap follows one level of container nesting, e.g.
// {"Products": {"Products": [...]}} or {"OrderItems": {"OrderItem": [...]}}.
func unwrap(v any, key string) any {
	if m, ok := v.(map[string]any); ok {
		if inner, ok := m[key]; ok {
			return inner
		}
	}
	return v
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	case json.Number:
		f, _ := t.Float64()
		return f
	default:
		return 0
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes":
			return true
		}
	}
	return false
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// asDate reduces any of the upstream timestamp spellings to YYYY-MM-DD.
func asDate(v any) string {
	text := strings.TrimSpace(asString(v))
	if text == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format("2006-01-02")
		}
	}
	for _, sep := range []string{"T", " "} {
		if i := strings.Index(text, sep); i > 0 {
			return text[:i]
		}
	}
	return text
}

func getString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := asString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func rawJSON(m map[string]any) string {
	if m == nil {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func extractOrderRows(resp map[string]any) []map[string]any {
	return rows(firstValue(resp, "Orders", "Order"))
}

func extractProductRows(resp map[string]any) []map[string]any {
	v := firstValue(resp, "Products", "Product")
	return rows(unwrap(v, "Products"))
}

func extractInventoryRows(resp map[string]any) []map[string]any {
	v := firstValue(resp, "Inventory")
	return rows(unwrap(v, "Inventory"))
}

// extractTotal reads the reported result count; 0 means not reported.
func extractTotal(resp map[string]any) int {
	for _, k := range []string{"Total", "TotalRows", "RecordCount", "TotalRecordCount"} {
		if v, ok := resp[k]; ok {
			if s := asString(v); s != "" {
				if n, err := strconv.Atoi(s); err == nil {
					return n
				}
			}
		}
	}
	return 0
}

// normalizeOrder merges a search listing row with an optional detail
// payload. Detail fields win; the listing fills whatever detail lacks.
func normalizeOrder(listing, detail map[string]any) domain.Order {
	info := detail
	if v, ok := detail["Order"].(map[string]any); ok {
		info = v
	} else if v, ok := detail["OrderDetail"].(map[string]any); ok {
		info = v
	}
	if info == nil {
		info = map[string]any{}
	}

	get := func(keys ...string) any {
		if v := firstValue(info, keys...); v != nil {
			return v
		}
		return firstValue(listing, keys...)
	}
	str := func(keys ...string) string { return asString(get(keys...)) }
	num := func(keys ...string) float64 { return asFloat(get(keys...)) }
	flag := func(keys ...string) bool { return asBool(get(keys...)) }
	day := func(keys ...string) string { return asDate(get(keys...)) }

	billContact, _ := info["BillContact"].(map[string]any)
	shipTo, _ := info["ShipToAddress"].(map[string]any)
	items := extractItems(info)

	units := 0.0
	for _, item := range items {
		units += item.Quantity
	}

	total := num("Total", "OrderTotal")
	taxes := num("Tax", "TaxTotal", "OrderTax")
	shipping := num("Shipping", "ShippingTotal")
	tip := num("Tip")
	netSales := total - taxes - shipping - tip
	if netSales < 0 {
		netSales = 0
	}

	raw := info
	if len(info) == 0 {
		raw = listing
	}

	orderType := str("Type", "OrderType", "OrderSource")
	if orderType == "" {
		orderType = "Unknown"
	}
	shipState := str("ShipStateCode", "ShippingState")
	if shipState == "" {
		shipState = "Unknown"
	}

	return domain.Order{
		OrderID:       str("OrderID", "OrderId"),
		OrderNumber:   str("OrderNumber"),
		CompletedDate: day("DateCompleted", "CompletedDate"),
		SubmittedDate: day("DateSubmitted", "SubmittedDate"),
		DateModified:  day("DateModified"),
		ShippedDate:   day("DateShipped", "ShippedDate"),
		OrderType:     orderType,
		OrderStatus:   str("OrderStatus"),
		ShipState:     shipState,
		CustomerID:    str("ContactID", "CustomerID", "CustomerNumber"),

		BillFirstName: str("BillFirstName"),
		BillLastName:  str("BillLastName"),
		ShipFirstName: str("ShipFirstName"),
		ShipLastName:  str("ShipLastName"),
		BillAddress:   getString(billContact, "Address"),
		BillAddress2:  getString(billContact, "Address2"),
		BillCity:      getString(billContact, "City"),
		BillState:     getString(billContact, "StateCode"),
		BillZip:       getString(billContact, "ZipCode"),
		BillCountry:   getString(billContact, "CountryCode"),
		BillEmail:     getString(billContact, "Email"),
		BillPhone:     getString(billContact, "Phone"),
		ShipAddress:   getString(shipTo, "Address"),
		ShipAddress2:  getString(shipTo, "Address2"),
		ShipCity:      getString(shipTo, "City"),
		ShipStateCode: getString(shipTo, "StateCode"),
		ShipZip:       getString(shipTo, "ZipCode"),
		ShipCountry:   getString(shipTo, "CountryCode"),
		ShipEmail:     getString(shipTo, "Email"),
		ShipPhone:     getString(shipTo, "Phone"),

		GiftMessage:     str("GiftMessage"),
		OrderNotes:      str("OrderNotes"),
		PaymentStatus:   str("PaymentStatus"),
		ShippingStatus:  str("ShippingStatus"),
		ShippingType:    str("ShippingType"),
		TrackingNumber:  str("TrackingNumber"),
		WebsiteID:       str("WebsiteID"),
		IsExternalOrder: flag("IsExternalOrder"),
		IsPendingPickup: flag("IsPendingPickup"),
		IsArmsOrder:     flag("IsARMSOrder"),
		Pickup:          flag("IsAPickupOrder", "Pickup"),

		OrderNumberLong:       str("OrderNumberLong"),
		PickupDate:            day("PickupDate"),
		PickupLocationCode:    str("PickupLocationCode"),
		PaymentTerms:          str("PaymentTerms"),
		PriceLevel:            str("PriceLevel"),
		SalesAssociate:        str("SalesAssociate"),
		SalesAttribute:        str("SalesAttribute"),
		TransactionType:       str("TransactionType"),
		SourceCode:            str("SourceCode"),
		WholesaleNumber:       str("WholesaleNumber"),
		RequestedDeliveryDate: day("RequestedDeliveryDate"),
		RequestedShipDate:     day("RequestedShipDate"),
		SentToFulfillmentDate: day("SentToFulfillmentDate"),
		FutureShipDate:        day("FutureShipDate"),
		Marketplace:           str("Marketplace"),

		OrderTotal:    total,
		Taxes:         taxes,
		ShippingPaid:  num("ShippingTotal", "Shipping"),
		Shipping:      shipping,
		SubTotal:      num("SubTotal"),
		Tip:           tip,
		Total:         total,
		TotalAfterTip: num("TotalAfterTip"),
		NetSales:      netSales,
		Units:         units,

		RawJSON: rawJSON(raw),
		Items:   items,
	}
}

func extractItems(info map[string]any) []domain.OrderItem {
	for _, key := range []string{"OrderItems", "Items", "OrderItem"} {
		v, ok := info[key]
		if !ok {
			continue
		}
		itemRows := rows(unwrap(v, "OrderItem"))
		items := make([]domain.OrderItem, 0, len(itemRows))
		for _, row := range itemRows {
			items = append(items, normalizeItem(row))
		}
		return items
	}
	return nil
}

func normalizeItem(item map[string]any) domain.OrderItem {
	return domain.OrderItem{
		SKU:         getString(item, "SKU", "ProductSKU", "Sku"),
		ProductName: getString(item, "ProductName", "Name"),
		Quantity:    asFloat(firstValue(item, "Quantity", "Qty")),
		NetSales:    asFloat(firstValue(item, "ExtItemPrice", "ExtendedPrice", "Price")),

		ProductID:     getString(item, "ProductID"),
		ProductSKUID:  getString(item, "ProductSKUID"),
		Price:         asFloat(item["Price"]),
		OriginalPrice: asFloat(item["OriginalPrice"]),

		Department:     getString(item, "Department"),
		DepartmentCode: getString(item, "DepartmentCode"),
		InventoryPool:  getString(item, "InventoryPool"),
		IsNonTaxable:   asBool(item["IsNonTaxable"]),
		IsSubSKU:       asBool(item["IsSubSKU"]),

		SalesTax:          asFloat(item["SalesTax"]),
		ShippingSKU:       getString(item, "ShippingSKU"),
		ShippingService:   getString(item, "ShippingService"),
		SubDepartment:     getString(item, "SubDepartment"),
		SubDepartmentCode: getString(item, "SubDepartmentCode"),
		Subtitle:          getString(item, "SubTitle"),
		Title:             getString(item, "Title"),
		ItemType:          getString(item, "Type"),
		UnitDescription:   getString(item, "UnitDescription"),
		Weight:            asFloat(item["Weight"]),
		CostOfGood:        asFloat(item["CostOfGood"]),
		CustomTax1:        asFloat(item["CustomTax1"]),
		CustomTax2:        asFloat(item["CustomTax2"]),
		CustomTax3:        asFloat(item["CustomTax3"]),
		ParentSKU:         getString(item, "ParentSKU"),
		ParentSKUID:       getString(item, "ParentSKUID"),
		ShippedDate:       asDate(item["ShippedDate"]),
		TrackingNumber:    getString(item, "TrackingNumber"),

		RawJSON: rawJSON(item),
	}
}

func normalizeProduct(row map[string]any) domain.Product {
	return domain.Product{
		ProductID:   getString(row, "ProductID", "ProductId"),
		SKU:         getString(row, "SKU", "Sku"),
		Name:        getString(row, "ProductName", "Name"),
		LastUpdated: asDate(row["LastModified"]),
		RawJSON:     rawJSON(row),
	}
}

func normalizeInventory(row map[string]any) domain.InventoryRow {
	return domain.InventoryRow{
		SKU:              getString(row, "SKU", "Sku"),
		InventoryPool:    getString(row, "InventoryPool"),
		InventoryPoolID:  getString(row, "InventoryPoolID", "InventoryPoolId"),
		WebsiteID:        getString(row, "WebsiteID", "WebsiteId"),
		CurrentInventory: asFloat(row["CurrentInventory"]),
		RawJSON:          rawJSON(row),
	}
}
