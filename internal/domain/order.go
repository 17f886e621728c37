package domain

// Order is one upstream order, keyed by the upstream order id. Dates are
// stored as date-only strings so range predicates work the same across
// dialects. RawJSON keeps the upstream payload for forward compatibility.
type Order struct {
	OrderID       string `json:"orderId" gorm:"column:order_id;primaryKey"`
	OrderNumber   string `json:"orderNumber" gorm:"column:order_number"`
	CompletedDate string `json:"completedDate" gorm:"column:completed_date;index"`
	SubmittedDate string `json:"submittedDate" gorm:"column:submitted_date"`
	DateModified  string `json:"dateModified" gorm:"column:date_modified"`
	ShippedDate   string `json:"shippedDate" gorm:"column:shipped_date"`
	OrderType     string `json:"orderType" gorm:"column:order_type"`
	OrderStatus   string `json:"orderStatus" gorm:"column:order_status"`
	ShipState     string `json:"shipState" gorm:"column:ship_state"`
	CustomerID    string `json:"customerId" gorm:"column:customer_id"`

	BillFirstName string `json:"billFirstName" gorm:"column:bill_first_name"`
	BillLastName  string `json:"billLastName" gorm:"column:bill_last_name"`
	ShipFirstName string `json:"shipFirstName" gorm:"column:ship_first_name"`
	ShipLastName  string `json:"shipLastName" gorm:"column:ship_last_name"`
	BillAddress   string `json:"billAddress" gorm:"column:bill_address"`
	BillAddress2  string `json:"billAddress2" gorm:"column:bill_address2"`
	BillCity      string `json:"billCity" gorm:"column:bill_city"`
	BillState     string `json:"billState" gorm:"column:bill_state"`
	BillZip       string `json:"billZip" gorm:"column:bill_zip"`
	BillCountry   string `json:"billCountry" gorm:"column:bill_country"`
	BillEmail     string `json:"billEmail" gorm:"column:bill_email"`
	BillPhone     string `json:"billPhone" gorm:"column:bill_phone"`
	ShipAddress   string `json:"shipAddress" gorm:"column:ship_address"`
	ShipAddress2  string `json:"shipAddress2" gorm:"column:ship_address2"`
	ShipCity      string `json:"shipCity" gorm:"column:ship_city"`
	ShipStateCode string `json:"shipStateCode" gorm:"column:ship_state_code"`
	ShipZip       string `json:"shipZip" gorm:"column:ship_zip"`
	ShipCountry   string `json:"shipCountry" gorm:"column:ship_country"`
	ShipEmail     string `json:"shipEmail" gorm:"column:ship_email"`
	ShipPhone     string `json:"shipPhone" gorm:"column:ship_phone"`

	GiftMessage     string `json:"giftMessage" gorm:"column:gift_message"`
	OrderNotes      string `json:"orderNotes" gorm:"column:order_notes"`
	PaymentStatus   string `json:"paymentStatus" gorm:"column:payment_status"`
	ShippingStatus  string `json:"shippingStatus" gorm:"column:shipping_status"`
	ShippingType    string `json:"shippingType" gorm:"column:shipping_type"`
	TrackingNumber  string `json:"trackingNumber" gorm:"column:tracking_number"`
	WebsiteID       string `json:"websiteId" gorm:"column:website_id"`
	IsExternalOrder bool   `json:"isExternalOrder" gorm:"column:is_external_order"`
	IsPendingPickup bool   `json:"isPendingPickup" gorm:"column:is_pending_pickup"`
	IsArmsOrder     bool   `json:"isArmsOrder" gorm:"column:is_arms_order"`
	Pickup          bool   `json:"pickup" gorm:"column:pickup"`

	OrderNumberLong       string `json:"orderNumberLong" gorm:"column:order_number_long"`
	PickupDate            string `json:"pickupDate" gorm:"column:pickup_date"`
	PickupLocationCode    string `json:"pickupLocationCode" gorm:"column:pickup_location_code"`
	PaymentTerms          string `json:"paymentTerms" gorm:"column:payment_terms"`
	PriceLevel            string `json:"priceLevel" gorm:"column:price_level"`
	SalesAssociate        string `json:"salesAssociate" gorm:"column:sales_associate"`
	SalesAttribute        string `json:"salesAttribute" gorm:"column:sales_attribute"`
	TransactionType       string `json:"transactionType" gorm:"column:transaction_type"`
	SourceCode            string `json:"sourceCode" gorm:"column:source_code"`
	WholesaleNumber       string `json:"wholesaleNumber" gorm:"column:wholesale_number"`
	RequestedDeliveryDate string `json:"requestedDeliveryDate" gorm:"column:requested_delivery_date"`
	RequestedShipDate     string `json:"requestedShipDate" gorm:"column:requested_ship_date"`
	SentToFulfillmentDate string `json:"sentToFulfillmentDate" gorm:"column:sent_to_fulfillment_date"`
	FutureShipDate        string `json:"futureShipDate" gorm:"column:future_ship_date"`
	Marketplace           string `json:"marketplace" gorm:"column:marketplace"`

	OrderTotal    float64 `json:"orderTotal" gorm:"column:order_total"`
	Taxes         float64 `json:"taxes" gorm:"column:taxes"`
	ShippingPaid  float64 `json:"shippingPaid" gorm:"column:shipping_paid"`
	Shipping      float64 `json:"shipping" gorm:"column:shipping"`
	SubTotal      float64 `json:"subTotal" gorm:"column:sub_total"`
	Tip           float64 `json:"tip" gorm:"column:tip"`
	Total         float64 `json:"total" gorm:"column:total"`
	TotalAfterTip float64 `json:"totalAfterTip" gorm:"column:total_after_tip"`
	NetSales      float64 `json:"netSales" gorm:"column:net_sales"`
	Units         float64 `json:"units" gorm:"column:units"`

	RawJSON string `json:"-" gorm:"column:raw_json"`

	// Items travel with the order through a refresh but are persisted in
	// their own table.
	Items []OrderItem `json:"items,omitempty" gorm:"-"`
}

func (Order) TableName() string { return "orders" }
