package domain

// OrderItem is one line of an order. Rows are owned by their order: a
// refresh that touches the order deletes and reinserts all of them.
type OrderItem struct {
	ID          uint64  `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	OrderID     string  `json:"orderId" gorm:"column:order_id;index"`
	SKU         string  `json:"sku" gorm:"column:sku"`
	ProductName string  `json:"productName" gorm:"column:product_name"`
	Quantity    float64 `json:"quantity" gorm:"column:quantity"`
	NetSales    float64 `json:"netSales" gorm:"column:net_sales"`

	ProductID     string  `json:"productId" gorm:"column:product_id"`
	ProductSKUID  string  `json:"productSkuId" gorm:"column:product_skuid"`
	Price         float64 `json:"price" gorm:"column:price"`
	OriginalPrice float64 `json:"originalPrice" gorm:"column:original_price"`

	Department     string `json:"department" gorm:"column:department"`
	DepartmentCode string `json:"departmentCode" gorm:"column:department_code"`
	InventoryPool  string `json:"inventoryPool" gorm:"column:inventory_pool"`
	IsNonTaxable   bool   `json:"isNonTaxable" gorm:"column:is_non_taxable"`
	IsSubSKU       bool   `json:"isSubSku" gorm:"column:is_subsku"`

	SalesTax          float64 `json:"salesTax" gorm:"column:sales_tax"`
	ShippingSKU       string  `json:"shippingSku" gorm:"column:shipping_sku"`
	ShippingService   string  `json:"shippingService" gorm:"column:shipping_service"`
	SubDepartment     string  `json:"subDepartment" gorm:"column:sub_department"`
	SubDepartmentCode string  `json:"subDepartmentCode" gorm:"column:sub_department_code"`
	Subtitle          string  `json:"subtitle" gorm:"column:subtitle"`
	Title             string  `json:"title" gorm:"column:title"`
	ItemType          string  `json:"itemType" gorm:"column:item_type"`
	UnitDescription   string  `json:"unitDescription" gorm:"column:unit_description"`
	Weight            float64 `json:"weight" gorm:"column:weight"`
	CostOfGood        float64 `json:"costOfGood" gorm:"column:cost_of_good"`
	CustomTax1        float64 `json:"customTax1" gorm:"column:custom_tax1"`
	CustomTax2        float64 `json:"customTax2" gorm:"column:custom_tax2"`
	CustomTax3        float64 `json:"customTax3" gorm:"column:custom_tax3"`
	ParentSKU         string  `json:"parentSku" gorm:"column:parent_sku"`
	ParentSKUID       string  `json:"parentSkuId" gorm:"column:parent_skuid"`
	ShippedDate       string  `json:"shippedDate" gorm:"column:shipped_date"`
	TrackingNumber    string  `json:"trackingNumber" gorm:"column:tracking_number"`

	RawJSON string `json:"-" gorm:"column:raw_json"`
}

func (OrderItem) TableName() string { return "order_items" }
