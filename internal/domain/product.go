package domain

// Product is upserted by upstream product id.
type Product struct {
	ProductID   string `json:"productId" gorm:"column:product_id;primaryKey"`
	SKU         string `json:"sku" gorm:"column:sku"`
	Name        string `json:"name" gorm:"column:name"`
	LastUpdated string `json:"lastUpdated" gorm:"column:last_updated"`
	RawJSON     string `json:"-" gorm:"column:raw_json"`
}

func (Product) TableName() string { return "products" }

// InventoryRow has no stable natural key: the same SKU appears once per
// pool, and upstream only offers full snapshots, so the table is rebuilt
// on every refresh.
type InventoryRow struct {
	ID               uint64  `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	SKU              string  `json:"sku" gorm:"column:sku"`
	InventoryPool    string  `json:"inventoryPool" gorm:"column:inventory_pool"`
	InventoryPoolID  string  `json:"inventoryPoolId" gorm:"column:inventory_pool_id"`
	WebsiteID        string  `json:"websiteId" gorm:"column:website_id"`
	CurrentInventory float64 `json:"currentInventory" gorm:"column:current_inventory"`
	RawJSON          string  `json:"-" gorm:"column:raw_json"`
}

func (InventoryRow) TableName() string { return "inventory" }
