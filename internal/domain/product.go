package domain

import "time"

// Product is the per-product stock record. Stock is always expressed in base
// inventory units, never in packaged units; it may go negative transiently
// under concurrent sales and is only corrected by restores or manual
// adjustment.
type Product struct {
	ID         int64     `gorm:"primaryKey" json:"id,string" form:"id"`
	Sku        string    `gorm:"index;size:64" json:"sku" form:"sku"`
	Title      string    `gorm:"index;size:255" json:"title" form:"title"`
	ExternalId string    `gorm:"size:64" json:"external_id" form:"external_id"`
	BasicUnit  string    `gorm:"size:32" json:"basic_unit" form:"basic_unit"`
	Stock      int64     `json:"stock" form:"stock"`
	Sales      int64     `json:"sales" form:"sales"`
	CostPrice  float64   `json:"cost_price" form:"cost_price"`
	Status     string    `gorm:"size:16" json:"status" form:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// LocationStock is the flat per-location quantity breakdown. The rows sum
// informally to Product.Stock; nothing enforces it.
type LocationStock struct {
	ID         int64     `gorm:"primaryKey" json:"id,string"`
	ProductId  int64     `gorm:"index" json:"product_id,string" form:"product_id"`
	LocationId int64     `gorm:"index" json:"location_id,string" form:"location_id"`
	Quantity   int64     `json:"quantity" form:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (LocationStock) TableName() string {
	return "location_stock"
}

// ProductUnit is one sellable packaging variant of a product. PackQty is the
// number of base units one sale of this variant consumes. PendingSyncQty
// accumulates base-unit deltas awaiting propagation to the external inventory
// system of record: decremented on sale, incremented on restore.
type ProductUnit struct {
	ID             int64     `gorm:"primaryKey" json:"id,string" form:"id"`
	ProductId      int64     `gorm:"index" json:"product_id,string" form:"product_id"`
	Name           string    `gorm:"size:64" json:"name" form:"name"`
	PackQty        float64   `json:"pack_qty" form:"pack_qty"`
	Price          float64   `json:"price" form:"price"`
	IsDefault      bool      `json:"is_default" form:"is_default"`
	IsActive       bool      `json:"is_active" form:"is_active"`
	PendingSyncQty int64     `json:"pending_sync_qty" form:"pending_sync_qty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (ProductUnit) TableName() string {
	return "product_units"
}
