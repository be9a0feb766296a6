package domain

import "time"

// Stock movement types. Catalog management may define further types; the
// mutation engine only ever writes these three.
const (
	MovementSale    = "sale"
	MovementRestore = "restore"
	MovementAdjust  = "adjust"
)

// Movement sync states consumed by the external accounting sync.
const (
	SyncPending = "pending"
	SyncDone    = "done"
	SyncFailed  = "failed"
)

// StockMovement is one immutable ledger entry per stock-affecting line item.
// QtyAfter = QtyBefore + QtyChange always. Product title and SKU are captured
// at write time; only SyncStatus is ever updated afterwards, by the external
// sync consumer.
type StockMovement struct {
	ID           int64     `gorm:"primaryKey" json:"id,string"`
	ProductId    int64     `gorm:"index" json:"product_id,string"`
	ProductTitle string    `gorm:"size:255" json:"product_title"`
	ProductSku   string    `gorm:"size:64" json:"product_sku"`
	MovementType string    `gorm:"index;size:16" json:"movement_type"`
	QtyBefore    int64     `json:"qty_before"`
	QtyChange    int64     `json:"qty_change"`
	QtyAfter     int64     `json:"qty_after"`
	RefDoc       string    `gorm:"size:255" json:"ref_doc"`
	ActingUser   string    `gorm:"size:64" json:"acting_user"`
	CostPerUnit  float64   `json:"cost_per_unit"`
	TotalValue   float64   `json:"total_value"`
	SyncStatus   string    `gorm:"index;size:16" json:"sync_status"`
	IsComboItem  bool      `json:"is_combo_item"`
	ComboDesc    string    `gorm:"size:255" json:"combo_desc"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (StockMovement) TableName() string {
	return "stock_movements"
}
