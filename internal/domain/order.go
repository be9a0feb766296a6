package domain

import "time"

// Order statuses. Orders in pending or processing hold reservations against
// sellable availability.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderCompleted  = "completed"
	OrderCancelled  = "cancelled"
)

// Order is owned by the order subsystem; this core reads it for reservation
// accounting and cancellation compensation only.
type Order struct {
	ID                int64       `gorm:"primaryKey" json:"id,string" form:"id"`
	CustomerId        int64       `gorm:"index" json:"customer_id,string" form:"customer_id"`
	OperatorId        int64       `json:"operator_id,string" form:"operator_id"`
	Status            string      `gorm:"index;size:16" json:"status" form:"status"`
	LoyaltyPointsUsed int64       `json:"loyalty_points_used" form:"loyalty_points_used"`
	Lines             []OrderLine `gorm:"foreignKey:OrderId" json:"lines"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderLine is one cart line. Quantity counts packaging-variant units as
// purchased. ComboRef marks a decomposed constituent of a bundled deal and
// carries the human-readable bundle name; SelectedProducts holds the bundle's
// per-combo-unit base quantities as a JSON object keyed by product id.
type OrderLine struct {
	ID               int64     `gorm:"primaryKey" json:"id,string"`
	OrderId          int64     `gorm:"index" json:"order_id,string"`
	ProductId        int64     `gorm:"index" json:"product_id,string"`
	EntryId          int64     `json:"entry_id,string"`
	Quantity         int64     `json:"quantity"`
	UnitId           int64     `json:"unit_id,string"`
	UnitPrice        float64   `json:"unit_price"`
	ComboRef         string    `gorm:"size:255" json:"combo_ref"`
	SelectedProducts string    `gorm:"size:2048" json:"selected_products"`
	CreatedAt        time.Time `json:"created_at"`
}

func (OrderLine) TableName() string {
	return "order_lines"
}
