package app

import (
	evbus "github.com/asaskevich/EventBus"
	"github.com/openretail/stockcore/config"
	"github.com/openretail/stockcore/internal/stock"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SettingsProvider provides system settings access
type SettingsProvider interface {
	GetSettingsStringValue(category, key string) string
	GetSettingsInt64Value(category, key string) int64
	GetSettingsBoolValue(category, key string) bool
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// BusProvider provides the process event bus
type BusProvider interface {
	Bus() evbus.Bus
}

// StockProvider exposes the inventory core to collaborators such as the
// order-placement and order-cancellation HTTP handlers.
type StockProvider interface {
	StockEngine() *stock.Engine
	StockCalculator() *stock.Calculator
	Compensator() *stock.Compensator
	Movements() stock.MovementRepository
	Units() stock.UnitRepository
	Products() stock.ProductRepository
}

// AppContext combines all provider interfaces for full application context.
// Services should depend on specific providers or this combined interface.
type AppContext interface {
	DBProvider
	ConfigProvider
	SettingsProvider
	SchedulerProvider
	BusProvider
	StockProvider

	// Application lifecycle methods
	MigrateDB(track bool) error
	InitDb()
	DropAll()
}
