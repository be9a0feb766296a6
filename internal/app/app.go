package app

import (
	"context"
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	evbus "github.com/asaskevich/EventBus"
	"github.com/openretail/stockcore/config"
	"github.com/openretail/stockcore/internal/domain"
	"github.com/openretail/stockcore/internal/stock"
	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

const (
	DefaultOperatorUsername = "admin"
	restorePoolSize         = 32
)

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	sched     *cron.Cron
	bus       evbus.Bus
	pool      *ants.Pool

	unitCache   *stock.UnitCache
	engine      *stock.Engine
	calculator  *stock.Calculator
	compensator *stock.Compensator
	movements   stock.MovementRepository
	units       stock.UnitRepository
	products    stock.ProductRepository
}

// Ensure Application implements all interfaces
var (
	_ DBProvider     = (*Application)(nil)
	_ ConfigProvider = (*Application)(nil)
	_ StockProvider  = (*Application)(nil)
	_ AppContext     = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

func (a *Application) Init(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	// Initialize zap logger
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	zapConfig.OutputPaths = []string{"stdout"}
	if cfg.Logger.FileEnable {
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, cfg.Logger.Filename)
	}

	// Build logger with file rotation if enabled
	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)

	// Initialize database connection
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	a.gormDB = getDatabase(cfg.Database)
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	// Ensure database schema is migrated before seeding
	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	// wait for database initialization to complete
	go func() {
		time.Sleep(3 * time.Second)
		a.checkDefaultOperator()
		a.checkSettings()
	}()

	a.bus = evbus.New()
	a.pool, err = ants.NewPool(restorePoolSize)
	if err != nil {
		zap.S().Errorf("restore pool init error: %v", err)
	}

	a.initStock()
	a.initJob()
}

// initStock wires the inventory core onto the database handle.
func (a *Application) initStock() {
	a.products = stock.NewGormProductRepository(a.gormDB)
	a.units = stock.NewGormUnitRepository(a.gormDB)
	a.movements = stock.NewGormMovementRepository(a.gormDB)
	orders := stock.NewGormOrderRepository(a.gormDB)
	operators := stock.NewGormOperatorRepository(a.gormDB, DefaultOperatorUsername)

	threshold := a.GetSettingsInt64Value("stock", "low_stock_threshold")
	if threshold <= 0 {
		threshold = stock.DefaultLowStockThreshold
	}

	a.unitCache = stock.NewUnitCache()
	a.engine = stock.NewEngine(a.products, a.units, a.movements, operators,
		stock.WithBus(a.bus),
		stock.WithUnitCache(a.unitCache),
		stock.WithRestorePool(a.pool),
		stock.WithLowStockThreshold(threshold),
	)
	a.calculator = stock.NewCalculator(a.products, a.units, orders, a.unitCache)

	var loyalty stock.LoyaltyService
	if a.appConfig.Loyalty.Endpoint != "" {
		loyalty = stock.NewHTTPLoyaltyService(
			a.appConfig.Loyalty.Endpoint,
			a.appConfig.Loyalty.Token,
			time.Duration(a.appConfig.Loyalty.Timeout)*time.Second,
		)
	}
	a.compensator = stock.NewCompensator(a.engine, loyalty, false)
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEBUG_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	if track {
		if err := a.gormDB.Debug().Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	} else {
		if err := a.gormDB.Migrator().AutoMigrate(domain.Tables...); err != nil {
			zap.S().Error(err)
		}
	}
	return nil
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

func (a *Application) InitDb() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
	err := a.gormDB.Migrator().AutoMigrate(domain.Tables...)
	if err != nil {
		zap.S().Error(err)
	}
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// Bus returns the process event bus
func (a *Application) Bus() evbus.Bus {
	return a.bus
}

// StockEngine returns the stock mutation engine
func (a *Application) StockEngine() *stock.Engine {
	return a.engine
}

// StockCalculator returns the availability calculator
func (a *Application) StockCalculator() *stock.Calculator {
	return a.calculator
}

// Compensator returns the order-cancellation compensator
func (a *Application) Compensator() *stock.Compensator {
	return a.compensator
}

// Movements returns the stock ledger repository
func (a *Application) Movements() stock.MovementRepository {
	return a.movements
}

// Units returns the packaging unit repository
func (a *Application) Units() stock.UnitRepository {
	return a.units
}

// Products returns the product repository
func (a *Application) Products() stock.ProductRepository {
	return a.products
}

// StartBackgroundJobs keeps the scheduler alive until ctx is cancelled.
func (a *Application) StartBackgroundJobs(ctx context.Context) {
	<-ctx.Done()
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.pool != nil {
		a.pool.Release()
	}
	_ = zap.L().Sync()
}
