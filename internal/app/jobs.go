package app

import (
	"time"

	"github.com/openretail/stockcore/internal/domain"
	"github.com/openretail/stockcore/internal/stock"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	a.subscribeStockAlerts()

	var err error
	_, err = a.sched.AddFunc("@every 5m", func() {
		a.SchedLowStockScanTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		days := a.GetSettingsInt64Value("stock", "oprlog_retention_days")
		if days <= 0 {
			days = 365
		}
		a.gormDB.
			Where("opt_time < ? ", time.Now().
				Add(-time.Hour*24*time.Duration(days))).Delete(domain.SysOprLog{})
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// subscribeStockAlerts turns engine signals into operator log entries so the
// degraded states stay visible after the process log rotates.
func (a *Application) subscribeStockAlerts() {
	handler := func(action string) func(alert stock.StockAlert) {
		return func(alert stock.StockAlert) {
			a.gormDB.Create(&domain.SysOprLog{
				OprName:   "system",
				OptAction: action,
				OptDesc:   alert.Title + " (" + alert.Sku + "): " + alert.Reason,
				OptTime:   time.Now(),
			})
		}
	}
	if err := a.bus.Subscribe(stock.TopicStockOut, handler("stock_out")); err != nil {
		zap.S().Errorf("subscribe %s error %s", stock.TopicStockOut, err.Error())
	}
	if err := a.bus.Subscribe(stock.TopicStockUnaudited, handler("stock_unaudited")); err != nil {
		zap.S().Errorf("subscribe %s error %s", stock.TopicStockUnaudited, err.Error())
	}
}

// SchedLowStockScanTask reports products at or below the low-stock threshold.
func (a *Application) SchedLowStockScanTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	threshold := a.GetSettingsInt64Value("stock", "low_stock_threshold")
	if threshold <= 0 {
		threshold = stock.DefaultLowStockThreshold
	}

	var products []domain.Product
	if err := a.gormDB.Where("stock <= ?", threshold).Find(&products).Error; err != nil {
		zap.L().Error("low stock scan failed", zap.Error(err))
		return
	}
	for _, p := range products {
		topic := stock.TopicStockLow
		reason := "low stock"
		if p.Stock <= 0 {
			topic = stock.TopicStockOut
			reason = "out of stock"
		}
		a.bus.Publish(topic, stock.StockAlert{
			ProductId: p.ID,
			Sku:       p.Sku,
			Title:     p.Title,
			Stock:     p.Stock,
			Reason:    reason,
		})
	}
	if len(products) > 0 {
		zap.L().Info("low stock scan completed",
			zap.String("namespace", "stock"),
			zap.Int("flagged", len(products)),
		)
	}
}
