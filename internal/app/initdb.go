package app

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/openretail/stockcore/internal/domain"
	"github.com/openretail/stockcore/pkg/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// checkDefaultOperator ensures the designated default administrative identity
// exists; ledger writes fall back to it when a sale carries no explicit
// operator.
func (a *Application) checkDefaultOperator() {
	const defaultPassword = "stockcore"

	sum := sha256.Sum256([]byte(defaultPassword))
	hashedPassword := hex.EncodeToString(sum[:])

	var operator domain.SysOpr
	err := a.gormDB.Where("username = ?", DefaultOperatorUsername).First(&operator).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := a.gormDB.Create(&domain.SysOpr{
			ID:        common.UUIDint64(),
			Realname:  "administrator",
			Mobile:    "0000",
			Email:     common.NA,
			Username:  DefaultOperatorUsername,
			Password:  hashedPassword,
			Level:     "super",
			Status:    common.ENABLED,
			Remark:    "default stock operator",
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default operator", zap.Error(err))
		} else {
			zap.L().Info("initialized default operator account",
				zap.String("username", DefaultOperatorUsername))
		}
		return
	case err != nil:
		zap.L().Error("failed to query default operator", zap.Error(err))
		return
	}

	if !strings.EqualFold(operator.Status, common.ENABLED) {
		if err := a.gormDB.Model(&domain.SysOpr{}).
			Where("id = ?", operator.ID).
			Update("status", common.ENABLED).Error; err != nil {
			zap.L().Error("failed to re-enable default operator", zap.Error(err))
		}
	}
}

// checkSettings seeds the runtime settings consumed by the stock jobs.
func (a *Application) checkSettings() {
	defaults := []domain.SysConfig{
		{Type: "stock", Name: "low_stock_threshold", Value: "10", Remark: "stock level that triggers a low-stock warning"},
		{Type: "stock", Name: "oprlog_retention_days", Value: "365", Remark: "operator log retention"},
	}
	for _, item := range defaults {
		var existing domain.SysConfig
		err := a.gormDB.Where("type = ? AND name = ?", item.Type, item.Name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			item.ID = common.UUIDint64()
			if err := a.gormDB.Create(&item).Error; err != nil {
				zap.L().Error("failed to seed setting",
					zap.String("name", item.Name), zap.Error(err))
			}
		}
	}
}
