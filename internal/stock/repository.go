package stock

import (
	"context"

	"github.com/openretail/stockcore/internal/domain"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrUnitNotFound    = errors.New("product unit not found")
	ErrNoActingUser    = errors.New("no acting user could be resolved")
)

// ProductRepository provides product stock access. The delta operations are
// single conditional updates performed by the store; they are the only
// concurrency-safety guarantee in this package.
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// ApplySaleDelta atomically decrements stock and increments sales by qty,
	// keyed by product id, and returns the post-update record. Returns
	// ErrProductNotFound when no row matched.
	ApplySaleDelta(ctx context.Context, id int64, qty int64) (*domain.Product, error)

	// ApplyRestoreDelta atomically increments stock by stockDelta and
	// decrements sales by salesDelta, returning the post-update record.
	ApplyRestoreDelta(ctx context.Context, id int64, stockDelta, salesDelta int64) (*domain.Product, error)
}

// UnitRepository provides packaging-unit access.
type UnitRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.ProductUnit, error)

	// FindForProduct locates the unit for (product, unit). A zero unitID
	// selects the product's default unit.
	FindForProduct(ctx context.Context, productID, unitID int64) (*domain.ProductUnit, error)

	ListActiveByProduct(ctx context.Context, productID int64) ([]domain.ProductUnit, error)

	// IncrementPendingSync atomically adds delta to the unit's pending sync
	// accumulator.
	IncrementPendingSync(ctx context.Context, id int64, delta int64) error

	// Save persists a unit, unsetting any prior default of the same product
	// in the same transaction when the saved unit is the default.
	Save(ctx context.Context, unit *domain.ProductUnit) error
}

// MovementRepository is the append-only stock ledger.
type MovementRepository interface {
	Append(ctx context.Context, m *domain.StockMovement) error
	List(ctx context.Context, filter MovementFilter, page, pageSize int) ([]domain.StockMovement, int64, error)
}

// MovementFilter narrows ledger queries for audit and sync consumers.
type MovementFilter struct {
	ProductID    int64
	MovementType string
	SyncStatus   string
}

// OrderRepository exposes the read-only open-order view used for reservation
// accounting.
type OrderRepository interface {
	// ListOpenLinesByProduct returns lines of orders in pending or processing
	// status that reference the product.
	ListOpenLinesByProduct(ctx context.Context, productID int64) ([]domain.OrderLine, error)
}

// OperatorRepository resolves the acting user for ledger entries.
type OperatorRepository interface {
	// Resolve returns the operator for explicitID, or the designated default
	// administrative identity when explicitID is zero. ErrNoActingUser when
	// neither exists.
	Resolve(ctx context.Context, explicitID int64) (*domain.SysOpr, error)
}

// GormProductRepository is the GORM implementation of ProductRepository.
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query product")
	}
	return &p, nil
}

func (r *GormProductRepository) ApplySaleDelta(ctx context.Context, id int64, qty int64) (*domain.Product, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock": gorm.Expr("stock - ?", qty),
			"sales": gorm.Expr("sales + ?", qty),
		})
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "apply sale delta")
	}
	if result.RowsAffected == 0 {
		return nil, ErrProductNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *GormProductRepository) ApplyRestoreDelta(ctx context.Context, id int64, stockDelta, salesDelta int64) (*domain.Product, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock": gorm.Expr("stock + ?", stockDelta),
			"sales": gorm.Expr("sales - ?", salesDelta),
		})
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "apply restore delta")
	}
	if result.RowsAffected == 0 {
		return nil, ErrProductNotFound
	}
	return r.GetByID(ctx, id)
}

// GormUnitRepository is the GORM implementation of UnitRepository.
type GormUnitRepository struct {
	db *gorm.DB
}

func NewGormUnitRepository(db *gorm.DB) *GormUnitRepository {
	return &GormUnitRepository{db: db}
}

func (r *GormUnitRepository) GetByID(ctx context.Context, id int64) (*domain.ProductUnit, error) {
	var u domain.ProductUnit
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnitNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query product unit")
	}
	return &u, nil
}

func (r *GormUnitRepository) FindForProduct(ctx context.Context, productID, unitID int64) (*domain.ProductUnit, error) {
	query := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if unitID > 0 {
		query = query.Where("id = ?", unitID)
	} else {
		query = query.Where("is_default = ?", true)
	}
	var u domain.ProductUnit
	err := query.First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnitNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query product unit")
	}
	return &u, nil
}

func (r *GormUnitRepository) ListActiveByProduct(ctx context.Context, productID int64) ([]domain.ProductUnit, error) {
	var units []domain.ProductUnit
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_active = ?", productID, true).
		Order("pack_qty ASC").
		Find(&units).Error
	if err != nil {
		return nil, errors.Wrap(err, "list product units")
	}
	return units, nil
}

func (r *GormUnitRepository) IncrementPendingSync(ctx context.Context, id int64, delta int64) error {
	result := r.db.WithContext(ctx).
		Model(&domain.ProductUnit{}).
		Where("id = ?", id).
		Update("pending_sync_qty", gorm.Expr("pending_sync_qty + ?", delta))
	if result.Error != nil {
		return errors.Wrap(result.Error, "increment pending sync qty")
	}
	if result.RowsAffected == 0 {
		return ErrUnitNotFound
	}
	return nil
}

func (r *GormUnitRepository) Save(ctx context.Context, unit *domain.ProductUnit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if unit.IsDefault {
			// At most one default variant per product.
			if err := tx.Model(&domain.ProductUnit{}).
				Where("product_id = ? AND id <> ? AND is_default = ?", unit.ProductId, unit.ID, true).
				Update("is_default", false).Error; err != nil {
				return errors.Wrap(err, "unset prior default unit")
			}
		}
		return errors.Wrap(tx.Save(unit).Error, "save product unit")
	})
}

// GormMovementRepository is the GORM implementation of MovementRepository.
type GormMovementRepository struct {
	db *gorm.DB
}

func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

func (r *GormMovementRepository) Append(ctx context.Context, m *domain.StockMovement) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(m).Error, "append stock movement")
}

func (r *GormMovementRepository) List(ctx context.Context, filter MovementFilter, page, pageSize int) ([]domain.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.StockMovement{})
	if filter.ProductID > 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.MovementType != "" {
		query = query.Where("movement_type = ?", filter.MovementType)
	}
	if filter.SyncStatus != "" {
		query = query.Where("sync_status = ?", filter.SyncStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count stock movements")
	}

	var rows []domain.StockMovement
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "list stock movements")
	}
	return rows, total, nil
}

// GormOrderRepository is the GORM implementation of OrderRepository.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) ListOpenLinesByProduct(ctx context.Context, productID int64) ([]domain.OrderLine, error) {
	var lines []domain.OrderLine
	err := r.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = order_lines.order_id").
		Where("order_lines.product_id = ?", productID).
		Where("orders.status IN ?", []string{domain.OrderPending, domain.OrderProcessing}).
		Find(&lines).Error
	if err != nil {
		return nil, errors.Wrap(err, "list open order lines")
	}
	return lines, nil
}

// GormOperatorRepository is the GORM implementation of OperatorRepository.
type GormOperatorRepository struct {
	db              *gorm.DB
	defaultUsername string
}

func NewGormOperatorRepository(db *gorm.DB, defaultUsername string) *GormOperatorRepository {
	return &GormOperatorRepository{db: db, defaultUsername: defaultUsername}
}

func (r *GormOperatorRepository) Resolve(ctx context.Context, explicitID int64) (*domain.SysOpr, error) {
	var opr domain.SysOpr
	if explicitID > 0 {
		err := r.db.WithContext(ctx).First(&opr, explicitID).Error
		if err == nil {
			return &opr, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(err, "query operator")
		}
		// fall through to the default identity
	}
	err := r.db.WithContext(ctx).Where("username = ?", r.defaultUsername).First(&opr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActingUser
	}
	if err != nil {
		return nil, errors.Wrap(err, "query default operator")
	}
	return &opr, nil
}
