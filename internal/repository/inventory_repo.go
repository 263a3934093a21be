package repository

import (
	"context"
	"time"

	"github.com/trungpqhe173313/SEP490-sub002/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository interface {
	FindQuantity(ctx context.Context, productID, warehouseID int64) (int64, error)
	SumByProduct(ctx context.Context, productID int64) (int64, error)
	ListByProduct(ctx context.Context, productID int64) ([]model.InventoryRecord, error)
	// ApplyDeltas applies every delta in its own transaction, or none of them.
	ApplyDeltas(ctx context.Context, deltas []model.StockDelta) ([]model.InventoryRecord, error)
	// ApplyDeltasTx is ApplyDeltas inside the caller's transaction.
	ApplyDeltasTx(tx *gorm.DB, deltas []model.StockDelta) ([]model.InventoryRecord, error)
}

type inventoryRepo struct {
	db *gorm.DB
}

func NewInventoryRepo(db *gorm.DB) InventoryRepository {
	return &inventoryRepo{db}
}

func (r *inventoryRepo) FindQuantity(ctx context.Context, productID, warehouseID int64) (int64, error) {
	var qty int64
	err := r.db.WithContext(ctx).Model(&model.InventoryRecord{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Scan(&qty).Error
	return qty, err
}

func (r *inventoryRepo) SumByProduct(ctx context.Context, productID int64) (int64, error) {
	var qty int64
	err := r.db.WithContext(ctx).Model(&model.InventoryRecord{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("product_id = ?", productID).
		Scan(&qty).Error
	return qty, err
}

func (r *inventoryRepo) ListByProduct(ctx context.Context, productID int64) ([]model.InventoryRecord, error) {
	var records []model.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("warehouse_id ASC").
		Find(&records).Error
	return records, err
}

func (r *inventoryRepo) ApplyDeltas(ctx context.Context, deltas []model.StockDelta) ([]model.InventoryRecord, error) {
	var applied []model.InventoryRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		applied, err = r.ApplyDeltasTx(tx, deltas)
		return err
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// ApplyDeltasTx stages, validates, then commits. Deltas must already be netted and
// sorted (model.NetDeltas) so concurrent batches lock rows in the same order.
// A row fails when it would go negative at any point of its netted entries.
func (r *inventoryRepo) ApplyDeltasTx(tx *gorm.DB, deltas []model.StockDelta) ([]model.InventoryRecord, error) {
	staged := make([]model.InventoryRecord, 0, len(deltas))

	// 1. Make sure every row exists, then lock it (pessimistic locking)
	for i, d := range deltas {
		seed := model.InventoryRecord{ProductID: d.ProductID, WarehouseID: d.WarehouseID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return nil, err
		}

		var rec model.InventoryRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ? AND warehouse_id = ?", d.ProductID, d.WarehouseID).
			Take(&rec).Error; err != nil {
			return nil, err
		}

		// 2. Validate before anything is written
		if rec.Quantity+d.Low() < 0 {
			return nil, &NegativeStockError{Key: d.Key(), Current: rec.Quantity, Delta: d.Low(), Position: i}
		}
		rec.Quantity += d.Delta
		staged = append(staged, rec)
	}

	// 3. Commit all staged quantities
	now := time.Now()
	for i := range staged {
		staged[i].UpdatedAt = now
		if err := tx.Model(&model.InventoryRecord{}).
			Where("product_id = ? AND warehouse_id = ?", staged[i].ProductID, staged[i].WarehouseID).
			Updates(map[string]interface{}{
				"quantity":   staged[i].Quantity,
				"updated_at": now,
			}).Error; err != nil {
			return nil, err
		}
	}
	return staged, nil
}
