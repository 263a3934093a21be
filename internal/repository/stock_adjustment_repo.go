package repository

import (
	"context"

	"github.com/trungpqhe173313/SEP490-sub002/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockAdjustmentRepository interface {
	Create(ctx context.Context, adj *model.StockAdjustment) error
	FindByID(ctx context.Context, id int64) (*model.StockAdjustment, error)
	List(ctx context.Context, filter model.StockAdjustmentFilter) ([]model.StockAdjustment, int64, error)
	// WithLocked loads the adjustment (details included) under a row lock and runs fn in
	// the same transaction. Returns gorm.ErrRecordNotFound when the id does not exist.
	WithLocked(ctx context.Context, id int64, fn func(tx *gorm.DB, adj *model.StockAdjustment) error) error
	SaveTx(tx *gorm.DB, adj *model.StockAdjustment) error
	ReplaceDetailsTx(tx *gorm.DB, adj *model.StockAdjustment) error
	DeleteTx(tx *gorm.DB, id int64) error
}

type stockAdjustmentRepo struct {
	db *gorm.DB
}

func NewStockAdjustmentRepo(db *gorm.DB) StockAdjustmentRepository {
	return &stockAdjustmentRepo{db}
}

func (r *stockAdjustmentRepo) Create(ctx context.Context, adj *model.StockAdjustment) error {
	return r.db.WithContext(ctx).Create(adj).Error
}

func (r *stockAdjustmentRepo) FindByID(ctx context.Context, id int64) (*model.StockAdjustment, error) {
	var adj model.StockAdjustment
	err := r.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&adj, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &adj, nil
}

func (r *stockAdjustmentRepo) List(ctx context.Context, filter model.StockAdjustmentFilter) ([]model.StockAdjustment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockAdjustment{})
	if filter.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	paging := filter.Paging.Normalize()
	var adjustments []model.StockAdjustment
	err := q.Preload("Details").
		Order("created_at DESC").
		Offset(paging.Offset()).
		Limit(paging.Limit).
		Find(&adjustments).Error
	return adjustments, total, err
}

func (r *stockAdjustmentRepo) WithLocked(ctx context.Context, id int64, fn func(tx *gorm.DB, adj *model.StockAdjustment) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var adj model.StockAdjustment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&adj, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("stock_adjustment_id = ?", id).Order("id ASC").Find(&adj.Details).Error; err != nil {
			return err
		}
		return fn(tx, &adj)
	})
}

func (r *stockAdjustmentRepo) SaveTx(tx *gorm.DB, adj *model.StockAdjustment) error {
	return tx.Model(adj).Select("status", "note", "resolved_at", "resolved_by", "updated_by", "updated_at").Updates(adj).Error
}

func (r *stockAdjustmentRepo) ReplaceDetailsTx(tx *gorm.DB, adj *model.StockAdjustment) error {
	if err := tx.Where("stock_adjustment_id = ?", adj.ID).Delete(&model.StockAdjustmentDetail{}).Error; err != nil {
		return err
	}
	for i := range adj.Details {
		adj.Details[i].ID = 0
		adj.Details[i].StockAdjustmentID = adj.ID
	}
	if len(adj.Details) == 0 {
		return nil
	}
	return tx.Create(&adj.Details).Error
}

func (r *stockAdjustmentRepo) DeleteTx(tx *gorm.DB, id int64) error {
	if err := tx.Where("stock_adjustment_id = ?", id).Delete(&model.StockAdjustmentDetail{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.StockAdjustment{}, "id = ?", id).Error
}
