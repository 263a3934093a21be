package repository

import (
	"context"

	"github.com/trungpqhe173313/SEP490-sub002/internal/model"

	"gorm.io/gorm"
)

type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *model.Warehouse) error
	FindByID(ctx context.Context, id int64) (*model.Warehouse, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.Warehouse, error)
}

type warehouseRepo struct {
	db *gorm.DB
}

func NewWarehouseRepo(db *gorm.DB) WarehouseRepository {
	return &warehouseRepo{db}
}

func (r *warehouseRepo) Create(ctx context.Context, warehouse *model.Warehouse) error {
	return r.db.WithContext(ctx).Create(warehouse).Error
}

func (r *warehouseRepo) FindByID(ctx context.Context, id int64) (*model.Warehouse, error) {
	var warehouse model.Warehouse
	if err := r.db.WithContext(ctx).First(&warehouse, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func (r *warehouseRepo) FindByIDs(ctx context.Context, ids []int64) ([]model.Warehouse, error) {
	var warehouses []model.Warehouse
	if len(ids) == 0 {
		return warehouses, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&warehouses).Error
	return warehouses, err
}
