package repository

import (
	"context"

	"github.com/trungpqhe173313/SEP490-sub002/internal/model"

	"gorm.io/gorm"
)

type SupplierRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Supplier, error)
}

type supplierRepo struct {
	db *gorm.DB
}

func NewSupplierRepo(db *gorm.DB) SupplierRepository {
	return &supplierRepo{db}
}

func (r *supplierRepo) FindByID(ctx context.Context, id int64) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}
