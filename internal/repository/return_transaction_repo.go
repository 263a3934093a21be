package repository

import (
	"context"

	"github.com/trungpqhe173313/SEP490-sub002/internal/model"

	"gorm.io/gorm"
)

type ReturnTransactionRepository interface {
	Create(ctx context.Context, rt *model.ReturnTransaction) error
	FindByID(ctx context.Context, id int64) (*model.ReturnTransaction, error)
	Search(ctx context.Context, search model.ReturnTransactionSearch) ([]model.ReturnTransaction, int64, error)
}

type returnTransactionRepo struct {
	db *gorm.DB
}

func NewReturnTransactionRepo(db *gorm.DB) ReturnTransactionRepository {
	return &returnTransactionRepo{db}
}

func (r *returnTransactionRepo) Create(ctx context.Context, rt *model.ReturnTransaction) error {
	return r.db.WithContext(ctx).Create(rt).Error
}

func (r *returnTransactionRepo) FindByID(ctx context.Context, id int64) (*model.ReturnTransaction, error) {
	var rt model.ReturnTransaction
	if err := r.db.WithContext(ctx).Preload("Details").First(&rt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *returnTransactionRepo) Search(ctx context.Context, search model.ReturnTransactionSearch) ([]model.ReturnTransaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ReturnTransaction{})
	if search.TransactionID != nil {
		q = q.Where("transaction_id = ?", *search.TransactionID)
	}
	if search.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *search.WarehouseID)
	}
	if search.CustomerID != nil {
		q = q.Where("customer_id = ?", *search.CustomerID)
	}
	if search.Reason != "" {
		q = q.Where("reason ILIKE ?", "%"+search.Reason+"%")
	}
	if search.From != nil {
		q = q.Where("created_at >= ?", *search.From)
	}
	if search.To != nil {
		q = q.Where("created_at <= ?", *search.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	paging := search.Paging.Normalize()
	var rows []model.ReturnTransaction
	err := q.Order("created_at DESC, id DESC").
		Offset(paging.Offset()).
		Limit(paging.Limit).
		Find(&rows).Error
	return rows, total, err
}
