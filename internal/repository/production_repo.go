package repository

import (
	"context"
	"errors"

	"github.com/trungpqhe173313/SEP490-sub002/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductionRepository interface {
	Create(ctx context.Context, session *model.ProductionSession) error
	FindByID(ctx context.Context, id int64) (*model.ProductionSession, error)
	FindRunningByDevice(ctx context.Context, deviceCode string) (*model.ProductionSession, error)
	// AppendPackage assigns BagIndex = 1 + max(existing) for (production, product) and inserts.
	AppendPackage(ctx context.Context, sub *model.PackageSubmission) error
	SummarizeByProduction(ctx context.Context, productionID int64) ([]WeightTotals, error)
	ListPackages(ctx context.Context, productionID int64, productID *int64) ([]model.PackageSubmission, error)
}

// WeightTotals is the aggregate row per product of a production run.
type WeightTotals struct {
	ProductID   int64           `gorm:"column:product_id"`
	TotalBags   int64           `gorm:"column:total_bags"`
	TotalWeight decimal.Decimal `gorm:"column:total_weight"`
}

type productionRepo struct {
	db *gorm.DB
}

func NewProductionRepo(db *gorm.DB) ProductionRepository {
	return &productionRepo{db}
}

func preloadTargets(db *gorm.DB) *gorm.DB {
	return db.Preload("Targets", func(db *gorm.DB) *gorm.DB {
		return db.Order("product_id ASC")
	}).Preload("Targets.Product")
}

func (r *productionRepo) Create(ctx context.Context, session *model.ProductionSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *productionRepo) FindByID(ctx context.Context, id int64) (*model.ProductionSession, error) {
	var session model.ProductionSession
	if err := preloadTargets(r.db.WithContext(ctx)).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *productionRepo) FindRunningByDevice(ctx context.Context, deviceCode string) (*model.ProductionSession, error) {
	var session model.ProductionSession
	err := preloadTargets(r.db.WithContext(ctx)).
		Where("device_code = ? AND status = ?", deviceCode, model.ProductionRunning).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *productionRepo) AppendPackage(ctx context.Context, sub *model.PackageSubmission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Session must still be running on the submitting device
		var session model.ProductionSession
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id", "device_code", "status").
			First(&session, "id = ?", sub.ProductionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotRunning
		}
		if err != nil {
			return err
		}
		if !session.IsRunning() || session.DeviceCode != sub.DeviceCode {
			return ErrSessionNotRunning
		}

		// The target row is the per-(production, product) mutex
		var target model.ProductionTarget
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("production_id = ? AND product_id = ?", sub.ProductionID, sub.ProductID).
			Take(&target).Error; err != nil {
			return err
		}

		var current int
		if err := tx.Model(&model.PackageSubmission{}).
			Select("COALESCE(MAX(bag_index), 0)").
			Where("production_id = ? AND product_id = ?", sub.ProductionID, sub.ProductID).
			Scan(&current).Error; err != nil {
			return err
		}

		sub.BagIndex = current + 1
		return tx.Create(sub).Error
	})
}

func (r *productionRepo) SummarizeByProduction(ctx context.Context, productionID int64) ([]WeightTotals, error) {
	var totals []WeightTotals
	err := r.db.WithContext(ctx).Model(&model.PackageSubmission{}).
		Select("product_id, COUNT(*) AS total_bags, COALESCE(SUM(actual_weight), 0) AS total_weight").
		Where("production_id = ?", productionID).
		Group("product_id").
		Order("product_id ASC").
		Scan(&totals).Error
	return totals, err
}

func (r *productionRepo) ListPackages(ctx context.Context, productionID int64, productID *int64) ([]model.PackageSubmission, error) {
	q := r.db.WithContext(ctx).Where("production_id = ?", productionID)
	if productID != nil {
		q = q.Where("product_id = ?", *productID)
	}

	var subs []model.PackageSubmission
	err := q.Order("product_id ASC, bag_index ASC").Find(&subs).Error
	return subs, err
}
