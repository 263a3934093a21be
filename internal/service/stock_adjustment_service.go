package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trungpqhe173313/SEP490-sub002/internal/apperror"
	"github.com/trungpqhe173313/SEP490-sub002/internal/lock"
	"github.com/trungpqhe173313/SEP490-sub002/internal/model"
	"github.com/trungpqhe173313/SEP490-sub002/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type StockAdjustmentService interface {
	CreateDraft(ctx context.Context, req *model.CreateAdjustmentRequest, actor string) (*model.StockAdjustmentResponse, error)
	UpdateDraft(ctx context.Context, id int64, req *model.UpdateAdjustmentRequest, actor string) (*model.StockAdjustmentResponse, error)
	Resolve(ctx context.Context, id int64, actor string) (*model.StockAdjustmentResponse, error)
	// DeleteDraft reports false, without error, when the adjustment is already resolved.
	DeleteDraft(ctx context.Context, id int64) (bool, error)
	GetDraft(ctx context.Context, id int64) (*model.StockAdjustmentResponse, error)
	List(ctx context.Context, filter model.StockAdjustmentFilter) (*model.Page[model.StockAdjustmentResponse], error)
}

type stockAdjustmentService struct {
	adjustmentRepo repository.StockAdjustmentRepository
	productRepo    repository.ProductRepository
	warehouseRepo  repository.WarehouseRepository
	ledger         InventoryLedger
	locker         lock.Locker
}

func NewStockAdjustmentService(aRepo repository.StockAdjustmentRepository, pRepo repository.ProductRepository, wRepo repository.WarehouseRepository, ledger InventoryLedger, locker lock.Locker) StockAdjustmentService {
	return &stockAdjustmentService{
		adjustmentRepo: aRepo,
		productRepo:    pRepo,
		warehouseRepo:  wRepo,
		ledger:         ledger,
		locker:         locker,
	}
}

func adjustmentLockKey(id int64) string {
	return fmt.Sprintf("stock-adjustment:%d", id)
}

func (s *stockAdjustmentService) CreateDraft(ctx context.Context, req *model.CreateAdjustmentRequest, actor string) (*model.StockAdjustmentResponse, error) {
	if req == nil {
		return nil, apperror.Validation("request body is required")
	}
	if req.WarehouseID <= 0 {
		return nil, apperror.Validation("warehouseId is required")
	}
	if err := s.checkDetails(ctx, req.Details); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.warehouseRepo.FindByID(ctx, req.WarehouseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Validation(fmt.Sprintf("warehouse %d does not exist", req.WarehouseID))
		}
		return nil, apperror.Internal(err)
	}

	details, err := s.reconcile(ctx, req.WarehouseID, req.Details)
	if err != nil {
		return nil, err
	}

	adj := &model.StockAdjustment{
		WarehouseID: req.WarehouseID,
		Status:      model.AdjustmentDraft,
		Note:        req.Note,
		Details:     details,
	}
	adj.CreatedBy = actor
	adj.UpdatedBy = actor

	if err := s.adjustmentRepo.Create(ctx, adj); err != nil {
		return nil, apperror.Internal(err)
	}

	log.Info().Int64("adjustment_id", adj.ID).Int64("warehouse_id", adj.WarehouseID).Int("lines", len(details)).Msg("stock adjustment drafted")
	return s.enrichOne(ctx, adj)
}

func (s *stockAdjustmentService) UpdateDraft(ctx context.Context, id int64, req *model.UpdateAdjustmentRequest, actor string) (*model.StockAdjustmentResponse, error) {
	if id <= 0 {
		return nil, apperror.Validation("invalid stock adjustment id")
	}
	if req == nil {
		return nil, apperror.Validation("request body is required")
	}
	if err := s.checkDetails(ctx, req.Details); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var updated *model.StockAdjustment
	err := lock.With(ctx, s.locker, adjustmentLockKey(id), func() error {
		return s.adjustmentRepo.WithLocked(ctx, id, func(tx *gorm.DB, adj *model.StockAdjustment) error {
			if !adj.Allows(model.OpUpdate) {
				return apperror.InvalidState("stock adjustment is already resolved and cannot be updated")
			}

			details, err := s.reconcile(ctx, adj.WarehouseID, req.Details)
			if err != nil {
				return err
			}
			adj.Details = details
			adj.Note = req.Note
			adj.UpdatedBy = actor
			adj.UpdatedAt = time.Now()

			if err := s.adjustmentRepo.ReplaceDetailsTx(tx, adj); err != nil {
				return err
			}
			if err := s.adjustmentRepo.SaveTx(tx, adj); err != nil {
				return err
			}
			updated = adj
			return nil
		})
	})
	if err != nil {
		return nil, adjustmentErr(err)
	}

	return s.enrichOne(ctx, updated)
}

// Resolve applies the differences stored at the last create/update. The ledger
// writes and the status flip commit in the same transaction.
func (s *stockAdjustmentService) Resolve(ctx context.Context, id int64, actor string) (*model.StockAdjustmentResponse, error) {
	if id <= 0 {
		return nil, apperror.Validation("invalid stock adjustment id")
	}

	var (
		resolved *model.StockAdjustment
		applied  []model.InventoryRecord
	)
	err := lock.With(ctx, s.locker, adjustmentLockKey(id), func() error {
		return s.adjustmentRepo.WithLocked(ctx, id, func(tx *gorm.DB, adj *model.StockAdjustment) error {
			if !adj.Allows(model.OpResolve) {
				return apperror.InvalidState("stock adjustment is already resolved")
			}

			var err error
			applied, err = s.ledger.ApplyBatchTx(tx, adj.Deltas())
			if err != nil {
				return err
			}

			now := time.Now()
			adj.Status = model.AdjustmentResolved
			adj.ResolvedAt = &now
			adj.ResolvedBy = actor
			adj.UpdatedBy = actor
			adj.UpdatedAt = now
			if err := s.adjustmentRepo.SaveTx(tx, adj); err != nil {
				return err
			}
			resolved = adj
			return nil
		})
	})
	if err != nil {
		if apperror.Is(err, apperror.KindPartialApplicationPrevented) {
			log.Warn().Err(err).Int64("adjustment_id", id).Msg("stock adjustment resolve rolled back")
		}
		return nil, adjustmentErr(err)
	}

	s.ledger.NotifyApplied("stock_adjustment_resolved", applied)
	log.Info().Int64("adjustment_id", id).Int64("warehouse_id", resolved.WarehouseID).Int("rows", len(applied)).Msg("stock adjustment resolved")
	return s.enrichOne(ctx, resolved)
}

func (s *stockAdjustmentService) DeleteDraft(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, apperror.Validation("invalid stock adjustment id")
	}

	deleted := false
	err := lock.With(ctx, s.locker, adjustmentLockKey(id), func() error {
		return s.adjustmentRepo.WithLocked(ctx, id, func(tx *gorm.DB, adj *model.StockAdjustment) error {
			if !adj.Allows(model.OpDelete) {
				return nil
			}
			if err := s.adjustmentRepo.DeleteTx(tx, adj.ID); err != nil {
				return err
			}
			deleted = true
			return nil
		})
	})
	if err != nil {
		return false, adjustmentErr(err)
	}

	if deleted {
		log.Info().Int64("adjustment_id", id).Msg("stock adjustment draft deleted")
	}
	return deleted, nil
}

func (s *stockAdjustmentService) GetDraft(ctx context.Context, id int64) (*model.StockAdjustmentResponse, error) {
	if id <= 0 {
		return nil, apperror.Validation("invalid stock adjustment id")
	}
	adj, err := s.adjustmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "stock adjustment not found")
	}
	return s.enrichOne(ctx, adj)
}

func (s *stockAdjustmentService) List(ctx context.Context, filter model.StockAdjustmentFilter) (*model.Page[model.StockAdjustmentResponse], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("unknown status %q", filter.Status))
	}
	filter.Paging = filter.Paging.Normalize()

	adjustments, total, err := s.adjustmentRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	items, err := s.enrich(ctx, adjustments)
	if err != nil {
		return nil, err
	}
	return &model.Page[model.StockAdjustmentResponse]{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// checkDetails rejects empty or duplicated product lines and unknown products.
func (s *stockAdjustmentService) checkDetails(ctx context.Context, details []model.AdjustmentDetailInput) error {
	if len(details) == 0 {
		return apperror.Validation("details must not be empty")
	}

	seen := make(map[int64]bool, len(details))
	ids := make([]int64, 0, len(details))
	for _, d := range details {
		if d.ProductID <= 0 {
			return apperror.Validation("productId is required for every detail")
		}
		if seen[d.ProductID] {
			return apperror.Validation(fmt.Sprintf("product %d appears more than once", d.ProductID))
		}
		seen[d.ProductID] = true
		ids = append(ids, d.ProductID)
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return apperror.Internal(err)
	}
	if len(products) != len(ids) {
		found := make(map[int64]bool, len(products))
		for _, p := range products {
			found[p.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return apperror.Validation(fmt.Sprintf("product %d does not exist", id))
			}
		}
	}
	return nil
}

// reconcile snapshots the ledger quantity for each line and computes its difference.
func (s *stockAdjustmentService) reconcile(ctx context.Context, warehouseID int64, inputs []model.AdjustmentDetailInput) ([]model.StockAdjustmentDetail, error) {
	details := make([]model.StockAdjustmentDetail, 0, len(inputs))
	for _, in := range inputs {
		system, err := s.ledger.GetQuantity(ctx, in.ProductID, warehouseID)
		if err != nil {
			return nil, err
		}
		d := model.StockAdjustmentDetail{
			ProductID:      in.ProductID,
			ActualQuantity: in.ActualQuantity,
			Note:           in.Note,
		}
		d.Reconcile(system)
		details = append(details, d)
	}
	return details, nil
}

func (s *stockAdjustmentService) enrichOne(ctx context.Context, adj *model.StockAdjustment) (*model.StockAdjustmentResponse, error) {
	out, err := s.enrich(ctx, []model.StockAdjustment{*adj})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// enrich joins warehouse and product display fields with one lookup per collaborator.
func (s *stockAdjustmentService) enrich(ctx context.Context, adjustments []model.StockAdjustment) ([]model.StockAdjustmentResponse, error) {
	var warehouseIDs, productIDs []int64
	for i := range adjustments {
		warehouseIDs = append(warehouseIDs, adjustments[i].WarehouseID)
		productIDs = append(productIDs, adjustments[i].ProductIDs()...)
	}

	warehouses, err := s.warehouseRepo.FindByIDs(ctx, warehouseIDs)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	products, err := s.productRepo.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	warehouseByID := make(map[int64]*model.Warehouse, len(warehouses))
	for i := range warehouses {
		warehouseByID[warehouses[i].ID] = &warehouses[i]
	}
	productByID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	out := make([]model.StockAdjustmentResponse, 0, len(adjustments))
	for i := range adjustments {
		out = append(out, adjustments[i].ToResponse(warehouseByID[adjustments[i].WarehouseID], productByID))
	}
	return out, nil
}

func adjustmentErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.NotFound("stock adjustment not found")
	case errors.Is(err, lock.ErrNotObtained):
		return apperror.Conflict("stock adjustment is being modified, retry later")
	default:
		return passThrough(err)
	}
}
