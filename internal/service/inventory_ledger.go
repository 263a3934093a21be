package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/trungpqhe173313/SEP490-sub002/internal/apperror"
	"github.com/trungpqhe173313/SEP490-sub002/internal/model"
	"github.com/trungpqhe173313/SEP490-sub002/internal/repository"
	"github.com/trungpqhe173313/SEP490-sub002/internal/ws"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// InventoryLedger is the authoritative per-(product, warehouse) quantity store.
type InventoryLedger interface {
	GetQuantity(ctx context.Context, productID, warehouseID int64) (int64, error)
	GetAggregateQuantity(ctx context.Context, productID int64) (int64, error)
	GetStockView(ctx context.Context, productID int64, warehouseID *int64) (*model.StockView, error)
	GetWarehouseBreakdown(ctx context.Context, productID int64) (*model.StockBreakdown, error)
	ApplyDelta(ctx context.Context, productID, warehouseID, delta int64) (int64, error)
	// ApplyBatch applies every entry or none. Entries on the same key are netted,
	// but each entry is still checked in order: a key whose running quantity would
	// dip below zero fails the batch even when later entries bring it back.
	ApplyBatch(ctx context.Context, entries []model.StockDelta) error
	// ApplyBatchTx applies the batch inside tx. The caller broadcasts with NotifyApplied after commit.
	ApplyBatchTx(tx *gorm.DB, entries []model.StockDelta) ([]model.InventoryRecord, error)
	NotifyApplied(action string, records []model.InventoryRecord)
}

type inventoryLedger struct {
	inventoryRepo repository.InventoryRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	events        ws.Publisher
}

func NewInventoryLedger(iRepo repository.InventoryRepository, pRepo repository.ProductRepository, wRepo repository.WarehouseRepository, events ws.Publisher) InventoryLedger {
	return &inventoryLedger{
		inventoryRepo: iRepo,
		productRepo:   pRepo,
		warehouseRepo: wRepo,
		events:        events,
	}
}

func (s *inventoryLedger) GetQuantity(ctx context.Context, productID, warehouseID int64) (int64, error) {
	qty, err := s.inventoryRepo.FindQuantity(ctx, productID, warehouseID)
	if err != nil {
		return 0, apperror.Internal(err)
	}
	return qty, nil
}

func (s *inventoryLedger) GetAggregateQuantity(ctx context.Context, productID int64) (int64, error) {
	qty, err := s.inventoryRepo.SumByProduct(ctx, productID)
	if err != nil {
		return 0, apperror.Internal(err)
	}
	return qty, nil
}

func (s *inventoryLedger) GetStockView(ctx context.Context, productID int64, warehouseID *int64) (*model.StockView, error) {
	if productID <= 0 {
		return nil, apperror.Validation("productId is required")
	}
	if warehouseID != nil && *warehouseID <= 0 {
		return nil, apperror.Validation("warehouseId must be greater than 0")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, lookupErr(err, "product not found")
	}

	view := &model.StockView{
		ProductID:   product.ID,
		ProductCode: product.Code,
		ProductName: product.Name,
	}

	// No warehouse filter means the aggregate across warehouses
	if warehouseID == nil {
		view.Quantity, err = s.GetAggregateQuantity(ctx, productID)
		if err != nil {
			return nil, err
		}
		return view, nil
	}

	if _, err := s.warehouseRepo.FindByID(ctx, *warehouseID); err != nil {
		return nil, lookupErr(err, "warehouse not found")
	}
	view.WarehouseID = warehouseID
	view.Quantity, err = s.GetQuantity(ctx, productID, *warehouseID)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *inventoryLedger) GetWarehouseBreakdown(ctx context.Context, productID int64) (*model.StockBreakdown, error) {
	if productID <= 0 {
		return nil, apperror.Validation("productId is required")
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, lookupErr(err, "product not found")
	}

	records, err := s.inventoryRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.WarehouseID)
	}
	warehouses, err := s.warehouseRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	names := make(map[int64]string, len(warehouses))
	for _, w := range warehouses {
		names[w.ID] = w.Name
	}

	out := &model.StockBreakdown{
		ProductID:   product.ID,
		ProductName: product.Name,
		Warehouses:  make([]model.WarehouseQuantity, 0, len(records)),
	}
	for _, r := range records {
		out.Warehouses = append(out.Warehouses, model.WarehouseQuantity{
			WarehouseID:   r.WarehouseID,
			WarehouseName: names[r.WarehouseID],
			Quantity:      r.Quantity,
		})
		out.Total += r.Quantity
	}
	return out, nil
}

func (s *inventoryLedger) ApplyDelta(ctx context.Context, productID, warehouseID, delta int64) (int64, error) {
	if productID <= 0 || warehouseID <= 0 {
		return 0, apperror.Validation("productId and warehouseId are required")
	}

	deltas := model.NetDeltas([]model.StockDelta{{ProductID: productID, WarehouseID: warehouseID, Delta: delta}})
	if len(deltas) == 0 {
		return s.GetQuantity(ctx, productID, warehouseID)
	}

	applied, err := s.inventoryRepo.ApplyDeltas(ctx, deltas)
	if err != nil {
		var neg *repository.NegativeStockError
		if errors.As(err, &neg) {
			return 0, apperror.InsufficientStock(neg.Error())
		}
		return 0, apperror.Internal(err)
	}

	s.NotifyApplied("stock_delta_applied", applied)
	return applied[0].Quantity, nil
}

func (s *inventoryLedger) ApplyBatch(ctx context.Context, entries []model.StockDelta) error {
	deltas := model.NetDeltas(entries)
	if len(deltas) == 0 {
		return nil
	}

	applied, err := s.inventoryRepo.ApplyDeltas(ctx, deltas)
	if err != nil {
		return batchErr(err)
	}
	s.NotifyApplied("stock_batch_applied", applied)
	return nil
}

func (s *inventoryLedger) ApplyBatchTx(tx *gorm.DB, entries []model.StockDelta) ([]model.InventoryRecord, error) {
	deltas := model.NetDeltas(entries)
	if len(deltas) == 0 {
		return nil, nil
	}

	applied, err := s.inventoryRepo.ApplyDeltasTx(tx, deltas)
	if err != nil {
		return nil, batchErr(err)
	}
	return applied, nil
}

func batchErr(err error) error {
	var neg *repository.NegativeStockError
	if errors.As(err, &neg) {
		log.Warn().
			Int64("product_id", neg.Key.ProductID).
			Int64("warehouse_id", neg.Key.WarehouseID).
			Int64("current", neg.Current).
			Int64("delta", neg.Delta).
			Msg("stock batch rejected")
		return apperror.PartialApplicationPrevented(
			fmt.Sprintf("stock batch rejected, no entry applied: %s", neg.Error()),
			apperror.InsufficientStock(neg.Error()),
		)
	}
	return apperror.Internal(err)
}

func (s *inventoryLedger) NotifyApplied(action string, records []model.InventoryRecord) {
	if s.events == nil {
		return
	}
	for _, r := range records {
		s.events.Publish(ws.NewEvent(ws.TypeStockUpdate, action, r))
	}
}
