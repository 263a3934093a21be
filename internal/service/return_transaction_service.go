package service

import (
	"context"
	"errors"

	"github.com/trungpqhe173313/SEP490-sub002/internal/apperror"
	"github.com/trungpqhe173313/SEP490-sub002/internal/model"
	"github.com/trungpqhe173313/SEP490-sub002/internal/repository"

	"gorm.io/gorm"
)

// ReturnTransactionService is read-only: it never touches the ledger.
type ReturnTransactionService interface {
	GetDetail(ctx context.Context, id int64) (*model.ReturnTransactionDetailView, error)
	GetData(ctx context.Context, search model.ReturnTransactionSearch) (*model.Page[model.ReturnTransactionRow], error)
}

type returnTransactionService struct {
	returnRepo      repository.ReturnTransactionRepository
	transactionRepo repository.TransactionRepository
	warehouseRepo   repository.WarehouseRepository
	supplierRepo    repository.SupplierRepository
	userRepo        repository.UserRepository
	productRepo     repository.ProductRepository
}

func NewReturnTransactionService(
	rRepo repository.ReturnTransactionRepository,
	tRepo repository.TransactionRepository,
	wRepo repository.WarehouseRepository,
	sRepo repository.SupplierRepository,
	uRepo repository.UserRepository,
	pRepo repository.ProductRepository,
) ReturnTransactionService {
	return &returnTransactionService{
		returnRepo:      rRepo,
		transactionRepo: tRepo,
		warehouseRepo:   wRepo,
		supplierRepo:    sRepo,
		userRepo:        uRepo,
		productRepo:     pRepo,
	}
}

func (s *returnTransactionService) GetDetail(ctx context.Context, id int64) (*model.ReturnTransactionDetailView, error) {
	if id <= 0 {
		return nil, apperror.Validation("invalid return transaction id")
	}

	rt, err := s.returnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "return transaction not found")
	}
	origin, err := s.transactionRepo.FindByID(ctx, rt.TransactionID)
	if err != nil {
		return nil, lookupErr(err, "original transaction not found")
	}

	view := &model.ReturnTransactionDetailView{
		ID:              rt.ID,
		TransactionID:   rt.TransactionID,
		TransactionCode: origin.Code,
		TransactionType: origin.Type,
		Reason:          rt.Reason,
		WarehouseID:     rt.WarehouseID,
		CreatedAt:       rt.CreatedAt,
	}

	// Collaborator lookups: a missing display record leaves the field empty
	warehouse, err := s.warehouseRepo.FindByID(ctx, rt.WarehouseID)
	if err := optional(err); err != nil {
		return nil, err
	}
	if warehouse != nil {
		view.WarehouseName = warehouse.Name
	}

	supplierID := rt.SupplierID
	if supplierID == nil {
		supplierID = origin.SupplierID
	}
	if supplierID != nil {
		view.SupplierID = supplierID
		supplier, err := s.supplierRepo.FindByID(ctx, *supplierID)
		if err := optional(err); err != nil {
			return nil, err
		}
		if supplier != nil {
			view.SupplierName = supplier.Name
		}
	}

	customerID := rt.CustomerID
	if customerID == nil {
		customerID = origin.CustomerID
	}
	if customerID != nil {
		user, err := s.userRepo.FindByID(ctx, *customerID)
		if err := optional(err); err != nil {
			return nil, err
		}
		if user != nil {
			display := user.ToDisplay()
			view.Customer = &display
		}
	}

	lines, err := s.reconcileLines(ctx, rt, origin)
	if err != nil {
		return nil, err
	}
	view.Lines = lines
	return view, nil
}

// reconcileLines pairs every returned product with the quantity on the original document.
func (s *returnTransactionService) reconcileLines(ctx context.Context, rt *model.ReturnTransaction, origin *model.Transaction) ([]model.ReturnLineView, error) {
	original := make(map[int64]int64, len(origin.Details))
	for _, d := range origin.Details {
		original[d.ProductID] += d.Quantity
	}

	var order []int64
	returned := make(map[int64]int64, len(rt.Details))
	for _, d := range rt.Details {
		if _, ok := returned[d.ProductID]; !ok {
			order = append(order, d.ProductID)
		}
		returned[d.ProductID] += d.Quantity
	}

	products, err := s.productRepo.FindByIDs(ctx, order)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	byID := make(map[int64]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]model.ReturnLineView, 0, len(order))
	for _, productID := range order {
		p := byID[productID]
		lines = append(lines, model.ReturnLineView{
			ProductID:        productID,
			ProductCode:      p.Code,
			ProductName:      p.Name,
			OriginalQuantity: original[productID],
			ReturnedQuantity: returned[productID],
		})
	}
	return lines, nil
}

func (s *returnTransactionService) GetData(ctx context.Context, search model.ReturnTransactionSearch) (*model.Page[model.ReturnTransactionRow], error) {
	if search.From != nil && search.To != nil && search.From.After(*search.To) {
		return nil, apperror.Validation("from must not be after to")
	}
	search.Paging = search.Paging.Normalize()

	rows, total, err := s.returnRepo.Search(ctx, search)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	var warehouseIDs, customerIDs []int64
	for _, r := range rows {
		warehouseIDs = append(warehouseIDs, r.WarehouseID)
		if r.CustomerID != nil {
			customerIDs = append(customerIDs, *r.CustomerID)
		}
	}

	warehouses, err := s.warehouseRepo.FindByIDs(ctx, warehouseIDs)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	users, err := s.userRepo.FindByIDs(ctx, customerIDs)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	warehouseNames := make(map[int64]string, len(warehouses))
	for _, w := range warehouses {
		warehouseNames[w.ID] = w.Name
	}
	customers := make(map[int64]model.CustomerDisplay, len(users))
	for i := range users {
		customers[users[i].ID] = users[i].ToDisplay()
	}

	items := make([]model.ReturnTransactionRow, 0, len(rows))
	for _, r := range rows {
		row := model.ReturnTransactionRow{
			ID:            r.ID,
			TransactionID: r.TransactionID,
			Reason:        r.Reason,
			WarehouseID:   r.WarehouseID,
			WarehouseName: warehouseNames[r.WarehouseID],
			CreatedAt:     r.CreatedAt,
		}
		if r.CustomerID != nil {
			if c, ok := customers[*r.CustomerID]; ok {
				row.Customer = &c
			}
		}
		items = append(items, row)
	}

	return &model.Page[model.ReturnTransactionRow]{
		Items: items,
		Total: total,
		Page:  search.Page,
		Limit: search.Limit,
	}, nil
}

// optional treats a not-found collaborator record as absent rather than as a failure.
func optional(err error) error {
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return apperror.Internal(err)
}
