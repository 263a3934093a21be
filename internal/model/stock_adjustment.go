package model

import (
	"time"
)

// AdjustmentStatus is the stock-adjustment state. Resolved is terminal.
type AdjustmentStatus string

const (
	AdjustmentDraft    AdjustmentStatus = "Draft"
	AdjustmentResolved AdjustmentStatus = "Resolved"
)

func (s AdjustmentStatus) Valid() bool {
	return s == AdjustmentDraft || s == AdjustmentResolved
}

// AdjustmentOp is an operation requested against an existing adjustment.
type AdjustmentOp string

const (
	OpUpdate  AdjustmentOp = "update"
	OpResolve AdjustmentOp = "resolve"
	OpDelete  AdjustmentOp = "delete"
)

// adjustmentTransitions is the single table of legal operations per status.
var adjustmentTransitions = map[AdjustmentStatus]map[AdjustmentOp]bool{
	AdjustmentDraft: {
		OpUpdate:  true,
		OpResolve: true,
		OpDelete:  true,
	},
	AdjustmentResolved: {},
}

// Allows reports whether op is legal for the adjustment's current status.
func (a *StockAdjustment) Allows(op AdjustmentOp) bool {
	return adjustmentTransitions[a.Status][op]
}

type StockAdjustment struct {
	BaseModel
	WarehouseID int64                   `gorm:"not null;index" json:"warehouseId"`
	Status      AdjustmentStatus        `gorm:"type:varchar(16);not null;default:'Draft';index" json:"status"`
	Note        string                  `gorm:"type:text" json:"note,omitempty"`
	ResolvedAt  *time.Time              `json:"resolvedAt,omitempty"`
	ResolvedBy  string                  `gorm:"type:varchar(100)" json:"resolvedBy,omitempty"`
	Details     []StockAdjustmentDetail `gorm:"foreignKey:StockAdjustmentID;constraint:OnDelete:CASCADE" json:"details"`
}

func (StockAdjustment) TableName() string {
	return "stock_adjustments"
}

type StockAdjustmentDetail struct {
	ID                int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	StockAdjustmentID int64  `gorm:"not null;index;uniqueIndex:idx_adjustment_product" json:"stockAdjustmentId"`
	ProductID         int64  `gorm:"not null;uniqueIndex:idx_adjustment_product" json:"productId"`
	ActualQuantity    int64  `gorm:"not null" json:"actualQuantity"`
	SystemQuantity    int64  `gorm:"not null" json:"systemQuantity"`
	Difference        int64  `gorm:"not null" json:"difference"`
	Note              string `gorm:"type:text" json:"note,omitempty"`
}

func (StockAdjustmentDetail) TableName() string {
	return "stock_adjustment_details"
}

// Reconcile stores the ledger quantity and recomputes Difference from it.
func (d *StockAdjustmentDetail) Reconcile(systemQuantity int64) {
	d.SystemQuantity = systemQuantity
	d.Difference = d.ActualQuantity - d.SystemQuantity
}

// Deltas builds the ledger batch a resolve applies.
func (a *StockAdjustment) Deltas() []StockDelta {
	out := make([]StockDelta, 0, len(a.Details))
	for _, d := range a.Details {
		out = append(out, StockDelta{
			ProductID:   d.ProductID,
			WarehouseID: a.WarehouseID,
			Delta:       d.Difference,
		})
	}
	return out
}

// StockAdjustmentFilter drives the draft listing.
type StockAdjustmentFilter struct {
	WarehouseID *int64
	Status      AdjustmentStatus
	Paging
}

type StockAdjustmentDetailResponse struct {
	ID             int64  `json:"id"`
	ProductID      int64  `json:"productId"`
	ProductCode    string `json:"productCode"`
	ProductName    string `json:"productName"`
	ActualQuantity int64  `json:"actualQuantity"`
	SystemQuantity int64  `json:"systemQuantity"`
	Difference     int64  `json:"difference"`
	Note           string `json:"note,omitempty"`
}

type StockAdjustmentResponse struct {
	ID            int64                           `json:"id"`
	WarehouseID   int64                           `json:"warehouseId"`
	WarehouseName string                          `json:"warehouseName"`
	Status        AdjustmentStatus                `json:"status"`
	Note          string                          `json:"note,omitempty"`
	ResolvedAt    *time.Time                      `json:"resolvedAt,omitempty"`
	Details       []StockAdjustmentDetailResponse `json:"details"`
	CreatedAt     time.Time                       `json:"createdAt"`
	UpdatedAt     time.Time                       `json:"updatedAt"`
	CreatedBy     string                          `json:"createdBy,omitempty"`
	UpdatedBy     string                          `json:"updatedBy,omitempty"`
}

// ToResponse converts the adjustment, joining display names from the given lookups.
func (a *StockAdjustment) ToResponse(warehouse *Warehouse, products map[int64]Product) StockAdjustmentResponse {
	resp := StockAdjustmentResponse{
		ID:          a.ID,
		WarehouseID: a.WarehouseID,
		Status:      a.Status,
		Note:        a.Note,
		ResolvedAt:  a.ResolvedAt,
		Details:     make([]StockAdjustmentDetailResponse, 0, len(a.Details)),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		CreatedBy:   a.CreatedBy,
		UpdatedBy:   a.UpdatedBy,
	}
	if warehouse != nil {
		resp.WarehouseName = warehouse.Name
	}

	for _, d := range a.Details {
		p := products[d.ProductID]
		resp.Details = append(resp.Details, StockAdjustmentDetailResponse{
			ID:             d.ID,
			ProductID:      d.ProductID,
			ProductCode:    p.Code,
			ProductName:    p.Name,
			ActualQuantity: d.ActualQuantity,
			SystemQuantity: d.SystemQuantity,
			Difference:     d.Difference,
			Note:           d.Note,
		})
	}
	return resp
}

// ProductIDs returns the distinct products referenced by the details.
func (a *StockAdjustment) ProductIDs() []int64 {
	seen := make(map[int64]bool, len(a.Details))
	ids := make([]int64, 0, len(a.Details))
	for _, d := range a.Details {
		if !seen[d.ProductID] {
			seen[d.ProductID] = true
			ids = append(ids, d.ProductID)
		}
	}
	return ids
}
