package model

import (
	"fmt"
	"sort"
	"time"
)

// InventoryRecord is the ledger row for one (product, warehouse) pair.
// Rows are created on first movement and never deleted; zero is a valid state.
type InventoryRecord struct {
	ProductID   int64     `gorm:"primaryKey;autoIncrement:false" json:"productId"`
	WarehouseID int64     `gorm:"primaryKey;autoIncrement:false;index" json:"warehouseId"`
	Quantity    int64     `gorm:"not null;default:0;check:chk_inventory_records_quantity,quantity >= 0" json:"quantity"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (InventoryRecord) TableName() string {
	return "inventory_records"
}

// StockKey identifies a ledger row.
type StockKey struct {
	ProductID   int64 `json:"productId"`
	WarehouseID int64 `json:"warehouseId"`
}

func (k StockKey) String() string {
	return fmt.Sprintf("product %d in warehouse %d", k.ProductID, k.WarehouseID)
}

func (k StockKey) Less(o StockKey) bool {
	if k.ProductID != o.ProductID {
		return k.ProductID < o.ProductID
	}
	return k.WarehouseID < o.WarehouseID
}

// StockDelta is a signed change to apply to one ledger row.
type StockDelta struct {
	ProductID   int64 `json:"productId"`
	WarehouseID int64 `json:"warehouseId"`
	Delta       int64 `json:"delta"`
	// Drawdown is the lowest running total reached while the entries netted into
	// this delta are applied in order. Zero when nothing dipped below the start.
	Drawdown int64 `json:"-"`
}

func (d StockDelta) Key() StockKey {
	return StockKey{ProductID: d.ProductID, WarehouseID: d.WarehouseID}
}

// Low is the lowest change relative to the current quantity that applying d
// passes through. The row must hold at least -Low for d to be valid.
func (d StockDelta) Low() int64 {
	if d.Drawdown < d.Delta {
		return d.Drawdown
	}
	return d.Delta
}

// NetDeltas merges entries on the same key, in input order, and drops keys whose
// entries cancel out without ever dipping below the starting quantity.
// The output is sorted by key so callers always lock rows in the same order.
func NetDeltas(entries []StockDelta) []StockDelta {
	byKey := make(map[StockKey]*StockDelta, len(entries))
	for _, e := range entries {
		acc, ok := byKey[e.Key()]
		if !ok {
			acc = &StockDelta{ProductID: e.ProductID, WarehouseID: e.WarehouseID}
			byKey[e.Key()] = acc
		}
		if low := acc.Delta + e.Low(); low < acc.Drawdown {
			acc.Drawdown = low
		}
		acc.Delta += e.Delta
	}

	out := make([]StockDelta, 0, len(byKey))
	for _, d := range byKey {
		if d.Delta == 0 && d.Drawdown == 0 {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out
}

// StockView answers GET /inventory.
type StockView struct {
	ProductID   int64  `json:"productId"`
	ProductCode string `json:"productCode"`
	ProductName string `json:"productName"`
	WarehouseID *int64 `json:"warehouseId,omitempty"`
	Quantity    int64  `json:"quantity"`
}

type WarehouseQuantity struct {
	WarehouseID   int64  `json:"warehouseId"`
	WarehouseName string `json:"warehouseName"`
	Quantity      int64  `json:"quantity"`
}

// StockBreakdown lists a product's quantity per warehouse plus the aggregate.
type StockBreakdown struct {
	ProductID   int64               `json:"productId"`
	ProductName string              `json:"productName"`
	Warehouses  []WarehouseQuantity `json:"warehouses"`
	Total       int64               `json:"total"`
}
