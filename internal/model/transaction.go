package model

import "time"

type TransactionType string

const (
	TxIn  TransactionType = "IN"
	TxOut TransactionType = "OUT"
)

// Transaction is a recorded stock movement document (purchase receipt or sale).
// It is owned by another module; this core only reads it as the origin of returns.
type Transaction struct {
	BaseModel
	Code        string              `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Type        TransactionType     `gorm:"type:varchar(10);not null" json:"type"`
	WarehouseID int64               `gorm:"not null;index" json:"warehouseId"`
	SupplierID  *int64              `gorm:"index" json:"supplierId,omitempty"`
	CustomerID  *int64              `gorm:"index" json:"customerId,omitempty"`
	Note        string              `gorm:"type:text" json:"note,omitempty"`
	Details     []TransactionDetail `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"details,omitempty"`
}

type TransactionDetail struct {
	ID            int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionID int64 `gorm:"not null;index" json:"transactionId"`
	ProductID     int64 `gorm:"not null" json:"productId"`
	Quantity      int64 `gorm:"not null" json:"quantity"`
}

// ReturnTransaction reverses (part of) a Transaction. TransactionID must resolve.
type ReturnTransaction struct {
	ID            int64                     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionID int64                     `gorm:"not null;index" json:"transactionId"`
	Reason        string                    `gorm:"type:text" json:"reason"`
	WarehouseID   int64                     `gorm:"not null;index" json:"warehouseId"`
	CustomerID    *int64                    `gorm:"index" json:"customerId,omitempty"`
	SupplierID    *int64                    `gorm:"index" json:"supplierId,omitempty"`
	CreatedAt     time.Time                 `json:"createdAt"`
	Details       []ReturnTransactionDetail `gorm:"foreignKey:ReturnTransactionID;constraint:OnDelete:CASCADE" json:"details,omitempty"`
}

func (ReturnTransaction) TableName() string {
	return "return_transactions"
}

type ReturnTransactionDetail struct {
	ID                  int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ReturnTransactionID int64 `gorm:"not null;index" json:"returnTransactionId"`
	ProductID           int64 `gorm:"not null" json:"productId"`
	Quantity            int64 `gorm:"not null" json:"quantity"`
}

// ReturnTransactionSearch filters GET /return-orders.
type ReturnTransactionSearch struct {
	TransactionID *int64
	WarehouseID   *int64
	CustomerID    *int64
	Reason        string
	From          *time.Time
	To            *time.Time
	Paging
}

// ReturnTransactionRow is one line of the paged return listing.
type ReturnTransactionRow struct {
	ID            int64            `json:"id"`
	TransactionID int64            `json:"transactionId"`
	Reason        string           `json:"reason"`
	WarehouseID   int64            `json:"warehouseId"`
	WarehouseName string           `json:"warehouseName"`
	Customer      *CustomerDisplay `json:"customer,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}

type ReturnLineView struct {
	ProductID        int64  `json:"productId"`
	ProductCode      string `json:"productCode"`
	ProductName      string `json:"productName"`
	OriginalQuantity int64  `json:"originalQuantity"`
	ReturnedQuantity int64  `json:"returnedQuantity"`
}

// ReturnTransactionDetailView is the reconciled read-only view of one return.
type ReturnTransactionDetailView struct {
	ID              int64            `json:"id"`
	TransactionID   int64            `json:"transactionId"`
	TransactionCode string           `json:"transactionCode"`
	TransactionType TransactionType  `json:"transactionType"`
	Reason          string           `json:"reason"`
	WarehouseID     int64            `json:"warehouseId"`
	WarehouseName   string           `json:"warehouseName"`
	SupplierID      *int64           `json:"supplierId,omitempty"`
	SupplierName    string           `json:"supplierName,omitempty"`
	Customer        *CustomerDisplay `json:"customer,omitempty"`
	Lines           []ReturnLineView `json:"lines"`
	CreatedAt       time.Time        `json:"createdAt"`
}
