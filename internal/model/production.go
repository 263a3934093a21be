package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductionStatus string

const (
	ProductionIdle    ProductionStatus = "Idle"
	ProductionRunning ProductionStatus = "Running"
)

// ProductionSession is the live run bound to a weighing device.
// At most one Running session exists per DeviceCode (partial unique index).
type ProductionSession struct {
	ID         int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	DeviceCode string             `gorm:"type:varchar(50);not null;index" json:"deviceCode"`
	Status     ProductionStatus   `gorm:"type:varchar(16);not null;default:'Idle'" json:"status"`
	StartedAt  *time.Time         `json:"startedAt,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
	Targets    []ProductionTarget `gorm:"foreignKey:ProductionID;constraint:OnDelete:CASCADE" json:"targets,omitempty"`
}

func (ProductionSession) TableName() string {
	return "production_sessions"
}

func (s *ProductionSession) IsRunning() bool {
	return s.Status == ProductionRunning
}

// Target returns the target line for a product, if the product belongs to this run.
func (s *ProductionSession) Target(productID int64) (ProductionTarget, bool) {
	for _, t := range s.Targets {
		if t.ProductID == productID {
			return t, true
		}
	}
	return ProductionTarget{}, false
}

type ProductionTarget struct {
	ProductionID int64           `gorm:"primaryKey;autoIncrement:false" json:"productionId"`
	ProductID    int64           `gorm:"primaryKey;autoIncrement:false" json:"productId"`
	Product      *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	TargetWeight decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"targetWeight"`
	TargetBags   int             `gorm:"not null;default:0" json:"targetBags"`
}

func (ProductionTarget) TableName() string {
	return "production_targets"
}

// PackageSubmission is one weighed bag. Rows are append-only.
type PackageSubmission struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductionID int64           `gorm:"not null;uniqueIndex:idx_package_bag" json:"productionId"`
	ProductID    int64           `gorm:"not null;uniqueIndex:idx_package_bag" json:"productId"`
	BagIndex     int             `gorm:"not null;uniqueIndex:idx_package_bag" json:"bagIndex"`
	ActualWeight decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"actualWeight"`
	TargetWeight decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"targetWeight"`
	DeviceCode   string          `gorm:"type:varchar(50);not null" json:"deviceCode"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (PackageSubmission) TableName() string {
	return "package_submissions"
}

// BeforeCreate generates the UUID when the caller did not set one
func (p *PackageSubmission) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// ProductWeightSummary is derived from the submission log, never stored.
type ProductWeightSummary struct {
	ProductionID int64           `json:"productionId"`
	ProductID    int64           `json:"productId"`
	ProductName  string          `json:"productName"`
	TotalBags    int64           `json:"totalBags"`
	TotalWeight  decimal.Decimal `json:"totalWeight"`
	TargetWeight decimal.Decimal `json:"targetWeight"`
	TargetBags   int             `json:"targetBags"`
}

type TargetProductView struct {
	ProductID    int64           `json:"productId"`
	ProductCode  string          `json:"productCode"`
	ProductName  string          `json:"productName"`
	TargetWeight decimal.Decimal `json:"targetWeight"`
	TargetBags   int             `json:"targetBags"`
}

type CurrentProductionResponse struct {
	Status         ProductionStatus    `json:"status"`
	ProductionID   int64               `json:"productionId"`
	DeviceCode     string              `json:"deviceCode"`
	StartedAt      *time.Time          `json:"startedAt,omitempty"`
	TargetProducts []TargetProductView `json:"targetProducts"`
}

type PackageResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductionID int64           `json:"productionId"`
	ProductID    int64           `json:"productId"`
	BagIndex     int             `json:"bagIndex"`
	ActualWeight decimal.Decimal `json:"actualWeight"`
	TargetWeight decimal.Decimal `json:"targetWeight"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (p *PackageSubmission) ToResponse() PackageResponse {
	return PackageResponse{
		ID:           p.ID,
		ProductionID: p.ProductionID,
		ProductID:    p.ProductID,
		BagIndex:     p.BagIndex,
		ActualWeight: p.ActualWeight,
		TargetWeight: p.TargetWeight,
		CreatedAt:    p.CreatedAt,
	}
}
