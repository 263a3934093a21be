package model

import "github.com/shopspring/decimal"

// AdjustmentDetailInput is one counted line in a create/update request.
type AdjustmentDetailInput struct {
	ProductID      int64  `json:"productId" validate:"gt=0"`
	ActualQuantity int64  `json:"actualQuantity" validate:"gte=0"`
	Note           string `json:"note"`
}

type CreateAdjustmentRequest struct {
	WarehouseID int64                   `json:"warehouseId" validate:"gt=0"`
	Note        string                  `json:"note"`
	Details     []AdjustmentDetailInput `json:"details" validate:"dive"`
}

type UpdateAdjustmentRequest struct {
	Note    string                  `json:"note"`
	Details []AdjustmentDetailInput `json:"details" validate:"dive"`
}

// SubmitPackageRequest is the weight-scale event for one packed bag.
type SubmitPackageRequest struct {
	DeviceCode   string          `json:"deviceCode" validate:"notblank"`
	ProductionID int64           `json:"productionId" validate:"gt=0"`
	ProductID    int64           `json:"productId" validate:"gt=0"`
	Weight       decimal.Decimal `json:"weight" validate:"gt=0"`
}
