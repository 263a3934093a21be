package main

import (
	"context"
	"errors"
	"time"

	"github.com/trungpqhe173313/SEP490-sub002/internal/config"
	"github.com/trungpqhe173313/SEP490-sub002/internal/model"
	"github.com/trungpqhe173313/SEP490-sub002/internal/repository"
	"github.com/trungpqhe173313/SEP490-sub002/pkg/database"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// seed loads a small demo dataset: two warehouses, three products with opening
// stock, a customer, a running production on SCALE-01 and one sale with a return.
func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on system env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate schema")
	}

	ctx := context.Background()
	productRepo := repository.NewProductRepo(db)

	// 3. Skip when already seeded
	if _, err := productRepo.FindByCode(ctx, "RICE-5KG"); err == nil {
		log.Info().Msg("demo data already present, nothing to do")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatal().Err(err).Msg("failed to check existing data")
	}

	if err := seed(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Msg("demo data created")
}

func seed(ctx context.Context, db *gorm.DB) error {
	productRepo := repository.NewProductRepo(db)
	warehouseRepo := repository.NewWarehouseRepo(db)
	userRepo := repository.NewUserRepo(db)
	inventoryRepo := repository.NewInventoryRepo(db)
	productionRepo := repository.NewProductionRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	returnRepo := repository.NewReturnTransactionRepo(db)

	// 4. Warehouses and products
	warehouses := []*model.Warehouse{
		{Code: "WH-MAIN", Name: "Main Warehouse", Address: "Lot 12, Industrial Zone"},
		{Code: "WH-EAST", Name: "East Depot"},
	}
	for _, w := range warehouses {
		w.CreatedBy, w.UpdatedBy = "seed", "seed"
		if err := warehouseRepo.Create(ctx, w); err != nil {
			return err
		}
	}

	products := []*model.Product{
		{Code: "RICE-5KG", Name: "Rice 5kg bag", Unit: "bag"},
		{Code: "RICE-10KG", Name: "Rice 10kg bag", Unit: "bag"},
		{Code: "BRAN-25KG", Name: "Rice bran 25kg", Unit: "bag"},
	}
	for _, p := range products {
		p.CreatedBy, p.UpdatedBy = "seed", "seed"
		if err := productRepo.Create(ctx, p); err != nil {
			return err
		}
	}

	// 5. Opening stock goes through the ledger like any other movement
	opening := model.NetDeltas([]model.StockDelta{
		{ProductID: products[0].ID, WarehouseID: warehouses[0].ID, Delta: 120},
		{ProductID: products[1].ID, WarehouseID: warehouses[0].ID, Delta: 40},
		{ProductID: products[1].ID, WarehouseID: warehouses[1].ID, Delta: 15},
		{ProductID: products[2].ID, WarehouseID: warehouses[1].ID, Delta: 8},
	})
	if _, err := inventoryRepo.ApplyDeltas(ctx, opening); err != nil {
		return err
	}

	// 6. Customer
	customer := &model.User{FullName: "Nguyen Van A", Email: "customer@example.com", PhoneNumber: "0900000001"}
	customer.CreatedBy, customer.UpdatedBy = "seed", "seed"
	if err := userRepo.Create(ctx, customer); err != nil {
		return err
	}

	// 7. Running production on the demo scale
	now := time.Now()
	session := &model.ProductionSession{
		DeviceCode: "SCALE-01",
		Status:     model.ProductionRunning,
		StartedAt:  &now,
		Targets: []model.ProductionTarget{
			{ProductID: products[0].ID, TargetWeight: decimal.NewFromInt(5), TargetBags: 200},
			{ProductID: products[1].ID, TargetWeight: decimal.NewFromInt(10), TargetBags: 100},
		},
	}
	if err := productionRepo.Create(ctx, session); err != nil {
		return err
	}

	// 8. A sale and a partial return against it
	customerID := customer.ID
	sale := &model.Transaction{
		Code:        "SO-0001",
		Type:        model.TxOut,
		WarehouseID: warehouses[0].ID,
		CustomerID:  &customerID,
		Details: []model.TransactionDetail{
			{ProductID: products[0].ID, Quantity: 10},
			{ProductID: products[1].ID, Quantity: 4},
		},
	}
	sale.CreatedBy, sale.UpdatedBy = "seed", "seed"
	if err := txRepo.Create(ctx, sale); err != nil {
		return err
	}

	ret := &model.ReturnTransaction{
		TransactionID: sale.ID,
		Reason:        "Torn bags",
		WarehouseID:   warehouses[0].ID,
		CustomerID:    &customerID,
		Details: []model.ReturnTransactionDetail{
			{ProductID: products[0].ID, Quantity: 2},
		},
	}
	if err := returnRepo.Create(ctx, ret); err != nil {
		return err
	}

	log.Info().
		Int64("production_id", session.ID).
		Int64("transaction_id", sale.ID).
		Int64("return_id", ret.ID).
		Msg("seeded production and return")
	return nil
}
