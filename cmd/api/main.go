package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trungpqhe173313/SEP490-sub002/internal/config"
	"github.com/trungpqhe173313/SEP490-sub002/internal/handler"
	"github.com/trungpqhe173313/SEP490-sub002/internal/lock"
	"github.com/trungpqhe173313/SEP490-sub002/internal/middleware"
	"github.com/trungpqhe173313/SEP490-sub002/internal/repository"
	"github.com/trungpqhe173313/SEP490-sub002/internal/service"
	"github.com/trungpqhe173313/SEP490-sub002/internal/ws"
	"github.com/trungpqhe173313/SEP490-sub002/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// dev: pretty, prod: JSON
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate schema")
		}
	}

	// 3. Locks: redis when configured, in-process otherwise
	var (
		rdb    *redis.Client
		locker lock.Locker = lock.NewKeyedMutex()
	)
	if cfg.RedisURL != "" {
		rdb, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		locker = lock.NewRedisLocker(rdb, cfg.LockTTL(), cfg.LockRetryCount)
	} else {
		log.Warn().Msg("REDIS_URL not set, using in-process locks")
	}

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	warehouseRepo := repository.NewWarehouseRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	userRepo := repository.NewUserRepo(db)
	inventoryRepo := repository.NewInventoryRepo(db)
	adjustmentRepo := repository.NewStockAdjustmentRepo(db)
	productionRepo := repository.NewProductionRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	returnRepo := repository.NewReturnTransactionRepo(db)

	ledger := service.NewInventoryLedger(inventoryRepo, productRepo, warehouseRepo, wsHub)
	adjustmentService := service.NewStockAdjustmentService(adjustmentRepo, productRepo, warehouseRepo, ledger, locker)
	productionService := service.NewProductionService(productionRepo, locker, wsHub)
	returnService := service.NewReturnTransactionService(returnRepo, txRepo, warehouseRepo, supplierRepo, userRepo, productRepo)

	handlers := handler.Handlers{
		Inventory:   handler.NewInventoryHandler(ledger),
		Adjustments: handler.NewStockAdjustmentHandler(adjustmentService),
		Production:  handler.NewProductionHandler(productionService),
		ReturnOrder: handler.NewReturnOrderHandler(returnService),
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Warehouse Core v1.0",
		ErrorHandler: middleware.ErrorHandler,
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger())
	app.Use(recover.New())
	app.Use(cors.New())

	// 7. Routes
	api := app.Group("/api/v1", middleware.IdentifyActor(userRepo))
	api.Get("/health", handler.Health(db, rdb))
	handler.RegisterRoutes(api, handlers)

	// WebSocket Route
	app.Use("/ws", ws.RequireUpgrade)
	app.Get("/ws", ws.Serve(wsHub))

	// 8. Graceful Shutdown
	go func() {
		log.Info().Msgf("listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info().Msg("Server exited")
}
