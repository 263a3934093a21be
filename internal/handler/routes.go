package handler

import "github.com/gofiber/fiber/v2"

type Handlers struct {
	Inventory   *InventoryHandler
	Adjustments *StockAdjustmentHandler
	Production  *ProductionHandler
	ReturnOrder *ReturnOrderHandler
}

// RegisterRoutes mounts the core endpoints on api (normally the /api/v1 group).
func RegisterRoutes(api fiber.Router, h Handlers) {
	// Inventory ledger
	api.Get("/inventory", h.Inventory.GetStock)
	api.Get("/inventory/:productId/warehouses", h.Inventory.GetWarehouseBreakdown)

	// Stock adjustments
	adj := api.Group("/stock-adjustments")
	adj.Get("/", h.Adjustments.List)
	adj.Get("/:id", h.Adjustments.Get)
	adj.Post("/", h.Adjustments.Create)
	adj.Put("/:id", h.Adjustments.Update)
	adj.Post("/:id/resolve", h.Adjustments.Resolve)
	adj.Delete("/:id", h.Adjustments.Delete)

	// Production capture
	api.Get("/production/current", h.Production.GetCurrent)
	api.Post("/production/package", h.Production.SubmitPackage)
	api.Get("/production-weight-log/summary/:productionId", h.Production.GetSummary)
	api.Get("/production-weight-log/:productionId", h.Production.ListPackages)

	// Return orders
	api.Get("/return-orders", h.ReturnOrder.List)
	api.Get("/return-orders/:id", h.ReturnOrder.Get)
}
