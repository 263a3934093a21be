package handler

import (
	"github.com/trungpqhe173313/SEP490-sub002/internal/apperror"
	"github.com/trungpqhe173313/SEP490-sub002/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	ledger service.InventoryLedger
}

func NewInventoryHandler(l service.InventoryLedger) *InventoryHandler {
	return &InventoryHandler{ledger: l}
}

// GetStock answers GET /inventory?productId=&warehouseId=. Without warehouseId the
// quantity is the aggregate across warehouses.
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	productID, err := queryInt64(c, "productId")
	if err != nil {
		return fail(c, err)
	}
	if productID == nil {
		return fail(c, apperror.Validation("productId is required"))
	}
	warehouseID, err := queryInt64(c, "warehouseId")
	if err != nil {
		return fail(c, err)
	}

	view, err := h.ledger.GetStockView(c.UserContext(), *productID, warehouseID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, view)
}

func (h *InventoryHandler) GetWarehouseBreakdown(c *fiber.Ctx) error {
	productID, err := paramID(c, "productId")
	if err != nil {
		return fail(c, err)
	}

	out, err := h.ledger.GetWarehouseBreakdown(c.UserContext(), productID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, out)
}
