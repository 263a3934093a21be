package handler

import (
	"github.com/trungpqhe173313/SEP490-sub002/internal/model"
	"github.com/trungpqhe173313/SEP490-sub002/internal/service"

	"github.com/gofiber/fiber/v2"
)

type StockAdjustmentHandler struct {
	service service.StockAdjustmentService
}

func NewStockAdjustmentHandler(s service.StockAdjustmentService) *StockAdjustmentHandler {
	return &StockAdjustmentHandler{service: s}
}

func (h *StockAdjustmentHandler) List(c *fiber.Ctx) error {
	warehouseID, err := queryInt64(c, "warehouseId")
	if err != nil {
		return fail(c, err)
	}
	filter := model.StockAdjustmentFilter{
		WarehouseID: warehouseID,
		Status:      model.AdjustmentStatus(c.Query("status")),
		Paging:      paging(c),
	}

	page, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, page)
}

func (h *StockAdjustmentHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	resp, err := h.service.GetDraft(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, resp)
}

func (h *StockAdjustmentHandler) Create(c *fiber.Ctx) error {
	var req model.CreateAdjustmentRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}

	resp, err := h.service.CreateDraft(c.UserContext(), &req, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, resp)
}

func (h *StockAdjustmentHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req model.UpdateAdjustmentRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}

	resp, err := h.service.UpdateDraft(c.UserContext(), id, &req, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, resp)
}

func (h *StockAdjustmentHandler) Resolve(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	resp, err := h.service.Resolve(c.UserContext(), id, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, resp)
}

// Delete answers 200 with data=false when the adjustment is already resolved.
func (h *StockAdjustmentHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, err)
	}

	deleted, err := h.service.DeleteDraft(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, deleted)
}
