package handler

import (
	"strconv"

	"github.com/trungpqhe173313/SEP490-sub002/internal/apperror"
	"github.com/trungpqhe173313/SEP490-sub002/internal/model"
	"github.com/trungpqhe173313/SEP490-sub002/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReturnOrderHandler struct {
	service service.ReturnTransactionService
}

func NewReturnOrderHandler(s service.ReturnTransactionService) *ReturnOrderHandler {
	return &ReturnOrderHandler{service: s}
}

func (h *ReturnOrderHandler) List(c *fiber.Ctx) error {
	search := model.ReturnTransactionSearch{
		Reason: c.Query("reason"),
		Paging: paging(c),
	}
	var err error
	if search.TransactionID, err = queryInt64(c, "transactionId"); err != nil {
		return fail(c, err)
	}
	if search.WarehouseID, err = queryInt64(c, "warehouseId"); err != nil {
		return fail(c, err)
	}
	if search.CustomerID, err = queryInt64(c, "customerId"); err != nil {
		return fail(c, err)
	}
	if search.From, err = queryTime(c, "from"); err != nil {
		return fail(c, err)
	}
	if search.To, err = queryTime(c, "to"); err != nil {
		return fail(c, err)
	}

	page, err := h.service.GetData(c.UserContext(), search)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, page)
}

// Get passes non-positive ids through so the service reports them as invalid.
func (h *ReturnOrderHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fail(c, apperror.Validation("invalid return transaction id"))
	}

	view, err := h.service.GetDetail(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, view)
}
