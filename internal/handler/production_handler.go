package handler

import (
	"github.com/trungpqhe173313/SEP490-sub002/internal/model"
	"github.com/trungpqhe173313/SEP490-sub002/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProductionHandler struct {
	service service.ProductionService
}

func NewProductionHandler(s service.ProductionService) *ProductionHandler {
	return &ProductionHandler{service: s}
}

func (h *ProductionHandler) GetCurrent(c *fiber.Ctx) error {
	resp, err := h.service.GetCurrentProduction(c.UserContext(), c.Query("deviceCode"))
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, resp)
}

// SubmitPackage is called by the weight scale once per packed bag.
func (h *ProductionHandler) SubmitPackage(c *fiber.Ctx) error {
	var req model.SubmitPackageRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}

	resp, err := h.service.SubmitPackage(c.UserContext(), &req)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusCreated, resp)
}

func (h *ProductionHandler) GetSummary(c *fiber.Ctx) error {
	productionID, err := paramID(c, "productionId")
	if err != nil {
		return fail(c, err)
	}

	summary, err := h.service.GetSummaryByProductionID(c.UserContext(), productionID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, summary)
}

func (h *ProductionHandler) ListPackages(c *fiber.Ctx) error {
	productionID, err := paramID(c, "productionId")
	if err != nil {
		return fail(c, err)
	}
	productID, err := queryInt64(c, "productId")
	if err != nil {
		return fail(c, err)
	}

	packages, err := h.service.ListPackages(c.UserContext(), productionID, productID)
	if err != nil {
		return fail(c, err)
	}
	return respond(c, fiber.StatusOK, packages)
}
