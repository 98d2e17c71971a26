package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/tripdesk/internal/domain"
	"github.com/mansoorceksport/tripdesk/internal/service"
)

type DateRangeHandler struct {
	dateRangeService *service.DateRangeService
}

func NewDateRangeHandler(dateRangeService *service.DateRangeService) *DateRangeHandler {
	return &DateRangeHandler{dateRangeService: dateRangeService}
}

// AddDateRange POST /v1/admin/packages/:type/:id/date-ranges
func (h *DateRangeHandler) AddDateRange(c *fiber.Ctx) error {
	pkgType, err := packageType(c)
	if err != nil {
		return respondError(c, err)
	}

	var req domain.DateRangeInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	pkg, dr, err := h.dateRangeService.AddDateRange(c.UserContext(), pkgType, c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"dateRange": dr,
		"package":   pkg,
	})
}

// UpdateDateRange PATCH /v1/admin/packages/:type/:id/date-ranges/:rangeId
func (h *DateRangeHandler) UpdateDateRange(c *fiber.Ctx) error {
	pkgType, err := packageType(c)
	if err != nil {
		return respondError(c, err)
	}

	var req domain.DateRangeInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	pkg, dr, err := h.dateRangeService.UpdateDateRange(c.UserContext(), pkgType, c.Params("id"), c.Params("rangeId"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"dateRange": dr,
		"package":   pkg,
	})
}

// DeleteDateRange DELETE /v1/admin/packages/:type/:id/date-ranges/:rangeId?confirm=true
func (h *DateRangeHandler) DeleteDateRange(c *fiber.Ctx) error {
	pkgType, err := packageType(c)
	if err != nil {
		return respondError(c, err)
	}
	if !c.QueryBool("confirm") {
		return confirmRequired(c)
	}

	pkg, err := h.dateRangeService.DeleteDateRange(c.UserContext(), pkgType, c.Params("id"), c.Params("rangeId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pkg)
}
