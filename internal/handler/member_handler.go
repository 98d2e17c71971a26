package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/tripdesk/internal/domain"
	"github.com/mansoorceksport/tripdesk/internal/service"
)

type MemberHandler struct {
	ledgerService *service.LedgerService
}

func NewMemberHandler(ledgerService *service.LedgerService) *MemberHandler {
	return &MemberHandler{ledgerService: ledgerService}
}

// ListMembers GET /v1/admin/packages/:type/:id/date-ranges/:rangeId/members
func (h *MemberHandler) ListMembers(c *fiber.Ctx) error {
	if _, err := packageType(c); err != nil {
		return respondError(c, err)
	}

	members, err := h.ledgerService.GetMembersByDateRange(c.UserContext(), c.Params("id"), c.Params("rangeId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(members)
}

// GetStats GET /v1/admin/packages/:type/:id/date-ranges/:rangeId/stats
func (h *MemberHandler) GetStats(c *fiber.Ctx) error {
	if _, err := packageType(c); err != nil {
		return respondError(c, err)
	}

	stats, err := h.ledgerService.GetMemberStats(c.UserContext(), c.Params("id"), c.Params("rangeId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// AddMember POST /v1/admin/packages/:type/:id/date-ranges/:rangeId/members
// The enrollment keys come from the path, not the body.
func (h *MemberHandler) AddMember(c *fiber.Ctx) error {
	pkgType, err := packageType(c)
	if err != nil {
		return respondError(c, err)
	}

	var req domain.MemberInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	req.PackageType = pkgType
	req.PackageID = c.Params("id")
	req.DateRangeID = c.Params("rangeId")

	member, err := h.ledgerService.AddMember(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(member)
}

// UpdateMember PUT /v1/admin/members/:id
// Contact fields are overwritten; totalAmount and amountPaid are only changed when sent.
func (h *MemberHandler) UpdateMember(c *fiber.Ctx) error {
	var req domain.MemberInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	member, err := h.ledgerService.UpdateMember(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(member)
}

// DeleteMember DELETE /v1/admin/members/:id?confirm=true
func (h *MemberHandler) DeleteMember(c *fiber.Ctx) error {
	if !c.QueryBool("confirm") {
		return confirmRequired(c)
	}

	if err := h.ledgerService.DeleteMember(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
