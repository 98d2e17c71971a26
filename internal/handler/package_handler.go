package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/tripdesk/internal/domain"
	"github.com/mansoorceksport/tripdesk/internal/service"
)

type PackageHandler struct {
	packageService *service.PackageService
}

func NewPackageHandler(packageService *service.PackageService) *PackageHandler {
	return &PackageHandler{packageService: packageService}
}

// ListPackages GET /v1/packages/:type and /v1/admin/packages/:type
// Participant counts are refreshed from the ledger on every load.
func (h *PackageHandler) ListPackages(c *fiber.Ctx) error {
	pkgType, err := packageType(c)
	if err != nil {
		return respondError(c, err)
	}

	packages, err := h.packageService.ListPackages(c.UserContext(), pkgType, c.QueryBool("featured"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(packages)
}

// GetPackage GET /v1/packages/:type/:id
func (h *PackageHandler) GetPackage(c *fiber.Ctx) error {
	pkgType, err := packageType(c)
	if err != nil {
		return respondError(c, err)
	}

	pkg, err := h.packageService.GetPackage(c.UserContext(), pkgType, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pkg)
}

// CreatePackage POST /v1/admin/packages/:type
func (h *PackageHandler) CreatePackage(c *fiber.Ctx) error {
	pkgType, err := packageType(c)
	if err != nil {
		return respondError(c, err)
	}

	var req domain.PackageInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	pkg, err := h.packageService.CreatePackage(c.UserContext(), pkgType, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(pkg)
}

// UpdatePackage PUT /v1/admin/packages/:type/:id
func (h *PackageHandler) UpdatePackage(c *fiber.Ctx) error {
	pkgType, err := packageType(c)
	if err != nil {
		return respondError(c, err)
	}

	var req domain.PackageInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	pkg, err := h.packageService.UpdatePackage(c.UserContext(), pkgType, c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(pkg)
}

// DeletePackage DELETE /v1/admin/packages/:type/:id?confirm=true
func (h *PackageHandler) DeletePackage(c *fiber.Ctx) error {
	pkgType, err := packageType(c)
	if err != nil {
		return respondError(c, err)
	}
	if !c.QueryBool("confirm") {
		return confirmRequired(c)
	}

	if err := h.packageService.DeletePackage(c.UserContext(), pkgType, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SyncPackages POST /v1/admin/packages/:type/sync
func (h *PackageHandler) SyncPackages(c *fiber.Ctx) error {
	pkgType, err := packageType(c)
	if err != nil {
		return respondError(c, err)
	}

	report, err := h.packageService.SyncCatalogue(c.UserContext(), pkgType)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
