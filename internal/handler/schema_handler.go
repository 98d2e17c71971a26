package handler

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/tripdesk/internal/service"
)

type SchemaHandler struct {
	schemaService *service.DetailSchemaService
}

func NewSchemaHandler(schemaService *service.DetailSchemaService) *SchemaHandler {
	return &SchemaHandler{schemaService: schemaService}
}

// GetSchema GET /v1/admin/schemas/:type
func (h *SchemaHandler) GetSchema(c *fiber.Ctx) error {
	pkgType, err := packageType(c)
	if err != nil {
		return respondError(c, err)
	}

	schema, err := h.schemaService.GetSchema(c.UserContext(), pkgType)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(schema)
}

// AddCategory POST /v1/admin/schemas/:type/categories
func (h *SchemaHandler) AddCategory(c *fiber.Ctx) error {
	pkgType, err := packageType(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Name   string   `json:"name"`
		Fields []string `json:"fields"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	change, err := h.schemaService.AddCategory(c.UserContext(), pkgType, req.Name, req.Fields)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(change)
}

// RemoveCategory DELETE /v1/admin/schemas/:type/categories/:categoryId?confirm=true
func (h *SchemaHandler) RemoveCategory(c *fiber.Ctx) error {
	pkgType, err := packageType(c)
	if err != nil {
		return respondError(c, err)
	}
	if !c.QueryBool("confirm") {
		return confirmRequired(c)
	}

	change, err := h.schemaService.RemoveCategory(c.UserContext(), pkgType, c.Params("categoryId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(change)
}

// AddField POST /v1/admin/schemas/:type/categories/:categoryId/fields
func (h *SchemaHandler) AddField(c *fiber.Ctx) error {
	pkgType, err := packageType(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Field string `json:"field"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	change, err := h.schemaService.AddField(c.UserContext(), pkgType, c.Params("categoryId"), req.Field)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(change)
}

// RemoveField DELETE /v1/admin/schemas/:type/categories/:categoryId/fields/:field?confirm=true
func (h *SchemaHandler) RemoveField(c *fiber.Ctx) error {
	pkgType, err := packageType(c)
	if err != nil {
		return respondError(c, err)
	}
	if !c.QueryBool("confirm") {
		return confirmRequired(c)
	}

	// Field names are free text and may contain escaped spaces
	field, err := url.PathUnescape(c.Params("field"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid field name"})
	}

	change, err := h.schemaService.RemoveField(c.UserContext(), pkgType, c.Params("categoryId"), field)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(change)
}
